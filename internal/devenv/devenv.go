// devenv.go
//
// Add-on catalog backend for the add-on marketplace
// Copyright (c) 2026 Alex Grant <info@localnerve.com> (https://www.localnerve.com), LocalNerve LLC
//
// This file is part of amo-catalog.
// amo-catalog is free software: you can redistribute it and/or modify it
// under the terms of the GNU Affero General Public License as published by the Free Software
// Foundation, either version 3 of the License, or (at your option) any later version.
// amo-catalog is distributed in the hope that it will be useful, but WITHOUT ANY WARRANTY;
// without even the implied warranty of MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.
// See the GNU Affero General Public License for more details.
// You should have received a copy of the GNU Affero General Public License along with amo-catalog.
// If not, see <https://www.gnu.org/licenses/>.
// Additional terms under GNU AGPL version 3 section 7:
// a) The reasonable legal notice of original copyright and author attribution must be preserved
//    by including the string: "Copyright (c) 2026 Alex Grant <info@localnerve.com> (https://www.localnerve.com), LocalNerve LLC"
//    in this material, copies, or source code of derived works.


// Package devenv starts the database, search cluster and broker the catalog
// needs as testcontainers. It backs the integration tests and the standalone
// testcontainers command.
package devenv

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"time"

	"github.com/docker/docker/api/types/image"
	"github.com/docker/docker/client"
	"github.com/docker/go-connections/nat"
	_ "github.com/go-sql-driver/mysql"
	"github.com/localnerve/amo-catalog/internal/config"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/network"
	"github.com/testcontainers/testcontainers-go/wait"
)

// Logf receives progress messages. testing.T.Logf fits.
type Logf func(format string, args ...any)

// Options selects the containers to start.
type Options struct {
	DBType       string // mysql, mariadb or postgres
	DBImage      string
	DBDatabase   string
	DBUser       string
	DBPassword   string
	RootPassword string

	SearchImage string
	BrokerImage string
	WithSearch  bool
	WithBroker  bool
}

// OptionsFromEnv reads Options from the environment. The defaults start
// MariaDB with Elasticsearch and NATS.
func OptionsFromEnv() Options {
	return Options{
		DBType:       getEnv("DB_TYPE", "mariadb"),
		DBImage:      getEnv("DB_IMAGE", ""),
		DBDatabase:   getEnv("DB_DATABASE", "amo"),
		DBUser:       getEnv("DB_USER", "amo"),
		DBPassword:   getEnv("DB_PASSWORD", "amo"),
		RootPassword: getEnv("DB_ROOT_PASSWORD", "root"),
		SearchImage:  getEnv("ES_IMAGE", "docker.elastic.co/elasticsearch/elasticsearch:8.15.3"),
		BrokerImage:  getEnv("NATS_IMAGE", "nats:2.10-alpine"),
		WithSearch:   getEnv("DEVENV_SEARCH", "true") == "true",
		WithBroker:   getEnv("DEVENV_BROKER", "true") == "true",
	}
}

// Environment is a running set of containers.
type Environment struct {
	Network *testcontainers.DockerNetwork
	DB      testcontainers.Container
	Search  testcontainers.Container
	Broker  testcontainers.Container

	// Env holds the connection settings for processes on the host.
	Env map[string]string
}

// Start creates a network and starts the containers in opts. On error the
// containers already started are terminated.
func Start(ctx context.Context, opts Options, logf Logf) (*Environment, error) {
	if logf == nil {
		logf = func(string, ...any) {}
	}

	nw, err := network.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create network: %w", err)
	}
	env := &Environment{Network: nw, Env: map[string]string{}}

	if err := env.startDB(ctx, opts, logf); err != nil {
		env.Terminate(ctx, logf)
		return nil, err
	}
	if opts.WithSearch {
		if err := env.startSearch(ctx, opts, logf); err != nil {
			env.Terminate(ctx, logf)
			return nil, err
		}
	}
	if opts.WithBroker {
		if err := env.startBroker(ctx, opts, logf); err != nil {
			env.Terminate(ctx, logf)
			return nil, err
		}
	}

	return env, nil
}

// Config returns base with the connection settings of the environment applied.
func (e *Environment) Config(base config.Config) *config.Config {
	cfg := base
	cfg.DBType = e.Env["DB_TYPE"]
	cfg.DBHost = e.Env["DB_HOST"]
	cfg.DBPort = e.Env["DB_PORT"]
	cfg.DBDatabase = e.Env["DB_DATABASE"]
	cfg.DBUser = e.Env["DB_USER"]
	cfg.DBPassword = e.Env["DB_PASSWORD"]
	cfg.ESURL = e.Env["ES_URL"]
	cfg.NATSURL = e.Env["NATS_URL"]
	return &cfg
}

// Terminate stops every container and removes the network.
func (e *Environment) Terminate(ctx context.Context, logf Logf) {
	if logf == nil {
		logf = func(string, ...any) {}
	}
	containers := []struct {
		name string
		c    testcontainers.Container
	}{
		{"NATS", e.Broker},
		{"Elasticsearch", e.Search},
		{"Database", e.DB},
	}
	for _, tc := range containers {
		if tc.c == nil {
			continue
		}
		if err := tc.c.Terminate(ctx); err != nil {
			logf("Failed to terminate %s: %v", tc.name, err)
		}
	}
	if e.Network != nil {
		if err := e.Network.Remove(ctx); err != nil {
			logf("Failed to remove network: %v", err)
		}
	}
}

func (e *Environment) startDB(ctx context.Context, opts Options, logf Logf) error {
	portNumber, imageName, dbEnv := "3306", opts.DBImage, map[string]string{
		"MARIADB_ROOT_PASSWORD": opts.RootPassword,
		"MYSQL_ROOT_PASSWORD":   opts.RootPassword,
	}
	gormType := "mysql"
	if opts.DBType == "postgres" {
		portNumber = "5432"
		gormType = "postgres"
		dbEnv = map[string]string{
			"POSTGRES_DB":       opts.DBDatabase,
			"POSTGRES_USER":     opts.DBUser,
			"POSTGRES_PASSWORD": opts.DBPassword,
		}
		if imageName == "" {
			imageName = "postgres:16-alpine"
		}
	} else if imageName == "" {
		imageName = "mariadb:11"
	}

	port, err := nat.NewPort("tcp", portNumber)
	if err != nil {
		return fmt.Errorf("failed to create database port: %w", err)
	}
	reportImage(ctx, imageName, logf)

	c, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        imageName,
			ExposedPorts: []string{string(port)},
			Env:          dbEnv,
			WaitingFor:   wait.ForListeningPort(port).WithStartupTimeout(90 * time.Second),
			Networks:     []string{e.Network.Name},
			NetworkAliases: map[string][]string{
				e.Network.Name: {"db"},
			},
		},
		Started: true,
	})
	if err != nil {
		return fmt.Errorf("failed to start database: %w", err)
	}
	e.DB = c

	host, err := c.Host(ctx)
	if err != nil {
		return err
	}
	mapped, err := c.MappedPort(ctx, port)
	if err != nil {
		return err
	}

	if gormType == "mysql" {
		if err := initMySQL(ctx, opts, host, mapped); err != nil {
			return err
		}
	}

	e.Env["DB_TYPE"] = gormType
	e.Env["DB_HOST"] = host
	e.Env["DB_PORT"] = mapped.Port()
	e.Env["DB_DATABASE"] = opts.DBDatabase
	e.Env["DB_USER"] = opts.DBUser
	e.Env["DB_PASSWORD"] = opts.DBPassword
	logf("DB_HOST=%s DB_PORT=%s", host, mapped.Port())
	return nil
}

// initMySQL creates the catalog database and its user once the server
// accepts connections.
func initMySQL(ctx context.Context, opts Options, host string, port nat.Port) error {
	db, err := sql.Open("mysql", fmt.Sprintf("root:%s@tcp(%s:%s)/", opts.RootPassword, host, port.Port()))
	if err != nil {
		return fmt.Errorf("failed to connect to database for setup: %w", err)
	}
	defer db.Close()

	// Wait for connection to be really ready
	for i := 0; i < 30; i++ {
		if err = db.PingContext(ctx); err == nil {
			break
		}
		time.Sleep(time.Second)
	}
	if err != nil {
		return fmt.Errorf("database not ready after 30 seconds: %w", err)
	}

	statements := []string{
		fmt.Sprintf("CREATE DATABASE IF NOT EXISTS `%s` CHARACTER SET utf8mb4", opts.DBDatabase),
		fmt.Sprintf("CREATE USER IF NOT EXISTS '%s'@'%%' IDENTIFIED BY '%s'", opts.DBUser, opts.DBPassword),
		fmt.Sprintf("GRANT ALL PRIVILEGES ON `%s`.* TO '%s'@'%%'", opts.DBDatabase, opts.DBUser),
		"FLUSH PRIVILEGES",
	}
	for _, stmt := range statements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("%w : when executing > %s", err, stmt)
		}
	}
	return nil
}

func (e *Environment) startSearch(ctx context.Context, opts Options, logf Logf) error {
	port, err := nat.NewPort("tcp", "9200")
	if err != nil {
		return err
	}
	reportImage(ctx, opts.SearchImage, logf)

	c, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        opts.SearchImage,
			ExposedPorts: []string{string(port)},
			Env: map[string]string{
				"discovery.type":         "single-node",
				"xpack.security.enabled": "false",
				"ES_JAVA_OPTS":           "-Xms512m -Xmx512m",
			},
			WaitingFor: wait.ForHTTP("/_cluster/health").WithPort(port).WithStartupTimeout(2 * time.Minute),
			Networks:   []string{e.Network.Name},
			NetworkAliases: map[string][]string{
				e.Network.Name: {"elasticsearch"},
			},
		},
		Started: true,
	})
	if err != nil {
		return fmt.Errorf("failed to start elasticsearch: %w", err)
	}
	e.Search = c

	host, _ := c.Host(ctx)
	mapped, err := c.MappedPort(ctx, port)
	if err != nil {
		return err
	}
	e.Env["ES_URL"] = fmt.Sprintf("http://%s:%s", host, mapped.Port())
	logf("ES_URL=%s", e.Env["ES_URL"])
	return nil
}

func (e *Environment) startBroker(ctx context.Context, opts Options, logf Logf) error {
	port, err := nat.NewPort("tcp", "4222")
	if err != nil {
		return err
	}
	reportImage(ctx, opts.BrokerImage, logf)

	c, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        opts.BrokerImage,
			ExposedPorts: []string{string(port)},
			Cmd:          []string{"-js"},
			WaitingFor:   wait.ForLog("Server is ready").WithStartupTimeout(30 * time.Second),
			Networks:     []string{e.Network.Name},
			NetworkAliases: map[string][]string{
				e.Network.Name: {"nats"},
			},
		},
		Started: true,
	})
	if err != nil {
		return fmt.Errorf("failed to start nats: %w", err)
	}
	e.Broker = c

	host, _ := c.Host(ctx)
	mapped, err := c.MappedPort(ctx, port)
	if err != nil {
		return err
	}
	e.Env["NATS_URL"] = fmt.Sprintf("nats://%s:%s", host, mapped.Port())
	logf("NATS_URL=%s", e.Env["NATS_URL"])
	return nil
}

// reportImage logs whether imageName has to be pulled first.
func reportImage(ctx context.Context, imageName string, logf Logf) {
	exists, err := imageExists(ctx, imageName)
	switch {
	case err != nil:
		logf("Failed to check if image %s exists: %v", imageName, err)
	case exists:
		logf("Image %s exists, reusing...", imageName)
	default:
		logf("Image %s does not exist, pulling...", imageName)
	}
}

func imageExists(ctx context.Context, imageName string) (bool, error) {
	cli, err := client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
	if err != nil {
		return false, err
	}
	defer cli.Close()

	images, err := cli.ImageList(ctx, image.ListOptions{})
	if err != nil {
		return false, err
	}

	for _, image := range images {
		for _, tag := range image.RepoTags {
			if tag == imageName {
				return true, nil
			}
		}
	}

	return false, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

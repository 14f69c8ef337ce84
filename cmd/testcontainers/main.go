package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"sort"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/localnerve/amo-catalog/internal/devenv"
)

func main() {
	var showHelp bool
	flag.BoolVar(&showHelp, "h", false, "show help")
	var envFilename string
	flag.StringVar(&envFilename, "f", "", "path to the .env file")
	flag.Parse()

	usage := `
Run the amo-catalog testcontainers (database, elasticsearch, nats) with the
environment variables from the .env file, and print the connection settings.

Usage:

testcontainers [-h] [-f ENV_FILE_PATH]

ENV_FILE_PATH: path to the .env file

Recognized variables: DB_TYPE, DB_IMAGE, DB_DATABASE, DB_USER, DB_PASSWORD,
DB_ROOT_PASSWORD, ES_IMAGE, NATS_IMAGE, DEVENV_SEARCH, DEVENV_BROKER

example
  testcontainers -f /path/to/something/.env
`
	// if -h flag print usage and return
	if showHelp {
		fmt.Println(usage)
		return
	}

	if envFilename != "" {
		log.Printf("Loading environment variables from %s\n", envFilename)
		if err := godotenv.Load(envFilename); err != nil {
			log.Fatalf("Failed to load environment variables: %v\n", err)
		}
	} else {
		log.Printf("No environment file specified, using current environment variables\n")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	defer stop()

	env, err := devenv.Start(ctx, devenv.OptionsFromEnv(), log.Printf)
	if err != nil {
		log.Fatalf("Failed to create test containers: %v\n", err)
	}

	keys := make([]string, 0, len(env.Env))
	for key := range env.Env {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		fmt.Fprintf(os.Stdout, "%s=%s\n", key, env.Env[key])
	}

	<-ctx.Done()
	log.Printf("Received signal, terminating test containers...\n")
	env.Terminate(context.Background(), log.Printf)
}

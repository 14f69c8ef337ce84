package utils

import (
	"fmt"
	"net"
	"net/url"
	"strings"
	"time"
)

// DefaultPingTimeout bounds a single reachability probe.
const DefaultPingTimeout = 1500 * time.Millisecond

// PingService checks if a service is reachable at the given URL
func PingService(serviceURL string, timeout time.Duration) error {
	parsedURL, err := url.Parse(serviceURL)
	if err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}
	if parsedURL.Host == "" {
		return fmt.Errorf("invalid URL: %q has no host", serviceURL)
	}

	host := parsedURL.Hostname()
	port := parsedURL.Port()

	// Default ports if not specified
	if port == "" {
		switch parsedURL.Scheme {
		case "https":
			port = "443"
		case "nats", "tls":
			port = "4222"
		default:
			port = "80"
		}
	}

	address := net.JoinHostPort(host, port)

	conn, err := net.DialTimeout("tcp", address, timeout)
	if err != nil {
		return fmt.Errorf("failed to connect to %s: %w", address, err)
	}
	defer conn.Close()

	return nil
}

// PingSearch checks if the elasticsearch endpoint accepts connections
func PingSearch(esURL string) error {
	return PingService(esURL, DefaultPingTimeout)
}

// PingBroker checks if the NATS server accepts connections. Only the first
// server of a comma separated list is probed.
func PingBroker(natsURL string) error {
	first, _, _ := strings.Cut(natsURL, ",")
	return PingService(strings.TrimSpace(first), DefaultPingTimeout)
}

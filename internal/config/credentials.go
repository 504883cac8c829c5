package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

// Environment variable names for media-server credentials. These are read
// from the process environment rather than the config file so tokens stay
// out of dotfiles that tend to get committed or shared.
const (
	EnvToken         = "PLEX_TOKEN"
	EnvServerAddr    = "PLEX_SERVER_IP"
	EnvServerPubAddr = "PLEX_SERVER_PUBLIC_IP"
)

// Credentials holds everything needed to reach the media server. Address is
// tried first; PublicAddress, when present, is the fallback for runs outside
// the server's network.
type Credentials struct {
	Address       string
	PublicAddress string
	Token         string
}

// Addresses returns the connection candidates in probe order.
func (c Credentials) Addresses() []string {
	addrs := make([]string, 0, 2)
	if c.Address != "" {
		addrs = append(addrs, c.Address)
	}
	if c.PublicAddress != "" && c.PublicAddress != c.Address {
		addrs = append(addrs, c.PublicAddress)
	}
	return addrs
}

// LoadCredentials reads media-server credentials from the environment. A
// .env file in the working directory is honored when present but never
// required.
func LoadCredentials() (Credentials, error) {
	_ = godotenv.Load()

	creds := Credentials{
		Address:       strings.TrimSpace(os.Getenv(EnvServerAddr)),
		PublicAddress: strings.TrimSpace(os.Getenv(EnvServerPubAddr)),
		Token:         strings.TrimSpace(os.Getenv(EnvToken)),
	}

	if creds.Token == "" {
		return Credentials{}, fmt.Errorf("%s is not set; export it or add it to .env", EnvToken)
	}
	if creds.Address == "" && creds.PublicAddress == "" {
		return Credentials{}, fmt.Errorf("neither %s nor %s is set; export a server address or add one to .env", EnvServerAddr, EnvServerPubAddr)
	}
	if creds.Address == "" {
		// Only the public address is available; promote it.
		creds.Address = creds.PublicAddress
		creds.PublicAddress = ""
	}

	for _, addr := range creds.Addresses() {
		if err := validateAddress(addr); err != nil {
			return Credentials{}, err
		}
	}
	return creds, nil
}

func validateAddress(addr string) error {
	parsed, err := url.Parse(addr)
	if err != nil {
		return fmt.Errorf("server address %q: %w", addr, err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("server address %q must include an http or https scheme", addr)
	}
	if parsed.Host == "" {
		return errors.New("server address is missing a host")
	}
	return nil
}

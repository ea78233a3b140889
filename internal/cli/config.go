package cli

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/mcoot/teamenforcer/internal/config"
)

// Config holds CLI configuration. Flags override the TECTL_ environment.
type Config struct {
	ServerURL string `env:"TECTL_SERVER"     envDefault:"http://localhost:8080"`
	Token     string `env:"TECTL_TOKEN"`
	TokenFile string `env:"TECTL_TOKEN_FILE"`
	Staff     string `env:"TECTL_STAFF"`
	Output    string `env:"TECTL_OUTPUT"     envDefault:"text"`
}

// DefaultConfig returns a Config read from the environment
func DefaultConfig() *Config {
	c := &Config{}
	if err := config.ParseEnv(c); err != nil {
		// String fields only fail on malformed defaults
		c.ServerURL, c.Output = "http://localhost:8080", "text"
	}
	if c.TokenFile == "" {
		c.TokenFile = defaultTokenFile()
	}
	return c
}

// Validate checks flag values that cobra cannot
func (c *Config) Validate() error {
	switch c.Output {
	case "text", "json":
	default:
		return fmt.Errorf("unknown output format %q: want text or json", c.Output)
	}
	u, err := url.Parse(c.ServerURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("invalid server URL %q", c.ServerURL)
	}
	return nil
}

// LoadToken loads the token from file if not already set
func (c *Config) LoadToken() error {
	if c.Token != "" {
		return nil
	}

	data, err := os.ReadFile(c.TokenFile)
	if err != nil {
		if os.IsNotExist(err) {
			return nil // No token file is fine
		}
		return err
	}

	c.Token = strings.TrimSpace(string(data))
	return nil
}

// SaveToken saves the token to the token file
func (c *Config) SaveToken(token string) error {
	c.Token = token

	dir := filepath.Dir(c.TokenFile)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return err
	}

	return os.WriteFile(c.TokenFile, []byte(token), 0600)
}

func defaultTokenFile() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".tectl/token"
	}
	return filepath.Join(home, ".tectl", "token")
}

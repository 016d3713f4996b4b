package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	"escrowd/native/escrow"
)

// Config is the on-disk configuration of the escrow daemon.
type Config struct {
	ListenAddress     string `toml:"ListenAddress"`
	DataDir           string `toml:"DataDir"`
	Env               string `toml:"Env"`
	Arbitrator        string `toml:"Arbitrator"`
	Custody           string `toml:"Custody"`
	MinTimeoutSeconds int64  `toml:"MinTimeoutSeconds"`
	RPCToken          string `toml:"RPCToken"`
}

// Load loads the configuration from the given path. A missing file is
// replaced with a default one so a fresh checkout starts with something the
// operator can edit.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return createDefault(path)
	}

	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, err
	}

	applyDefaults(cfg)
	return cfg, nil
}

// Validate checks the identity fields. The arbitrator and custody accounts
// have no sensible defaults: the operator must supply both.
func (c *Config) Validate() error {
	if _, err := c.ArbitratorAddress(); err != nil {
		return err
	}
	if _, err := c.CustodyAddress(); err != nil {
		return err
	}
	if c.MinTimeoutSeconds < 1 {
		return fmt.Errorf("config: MinTimeoutSeconds must be at least 1, got %d", c.MinTimeoutSeconds)
	}
	return nil
}

// ArbitratorAddress parses the configured arbitrator identity.
func (c *Config) ArbitratorAddress() (escrow.Address, error) {
	return parseIdentity("Arbitrator", c.Arbitrator)
}

// CustodyAddress parses the configured custody identity.
func (c *Config) CustodyAddress() (escrow.Address, error) {
	return parseIdentity("Custody", c.Custody)
}

func parseIdentity(field, value string) (escrow.Address, error) {
	if strings.TrimSpace(value) == "" {
		return escrow.Address{}, fmt.Errorf("config: %s is required", field)
	}
	addr, err := escrow.ParseAddress(value)
	if err != nil {
		return escrow.Address{}, fmt.Errorf("config: %s: %w", field, err)
	}
	if addr.IsZero() {
		return escrow.Address{}, fmt.Errorf("config: %s must not be the zero address", field)
	}
	return addr, nil
}

func applyDefaults(cfg *Config) {
	if strings.TrimSpace(cfg.ListenAddress) == "" {
		cfg.ListenAddress = ":8645"
	}
	if strings.TrimSpace(cfg.DataDir) == "" {
		cfg.DataDir = "./escrowd-data"
	}
	if cfg.MinTimeoutSeconds == 0 {
		cfg.MinTimeoutSeconds = escrow.DefaultMinTimeout
	}
}

// createDefault creates and saves a default configuration file.
func createDefault(path string) (*Config, error) {
	cfg := &Config{
		ListenAddress:     ":8645",
		DataDir:           "./escrowd-data",
		MinTimeoutSeconds: escrow.DefaultMinTimeout,
	}
	if err := persist(path, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func persist(path string, cfg *Config) error {
	dir := filepath.Dir(path)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_TRUNC|os.O_CREATE, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()

	return toml.NewEncoder(f).Encode(cfg)
}

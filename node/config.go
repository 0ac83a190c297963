// Package node hosts one ledger: it opens the store, imposes the serial
// order over proposals, keeps a bet mirror, polls the oracle and exposes
// metrics.
package node

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v2"

	"github.com/dar7an/zk-cricket-trader/contract"
	"github.com/dar7an/zk-cricket-trader/crypto"
	"github.com/dar7an/zk-cricket-trader/ledger"
	"github.com/dar7an/zk-cricket-trader/store"
)

// ErrConfigFileNotFound is returned by LoadConfig for a missing file.
var ErrConfigFileNotFound = errors.New("config file not found")

// Config holds all configuration for a ledger node.
type Config struct {
	// DataDir is the root directory for all data storage.
	DataDir string `yaml:"datadir"`

	// DB selects the storage backend (memory, leveldb, bolt).
	DB string `yaml:"db"`

	// Height is the bets tree height. It is fixed at deployment.
	Height int `yaml:"height"`

	// Scheme names the signature scheme (see crypto.SchemeNames).
	Scheme string `yaml:"scheme"`

	// OracleKey is the hex public key bound at initialization.
	OracleKey string `yaml:"oracle_key"`

	// AuthorityKey is the hex public key allowed to initialize.
	AuthorityKey string `yaml:"authority_key"`

	// FixturePolicy, StatusPolicy and StatusMessage select the contract
	// variant; see contract.Policy.
	FixturePolicy string `yaml:"fixture_policy"`
	StatusPolicy  string `yaml:"status_policy"`
	StatusMessage string `yaml:"status_message"`

	// QueueSize bounds the number of proposals waiting for the sequencer.
	QueueSize int `yaml:"queue_size"`

	// OracleURL, when set, is polled every PollInterval for new fixtures
	// and statuses.
	OracleURL    string        `yaml:"oracle_url"`
	PollInterval time.Duration `yaml:"poll_interval"`

	// MetricsAddr, when set, serves /metrics on this address.
	MetricsAddr string `yaml:"metrics_addr"`

	// LogLevel controls log verbosity (debug, info, warn, error).
	LogLevel string `yaml:"log_level"`
}

// DefaultConfig returns a Config with sensible defaults. The oracle and
// authority keys have no default.
func DefaultConfig() Config {
	p := contract.DefaultPolicy()
	return Config{
		DataDir:       "zkbet-data",
		DB:            store.BackendLevelDB,
		Height:        ledger.DefaultHeight,
		Scheme:        crypto.SchnorrName,
		FixturePolicy: p.Fixture.String(),
		StatusPolicy:  p.Status.String(),
		StatusMessage: p.StatusMessage.String(),
		QueueSize:     64,
		PollInterval:  30 * time.Second,
		LogLevel:      "info",
	}
}

// LoadConfig reads a YAML file over the defaults. An empty path returns the
// defaults.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, fmt.Errorf("%w: %s", ErrConfigFileNotFound, path)
		}
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.UnmarshalStrict(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks configuration values for correctness.
func (c *Config) Validate() error {
	if c.DataDir == "" && c.DB != store.BackendMemory {
		return errors.New("config: datadir must not be empty")
	}
	switch c.DB {
	case store.BackendMemory, store.BackendLevelDB, store.BackendBolt:
	default:
		return fmt.Errorf("config: unknown db backend %q", c.DB)
	}
	if c.Height < 1 || c.Height > ledger.MaxHeight {
		return fmt.Errorf("config: height %d out of range [1, %d]", c.Height, ledger.MaxHeight)
	}
	scheme, err := crypto.SchemeByName(c.Scheme)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if _, err := c.oracleKey(scheme); err != nil {
		return err
	}
	if _, err := c.authorityKey(scheme); err != nil {
		return err
	}
	if _, err := c.Policy(); err != nil {
		return err
	}
	if c.QueueSize < 1 {
		return fmt.Errorf("config: invalid queue size: %d", c.QueueSize)
	}
	if c.OracleURL != "" && c.PollInterval <= 0 {
		return fmt.Errorf("config: invalid poll interval: %s", c.PollInterval)
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("config: unknown log level %q", c.LogLevel)
	}
	return nil
}

// Policy parses the three policy strings.
func (c *Config) Policy() (contract.Policy, error) {
	var (
		p   contract.Policy
		err error
	)
	if p.Fixture, err = contract.ParseFixturePolicy(c.FixturePolicy); err != nil {
		return p, fmt.Errorf("config: %w", err)
	}
	if p.Status, err = contract.ParseStatusPolicy(c.StatusPolicy); err != nil {
		return p, fmt.Errorf("config: %w", err)
	}
	if p.StatusMessage, err = contract.ParseStatusMessage(c.StatusMessage); err != nil {
		return p, fmt.Errorf("config: %w", err)
	}
	return p, nil
}

func parseKey(scheme crypto.Scheme, name, s string) (crypto.PublicKey, error) {
	if s == "" {
		return nil, fmt.Errorf("config: %s key must be set", name)
	}
	raw, err := crypto.DecodeHex(s)
	if err != nil {
		return nil, fmt.Errorf("config: %s key: %w", name, err)
	}
	pub, err := scheme.ParsePublicKey(raw)
	if err != nil {
		return nil, fmt.Errorf("config: %s key: %w", name, err)
	}
	return pub, nil
}

func (c *Config) oracleKey(scheme crypto.Scheme) (crypto.PublicKey, error) {
	return parseKey(scheme, "oracle", c.OracleKey)
}

func (c *Config) authorityKey(scheme crypto.Scheme) (crypto.PublicKey, error) {
	return parseKey(scheme, "authority", c.AuthorityKey)
}

// ContractConfig builds the controller configuration.
func (c *Config) ContractConfig() (contract.Config, error) {
	if err := c.Validate(); err != nil {
		return contract.Config{}, err
	}
	scheme, _ := crypto.SchemeByName(c.Scheme)
	oracleKey, _ := c.oracleKey(scheme)
	authorityKey, _ := c.authorityKey(scheme)
	policy, _ := c.Policy()
	return contract.Config{
		Scheme:       scheme,
		OracleKey:    oracleKey,
		AuthorityKey: authorityKey,
		Height:       c.Height,
		Policy:       policy,
	}, nil
}

// ResolvePath resolves a path relative to the data directory.
func (c *Config) ResolvePath(path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(c.DataDir, path)
}

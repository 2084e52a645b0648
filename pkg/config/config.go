package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"github.com/nspcc-dev/sigma-go/pkg/config/netmode"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Version is the version of the node, set at build time.
var Version string

// DefaultConfigPath is the default path to the config directory.
const DefaultConfigPath = "./config"

// Config top level struct representing the config
// for the node.
type Config struct {
	ProtocolConfiguration    ProtocolConfiguration    `yaml:"ProtocolConfiguration"`
	ApplicationConfiguration ApplicationConfiguration `yaml:"ApplicationConfiguration"`
}

// Blockchain is a set of settings for core.Blockchain to use.
type Blockchain struct {
	ProtocolConfiguration
	// CoinSetCacheSize is the number of anonymity sets cached by the
	// transaction validator.
	CoinSetCacheSize int
}

// Blockchain generates a Blockchain configuration based on Protocol and
// Application settings.
func (c Config) Blockchain() Blockchain {
	return Blockchain{
		ProtocolConfiguration: c.ProtocolConfiguration,
		CoinSetCacheSize:      c.ApplicationConfiguration.CoinSetCacheSize,
	}
}

// Load attempts to load the config from the given
// path for the given netMode.
func Load(path string, netMode netmode.Magic) (Config, error) {
	configPath := filepath.Join(path, fmt.Sprintf("protocol.%s.yml", netMode))
	return LoadFile(configPath)
}

// LoadFile loads config from the provided path. Unknown fields are rejected.
func LoadFile(configPath string) (Config, error) {
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return Config{}, errors.Wrap(err, "unable to load config")
	}

	configData, err := os.ReadFile(configPath)
	if err != nil {
		return Config{}, errors.Wrap(err, "unable to read config")
	}

	config := Config{
		ProtocolConfiguration: ProtocolConfiguration{
			MemPoolSize: DefaultMemPoolSize,
		},
	}
	decoder := yaml.NewDecoder(bytes.NewReader(configData))
	decoder.KnownFields(true)
	err = decoder.Decode(&config)
	if err != nil {
		return Config{}, errors.Wrap(err, "failed to unmarshal config YAML")
	}

	err = config.ProtocolConfiguration.Validate()
	if err != nil {
		return Config{}, err
	}

	return config, nil
}

package config

import (
	"github.com/nspcc-dev/sigma-go/pkg/core/storage/dbconfig"
)

// ApplicationConfiguration config specific to the node.
type ApplicationConfiguration struct {
	LogLevel        string                   `yaml:"LogLevel"`
	LogPath         string                   `yaml:"LogPath"`
	DBConfiguration dbconfig.DBConfiguration `yaml:"DBConfiguration"`
	Prometheus      BasicService             `yaml:"Prometheus"`
	Pprof           BasicService             `yaml:"Pprof"`
	// CoinSetCacheSize is the number of anonymity sets kept in memory by the
	// transaction validator, 0 means the default.
	CoinSetCacheSize int `yaml:"CoinSetCacheSize"`
}

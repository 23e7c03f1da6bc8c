package prep

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/jsdoublel/phyclust/internal/cluster"
	"github.com/jsdoublel/phyclust/internal/metrics"
)

// Parameters shared by the cluster and compare commands. Example file:
//
//	cluster:
//	  tree_dist: 1
//	  cutoff: 27
//	max_children: 6
//	max_depth: 11
//
// Keys left out keep their default values.
type Config struct {
	Cluster     cluster.Options `yaml:"cluster"`
	MaxChildren int             `yaml:"max_children"` // number of bins in the child count distribution
	MaxDepth    int             `yaml:"max_depth"`    // number of bins in the node depth distribution
}

func DefaultConfig() Config {
	return Config{
		Cluster:     cluster.DefaultOptions(),
		MaxChildren: metrics.DefaultMaxChildren,
		MaxDepth:    metrics.DefaultMaxDepth,
	}
}

// Loads config from a YAML file on top of the defaults. An empty path returns
// the defaults.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("error reading config file: %w", err)
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return cfg, fmt.Errorf("%w, error parsing config file %s: %s", ErrInvalidFormat, path, err.Error())
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("config file %s: %w", path, err)
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if err := c.Cluster.Validate(); err != nil {
		return fmt.Errorf("%w, %s", ErrTypeOutRange, err)
	}
	if c.MaxChildren <= 0 {
		return fmt.Errorf("max_children %d is %w", c.MaxChildren, ErrTypeOutRange)
	}
	if c.MaxDepth <= 0 {
		return fmt.Errorf("max_depth %d is %w", c.MaxDepth, ErrTypeOutRange)
	}
	return nil
}

package service

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/viant/scy/cred/secret"
	"gopkg.in/yaml.v3"
)

// Config defines store and server settings for batch operations.
type Config struct {
	Store         StoreConfig     `yaml:"store"`
	Window        int             `yaml:"window"`
	CacheCapacity int             `yaml:"cacheCapacity"`
	Replicas      []ReplicaConfig `yaml:"replicas"`
	MCPServer     MCPServerConfig `yaml:"mcpServer"`
}

// StoreConfig defines patch store settings.
type StoreConfig struct {
	DSN    string `yaml:"dsn"`
	Driver string `yaml:"driver"`
	Secret string `yaml:"secret,omitempty"`
}

// ReplicaConfig defines a replication target. IntervalSeconds > 0 makes
// the serve command push continuously; otherwise replication runs on
// demand only.
type ReplicaConfig struct {
	Name            string `yaml:"name"`
	Driver          string `yaml:"driver"`
	DSN             string `yaml:"dsn"`
	Secret          string `yaml:"secret,omitempty"`
	Batch           int    `yaml:"batch"`
	IntervalSeconds int    `yaml:"intervalSeconds"`
}

// MCPServerConfig defines MCP server settings.
type MCPServerConfig struct {
	Addr string `yaml:"addr"`
	Port int    `yaml:"port"`
}

// LoadConfig reads a YAML config, expanding user paths and secret DSNs.
func LoadConfig(path string) (*Config, error) {
	path, err := expandUserPath(path)
	if err != nil {
		return nil, err
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg Config
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, err
	}
	if cfg.Store.DSN != "" && resolveConfigDriver(cfg.Store.Driver) == "sqlite" {
		if expanded, err := expandUserPath(cfg.Store.DSN); err == nil {
			cfg.Store.DSN = expanded
		} else {
			return nil, err
		}
	}
	if cfg.Store.Secret != "" {
		expanded, err := ExpandDSNWithSecret(context.Background(), cfg.Store.DSN, cfg.Store.Secret)
		if err != nil {
			return nil, err
		}
		cfg.Store.DSN = expanded
	}
	for i, replica := range cfg.Replicas {
		if strings.TrimSpace(replica.Secret) == "" {
			continue
		}
		expanded, err := ExpandDSNWithSecret(context.Background(), replica.DSN, replica.Secret)
		if err != nil {
			return nil, err
		}
		replica.DSN = expanded
		cfg.Replicas[i] = replica
	}
	return &cfg, nil
}

// ExpandDSNWithSecret resolves a secret reference and expands it into
// the DSN placeholders.
func ExpandDSNWithSecret(ctx context.Context, dsn, secretRef string) (string, error) {
	secretRef = strings.TrimSpace(secretRef)
	if secretRef == "" {
		return dsn, nil
	}
	if strings.TrimSpace(dsn) == "" {
		return "", fmt.Errorf("secret %q provided but dsn is empty", secretRef)
	}
	svc := secret.New()
	sec, err := svc.Lookup(ctx, secret.Resource(secretRef))
	if err != nil {
		return "", err
	}
	return sec.Expand(dsn), nil
}

func resolveConfigDriver(driver string) string {
	driver = strings.ToLower(strings.TrimSpace(driver))
	if driver == "" {
		return "sqlite"
	}
	return driver
}

func expandUserPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return path, nil
	}
	if strings.HasPrefix(trimmed, "~/") || trimmed == "~" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(home, strings.TrimPrefix(trimmed, "~")), nil
	}
	return trimmed, nil
}

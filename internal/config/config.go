// Package config reads registry settings from the environment.
package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/lujin3/mcp-registry-server/api"
	"github.com/lujin3/mcp-registry-server/catalog"
	"github.com/lujin3/mcp-registry-server/mcpserver"
	"github.com/lujin3/mcp-registry-server/source"
)

// Environment variables read by Load.
const (
	EnvAddr     = "REGISTRY_ADDR"
	EnvCatalog  = "REGISTRY_CATALOG"
	EnvMaxLimit = "REGISTRY_MAX_LIMIT"
	EnvName     = "REGISTRY_NAME"
	EnvDocsURL  = "REGISTRY_DOCS_URL"
)

const (
	DefaultAddr    = ":8000"
	DefaultName    = "MCP Registry"
	DefaultDocsURL = "https://github.com/modelcontextprotocol/registry"
)

// Config holds the settings of a registry process.
type Config struct {
	Addr string
	// Catalog is a JSON or YAML registry document. Empty selects the
	// built-in catalog.
	Catalog  string
	MaxLimit int
	Name     string
	DocsURL  string
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// Load builds a Config from the environment, applying defaults.
func Load() (*Config, error) {
	cfg := &Config{
		Addr:     getEnvOrDefault(EnvAddr, DefaultAddr),
		Catalog:  os.Getenv(EnvCatalog),
		MaxLimit: api.DefaultMaxLimit,
		Name:     getEnvOrDefault(EnvName, DefaultName),
		DocsURL:  getEnvOrDefault(EnvDocsURL, DefaultDocsURL),
	}

	if raw := os.Getenv(EnvMaxLimit); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			return nil, fmt.Errorf("%s must be a positive integer, got %q", EnvMaxLimit, raw)
		}
		cfg.MaxLimit = n
	}

	return cfg, nil
}

// LoadCatalog reads the configured catalog, or the built-in one.
func (c *Config) LoadCatalog() (*catalog.Catalog, error) {
	if c.Catalog == "" {
		return source.Default()
	}
	return source.LoadFile(c.Catalog)
}

// Reload reads the catalog again and publishes it to store. On error the
// store keeps serving the previous catalog.
func (c *Config) Reload(store *catalog.Store) (*catalog.Catalog, error) {
	next, err := c.LoadCatalog()
	if err != nil {
		return nil, err
	}
	store.Swap(next)
	return next, nil
}

// APIOptions maps the settings onto the HTTP layer.
func (c *Config) APIOptions(version string) api.Options {
	return api.Options{
		Name:          c.Name,
		Version:       version,
		Documentation: c.DocsURL,
		MaxLimit:      c.MaxLimit,
	}
}

// MCPOptions maps the settings onto the MCP tool server.
func (c *Config) MCPOptions(version string) mcpserver.Options {
	return mcpserver.Options{
		Version:  version,
		MaxLimit: c.MaxLimit,
	}
}

package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Load reads a server config from a JSON or YAML file, applies defaults,
// and validates it. The format is chosen by file extension.
func Load(path string) (*ServerConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return Parse(data, FormatYAML)
	default:
		return Parse(data, FormatJSON)
	}
}

// Format identifies a config encoding.
type Format string

// Supported config encodings.
const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// Parse decodes, defaults, and validates a server config.
func Parse(data []byte, format Format) (*ServerConfig, error) {
	var cfg ServerConfig
	switch format {
	case FormatYAML:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parse yaml config: %w", err)
		}
	default:
		if err := json.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parse json config: %w", err)
		}
	}

	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks structural invariants. It is called by Parse and by the
// manager before starting an instance.
func (c *ServerConfig) Validate() error {
	if c.ID == "" {
		return fmt.Errorf("server id is required")
	}
	if c.Port < 0 || c.Port > 65535 {
		return fmt.Errorf("server %s: port %d out of range", c.ID, c.Port)
	}

	for i, route := range c.Routes {
		if route.Path == "" || !strings.HasPrefix(route.Path, "/") {
			return fmt.Errorf("server %s: route %d: path must start with /", c.ID, i)
		}
		if route.Method == "" {
			return fmt.Errorf("server %s: route %d: method is required", c.ID, i)
		}
		if route.ErrorRate < 0 || route.ErrorRate > 1 {
			return fmt.Errorf("server %s: route %d: errorRate must be within [0,1]", c.ID, i)
		}
	}

	for name, res := range c.Resources {
		if name == "" {
			return fmt.Errorf("server %s: resource name is required", c.ID)
		}
		if res.BasePath == "" || !strings.HasPrefix(res.BasePath, "/") {
			return fmt.Errorf("server %s: resource %s: basePath must start with /", c.ID, name)
		}
		if res.ErrorRate < 0 || res.ErrorRate > 1 {
			return fmt.Errorf("server %s: resource %s: errorRate must be within [0,1]", c.ID, name)
		}
		if res.Count > 0 && len(res.Template) == 0 {
			return fmt.Errorf("server %s: resource %s: count set without template", c.ID, name)
		}
		for field, target := range res.Relations {
			if _, ok := c.Resources[target]; !ok {
				return fmt.Errorf("server %s: resource %s: relation %s references unknown resource %q", c.ID, name, field, target)
			}
		}
	}

	for name, profile := range c.Profiles {
		for idx := range profile.Routes {
			if idx < 0 || idx >= len(c.Routes) {
				return fmt.Errorf("server %s: profile %s: route index %d out of range", c.ID, name, idx)
			}
		}
		for _, idx := range profile.DisabledRoutes {
			if idx < 0 || idx >= len(c.Routes) {
				return fmt.Errorf("server %s: profile %s: disabled route index %d out of range", c.ID, name, idx)
			}
		}
		// Resource override keys that name no resource are tolerated at
		// runtime but rejected here where the full config is in view.
		for res := range profile.Resources {
			if _, ok := c.Resources[res]; !ok {
				return fmt.Errorf("server %s: profile %s: unknown resource %q", c.ID, name, res)
			}
		}
		for _, res := range profile.DisabledResources {
			if _, ok := c.Resources[res]; !ok {
				return fmt.Errorf("server %s: profile %s: unknown disabled resource %q", c.ID, name, res)
			}
		}
	}

	if c.ActiveProfile != "" {
		if _, ok := c.Profiles[c.ActiveProfile]; !ok {
			return fmt.Errorf("server %s: active profile %q not defined", c.ID, c.ActiveProfile)
		}
	}

	if c.Proxy != nil && c.Proxy.Target == "" {
		return fmt.Errorf("server %s: proxy target is required", c.ID)
	}
	return nil
}

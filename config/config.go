// Package config loads the YAML configuration shared by the device host
// and control point binaries, following the same file-then-env-then-
// default precedence chain as the host stack it's built to replace.
package config

import (
	_ "embed"
	"fmt"
	"os"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/upnpforge/upnpstack/fileutils"
	"github.com/upnpforge/upnpstack/logging"
)

//go:embed default.yaml
var defaultConfig []byte

var log = logging.New("config")

const (
	envConfigFile = "UPNPSTACK_CONFIG"
	dotfileName   = ".upnpstack.yml"
)

// Config is a loaded, mutable, dot-path-addressable configuration tree.
type Config struct {
	path string
	mu   sync.Mutex
	data map[string]interface{}
}

// Load resolves a config file following this precedence:
//
//   - the explicit path argument, if non-empty
//   - the file named by the UPNPSTACK_CONFIG environment variable
//   - ./.upnpstack.yml in the current directory
//   - the user's home directory .upnpstack.yml
//   - the embedded default configuration, if none of the above are found
//
// It never returns an error: a missing or unreadable file at one level
// falls through to the next, and an unparsable file is fatal (mirrors
// the host stack it replaces, which treats this as a startup
// precondition rather than a recoverable error).
func Load(path string) *Config {
	cfg := &Config{}
	data, resolved := resolve(path)
	if err := yaml.Unmarshal(data, &cfg.data); err != nil {
		log.Panicf("invalid YAML config: %v", err)
	}
	cfg.data = lowerKeys(cfg.data)
	cfg.path = resolved
	applyEnvOverrides(cfg)
	return cfg
}

func resolve(path string) ([]byte, string) {
	if path != "" {
		if data, err := os.ReadFile(path); err == nil {
			log.Infof("loaded config from %s", path)
			return data, path
		}
		log.Warnf("cannot read config file %s", path)
	}

	if envPath := os.Getenv(envConfigFile); envPath != "" {
		if data, err := os.ReadFile(envPath); err == nil {
			log.Infof("loaded config from %s (%s)", envPath, envConfigFile)
			return data, envPath
		}
		log.Warnf("cannot read config file %s from %s", envPath, envConfigFile)
	}

	if data, err := os.ReadFile(dotfileName); err == nil {
		log.Infof("loaded config from ./%s", dotfileName)
		return data, dotfileName
	}

	if home, err := os.UserHomeDir(); err == nil {
		homePath := home + string(os.PathSeparator) + dotfileName
		if data, err := os.ReadFile(homePath); err == nil {
			log.Infof("loaded config from %s", homePath)
			return data, homePath
		}
	}

	log.Infof("using embedded default config")
	return defaultConfig, ""
}

// Save writes the configuration back to its resolved path, if the path
// is writable. It's a no-op when the config was loaded from the
// embedded default and no writable location was found.
func (c *Config) Save() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.path == "" || !fileutils.IsWriteable(c.path) {
		return nil
	}
	data, err := yaml.Marshal(c.data)
	if err != nil {
		return err
	}
	return os.WriteFile(c.path, data, 0644)
}

// Get looks up a dot-separated path, e.g. Get("host.http_port").
func (c *Config) Get(path string) (interface{}, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	keys := strings.Split(path, ".")
	var current interface{} = c.data
	for i, key := range keys {
		m, ok := current.(map[string]interface{})
		if !ok {
			return nil, fmt.Errorf("config: %s is not a map", strings.Join(keys[:i], "."))
		}
		v, ok := m[strings.ToLower(key)]
		if !ok {
			return nil, fmt.Errorf("config: path %s not found", path)
		}
		current = v
	}
	return current, nil
}

// GetString, GetInt and GetBool are typed convenience wrappers over Get,
// returning def when the path is absent or of the wrong type.
func (c *Config) GetString(path, def string) string {
	v, err := c.Get(path)
	if err != nil {
		return def
	}
	s, ok := v.(string)
	if !ok {
		return def
	}
	return s
}

func (c *Config) GetInt(path string, def int) int {
	v, err := c.Get(path)
	if err != nil {
		return def
	}
	switch n := v.(type) {
	case int:
		return n
	}
	return def
}

func (c *Config) GetBool(path string, def bool) bool {
	v, err := c.Get(path)
	if err != nil {
		return def
	}
	b, ok := v.(bool)
	if !ok {
		return def
	}
	return b
}

// Set writes a dot-separated path and persists the change.
func (c *Config) Set(path string, value interface{}) {
	c.mu.Lock()
	keys := strings.Split(path, ".")
	m := c.data
	for i, key := range keys {
		key = strings.ToLower(key)
		if i == len(keys)-1 {
			m[key] = value
			break
		}
		next, ok := m[key].(map[string]interface{})
		if !ok {
			next = map[string]interface{}{}
			m[key] = next
		}
		m = next
	}
	c.mu.Unlock()
	c.Save()
}

func lowerKeys(m map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(m))
	for k, v := range m {
		lk := strings.ToLower(k)
		if sub, ok := v.(map[string]interface{}); ok {
			out[lk] = lowerKeys(sub)
		} else {
			out[lk] = v
		}
	}
	return out
}

// applyEnvOverrides lets UPNPSTACK_CONFIG__HOST__HTTP_PORT-style env vars
// override individual leaves after the file is loaded.
func applyEnvOverrides(c *Config) {
	const prefix = "UPNPSTACK_CONFIG__"
	for _, kv := range os.Environ() {
		if !strings.HasPrefix(kv, prefix) {
			continue
		}
		parts := strings.SplitN(kv, "=", 2)
		if len(parts) != 2 {
			continue
		}
		path := strings.ToLower(strings.ReplaceAll(strings.TrimPrefix(parts[0], prefix), "__", "."))
		c.Set(path, parts[1])
	}
}

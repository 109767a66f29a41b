package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func testConfig(t *testing.T) *Config {
	t.Helper()
	c := NewDefaultConfig()
	c.SetPath(filepath.Join(t.TempDir(), ConfigDir, ConfigFile))
	return c
}

func TestDefaultConfigIsValid(t *testing.T) {
	c := NewDefaultConfig()
	if err := c.Validate(); err != nil {
		t.Errorf("Validate() error = %v", err)
	}
	if c.ApiAddr() != "127.0.0.1:8003" {
		t.Errorf("ApiAddr() = %s", c.ApiAddr())
	}
	if filepath.Base(c.Path()) != ConfigFile || filepath.Base(c.DBPath) != DBFile {
		t.Errorf("Path() = %s DBPath = %s", c.Path(), c.DBPath)
	}
}

func TestPersistAndLoad(t *testing.T) {
	c := testConfig(t)
	c.LogLevel = "debug"
	c.Api.Port = 9100
	c.DBPath = "/tmp/libre.db"
	if err := c.Persist(false); err != nil {
		t.Fatalf("Persist() error = %v", err)
	}

	loaded := &Config{}
	loaded.SetPath(c.Path())
	if err := loaded.Load(); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if loaded.LogLevel != "debug" || loaded.Api.Port != 9100 || loaded.DBPath != "/tmp/libre.db" {
		t.Errorf("Load() = %+v", loaded)
	}
	if loaded.Api.Address != DefaultApiAddress || loaded.LogFormat != DefaultLogFormat {
		t.Errorf("Load() = %+v", loaded)
	}
}

func TestPersistDoesNotOverwrite(t *testing.T) {
	c := testConfig(t)
	if err := c.Persist(false); err != nil {
		t.Fatalf("Persist() error = %v", err)
	}

	err := c.Persist(false)
	var exists ErrConfigFileExists
	if !errors.As(err, &exists) || exists.Path != c.Path() {
		t.Errorf("Persist() error = %v, want ErrConfigFileExists", err)
	}
	if err := c.Persist(true); err != nil {
		t.Errorf("Persist(overwrite) error = %v", err)
	}
}

func TestLoadMissingFileKeepsDefaults(t *testing.T) {
	c := testConfig(t)
	if err := c.Load(); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if c.LogLevel != DefaultLogLevel || c.Api.Port != DefaultApiPort {
		t.Errorf("Load() = %+v", c)
	}
}

func TestLoadBrokenFile(t *testing.T) {
	c := testConfig(t)
	if err := os.MkdirAll(filepath.Dir(c.Path()), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(c.Path(), []byte("api: [not, a, map"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := c.Load(); err == nil {
		t.Errorf("Load() must fail on broken yaml")
	}
}

func TestLoadEnvOverridesFile(t *testing.T) {
	c := testConfig(t)
	c.Api.Port = 9100
	if err := c.Persist(false); err != nil {
		t.Fatalf("Persist() error = %v", err)
	}

	t.Setenv("GO_LIBRE_LOG_FORMAT", "json")
	t.Setenv("GO_LIBRE_API_ADDRESS", "0.0.0.0")
	t.Setenv("GO_LIBRE_API_PORT", "9200")
	t.Setenv("GO_LIBRE_DB_PATH", "/var/lib/go-libre/scans.db")

	loaded := &Config{}
	loaded.SetPath(c.Path())
	if err := loaded.Load(); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if loaded.LogFormat != "json" || loaded.Api.Address != "0.0.0.0" || loaded.Api.Port != 9200 {
		t.Errorf("Load() = %+v", loaded)
	}
	if loaded.DBPath != "/var/lib/go-libre/scans.db" {
		t.Errorf("DBPath = %s", loaded.DBPath)
	}
	if loaded.LogLevel != DefaultLogLevel {
		t.Errorf("LogLevel = %s, want value from file", loaded.LogLevel)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name        string
		modify      func(c *Config)
		errExpected bool
	}{
		{"defaults", func(c *Config) {}, false},
		{"warn alias", func(c *Config) { c.LogLevel = "warn" }, false},
		{"logfmt", func(c *Config) { c.LogFormat = "logfmt" }, false},
		{"bad level", func(c *Config) { c.LogLevel = "verbose" }, true},
		{"bad format", func(c *Config) { c.LogFormat = "xml" }, true},
		{"zero port", func(c *Config) { c.Api.Port = 0 }, true},
		{"port out of range", func(c *Config) { c.Api.Port = 70000 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewDefaultConfig()
			tt.modify(c)
			if err := c.Validate(); (err != nil) != tt.errExpected {
				t.Errorf("Validate() error = %v, error expected: %v", err, tt.errExpected)
			}
		})
	}
}

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaults(t *testing.T) {
	c := Default()

	if c.Server.Port != 8080 {
		t.Fatalf("port: got %d want 8080", c.Server.Port)
	}
	if c.Cache.Backend != "memory" || c.Cache.TTL != 30*time.Second {
		t.Fatalf("cache: got %s / %v", c.Cache.Backend, c.Cache.TTL)
	}
	if c.Analytics.DefaultTankVolume != 50 || c.Analytics.DefaultSoilVolume != 20 {
		t.Fatalf("default profile: got %v / %v", c.Analytics.DefaultTankVolume, c.Analytics.DefaultSoilVolume)
	}
	if c.Analytics.EquivalenceVersion != "v2" || c.Analytics.RecentLogsLimit != 10 {
		t.Fatalf("analytics: got %+v", c.Analytics)
	}
	if c.Database.RetryAttempts != 3 || c.Database.RetryBackoff != 100*time.Millisecond {
		t.Fatalf("database retry: got %d / %v", c.Database.RetryAttempts, c.Database.RetryBackoff)
	}
	if err := c.Validate(); err != nil {
		t.Fatalf("defaults should validate: %v", err)
	}
}

func TestLoadYAMLWithEnvOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	yaml := `
environment: staging
server:
  port: 9000
  shutdown_timeout: 12s
cache:
  backend: none
analytics:
  equivalence_version: v1
  display_timezone: Europe/London
`
	if err := os.WriteFile(path, []byte(yaml), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	t.Setenv("PORT", "9100")
	t.Setenv("LOG_LEVEL", "DEBUG")
	t.Setenv("CACHE_TTL", "45s")

	c, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if c.Environment != "staging" {
		t.Fatalf("environment: got %q", c.Environment)
	}
	if c.Server.Port != 9100 {
		t.Fatalf("env PORT should win: got %d", c.Server.Port)
	}
	if c.Server.ShutdownTimeout != 12*time.Second {
		t.Fatalf("shutdown timeout: got %v", c.Server.ShutdownTimeout)
	}
	if c.Server.ReadTimeout != 10*time.Second {
		t.Fatalf("unset fields keep defaults: got %v", c.Server.ReadTimeout)
	}
	if c.Cache.Backend != "none" || c.Cache.TTL != 45*time.Second {
		t.Fatalf("cache: got %s / %v", c.Cache.Backend, c.Cache.TTL)
	}
	if c.Log.Level != "debug" {
		t.Fatalf("log level: got %q", c.Log.Level)
	}
	if c.Analytics.EquivalenceVersion != "v1" {
		t.Fatalf("equivalence: got %q", c.Analytics.EquivalenceVersion)
	}
}

func TestLoadRejectsBadPort(t *testing.T) {
	t.Setenv("PORT", "eighty")
	if _, err := Load(""); err == nil {
		t.Fatalf("expected error for non-numeric PORT")
	}
}

func TestValidateRejects(t *testing.T) {
	cases := map[string]func(c *Config){
		"unknown cache backend": func(c *Config) { c.Cache.Backend = "memcached" },
		"unknown equivalence":   func(c *Config) { c.Analytics.EquivalenceVersion = "v3" },
		"bad timezone":          func(c *Config) { c.Analytics.DisplayTimezone = "Mars/Olympus" },
		"zero tank":             func(c *Config) { c.Analytics.DefaultTankVolume = 0 },
		"no headspace":          func(c *Config) { c.Analytics.DefaultSoilVolume = 500 },
		"redis without addr": func(c *Config) {
			c.Cache.Backend = "redis"
			c.Cache.Redis.Addr = ""
		},
		"bad log level": func(c *Config) { c.Log.Level = "verbose" },
	}

	for name, mutate := range cases {
		c := Default()
		mutate(c)
		if err := c.Validate(); err == nil {
			t.Fatalf("%s: expected validation error", name)
		}
	}
}

func TestAnalyticsLocation(t *testing.T) {
	c := Default()
	loc, err := c.Analytics.Location()
	if err != nil {
		t.Fatalf("location: %v", err)
	}
	if loc.String() != "UTC" {
		t.Fatalf("got %s want UTC", loc)
	}
}

package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/movesion/cardsim/config"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func writeAndLoad(t *testing.T, content string) *config.Config {
	t.Helper()
	cfg, err := config.Load(writeFile(t, "config.yaml", content))
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	return cfg
}

func TestLoad_ValidConfig(t *testing.T) {
	content := `
server:
  host: "127.0.0.1"
  port: 9090
  read_timeout: 15s

pricing:
  plan_path: "pricing.json"
  watch: true

database:
  driver: "sqlite"
  dsn: ":memory:"

simulation:
  default_horizon_months: 12
  max_horizon_months: 60
`

	cfg := writeAndLoad(t, content)

	if cfg.Server.Host != "127.0.0.1" {
		t.Errorf("Host = %s, want 127.0.0.1", cfg.Server.Host)
	}
	if cfg.Server.Port != 9090 {
		t.Errorf("Port = %d, want 9090", cfg.Server.Port)
	}
	if cfg.Server.ReadTimeout != 15*time.Second {
		t.Errorf("ReadTimeout = %v, want 15s", cfg.Server.ReadTimeout)
	}
	if cfg.Pricing.PlanPath != "pricing.json" {
		t.Errorf("Pricing.PlanPath = %s, want pricing.json", cfg.Pricing.PlanPath)
	}
	if !cfg.Pricing.Watch {
		t.Error("Pricing.Watch = false, want true")
	}
	if cfg.Simulation.DefaultHorizonMonths != 12 {
		t.Errorf("DefaultHorizonMonths = %d, want 12", cfg.Simulation.DefaultHorizonMonths)
	}
	if cfg.Simulation.MaxHorizonMonths != 60 {
		t.Errorf("MaxHorizonMonths = %d, want 60", cfg.Simulation.MaxHorizonMonths)
	}
}

func TestLoad_Defaults(t *testing.T) {
	content := `
pricing:
  plan_path: "pricing.json"
`

	cfg := writeAndLoad(t, content)

	// Check defaults
	if cfg.Server.Host != "0.0.0.0" {
		t.Errorf("default Host = %s, want 0.0.0.0", cfg.Server.Host)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("default Port = %d, want 8080", cfg.Server.Port)
	}
	if cfg.Database.Driver != "sqlite" {
		t.Errorf("default Database.Driver = %s, want sqlite", cfg.Database.Driver)
	}
	if cfg.Database.DSN != "cardsim.db" {
		t.Errorf("default Database.DSN = %s, want cardsim.db", cfg.Database.DSN)
	}
	if cfg.Simulation.DefaultHorizonMonths != 36 {
		t.Errorf("default DefaultHorizonMonths = %d, want 36", cfg.Simulation.DefaultHorizonMonths)
	}
	if cfg.Simulation.MaxHorizonMonths != 120 {
		t.Errorf("default MaxHorizonMonths = %d, want 120", cfg.Simulation.MaxHorizonMonths)
	}
	if cfg.Logging.Level != "info" {
		t.Errorf("default Logging.Level = %s, want info", cfg.Logging.Level)
	}
	if cfg.Metrics.Path != "/metrics" {
		t.Errorf("default Metrics.Path = %s, want /metrics", cfg.Metrics.Path)
	}
}

func TestLoad_EnvExpansion(t *testing.T) {
	os.Setenv("TEST_PLAN_PATH", "/data/pricing.json")
	defer os.Unsetenv("TEST_PLAN_PATH")

	content := `
pricing:
  plan_path: "${TEST_PLAN_PATH}"
`

	cfg := writeAndLoad(t, content)

	if cfg.Pricing.PlanPath != "/data/pricing.json" {
		t.Errorf("Pricing.PlanPath = %s, want /data/pricing.json", cfg.Pricing.PlanPath)
	}
}

func TestLoad_EnvOverride(t *testing.T) {
	os.Setenv("CARDSIM_SERVER_PORT", "9999")
	os.Setenv("CARDSIM_LOG_LEVEL", "debug")
	defer os.Unsetenv("CARDSIM_SERVER_PORT")
	defer os.Unsetenv("CARDSIM_LOG_LEVEL")

	content := `
server:
  port: 8080

pricing:
  plan_path: "pricing.json"

logging:
  level: "info"
`

	cfg := writeAndLoad(t, content)

	if cfg.Server.Port != 9999 {
		t.Errorf("Port = %d, want env override 9999", cfg.Server.Port)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Logging.Level = %s, want env override debug", cfg.Logging.Level)
	}
}

func TestLoad_ValidationErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{
			name:    "missing plan path",
			content: `server: {port: 8080}`,
		},
		{
			name: "bad driver",
			content: `
pricing: {plan_path: "pricing.json"}
database: {driver: "postgres"}
`,
		},
		{
			name: "bad log level",
			content: `
pricing: {plan_path: "pricing.json"}
logging: {level: "verbose"}
`,
		},
		{
			name: "max horizon below default",
			content: `
pricing: {plan_path: "pricing.json"}
simulation: {default_horizon_months: 60, max_horizon_months: 12}
`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeFile(t, "config.yaml", tt.content)
			if _, err := config.Load(path); err == nil {
				t.Error("expected validation error, got nil")
			}
		})
	}
}

func TestLoadWithFallback_NoConfig(t *testing.T) {
	os.Unsetenv("CARDSIM_PRICING_PLAN_PATH")

	if _, err := config.LoadWithFallback(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error with no config file and no env vars")
	}
}

func TestLoadWithFallback_Env(t *testing.T) {
	os.Setenv("CARDSIM_PRICING_PLAN_PATH", "/data/pricing.json")
	defer os.Unsetenv("CARDSIM_PRICING_PLAN_PATH")

	cfg, err := config.LoadWithFallback("")
	if err != nil {
		t.Fatalf("LoadWithFallback error: %v", err)
	}
	if cfg.Pricing.PlanPath != "/data/pricing.json" {
		t.Errorf("Pricing.PlanPath = %s, want /data/pricing.json", cfg.Pricing.PlanPath)
	}
	if !cfg.Metrics.Enabled {
		t.Error("env-only config should enable metrics by default")
	}
}

package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadConfig(t *testing.T) {
	// Create a temporary config file
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	yamlContent := `
http:
  port: 9000
database:
  path: "test.db"
redis:
  address: "localhost:6379"
`
	if err := os.WriteFile(configPath, []byte(yamlContent), 0o644); err != nil {
		t.Fatalf("failed to write temp config: %v", err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.HTTP.Port != 9000 {
		t.Errorf("expected port 9000, got %d", cfg.HTTP.Port)
	}
	if cfg.Database.Path != "test.db" {
		t.Errorf("expected database path test.db, got %s", cfg.Database.Path)
	}
	if cfg.Redis.Address != "localhost:6379" {
		t.Errorf("expected redis address localhost:6379, got %s", cfg.Redis.Address)
	}
}

func TestLoadConfigExpandsEnv(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	t.Setenv("TEST_DB_PATH", "from_env.db")

	yamlContent := `
database:
  path: "${TEST_DB_PATH}"
`
	if err := os.WriteFile(configPath, []byte(yamlContent), 0o644); err != nil {
		t.Fatalf("failed to write temp config: %v", err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.Database.Path != "from_env.db" {
		t.Errorf("expected expanded path from_env.db, got %s", cfg.Database.Path)
	}
}

func TestValidateConfig(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{
			name: "valid config",
			cfg: Config{
				HTTP:     HTTPConfig{Port: 8080},
				Database: DatabaseConfig{Path: "path"},
			},
			wantErr: false,
		},
		{
			name: "missing database path",
			cfg: Config{
				HTTP: HTTPConfig{Port: 8080},
			},
			wantErr: true,
		},
		{
			name: "invalid port",
			cfg: Config{
				HTTP:     HTTPConfig{Port: -1},
				Database: DatabaseConfig{Path: "path"},
			},
			wantErr: true,
		},
		{
			name: "sheets credentials without spreadsheet id",
			cfg: Config{
				HTTP:     HTTPConfig{Port: 8080},
				Database: DatabaseConfig{Path: "path"},
				Sheets:   SheetsConfig{CredentialsFile: "creds.json"},
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestApplyDefaults(t *testing.T) {
	cfg := &Config{}
	cfg.applyDefaults()

	if cfg.HTTP.Port != 8080 {
		t.Errorf("expected default port 8080, got %d", cfg.HTTP.Port)
	}
	if cfg.HTTP.IdentityHeader != "X-Sharer-User-Id" {
		t.Errorf("expected default identity header X-Sharer-User-Id, got %s", cfg.HTTP.IdentityHeader)
	}
	if cfg.HTTP.RateLimit.RPS != 20 {
		t.Errorf("expected default rate limit rps 20, got %f", cfg.HTTP.RateLimit.RPS)
	}
	if cfg.Cache.ViewTTLSeconds != 300 {
		t.Errorf("expected default view ttl 300, got %d", cfg.Cache.ViewTTLSeconds)
	}
}

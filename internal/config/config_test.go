package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestParseConfig_Defaults(t *testing.T) {
	cfg, err := ParseConfig([]byte("{}"), "funphp.yaml")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.MaxCallDepth != DefaultMaxCallDepth {
		t.Errorf("max_call_depth = %d, want %d", cfg.MaxCallDepth, DefaultMaxCallDepth)
	}
	if cfg.Precision != DefaultPrecision {
		t.Errorf("precision = %d, want %d", cfg.Precision, DefaultPrecision)
	}
	if cfg.Warnings != WarningsReport {
		t.Errorf("warnings = %q, want %q", cfg.Warnings, WarningsReport)
	}
	if cfg.Session.Name != DefaultSessionName {
		t.Errorf("session.name = %q", cfg.Session.Name)
	}
}

func TestParseConfig_Full(t *testing.T) {
	yaml := `
strict_variables: true
max_call_depth: 64
precision: 10
warnings: silent
superglobals: [_APP]
default_charset: ISO-8859-1
session:
  db: sessions.db
  name: SID
server:
  SERVER_NAME: example.test
`
	cfg, err := ParseConfig([]byte(yaml), "/etc/funphp/funphp.yaml")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !cfg.StrictVariables || cfg.MaxCallDepth != 64 || cfg.Precision != 10 {
		t.Errorf("unexpected config: %+v", cfg)
	}
	if cfg.Session.DB != filepath.Join("/etc/funphp", "sessions.db") {
		t.Errorf("session.db = %q, want it resolved next to the config", cfg.Session.DB)
	}
	if cfg.Server["SERVER_NAME"] != "example.test" {
		t.Errorf("server = %v", cfg.Server)
	}
	names := cfg.SuperglobalNames()
	if names[len(names)-1] != "_APP" {
		t.Errorf("SuperglobalNames() = %v", names)
	}
}

func TestParseConfig_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{"negative depth", "max_call_depth: -1", "max_call_depth"},
		{"precision", "precision: 40", "precision"},
		{"warnings mode", "warnings: loud", "warnings"},
		{"bad superglobal", "superglobals: ['$x']", "superglobals[0]"},
		{"bad yaml", "precision: [", "parsing"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseConfig([]byte(tt.yaml), "test.yaml")
			if err == nil {
				t.Fatalf("expected error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error %q does not mention %q", err, tt.wantErr)
			}
		})
	}
}

func TestFindConfig(t *testing.T) {
	root := t.TempDir()
	nested := filepath.Join(root, "a", "b")
	if err := os.MkdirAll(nested, 0o755); err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(root, "funphp.yml")
	if err := os.WriteFile(path, []byte("precision: 12\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	found, err := FindConfig(nested)
	if err != nil {
		t.Fatalf("FindConfig: %v", err)
	}
	if found != path {
		t.Errorf("FindConfig = %q, want %q", found, path)
	}
	cfg, err := LoadConfig(found)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Precision != 12 {
		t.Errorf("precision = %d", cfg.Precision)
	}
}

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func validConfig() Config {
	cfg := Config{
		HTTP:   HTTPConfig{Port: 5000},
		Engine: EngineConfig{Addrs: []string{"http://localhost:9200"}},
	}
	cfg.ApplyDefaults()
	return cfg
}

func TestValidate_OK(t *testing.T) {
	cfg := validConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidate_InvalidPort(t *testing.T) {
	cfg := validConfig()
	cfg.HTTP.Port = 70000

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for invalid port")
	}
}

func TestValidate_MissingEngineAddrs(t *testing.T) {
	cfg := validConfig()
	cfg.Engine.Addrs = nil

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected error for missing engine addrs")
	}
	if err.Error() != "engine.addrs is required" {
		t.Errorf("unexpected error message: %q", err.Error())
	}
}

func TestValidate_EmptyEngineAddr(t *testing.T) {
	cfg := validConfig()
	cfg.Engine.Addrs = []string{""}

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for blank engine addr")
	}
}

func TestValidate_InvalidIndexName(t *testing.T) {
	cfg := validConfig()
	cfg.Engine.Index = "BookDB"

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for uppercase index name")
	}
}

func TestValidate_Refresh(t *testing.T) {
	for _, refresh := range []string{"true", "false", "wait_for"} {
		t.Run("refresh="+refresh, func(t *testing.T) {
			cfg := validConfig()
			cfg.Engine.Refresh = refresh
			if err := cfg.Validate(); err != nil {
				t.Fatalf("unexpected error for %q: %v", refresh, err)
			}
		})
	}

	cfg := validConfig()
	cfg.Engine.Refresh = "sometimes"
	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected error for invalid refresh")
	}
	expected := `engine.refresh must be "true", "false" or "wait_for", got "sometimes"`
	if err.Error() != expected {
		t.Errorf("unexpected error message:\ngot:  %q\nwant: %q", err.Error(), expected)
	}
}

func TestValidate_APIKeyAndUsername(t *testing.T) {
	cfg := validConfig()
	cfg.Engine.APIKey = "key"
	cfg.Engine.Username = "elastic"

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for api_key with username")
	}
}

func TestValidate_FailureRatio(t *testing.T) {
	cfg := validConfig()
	cfg.Engine.Breaker.FailureRatio = 1.5

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for failure ratio above 1")
	}
}

func TestApplyDefaults(t *testing.T) {
	cfg := Config{}
	cfg.ApplyDefaults()

	if cfg.HTTP.Port != 5000 {
		t.Errorf("expected Port=5000, got %d", cfg.HTTP.Port)
	}
	if cfg.HTTP.ReadTimeoutSec != 10 {
		t.Errorf("expected ReadTimeoutSec=10, got %d", cfg.HTTP.ReadTimeoutSec)
	}
	if cfg.HTTP.WriteTimeoutSec != 30 {
		t.Errorf("expected WriteTimeoutSec=30, got %d", cfg.HTTP.WriteTimeoutSec)
	}
	if len(cfg.HTTP.CORSOrigins) != 1 || cfg.HTTP.CORSOrigins[0] != "*" {
		t.Errorf("expected CORSOrigins=[*], got %v", cfg.HTTP.CORSOrigins)
	}
	if cfg.Engine.Index != "bookdb_index" {
		t.Errorf("expected Index=bookdb_index, got %q", cfg.Engine.Index)
	}
	if cfg.Engine.MaxHits != 10000 {
		t.Errorf("expected MaxHits=10000, got %d", cfg.Engine.MaxHits)
	}
	if cfg.Engine.Refresh != "wait_for" {
		t.Errorf("expected Refresh=wait_for, got %q", cfg.Engine.Refresh)
	}
	if cfg.Engine.RequestTimeout() != 10*time.Second {
		t.Errorf("expected RequestTimeout=10s, got %s", cfg.Engine.RequestTimeout())
	}
	if cfg.Engine.Breaker.Disabled {
		t.Error("breaker should be enabled by default")
	}
	if cfg.Engine.Breaker.MinRequests != 5 || cfg.Engine.Breaker.FailureRatio != 0.6 {
		t.Errorf("unexpected breaker defaults: %+v", cfg.Engine.Breaker)
	}
	if cfg.Export.Dir != "." {
		t.Errorf("expected Export.Dir='.', got %q", cfg.Export.Dir)
	}
}

func TestApplyDefaults_NoOverride(t *testing.T) {
	cfg := Config{
		HTTP:   HTTPConfig{Port: 8080, ReadTimeoutSec: 30, WriteTimeoutSec: 60, ShutdownSec: 5},
		Engine: EngineConfig{Index: "books", MaxHits: 50, Refresh: "false"},
		Export: ExportConfig{Dir: "/tmp/out"},
	}
	cfg.ApplyDefaults()

	if cfg.HTTP.Port != 8080 {
		t.Errorf("expected Port=8080, got %d", cfg.HTTP.Port)
	}
	if cfg.HTTP.ReadTimeoutSec != 30 {
		t.Errorf("expected ReadTimeoutSec=30, got %d", cfg.HTTP.ReadTimeoutSec)
	}
	if cfg.Engine.Index != "books" || cfg.Engine.MaxHits != 50 || cfg.Engine.Refresh != "false" {
		t.Errorf("engine overrides lost: %+v", cfg.Engine)
	}
	if cfg.Export.Dir != "/tmp/out" {
		t.Errorf("expected Export.Dir=/tmp/out, got %q", cfg.Export.Dir)
	}
}

func TestApplyDefaults_DropsBlankAPIKeys(t *testing.T) {
	cfg := Config{Auth: AuthConfig{APIKeys: []string{"", "secret", "  "}}}
	cfg.ApplyDefaults()

	if len(cfg.Auth.APIKeys) != 1 || cfg.Auth.APIKeys[0] != "secret" {
		t.Errorf("expected [secret], got %v", cfg.Auth.APIKeys)
	}
}

func TestExpandEnvVars(t *testing.T) {
	t.Setenv("BOOKSEARCH_TEST_ADDR", "http://es:9200")

	got := string(expandEnvVars([]byte("a: ${BOOKSEARCH_TEST_ADDR}\nb: ${BOOKSEARCH_TEST_UNSET:-fallback}\nc: ${BOOKSEARCH_TEST_UNSET}")))
	want := "a: http://es:9200\nb: fallback\nc: "
	if got != want {
		t.Errorf("expandEnvVars:\ngot:  %q\nwant: %q", got, want)
	}
}

func TestParse(t *testing.T) {
	t.Setenv("BOOKSEARCH_TEST_ES", "http://search:9200")

	cfg, err := Parse([]byte(`
http:
  port: 8081
engine:
  addrs: ["${BOOKSEARCH_TEST_ES}"]
  index: books_v2
  breaker:
    disabled: true
auth:
  api_keys: ["k1"]
`))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if cfg.HTTP.Port != 8081 {
		t.Errorf("expected port 8081, got %d", cfg.HTTP.Port)
	}
	if cfg.Engine.Addrs[0] != "http://search:9200" {
		t.Errorf("expected expanded addr, got %q", cfg.Engine.Addrs[0])
	}
	if cfg.Engine.Index != "books_v2" || !cfg.Engine.Breaker.Disabled {
		t.Errorf("unexpected engine config: %+v", cfg.Engine)
	}
	if cfg.Engine.MaxHits != 10000 {
		t.Error("defaults should be applied after parsing")
	}
}

func TestParse_Invalid(t *testing.T) {
	if _, err := Parse([]byte("http: [")); err == nil {
		t.Error("expected YAML error")
	}
	if _, err := Parse([]byte("http:\n  port: 8080\n")); err == nil {
		t.Error("expected validation error without engine addrs")
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.yaml")
	if err := os.WriteFile(path, []byte("engine:\n  addrs: [\"http://localhost:9200\"]\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if cfg.HTTP.Port != 5000 {
		t.Errorf("expected default port, got %d", cfg.HTTP.Port)
	}

	if _, err := LoadFile(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestLoad_LocalConfig(t *testing.T) {
	cfg, err := Load("local")
	if err != nil {
		t.Fatalf("Load(local): %v", err)
	}
	if cfg.Engine.Index == "" || len(cfg.Engine.Addrs) == 0 {
		t.Errorf("unexpected local config: %+v", cfg.Engine)
	}
}

func TestGetEnv(t *testing.T) {
	t.Setenv("ENV", "")
	if got := GetEnv(); got != "local" {
		t.Errorf("expected local, got %q", got)
	}
	t.Setenv("ENV", "prod")
	if got := GetEnv(); got != "prod" {
		t.Errorf("expected prod, got %q", got)
	}
}

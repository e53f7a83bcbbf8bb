package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"botfleet/internal/bot"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing %s: %v", name, err)
	}
	return path
}

func TestLoad_FullConfig(t *testing.T) {
	path := writeFile(t, "config.yaml", `
fleet:
  max_attempts: 5
  backoff_min: 200ms
  backoff_max: 10s
  executor_timeout: 15s
  bot_rps: 2
server:
  addr: ":9999"
events:
  log: true
  redis_url: "redis://localhost:6379/0"
  kafka_brokers: ["localhost:9092"]
  kafka_topic: "fleet-events"
accounts:
  - name: alice
    credential:
      token: "abc"
      region: "eu"
  - name: bob
accounts_file: "accounts.csv"
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Fleet.MaxAttempts != 5 {
		t.Errorf("max_attempts: %d", cfg.Fleet.MaxAttempts)
	}
	if cfg.Fleet.BackoffMin != 200*time.Millisecond || cfg.Fleet.BackoffMax != 10*time.Second {
		t.Errorf("backoff: %s / %s", cfg.Fleet.BackoffMin, cfg.Fleet.BackoffMax)
	}
	if cfg.Fleet.ExecutorTimeout != 15*time.Second {
		t.Errorf("executor_timeout: %s", cfg.Fleet.ExecutorTimeout)
	}
	if cfg.Server.Addr != ":9999" {
		t.Errorf("addr: %s", cfg.Server.Addr)
	}
	if !cfg.Events.Log || cfg.Events.KafkaTopic != "fleet-events" {
		t.Errorf("events: %+v", cfg.Events)
	}
	// An unset stream name falls back to the default once redis is on.
	if cfg.Events.RedisStream != DefaultRedisStream {
		t.Errorf("redis_stream: %s", cfg.Events.RedisStream)
	}
	if len(cfg.Accounts) != 2 || cfg.Accounts[0].Name != "alice" {
		t.Errorf("accounts: %+v", cfg.Accounts)
	}
	if cfg.AccountsFile != "accounts.csv" {
		t.Errorf("accounts_file: %s", cfg.AccountsFile)
	}

	p := cfg.Policy()
	if p.MaxAttempts != 5 || p.RPS != 2 || p.BackoffMin != 200*time.Millisecond {
		t.Errorf("policy: %+v", p)
	}
}

func TestLoad_AppliesDefaults(t *testing.T) {
	path := writeFile(t, "config.yaml", `
fleet:
  max_attempts: 0
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Fleet.MaxAttempts != bot.DefaultMaxAttempts {
		t.Errorf("max_attempts default: %d", cfg.Fleet.MaxAttempts)
	}
	if cfg.Fleet.BackoffMin != bot.DefaultBackoffMin || cfg.Fleet.BackoffMax != bot.DefaultBackoffMax {
		t.Errorf("backoff defaults: %s / %s", cfg.Fleet.BackoffMin, cfg.Fleet.BackoffMax)
	}
	if cfg.Fleet.ExecutorTimeout != DefaultExecutorTimeout {
		t.Errorf("executor_timeout default: %s", cfg.Fleet.ExecutorTimeout)
	}
	if cfg.Server.Addr != DefaultAddr {
		t.Errorf("addr default: %s", cfg.Server.Addr)
	}
	if cfg.Events.RedisStream != "" {
		t.Errorf("redis_stream should stay empty without a redis url: %s", cfg.Events.RedisStream)
	}
}

func TestLoad_Errors(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected an error for a missing file")
	}

	bad := writeFile(t, "bad.yaml", "fleet: [not a mapping")
	if _, err := Load(bad); err == nil {
		t.Error("expected an error for malformed YAML")
	}
}

func TestDefault(t *testing.T) {
	cfg := Default()
	if cfg.Server.Addr != DefaultAddr || cfg.Fleet.MaxAttempts != bot.DefaultMaxAttempts {
		t.Errorf("unexpected defaults: %+v", cfg)
	}
}

func TestAccountConfig_Spec(t *testing.T) {
	spec, err := AccountConfig{
		Name:       "alice",
		Credential: map[string]any{"token": "abc", "ttl": 60},
	}.Spec()
	if err != nil {
		t.Fatalf("Spec: %v", err)
	}
	if spec.Name != "alice" {
		t.Errorf("name: %s", spec.Name)
	}

	var cred map[string]any
	if err := json.Unmarshal(spec.Credential, &cred); err != nil {
		t.Fatalf("credential is not valid JSON: %v", err)
	}
	if cred["token"] != "abc" || cred["ttl"] != float64(60) {
		t.Errorf("credential round trip: %v", cred)
	}

	empty, err := AccountConfig{Name: "bob"}.Spec()
	if err != nil {
		t.Fatalf("Spec: %v", err)
	}
	if empty.Credential != nil {
		t.Errorf("expected no credential blob, got %s", empty.Credential)
	}
}

func TestLoadAccounts_CSV(t *testing.T) {
	path := writeFile(t, "roster.csv", "name,token,region\nalice,abc,eu\nbob,def,us\n")

	specs, err := LoadAccounts(path)
	if err != nil {
		t.Fatalf("LoadAccounts: %v", err)
	}
	if len(specs) != 2 {
		t.Fatalf("expected 2 accounts, got %d", len(specs))
	}
	if specs[0].Name != "alice" || specs[1].Name != "bob" {
		t.Errorf("names: %s, %s", specs[0].Name, specs[1].Name)
	}

	var cred map[string]string
	if err := json.Unmarshal(specs[0].Credential, &cred); err != nil {
		t.Fatalf("credential: %v", err)
	}
	if cred["token"] != "abc" || cred["region"] != "eu" {
		t.Errorf("credential columns: %v", cred)
	}
}

func TestLoadAccounts_JSON(t *testing.T) {
	path := writeFile(t, "roster.json",
		`[{"name":"alice","credential":{"token":"abc"}},{"name":"bob"}]`)

	specs, err := LoadAccounts(path)
	if err != nil {
		t.Fatalf("LoadAccounts: %v", err)
	}
	if len(specs) != 2 || specs[0].Name != "alice" || specs[1].Name != "bob" {
		t.Errorf("unexpected roster: %+v", specs)
	}
	if specs[1].Credential != nil {
		t.Errorf("bob should carry no credential, got %s", specs[1].Credential)
	}
}

func TestLoadAccounts_Errors(t *testing.T) {
	if _, err := LoadAccounts(writeFile(t, "roster.txt", "whatever")); err == nil {
		t.Error("expected an error for an unsupported extension")
	}
	if _, err := LoadAccounts(writeFile(t, "roster.csv", "name\n")); err == nil {
		t.Error("expected an error for a header-only CSV")
	}
	if _, err := LoadAccounts(writeFile(t, "roster.csv", "token,region\na,b\n")); err == nil {
		t.Error("expected an error for a CSV without a name column")
	}
	if _, err := LoadAccounts(writeFile(t, "roster.json", `[]`)); err == nil {
		t.Error("expected an error for an empty roster")
	}
}

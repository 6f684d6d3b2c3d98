package config

import (
	"testing"
	"time"
)

func TestLoadConfig(t *testing.T) {
	t.Setenv("MONGODB_URI", "mongodb://localhost:27017/testdb")
	t.Setenv("MONGODB_DATABASE", "govpub_test")
	t.Setenv("REDIS_HOST", "localhost")
	t.Setenv("REDIS_PORT", "6379")
	t.Setenv("JWT_SECRET", "testsecret123456789012345678901234")
	t.Setenv("REMINDER_OFFSET_WEEKS", "6, 2,1")
	t.Setenv("SIDE_EFFECT_TIMEOUT_SECONDS", "3")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if cfg.MongoDB.URI == "" || cfg.Redis.Host == "" {
		t.Fatalf("unexpected empty config values: %+v", cfg)
	}
	if cfg.Redis.Addr() != "localhost:6379" {
		t.Fatalf("unexpected redis addr %q", cfg.Redis.Addr())
	}
	if got := cfg.Reminders.OffsetWeeks; len(got) != 3 || got[0] != 6 || got[1] != 2 || got[2] != 1 {
		t.Fatalf("unexpected offsets %v", got)
	}
	if cfg.Reminders.ResponseWeeks != 12 || cfg.Reminders.Window != 24*time.Hour {
		t.Fatalf("unexpected reminder defaults: %+v", cfg.Reminders)
	}
	if cfg.Scheduler.SideEffectTimeout != 3*time.Second {
		t.Fatalf("unexpected side effect timeout %s", cfg.Scheduler.SideEffectTimeout)
	}
}

func TestLoadConfig_MongoOptional(t *testing.T) {
	t.Setenv("MONGODB_URI", "")
	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.MongoDB.URI != "" {
		t.Fatalf("expected empty mongo uri, got %q", cfg.MongoDB.URI)
	}
}

func TestLoadConfig_BadOffsets(t *testing.T) {
	t.Setenv("REMINDER_OFFSET_WEEKS", "four")
	if _, err := LoadConfig(); err == nil {
		t.Fatalf("expected error for unparsable offsets")
	}
}

func TestKeycloakIssuer(t *testing.T) {
	k := KeycloakConfig{URL: "http://kc:8080/", Realm: "govpub"}
	if k.Issuer() != "http://kc:8080/realms/govpub" {
		t.Fatalf("unexpected issuer %q", k.Issuer())
	}
	k.Realm = ""
	if k.Issuer() != "http://kc:8080/" {
		t.Fatalf("unexpected issuer %q", k.Issuer())
	}
}

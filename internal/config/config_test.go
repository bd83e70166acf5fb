package config

import "testing"

func TestLoadDoesNotInjectWeakAuthDefaults(t *testing.T) {
	t.Setenv("AUTH_SECRET", "")

	cfg := Load()
	if cfg.AuthSecret != "" {
		t.Fatalf("expected empty AUTH_SECRET when unset, got %q", cfg.AuthSecret)
	}
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("DRAFT_TTL_DAYS", "")
	t.Setenv("SMTP_PORT", "")
	t.Setenv("ACCESS_TOKEN_TTL_MINUTES", "")

	cfg := Load()
	if cfg.Port != "8080" {
		t.Fatalf("expected default port 8080, got %q", cfg.Port)
	}
	if cfg.DraftTTLDays != 7 {
		t.Fatalf("expected default draft TTL of 7 days, got %d", cfg.DraftTTLDays)
	}
	if cfg.SMTPPort != 587 {
		t.Fatalf("expected default SMTP port 587, got %d", cfg.SMTPPort)
	}
	if cfg.AccessTokenTTLMinutes != 480 {
		t.Fatalf("expected default token TTL 480, got %d", cfg.AccessTokenTTLMinutes)
	}
}

func TestLoadRejectsBogusNumericEnv(t *testing.T) {
	t.Setenv("DRAFT_TTL_DAYS", "-3")
	t.Setenv("ACCESS_TOKEN_TTL_MINUTES", "abc")

	cfg := Load()
	if cfg.DraftTTLDays != 7 {
		t.Fatalf("expected fallback draft TTL, got %d", cfg.DraftTTLDays)
	}
	if cfg.AccessTokenTTLMinutes != 480 {
		t.Fatalf("expected fallback token TTL, got %d", cfg.AccessTokenTTLMinutes)
	}
}

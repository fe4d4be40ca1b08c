package config

import (
	"strings"
	"testing"
	"time"
)

func envMap(m map[string]string) func(string) string {
	return func(k string) string { return m[k] }
}

func TestLoadFromEnvDefaults(t *testing.T) {
	cfg, err := LoadFromEnv(envMap(map[string]string{"JWT_KEY": "0123456789abcdef0123"}))
	if err != nil {
		t.Fatalf("LoadFromEnv: %v", err)
	}

	if cfg.Port != "8080" || cfg.DBName != "imoveis" {
		t.Fatalf("unexpected defaults: port=%q db=%q", cfg.Port, cfg.DBName)
	}
	if cfg.JWTTTL != 24*time.Hour || cfg.ResetTokenTTL != 30*time.Minute {
		t.Fatalf("unexpected ttls: %v %v", cfg.JWTTTL, cfg.ResetTokenTTL)
	}
	if cfg.SMTPPort != 587 || cfg.SMTPTLS != "starttls" || cfg.SMTPHost != "smtp.gmail.com" {
		t.Fatalf("unexpected smtp defaults: %+v", cfg)
	}
	if cfg.GeocoderTimeout != 10*time.Second {
		t.Fatalf("unexpected geocoder timeout: %v", cfg.GeocoderTimeout)
	}
	if len(cfg.CORSOrigins) != 1 || cfg.CORSOrigins[0] != "*" {
		t.Fatalf("unexpected cors origins: %v", cfg.CORSOrigins)
	}
	if cfg.AdminCanEdit {
		t.Fatalf("admin edit must default to false")
	}
}

func TestLoadFromEnvOverrides(t *testing.T) {
	cfg, err := LoadFromEnv(envMap(map[string]string{
		"JWT_KEY":         "0123456789abcdef0123",
		"PORT":            "3333",
		"RESET_TOKEN_TTL": "1h",
		"FRONTEND_URL":    "https://imoveis.example.com/",
		"ADMIN_CAN_EDIT":  "true",
		"CORS_ORIGINS":    "https://a.example.com, https://b.example.com",
		"SMTP_PORT":       "465",
		"SMTP_TLS":        "TLS",
	}))
	if err != nil {
		t.Fatalf("LoadFromEnv: %v", err)
	}
	if cfg.Port != "3333" || cfg.ResetTokenTTL != time.Hour || !cfg.AdminCanEdit {
		t.Fatalf("overrides not applied: %+v", cfg)
	}
	if cfg.FrontendURL != "https://imoveis.example.com" {
		t.Fatalf("trailing slash must be trimmed: %q", cfg.FrontendURL)
	}
	if len(cfg.CORSOrigins) != 2 || cfg.CORSOrigins[1] != "https://b.example.com" {
		t.Fatalf("unexpected cors origins: %v", cfg.CORSOrigins)
	}
	if cfg.SMTPPort != 465 || cfg.SMTPTLS != "tls" {
		t.Fatalf("unexpected smtp: %d %s", cfg.SMTPPort, cfg.SMTPTLS)
	}
}

func TestLoadFromEnvErrors(t *testing.T) {
	base := map[string]string{"JWT_KEY": "0123456789abcdef0123"}

	tests := []struct {
		name    string
		key     string
		value   string
		wantKey string
	}{
		{name: "missing jwt key", key: "JWT_KEY", value: "", wantKey: "JWT_KEY"},
		{name: "bad ttl", key: "JWT_TTL", value: "forever", wantKey: "JWT_TTL"},
		{name: "reset ttl too short", key: "RESET_TOKEN_TTL", value: "5m", wantKey: "RESET_TOKEN_TTL"},
		{name: "bad smtp port", key: "SMTP_PORT", value: "abc", wantKey: "SMTP_PORT"},
		{name: "bad tls mode", key: "SMTP_TLS", value: "ssl", wantKey: "SMTP_TLS"},
		{name: "bad bool", key: "ADMIN_CAN_EDIT", value: "talvez", wantKey: "ADMIN_CAN_EDIT"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := map[string]string{}
			for k, v := range base {
				env[k] = v
			}
			env[tt.key] = tt.value

			_, err := LoadFromEnv(envMap(env))
			if err == nil {
				t.Fatalf("expected error")
			}
			if !strings.Contains(err.Error(), tt.wantKey) {
				t.Fatalf("error %q should name %s", err, tt.wantKey)
			}
		})
	}
}

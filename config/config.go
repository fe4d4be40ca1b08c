package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Port string

	MongoURI string
	DBName   string

	RedisAddr string
	RedisPass string

	JWTKey        string
	JWTTTL        time.Duration
	ResetTokenTTL time.Duration
	FrontendURL   string

	CloudinaryURL string

	GeocoderURL       string
	GeocoderUserAgent string
	GeocoderTimeout   time.Duration

	SMTPHost  string
	SMTPPort  int
	SMTPTLS   string
	EmailUser string
	EmailPass string

	AdminCanEdit bool
	CORSOrigins  []string
}

func Load() (Config, error) {
	return LoadFromEnv(os.Getenv)
}

func LoadFromEnv(getenv func(string) string) (Config, error) {
	cfg := Config{
		Port:              withDefault(getenv("PORT"), "8080"),
		MongoURI:          getenv("MONGOURI"),
		DBName:            withDefault(getenv("DB"), "imoveis"),
		RedisAddr:         getenv("REDIS_ADD"),
		RedisPass:         getenv("REDIS_PASS"),
		JWTKey:            getenv("JWT_KEY"),
		FrontendURL:       strings.TrimSuffix(withDefault(getenv("FRONTEND_URL"), "http://localhost:5173"), "/"),
		CloudinaryURL:     getenv("CLOUDINARY_URL"),
		GeocoderURL:       strings.TrimSuffix(withDefault(getenv("GEOCODER_URL"), "https://nominatim.openstreetmap.org"), "/"),
		GeocoderUserAgent: withDefault(getenv("GEOCODER_USER_AGENT"), "imoveis-api/1.0"),
		SMTPHost:          withDefault(getenv("SMTP_HOST"), "smtp.gmail.com"),
		SMTPTLS:           withDefault(strings.ToLower(getenv("SMTP_TLS")), "starttls"),
		EmailUser:         getenv("EMAIL_USER"),
		EmailPass:         getenv("EMAIL_PASS"),
		CORSOrigins:       parseCSV(withDefault(getenv("CORS_ORIGINS"), "*")),
	}

	if len(cfg.JWTKey) < 16 {
		return Config{}, errors.New("JWT_KEY: must be set and at least 16 bytes")
	}

	var err error
	if cfg.JWTTTL, err = parseDuration(getenv, "JWT_TTL", 24*time.Hour); err != nil {
		return Config{}, err
	}
	if cfg.ResetTokenTTL, err = parseDuration(getenv, "RESET_TOKEN_TTL", 30*time.Minute); err != nil {
		return Config{}, err
	}
	if cfg.ResetTokenTTL < 30*time.Minute || cfg.ResetTokenTTL > time.Hour {
		return Config{}, errors.New("RESET_TOKEN_TTL: must be between 30m and 60m")
	}
	if cfg.GeocoderTimeout, err = parseDuration(getenv, "GEOCODER_TIMEOUT", 10*time.Second); err != nil {
		return Config{}, err
	}

	port := withDefault(getenv("SMTP_PORT"), "587")
	cfg.SMTPPort, err = strconv.Atoi(port)
	if err != nil || cfg.SMTPPort <= 0 {
		return Config{}, fmt.Errorf("SMTP_PORT: invalid port %q", port)
	}

	switch cfg.SMTPTLS {
	case "starttls", "tls", "none":
	default:
		return Config{}, errors.New("SMTP_TLS: must be one of starttls, tls, none")
	}

	if raw := getenv("ADMIN_CAN_EDIT"); raw != "" {
		cfg.AdminCanEdit, err = strconv.ParseBool(raw)
		if err != nil {
			return Config{}, fmt.Errorf("ADMIN_CAN_EDIT: %w", err)
		}
	}

	return cfg, nil
}

func withDefault(v, def string) string {
	v = strings.TrimSpace(v)
	if v == "" {
		return def
	}
	return v
}

func parseDuration(getenv func(string) string, key string, def time.Duration) (time.Duration, error) {
	raw := strings.TrimSpace(getenv(key))
	if raw == "" {
		return def, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("%s: must be > 0", key)
	}
	return d, nil
}

func parseCSV(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

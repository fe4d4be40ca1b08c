package imagestore

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/equipe-visionarios/imoveis-api/models"
)

func TestPublicIDFromURL(t *testing.T) {
	tests := []struct {
		url  string
		want string
	}{
		{"https://res.cloudinary.com/demo/image/upload/v1712/properties/abc123.jpg", "properties/abc123"},
		{"https://res.cloudinary.com/demo/image/upload/v1712/properties/abc123.jpg?x=1", "properties/abc123"},
		{"https://cdn.example.com/a/b/casa.final.webp", "properties/casa"},
		{"https://cdn.example.com/noext", "properties/noext"},
		{"", ""},
	}

	for _, tt := range tests {
		if got := PublicIDFromURL(tt.url); got != tt.want {
			t.Errorf("PublicIDFromURL(%q) = %q, want %q", tt.url, got, tt.want)
		}
	}
}

func TestPublicIDOf(t *testing.T) {
	if got := PublicIDOf(models.Image{URL: "https://x/properties/a.jpg", PublicID: "properties/stored"}); got != "properties/stored" {
		t.Fatalf("stored public id must win, got %q", got)
	}
	if got := PublicIDOf(models.Image{URL: "https://x/properties/a.jpg"}); got != "properties/a" {
		t.Fatalf("expected derived id, got %q", got)
	}
}

func TestDisabledStore(t *testing.T) {
	store, err := New("")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if store.Enabled() {
		t.Fatalf("store without url must be disabled")
	}

	_, err = store.Upload(context.Background(), "a.jpg", strings.NewReader("data"))
	if !errors.Is(err, models.ErrUpstream) {
		t.Fatalf("expected ErrUpstream on upload, got %v", err)
	}
	if err := store.Delete(context.Background(), "properties/a"); !errors.Is(err, models.ErrUpstream) {
		t.Fatalf("expected ErrUpstream on delete, got %v", err)
	}
}

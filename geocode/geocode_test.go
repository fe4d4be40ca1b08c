package geocode

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/equipe-visionarios/imoveis-api/models"
)

func TestGeocode(t *testing.T) {
	var gotQuery, gotAgent string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query().Get("q")
		gotAgent = r.Header.Get("User-Agent")
		if r.URL.Path != "/search" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[{"lat":"-23.5613","lon":"-46.6565","display_name":"Avenida Paulista"}]`))
	}))
	defer srv.Close()

	c := New(srv.URL+"/", "imoveis-test", time.Second)
	loc, err := c.Geocode(context.Background(), "Avenida Paulista, 1000")
	if err != nil {
		t.Fatalf("Geocode: %v", err)
	}
	if loc.Lat != -23.5613 || loc.Lng != -46.6565 {
		t.Fatalf("unexpected location: %+v", loc)
	}
	if gotQuery != "Avenida Paulista, 1000" || gotAgent != "imoveis-test" {
		t.Fatalf("unexpected request: q=%q agent=%q", gotQuery, gotAgent)
	}
}

func TestGeocodeFailures(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		handler func(w http.ResponseWriter, r *http.Request)
	}{
		{name: "no results", status: http.StatusOK, body: `[]`},
		{name: "server error", status: http.StatusBadGateway, body: `bad gateway`},
		{name: "bad payload", status: http.StatusOK, body: `{"oops":true}`},
		{name: "bad latitude", status: http.StatusOK, body: `[{"lat":"north","lon":"1"}]`},
		{
			name: "timeout",
			handler: func(w http.ResponseWriter, r *http.Request) {
				time.Sleep(200 * time.Millisecond)
				w.Write([]byte(`[]`))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := tt.handler
			if h == nil {
				h = func(w http.ResponseWriter, r *http.Request) {
					w.WriteHeader(tt.status)
					w.Write([]byte(tt.body))
				}
			}
			srv := httptest.NewServer(http.HandlerFunc(h))
			defer srv.Close()

			c := New(srv.URL, "imoveis-test", 50*time.Millisecond)
			_, err := c.Geocode(context.Background(), "Rua Inexistente")
			if !errors.Is(err, models.ErrUpstream) {
				t.Fatalf("expected ErrUpstream, got %v", err)
			}
		})
	}
}

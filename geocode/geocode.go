package geocode

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/equipe-visionarios/imoveis-api/models"
)

// Client resolves free-text addresses against a Nominatim compatible search API.
type Client struct {
	baseURL   string
	userAgent string
	http      *http.Client
}

func New(baseURL, userAgent string, timeout time.Duration) *Client {
	return &Client{
		baseURL:   strings.TrimSuffix(baseURL, "/"),
		userAgent: userAgent,
		http:      &http.Client{Timeout: timeout},
	}
}

type place struct {
	Lat string `json:"lat"`
	Lon string `json:"lon"`
}

// Geocode returns the coordinates of the best match for address. A lookup
// without results or any transport failure is reported as models.ErrUpstream.
func (c *Client) Geocode(ctx context.Context, address string) (models.Location, error) {
	q := url.Values{}
	q.Set("format", "json")
	q.Set("limit", "1")
	q.Set("q", address)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/search?"+q.Encode(), nil)
	if err != nil {
		return models.Location{}, fmt.Errorf("geocode request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return models.Location{}, fmt.Errorf("%w: geocode: %v", models.ErrUpstream, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return models.Location{}, fmt.Errorf("%w: geocoder error %d: %s", models.ErrUpstream, resp.StatusCode, string(body))
	}

	var places []place
	if err := json.NewDecoder(resp.Body).Decode(&places); err != nil {
		return models.Location{}, fmt.Errorf("%w: decode geocoder response: %v", models.ErrUpstream, err)
	}
	if len(places) == 0 {
		return models.Location{}, fmt.Errorf("%w: no location found for address", models.ErrUpstream)
	}

	lat, err := strconv.ParseFloat(places[0].Lat, 64)
	if err != nil {
		return models.Location{}, fmt.Errorf("%w: bad latitude %q", models.ErrUpstream, places[0].Lat)
	}
	lng, err := strconv.ParseFloat(places[0].Lon, 64)
	if err != nil {
		return models.Location{}, fmt.Errorf("%w: bad longitude %q", models.ErrUpstream, places[0].Lon)
	}
	return models.Location{Lat: lat, Lng: lng}, nil
}

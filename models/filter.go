package models

import (
	"net/url"
	"strconv"
	"strings"
)

// PropertyFilter holds the optional exact-match criteria of a listing query.
// A nil field imposes no constraint. NoMatch is set when a numeric criterion
// could not be parsed; such a filter selects nothing.
type PropertyFilter struct {
	Region   *string
	Bedrooms *int
	Garage   *int
	Status   *string
	NoMatch  bool
}

// ParsePropertyFilter reads region, bedrooms, garage (or parking) and status
// from query values. Empty values are treated as absent.
func ParsePropertyFilter(q url.Values) PropertyFilter {
	var f PropertyFilter

	if v := strings.TrimSpace(q.Get("region")); v != "" {
		f.Region = &v
	}
	if v := strings.TrimSpace(q.Get("status")); v != "" {
		f.Status = &v
	}

	garage := strings.TrimSpace(q.Get("garage"))
	if garage == "" {
		garage = strings.TrimSpace(q.Get("parking"))
	}

	for _, field := range []struct {
		raw string
		dst **int
	}{
		{strings.TrimSpace(q.Get("bedrooms")), &f.Bedrooms},
		{garage, &f.Garage},
	} {
		if field.raw == "" {
			continue
		}
		n, err := strconv.Atoi(field.raw)
		if err != nil {
			f.NoMatch = true
			continue
		}
		*field.dst = &n
	}

	return f
}

// Matches reports whether p satisfies every supplied criterion.
func (f PropertyFilter) Matches(p *Property) bool {
	if f.NoMatch {
		return false
	}
	if f.Region != nil && p.Region != *f.Region {
		return false
	}
	if f.Bedrooms != nil && p.Bedrooms != *f.Bedrooms {
		return false
	}
	if f.Garage != nil && p.Garage != *f.Garage {
		return false
	}
	if f.Status != nil && p.Status != *f.Status {
		return false
	}
	return true
}

// CacheKey renders the filter canonically so equal filters share a key.
func (f PropertyFilter) CacheKey() string {
	if f.NoMatch {
		return "nomatch"
	}
	var sb strings.Builder
	if f.Bedrooms != nil {
		sb.WriteString("bedrooms=" + strconv.Itoa(*f.Bedrooms) + "&")
	}
	if f.Garage != nil {
		sb.WriteString("garage=" + strconv.Itoa(*f.Garage) + "&")
	}
	if f.Region != nil {
		sb.WriteString("region=" + url.QueryEscape(*f.Region) + "&")
	}
	if f.Status != nil {
		sb.WriteString("status=" + url.QueryEscape(*f.Status) + "&")
	}
	return strings.TrimSuffix(sb.String(), "&")
}

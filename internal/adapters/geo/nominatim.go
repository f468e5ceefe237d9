// Package geo выполняет обратное геокодирование через Nominatim.
package geo

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"terrace/internal/domain"
	"terrace/internal/infra/metrics"
)

const defaultBaseURL = "https://nominatim.openstreetmap.org"

// Nominatim реализует domain.Geocoder через публичный API OpenStreetMap.
type Nominatim struct {
	http      *http.Client
	baseURL   string
	userAgent string
}

var _ domain.Geocoder = (*Nominatim)(nil)

// NewNominatim создаёт геокодер. Nominatim требует осмысленный User-Agent.
func NewNominatim(baseURL, userAgent string, timeout time.Duration) *Nominatim {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	baseURL = strings.TrimRight(baseURL, "/")
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if userAgent == "" {
		userAgent = "terrace/1.0"
	}
	return &Nominatim{
		http:      &http.Client{Timeout: timeout},
		baseURL:   baseURL,
		userAgent: userAgent,
	}
}

type reverseResponse struct {
	Address struct {
		City        string `json:"city"`
		Town        string `json:"town"`
		Village     string `json:"village"`
		Country     string `json:"country"`
		CountryCode string `json:"country_code"`
	} `json:"address"`
}

// ReverseGeocode возвращает город и страну по координатам.
func (n *Nominatim) ReverseGeocode(ctx context.Context, lat, lon float64) (domain.Location, error) {
	query := url.Values{}
	query.Set("format", "json")
	query.Set("lat", fmt.Sprintf("%f", lat))
	query.Set("lon", fmt.Sprintf("%f", lon))
	endpoint := n.baseURL + "/reverse?" + query.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return domain.Location{}, fmt.Errorf("nominatim: build request: %w", err)
	}
	req.Header.Set("User-Agent", n.userAgent)

	start := time.Now()
	resp, err := n.http.Do(req)
	if err != nil {
		metrics.ObserveNetworkRequest("nominatim", "reverse", "reverse", start, err)
		return domain.Location{}, fmt.Errorf("nominatim: do request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		metrics.ObserveNetworkRequest("nominatim", "reverse", "reverse", start, err)
		return domain.Location{}, fmt.Errorf("nominatim: read response: %w", err)
	}
	if resp.StatusCode >= 400 {
		err = fmt.Errorf("nominatim: unexpected status %d", resp.StatusCode)
		metrics.ObserveNetworkRequest("nominatim", "reverse", "reverse", start, err)
		return domain.Location{}, err
	}
	var decoded reverseResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		metrics.ObserveNetworkRequest("nominatim", "reverse", "reverse", start, err)
		return domain.Location{}, fmt.Errorf("nominatim: decode response: %w", err)
	}
	metrics.ObserveNetworkRequest("nominatim", "reverse", "reverse", start, nil)

	city := decoded.Address.City
	if city == "" {
		city = decoded.Address.Town
	}
	if city == "" {
		city = decoded.Address.Village
	}
	return domain.Location{
		City:        city,
		Country:     decoded.Address.Country,
		CountryCode: decoded.Address.CountryCode,
	}, nil
}

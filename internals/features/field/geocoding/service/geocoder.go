// Package service: reverse geocoding (lat,lng) → alamat, dengan fallback placeholder.
package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/tidwall/gjson"
	"go.uber.org/zap"
)

type Place struct {
	Address    string `json:"address"`
	District   string `json:"district,omitempty"`
	State      string `json:"state,omitempty"`
	Confidence string `json:"confidence"`
}

type Geocoder interface {
	Reverse(ctx context.Context, lat, lng float64) (Place, error)
}

var ErrNoResult = errors.New("geocoder: no result")

// PlaceholderAddress dipakai kalau reverse geocoding gagal.
func PlaceholderAddress(lat, lng float64) string {
	return fmt.Sprintf("Lat %.6f, Lng %.6f", lat, lng)
}

// ResolveAddress tidak pernah gagal: error geocoder → placeholder.
func ResolveAddress(ctx context.Context, g Geocoder, lat, lng float64, log *zap.Logger) Place {
	if g != nil {
		p, err := g.Reverse(ctx, lat, lng)
		if err == nil && strings.TrimSpace(p.Address) != "" {
			return p
		}
		if err != nil && log != nil {
			log.Warn("[GEOCODE] reverse gagal, pakai placeholder",
				zap.Float64("lat", lat), zap.Float64("lng", lng), zap.Error(err))
		}
	}
	return Place{Address: PlaceholderAddress(lat, lng), Confidence: "LOW"}
}

/* ===================== Nominatim ===================== */

// NominatimGeocoder memanggil endpoint /reverse?format=jsonv2 (kompatibel Nominatim).
type NominatimGeocoder struct {
	httpClient *http.Client
	baseURL    string
	userAgent  string
}

func NewNominatimGeocoder(baseURL, userAgent string, timeout time.Duration) *NominatimGeocoder {
	if timeout <= 0 {
		timeout = 8 * time.Second
	}
	return &NominatimGeocoder{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    strings.TrimRight(baseURL, "/"),
		userAgent:  userAgent,
	}
}

func (g *NominatimGeocoder) Reverse(ctx context.Context, lat, lng float64) (Place, error) {
	q := url.Values{}
	q.Set("format", "jsonv2")
	q.Set("lat", strconv.FormatFloat(lat, 'f', 6, 64))
	q.Set("lon", strconv.FormatFloat(lng, 'f', 6, 64))
	q.Set("addressdetails", "1")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.baseURL+"/reverse?"+q.Encode(), nil)
	if err != nil {
		return Place{}, fmt.Errorf("build request: %w", err)
	}
	if g.userAgent != "" {
		req.Header.Set("User-Agent", g.userAgent)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return Place{}, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return Place{}, fmt.Errorf("read body: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return Place{}, fmt.Errorf("geocoder status %d", resp.StatusCode)
	}
	if !gjson.ValidBytes(body) {
		return Place{}, errors.New("geocoder: invalid json")
	}

	res := gjson.ParseBytes(body)
	if res.Get("error").Exists() {
		return Place{}, ErrNoResult
	}
	display := strings.TrimSpace(res.Get("display_name").String())
	if display == "" {
		return Place{}, ErrNoResult
	}

	addr := res.Get("address")
	return Place{
		Address:    display,
		District:   firstNonEmpty(addr, "state_district", "county", "city_district", "city"),
		State:      addr.Get("state").String(),
		Confidence: confidenceFromRank(res.Get("place_rank").Int()),
	}, nil
}

func firstNonEmpty(r gjson.Result, keys ...string) string {
	for _, k := range keys {
		if v := strings.TrimSpace(r.Get(k).String()); v != "" {
			return v
		}
	}
	return ""
}

// place_rank Nominatim: 26+ jalan/bangunan, 16+ kota/kelurahan
func confidenceFromRank(rank int64) string {
	switch {
	case rank >= 26:
		return "HIGH"
	case rank >= 16:
		return "MEDIUM"
	default:
		return "LOW"
	}
}

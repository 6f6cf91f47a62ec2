// Package service berisi kontrak PhotoAuthenticityOracle + adapter-nya.
package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/tidwall/gjson"
	"go.uber.org/zap"
)

type AttendanceType string

const (
	AttendanceEntry AttendanceType = "entry"
	AttendanceExit  AttendanceType = "exit"
)

func ParseAttendanceType(s string) (AttendanceType, bool) {
	switch AttendanceType(strings.ToLower(strings.TrimSpace(s))) {
	case AttendanceEntry:
		return AttendanceEntry, true
	case AttendanceExit:
		return AttendanceExit, true
	}
	return "", false
}

type Confidence string

const (
	ConfidenceHigh   Confidence = "HIGH"
	ConfidenceMedium Confidence = "MEDIUM"
	ConfidenceLow    Confidence = "LOW"
)

// ReasonUnanalyzable dipakai untuk semua balasan oracle yang tidak bisa dibaca.
const ReasonUnanalyzable = "Could not analyze the photo"

var ErrOracleUnavailable = errors.New("photo oracle unavailable")

type Request struct {
	Image            []byte
	MimeType         string
	ExpectedLocation string
	ProjectName      string
	Type             AttendanceType
}

type Analysis struct {
	EnvironmentType  string   `json:"environment_type"`
	VisibleFeatures  []string `json:"visible_features"`
	LocationMatch    string   `json:"location_match"`
	ProjectRelevance string   `json:"project_relevance"`
}

type Verdict struct {
	Verified    bool       `json:"verified"`
	Confidence  Confidence `json:"confidence"`
	Reason      string     `json:"reason"`
	Suggestions []string   `json:"suggestions,omitempty"`
	Analysis    Analysis   `json:"analysis"`
	Timestamp   time.Time  `json:"timestamp"`
	// Degraded: balasan oracle rusak dan di-coerce ke penolakan aman.
	Degraded bool `json:"degraded,omitempty"`
}

// Oracle menilai apakah foto masuk akal diambil di lokasi yang diharapkan.
// Error hanya untuk outage (dibungkus ErrOracleUnavailable); penolakan konten dikembalikan sebagai Verdict.
type Oracle interface {
	Verify(ctx context.Context, req Request) (Verdict, error)
}

/* ===================== decode-or-degrade ===================== */

func degraded(now time.Time) Verdict {
	return Verdict{
		Verified:   false,
		Confidence: ConfidenceLow,
		Reason:     ReasonUnanalyzable,
		Suggestions: []string{
			"Retake the photo in good lighting",
			"Make sure the surroundings of the project site are visible",
		},
		Timestamp: now,
		Degraded:  true,
	}
}

// DecodeVerdict membaca balasan mentah oracle. Bentuk yang tidak cocok selalu
// menjadi verified=false / LOW, tidak pernah error.
func DecodeVerdict(raw string, now time.Time) Verdict {
	body := extractJSONObject(raw)
	if body == "" || !gjson.Valid(body) {
		return degraded(now)
	}
	res := gjson.Parse(body)
	if !res.IsObject() {
		return degraded(now)
	}

	verified := res.Get("verified")
	if verified.Type != gjson.True && verified.Type != gjson.False {
		return degraded(now)
	}
	reason := res.Get("reason")
	if reason.Type != gjson.String || strings.TrimSpace(reason.Str) == "" {
		return degraded(now)
	}
	conf, ok := parseConfidence(res.Get("confidence"))
	if !ok {
		return degraded(now)
	}

	v := Verdict{
		Verified:    verified.Bool(),
		Confidence:  conf,
		Reason:      strings.TrimSpace(reason.Str),
		Suggestions: stringArray(res.Get("suggestions")),
		Timestamp:   now,
	}
	if a := res.Get("analysis"); a.IsObject() {
		v.Analysis = Analysis{
			EnvironmentType:  a.Get("environmentType").String(),
			VisibleFeatures:  stringArray(a.Get("visibleFeatures")),
			LocationMatch:    a.Get("locationMatch").String(),
			ProjectRelevance: a.Get("projectRelevance").String(),
		}
	}
	return v
}

func parseConfidence(r gjson.Result) (Confidence, bool) {
	if r.Type != gjson.String {
		return "", false
	}
	switch Confidence(strings.ToUpper(strings.TrimSpace(r.Str))) {
	case ConfidenceHigh:
		return ConfidenceHigh, true
	case ConfidenceMedium:
		return ConfidenceMedium, true
	case ConfidenceLow:
		return ConfidenceLow, true
	}
	return "", false
}

func stringArray(r gjson.Result) []string {
	if !r.IsArray() {
		return nil
	}
	var out []string
	r.ForEach(func(_, v gjson.Result) bool {
		if v.Type == gjson.String && strings.TrimSpace(v.Str) != "" {
			out = append(out, strings.TrimSpace(v.Str))
		}
		return true
	})
	return out
}

// model kadang membungkus JSON dengan ```json ... ``` atau teks pengantar
func extractJSONObject(raw string) string {
	s := strings.TrimSpace(raw)
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start < 0 || end <= start {
		return ""
	}
	return s[start : end+1]
}

/* ===================== simple adapters ===================== */

// AcceptOracle dipakai di development (ORACLE_MODE=accept).
type AcceptOracle struct{}

func (AcceptOracle) Verify(_ context.Context, req Request) (Verdict, error) {
	return Verdict{
		Verified:   true,
		Confidence: ConfidenceLow,
		Reason:     "Photo verification disabled; accepted without analysis",
		Timestamp:  time.Now(),
	}, nil
}

// UnavailableOracle: oracle wajib tapi belum dikonfigurasi.
type UnavailableOracle struct{}

func (UnavailableOracle) Verify(context.Context, Request) (Verdict, error) {
	return Verdict{}, ErrOracleUnavailable
}

type Options struct {
	Mode    string
	APIKey  string
	Model   string
	Timeout time.Duration
}

// New memilih adapter sesuai ORACLE_MODE.
func New(ctx context.Context, opts Options, log *zap.Logger) (Oracle, error) {
	switch strings.ToLower(strings.TrimSpace(opts.Mode)) {
	case "accept":
		log.Warn("[ORACLE] mode accept: foto tidak dianalisis")
		return AcceptOracle{}, nil
	case "", "gemini":
		if strings.TrimSpace(opts.APIKey) == "" {
			log.Warn("[ORACLE] GEMINI_API_KEY kosong, semua verifikasi foto akan unavailable")
			return UnavailableOracle{}, nil
		}
		return NewGeminiOracle(ctx, opts.APIKey, opts.Model, opts.Timeout, log)
	default:
		return nil, errors.New("unknown ORACLE_MODE: " + opts.Mode)
	}
}

package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"google.golang.org/genai"
)

// contentGenerator = subset dari *genai.Models yang dipakai; diganti fake di test.
type contentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

type GeminiOracle struct {
	models  contentGenerator
	model   string
	timeout time.Duration
	log     *zap.Logger
	now     func() time.Time
}

func NewGeminiOracle(ctx context.Context, apiKey, model string, timeout time.Duration, log *zap.Logger) (*GeminiOracle, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}
	return newGeminiOracle(client.Models, model, timeout, log), nil
}

func newGeminiOracle(models contentGenerator, model string, timeout time.Duration, log *zap.Logger) *GeminiOracle {
	if model == "" {
		model = "gemini-2.0-flash"
	}
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	return &GeminiOracle{
		models:  models,
		model:   model,
		timeout: timeout,
		log:     log.Named("oracle"),
		now:     time.Now,
	}
}

func (g *GeminiOracle) Verify(ctx context.Context, req Request) (Verdict, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	contents := []*genai.Content{
		genai.NewContentFromParts([]*genai.Part{
			genai.NewPartFromText(buildPrompt(req)),
			genai.NewPartFromBytes(req.Image, req.MimeType),
		}, genai.RoleUser),
	}
	temp := float32(0.2)
	resp, err := g.models.GenerateContent(ctx, g.model, contents, &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		Temperature:      &temp,
	})
	if err != nil {
		g.log.Warn("[ORACLE] request gagal", zap.String("type", string(req.Type)), zap.Error(err))
		return Verdict{}, fmt.Errorf("%w: %v", ErrOracleUnavailable, err)
	}

	raw := ""
	if resp != nil {
		raw = resp.Text()
	}
	v := DecodeVerdict(raw, g.now())
	if v.Degraded {
		g.log.Warn("[ORACLE] balasan tidak bisa dibaca, dianggap ditolak",
			zap.String("type", string(req.Type)), zap.Int("raw_len", len(raw)))
	}
	return v, nil
}

func buildPrompt(req Request) string {
	var b strings.Builder
	b.WriteString("You verify field-attendance photos for an environmental project.\n")
	fmt.Fprintf(&b, "Attendance type: %s.\n", req.Type)
	if req.ProjectName != "" {
		fmt.Fprintf(&b, "Project: %s.\n", req.ProjectName)
	}
	fmt.Fprintf(&b, "Expected location: %s.\n", req.ExpectedLocation)
	b.WriteString("Judge whether the photo plausibly shows an outdoor project site at or near that location ")
	b.WriteString("and is a real photo taken on site (not a screenshot, stock image or photo of a screen).\n")
	b.WriteString(`Reply with JSON only: {"verified": boolean, "confidence": "HIGH"|"MEDIUM"|"LOW", "reason": string, `)
	b.WriteString(`"suggestions": [string], "analysis": {"environmentType": string, "visibleFeatures": [string], `)
	b.WriteString(`"locationMatch": string, "projectRelevance": string}}`)
	return b.String()
}

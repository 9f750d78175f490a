// Package imagesearch turns a product photo into a listing search: a vision
// model describes the item, the description is rendered as a query, and the
// query runs through the search engine.
package imagesearch

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/hyperjump/mazad/internal/expand"
)

const (
	// DefaultModel is used when no model name is configured.
	DefaultModel = "gemini-2.0-flash"

	// UnknownCategory is reported when the item cannot be classified.
	UnknownCategory = "أخرى"

	defaultTemperature = 0.7
)

var errNoAPIKey = errors.New("image analysis API key not configured")

// Analyzer extracts product attributes from a base64 encoded image.
type Analyzer interface {
	Analyze(ctx context.Context, imageBase64 string) (*expand.ProductAttributes, error)
}

// Models is the subset of *genai.Models the analyzer calls.
type Models interface {
	GenerateContent(
		ctx context.Context,
		model string,
		contents []*genai.Content,
		config *genai.GenerateContentConfig,
	) (*genai.GenerateContentResponse, error)
}

// Unknown returns the attributes reported for an unidentifiable image.
func Unknown() *expand.ProductAttributes {
	return &expand.ProductAttributes{
		ItemType: expand.UnknownItemType,
		Category: UnknownCategory,
		Keywords: []string{},
		Colors:   []string{},
	}
}

// GeminiAnalyzer asks a Gemini vision model to describe the item in an image.
// It never fails: every error degrades to Unknown and is logged.
type GeminiAnalyzer struct {
	models      Models
	model       string
	temperature float32
	logger      *zap.Logger
}

// Option configures a GeminiAnalyzer.
type Option func(*GeminiAnalyzer)

// WithModel sets the model name.
func WithModel(name string) Option {
	return func(a *GeminiAnalyzer) {
		if name != "" {
			a.model = name
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(a *GeminiAnalyzer) {
		if l != nil {
			a.logger = l
		}
	}
}

// WithModels replaces the Gemini client, mainly for tests.
func WithModels(m Models) Option {
	return func(a *GeminiAnalyzer) { a.models = m }
}

// NewGeminiAnalyzer creates an analyzer. An empty API key yields an analyzer
// that always reports Unknown.
func NewGeminiAnalyzer(ctx context.Context, apiKey string, opts ...Option) (*GeminiAnalyzer, error) {
	a := &GeminiAnalyzer{
		model:       DefaultModel,
		temperature: defaultTemperature,
		logger:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.models != nil || apiKey == "" {
		return a, nil
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}
	a.models = client.Models
	return a, nil
}

// Analyze describes the image. The returned error is always nil.
func (a *GeminiAnalyzer) Analyze(ctx context.Context, imageBase64 string) (*expand.ProductAttributes, error) {
	attrs, err := a.analyze(ctx, imageBase64)
	if err != nil {
		a.logger.Warn("image analysis failed", zap.Error(err))
		return Unknown(), nil
	}
	return attrs, nil
}

func (a *GeminiAnalyzer) analyze(ctx context.Context, imageBase64 string) (*expand.ProductAttributes, error) {
	if a.models == nil {
		return nil, errNoAPIKey
	}
	data, mimeType, err := DecodeImage(imageBase64)
	if err != nil {
		return nil, err
	}

	contents := []*genai.Content{
		genai.NewContentFromParts([]*genai.Part{
			genai.NewPartFromText(analysisPrompt),
			genai.NewPartFromBytes(data, mimeType),
		}, genai.RoleUser),
	}
	resp, err := a.models.GenerateContent(ctx, a.model, contents, &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		Temperature:      genai.Ptr(a.temperature),
	})
	if err != nil {
		return nil, fmt.Errorf("generate content: %w", err)
	}

	text := responseText(resp)
	if text == "" {
		return nil, errors.New("empty model response")
	}
	return ParseAttributes(text)
}

func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}
	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if part != nil {
			sb.WriteString(part.Text)
		}
	}
	return strings.TrimSpace(sb.String())
}

// ParseAttributes decodes a model JSON reply. Missing item type and category
// fall back to their unknown values; null lists become empty.
func ParseAttributes(text string) (*expand.ProductAttributes, error) {
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")

	var raw struct {
		Brand    *string  `json:"brand"`
		Model    *string  `json:"model"`
		ItemType string   `json:"itemType"`
		Category string   `json:"category"`
		Keywords []string `json:"keywords"`
		Colors   []string `json:"colors"`
		Material *string  `json:"material"`
	}
	if err := json.Unmarshal([]byte(strings.TrimSpace(text)), &raw); err != nil {
		return nil, fmt.Errorf("parse analysis: %w", err)
	}

	attrs := Unknown()
	attrs.Brand = deref(raw.Brand)
	attrs.Model = deref(raw.Model)
	attrs.Material = deref(raw.Material)
	if raw.ItemType != "" {
		attrs.ItemType = raw.ItemType
	}
	if raw.Category != "" {
		attrs.Category = raw.Category
	}
	if raw.Keywords != nil {
		attrs.Keywords = raw.Keywords
	}
	if raw.Colors != nil {
		attrs.Colors = raw.Colors
	}
	return attrs, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return strings.TrimSpace(*s)
}

// DecodeImage strips an optional data URL prefix, decodes the payload and
// returns it with its MIME type. The type comes from the data URL when given,
// otherwise it is sniffed from the leading bytes.
func DecodeImage(imageBase64 string) ([]byte, string, error) {
	payload := strings.TrimSpace(imageBase64)
	mimeType := ""
	if strings.HasPrefix(payload, "data:") {
		idx := strings.Index(payload, "base64,")
		if idx == -1 {
			return nil, "", errors.New("malformed data URL")
		}
		header := payload[len("data:"):idx]
		mimeType = strings.TrimSuffix(header, ";")
		payload = payload[idx+len("base64,"):]
	}
	if payload == "" {
		return nil, "", errors.New("empty image")
	}

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		data, err = base64.RawStdEncoding.DecodeString(payload)
		if err != nil {
			return nil, "", fmt.Errorf("decode image: %w", err)
		}
	}
	if mimeType == "" {
		mimeType = SniffMIME(data)
	}
	return data, mimeType, nil
}

// SniffMIME guesses an image type from its magic bytes, defaulting to JPEG.
func SniffMIME(data []byte) string {
	if len(data) >= 2 {
		switch {
		case data[0] == 0x89 && data[1] == 0x50:
			return "image/png"
		case data[0] == 0x47 && data[1] == 0x49:
			return "image/gif"
		case data[0] == 0x52 && data[1] == 0x49:
			return "image/webp"
		}
	}
	return "image/jpeg"
}

const analysisPrompt = `You are an expert product identifier for an Iraqi online marketplace selling watches, jewelry, phones, cars, electronics and collectibles. Analyze the product image with high accuracy for brand recognition.

Focus on identifying the BRAND first. Look for logos on the dial, case, band or body, distinctive case and crown design, typography, and well known designs (Submariner, Speedmaster, Royal Oak, iPhone, Galaxy).

Respond in JSON:
{
  "brand": "exact brand name if identifiable, null only if truly unrecognizable",
  "model": "specific model name if known, otherwise null",
  "itemType": "specific type (wristwatch, pocket watch, necklace, ring, phone, etc.)",
  "category": "ساعات for watches, مجوهرات for jewelry, إكسسوارات for accessories, هواتف for phones, سيارات for cars, إلكترونيات for electronics",
  "colors": ["primary color", "secondary colors"],
  "material": "gold, steel, leather, etc., or null",
  "keywords": ["brand-specific terms", "style descriptors", "Arabic terms"]
}

If you see any brand indicators, name the brand instead of returning null. Include the brand in English and Arabic transliteration in keywords.`

package categorize

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/shopspring/decimal"
	"google.golang.org/genai"
)

// Gemini classifies transactions with a text model constrained to Labels().
// Any failure, out-of-set answer, or Income label on an expense falls back to
// the keyword strategy, so the result is always a valid label.
type Gemini struct {
	client   *genai.Client
	model    string
	fallback Keyword
	logger   *slog.Logger
}

func NewGemini(ctx context.Context, apiKey, model string, logger *slog.Logger) (*Gemini, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:      apiKey,
		HTTPOptions: genai.HTTPOptions{APIVersion: "v1"},
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}
	return &Gemini{client: client, model: model, logger: logger}, nil
}

func (g *Gemini) Categorize(ctx context.Context, name, merchantName string, amount decimal.Decimal) string {
	prompt := buildPrompt(name, merchantName, amount)
	contents := []*genai.Content{
		{
			Role:  "user",
			Parts: []*genai.Part{{Text: prompt}},
		},
	}

	resp, err := g.client.Models.GenerateContent(ctx, g.model, contents, nil)
	if err != nil {
		g.logger.Warn("gemini categorization failed, using keyword fallback",
			slog.String("name", name), slog.String("error", err.Error()))
		return g.fallback.Categorize(ctx, name, merchantName, amount)
	}

	label := matchLabel(resp.Text())
	if label == "" {
		g.logger.Warn("gemini returned out-of-set label, using keyword fallback",
			slog.String("name", name), slog.String("raw", resp.Text()))
		return g.fallback.Categorize(ctx, name, merchantName, amount)
	}

	// An expense is never income, whatever the model thinks.
	if label == Income && amount.IsNegative() {
		return g.fallback.Categorize(ctx, name, merchantName, amount)
	}

	return label
}

func buildPrompt(name, merchantName string, amount decimal.Decimal) string {
	var b strings.Builder
	b.WriteString("Classify this bank transaction into exactly one of these categories:\n")
	for _, label := range Labels() {
		b.WriteString("- " + label + "\n")
	}
	b.WriteString("\nRespond with the category name only, no punctuation, no explanation.\n\n")
	b.WriteString("Transaction name: " + name + "\n")
	if merchantName != "" {
		b.WriteString("Merchant: " + merchantName + "\n")
	}
	b.WriteString("Amount: " + amount.String() + " (negative means money out)\n")
	return b.String()
}

// matchLabel maps a raw model response onto the closed label set, tolerating
// case differences, quotes, and stray whitespace. Empty means out-of-set.
func matchLabel(raw string) string {
	cleaned := strings.TrimSpace(raw)
	cleaned = strings.Trim(cleaned, "\"'`.")
	cleaned = strings.TrimSpace(cleaned)

	for _, label := range Labels() {
		if strings.EqualFold(cleaned, label) {
			return label
		}
	}
	return ""
}

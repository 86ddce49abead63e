package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"newssignal/backend-go/internal/config"
	"newssignal/backend-go/internal/models"
	"newssignal/backend-go/internal/upstream"
)

var ErrEmptySynthesis = errors.New("summarizer returned no narrative")

// SynthesisInput is the aggregated view handed to a Summarizer.
type SynthesisInput struct {
	Asset           string                 `json:"asset"`
	Hours           int                    `json:"hours"`
	Posture         string                 `json:"posture"`
	Sentiment       models.Sentiment       `json:"sentiment"`
	ImpactScore     int                    `json:"impactScore"`
	VolatilityScore int                    `json:"volatilityScore"`
	BiasScore       float64                `json:"biasScore"`
	Counts          models.SentimentCounts `json:"counts"`
	Headlines       []models.Article       `json:"headlines"`
}

type Synthesis struct {
	Briefing      string   `json:"briefing"`
	StrategyHints []string `json:"strategyHints"`
}

// Summarizer writes the narrative part of a briefing.
type Summarizer interface {
	Summarize(ctx context.Context, in SynthesisInput) (Synthesis, error)
}

// LLMSummarizer talks to an OpenAI-compatible chat completions endpoint.
type LLMSummarizer struct {
	endpoint string
	model    string
	client   *upstream.Client
}

func NewLLMSummarizer(cfg config.Config) *LLMSummarizer {
	return &LLMSummarizer{
		endpoint: cfg.LLMEndpoint,
		model:    cfg.LLMModel,
		client: upstream.NewClient(upstream.Options{
			Timeout:   cfg.RequestTimeout,
			FailLimit: cfg.CircuitFailLimit,
			Cooldown:  cfg.CircuitCooldown,
			Headers:   map[string]string{"Authorization": "Bearer " + cfg.LLMAPIKey},
		}),
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model          string            `json:"model"`
	Messages       []chatMessage     `json:"messages"`
	Temperature    float64           `json:"temperature"`
	ResponseFormat map[string]string `json:"response_format,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

const systemPrompt = `You are a crypto market news desk. Given aggregated news signals, write a short neutral briefing (3 sentences max) and up to 3 strategy hints. Reply with JSON: {"briefing": string, "strategyHints": [string]}. Do not give financial advice.`

func (s *LLMSummarizer) Summarize(ctx context.Context, in SynthesisInput) (Synthesis, error) {
	payload, err := json.Marshal(in)
	if err != nil {
		return Synthesis{}, err
	}
	req := chatRequest{
		Model: s.model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: string(payload)},
		},
		Temperature:    0.2,
		ResponseFormat: map[string]string{"type": "json_object"},
	}
	var res chatResponse
	if _, err := s.client.PostJSON(ctx, s.endpoint, req, &res); err != nil {
		return Synthesis{}, fmt.Errorf("summarize: %w", err)
	}
	if len(res.Choices) == 0 {
		return Synthesis{}, ErrEmptySynthesis
	}
	return parseSynthesis(res.Choices[0].Message.Content)
}

// parseSynthesis accepts a JSON object or, failing that, plain prose.
func parseSynthesis(content string) (Synthesis, error) {
	content = strings.TrimSpace(content)
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimSuffix(strings.TrimPrefix(content, "```"), "```")
	content = strings.TrimSpace(content)

	var out Synthesis
	if err := json.Unmarshal([]byte(content), &out); err != nil {
		out = Synthesis{Briefing: content}
	}
	out.Briefing = strings.TrimSpace(out.Briefing)
	if out.Briefing == "" {
		return Synthesis{}, ErrEmptySynthesis
	}
	hints := out.StrategyHints[:0]
	for _, h := range out.StrategyHints {
		if h = strings.TrimSpace(h); h != "" {
			hints = append(hints, h)
		}
	}
	out.StrategyHints = hints
	return out, nil
}

package services

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"newssignal/backend-go/internal/config"
	"newssignal/backend-go/internal/upstream"
)

func TestParseSynthesis(t *testing.T) {
	got, err := parseSynthesis("```json\n{\"briefing\":\" Risk-off tone. \",\"strategyHints\":[\"Hedge\",\" \"]}\n```")
	require.NoError(t, err)
	assert.Equal(t, "Risk-off tone.", got.Briefing)
	assert.Equal(t, []string{"Hedge"}, got.StrategyHints)

	got, err = parseSynthesis("Plain prose reply.")
	require.NoError(t, err)
	assert.Equal(t, "Plain prose reply.", got.Briefing)

	_, err = parseSynthesis(`{"briefing":""}`)
	assert.ErrorIs(t, err, ErrEmptySynthesis)
}

func TestLLMSummarizerRoundTrip(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		var req chatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "test-model", req.Model)
		require.Len(t, req.Messages, 2)
		assert.Contains(t, req.Messages[1].Content, `"asset":"BTC"`)

		_ = json.NewEncoder(w).Encode(map[string]any{
			"choices": []any{
				map[string]any{"message": map[string]string{
					"role":    "assistant",
					"content": `{"briefing":"BTC tape is heavy.","strategyHints":["Reduce leverage."]}`,
				}},
			},
		})
	}))
	defer srv.Close()

	s := NewLLMSummarizer(config.Config{
		LLMEndpoint:      srv.URL,
		LLMAPIKey:        "sk-test",
		LLMModel:         "test-model",
		RequestTimeout:   time.Second,
		CircuitFailLimit: 2,
		CircuitCooldown:  time.Minute,
	})
	got, err := s.Summarize(context.Background(), SynthesisInput{Asset: "BTC", Hours: 24})
	require.NoError(t, err)
	assert.Equal(t, "BTC tape is heavy.", got.Briefing)
	assert.Equal(t, []string{"Reduce leverage."}, got.StrategyHints)
}

func TestLLMSummarizerOpensCircuit(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	s := NewLLMSummarizer(config.Config{LLMEndpoint: srv.URL, RequestTimeout: time.Second, CircuitFailLimit: 1, CircuitCooldown: time.Minute})
	_, err := s.Summarize(context.Background(), SynthesisInput{})
	var ue *upstream.UpstreamError
	assert.ErrorAs(t, err, &ue)

	_, err = s.Summarize(context.Background(), SynthesisInput{})
	assert.ErrorIs(t, err, upstream.ErrCircuitOpen)
	assert.Equal(t, 1, calls)
}

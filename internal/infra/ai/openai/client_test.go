package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bryanwahyu/wifi-survey/internal/domain/advisor"
	"github.com/bryanwahyu/wifi-survey/internal/domain/environments"
	"github.com/bryanwahyu/wifi-survey/internal/domain/surveys"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	cfg := openai.DefaultConfig("test-key")
	cfg.BaseURL = srv.URL + "/v1"
	return NewClientWithConfig(cfg, "gpt-4o-mini")
}

func TestSuggest_DecodesAnswer(t *testing.T) {
	var got openai.ChatCompletionRequest
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(openai.ChatCompletionResponse{
			Model: "gpt-4o-mini-2024",
			Choices: []openai.ChatCompletionChoice{{
				Message: openai.ChatCompletionMessage{
					Role:    openai.ChatMessageRoleAssistant,
					Content: `{"summary":"ok","suggestions":[{"bssid":"AA:BB:CC:DD:EE:01","ssid":"Corp","reason":"open","confidence":"medium"}]}`,
				},
			}},
		})
	})

	recs := []*surveys.ScanRecord{{BSSID: "AA:BB:CC:DD:EE:01", SSID: "Corp"}}
	adv, err := c.Suggest(testContext(t), &environments.Environment{ID: 1, Name: "HQ"}, recs)
	require.NoError(t, err)
	assert.Equal(t, "gpt-4o-mini-2024", adv.Model)
	require.Len(t, adv.Suggestions, 1)
	assert.Equal(t, "medium", adv.Suggestions[0].Confidence)

	require.Len(t, got.Messages, 2)
	assert.Contains(t, got.Messages[1].Content, "Environment: HQ")
	assert.Equal(t, 2048, got.MaxTokens)
}

func TestSuggest_QuotaExceeded(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":{"message":"quota","type":"insufficient_quota"}}`))
	})

	_, err := c.Suggest(testContext(t), &environments.Environment{Name: "HQ"}, nil)
	assert.ErrorIs(t, err, advisor.ErrQuotaExceeded)
}

func TestIsReasoningModel(t *testing.T) {
	assert.True(t, isReasoningModel("o3-mini"))
	assert.True(t, isReasoningModel("gpt-5"))
	assert.False(t, isReasoningModel("gpt-4o"))
}

// testContext returns a context canceled when the test finishes.
func testContext(t *testing.T) context.Context {
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	return ctx
}

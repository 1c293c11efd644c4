package diagnosis

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const messageResponse = `{
	"id": "msg_01",
	"type": "message",
	"role": "assistant",
	"model": "claude-3-5-sonnet-20241022",
	"content": [%s],
	"stop_reason": "end_turn",
	"stop_sequence": null,
	"usage": {"input_tokens": 120, "output_tokens": 30}
}`

func newClaudeServer(t *testing.T, handler http.HandlerFunc) *httptest.Server {
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return srv
}

func newTestAnalyzer(t *testing.T, baseURL string, timeout time.Duration) Analyzer {
	a, err := NewClaudeAnalyzer(ClaudeConfig{
		APIKey:     "sk-test",
		Timeout:    timeout,
		MaxRetries: 0,
		BaseURL:    baseURL,
	}, zap.NewNop())
	require.NoError(t, err)
	return a
}

func TestClaudeAnalyzer_Analyze(t *testing.T) {
	srv := newClaudeServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasSuffix(r.URL.Path, "/v1/messages"), r.URL.Path)
		assert.Equal(t, "sk-test", r.Header.Get("X-Api-Key"))

		var body struct {
			Model     string `json:"model"`
			MaxTokens int    `json:"max_tokens"`
			System    []struct {
				Text string `json:"text"`
			} `json:"system"`
			Messages []struct {
				Role string `json:"role"`
			} `json:"messages"`
		}
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, DefaultClaudeModel, body.Model)
		assert.Equal(t, DefaultClaudeMaxTokens, body.MaxTokens)
		if assert.Len(t, body.System, 1) {
			assert.Equal(t, "instrução", body.System[0].Text)
		}
		if assert.Len(t, body.Messages, 1) {
			assert.Equal(t, "user", body.Messages[0].Role)
		}

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(strings.Replace(messageResponse, "%s", `{"type":"text","text":"{\"ips\":{}}"}`, 1)))
	})

	got, err := newTestAnalyzer(t, srv.URL, 5*time.Second).Analyze(context.Background(), "instrução", "mensagem")

	require.NoError(t, err)
	assert.Equal(t, `{"ips":{}}`, got)
}

func TestClaudeAnalyzer_KeepsOnlyTextBlocks(t *testing.T) {
	blocks := `{"type":"tool_use","id":"toolu_01","name":"consulta","input":{}},` +
		`{"type":"text","text":"{\"ips\":"},` +
		`{"type":"text","text":"{}}"}`
	srv := newClaudeServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(strings.Replace(messageResponse, "%s", blocks, 1)))
	})

	got, err := newTestAnalyzer(t, srv.URL, 5*time.Second).Analyze(context.Background(), "", "mensagem")

	require.NoError(t, err)
	assert.Equal(t, `{"ips":{}}`, got)
}

func TestClaudeAnalyzer_ErrorMapping(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   error
	}{
		{"unauthorized", http.StatusUnauthorized, `{"type":"error","error":{"type":"authentication_error","message":"invalid x-api-key"}}`, ErrAIUnauthorized},
		{"rate limited", http.StatusTooManyRequests, `{"type":"error","error":{"type":"rate_limit_error","message":"slow down"}}`, ErrAIRateLimited},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newClaudeServer(t, func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})

			_, err := newTestAnalyzer(t, srv.URL, 5*time.Second).Analyze(context.Background(), "", "mensagem")
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestClaudeAnalyzer_EmptyContent(t *testing.T) {
	srv := newClaudeServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(strings.Replace(messageResponse, "%s", "", 1)))
	})

	_, err := newTestAnalyzer(t, srv.URL, 5*time.Second).Analyze(context.Background(), "", "mensagem")
	assert.ErrorIs(t, err, ErrAIEmptyResponse)
}

func TestClaudeAnalyzer_Timeout(t *testing.T) {
	srv := newClaudeServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.Copy(io.Discard, r.Body)
		<-r.Context().Done()
	})

	_, err := newTestAnalyzer(t, srv.URL, 50*time.Millisecond).Analyze(context.Background(), "", "mensagem")
	assert.ErrorIs(t, err, ErrAITimeout)
}

func TestNewClaudeAnalyzer_RequiresKey(t *testing.T) {
	_, err := NewClaudeAnalyzer(ClaudeConfig{}, nil)
	assert.ErrorIs(t, err, ErrAINotConfigured)
}

func TestNewGeminiTranscriber_RequiresKey(t *testing.T) {
	_, err := NewGeminiTranscriber(context.Background(), GeminiConfig{APIKey: " "}, nil)
	assert.ErrorIs(t, err, ErrAINotConfigured)
}

func TestNormalizeAudioMIME(t *testing.T) {
	assert.Equal(t, "audio/webm", normalizeAudioMIME(""))
	assert.Equal(t, "audio/webm", normalizeAudioMIME("audio/webm;codecs=opus"))
	assert.Equal(t, "audio/mpeg", normalizeAudioMIME("Audio/MPEG"))
	assert.Equal(t, "audio/webm", normalizeAudioMIME("application/octet-stream"))
}

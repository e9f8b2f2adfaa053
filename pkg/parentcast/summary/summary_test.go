package summary_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/parentcast/parentcast/pkg/parentcast"
	"github.com/parentcast/parentcast/pkg/parentcast/summary"
)

// completionStub serves an OpenAI-compatible chat completion whose message
// content is the given string.
func completionStub(t *testing.T, content string, calls *int32) *httptest.Server {
	t.Helper()

	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(calls, 1)
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var req map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, 0.2, req["temperature"])
		assert.Equal(t, float64(400), req["max_tokens"])

		resp := map[string]any{
			"choices": []map[string]any{
				{"message": map[string]any{"content": content}},
			},
		}
		w.Header().Set("Content-Type", "application/json")
		require.NoError(t, json.NewEncoder(w).Encode(resp))
	}))
}

func TestGenerateRejectsShortTranscriptBeforeCalling(t *testing.T) {
	var calls int32
	srv := completionStub(t, "{}", &calls)
	defer srv.Close()

	client := summary.NewClient(summary.Config{BaseURL: srv.URL, APIKey: "test-key"})

	_, err := client.Generate(context.Background(), "  short  ")
	require.Error(t, err)
	assert.ErrorIs(t, err, parentcast.ErrValidationFailed)
	assert.Zero(t, atomic.LoadInt32(&calls))
}

func TestGenerateMockMode(t *testing.T) {
	client := summary.NewClient(summary.Config{Mock: true})
	assert.True(t, client.Configured())

	got, err := client.Generate(context.Background(), "a transcript long enough to pass validation")
	require.NoError(t, err)
	assert.NotEmpty(t, got.Good)
	assert.NotEmpty(t, got.Bad)
	assert.NotEmpty(t, got.Ugly)
	assert.NotEmpty(t, got.Lesson)
}

func TestGenerateWithoutKeyFails(t *testing.T) {
	client := summary.NewClient(summary.Config{})
	assert.False(t, client.Configured())

	_, err := client.Generate(context.Background(), "a transcript long enough to pass validation")
	require.Error(t, err)
	assert.ErrorIs(t, err, parentcast.ErrSummaryUnavailable)
}

func TestGenerateParsesModelJSON(t *testing.T) {
	var calls int32
	content := `{"good":"g","bad":"b","ugly":"u","lesson":"l"}`
	srv := completionStub(t, content, &calls)
	defer srv.Close()

	client := summary.NewClient(summary.Config{BaseURL: srv.URL, APIKey: "test-key"})

	got, err := client.Generate(context.Background(), "we talked about the school play after dinner")
	require.NoError(t, err)
	assert.Equal(t, &parentcast.Summary{Good: "g", Bad: "b", Ugly: "u", Lesson: "l"}, got)
	assert.EqualValues(t, 1, atomic.LoadInt32(&calls))
}

func TestGenerateFallsBackOnMalformedJSON(t *testing.T) {
	var calls int32
	srv := completionStub(t, "Sure! Here is your summary: good stuff", &calls)
	defer srv.Close()

	client := summary.NewClient(summary.Config{BaseURL: srv.URL, APIKey: "test-key"})

	got, err := client.Generate(context.Background(), "we talked about the school play after dinner")
	require.NoError(t, err)
	assert.NotEmpty(t, got.Good)
	assert.NotEmpty(t, got.Lesson)
}

func TestGenerateUpstreamErrorIsUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	client := summary.NewClient(summary.Config{BaseURL: srv.URL, APIKey: "test-key"})

	_, err := client.Generate(context.Background(), "we talked about the school play after dinner")
	require.Error(t, err)
	assert.ErrorIs(t, err, parentcast.ErrSummaryUnavailable)
}

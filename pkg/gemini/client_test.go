package gemini

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateContent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/models/gemini-2.0-flash:generateContent", r.URL.Path)
		assert.Equal(t, "g-key", r.Header.Get("x-goog-api-key"))

		var req generateContentRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Len(t, req.Contents, 1)
		assert.Equal(t, "ping", req.Contents[0].Parts[0].Text)

		json.NewEncoder(w).Encode(GenerateContentResponse{
			Candidates: []Candidate{
				{Content: Content{Parts: []Part{{Text: "po"}, {Text: "ng"}}}},
			},
			UsageMetadata: UsageMetadata{PromptTokenCount: 2, CandidatesTokenCount: 1},
		})
	}))
	defer srv.Close()

	c := NewClient("g-key", WithBaseURL(srv.URL))
	resp, err := c.GenerateContent(context.Background(), "ping")
	require.NoError(t, err)
	assert.Equal(t, "pong", resp.Text())
	assert.Equal(t, int64(2), resp.UsageMetadata.PromptTokenCount)
}

func TestGenerateContentErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"message":"API key not valid"}}`, http.StatusBadRequest)
	}))
	defer srv.Close()

	c := NewClient("bad", WithBaseURL(srv.URL))
	_, err := c.GenerateContent(context.Background(), "ping")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unexpected status 400")
}

func TestTextEmptyCandidates(t *testing.T) {
	resp := &GenerateContentResponse{}
	assert.Equal(t, "", resp.Text())
}

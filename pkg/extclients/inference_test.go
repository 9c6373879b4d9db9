package extclients

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInferenceClient_InferReturnsVerdict(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req inferenceRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "small", req.Model)

		_ = json.NewEncoder(w).Encode(InferenceVerdict{
			DocKind:    "invoice",
			Fields:     map[string]string{"amount": "100"},
			Confidence: 0.7,
		})
	}))
	defer server.Close()

	client := NewInferenceClient(server.URL, "tok", time.Second)
	verdict, err := client.Infer(context.Background(), "small", "classify this")
	require.NoError(t, err)
	assert.Equal(t, "invoice", verdict.DocKind)
	assert.Equal(t, 0.7, verdict.Confidence)
}

func TestInferenceClient_ClientErrorIsTerminal(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer server.Close()

	client := NewInferenceClient(server.URL, "tok", time.Second)
	_, err := client.Infer(context.Background(), "small", "classify this")
	require.Error(t, err)
	assert.True(t, IsClientError(err))
	assert.False(t, IsServerError(err))
}

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

func TestOCRClient_ExtractReturnsResult(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		assert.Equal(t, "/extract", r.URL.Path)
		_ = json.NewEncoder(w).Encode(OCRResult{Text: "hello", Confidence: 0.9, Language: "en"})
	}))
	defer server.Close()

	client := NewOCRClient(server.URL, "tok", time.Second)
	result, err := client.Extract(context.Background(), []byte("blob"), "application/pdf", 10)
	require.NoError(t, err)
	assert.Equal(t, "hello", result.Text)
	assert.Equal(t, 0.9, result.Confidence)
}

func TestOCRClient_ServerErrorIsReported(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	client := NewOCRClient(server.URL, "tok", time.Second)
	_, err := client.Extract(context.Background(), []byte("blob"), "application/pdf", 0)
	require.Error(t, err)
	assert.True(t, IsServerError(err))
}

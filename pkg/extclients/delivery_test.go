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

func TestDeliveryClient_FindByHashReturnsNotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "abc123", r.URL.Query().Get("hash"))
		_ = json.NewEncoder(w).Encode([]RemoteDocument{})
	}))
	defer server.Close()

	client := NewDeliveryClient(server.URL, "tok", time.Second)
	doc, found, err := client.FindByHash(context.Background(), "abc123")
	require.NoError(t, err)
	assert.False(t, found)
	assert.Nil(t, doc)
}

func TestDeliveryClient_FindByHashReturnsExisting(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode([]RemoteDocument{{ID: "doc-1", Hash: "abc123"}})
	}))
	defer server.Close()

	client := NewDeliveryClient(server.URL, "tok", time.Second)
	doc, found, err := client.FindByHash(context.Background(), "abc123")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "doc-1", doc.ID)
}

func TestDeliveryClient_UploadSucceeds(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/documents", r.URL.Path)
		require.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Equal(t, "application/pdf", r.FormValue("mime_type"))
		_ = json.NewEncoder(w).Encode(map[string]string{"id": "doc-new"})
	}))
	defer server.Close()

	client := NewDeliveryClient(server.URL, "tok", time.Second)
	id, duplicate, err := client.Upload(context.Background(), "invoice.pdf", "application/pdf", []byte("%PDF-1.4"))
	require.NoError(t, err)
	assert.False(t, duplicate)
	assert.Equal(t, "doc-new", id)
}

func TestDeliveryClient_UploadConflictIsDuplicate(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
	}))
	defer server.Close()

	client := NewDeliveryClient(server.URL, "tok", time.Second)
	_, duplicate, err := client.Upload(context.Background(), "invoice.pdf", "application/pdf", []byte("%PDF-1.4"))
	require.NoError(t, err)
	assert.True(t, duplicate)
}

func TestDeliveryClient_PatchFieldsSendsPayload(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPatch, r.Method)
		assert.Equal(t, "/documents/doc-1", r.URL.Path)
		var body map[string]map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "100", body["fields"]["amount"])
	}))
	defer server.Close()

	client := NewDeliveryClient(server.URL, "tok", time.Second)
	err := client.PatchFields(context.Background(), "doc-1", map[string]string{"amount": "100"})
	require.NoError(t, err)
}

func TestDeliveryClient_ResolveCorrespondentReusesExisting(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		_ = json.NewEncoder(w).Encode([]RemoteCorrespondent{{ID: "corr-1", Name: "Aukro"}})
	}))
	defer server.Close()

	client := NewDeliveryClient(server.URL, "tok", time.Second)
	corr, err := client.ResolveCorrespondent(context.Background(), "Aukro")
	require.NoError(t, err)
	assert.Equal(t, "corr-1", corr.ID)
	assert.Equal(t, 1, calls, "must not POST when GET already found a match")
}

func TestDeliveryClient_ResolveCorrespondentCreatesWhenAbsent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			_ = json.NewEncoder(w).Encode([]RemoteCorrespondent{})
			return
		}
		_ = json.NewEncoder(w).Encode(RemoteCorrespondent{ID: "corr-new", Name: "Aukro"})
	}))
	defer server.Close()

	client := NewDeliveryClient(server.URL, "tok", time.Second)
	corr, err := client.ResolveCorrespondent(context.Background(), "Aukro")
	require.NoError(t, err)
	assert.Equal(t, "corr-new", corr.ID)
}

func TestDeliveryClient_DeleteCorrespondent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		assert.Equal(t, "/correspondents/corr-1", r.URL.Path)
	}))
	defer server.Close()

	client := NewDeliveryClient(server.URL, "tok", time.Second)
	err := client.DeleteCorrespondent(context.Background(), "corr-1")
	require.NoError(t, err)
}

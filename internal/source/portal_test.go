package source

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RishiKendai/overlap/internal/models"
)

func newPortal(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/api/assignments/hw1/submissions", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("x-api-key") != "secret" {
			w.WriteHeader(http.StatusUnauthorized)
			_ = json.NewEncoder(w).Encode(PortalError{Error: "unauthorized", Details: "bad key"})
			return
		}
		_ = json.NewEncoder(w).Encode([]models.Submission{
			{ID: "s1", StudentName: "Ada"},
			{ID: "s2", StudentName: "Grace", Content: "inline content"},
			{ID: "s3", StudentName: "Linus"},
		})
	})
	mux.HandleFunc("/api/submissions/s1/content", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("downloaded essay"))
	})
	mux.HandleFunc("/api/submissions/big/content", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(bytes.Repeat([]byte("word "), maxContentBytes/5+100))
	})
	mux.HandleFunc("/api/submissions/s3/content", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestPortalClient_Documents(t *testing.T) {
	srv := newPortal(t)

	docs, err := NewPortalClient(srv.URL, "secret").Documents(context.Background(), "hw1")
	require.NoError(t, err)

	require.Len(t, docs, 3)
	assert.Equal(t, "s1", docs[0].ID)
	assert.Equal(t, "downloaded essay", docs[0].RawText)
	assert.Equal(t, "inline content", docs[1].RawText)
	assert.Equal(t, "Linus", docs[2].OwnerName)
	assert.True(t, errors.Is(docs[2].LoadErr, models.ErrInputUnavailable))
}

func TestPortalClient_ErrorResponse(t *testing.T) {
	srv := newPortal(t)

	_, err := NewPortalClient(srv.URL, "wrong").ListSubmissions(context.Background(), "hw1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unauthorized")
}

func TestPortalClient_NotFound(t *testing.T) {
	srv := newPortal(t)

	_, err := NewPortalClient(srv.URL, "secret").ListSubmissions(context.Background(), "unknown")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestPortalClient_OversizedContent(t *testing.T) {
	srv := newPortal(t)

	_, err := NewPortalClient(srv.URL, "secret").FetchContent(context.Background(), "big")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrContentTooLarge))
}

func TestPortalClient_OversizedDocumentSkipped(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/assignments/hw2/submissions", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode([]models.Submission{{ID: "big", StudentName: "Ada"}})
	})
	mux.HandleFunc("/api/submissions/big/content", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(bytes.Repeat([]byte("x"), maxContentBytes+1))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	docs, err := NewPortalClient(srv.URL, "").Documents(context.Background(), "hw2")
	require.NoError(t, err)

	require.Len(t, docs, 1)
	assert.True(t, errors.Is(docs[0].LoadErr, models.ErrInputUnavailable))
	assert.Empty(t, docs[0].RawText)
}

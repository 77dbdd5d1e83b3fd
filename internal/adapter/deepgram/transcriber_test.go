package deepgram

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTranscribe(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/listen", r.URL.Path)
		assert.Equal(t, "nova-2", r.URL.Query().Get("model"))
		assert.Equal(t, "true", r.URL.Query().Get("smart_format"))
		assert.Equal(t, "en", r.URL.Query().Get("language"))
		assert.Equal(t, "Token dg-key", r.Header.Get("Authorization"))
		assert.Equal(t, "audio/webm", r.Header.Get("Content-Type"))

		body, _ := io.ReadAll(r.Body)
		assert.Equal(t, "audio-bytes", string(body))

		_, _ = w.Write([]byte(`{"results":{"channels":[{"alternatives":[{"transcript":"  delay order 5 by two hours ","confidence":0.98}]}]}}`))
	}))
	defer srv.Close()

	tr := NewTranscriber("dg-key", "", "", srv.URL, time.Second)
	text, err := tr.Transcribe(context.Background(), []byte("audio-bytes"), "audio/webm")
	require.NoError(t, err)
	assert.Equal(t, "delay order 5 by two hours", text)
}

func TestTranscribeDefaultsMimetype(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "audio/wav", r.Header.Get("Content-Type"))
		_, _ = w.Write([]byte(`{"results":{"channels":[{"alternatives":[{"transcript":""}]}]}}`))
	}))
	defer srv.Close()

	text, err := NewTranscriber("k", "", "", srv.URL, 0).Transcribe(context.Background(), []byte("x"), "")
	require.NoError(t, err)
	assert.Empty(t, text)
}

func TestTranscribeErrors(t *testing.T) {
	_, err := NewTranscriber("", "", "", "http://unused", time.Second).Transcribe(context.Background(), []byte("x"), "")
	assert.ErrorIs(t, err, ErrMissingCredentials)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(strings.Repeat("e", 2000)))
	}))
	defer srv.Close()

	_, err = NewTranscriber("bad", "", "", srv.URL, time.Second).Transcribe(context.Background(), []byte("x"), "")
	var upstream *UpstreamError
	require.True(t, errors.As(err, &upstream))
	assert.Equal(t, http.StatusUnauthorized, upstream.StatusCode)
	assert.Len(t, upstream.Body, maxErrorBody)
}

func TestTranscribeNoTranscript(t *testing.T) {
	for _, body := range []string{`{}`, `{"results":{"channels":[]}}`, `{"results":{"channels":[{"alternatives":[]}]}}`} {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(body))
		}))

		_, err := NewTranscriber("k", "", "", srv.URL, time.Second).Transcribe(context.Background(), []byte("x"), "")
		assert.ErrorIs(t, err, ErrNoTranscript, body)
		srv.Close()
	}
}

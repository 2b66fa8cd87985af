package transcribe

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ternarybob/loquor/internal/common"
	"github.com/ternarybob/loquor/internal/httpclient"
)

func TestTranscribe_Placeholder(t *testing.T) {
	svc := NewService(&common.STTConfig{}, true, httpclient.New(time.Second), common.GetLogger())

	payload, err := svc.Transcribe(context.Background(), []byte("RIFF"), "greeting.wav")
	require.NoError(t, err)
	assert.Equal(t, "STT not configured. Received file: greeting.wav", payload.Text)
	assert.Equal(t, "placeholder", payload.Source)
	assert.Nil(t, payload.Raw)
	assert.False(t, svc.IsConfigured())
}

func TestTranscribe_Backend(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/speech-to-text", r.URL.Path)
		assert.Equal(t, "test-key", r.Header.Get("xi-api-key"))
		require.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Equal(t, "scribe_v1", r.FormValue("model_id"))
		w.Write([]byte(`{"text":" hello there "}`))
	}))
	defer srv.Close()

	svc := NewService(&common.STTConfig{
		BaseURL: srv.URL,
		APIKey:  "test-key",
		Model:   "scribe_v1",
	}, true, httpclient.New(5*time.Second), common.GetLogger())

	payload, err := svc.Transcribe(context.Background(), []byte("RIFFdata"), "clip.wav")
	require.NoError(t, err)
	assert.Equal(t, "hello there", payload.Text)
	assert.Equal(t, "stt", payload.Source)
	// The raw provider response travels with the payload
	assert.JSONEq(t, `{"text":" hello there "}`, string(payload.Raw))
}

func TestTranscribe_EmptyStrict(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"text":"  "}`))
	}))
	defer srv.Close()

	svc := NewService(&common.STTConfig{BaseURL: srv.URL}, true, httpclient.New(5*time.Second), common.GetLogger())

	_, err := svc.Transcribe(context.Background(), []byte("RIFFdata"), "clip.wav")
	assert.True(t, errors.Is(err, common.ErrEmptyTranscript))
}

func TestTranscribe_EmptyLenient(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"text":""}`))
	}))
	defer srv.Close()

	svc := NewService(&common.STTConfig{BaseURL: srv.URL}, false, httpclient.New(5*time.Second), common.GetLogger())

	payload, err := svc.Transcribe(context.Background(), []byte("RIFFdata"), "clip.wav")
	require.NoError(t, err)
	assert.Equal(t, EmptyTranscriptText, payload.Text)
	assert.Equal(t, "stt", payload.Source)
}

func TestTranscribe_BackendError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	svc := NewService(&common.STTConfig{BaseURL: srv.URL}, true, httpclient.New(5*time.Second), common.GetLogger())

	_, err := svc.Transcribe(context.Background(), []byte("RIFFdata"), "clip.wav")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "stt request failed")
}

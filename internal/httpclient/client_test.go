package httpclient

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPostJSON_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	client := New(5 * time.Second)
	body, err := client.PostJSON(context.Background(), srv.URL, map[string]string{"Authorization": "Bearer secret"}, map[string]string{"q": "hi"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"ok":true}`, string(body))
}

func TestPostJSON_RetriesOn5xx(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Write([]byte("recovered"))
	}))
	defer srv.Close()

	client := New(5 * time.Second)
	body, err := client.PostJSON(context.Background(), srv.URL, nil, map[string]string{})
	require.NoError(t, err)
	assert.Equal(t, "recovered", string(body))
	assert.Equal(t, int32(2), calls.Load())
}

func TestPostJSON_NoRetryOn4xx(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte("bad request"))
	}))
	defer srv.Close()

	client := New(5 * time.Second)
	_, err := client.PostJSON(context.Background(), srv.URL, nil, map[string]string{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 400")
	assert.Equal(t, int32(1), calls.Load())
}

func TestPostJSON_ExhaustsRetries(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	client := New(5 * time.Second)
	_, err := client.PostJSON(context.Background(), srv.URL, nil, map[string]string{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "after 2 attempts")
	assert.Equal(t, int32(2), calls.Load())
}

func TestPostMultipartFile(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Equal(t, "scribe_v1", r.FormValue("model_id"))

		file, header, err := r.FormFile("file")
		require.NoError(t, err)
		defer file.Close()
		assert.Equal(t, "clip.wav", header.Filename)
		w.Write([]byte(`{"text":"hello"}`))
	}))
	defer srv.Close()

	client := New(5 * time.Second)
	body, err := client.PostMultipartFile(context.Background(), srv.URL, nil, "file", "clip.wav", []byte("RIFFdata"), map[string]string{"model_id": "scribe_v1"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"text":"hello"}`, string(body))
}

func TestGetBytes(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte{0x01, 0x02})
	}))
	defer srv.Close()

	client := New(5 * time.Second)
	body, err := client.GetBytes(context.Background(), srv.URL, nil)
	require.NoError(t, err)
	assert.Equal(t, []byte{0x01, 0x02}, body)
}

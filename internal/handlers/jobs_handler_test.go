package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ternarybob/loquor/internal/models"
	"github.com/ternarybob/loquor/internal/services/synthesize"
)

// submitJob posts a voice job and waits for it to reach a terminal status
func submitJob(t *testing.T, env *testEnv) string {
	t.Helper()

	body, contentType := multipartWAV(t, map[string]string{
		"mode":       "offline",
		"user_id":    "u1",
		"session_id": "s1",
	}, "clip.wav", synthesize.SilentWAV(100))
	req := httptest.NewRequest(http.MethodPost, "/api/voice", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	env.jobs.SubmitVoiceHandler(rec, req)
	require.Equal(t, http.StatusAccepted, rec.Code)

	var resp map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	jobID := resp["job_id"]
	require.NotEmpty(t, jobID)

	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		job, err := env.store.GetJob(jobID)
		require.NoError(t, err)
		if job.Status.IsTerminal() {
			return jobID
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatal("job did not finish in time")
	return ""
}

func TestSubmitVoice_Async(t *testing.T) {
	env := newTestEnv(t, []models.Passage{{"text": "a snippet", "source": "doc.md"}})

	jobID := submitJob(t, env)

	job, err := env.store.GetJob(jobID)
	require.NoError(t, err)
	assert.Equal(t, models.JobStatusCompleted, job.Status)

	// Status endpoint
	rec := httptest.NewRecorder()
	env.jobs.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/jobs/"+jobID, nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"completed"`)

	// Audio endpoint
	rec = httptest.NewRecorder()
	env.jobs.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/jobs/"+jobID+"/audio", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, synthesize.IsWAV(rec.Body.Bytes()))

	// Meta endpoint carries submission metadata and timings
	rec = httptest.NewRecorder()
	env.jobs.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/jobs/"+jobID+"/meta", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var meta map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &meta))
	assert.Equal(t, jobID, meta["job_id"])
	assert.Equal(t, "u1", meta["user_id"])
	assert.Equal(t, "s1", meta["session_id"])
	assert.Contains(t, meta, "timings")
}

func TestSubmitVoice_RejectsNonWAV(t *testing.T) {
	env := newTestEnv(t, nil)

	body, contentType := multipartWAV(t, nil, "clip.mp3", []byte("not a wav"))
	req := httptest.NewRequest(http.MethodPost, "/api/voice", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	env.jobs.SubmitVoiceHandler(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestJobEvents_TerminalJobEmitsOnce(t *testing.T) {
	env := newTestEnv(t, nil)

	jobID := submitJob(t, env)

	rec := httptest.NewRecorder()
	env.jobs.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/jobs/"+jobID+"/events", nil))

	assert.Equal(t, "text/event-stream", rec.Header().Get("Content-Type"))
	events := strings.Split(strings.TrimSpace(rec.Body.String()), "\n\n")
	require.Len(t, events, 1, "terminal status should emit exactly one event and stop")
	assert.Equal(t, "data: completed", events[0])
}

func TestJobEvents_UnknownJob(t *testing.T) {
	env := newTestEnv(t, nil)

	rec := httptest.NewRecorder()
	env.jobs.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/jobs/missing/events", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

package artifacts

import (
	"errors"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ternarybob/loquor/internal/common"
	"github.com/ternarybob/loquor/internal/models"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewStore(t.TempDir(), common.GetLogger())
	require.NoError(t, err)
	return store
}

func TestCreateJob(t *testing.T) {
	store := newTestStore(t)

	job, err := store.CreateJob("voice")
	require.NoError(t, err)

	assert.Len(t, job.ID, 32)
	assert.Equal(t, models.JobStatusQueued, job.Status)
	assert.True(t, store.JobExists(job.ID))

	// job.json carries the job id and the source field
	loaded, err := store.GetJob(job.ID)
	require.NoError(t, err)
	assert.Equal(t, job.ID, loaded.ID)
	assert.Equal(t, models.JobStatusQueued, loaded.Status)
	assert.Equal(t, "voice", loaded.Extra["source"])
}

func TestJobExists(t *testing.T) {
	store := newTestStore(t)

	assert.False(t, store.JobExists("nope"))
	assert.False(t, store.JobExists(""))

	job, err := store.CreateJob("text")
	require.NoError(t, err)
	assert.True(t, store.JobExists(job.ID))
}

func TestGetJob_NotFound(t *testing.T) {
	store := newTestStore(t)

	_, err := store.GetJob("missing")
	assert.True(t, errors.Is(err, common.ErrJobNotFound))
}

func TestUpdateJob_MergesFields(t *testing.T) {
	store := newTestStore(t)

	job, err := store.CreateJob("voice")
	require.NoError(t, err)

	err = store.UpdateJob(job.ID, map[string]any{
		"status":         "processing",
		"filename":       "clip.wav",
		"transcript_len": 42,
	})
	require.NoError(t, err)

	loaded, err := store.GetJob(job.ID)
	require.NoError(t, err)
	assert.Equal(t, models.JobStatusProcessing, loaded.Status)
	assert.Equal(t, "clip.wav", loaded.Extra["filename"])
	assert.Equal(t, float64(42), loaded.Extra["transcript_len"])
	assert.Equal(t, "voice", loaded.Extra["source"])
	assert.False(t, loaded.UpdatedAt.Before(loaded.CreatedAt))

	// job_id cannot be clobbered
	err = store.UpdateJob(job.ID, map[string]any{"job_id": "evil"})
	require.NoError(t, err)
	loaded, err = store.GetJob(job.ID)
	require.NoError(t, err)
	assert.Equal(t, job.ID, loaded.ID)
}

func TestSaveAndReadRoundTrip(t *testing.T) {
	store := newTestStore(t)

	job, err := store.CreateJob("voice")
	require.NoError(t, err)

	path, err := store.SaveBytes(job.ID, models.ArtifactInputAudio, []byte("RIFFxxxxWAVE"))
	require.NoError(t, err)
	assert.FileExists(t, path)

	audio, err := store.ReadBytes(job.ID, models.ArtifactInputAudio)
	require.NoError(t, err)
	assert.Equal(t, []byte("RIFFxxxxWAVE"), audio)

	_, err = store.SaveJSON(job.ID, models.ArtifactTranscript, models.TranscriptPayload{Text: "hello", Source: "stt"})
	require.NoError(t, err)

	var transcript models.TranscriptPayload
	require.NoError(t, store.ReadJSON(job.ID, models.ArtifactTranscript, &transcript))
	assert.Equal(t, "hello", transcript.Text)
	assert.Equal(t, "stt", transcript.Source)
}

func TestAppendLog(t *testing.T) {
	store := newTestStore(t)

	job, err := store.CreateJob("text")
	require.NoError(t, err)

	require.NoError(t, store.AppendLog(job.ID, "pipeline started"))
	require.NoError(t, store.AppendLog(job.ID, "pipeline completed"))

	content, err := store.ReadText(job.ID, models.ArtifactRunLog)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(content), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], "pipeline started")
	assert.Contains(t, lines[1], "pipeline completed")
}

func TestListAndDeleteJobs(t *testing.T) {
	store := newTestStore(t)

	a, err := store.CreateJob("voice")
	require.NoError(t, err)
	b, err := store.CreateJob("text")
	require.NoError(t, err)

	// Stray non-job directory is ignored
	require.NoError(t, os.MkdirAll(store.JobDir("not-a-job"), 0755))

	ids, err := store.ListJobIDs()
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{a.ID, b.ID}, ids)

	require.NoError(t, store.DeleteJob(a.ID))
	assert.False(t, store.JobExists(a.ID))
	assert.True(t, store.JobExists(b.ID))

	err = store.DeleteJob(a.ID)
	assert.True(t, errors.Is(err, common.ErrJobNotFound))
}

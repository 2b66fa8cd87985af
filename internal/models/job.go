package models

import (
	"encoding/json"
	"time"
)

// JobStatus represents the lifecycle state of a pipeline job
type JobStatus string

const (
	JobStatusQueued     JobStatus = "queued"
	JobStatusProcessing JobStatus = "processing"
	JobStatusCompleted  JobStatus = "completed"
	JobStatusFailed     JobStatus = "failed"
)

// IsTerminal returns true when the job will not change state again
func (s JobStatus) IsTerminal() bool {
	return s == JobStatusCompleted || s == JobStatusFailed
}

// Job is the per-job metadata record persisted as job.json in the job's
// artifact directory. Extra holds merged fields written by pipeline stages
// (source, filename, transcript_len, error, ...) so callers see everything
// the stages recorded without the record type chasing every key.
type Job struct {
	ID        string         `json:"job_id"`
	Status    JobStatus      `json:"status"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	Extra     map[string]any `json:"-"`
}

// MarshalJSON flattens Extra alongside the fixed fields
func (j Job) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(j.Extra)+4)
	for k, v := range j.Extra {
		out[k] = v
	}
	out["job_id"] = j.ID
	out["status"] = j.Status
	out["created_at"] = j.CreatedAt.UTC().Format(time.RFC3339Nano)
	out["updated_at"] = j.UpdatedAt.UTC().Format(time.RFC3339Nano)
	return json.Marshal(out)
}

// UnmarshalJSON restores the fixed fields and keeps everything else in Extra
func (j *Job) UnmarshalJSON(data []byte) error {
	raw := map[string]any{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if id, ok := raw["job_id"].(string); ok {
		j.ID = id
	}
	if status, ok := raw["status"].(string); ok {
		j.Status = JobStatus(status)
	}
	if ts, ok := raw["created_at"].(string); ok {
		if t, err := time.Parse(time.RFC3339Nano, ts); err == nil {
			j.CreatedAt = t
		}
	}
	if ts, ok := raw["updated_at"].(string); ok {
		if t, err := time.Parse(time.RFC3339Nano, ts); err == nil {
			j.UpdatedAt = t
		}
	}
	delete(raw, "job_id")
	delete(raw, "status")
	delete(raw, "created_at")
	delete(raw, "updated_at")
	if len(raw) > 0 {
		j.Extra = raw
	}
	return nil
}

// Artifact file names within a job directory.
const (
	ArtifactJobMeta    = "job.json"
	ArtifactInputAudio = "input.wav"
	ArtifactTranscript = "transcript.json"
	ArtifactKB         = "kb.json"
	ArtifactResponse   = "response.json"
	ArtifactOutput     = "output.wav"
	ArtifactTimings    = "timings.json"
	ArtifactRunLog     = "run.log"
)

package artifacts

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/loquor/internal/common"
	"github.com/ternarybob/loquor/internal/interfaces"
	"github.com/ternarybob/loquor/internal/models"
)

// Store persists per-job artifacts as plain files under a root directory.
// Each job owns one directory named by its ID; job.json inside it is the
// metadata record. Writes within a job are serialized so concurrent stage
// updates cannot interleave a job.json read-modify-write.
type Store struct {
	root   string
	logger arbor.ILogger
	mu     sync.Mutex
}

// NewStore creates the root directory if needed and returns the store
func NewStore(root string, logger arbor.ILogger) (*Store, error) {
	if root == "" {
		return nil, fmt.Errorf("artifact store root directory is required")
	}
	if err := os.MkdirAll(root, 0755); err != nil {
		return nil, fmt.Errorf("failed to create artifact root %s: %w", root, err)
	}
	return &Store{root: root, logger: logger}, nil
}

// CreateJob allocates a job ID, creates its directory and writes the initial
// job.json with status queued. source records how the job arrived
// ("voice" or "text").
func (s *Store) CreateJob(source string) (*models.Job, error) {
	now := time.Now().UTC()
	job := &models.Job{
		ID:        common.NewJobID(),
		Status:    models.JobStatusQueued,
		CreatedAt: now,
		UpdatedAt: now,
		Extra:     map[string]any{"source": source},
	}

	dir := s.JobDir(job.ID)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create job directory: %w", err)
	}

	if _, err := s.SaveJSON(job.ID, models.ArtifactJobMeta, job); err != nil {
		return nil, err
	}

	s.logger.Debug().Str("job_id", job.ID).Str("source", source).Msg("Created job")
	return job, nil
}

// GetJob reads job.json for the given ID
func (s *Store) GetJob(jobID string) (*models.Job, error) {
	if !s.JobExists(jobID) {
		return nil, common.ErrJobNotFound
	}

	var job models.Job
	if err := s.ReadJSON(jobID, models.ArtifactJobMeta, &job); err != nil {
		return nil, err
	}
	return &job, nil
}

// UpdateJob merges fields into job.json and refreshes updated_at.
// Fixed keys (job_id, created_at) cannot be overwritten.
func (s *Store) UpdateJob(jobID string, fields map[string]any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.JobExists(jobID) {
		return common.ErrJobNotFound
	}

	var job models.Job
	if err := s.readJSON(jobID, models.ArtifactJobMeta, &job); err != nil {
		return err
	}

	if job.Extra == nil {
		job.Extra = map[string]any{}
	}
	for k, v := range fields {
		switch k {
		case "job_id", "created_at", "updated_at":
			// immutable / managed keys
		case "status":
			if status, ok := v.(string); ok {
				job.Status = models.JobStatus(status)
			} else if status, ok := v.(models.JobStatus); ok {
				job.Status = status
			}
		default:
			job.Extra[k] = v
		}
	}
	job.UpdatedAt = time.Now().UTC()

	_, err := s.saveJSON(jobID, models.ArtifactJobMeta, job)
	return err
}

// JobExists reports whether the job's directory and metadata record exist
func (s *Store) JobExists(jobID string) bool {
	if jobID == "" {
		return false
	}
	_, err := os.Stat(filepath.Join(s.JobDir(jobID), models.ArtifactJobMeta))
	return err == nil
}

// ListJobIDs returns the IDs of all jobs with a metadata record
func (s *Store) ListJobIDs() ([]string, error) {
	entries, err := os.ReadDir(s.root)
	if err != nil {
		return nil, fmt.Errorf("failed to read artifact root: %w", err)
	}

	ids := make([]string, 0, len(entries))
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		if s.JobExists(entry.Name()) {
			ids = append(ids, entry.Name())
		}
	}
	return ids, nil
}

// DeleteJob removes the job directory and everything in it
func (s *Store) DeleteJob(jobID string) error {
	if !s.JobExists(jobID) {
		return common.ErrJobNotFound
	}
	return os.RemoveAll(s.JobDir(jobID))
}

// SaveBytes writes a binary artifact and returns its path
func (s *Store) SaveBytes(jobID, name string, data []byte) (string, error) {
	path := s.ArtifactPath(jobID, name)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write artifact %s: %w", name, err)
	}
	return path, nil
}

// SaveText writes a text artifact and returns its path
func (s *Store) SaveText(jobID, name, text string) (string, error) {
	return s.SaveBytes(jobID, name, []byte(text))
}

// SaveJSON writes an indented JSON artifact and returns its path
func (s *Store) SaveJSON(jobID, name string, v any) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saveJSON(jobID, name, v)
}

func (s *Store) saveJSON(jobID, name string, v any) (string, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal artifact %s: %w", name, err)
	}
	return s.SaveBytes(jobID, name, data)
}

// AppendLog appends one timestamped line to the job's run.log
func (s *Store) AppendLog(jobID, line string) error {
	path := s.ArtifactPath(jobID, models.ArtifactRunLog)
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("failed to open run log: %w", err)
	}
	defer f.Close()

	stamp := time.Now().UTC().Format(time.RFC3339)
	_, err = fmt.Fprintf(f, "%s %s\n", stamp, line)
	return err
}

// ReadBytes reads a binary artifact
func (s *Store) ReadBytes(jobID, name string) ([]byte, error) {
	data, err := os.ReadFile(s.ArtifactPath(jobID, name))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("artifact %s: %w", name, common.ErrJobNotFound)
		}
		return nil, fmt.Errorf("failed to read artifact %s: %w", name, err)
	}
	return data, nil
}

// ReadText reads a text artifact
func (s *Store) ReadText(jobID, name string) (string, error) {
	data, err := s.ReadBytes(jobID, name)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// ReadJSON reads and decodes a JSON artifact into v
func (s *Store) ReadJSON(jobID, name string, v any) error {
	return s.readJSON(jobID, name, v)
}

func (s *Store) readJSON(jobID, name string, v any) error {
	data, err := s.ReadBytes(jobID, name)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to decode artifact %s: %w", name, err)
	}
	return nil
}

// ArtifactPath returns the path an artifact has or would have
func (s *Store) ArtifactPath(jobID, name string) string {
	return filepath.Join(s.JobDir(jobID), name)
}

// JobDir returns the job's directory path
func (s *Store) JobDir(jobID string) string {
	return filepath.Join(s.root, jobID)
}

var _ interfaces.ArtifactStore = (*Store)(nil)

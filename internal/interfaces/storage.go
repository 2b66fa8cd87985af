package interfaces

import (
	"context"

	"github.com/ternarybob/loquor/internal/models"
)

// ArtifactStore - per-job artifact persistence on the filesystem
type ArtifactStore interface {
	// Job lifecycle
	CreateJob(source string) (*models.Job, error)
	GetJob(jobID string) (*models.Job, error)
	UpdateJob(jobID string, fields map[string]any) error
	JobExists(jobID string) bool
	ListJobIDs() ([]string, error)
	DeleteJob(jobID string) error

	// Artifact writes
	SaveBytes(jobID, name string, data []byte) (string, error)
	SaveText(jobID, name, text string) (string, error)
	SaveJSON(jobID, name string, v any) (string, error)
	AppendLog(jobID, line string) error

	// Artifact reads
	ReadBytes(jobID, name string) ([]byte, error)
	ReadText(jobID, name string) (string, error)
	ReadJSON(jobID, name string, v any) error
	ArtifactPath(jobID, name string) string
	JobDir(jobID string) string
}

// DocumentStore - local knowledge-base document persistence
type DocumentStore interface {
	StoreDocument(ctx context.Context, doc *models.KBDocument) error
	GetDocument(ctx context.Context, id string) (*models.KBDocument, error)
	GetDocumentBySource(ctx context.Context, source string) (*models.KBDocument, error)
	ListDocuments(ctx context.Context) ([]*models.KBDocument, error)
	CountDocuments(ctx context.Context) (int, error)
	Close() error
}

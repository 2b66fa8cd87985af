package kb

import (
	"context"
	"fmt"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/timshannon/badgerhold/v4"

	"github.com/ternarybob/loquor/internal/common"
	"github.com/ternarybob/loquor/internal/interfaces"
	"github.com/ternarybob/loquor/internal/models"
)

// DocumentStore persists knowledge-base documents in Badger
type DocumentStore struct {
	db     *BadgerDB
	logger arbor.ILogger
}

// NewDocumentStore creates a document store over an open connection
func NewDocumentStore(db *BadgerDB, logger arbor.ILogger) *DocumentStore {
	return &DocumentStore{db: db, logger: logger}
}

// StoreDocument upserts a document. Documents with the same Source replace
// each other so reloading a docs directory stays idempotent.
func (s *DocumentStore) StoreDocument(ctx context.Context, doc *models.KBDocument) error {
	if doc.ID == "" {
		if existing, err := s.GetDocumentBySource(ctx, doc.Source); err == nil && existing != nil {
			doc.ID = existing.ID
			doc.CreatedAt = existing.CreatedAt
		} else {
			doc.ID = common.NewDocumentID()
		}
	}

	now := time.Now().UTC()
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = now
	}
	doc.UpdatedAt = now

	if err := s.db.Store().Upsert(doc.ID, doc); err != nil {
		return fmt.Errorf("failed to store document %s: %w", doc.Source, err)
	}
	return nil
}

// GetDocument looks a document up by ID
func (s *DocumentStore) GetDocument(ctx context.Context, id string) (*models.KBDocument, error) {
	var doc models.KBDocument
	if err := s.db.Store().Get(id, &doc); err != nil {
		if err == badgerhold.ErrNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &doc, nil
}

// GetDocumentBySource looks a document up by its source filename
func (s *DocumentStore) GetDocumentBySource(ctx context.Context, source string) (*models.KBDocument, error) {
	var docs []*models.KBDocument
	if err := s.db.Store().Find(&docs, badgerhold.Where("Source").Eq(source).Index("Source").Limit(1)); err != nil {
		return nil, err
	}
	if len(docs) == 0 {
		return nil, nil
	}
	return docs[0], nil
}

// ListDocuments returns all stored documents
func (s *DocumentStore) ListDocuments(ctx context.Context) ([]*models.KBDocument, error) {
	var docs []*models.KBDocument
	if err := s.db.Store().Find(&docs, badgerhold.Where("ID").Ne("")); err != nil {
		return nil, err
	}
	return docs, nil
}

// CountDocuments returns the number of stored documents
func (s *DocumentStore) CountDocuments(ctx context.Context) (int, error) {
	count, err := s.db.Store().Count(&models.KBDocument{}, nil)
	if err != nil {
		return 0, err
	}
	return int(count), nil
}

// Close closes the underlying database connection
func (s *DocumentStore) Close() error {
	return s.db.Close()
}

var _ interfaces.DocumentStore = (*DocumentStore)(nil)

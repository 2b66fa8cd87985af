package retrieval

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ternarybob/loquor/internal/common"
	"github.com/ternarybob/loquor/internal/httpclient"
	"github.com/ternarybob/loquor/internal/models"
)

// fakeDocumentStore serves a fixed document list
type fakeDocumentStore struct {
	docs []*models.KBDocument
	err  error
}

func (f *fakeDocumentStore) StoreDocument(ctx context.Context, doc *models.KBDocument) error {
	f.docs = append(f.docs, doc)
	return nil
}

func (f *fakeDocumentStore) GetDocument(ctx context.Context, id string) (*models.KBDocument, error) {
	return nil, nil
}

func (f *fakeDocumentStore) GetDocumentBySource(ctx context.Context, source string) (*models.KBDocument, error) {
	return nil, nil
}

func (f *fakeDocumentStore) ListDocuments(ctx context.Context) ([]*models.KBDocument, error) {
	return f.docs, f.err
}

func (f *fakeDocumentStore) CountDocuments(ctx context.Context) (int, error) {
	return len(f.docs), nil
}

func (f *fakeDocumentStore) Close() error { return nil }

func twoDocStore() *fakeDocumentStore {
	return &fakeDocumentStore{docs: []*models.KBDocument{
		{ID: "doc_1", Source: "d1.md", Content: "alpha beta"},
		{ID: "doc_2", Source: "d2.md", Content: "beta beta gamma"},
	}}
}

func TestKeywordSearch_OccurrenceCounts(t *testing.T) {
	passages, err := KeywordSearch(context.Background(), twoDocStore(), "beta", 10)
	require.NoError(t, err)
	require.Len(t, passages, 2)

	// d2 contains "beta" twice, d1 once
	assert.Equal(t, "d2.md", passages[0].Source())
	assert.Equal(t, float64(2), passages[0]["score"])
	assert.Equal(t, "d1.md", passages[1].Source())
	assert.Equal(t, float64(1), passages[1]["score"])
}

func TestKeywordSearch_DropsZeroScores(t *testing.T) {
	passages, err := KeywordSearch(context.Background(), twoDocStore(), "delta", 10)
	require.NoError(t, err)
	assert.Empty(t, passages)
}

func TestKeywordSearch_TopK(t *testing.T) {
	passages, err := KeywordSearch(context.Background(), twoDocStore(), "beta", 1)
	require.NoError(t, err)
	require.Len(t, passages, 1)
	assert.Equal(t, "d2.md", passages[0].Source())
}

func TestKeywordSearch_CaseAndPunctuation(t *testing.T) {
	passages, err := KeywordSearch(context.Background(), twoDocStore(), "BETA?", 10)
	require.NoError(t, err)
	assert.Len(t, passages, 2)
}

func TestNormalizePassages_Shapes(t *testing.T) {
	tests := []struct {
		name string
		body string
		want int
	}{
		{"bare list", `[{"text":"a"},{"text":"b"}]`, 2},
		{"results envelope", `{"results":[{"text":"a"}]}`, 1},
		{"data envelope", `{"data":[{"text":"a"}]}`, 1},
		{"items envelope", `{"items":[{"text":"a"}]}`, 1},
		{"json string", `"[{\"text\":\"a\"}]"`, 1},
		{"drops non-objects", `[{"text":"a"},"junk",7]`, 1},
		{"unknown envelope", `{"stuff":[{"text":"a"}]}`, 0},
		{"invalid json", `{{`, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Len(t, NormalizePassages([]byte(tt.body)), tt.want)
		})
	}
}

func TestSearch_RemotePreferred(t *testing.T) {
	remoteBody := `{"results":[{"text":"remote hit","source":"remote.md"}]}`
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/kb/search", r.URL.Path)
		w.Write([]byte(remoteBody))
	}))
	defer srv.Close()

	svc := NewService(&common.KBConfig{BaseURL: srv.URL}, twoDocStore(), httpclient.New(5*time.Second), common.GetLogger())

	raw, passages, err := svc.Search(context.Background(), "beta", 5)
	require.NoError(t, err)
	require.Len(t, passages, 1)
	assert.Equal(t, "remote hit", passages[0].Text())
	assert.JSONEq(t, remoteBody, string(raw))
}

func TestSearch_FallsBackToLocalOnError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	svc := NewService(&common.KBConfig{BaseURL: srv.URL}, twoDocStore(), httpclient.New(5*time.Second), common.GetLogger())

	raw, passages, err := svc.Search(context.Background(), "beta", 5)
	require.NoError(t, err)
	require.Len(t, passages, 2)
	assert.Equal(t, "d2.md", passages[0].Source())
	assert.Nil(t, raw)
}

func TestSearch_FallsBackToLocalOnEmptyResult(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"results":[]}`))
	}))
	defer srv.Close()

	svc := NewService(&common.KBConfig{BaseURL: srv.URL}, twoDocStore(), httpclient.New(5*time.Second), common.GetLogger())

	raw, passages, err := svc.Search(context.Background(), "beta", 5)
	require.NoError(t, err)
	require.Len(t, passages, 2, "empty remote result should fall back to local keyword search")
	assert.Equal(t, "d2.md", passages[0].Source())
	// The empty remote response is still kept for the kb artifact
	assert.JSONEq(t, `{"results":[]}`, string(raw))
}

func TestSearch_LocalOnly(t *testing.T) {
	svc := NewService(&common.KBConfig{}, twoDocStore(), httpclient.New(time.Second), common.GetLogger())

	raw, passages, err := svc.Search(context.Background(), "gamma", 5)
	require.NoError(t, err)
	require.Len(t, passages, 1)
	assert.Equal(t, "d2.md", passages[0].Source())
	assert.Nil(t, raw)
}

func TestSearch_BlankQuery(t *testing.T) {
	svc := NewService(&common.KBConfig{}, twoDocStore(), httpclient.New(time.Second), common.GetLogger())

	_, passages, err := svc.Search(context.Background(), "   ", 5)
	require.NoError(t, err)
	assert.Empty(t, passages)
}

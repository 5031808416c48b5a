package usecase

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"fiwb-backend/internal/sync/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeIndex struct {
	mu       sync.Mutex
	failures int // fail this many calls before succeeding
	err      error
	upserts  []string
}

func (f *fakeIndex) UpsertDocument(ctx context.Context, doc *domain.IndexDocument) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failures > 0 {
		f.failures--
		return f.err
	}
	f.upserts = append(f.upserts, doc.ID)
	return nil
}

func newTestIndexer(index *fakeIndex, userRepo *fakeUserRepo) *Indexer {
	idx := NewIndexer(index, userRepo, 1)
	idx.retryBase = time.Millisecond
	return idx
}

func TestIndexerWritesAndAccountsUsage(t *testing.T) {
	index := &fakeIndex{}
	userRepo := newFakeUserRepo(testUser())
	idx := newTestIndexer(index, userRepo)
	idx.Start()

	ok := idx.QueueDocument("u1", &domain.IndexDocument{ID: "m1", Content: "0123456789"})
	assert.True(t, ok)
	idx.Stop()

	require.Equal(t, []string{"m1"}, index.upserts)
	user, _ := userRepo.FindByID("u1")
	assert.Equal(t, int64(10), user.IndexedChars)
}

func TestIndexerRetriesQuotaPushback(t *testing.T) {
	index := &fakeIndex{failures: 2, err: errors.New("429 Too Many Requests")}
	idx := newTestIndexer(index, newFakeUserRepo(testUser()))
	idx.Start()

	idx.QueueDocument("u1", &domain.IndexDocument{ID: "m1", Content: "x"})
	idx.Stop()

	// Two pushbacks, then success within the retry budget.
	assert.Equal(t, []string{"m1"}, index.upserts)
}

func TestIndexerDropsAfterRetryBudget(t *testing.T) {
	index := &fakeIndex{failures: 10, err: errors.New("quota exceeded")}
	userRepo := newFakeUserRepo(testUser())
	idx := newTestIndexer(index, userRepo)
	idx.Start()

	idx.QueueDocument("u1", &domain.IndexDocument{ID: "m1", Content: "x"})
	idx.Stop()

	assert.Empty(t, index.upserts)
	user, _ := userRepo.FindByID("u1")
	assert.Zero(t, user.IndexedChars)
}

func TestIndexerNonQuotaErrorNotRetried(t *testing.T) {
	index := &fakeIndex{failures: 1, err: errors.New("invalid document")}
	idx := newTestIndexer(index, newFakeUserRepo(testUser()))
	idx.Start()

	idx.QueueDocument("u1", &domain.IndexDocument{ID: "m1", Content: "x"})
	idx.Stop()

	// A single hard failure consumes the document without retries.
	assert.Empty(t, index.upserts)
}

func TestIsQuotaPushback(t *testing.T) {
	assert.True(t, isQuotaPushback(errors.New("HTTP 429")))
	assert.True(t, isQuotaPushback(errors.New("Resource exhausted: quota")))
	assert.False(t, isQuotaPushback(errors.New("connection refused")))
	assert.False(t, isQuotaPushback(nil))
}

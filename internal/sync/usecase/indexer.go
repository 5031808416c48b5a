package usecase

import (
	"context"
	"log"
	"strings"
	"sync"
	"time"

	authrepo "fiwb-backend/internal/auth/repository"
	"fiwb-backend/internal/sync/domain"
)

// remoteIndex is the slice of the vector index client the writer needs.
type remoteIndex interface {
	UpsertDocument(ctx context.Context, doc *domain.IndexDocument) error
}

// IndexJob carries one document plus the owner for usage accounting.
type IndexJob struct {
	UserID   string
	Document *domain.IndexDocument
}

// Indexer mirrors documents to the remote index in the background. Writes
// are fire-and-forget with a bounded retry for quota pushback; a document
// that still fails is dropped and will be retried on a future sync only if
// its material row is gone, which append-only rows never are. Losing an
// index write therefore costs search recall, never correctness.
type Indexer struct {
	index    remoteIndex
	userRepo authrepo.UserRepository

	jobQueue    chan IndexJob
	workerWg    sync.WaitGroup
	workerCount int
	started     bool
	mu          sync.Mutex

	retryAttempts int
	retryBase     time.Duration
}

func NewIndexer(index remoteIndex, userRepo authrepo.UserRepository, workerCount int) *Indexer {
	if workerCount <= 0 {
		workerCount = 3
	}
	return &Indexer{
		index:         index,
		userRepo:      userRepo,
		jobQueue:      make(chan IndexJob, 500),
		workerCount:   workerCount,
		retryAttempts: 3,
		retryBase:     2 * time.Second,
	}
}

// Start launches the index workers.
func (s *Indexer) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return
	}

	for i := 0; i < s.workerCount; i++ {
		s.workerWg.Add(1)
		go s.worker(i)
	}
	s.started = true
	log.Printf("[Indexer] Started %d workers", s.workerCount)
}

// Stop drains the queue and stops all workers.
func (s *Indexer) Stop() {
	close(s.jobQueue)
	s.workerWg.Wait()
	log.Println("[Indexer] All workers stopped")
}

// QueueDocument implements DocumentQueue. A full queue drops the document
// rather than stalling the sync that produced it.
func (s *Indexer) QueueDocument(userID string, doc *domain.IndexDocument) bool {
	select {
	case s.jobQueue <- IndexJob{UserID: userID, Document: doc}:
		return true
	default:
		log.Printf("[Indexer] Queue full, dropping document %s", doc.ID)
		return false
	}
}

func (s *Indexer) worker(id int) {
	defer s.workerWg.Done()

	for job := range s.jobQueue {
		s.processJob(job)
	}

	log.Printf("[Indexer] Worker %d stopped", id)
}

func (s *Indexer) processJob(job IndexJob) {
	ctx := context.Background()

	var err error
	for attempt := 0; attempt < s.retryAttempts; attempt++ {
		if attempt > 0 {
			time.Sleep(s.retryBase * time.Duration(attempt))
		}
		err = s.index.UpsertDocument(ctx, job.Document)
		if err == nil {
			break
		}
		if !isQuotaPushback(err) {
			// Only quota pushback earns a retry.
			break
		}
		log.Printf("[Indexer] Quota pushback for %s (attempt %d): %v", job.Document.ID, attempt+1, err)
	}
	if err != nil {
		log.Printf("[Indexer] Dropping document %s: %v", job.Document.ID, err)
		return
	}

	if err := s.userRepo.AddIndexedChars(job.UserID, int64(len(job.Document.Content))); err != nil {
		log.Printf("[Indexer] Usage accounting failed for user %s: %v", job.UserID, err)
	}
}

func isQuotaPushback(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	for _, indicator := range []string{"429", "quota", "rate limit", "too many requests", "resource exhausted"} {
		if strings.Contains(msg, indicator) {
			return true
		}
	}
	return false
}

package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	authdomain "fiwb-backend/internal/auth/domain"

	"github.com/stretchr/testify/assert"
)

type stubUserRepo struct {
	emails []string
	users  map[string]*authdomain.User
}

func (r *stubUserRepo) Create(user *authdomain.User) error { return nil }
func (r *stubUserRepo) FindByEmail(email string) (*authdomain.User, error) {
	return r.users[email], nil
}
func (r *stubUserRepo) FindByID(id string) (*authdomain.User, error)          { return nil, nil }
func (r *stubUserRepo) Update(user *authdomain.User) error                    { return nil }
func (r *stubUserRepo) ListAllEmails() ([]string, error)                      { return r.emails, nil }
func (r *stubUserRepo) SaveAccessToken(userID, accessToken string) error      { return nil }
func (r *stubUserRepo) AddIndexedChars(userID string, chars int64) error      { return nil }
func (r *stubUserRepo) TouchLastSynced(userID string) error                   { return nil }
func (r *stubUserRepo) SaveRefreshToken(token *authdomain.RefreshToken) error { return nil }
func (r *stubUserRepo) FindRefreshToken(token string) (*authdomain.RefreshToken, error) {
	return nil, nil
}
func (r *stubUserRepo) DeleteRefreshToken(token string) error { return nil }

type recordingSyncer struct {
	mu     sync.Mutex
	synced []string
	errFor map[string]error
}

func (s *recordingSyncer) SyncUser(ctx context.Context, user *authdomain.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.synced = append(s.synced, user.Email)
	return s.errFor[user.Email]
}

func TestSyncAllUsersContainsFailures(t *testing.T) {
	repo := &stubUserRepo{
		emails: []string{"a@x.edu", "b@x.edu", "c@x.edu"},
		users: map[string]*authdomain.User{
			"a@x.edu": {ID: "a", Email: "a@x.edu"},
			"b@x.edu": {ID: "b", Email: "b@x.edu"},
			"c@x.edu": {ID: "c", Email: "c@x.edu"},
		},
	}
	syncer := &recordingSyncer{errFor: map[string]error{"b@x.edu": errors.New("token revoked")}}

	s := New(repo, syncer, time.Minute, time.Hour)
	s.userDelay = 0
	s.syncAllUsers()

	// b's failure does not stop a or c.
	assert.Equal(t, []string{"a@x.edu", "b@x.edu", "c@x.edu"}, syncer.synced)
}

func TestSyncAllUsersSkipsMissingUsers(t *testing.T) {
	repo := &stubUserRepo{
		emails: []string{"gone@x.edu", "here@x.edu"},
		users:  map[string]*authdomain.User{"here@x.edu": {ID: "h", Email: "here@x.edu"}},
	}
	syncer := &recordingSyncer{}

	s := New(repo, syncer, time.Minute, time.Hour)
	s.userDelay = 0
	s.syncAllUsers()

	assert.Equal(t, []string{"here@x.edu"}, syncer.synced)
}

func TestStopInterruptsGracePeriod(t *testing.T) {
	repo := &stubUserRepo{emails: []string{"a@x.edu"}, users: map[string]*authdomain.User{}}
	syncer := &recordingSyncer{}

	s := New(repo, syncer, time.Hour, time.Hour)
	s.Start()
	s.Stop()

	time.Sleep(20 * time.Millisecond)
	assert.Empty(t, syncer.synced)
}

func TestNewAppliesDefaults(t *testing.T) {
	s := New(&stubUserRepo{}, &recordingSyncer{}, 0, 0)
	assert.Equal(t, time.Minute, s.gracePeriod)
	assert.Equal(t, 6*time.Hour, s.interval)
}

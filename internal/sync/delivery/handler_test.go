package delivery

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	authdomain "fiwb-backend/internal/auth/domain"
	"fiwb-backend/pkg/googleauth"
	"fiwb-backend/pkg/governor"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	driveapi "google.golang.org/api/drive/v3"
)

type countingFolderSource struct {
	calls int
}

func (s *countingFolderSource) ListRootFolders(ctx context.Context, at, rt string, cb googleauth.TokenUpdateFunc) ([]*driveapi.File, error) {
	s.calls++
	return nil, nil
}

// fullGovernor returns a governor whose single transport slot is held until
// the returned release func runs.
func fullGovernor(t *testing.T) (*governor.Governor, func()) {
	t.Helper()
	gov := governor.New(1, 1)
	block := make(chan struct{})
	started := make(chan struct{})
	go gov.Do(context.Background(), func() error {
		close(started)
		<-block
		return nil
	})
	<-started
	return gov, func() { close(block) }
}

func testContext(t *testing.T, method, path, body string) (*gin.Context, *httptest.ResponseRecorder) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	c.Request = req.WithContext(ctx)
	return c, w
}

func TestListDriveFoldersWaitsOnTransportSlot(t *testing.T) {
	gov, release := fullGovernor(t)
	defer release()

	src := &countingFolderSource{}
	h := &SyncHandler{userRepo: nil, driveSvc: src, governor: gov}

	c, w := testContext(t, http.MethodGet, "/api/drive/folders", "")
	c.Set("user", &authdomain.User{ID: "u1", AccessToken: "at"})

	// The slot is occupied and the request context is cancelled: the Drive
	// call must never start.
	h.ListDriveFolders(c)

	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Zero(t, src.calls)
}

func TestConnectMoodleWaitsOnTransportSlot(t *testing.T) {
	gov, release := fullGovernor(t)
	defer release()

	h := &SyncHandler{governor: gov}

	body := `{"moodle_url":"https://moodle.example.edu","moodle_token":"tok"}`
	c, w := testContext(t, http.MethodPost, "/api/moodle/connect", body)
	c.Request.Header.Set("Content-Type", "application/json")
	c.Set("user", &authdomain.User{ID: "u1"})

	h.ConnectMoodle(c)

	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "moodle connection failed")
}

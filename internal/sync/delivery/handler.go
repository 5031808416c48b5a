package delivery

import (
	"context"
	"encoding/json"
	"log"
	"net/http"

	authdomain "fiwb-backend/internal/auth/domain"
	authdto "fiwb-backend/internal/auth/dto"
	authrepo "fiwb-backend/internal/auth/repository"
	"fiwb-backend/internal/sync/usecase"
	"fiwb-backend/pkg/drive"
	"fiwb-backend/pkg/googleauth"
	"fiwb-backend/pkg/governor"
	"fiwb-backend/pkg/moodle"
	"fiwb-backend/pkg/utils/crypto"

	"github.com/gin-gonic/gin"
	"golang.org/x/oauth2"
	driveapi "google.golang.org/api/drive/v3"
)

// driveFolderSource is the slice of the Drive service the folder picker
// needs; tests substitute a fake.
type driveFolderSource interface {
	ListRootFolders(ctx context.Context, accessToken, refreshToken string, onTokenRefresh googleauth.TokenUpdateFunc) ([]*driveapi.File, error)
}

type SyncHandler struct {
	syncUsecase usecase.SyncUsecase
	userRepo    authrepo.UserRepository
	driveSvc    driveFolderSource
	governor    *governor.Governor
	secret      string // encryption key for stored IMAP passwords
}

func NewSyncHandler(syncUsecase usecase.SyncUsecase, userRepo authrepo.UserRepository, driveSvc *drive.Service, gov *governor.Governor, secret string) *SyncHandler {
	return &SyncHandler{
		syncUsecase: syncUsecase,
		userRepo:    userRepo,
		driveSvc:    driveSvc,
		governor:    gov,
		secret:      secret,
	}
}

func currentUser(c *gin.Context) *authdomain.User {
	value, exists := c.Get("user")
	if !exists {
		return nil
	}
	return value.(*authdomain.User)
}

// TriggerSync starts a sync for the caller. Phase 1 runs before the
// response; content continues syncing in the background.
func (h *SyncHandler) TriggerSync(c *gin.Context) {
	user := currentUser(c)
	if user == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "not authenticated"})
		return
	}

	if err := h.syncUsecase.RunFullSync(c.Request.Context(), user.ID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"message": "sync started"})
}

func (h *SyncHandler) GetStatus(c *gin.Context) {
	user := currentUser(c)
	if user == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "not authenticated"})
		return
	}

	status, err := h.syncUsecase.GetSyncStatus(user.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, status)
}

func (h *SyncHandler) ListCourses(c *gin.Context) {
	user := currentUser(c)
	if user == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "not authenticated"})
		return
	}

	courses, err := h.syncUsecase.ListCourses(user.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"courses": courses})
}

func (h *SyncHandler) ListMaterials(c *gin.Context) {
	user := currentUser(c)
	if user == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "not authenticated"})
		return
	}

	materials, err := h.syncUsecase.ListMaterials(user.ID, c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"materials": materials})
}

type semanticSearchRequest struct {
	Query    string `json:"query" binding:"required"`
	CourseID string `json:"course_id"`
	Limit    int    `json:"limit"`
}

func (h *SyncHandler) SemanticSearch(c *gin.Context) {
	user := currentUser(c)
	if user == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "not authenticated"})
		return
	}

	var req semanticSearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	results, err := h.syncUsecase.SemanticSearch(c.Request.Context(), user.ID, req.CourseID, req.Query, req.Limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"results": results})
}

// ListDriveFolders lists root-level Drive folders for the watched-folder
// picker.
func (h *SyncHandler) ListDriveFolders(c *gin.Context) {
	user := currentUser(c)
	if user == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "not authenticated"})
		return
	}
	if user.AccessToken == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "google account not connected"})
		return
	}

	sink := func(tok *oauth2.Token) error {
		return h.userRepo.SaveAccessToken(user.ID, tok.AccessToken)
	}

	// Interactive or not, a Drive call shares the same transport budget as
	// background sync.
	var folders []*driveapi.File
	err := h.governor.Do(c.Request.Context(), func() error {
		var err error
		folders, err = h.driveSvc.ListRootFolders(c.Request.Context(), user.AccessToken, user.RefreshToken, sink)
		return err
	})
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}

	out := make([]gin.H, 0, len(folders))
	for _, f := range folders {
		out = append(out, gin.H{"id": f.Id, "name": f.Name, "link": f.WebViewLink})
	}
	c.JSON(http.StatusOK, gin.H{"folders": out})
}

// SetWatchedFolders stores the folder selection and kicks off a sync so the
// new folders are picked up immediately.
func (h *SyncHandler) SetWatchedFolders(c *gin.Context) {
	user := currentUser(c)
	if user == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "not authenticated"})
		return
	}

	var req authdto.WatchedFoldersRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	encoded, err := json.Marshal(req.FolderIDs)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	user.WatchedDriveFolders = string(encoded)
	if err := h.userRepo.Update(user); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	if err := h.syncUsecase.RunFullSync(context.Background(), user.ID); err != nil {
		log.Printf("[Sync] Folder-change sync failed for %s: %v", user.ID, err)
	}
	c.JSON(http.StatusOK, gin.H{"message": "watched folders updated", "count": len(req.FolderIDs)})
}

// ConnectMoodle validates the token against the site before storing it.
func (h *SyncHandler) ConnectMoodle(c *gin.Context) {
	user := currentUser(c)
	if user == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "not authenticated"})
		return
	}

	var req authdto.MoodleConnectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	client := moodle.NewClient(req.MoodleURL, req.MoodleToken)
	var info *moodle.SiteInfo
	err := h.governor.Do(c.Request.Context(), func() error {
		var err error
		info, err = client.GetSiteInfo(c.Request.Context())
		return err
	})
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "moodle connection failed: " + err.Error()})
		return
	}

	user.MoodleURL = req.MoodleURL
	user.MoodleToken = req.MoodleToken
	if err := h.userRepo.Update(user); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	if err := h.syncUsecase.RunFullSync(context.Background(), user.ID); err != nil {
		log.Printf("[Sync] Moodle-connect sync failed for %s: %v", user.ID, err)
	}
	c.JSON(http.StatusOK, gin.H{"message": "moodle connected", "site": info.SiteName})
}

// SetImapCredentials stores IMAP access for non-Google mailboxes. The
// password is sealed before it touches the database.
func (h *SyncHandler) SetImapCredentials(c *gin.Context) {
	user := currentUser(c)
	if user == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "not authenticated"})
		return
	}

	var req authdto.ImapCredentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	sealed, err := crypto.Encrypt(req.Password, h.secret)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	user.ImapServer = req.Server
	user.ImapPort = req.Port
	user.ImapPassword = sealed
	if err := h.userRepo.Update(user); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "imap credentials saved"})
}

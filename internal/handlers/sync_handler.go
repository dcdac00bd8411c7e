package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "paytrack/internal/errors"
	"paytrack/internal/services"
)

// Syncer exchanges a user's payment collection with remote storage.
// *cloudsync.Service satisfies it.
type Syncer interface {
	Push(ctx context.Context, userID string) (int, error)
	Pull(ctx context.Context, userID string) (int, error)
}

// SyncHandler handles cloud sync requests.
type SyncHandler struct {
	syncer       Syncer
	auditService services.AuditServicer
}

// NewSyncHandler creates a new SyncHandler. A nil syncer means sync is not
// configured and every request answers SYNC_NOT_CONFIGURED.
func NewSyncHandler(syncer Syncer, auditService services.AuditServicer) *SyncHandler {
	return &SyncHandler{syncer: syncer, auditService: auditService}
}

// Push uploads the user's collection
// @Summary     Push to cloud
// @Description Upload the current payment collection to remote storage
// @Tags        sync
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Success     200 {object} map[string]int "Payments pushed"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     502 {object} ErrorResponse "Remote storage failed"
// @Failure     503 {object} ErrorResponse "Sync not configured"
// @Router      /sync/push [post]
func (h *SyncHandler) Push(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}
	if h.syncer == nil {
		respondWithError(c, apperrors.ErrSyncNotConfigured)
		return
	}

	count, err := h.syncer.Push(c.Request.Context(), userID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, services.AuditActionPush, "payment", "", c.ClientIP(), map[string]interface{}{"count": count})
	c.JSON(http.StatusOK, gin.H{"pushed": count})
}

// Pull replaces the user's collection with the remote snapshot
// @Summary     Pull from cloud
// @Description Replace the local payment collection with the remote snapshot
// @Tags        sync
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Success     200 {object} map[string]int "Payments pulled"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "No remote snapshot"
// @Failure     502 {object} ErrorResponse "Remote storage failed"
// @Failure     503 {object} ErrorResponse "Sync not configured"
// @Router      /sync/pull [post]
func (h *SyncHandler) Pull(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}
	if h.syncer == nil {
		respondWithError(c, apperrors.ErrSyncNotConfigured)
		return
	}

	count, err := h.syncer.Pull(c.Request.Context(), userID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, services.AuditActionPull, "payment", "", c.ClientIP(), map[string]interface{}{"count": count})
	c.JSON(http.StatusOK, gin.H{"pulled": count})
}

package controller

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/velora/catalog-service/entity"
	"github.com/velora/catalog-service/http/controller/dto"
	"github.com/velora/catalog-service/jobs"
	"github.com/velora/catalog-service/utils"
)

func (ctrl *Controller) CreateSession(c *gin.Context) {
	ctx := c.Request.Context()

	ownerID, ok := utils.GetUserIDFromContext(c)
	if !ok {
		utils.JSON401(c, "Unauthorized: user_id not found")
		return
	}

	var req dto.CreateSessionRequestDTO
	if err := c.ShouldBindJSON(&req); err != nil && err.Error() != "EOF" {
		utils.JSON400(c, "Invalid request payload")
		return
	}
	if req.Title == "" {
		req.Title = "New conversation"
	}

	session := &entity.ChatSession{
		ID:      uuid.New(),
		OwnerID: ownerID,
		Title:   req.Title,
	}

	if err := ctrl.Repository.ChatRepo.CreateSession(ctx, session); err != nil {
		ctrl.Infra.Logger.ErrorWithContextf(ctx, err, "[Chat] Failed to create session: %v", err)
		utils.JSON500(c, "Failed to create session")
		return
	}

	ctrl.Infra.Logger.InfoWithContextf(ctx, "[Chat] Created session %s for owner %s", session.ID, ownerID)
	utils.JSON201(c, gin.H{"session": session})
}

func (ctrl *Controller) ListSessions(c *gin.Context) {
	ctx := c.Request.Context()

	ownerID, ok := utils.GetUserIDFromContext(c)
	if !ok {
		utils.JSON401(c, "Unauthorized: user_id not found")
		return
	}

	sessions, err := ctrl.Repository.ChatRepo.FindSessionsByOwner(ctx, ownerID)
	if err != nil {
		ctrl.Infra.Logger.ErrorWithContextf(ctx, err, "[Chat] Failed to list sessions: %v", err)
		utils.JSON500(c, "Failed to list sessions")
		return
	}

	utils.JSON200(c, gin.H{"sessions": sessions})
}

func (ctrl *Controller) DeleteSession(c *gin.Context) {
	ctx := c.Request.Context()

	session, ok := ctrl.resolveOwnedSession(c)
	if !ok {
		return
	}

	if err := ctrl.Repository.ChatRepo.DeleteSession(ctx, session.ID); err != nil {
		ctrl.Infra.Logger.ErrorWithContextf(ctx, err, "[Chat] Failed to delete session %s: %v", session.ID, err)
		utils.JSON500(c, "Failed to delete session")
		return
	}

	utils.JSON200(c, gin.H{"message": "Session deleted successfully"})
}

func (ctrl *Controller) ListMessages(c *gin.Context) {
	ctx := c.Request.Context()

	session, ok := ctrl.resolveOwnedSession(c)
	if !ok {
		return
	}

	messages, err := ctrl.Repository.ChatRepo.FindMessagesBySession(ctx, session.ID)
	if err != nil {
		ctrl.Infra.Logger.ErrorWithContextf(ctx, err, "[Chat] Failed to list messages for session %s: %v", session.ID, err)
		utils.JSON500(c, "Failed to list messages")
		return
	}

	utils.JSON200(c, gin.H{"messages": messages})
}

// CreateMessage records a user message and dispatches the generation job
// that will answer it. The response carries the pending job; clients follow
// progress via the job stream.
func (ctrl *Controller) CreateMessage(c *gin.Context) {
	ctx := c.Request.Context()

	ownerID, ok := utils.GetUserIDFromContext(c)
	if !ok {
		utils.JSON401(c, "Unauthorized: user_id not found")
		return
	}

	sessionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.JSON400(c, "Invalid session ID format")
		return
	}

	var req dto.CreateMessageRequestDTO
	if err := c.ShouldBindJSON(&req); err != nil {
		ctrl.Infra.Logger.ErrorWithContextf(ctx, err, "[Chat] Failed to bind CreateMessage request: %v", err)
		utils.JSON400(c, "Invalid request payload")
		return
	}

	job, err := ctrl.Supervisor.CreateGenerationJob(ctx, ownerID, jobs.GenerationParams{
		SessionID: sessionID,
		Content:   req.Content,
		Input: jobs.GenerationInput{
			Prompt:          req.Content,
			Model:           req.Model,
			WantImage:       req.WantImage,
			ReferenceImages: req.ReferenceImages,
			ProductID:       req.ProductID,
		},
	})
	if err != nil {
		if jobs.IsValidationError(err) {
			utils.JSON404(c, "Session not found")
			return
		}
		ctrl.Infra.Logger.ErrorWithContextf(ctx, err, "[Chat] Failed to create generation job: %v", err)
		utils.JSON500(c, "Failed to create generation job")
		return
	}

	ctrl.Infra.Logger.InfoWithContextf(ctx, "[Chat] Created generation job %s for session %s", job.ID, sessionID)
	utils.JSON201(c, gin.H{"job": job})
}

func (ctrl *Controller) resolveOwnedSession(c *gin.Context) (*entity.ChatSession, bool) {
	ctx := c.Request.Context()

	ownerID, ok := utils.GetUserIDFromContext(c)
	if !ok {
		utils.JSON401(c, "Unauthorized: user_id not found")
		return nil, false
	}

	sessionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.JSON400(c, "Invalid session ID format")
		return nil, false
	}

	session, err := ctrl.Repository.ChatRepo.FindSessionByID(ctx, sessionID)
	if err != nil {
		ctrl.Infra.Logger.ErrorWithContextf(ctx, err, "[Chat] Failed to load session %s: %v", sessionID, err)
		utils.JSON500(c, "Failed to load session")
		return nil, false
	}
	if session == nil || session.OwnerID != ownerID {
		utils.JSON404(c, "Session not found")
		return nil, false
	}

	return session, true
}

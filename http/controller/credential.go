package controller

import (
	"github.com/gin-gonic/gin"

	"github.com/velora/catalog-service/http/controller/dto"
	"github.com/velora/catalog-service/utils"
)

// UpsertCredential stores or replaces the caller's generation credential
// override. The version bump retires any cached generation client built from
// the previous key.
func (ctrl *Controller) UpsertCredential(c *gin.Context) {
	ctx := c.Request.Context()

	ownerID, ok := utils.GetUserIDFromContext(c)
	if !ok {
		utils.JSON401(c, "Unauthorized: user_id not found")
		return
	}

	var req dto.UpsertCredentialRequestDTO
	if err := c.ShouldBindJSON(&req); err != nil {
		ctrl.Infra.Logger.ErrorWithContextf(ctx, err, "[Credential] Failed to bind UpsertCredential request: %v", err)
		utils.JSON400(c, "Invalid request payload")
		return
	}

	cred, err := ctrl.Repository.CredentialRepo.Upsert(ctx, ownerID, req.APIKey, req.Model)
	if err != nil {
		ctrl.Infra.Logger.ErrorWithContextf(ctx, err, "[Credential] Failed to upsert credential: %v", err)
		utils.JSON500(c, "Failed to store credential")
		return
	}

	ctrl.Infra.Logger.InfoWithContextf(ctx, "[Credential] Stored credential version %d for owner %s", cred.Version, ownerID)
	utils.JSON200(c, gin.H{"credential": cred})
}

func (ctrl *Controller) GetCredential(c *gin.Context) {
	ctx := c.Request.Context()

	ownerID, ok := utils.GetUserIDFromContext(c)
	if !ok {
		utils.JSON401(c, "Unauthorized: user_id not found")
		return
	}

	cred, err := ctrl.Repository.CredentialRepo.FindByOwner(ctx, ownerID)
	if err != nil {
		ctrl.Infra.Logger.ErrorWithContextf(ctx, err, "[Credential] Failed to load credential: %v", err)
		utils.JSON500(c, "Failed to load credential")
		return
	}
	if cred == nil {
		utils.JSON404(c, "No credential stored")
		return
	}

	utils.JSON200(c, gin.H{"credential": cred})
}

func (ctrl *Controller) DeleteCredential(c *gin.Context) {
	ctx := c.Request.Context()

	ownerID, ok := utils.GetUserIDFromContext(c)
	if !ok {
		utils.JSON401(c, "Unauthorized: user_id not found")
		return
	}

	if err := ctrl.Repository.CredentialRepo.Delete(ctx, ownerID); err != nil {
		ctrl.Infra.Logger.ErrorWithContextf(ctx, err, "[Credential] Failed to delete credential: %v", err)
		utils.JSON500(c, "Failed to delete credential")
		return
	}

	utils.JSON200(c, gin.H{"message": "Credential deleted successfully"})
}

package controller

import (
	"fmt"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/velora/catalog-service/entity"
	"github.com/velora/catalog-service/http/controller/dto"
	"github.com/velora/catalog-service/jobs"
	"github.com/velora/catalog-service/utils"
)

const productCacheTTL = 30 * time.Second

func productCacheKey(connectionID uuid.UUID) string {
	return fmt.Sprintf("products:%s", connectionID)
}

func (ctrl *Controller) CreateConnection(c *gin.Context) {
	ctx := c.Request.Context()

	ownerID, ok := utils.GetUserIDFromContext(c)
	if !ok {
		utils.JSON401(c, "Unauthorized: user_id not found")
		return
	}

	var req dto.CreateConnectionRequestDTO
	if err := c.ShouldBindJSON(&req); err != nil {
		ctrl.Infra.Logger.ErrorWithContextf(ctx, err, "[Connection] Failed to bind CreateConnection request: %v", err)
		utils.JSON400(c, "Invalid request payload")
		return
	}

	conn := &entity.Connection{
		ID:             uuid.New(),
		OwnerID:        ownerID,
		Name:           req.Name,
		BaseURL:        req.BaseURL,
		ConsumerKey:    req.ConsumerKey,
		ConsumerSecret: req.ConsumerSecret,
	}

	if err := ctrl.Repository.ConnectionRepo.Create(ctx, conn); err != nil {
		ctrl.Infra.Logger.ErrorWithContextf(ctx, err, "[Connection] Failed to create connection: %v", err)
		utils.JSON500(c, "Failed to create connection")
		return
	}

	ctrl.Infra.Logger.InfoWithContextf(ctx, "[Connection] Created connection %s for owner %s", conn.ID, ownerID)
	utils.JSON201(c, gin.H{"connection": conn})
}

func (ctrl *Controller) ListConnections(c *gin.Context) {
	ctx := c.Request.Context()

	ownerID, ok := utils.GetUserIDFromContext(c)
	if !ok {
		utils.JSON401(c, "Unauthorized: user_id not found")
		return
	}

	connections, err := ctrl.Repository.ConnectionRepo.FindByOwner(ctx, ownerID)
	if err != nil {
		ctrl.Infra.Logger.ErrorWithContextf(ctx, err, "[Connection] Failed to list connections: %v", err)
		utils.JSON500(c, "Failed to list connections")
		return
	}

	utils.JSON200(c, gin.H{"connections": connections})
}

func (ctrl *Controller) GetConnection(c *gin.Context) {
	ctx := c.Request.Context()

	conn, ok := ctrl.resolveOwnedConnection(c)
	if !ok {
		return
	}

	productCount, err := ctrl.Repository.ProductRepo.CountByConnectionID(ctx, conn.ID)
	if err != nil {
		ctrl.Infra.Logger.WarningWithContextf(ctx, "[Connection] Failed to count products for %s: %v", conn.ID, err)
	}

	utils.JSON200(c, gin.H{
		"connection":    conn,
		"product_count": productCount,
	})
}

func (ctrl *Controller) UpdateConnection(c *gin.Context) {
	ctx := c.Request.Context()

	conn, ok := ctrl.resolveOwnedConnection(c)
	if !ok {
		return
	}

	var req dto.UpdateConnectionRequestDTO
	if err := c.ShouldBindJSON(&req); err != nil {
		ctrl.Infra.Logger.ErrorWithContextf(ctx, err, "[Connection] Failed to bind UpdateConnection request: %v", err)
		utils.JSON400(c, "Invalid request payload")
		return
	}

	if req.Name != "" {
		conn.Name = req.Name
	}
	if req.BaseURL != "" {
		conn.BaseURL = req.BaseURL
	}
	if req.ConsumerKey != "" {
		conn.ConsumerKey = req.ConsumerKey
	}
	if req.ConsumerSecret != "" {
		conn.ConsumerSecret = req.ConsumerSecret
	}

	if err := ctrl.Repository.ConnectionRepo.Update(ctx, conn); err != nil {
		ctrl.Infra.Logger.ErrorWithContextf(ctx, err, "[Connection] Failed to update connection %s: %v", conn.ID, err)
		utils.JSON500(c, "Failed to update connection")
		return
	}

	utils.JSON200(c, gin.H{"connection": conn})
}

func (ctrl *Controller) DeleteConnection(c *gin.Context) {
	ctx := c.Request.Context()

	conn, ok := ctrl.resolveOwnedConnection(c)
	if !ok {
		return
	}

	if err := ctrl.Repository.ConnectionRepo.Delete(ctx, conn.ID); err != nil {
		ctrl.Infra.Logger.ErrorWithContextf(ctx, err, "[Connection] Failed to delete connection %s: %v", conn.ID, err)
		utils.JSON500(c, "Failed to delete connection")
		return
	}

	if err := ctrl.Infra.Redis.Delete(ctx, productCacheKey(conn.ID)); err != nil {
		ctrl.Infra.Logger.WarningWithContextf(ctx, "[Connection] Failed to drop product cache for %s: %v", conn.ID, err)
	}

	ctrl.Infra.Logger.InfoWithContextf(ctx, "[Connection] Deleted connection %s", conn.ID)
	utils.JSON200(c, gin.H{"message": "Connection deleted successfully"})
}

// TriggerSync creates a sync job for the connection and returns its id
// immediately. At most one sync per connection runs at a time.
func (ctrl *Controller) TriggerSync(c *gin.Context) {
	ctx := c.Request.Context()

	ownerID, ok := utils.GetUserIDFromContext(c)
	if !ok {
		utils.JSON401(c, "Unauthorized: user_id not found")
		return
	}

	connectionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.JSON400(c, "Invalid connection ID format")
		return
	}

	var req dto.TriggerSyncRequestDTO
	if err := c.ShouldBindJSON(&req); err != nil && err.Error() != "EOF" {
		utils.JSON400(c, "Invalid request payload")
		return
	}

	active, err := ctrl.Repository.JobRepo.FindActiveSyncForConnection(ctx, connectionID)
	if err != nil {
		ctrl.Infra.Logger.ErrorWithContextf(ctx, err, "[Sync] Failed to check active sync for %s: %v", connectionID, err)
		utils.JSON500(c, "Failed to check active sync")
		return
	}
	if active != nil {
		ctrl.Infra.Logger.WarningWithContextf(ctx, "[Sync] Connection %s already has active sync job %s", connectionID, active.ID)
		utils.JSON409(c, "A sync is already running for this connection")
		return
	}

	job, err := ctrl.Supervisor.CreateSyncJob(ctx, ownerID, jobs.SyncParams{
		ConnectionID: connectionID,
		OnlyInStock:  req.OnlyInStock,
	})
	if err != nil {
		if jobs.IsValidationError(err) {
			utils.JSON404(c, "Connection not found")
			return
		}
		ctrl.Infra.Logger.ErrorWithContextf(ctx, err, "[Sync] Failed to create sync job: %v", err)
		utils.JSON500(c, "Failed to create sync job")
		return
	}

	ctrl.Infra.Logger.InfoWithContextf(ctx, "[Sync] Created sync job %s for connection %s", job.ID, connectionID)
	utils.JSON201(c, gin.H{"job": job})
}

// ListProducts returns the mirrored catalog of one connection, read through
// a short-lived Redis cache.
func (ctrl *Controller) ListProducts(c *gin.Context) {
	ctx := c.Request.Context()

	conn, ok := ctrl.resolveOwnedConnection(c)
	if !ok {
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	// Only the default first page goes through the cache; it is the hot
	// path and the only key cheap to invalidate exactly.
	defaultPage := limit == 50 && offset == 0
	cacheKey := productCacheKey(conn.ID)

	if defaultPage {
		var cached []entity.Product
		if err := ctrl.Infra.Redis.Get(ctx, cacheKey, &cached); err == nil {
			utils.JSON200(c, gin.H{"products": cached, "cached": true})
			return
		}
	}

	products, err := ctrl.Repository.ProductRepo.FindByConnectionID(ctx, conn.ID, limit, offset)
	if err != nil {
		ctrl.Infra.Logger.ErrorWithContextf(ctx, err, "[Connection] Failed to list products for %s: %v", conn.ID, err)
		utils.JSON500(c, "Failed to list products")
		return
	}

	if defaultPage {
		if err := ctrl.Infra.Redis.Set(ctx, cacheKey, products, productCacheTTL); err != nil {
			ctrl.Infra.Logger.WarningWithContextf(ctx, "[Connection] Failed to cache products for %s: %v", conn.ID, err)
		}
	}

	utils.JSON200(c, gin.H{"products": products})
}

func (ctrl *Controller) GetProduct(c *gin.Context) {
	ctx := c.Request.Context()

	conn, ok := ctrl.resolveOwnedConnection(c)
	if !ok {
		return
	}

	productID, err := uuid.Parse(c.Param("product_id"))
	if err != nil {
		utils.JSON400(c, "Invalid product ID format")
		return
	}

	product, err := ctrl.Repository.ProductRepo.FindByID(ctx, productID)
	if err != nil {
		ctrl.Infra.Logger.ErrorWithContextf(ctx, err, "[Connection] Failed to load product %s: %v", productID, err)
		utils.JSON500(c, "Failed to load product")
		return
	}
	if product == nil || product.ConnectionID != conn.ID {
		utils.JSON404(c, "Product not found")
		return
	}

	utils.JSON200(c, gin.H{"product": product})
}

// resolveOwnedConnection parses the :id path param and loads the connection,
// rejecting requests whose authenticated user does not own it.
func (ctrl *Controller) resolveOwnedConnection(c *gin.Context) (*entity.Connection, bool) {
	ctx := c.Request.Context()

	ownerID, ok := utils.GetUserIDFromContext(c)
	if !ok {
		utils.JSON401(c, "Unauthorized: user_id not found")
		return nil, false
	}

	connectionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.JSON400(c, "Invalid connection ID format")
		return nil, false
	}

	conn, err := ctrl.Repository.ConnectionRepo.FindByID(ctx, connectionID)
	if err != nil {
		ctrl.Infra.Logger.ErrorWithContextf(ctx, err, "[Connection] Failed to load connection %s: %v", connectionID, err)
		utils.JSON500(c, "Failed to load connection")
		return nil, false
	}
	if conn == nil || conn.OwnerID != ownerID {
		utils.JSON404(c, "Connection not found")
		return nil, false
	}

	return conn, true
}

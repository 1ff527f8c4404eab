package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/velora/catalog-service/http/controller"
	middlewares "github.com/velora/catalog-service/http/middleware"
)

func SetupRouter(ctrl *controller.Controller) *gin.Engine {
	r := gin.Default()
	middles, err := middlewares.NewMiddlewares(ctrl)
	if err != nil {
		panic(err)
	}

	r.Use(middles.CORSMiddleware)

	apiRoutes := r.Group("/api/v1/catalog")
	{
		apiRoutes.Use(middles.AuthMiddleware)

		connectionRoutes := apiRoutes.Group("/connections")
		{
			connectionRoutes.POST("/", ctrl.CreateConnection)
			connectionRoutes.GET("/", ctrl.ListConnections)
			connectionRoutes.GET("/:id", ctrl.GetConnection)
			connectionRoutes.PUT("/:id", ctrl.UpdateConnection)
			connectionRoutes.DELETE("/:id", ctrl.DeleteConnection)

			connectionRoutes.POST("/:id/sync", ctrl.TriggerSync)
			connectionRoutes.GET("/:id/products", ctrl.ListProducts)
			connectionRoutes.GET("/:id/products/:product_id", ctrl.GetProduct)
		}

		jobRoutes := apiRoutes.Group("/jobs")
		{
			jobRoutes.GET("/", ctrl.ListJobs)
			jobRoutes.GET("/active", ctrl.ListActiveJobs)
			jobRoutes.GET("/:id", ctrl.GetJob)
			jobRoutes.GET("/:id/stream", ctrl.StreamJob)
		}

		sessionRoutes := apiRoutes.Group("/sessions")
		{
			sessionRoutes.POST("/", ctrl.CreateSession)
			sessionRoutes.GET("/", ctrl.ListSessions)
			sessionRoutes.DELETE("/:id", ctrl.DeleteSession)

			sessionRoutes.GET("/:id/messages", ctrl.ListMessages)
			sessionRoutes.POST("/:id/messages", ctrl.CreateMessage)
		}

		credentialRoutes := apiRoutes.Group("/ai-credential")
		{
			credentialRoutes.PUT("/", ctrl.UpsertCredential)
			credentialRoutes.GET("/", ctrl.GetCredential)
			credentialRoutes.DELETE("/", ctrl.DeleteCredential)
		}
	}
	return r
}

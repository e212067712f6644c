// internal/api/routes/routes.go
package routes

import (
	"context"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"cattle-certification-api-server/config"
	"cattle-certification-api-server/internal/accounts"
	"cattle-certification-api-server/internal/api/handlers"
	"cattle-certification-api-server/internal/api/middleware"
	"cattle-certification-api-server/internal/auth"
	"cattle-certification-api-server/internal/logger"
	"cattle-certification-api-server/internal/lots"
	"cattle-certification-api-server/internal/models"
	"cattle-certification-api-server/internal/requests"
	"cattle-certification-api-server/internal/socket"
	"cattle-certification-api-server/internal/store"
)

// Deps gom các thành phần router cần.
type Deps struct {
	Config   config.Config
	Store    store.Store
	Tokens   *auth.Manager
	Accounts *accounts.Service
	Requests *requests.Service
	Lots     *lots.Service
	Ledger   handlers.Verifier
	Hub      *socket.Hub
	Log      logger.Logger
	// HealthCheck kiểm tra database cho /health; có thể nil.
	HealthCheck func(ctx context.Context) error
}

// SetupRouter nhận vào các thành phần phụ thuộc và thiết lập các route
func SetupRouter(d Deps) *gin.Engine {
	router := gin.Default()
	router.Use(cors.New(corsConfig(d.Config.Server.AllowedOrigins)))

	if d.Log == nil {
		d.Log = logger.Nop()
	}

	// Khởi tạo các handlers
	accountHandler := &handlers.AccountHandler{Accounts: d.Accounts}
	localityHandler := &handlers.LocalityHandler{Localities: d.Store.Localities}
	requestHandler := &handlers.CertificationRequestHandler{Requests: d.Requests, Lots: d.Lots}
	lotHandler := &handlers.LotHandler{Lots: d.Lots}
	documentHandler := &handlers.DocumentHandler{Ledger: d.Ledger, Documents: d.Store.Documents}
	webSocketHandler := &handlers.WebSocketHandler{Hub: d.Hub, Tokens: d.Tokens, Log: d.Log}
	healthHandler := &handlers.HealthHandler{Check: d.HealthCheck}

	router.GET("/health", healthHandler.Health)

	apiV1 := router.Group("/api/v1")
	{
		// === CÁC ROUTE KHÔNG YÊU CẦU XÁC THỰC ===
		apiV1.GET("/ws", webSocketHandler.ServeWs)
		apiV1.POST("/registrations", accountHandler.Register)
		apiV1.POST("/sessions", accountHandler.Login)
		apiV1.GET("/localities", localityHandler.GetAllLocalities)

		// Tra cứu công khai trên blockchain
		apiV1.GET("/certification_documents/:hash/verification", documentHandler.Verify)
		apiV1.GET("/animals/:cuig/certifications", documentHandler.AnimalHistory)

		// === CÁC ROUTE YÊU CẦU XÁC THỰC (PROTECTED) ===
		protected := apiV1.Group("/")
		protected.Use(middleware.Authenticate(d.Tokens))
		{
			protected.GET("/viewer", accountHandler.Viewer)
			protected.GET("/certified_lots", lotHandler.List)

			requestRoutes := protected.Group("/certification_requests")
			{
				requestRoutes.GET("", requestHandler.List)
				requestRoutes.GET("/:id", requestHandler.Get)

				producerRoutes := requestRoutes.Group("")
				producerRoutes.Use(middleware.Authorize(models.RoleProducer))
				{
					producerRoutes.POST("", requestHandler.Create)
					producerRoutes.POST("/:id/assign", requestHandler.Assign)
					producerRoutes.POST("/:id/cancel", requestHandler.Cancel)
				}

				vetRoutes := requestRoutes.Group("")
				vetRoutes.Use(middleware.Authorize(models.RoleVeterinarian))
				{
					vetRoutes.POST("/:id/reject", requestHandler.Reject)
					vetRoutes.POST("/:id/certify", requestHandler.Certify)
				}
			}
		}
	}

	return router
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(origins) == 0 {
		cfg.AllowAllOrigins = true
		cfg.AllowCredentials = false
	} else {
		cfg.AllowOrigins = origins
	}
	return cfg
}

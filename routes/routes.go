package routes

import (
	"time"

	"assetdesk/handlers"
	"assetdesk/middleware"
	"assetdesk/models"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// RegisterAuthRoutes registers the passwordless login endpoints.
func RegisterAuthRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	api := r.Group("/auth")
	{
		api.POST("/send-otp", hb.AuthHandler.SendOTPHandler)
		api.POST("/verify-otp", hb.AuthHandler.VerifyOTPHandler)
		api.POST("/logout", hb.AuthHandler.LogoutHandler)

		api.GET("/me", middleware.SessionAuth(hb.Sessions), hb.AuthHandler.MeHandler)
	}
}

// RegisterChatRoutes registers the chat endpoints. The live stream
// authenticates itself so it can answer with WebSocket close codes.
func RegisterChatRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	api := r.Group("/chat")
	{
		api.GET("/ws", hb.ChatHandler.StreamHandler)

		protected := api.Group("")
		protected.Use(middleware.SessionAuth(hb.Sessions))
		protected.POST("/messages", hb.ChatHandler.SendMessageHandler)
		protected.GET("/messages/:user_id", hb.ChatHandler.HistoryHandler)
		protected.POST("/messages/:id/read", hb.ChatHandler.MarkReadHandler)
		protected.GET("/conversations", hb.ChatHandler.ConversationsHandler)
		protected.POST("/conversations/:user_id/read", hb.ChatHandler.MarkConversationReadHandler)
		protected.GET("/unread-counts", hb.ChatHandler.UnreadCountsHandler)
	}
}

// RegisterAPIRoutes registers endpoints for machine clients.
func RegisterAPIRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	api := r.Group("/api")
	{
		api.Use(middleware.APITokenAuth(hb.APIToken))
		api.GET("/employees", hb.EmployeeHandler.ListEmployeesHandler)
	}
}

// RegisterAdminRoutes sets up endpoints for admin operations.
func RegisterAdminRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	adminGroup := r.Group("/admin")
	{
		adminGroup.Use(middleware.SessionAuth(hb.Sessions), middleware.RequireRole(models.RoleAdmin))
		adminGroup.PUT("/employees/:id/role", hb.EmployeeHandler.UpdateRoleHandler)
	}
}

// RegisterHealthRoute registers a health-check endpoint.
func RegisterHealthRoute(r *gin.Engine, hb *handlers.HandlerBundle) {
	r.GET("/health", hb.HealthHandler.HealthCheckHandler)
}

// RegisterRoutes centralizes registration of all endpoints and CORS.
func RegisterRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Authorization", "Content-Type"},
		ExposeHeaders:    []string{"Content-Length", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	RegisterAuthRoutes(r, hb)
	RegisterChatRoutes(r, hb)
	RegisterAPIRoutes(r, hb)
	RegisterAdminRoutes(r, hb)
	RegisterHealthRoute(r, hb)
}

package api

import (
	"github.com/gin-gonic/gin"

	"github.com/charlesng35/authcore/internal/handlers"
	"github.com/charlesng35/authcore/internal/middleware"
)

func registerAuthRoutes(engine *gin.Engine, handler *handlers.AuthHandler) {
	auth := engine.Group("/api/auth")
	{
		auth.POST("/register", handler.Register)
		auth.POST("/login", handler.Login)
		auth.POST("/logout", handler.Logout)
		auth.POST("/resend-verification", handler.ResendVerification)
		auth.POST("/forgot-password", handler.ForgotPassword)
		auth.POST("/reset-password", handler.ResetPassword)
		auth.GET("/me", middleware.RequireAuth(), handler.Me)
	}

	engine.GET("/auth/verify-email", handler.VerifyEmail)
}

func registerGoogleRoutes(engine *gin.Engine, handler *handlers.GoogleHandler) {
	google := engine.Group("/auth/google")
	{
		google.GET("", handler.Begin)
		google.GET("/callback", handler.Callback)
	}
}

package handlers

import (
	"net/http"

	"assetdesk/middleware"
	"assetdesk/services/auth"
	"assetdesk/services/session"
	"assetdesk/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// AuthHandler serves the passwordless login endpoints.
type AuthHandler struct {
	AuthService  auth.AuthService
	CookieSecure bool
}

func NewAuthHandler(svc auth.AuthService, cookieSecure bool) *AuthHandler {
	return &AuthHandler{AuthService: svc, CookieSecure: cookieSecure}
}

func (h *AuthHandler) setSessionCookie(c *gin.Context, value string, maxAge int) {
	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(middleware.SessionCookie, value, maxAge, "/", "", h.CookieSecure, true)
}

// SendOTPHandler handles POST /auth/send-otp.
func (h *AuthHandler) SendOTPHandler(c *gin.Context) {
	var req struct {
		Email string `json:"email" binding:"required,email"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, utils.ValidationError("a valid email is required"))
		return
	}

	if err := h.AuthService.RequestOTP(c.Request.Context(), req.Email); err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "OTP sent"})
}

// VerifyOTPHandler handles POST /auth/verify-otp and sets the session cookie.
func (h *AuthHandler) VerifyOTPHandler(c *gin.Context) {
	var req struct {
		Email string `json:"email" binding:"required"`
		OTP   string `json:"otp" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, utils.ValidationError("email and otp are required"))
		return
	}

	sessionID, err := h.AuthService.VerifyOTP(c.Request.Context(), req.Email, req.OTP)
	if err != nil {
		utils.RespondError(c, err)
		return
	}

	h.setSessionCookie(c, sessionID, int(session.DefaultTTL.Seconds()))
	c.JSON(http.StatusOK, gin.H{"message": "logged in"})
}

// LogoutHandler handles POST /auth/logout. It succeeds without a session.
func (h *AuthHandler) LogoutHandler(c *gin.Context) {
	sessionID, _ := c.Cookie(middleware.SessionCookie)
	h.setSessionCookie(c, "", -1)

	if err := h.AuthService.Logout(c.Request.Context(), sessionID); err != nil {
		getLogger(c).Error("Logout failed", zap.Error(err))
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "logged out"})
}

// MeHandler handles GET /auth/me.
func (h *AuthHandler) MeHandler(c *gin.Context) {
	ident := middleware.CurrentIdentity(c)
	if ident == nil {
		utils.RespondError(c, utils.SessionExpired("login required"))
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"user_id": ident.UserID,
		"email":   ident.Email,
		"role":    ident.Role,
	})
}

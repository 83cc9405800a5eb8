package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/RentalBee/service-rental/internal/application"
	"github.com/RentalBee/service-rental/internal/common/auth"
	"github.com/RentalBee/service-rental/internal/common/middleware"
	"github.com/RentalBee/service-rental/internal/common/response"
)

// AuthHandler handles sign-up, sign-in and session requests.
type AuthHandler struct {
	service      *application.AuthService
	secureCookie bool
}

// NewAuthHandler creates a new AuthHandler. secureCookie marks the access
// token cookie Secure, which browsers only send over HTTPS.
func NewAuthHandler(service *application.AuthService, secureCookie bool) *AuthHandler {
	return &AuthHandler{service: service, secureCookie: secureCookie}
}

// RegisterRoutes registers the auth routes.
func (h *AuthHandler) RegisterRoutes(r *gin.RouterGroup, jwtManager *auth.JWTManager) {
	authMW := middleware.AuthMiddleware(jwtManager)

	a := r.Group("/api/v1/auth")
	{
		a.POST("/send-otp", h.SendOTP)
		a.POST("/sign-up", h.SignUp)
		a.POST("/sign-in", h.SignIn)
		a.POST("/logout", h.Logout)
		a.PUT("/change-password", authMW, h.ChangePassword)
	}
}

// SendOTP handles POST /api/v1/auth/send-otp.
func (h *AuthHandler) SendOTP(c *gin.Context) {
	var req application.SendOTPRequest
	if !bindJSON(c, &req) {
		return
	}

	if err := h.service.SendOTP(c.Request.Context(), req); err != nil {
		response.Error(c, err)
		return
	}

	response.Message(c, http.StatusOK, "A verification code has been sent to your email.")
}

// SignUp handles POST /api/v1/auth/sign-up.
func (h *AuthHandler) SignUp(c *gin.Context) {
	var req application.SignUpRequest
	if !bindJSON(c, &req) {
		return
	}

	result, err := h.service.SignUp(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	h.setTokenCookie(c, result.AccessToken, int(result.ExpiresIn))
	response.Created(c, result)
}

// SignIn handles POST /api/v1/auth/sign-in.
func (h *AuthHandler) SignIn(c *gin.Context) {
	var req application.SignInRequest
	if !bindJSON(c, &req) {
		return
	}

	result, err := h.service.SignIn(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	h.setTokenCookie(c, result.AccessToken, int(result.ExpiresIn))
	response.Success(c, result)
}

// Logout handles POST /api/v1/auth/logout. Tokens are stateless, so this
// only clears the cookie.
func (h *AuthHandler) Logout(c *gin.Context) {
	h.setTokenCookie(c, "", -1)
	response.Message(c, http.StatusOK, "Logged out successfully.")
}

// ChangePassword handles PUT /api/v1/auth/change-password.
func (h *AuthHandler) ChangePassword(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	var req application.ChangePasswordRequest
	if !bindJSON(c, &req) {
		return
	}

	if err := h.service.ChangePassword(c.Request.Context(), userID, req); err != nil {
		response.Error(c, err)
		return
	}

	response.Message(c, http.StatusOK, "Password updated successfully.")
}

func (h *AuthHandler) setTokenCookie(c *gin.Context, token string, maxAge int) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(auth.AccessTokenCookie, token, maxAge, "/", "", h.secureCookie, true)
}

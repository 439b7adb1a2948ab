package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	. "taskmanager/internal/adapter/http/helper"
	"taskmanager/internal/adapter/http/middleware"
	. "taskmanager/internal/adapter/http/validation"
	"taskmanager/internal/core/domain"
	"taskmanager/internal/core/model/request"
	"taskmanager/internal/core/model/response"
	"taskmanager/internal/core/port"
	"taskmanager/pkg/auth"
	"taskmanager/pkg/config"
)

// SessionCookie controls the attributes of the session cookie.
type SessionCookie struct {
	TTL    time.Duration
	Secure bool
}

type AuthHandler struct {
	svc    port.AuthService
	idp    port.IdentityProvider
	cookie SessionCookie
	Logger *config.LokiLogger
}

func NewAuthHandler(svc port.AuthService, idp port.IdentityProvider, cookie SessionCookie, logger *config.LokiLogger) *AuthHandler {
	if cookie.TTL <= 0 {
		cookie.TTL = auth.DefaultTTL
	}

	if logger == nil {
		logger = config.NewNopLogger()
	}

	return &AuthHandler{svc: svc, idp: idp, cookie: cookie, Logger: logger}
}

func (a *AuthHandler) SignUp(c *gin.Context) {
	var params request.SignUpRequest

	if err := c.ShouldBindJSON(&params); err != nil {
		SendBadRequest(c, MessageInvalidBody)
		return
	}

	if err := Validator.Struct(params); err != nil {
		SendValidationError(c, err)
		return
	}

	user, err := a.svc.Registration(c.Request.Context(), &params)

	if err != nil {
		a.logFailure(c, "SignUp", params.Email, err)
		SendError(c, err, "Failed to create user")
		return
	}

	c.JSON(http.StatusCreated, response.AuthResponse{User: response.NewUserResponse(*user)})
}

func (a *AuthHandler) Login(c *gin.Context) {
	var params request.LoginRequest

	if err := c.ShouldBindJSON(&params); err != nil {
		SendBadRequest(c, MessageInvalidBody)
		return
	}

	if err := Validator.Struct(params); err != nil {
		SendValidationError(c, err)
		return
	}

	user, err := a.svc.Authenticate(c.Request.Context(), &params)

	if err != nil {
		a.logFailure(c, "Login", params.Email, err)
		SendError(c, err, "Failed to sign in")
		return
	}

	token, err := a.idp.IssueSession(*user)

	if err != nil {
		a.logFailure(c, "Login", user.Email, err)
		SendError(c, err, "Failed to sign in")
		return
	}

	a.setSessionCookie(c, token, int(a.cookie.TTL.Seconds()))

	c.JSON(http.StatusOK, response.AuthResponse{User: response.NewUserResponse(*user)})
}

func (a *AuthHandler) Logout(c *gin.Context) {
	a.setSessionCookie(c, "", -1)
	c.Status(http.StatusNoContent)
}

func (a *AuthHandler) Me(c *gin.Context) {
	principal := middleware.GetPrincipal(c)

	user, err := a.svc.CurrentUser(c.Request.Context(), principal)

	if err != nil {
		a.logFailure(c, "Me", principal.UserID, err)
		SendError(c, err, "Failed to load session")
		return
	}

	c.JSON(http.StatusOK, response.AuthResponse{User: response.NewUserResponse(*user)})
}

func (a *AuthHandler) setSessionCookie(c *gin.Context, token string, maxAge int) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(auth.CookieName, token, maxAge, "/", "", a.cookie.Secure, true)
}

func (a *AuthHandler) logFailure(c *gin.Context, operation, email string, err error) {
	fields := []zap.Field{
		zap.String("operation", operation),
		zap.String("user_id", domain.NormalizeEmail(email)),
		zap.Error(err),
	}

	if StatusFor(err) >= http.StatusInternalServerError {
		a.Logger.ErrorWithTrace(c.Request.Context(), "Auth operation failed", fields...)
		return
	}

	a.Logger.WarnWithTrace(c.Request.Context(), "Auth operation failed", fields...)
}

package auth

import (
	"net/http"

	"hydro-advisor/internal/api/handlers"
	"hydro-advisor/internal/api/middleware"
	"hydro-advisor/internal/core/account"
	"hydro-advisor/internal/infrastructure/config"
	"hydro-advisor/internal/pkg/common"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// CredentialsRequest 登入與註冊請求；email 即為使用者名稱
type CredentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name,omitempty"`
}

// Handler 帳號相關路由
type Handler struct {
	accounts *account.Service
	sessions *account.Sessions
	cookie   config.SessionConfig
	debug    bool
}

// NewHandler 創建處理程序
func NewHandler(accounts *account.Service, sessions *account.Sessions, cookie config.SessionConfig, debug bool) *Handler {
	return &Handler{
		accounts: accounts,
		sessions: sessions,
		cookie:   cookie,
		debug:    debug,
	}
}

// HandleRegister 註冊新帳號
func (h *Handler) HandleRegister(c *gin.Context) {
	var req CredentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handlers.Error(c, common.ErrInvalidRequest.WithErr(err), h.debug)
		return
	}

	if _, err := h.accounts.Register(c.Request.Context(), req.Email, req.Password, req.Name); err != nil {
		handlers.Error(c, err, h.debug)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Registration successful! Please login."})
}

// HandleLogin 驗證帳密並設置 session cookie
func (h *Handler) HandleLogin(c *gin.Context) {
	var req CredentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handlers.Error(c, common.ErrInvalidRequest.WithErr(err), h.debug)
		return
	}

	user, err := h.accounts.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		handlers.Error(c, err, h.debug)
		return
	}

	token, err := h.sessions.Issue(user)
	if err != nil {
		handlers.Error(c, common.ErrInternalError.WithErr(err), h.debug)
		return
	}

	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(h.cookie.CookieName, token, int(h.sessions.TTL().Seconds()), "/", "", h.cookie.Secure, true)

	common.LogInfo("User logged in",
		zap.String("user_id", user.ID),
		zap.String("request_id", handlers.RequestID(c)),
	)
	c.JSON(http.StatusOK, gin.H{"message": "Login successful!"})
}

// HandleLogout 清除 session cookie
func (h *Handler) HandleLogout(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(h.cookie.CookieName, "", -1, "/", "", h.cookie.Secure, true)
	c.JSON(http.StatusOK, gin.H{"message": "Logged out"})
}

// HandleMe 回傳目前登入的使用者
func (h *Handler) HandleMe(c *gin.Context) {
	claims, ok := middleware.SessionClaims(c)
	if !ok {
		handlers.Error(c, common.ErrUnauthorized, h.debug)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"id":       claims.Subject,
		"username": claims.Username,
		"name":     claims.Name,
	})
}

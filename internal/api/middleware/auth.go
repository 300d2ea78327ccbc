package middleware

import (
	"net/http"

	"hydro-advisor/internal/core/account"
	"hydro-advisor/internal/pkg/common"

	"github.com/gin-gonic/gin"
)

const claimsKey = "session_claims"

// SessionAuth 驗證 session cookie，通過後把 claims 放入 context
func SessionAuth(sessions *account.Sessions, cookieName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := c.Cookie(cookieName)
		if err != nil || token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, common.ErrUnauthorized.Response(false))
			return
		}

		claims, err := sessions.Parse(token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, common.ErrUnauthorized.WithMessage("Invalid or expired session").Response(false))
			return
		}

		c.Set(claimsKey, claims)
		c.Set("username", claims.Username)
		c.Next()
	}
}

// SessionClaims 取出 SessionAuth 設置的 claims
func SessionClaims(c *gin.Context) (*account.Claims, bool) {
	v, ok := c.Get(claimsKey)
	if !ok {
		return nil, false
	}
	claims, ok := v.(*account.Claims)
	return claims, ok
}

package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"github.com/jengzang/places-backend-go/pkg/response"
)

// SubjectKey is the gin context key holding the authenticated subject
const SubjectKey = "subject_id"

// JWTAuth requires an HS256 bearer token whose subject claim equals the :subject path
// parameter. With an empty secret every request is let through.
func JWTAuth(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if secret == "" {
			c.Next()
			return
		}

		header := c.GetHeader("Authorization")
		tokenString, found := strings.CutPrefix(header, "Bearer ")
		if !found || tokenString == "" {
			response.AbortWithError(c, http.StatusUnauthorized, "Missing bearer token")
			return
		}

		token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
			return []byte(secret), nil
		}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
		if err != nil || !token.Valid {
			response.AbortWithError(c, http.StatusUnauthorized, "Invalid token")
			return
		}

		sub, err := token.Claims.GetSubject()
		if err != nil || sub == "" {
			response.AbortWithError(c, http.StatusUnauthorized, "Token has no subject")
			return
		}
		if sub != c.Param("subject") {
			response.AbortWithError(c, http.StatusForbidden, "Token subject does not match")
			return
		}

		c.Set(SubjectKey, sub)
		c.Next()
	}
}

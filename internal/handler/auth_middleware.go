package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"github.com/StereoSachiiii/SA-PROJECT-V1/internal/dto"
)

// Roles carried in access tokens
const (
	RoleVendor   = "vendor"
	RoleEmployee = "employee"
	RoleAdmin    = "admin"
)

// AuthMiddleware validates the bearer token and stores the subject's id
// under vendor_id or employee_id depending on role. Admins get both.
func AuthMiddleware(jwtSecret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, dto.ErrorResponse{
				Error: "missing bearer token",
				Code:  "UNAUTHORIZED",
			})
			return
		}

		tokenString := strings.TrimPrefix(header, "Bearer ")
		token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, jwt.ErrSignatureInvalid
			}
			return []byte(jwtSecret), nil
		})
		if err != nil || !token.Valid {
			c.AbortWithStatusJSON(http.StatusUnauthorized, dto.ErrorResponse{
				Error: "invalid or expired token",
				Code:  "UNAUTHORIZED",
			})
			return
		}

		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, dto.ErrorResponse{
				Error: "invalid token claims",
				Code:  "UNAUTHORIZED",
			})
			return
		}

		subject, _ := claims["sub"].(string)
		role, _ := claims["role"].(string)
		if subject == "" || role == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, dto.ErrorResponse{
				Error: "invalid token claims",
				Code:  "UNAUTHORIZED",
			})
			return
		}

		c.Set("subject_id", subject)
		c.Set("role", role)
		switch role {
		case RoleVendor:
			c.Set("vendor_id", subject)
		case RoleEmployee:
			c.Set("employee_id", subject)
		case RoleAdmin:
			c.Set("vendor_id", subject)
			c.Set("employee_id", subject)
		}

		c.Next()
	}
}

// RequireRole rejects requests whose token does not carry one of the given
// roles
func RequireRole(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		role := c.GetString("role")
		for _, allowed := range roles {
			if role == allowed {
				c.Next()
				return
			}
		}
		c.AbortWithStatusJSON(http.StatusForbidden, dto.ErrorResponse{
			Error: "insufficient role",
			Code:  "FORBIDDEN",
		})
	}
}

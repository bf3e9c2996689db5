// internal/middleware/helpers.go
package middleware

import "github.com/gin-gonic/gin"

// GetSubject returns the verified external subject, empty if unauthenticated.
func GetSubject(c *gin.Context) string {
	return c.GetString(ctxSubject)
}

// GetEmail returns the token's email claim, may be empty.
func GetEmail(c *gin.Context) string {
	return c.GetString(ctxEmail)
}

// GetAccessToken returns the raw bearer token the request presented.
func GetAccessToken(c *gin.Context) string {
	return c.GetString(ctxAccessToken)
}

// GetUserID returns the local user id set by ResolveUser.
func GetUserID(c *gin.Context) string {
	return c.GetString(ctxUserID)
}

// IsAuthenticated checks if the request carries a verified identity.
func IsAuthenticated(c *gin.Context) bool {
	_, exists := c.Get(ctxSubject)
	return exists
}

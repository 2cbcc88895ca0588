// Package middleware adapts the teacher's Gin middleware pattern
// (internal/api/middleware/error.go) to the expanded ambient stack:
// CORS via rs/cors, a request-ID + JSON access-log middleware, and the
// teacher's panic-recovery shape kept verbatim for the InputInvalid
// error kind.
package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/cors"
)

// CORS wraps rs/cors (kept from the teacher's go.mod) as a Gin
// middleware, honoring the ALLOWED_ORIGINS env var (comma-separated,
// "*" for any origin).
func CORS(allowedOrigins string) gin.HandlerFunc {
	origins := []string{"*"}
	if allowedOrigins != "" {
		origins = strings.Split(allowedOrigins, ",")
	}

	c := cors.New(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Request-ID"},
		AllowCredentials: true,
	})

	return func(ctx *gin.Context) {
		c.HandlerFunc(ctx.Writer, ctx.Request)
		if ctx.Request.Method == http.MethodOptions {
			ctx.AbortWithStatus(http.StatusNoContent)
			return
		}
		ctx.Next()
	}
}

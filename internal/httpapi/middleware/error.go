package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// ErrorHandler guards against genuine panics, adapted verbatim from
// the teacher's internal/api/middleware/error.go gin.CustomRecovery.
// Domain error kinds (ConstraintBlocked, PredictorUnavailable, etc.)
// never reach here — they are modeled as DecideOutcome values, not
// panics or errors.
func ErrorHandler() gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered interface{}) {
		if err, ok := recovered.(string); ok {
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": gin.H{
					"code":    "INTERNAL_ERROR",
					"message": err,
				},
			})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": gin.H{
					"code":    "INTERNAL_ERROR",
					"message": "An unexpected error occurred",
				},
			})
		}
		c.Abort()
	})
}

// InputError responds 422 with the teacher's ErrorResponse shape.
func InputError(c *gin.Context, message string) {
	c.JSON(http.StatusUnprocessableEntity, gin.H{
		"error": gin.H{
			"code":    "INPUT_INVALID",
			"message": message,
		},
	})
}

package middleware

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// CORS admits the web frontend. Credentials are allowed so the token
// cookie travels with requests, which rules out a wildcard origin.
func CORS(allowOrigins []string) gin.HandlerFunc {
	if len(allowOrigins) == 0 {
		allowOrigins = []string{"http://localhost:5173"}
	}
	return cors.New(cors.Config{
		AllowOrigins: allowOrigins,
		AllowMethods: []string{
			http.MethodGet,
			http.MethodPost,
			http.MethodPut,
			http.MethodDelete,
			http.MethodOptions,
		},
		AllowHeaders: []string{
			"Origin",
			"Content-Type",
			"Accept",
			"Authorization",
			HeaderXRequestID,
		},
		ExposeHeaders:    []string{"Content-Length", HeaderXRequestID},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	})
}

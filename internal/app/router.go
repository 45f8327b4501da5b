package app

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"agroledger.io/agroledger/internal/api/handlers"
	"agroledger.io/agroledger/internal/api/middleware"
	"agroledger.io/agroledger/internal/config"
)

func newRouter(cfg *config.Config, server *handlers.Server) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), middleware.RequestID(), middleware.ErrorHandler())
	router.Use(cors.New(buildCORSConfig(cfg)))

	handlers.RegisterRoutes(router, server, []byte(cfg.Security.JWTSigningKey))
	return router
}

// buildCORSConfig translates server settings into a gin-contrib/cors
// config. A wildcard origin is honored only with the unsafe flag, and
// never together with credentials.
func buildCORSConfig(cfg *config.Config) cors.Config {
	c := cors.DefaultConfig()
	c.AllowCredentials = cfg.Server.AllowCredentials
	c.AddAllowHeaders("Authorization", middleware.RequestIDHeader)

	if cfg.Server.UnsafeAllowAllOrigins {
		c.AllowAllOrigins = true
		c.AllowCredentials = false
		c.AllowOrigins = nil
		return c
	}

	var origins []string
	for _, o := range cfg.Server.AllowedOrigins {
		if o == "*" {
			continue
		}
		origins = append(origins, o)
	}
	if len(origins) == 0 {
		origins = []string{"http://localhost:3000", "http://localhost:5173"}
	}
	c.AllowOrigins = origins
	return c
}

package main

import (
	"os"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/cyw0ng95/vulnintel/pkg/query"
)

// setupRouter creates the Gin router, registers middleware and the
// read-only query handlers.
func setupRouter(svc *query.Service) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	gin.DefaultWriter = os.Stderr
	gin.DefaultErrorWriter = os.Stderr

	router := gin.New()
	router.Use(gin.RecoveryWithWriter(os.Stderr))
	router.Use(cors.Default())

	restful := router.Group("/restful")
	registerHandlers(restful, svc)

	return router
}

// Package restapi provides the main router and initialization for REST API endpoints.
package restapi

import (
	"log"

	"github.com/gofiber/fiber/v2"
	"github.com/graphql-go/graphql"

	engine "github.com/ortelius/deptree-backend/analysis"
	"github.com/ortelius/deptree-backend/restapi/modules/analysis"
)

// SetupRoutes configures all REST API routes and the GraphQL endpoint.
func SetupRoutes(app *fiber.App, e *engine.Engine, schema graphql.Schema) {
	// API Group /api/v1
	api := app.Group("/api/v1")

	// GraphQL Route - Mounted within the api group to inherit path prefixes
	api.Post("/graphql", GraphQLHandler(schema))

	// Analysis Routes
	api.Post("/analysis", analysis.PostAnalysis(e))
	api.Get("/analysis/:name", analysis.GetAnalysis(e))

	log.Println("API routes initialized successfully")
}

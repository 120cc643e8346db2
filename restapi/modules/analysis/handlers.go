// Package analysis implements the REST API handlers for dependency
// tree analysis requests.
package analysis

import (
	"errors"
	"log"
	"net/url"

	"github.com/gofiber/fiber/v2"

	engine "github.com/ortelius/deptree-backend/analysis"
	"github.com/ortelius/deptree-backend/model"
)

// AnalyzeRequest is the POST body for an analysis run.
type AnalyzeRequest struct {
	Name     string `json:"name"`
	Version  string `json:"version"`
	MaxDepth int    `json:"max_depth"`
}

// PostAnalysis runs a full dependency tree analysis for the requested
// package and version range.
func PostAnalysis(e *engine.Engine) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req AnalyzeRequest
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(model.BadRequest("invalid request body"))
		}

		report, err := e.Analyze(c.UserContext(), req.Name, req.Version, req.MaxDepth)
		if err != nil {
			return writeError(c, err)
		}

		log.Printf("Analyzed %s@%s: %d packages, %d findings, %d failed queries",
			report.Name, report.Version, report.TotalPackages, report.TotalCounts.Total, report.FailedQueries)

		return c.JSON(report)
	}
}

// GetAnalysis is the GET form of PostAnalysis, taking the package name
// as a path parameter and the version range as a query parameter.
// Scoped names arrive percent-encoded.
func GetAnalysis(e *engine.Engine) fiber.Handler {
	return func(c *fiber.Ctx) error {
		name, err := decodeName(c.Params("name"))
		if err != nil {
			return writeError(c, err)
		}

		maxDepth := c.QueryInt("max_depth", 0)
		report, analyzeErr := e.Analyze(c.UserContext(), name, c.Query("version"), maxDepth)
		if analyzeErr != nil {
			return writeError(c, analyzeErr)
		}

		return c.JSON(report)
	}
}

func decodeName(raw string) (string, error) {
	decoded, err := url.PathUnescape(raw)
	if err != nil {
		return "", model.BadRequest("invalid package name encoding")
	}
	return decoded, nil
}

func writeError(c *fiber.Ctx, err error) error {
	var reqErr *model.RequestError
	if errors.As(err, &reqErr) {
		return c.Status(reqErr.Status).JSON(reqErr)
	}
	log.Printf("Analysis failed: %v", err)
	return c.Status(fiber.StatusBadGateway).JSON(model.BadGateway("upstream failure"))
}

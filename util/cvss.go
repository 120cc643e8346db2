// Package util provides utility functions for the backend.
package util

import (
	"strings"

	"github.com/google/osv-scanner/pkg/models"
	gocvss31 "github.com/pandatix/go-cvss/31"
	gocvss40 "github.com/pandatix/go-cvss/40"

	"github.com/ortelius/deptree-backend/model"
)

// CalculateCVSSScore calculates the CVSS base score from a vector string
func CalculateCVSSScore(vectorStr string) float64 {
	if vectorStr == "" || !strings.HasPrefix(vectorStr, "CVSS:") {
		return 0
	}
	if strings.HasPrefix(vectorStr, "CVSS:3.1") || strings.HasPrefix(vectorStr, "CVSS:3.0") {
		if cvss31, err := gocvss31.ParseVector(vectorStr); err == nil {
			return cvss31.BaseScore()
		}
	}
	if strings.HasPrefix(vectorStr, "CVSS:4.0") {
		if cvss40, err := gocvss40.ParseVector(vectorStr); err == nil {
			return cvss40.Score()
		}
	}
	return 0
}

// HighestCVSSScore scans an OSV severity array and returns the highest
// CVSS base score found. The second return is false when no entry
// yields a parseable score.
func HighestCVSSScore(severities []models.Severity) (float64, bool) {
	var highest float64
	found := false
	for _, sev := range severities {
		sevType := string(sev.Type)
		if sevType != "CVSS_V3" && sevType != "CVSS_V4" {
			continue
		}
		score := CalculateCVSSScore(sev.Score)
		if score > 0 {
			found = true
			if score > highest {
				highest = score
			}
		}
	}
	return highest, found
}

// BucketSeverity maps a CVSS base score into the report severity
// levels. A record without a parseable score buckets to unknown.
func BucketSeverity(score float64, hasScore bool) string {
	if !hasScore {
		return model.SeverityUnknown
	}
	switch {
	case score >= 9.0:
		return model.SeverityCritical
	case score >= 7.0:
		return model.SeverityHigh
	case score >= 4.0:
		return model.SeverityModerate
	case score > 0:
		return model.SeverityLow
	default:
		return model.SeverityUnknown
	}
}

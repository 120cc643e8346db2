// Package model - analysis report types returned to the presentation layer.
package model

// Severity levels, highest first. Unknown is assigned when no parseable
// CVSS score is available for a finding.
const (
	SeverityCritical = "critical"
	SeverityHigh     = "high"
	SeverityModerate = "moderate"
	SeverityLow      = "low"
	SeverityUnknown  = "unknown"
)

// SeverityRank returns the sort priority for a severity level,
// lower is more severe. Unrecognized strings rank with unknown.
func SeverityRank(severity string) int {
	switch severity {
	case SeverityCritical:
		return 0
	case SeverityHigh:
		return 1
	case SeverityModerate:
		return 2
	case SeverityLow:
		return 3
	default:
		return 4
	}
}

// VulnerabilityRecord is one finding from the vulnerability database.
type VulnerabilityRecord struct {
	ID       string   `json:"id"`
	Summary  string   `json:"summary"`
	Severity string   `json:"severity"`
	Score    float64  `json:"score,omitempty"`
	Aliases  []string `json:"aliases,omitempty"`
	URL      string   `json:"url"`
}

// SeverityCounts tallies findings by severity level. Total is always
// the sum of the per-level counts.
type SeverityCounts struct {
	Critical int `json:"critical"`
	High     int `json:"high"`
	Moderate int `json:"moderate"`
	Low      int `json:"low"`
	Unknown  int `json:"unknown"`
	Total    int `json:"total"`
}

// Add records one finding at the given severity level.
func (c *SeverityCounts) Add(severity string) {
	switch severity {
	case SeverityCritical:
		c.Critical++
	case SeverityHigh:
		c.High++
	case SeverityModerate:
		c.Moderate++
	case SeverityLow:
		c.Low++
	default:
		c.Unknown++
	}
	c.Total++
}

// Merge folds other into c.
func (c *SeverityCounts) Merge(other SeverityCounts) {
	c.Critical += other.Critical
	c.High += other.High
	c.Moderate += other.Moderate
	c.Low += other.Low
	c.Unknown += other.Unknown
	c.Total += other.Total
}

// PackageVulnerabilityInfo groups the findings for one tree node.
type PackageVulnerabilityInfo struct {
	Node            DependencyNode        `json:"node"`
	Vulnerabilities []VulnerabilityRecord `json:"vulnerabilities"`
	Counts          SeverityCounts        `json:"counts"`
}

// DeprecatedPackageInfo is one deprecated tree node with its registry message.
type DeprecatedPackageInfo struct {
	Node    DependencyNode `json:"node"`
	Message string         `json:"message"`
}

// AnalysisReport is the final product of one analysis request. It is a
// plain acyclic value: the graph is flattened to node lists with path
// arrays, so it serializes to JSON without back-pointers. Vulnerable
// and Deprecated keep breadth-first discovery order. FailedQueries
// counts coordinates that could not be checked and communicates
// degraded confidence rather than blocking the response.
type AnalysisReport struct {
	Name          string                     `json:"name"`
	Version       string                     `json:"version"`
	TotalPackages int                        `json:"total_packages"`
	Vulnerable    []PackageVulnerabilityInfo `json:"vulnerable"`
	Deprecated    []DeprecatedPackageInfo    `json:"deprecated"`
	FailedQueries int                        `json:"failed_queries"`
	TotalCounts   SeverityCounts             `json:"total_counts"`
	Diagnostics   []string                   `json:"diagnostics,omitempty"`
}

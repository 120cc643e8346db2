// Package analysis - report aggregation.
package analysis

import (
	"sort"

	"github.com/ortelius/deptree-backend/model"
	"github.com/ortelius/deptree-backend/vulndb"
)

// AggregateInput carries everything the aggregator merges: the node set
// in discovery order, the vulnerability references per coordinate, the
// resolved detail records, and the partial-failure context accumulated
// upstream.
type AggregateInput struct {
	Name            string
	Version         string
	Nodes           []model.DependencyNode
	VulnRefs        map[vulndb.Coordinate][]vulndb.VulnRef
	Details         map[string]model.VulnerabilityRecord
	FailedDetailIDs []string
	FailedQueries   int
	Diagnostics     []string
}

// Aggregate merges graph nodes with vulnerability and deprecation data
// into the final report. The vulnerable and deprecated lists keep
// breadth-first discovery order; tree-wide counts are straight sums of
// the per-node counts; TotalPackages is the deduplicated node-set
// size. A node whose findings were lost to a failed detail fetch adds
// one to FailedQueries and contributes no partial findings.
func Aggregate(in AggregateInput) *model.AnalysisReport {
	report := &model.AnalysisReport{
		Name:          in.Name,
		Version:       in.Version,
		TotalPackages: len(in.Nodes),
		Vulnerable:    []model.PackageVulnerabilityInfo{},
		Deprecated:    []model.DeprecatedPackageInfo{},
		FailedQueries: in.FailedQueries,
		Diagnostics:   in.Diagnostics,
	}

	failedIDs := make(map[string]bool, len(in.FailedDetailIDs))
	for _, id := range in.FailedDetailIDs {
		failedIDs[id] = true
	}

	for _, node := range in.Nodes {
		coord := vulndb.Coordinate{Name: node.Name, Version: node.Version}

		var records []model.VulnerabilityRecord
		degraded := false
		for _, ref := range in.VulnRefs[coord] {
			if record, ok := in.Details[ref.ID]; ok {
				records = append(records, record)
			} else if failedIDs[ref.ID] {
				degraded = true
			}
		}
		if degraded {
			// A degraded coordinate reports no partial findings.
			report.FailedQueries++
			records = nil
		}

		if len(records) > 0 {
			sortRecords(records)
			info := model.PackageVulnerabilityInfo{Node: node, Vulnerabilities: records}
			for _, record := range records {
				info.Counts.Add(record.Severity)
			}
			report.TotalCounts.Merge(info.Counts)
			report.Vulnerable = append(report.Vulnerable, info)
		}

		if node.Deprecated != "" {
			report.Deprecated = append(report.Deprecated, model.DeprecatedPackageInfo{
				Node:    node,
				Message: node.Deprecated,
			})
		}
	}

	return report
}

// sortRecords orders one node's findings by severity priority, then ID
// for a stable tie-break.
func sortRecords(records []model.VulnerabilityRecord) {
	sort.SliceStable(records, func(i, j int) bool {
		ri, rj := model.SeverityRank(records[i].Severity), model.SeverityRank(records[j].Severity)
		if ri != rj {
			return ri < rj
		}
		return records[i].ID < records[j].ID
	})
}

// Package graphql exposes the analysis engine through a GraphQL query
// surface mounted behind the REST API.
package graphql

import (
	"github.com/graphql-go/graphql"

	"github.com/ortelius/deptree-backend/analysis"
	"github.com/ortelius/deptree-backend/model"
)

var engine *analysis.Engine

// InitEngine stores the engine used by the schema resolvers.
func InitEngine(e *analysis.Engine) {
	engine = e
}

// SeverityCountsType tallies findings by severity level.
var SeverityCountsType = graphql.NewObject(graphql.ObjectConfig{
	Name: "SeverityCounts",
	Fields: graphql.Fields{
		"critical": &graphql.Field{Type: graphql.Int},
		"high":     &graphql.Field{Type: graphql.Int},
		"moderate": &graphql.Field{Type: graphql.Int},
		"low":      &graphql.Field{Type: graphql.Int},
		"unknown":  &graphql.Field{Type: graphql.Int},
		"total":    &graphql.Field{Type: graphql.Int},
	},
})

// DependencyNodeType is one resolved package occurrence in the tree.
var DependencyNodeType = graphql.NewObject(graphql.ObjectConfig{
	Name: "DependencyNode",
	Fields: graphql.Fields{
		"name":    &graphql.Field{Type: graphql.String},
		"version": &graphql.Field{Type: graphql.String},
		"depth":   &graphql.Field{Type: graphql.Int},
		"path":    &graphql.Field{Type: graphql.NewList(graphql.String)},
		"purl":    &graphql.Field{Type: graphql.String},
		"relation": &graphql.Field{
			Type: graphql.String,
			Resolve: func(p graphql.ResolveParams) (interface{}, error) {
				if node, ok := p.Source.(model.DependencyNode); ok {
					return node.Relation(), nil
				}
				return nil, nil
			},
		},
	},
})

// VulnerabilityType is one finding from the vulnerability database.
var VulnerabilityType = graphql.NewObject(graphql.ObjectConfig{
	Name: "Vulnerability",
	Fields: graphql.Fields{
		"id":       &graphql.Field{Type: graphql.String},
		"summary":  &graphql.Field{Type: graphql.String},
		"severity": &graphql.Field{Type: graphql.String},
		"score":    &graphql.Field{Type: graphql.Float},
		"aliases":  &graphql.Field{Type: graphql.NewList(graphql.String)},
		"url":      &graphql.Field{Type: graphql.String},
	},
})

// VulnerablePackageType groups the findings for one tree node.
var VulnerablePackageType = graphql.NewObject(graphql.ObjectConfig{
	Name: "VulnerablePackage",
	Fields: graphql.Fields{
		"node":            &graphql.Field{Type: DependencyNodeType},
		"vulnerabilities": &graphql.Field{Type: graphql.NewList(VulnerabilityType)},
		"counts":          &graphql.Field{Type: SeverityCountsType},
	},
})

// DeprecatedPackageType is one deprecated tree node with its message.
var DeprecatedPackageType = graphql.NewObject(graphql.ObjectConfig{
	Name: "DeprecatedPackage",
	Fields: graphql.Fields{
		"node":    &graphql.Field{Type: DependencyNodeType},
		"message": &graphql.Field{Type: graphql.String},
	},
})

// AnalysisReportType is the full report for one package@version.
var AnalysisReportType = graphql.NewObject(graphql.ObjectConfig{
	Name: "AnalysisReport",
	Fields: graphql.Fields{
		"name":           &graphql.Field{Type: graphql.String},
		"version":        &graphql.Field{Type: graphql.String},
		"total_packages": &graphql.Field{Type: graphql.Int},
		"vulnerable":     &graphql.Field{Type: graphql.NewList(VulnerablePackageType)},
		"deprecated":     &graphql.Field{Type: graphql.NewList(DeprecatedPackageType)},
		"failed_queries": &graphql.Field{Type: graphql.Int},
		"total_counts":   &graphql.Field{Type: SeverityCountsType},
		"diagnostics":    &graphql.Field{Type: graphql.NewList(graphql.String)},
	},
})

// CreateSchema builds the root query schema.
func CreateSchema() (graphql.Schema, error) {
	rootQuery := graphql.NewObject(graphql.ObjectConfig{
		Name: "Query",
		Fields: graphql.Fields{
			"analysis": &graphql.Field{
				Type: AnalysisReportType,
				Args: graphql.FieldConfigArgument{
					"name":     &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
					"version":  &graphql.ArgumentConfig{Type: graphql.String},
					"maxDepth": &graphql.ArgumentConfig{Type: graphql.Int, DefaultValue: 0},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					name := p.Args["name"].(string)
					version, _ := p.Args["version"].(string)
					maxDepth, _ := p.Args["maxDepth"].(int)

					report, err := engine.Analyze(p.Context, name, version, maxDepth)
					if err != nil {
						return nil, err
					}
					return *report, nil
				},
			},
		},
	})

	return graphql.NewSchema(graphql.SchemaConfig{Query: rootQuery})
}

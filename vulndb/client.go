// Package vulndb - batched vulnerability database (OSV) client.
package vulndb

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/osv-scanner/pkg/models"

	"github.com/ortelius/deptree-backend/internal/worker"
	"github.com/ortelius/deptree-backend/model"
	"github.com/ortelius/deptree-backend/util"
)

var logger = util.InitLogger()

// DefaultBaseURL is the public OSV API.
const DefaultBaseURL = "https://api.osv.dev"

// Ecosystem tags every query; the registry only serves npm coordinates.
const Ecosystem = "npm"

// DefaultBatchSize matches the upstream batch-query guidance.
const DefaultBatchSize = 100

// Coordinate identifies one package@version to query.
type Coordinate struct {
	Name    string
	Version string
}

func (c Coordinate) String() string { return c.Name + "@" + c.Version }

// VulnRef is the id+modified pair the batch endpoint returns per hit.
// Full records come from a second detail pass for the distinct IDs.
type VulnRef struct {
	ID       string `json:"id"`
	Modified string `json:"modified"`
}

type batchQuery struct {
	Package struct {
		Name      string `json:"name"`
		Ecosystem string `json:"ecosystem"`
	} `json:"package"`
	Version string `json:"version"`
}

type batchRequest struct {
	Queries []batchQuery `json:"queries"`
}

type batchResponse struct {
	Results []struct {
		Vulns []VulnRef `json:"vulns"`
	} `json:"results"`
}

// Client queries the vulnerability database in fixed-size batches
// dispatched through the bounded concurrency mapper.
type Client struct {
	baseURL     string
	httpClient  *http.Client
	batchSize   int
	concurrency int
}

// NewClient builds an OSV client. Zero values select the public API,
// DefaultBatchSize, and the mapper's default concurrency.
func NewClient(baseURL string, batchSize, concurrency int) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	return &Client{
		baseURL:     strings.TrimRight(baseURL, "/"),
		httpClient:  &http.Client{Timeout: 30 * time.Second},
		batchSize:   batchSize,
		concurrency: concurrency,
	}
}

type chunkResult struct {
	refs [][]VulnRef
	err  error
}

// QueryBatch maps every coordinate to the vulnerability references
// affecting it. A failed chunk isolates to its own coordinates: they
// are returned in the failed slice and excluded from the result map,
// and the call itself still succeeds for everything else.
func (c *Client) QueryBatch(ctx context.Context, coords []Coordinate) (map[Coordinate][]VulnRef, []Coordinate) {
	found := make(map[Coordinate][]VulnRef)
	var failed []Coordinate
	if len(coords) == 0 {
		return found, nil
	}

	chunks := chunkCoordinates(coords, c.batchSize)

	// Chunk errors are captured per result so one bad chunk cannot
	// reject the mapper call and take its siblings with it.
	results, _ := worker.Map(ctx, chunks, c.concurrency, func(ctx context.Context, _ int, chunk []Coordinate) (chunkResult, error) {
		refs, err := c.queryChunk(ctx, chunk)
		return chunkResult{refs: refs, err: err}, nil
	})

	for i, res := range results {
		if res.err != nil {
			logger.Sugar().Warnf("Vulnerability batch query failed for %d coordinates: %v", len(chunks[i]), res.err)
			failed = append(failed, chunks[i]...)
			continue
		}
		for j, coord := range chunks[i] {
			if len(res.refs[j]) > 0 {
				found[coord] = res.refs[j]
			}
		}
	}
	return found, failed
}

// queryChunk posts one batch query. The response carries one result
// per input query, in the same order.
func (c *Client) queryChunk(ctx context.Context, chunk []Coordinate) ([][]VulnRef, error) {
	req := batchRequest{Queries: make([]batchQuery, len(chunk))}
	for i, coord := range chunk {
		req.Queries[i].Package.Name = coord.Name
		req.Queries[i].Package.Ecosystem = Ecosystem
		req.Queries[i].Version = coord.Version
	}

	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("encoding batch request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/querybatch", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body) //nolint:errcheck
		return nil, fmt.Errorf("vulnerability database returned status %d", resp.StatusCode)
	}

	var decoded batchResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("decoding batch response: %w", err)
	}
	if len(decoded.Results) != len(chunk) {
		return nil, fmt.Errorf("batch response has %d results for %d queries", len(decoded.Results), len(chunk))
	}

	refs := make([][]VulnRef, len(chunk))
	for i, result := range decoded.Results {
		refs[i] = result.Vulns
	}
	return refs, nil
}

type detailResult struct {
	record model.VulnerabilityRecord
	err    error
}

// FetchDetails resolves full records for a set of vulnerability IDs.
// The wire format is one GET per ID, fanned out through the mapper;
// IDs whose fetch fails come back in the failed slice.
func (c *Client) FetchDetails(ctx context.Context, ids []string) (map[string]model.VulnerabilityRecord, []string) {
	records := make(map[string]model.VulnerabilityRecord)
	var failed []string
	if len(ids) == 0 {
		return records, nil
	}

	results, _ := worker.Map(ctx, ids, c.concurrency, func(ctx context.Context, _ int, id string) (detailResult, error) {
		record, err := c.fetchDetail(ctx, id)
		return detailResult{record: record, err: err}, nil
	})

	for i, res := range results {
		if res.err != nil {
			logger.Sugar().Warnf("Vulnerability detail fetch for %s failed: %v", ids[i], res.err)
			failed = append(failed, ids[i])
			continue
		}
		records[ids[i]] = res.record
	}
	return records, failed
}

func (c *Client) fetchDetail(ctx context.Context, id string) (model.VulnerabilityRecord, error) {
	var record model.VulnerabilityRecord

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/v1/vulns/"+id, nil)
	if err != nil {
		return record, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return record, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body) //nolint:errcheck
		return record, fmt.Errorf("vulnerability database returned status %d", resp.StatusCode)
	}

	var vuln models.Vulnerability
	if err := json.NewDecoder(resp.Body).Decode(&vuln); err != nil {
		return record, fmt.Errorf("decoding vulnerability %s: %w", id, err)
	}
	return RecordFromOSV(vuln), nil
}

// RecordFromOSV reduces a full OSV document to the report record:
// highest CVSS base score wins, no parseable score buckets to unknown.
func RecordFromOSV(vuln models.Vulnerability) model.VulnerabilityRecord {
	score, hasScore := util.HighestCVSSScore(vuln.Severity)
	summary := vuln.Summary
	if summary == "" {
		summary = vuln.Details
	}
	return model.VulnerabilityRecord{
		ID:       vuln.ID,
		Summary:  summary,
		Severity: util.BucketSeverity(score, hasScore),
		Score:    score,
		Aliases:  vuln.Aliases,
		URL:      "https://osv.dev/vulnerability/" + vuln.ID,
	}
}

func chunkCoordinates(coords []Coordinate, size int) [][]Coordinate {
	var chunks [][]Coordinate
	for start := 0; start < len(coords); start += size {
		end := start + size
		if end > len(coords) {
			end = len(coords)
		}
		chunks = append(chunks, coords[start:end])
	}
	return chunks
}

package queries

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
)

type QueryResult struct {
	Data      []map[string]interface{}
	TotalHits int64
	MaxScore  float64
	Took      int64
}

func Execute(ctx context.Context, esClient *elasticsearch.Client, input map[string]interface{}) (*QueryResult, error) {
	eq := ElasticsearchQuery{
		Filters:    map[string]interface{}{},
		Pagination: struct{ From, Size int }{0, 20},
	}

	if index, ok := input["indexName"].(string); ok {
		eq.Index = index
	}
	if queryType, ok := input["queryType"].(string); ok {
		eq.QueryType = queryType
	}
	if filters, ok := input["filters"].(map[string]interface{}); ok && filters != nil {
		eq.Filters = filters
	}
	if scholarshipID, ok := input["scholarshipId"].(string); ok {
		eq.ScholarshipID = scholarshipID
	}
	if fieldOfStudy, ok := input["fieldOfStudy"].(string); ok {
		eq.FieldOfStudy = fieldOfStudy
	}
	if pagination, ok := input["pagination"].(map[string]interface{}); ok {
		if from, exists := pagination["from"].(float64); exists && from >= 0 {
			eq.Pagination.From = int(from)
		}
		if size, exists := pagination["size"].(float64); exists {
			eq.Pagination.Size = int(size)
			if eq.Pagination.Size > 100 {
				eq.Pagination.Size = 100
			}
			if eq.Pagination.Size < 1 {
				eq.Pagination.Size = 20
			}
		}
	}

	req, err := BuildQuery(esClient, eq)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	res, err := req.Do(ctx, esClient)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, fmt.Errorf("search query failed: %s", res.String())
	}

	var r map[string]interface{}
	if err := json.NewDecoder(res.Body).Decode(&r); err != nil {
		return nil, err
	}

	hits, ok := r["hits"].(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("malformed search response: missing hits")
	}

	var total float64
	if t, ok := hits["total"].(map[string]interface{}); ok {
		total, _ = t["value"].(float64)
	}
	maxScore := 0.0
	if ms, ok := hits["max_score"].(float64); ok {
		maxScore = ms
	}

	var data []map[string]interface{}
	if hitList, ok := hits["hits"].([]interface{}); ok {
		for _, hit := range hitList {
			hitMap, ok := hit.(map[string]interface{})
			if !ok {
				continue
			}
			source, ok := hitMap["_source"].(map[string]interface{})
			if !ok {
				continue
			}
			if score, ok := hitMap["_score"].(float64); ok {
				source["_score"] = score
			}
			data = append(data, source)
		}
	}

	return &QueryResult{
		Data:      data,
		TotalHits: int64(total),
		MaxScore:  maxScore,
		Took:      time.Since(start).Milliseconds(),
	}, nil
}

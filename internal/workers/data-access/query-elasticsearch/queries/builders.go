package queries

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
)

var (
	ErrUnknownQueryType = errors.New("unknown query type")
	ErrMissingIndex     = errors.New("index name is required")
)

type ElasticsearchQuery struct {
	Index         string
	QueryType     string
	Filters       map[string]interface{}
	ScholarshipID string
	FieldOfStudy  string
	Pagination    struct {
		From int
		Size int
	}
}

// BuildQuery builds an Elasticsearch search request based on query type and filters
func BuildQuery(esClient *elasticsearch.Client, eq ElasticsearchQuery) (*esapi.SearchRequest, error) {
	if eq.Index == "" {
		return nil, ErrMissingIndex
	}

	var queryBody map[string]interface{}

	switch eq.QueryType {
	case "scholarship_index":
		queryBody = buildScholarshipSearchQuery(eq)
	case "related_scholarships":
		queryBody = buildRelatedScholarshipsQuery(eq)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownQueryType, eq.QueryType)
	}

	body, _ := json.Marshal(queryBody)

	req := esapi.SearchRequest{
		Index: []string{eq.Index},
		Body:  strings.NewReader(string(body)),
		From:  &eq.Pagination.From,
		Size:  &eq.Pagination.Size,
	}

	return &req, nil
}

func buildScholarshipSearchQuery(eq ElasticsearchQuery) map[string]interface{} {
	boolQuery := make(map[string]interface{})
	mustClauses := []interface{}{}
	filterClauses := []interface{}{}

	if keywords, ok := eq.Filters["keywords"].(string); ok && keywords != "" {
		mustClauses = append(mustClauses, map[string]interface{}{
			"multi_match": map[string]interface{}{
				"query":  keywords,
				"fields": []string{"name^3", "description^2", "provider"},
				"type":   "best_fields",
			},
		})
	}

	if fields := stringTerms(eq.Filters["fieldsOfStudy"]); len(fields) > 0 {
		filterClauses = append(filterClauses, map[string]interface{}{
			"terms": map[string]interface{}{"fields_of_study": fields},
		})
	} else if eq.FieldOfStudy != "" {
		filterClauses = append(filterClauses, map[string]interface{}{
			"term": map[string]interface{}{"fields_of_study": eq.FieldOfStudy},
		})
	}

	if states := stringTerms(eq.Filters["states"]); len(states) > 0 {
		filterClauses = append(filterClauses, map[string]interface{}{
			"terms": map[string]interface{}{"states": states},
		})
	}

	if amountRange, ok := eq.Filters["amountRange"].(map[string]interface{}); ok {
		minVal := toFloat(amountRange["min"])
		maxVal := toFloat(amountRange["max"])

		// A scholarship matches when its award band overlaps the
		// requested range.
		if minVal > 0 {
			filterClauses = append(filterClauses, map[string]interface{}{
				"range": map[string]interface{}{
					"amount_max": map[string]interface{}{"gte": minVal},
				},
			})
		}
		if maxVal > 0 {
			filterClauses = append(filterClauses, map[string]interface{}{
				"range": map[string]interface{}{
					"amount_min": map[string]interface{}{"lte": maxVal},
				},
			})
		}
	}

	if days := toFloat(eq.Filters["deadlineWithinDays"]); days > 0 {
		filterClauses = append(filterClauses, map[string]interface{}{
			"range": map[string]interface{}{
				"deadline": map[string]interface{}{
					"gte": "now",
					"lte": fmt.Sprintf("now+%dd", int(days)),
				},
			},
		})
	}

	if len(mustClauses) == 0 {
		mustClauses = append(mustClauses, map[string]interface{}{"match_all": map[string]interface{}{}})
	}

	boolQuery["must"] = mustClauses
	if len(filterClauses) > 0 {
		boolQuery["filter"] = filterClauses
	}

	query := map[string]interface{}{
		"query": map[string]interface{}{
			"bool": boolQuery,
		},
	}

	if sortBy, ok := eq.Filters["sortBy"].(string); ok {
		switch sortBy {
		case "deadline":
			query["sort"] = []map[string]interface{}{{"deadline": "asc"}}
		case "amount_max":
			query["sort"] = []map[string]interface{}{{"amount_max": "desc"}}
		case "name":
			query["sort"] = []map[string]interface{}{{"name": "asc"}}
		}
	}

	return query
}

func buildRelatedScholarshipsQuery(eq ElasticsearchQuery) map[string]interface{} {
	if eq.ScholarshipID == "" {
		return map[string]interface{}{
			"query": map[string]interface{}{
				"match_none": map[string]interface{}{},
			},
		}
	}

	return map[string]interface{}{
		"query": map[string]interface{}{
			"more_like_this": map[string]interface{}{
				"fields": []string{"name", "description", "fields_of_study"},
				"like": []map[string]interface{}{
					{"_index": eq.Index, "_id": eq.ScholarshipID},
				},
				"min_term_freq":   1,
				"max_query_terms": 12,
				"min_doc_freq":    1,
				"min_word_length": 3,
			},
		},
	}
}

func stringTerms(raw interface{}) []string {
	var terms []string
	switch v := raw.(type) {
	case []interface{}:
		for _, item := range v {
			if s, ok := item.(string); ok && s != "" {
				terms = append(terms, s)
			}
		}
	case []string:
		for _, s := range v {
			if s != "" {
				terms = append(terms, s)
			}
		}
	}
	return terms
}

func toFloat(raw interface{}) float64 {
	switch v := raw.(type) {
	case float64:
		return v
	case int:
		return float64(v)
	case int64:
		return float64(v)
	}
	return 0
}

package queries

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/lib/pq"
)

func ScholarshipDetails(ctx context.Context, db *sql.DB, params map[string]interface{}) (interface{}, int, int64, error) {
	scholarshipIDs, ok := params["scholarshipIds"].([]string)
	if !ok || len(scholarshipIDs) == 0 {
		if id, single := params["scholarshipId"].(string); single && id != "" {
			scholarshipIDs = []string{id}
		} else {
			return nil, 0, 0, ErrMissingParam
		}
	}

	start := time.Now()

	rows, err := db.QueryContext(ctx, `
		SELECT id, name, provider, description, amount_min, amount_max,
		       deadline, criteria, application_count, view_count
		FROM scholarships
		WHERE id = ANY($1)`, pq.Array(scholarshipIDs))
	if err != nil {
		return nil, 0, 0, err
	}
	defer rows.Close()

	var results []map[string]interface{}
	for rows.Next() {
		var id, name, provider, description, deadline string
		var amountMin, amountMax, applicationCount, viewCount int
		var criteriaJSON []byte

		err := rows.Scan(&id, &name, &provider, &description,
			&amountMin, &amountMax, &deadline, &criteriaJSON,
			&applicationCount, &viewCount)
		if err != nil {
			return nil, 0, 0, err
		}

		var criteria map[string]interface{}
		if len(criteriaJSON) > 0 {
			if err := json.Unmarshal(criteriaJSON, &criteria); err != nil {
				return nil, 0, 0, err
			}
		}

		results = append(results, map[string]interface{}{
			"id":               id,
			"name":             name,
			"provider":         provider,
			"description":      description,
			"amountMin":        amountMin,
			"amountMax":        amountMax,
			"deadline":         deadline,
			"criteria":         criteria,
			"applicationCount": applicationCount,
			"viewCount":        viewCount,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, 0, 0, err
	}

	// Requesting details for IDs that all miss is a caller error,
	// not an empty page.
	if len(results) == 0 {
		return nil, 0, 0, ErrScholarshipMissing
	}

	execTime := time.Since(start).Milliseconds()
	return results, len(results), execTime, nil
}

func ScholarshipDeadlines(ctx context.Context, db *sql.DB, params map[string]interface{}) (interface{}, int, int64, error) {
	studentID, ok := params["studentId"].(string)
	if !ok {
		return nil, 0, 0, ErrMissingParam
	}

	start := time.Now()

	rows, err := db.QueryContext(ctx, `
		SELECT a.id, s.id, s.name, s.deadline, a.status
		FROM applications a
		JOIN scholarships s ON s.id = a.scholarship_id
		WHERE a.student_id = $1 AND s.deadline >= CURRENT_DATE
		ORDER BY s.deadline ASC`, studentID)
	if err != nil {
		return nil, 0, 0, err
	}
	defer rows.Close()

	var results []map[string]interface{}
	for rows.Next() {
		var applicationID, scholarshipID, name, deadline, status string
		if err := rows.Scan(&applicationID, &scholarshipID, &name, &deadline, &status); err != nil {
			return nil, 0, 0, err
		}
		results = append(results, map[string]interface{}{
			"applicationId": applicationID,
			"scholarshipId": scholarshipID,
			"name":          name,
			"deadline":      deadline,
			"status":        status,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, 0, 0, err
	}

	execTime := time.Since(start).Milliseconds()
	return results, len(results), execTime, nil
}

package queries

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"
)

func StudentProfile(ctx context.Context, db *sql.DB, params map[string]interface{}) (interface{}, int, int64, error) {
	studentID, ok := params["studentId"].(string)
	if !ok {
		return nil, 0, 0, ErrMissingParam
	}

	start := time.Now()

	var id, name, email, gradeLevel string
	var profileJSON []byte
	var createdAt, updatedAt string

	err := db.QueryRowContext(ctx, `
		SELECT s.id, s.name, s.email, s.grade_level, p.profile, s.created_at, s.updated_at
		FROM students s
		LEFT JOIN student_profiles p ON p.student_id = s.id
		WHERE s.id = $1`, studentID).Scan(
		&id, &name, &email, &gradeLevel, &profileJSON, &createdAt, &updatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, 0, 0, ErrStudentNotFound
		}
		return nil, 0, 0, err
	}

	var profile map[string]interface{}
	if len(profileJSON) > 0 {
		if err := json.Unmarshal(profileJSON, &profile); err != nil {
			return nil, 0, 0, err
		}
	}

	result := map[string]interface{}{
		"id":         id,
		"name":       name,
		"email":      email,
		"gradeLevel": gradeLevel,
		"profile":    profile,
		"createdAt":  createdAt,
		"updatedAt":  updatedAt,
	}

	execTime := time.Since(start).Milliseconds()
	return result, 1, execTime, nil
}

func ApplicationStats(ctx context.Context, db *sql.DB, params map[string]interface{}) (interface{}, int, int64, error) {
	studentID, ok := params["studentId"].(string)
	if !ok {
		return nil, 0, 0, ErrMissingParam
	}

	start := time.Now()

	rows, err := db.QueryContext(ctx, `
		SELECT status, COUNT(*), COALESCE(AVG(success_probability), 0)
		FROM applications
		WHERE student_id = $1
		GROUP BY status`, studentID)
	if err != nil {
		return nil, 0, 0, err
	}
	defer rows.Close()

	byStatus := map[string]interface{}{}
	total := 0
	for rows.Next() {
		var status string
		var count int
		var avgProbability float64
		if err := rows.Scan(&status, &count, &avgProbability); err != nil {
			return nil, 0, 0, err
		}
		byStatus[status] = map[string]interface{}{
			"count":                 count,
			"avgSuccessProbability": avgProbability,
		}
		total += count
	}
	if err := rows.Err(); err != nil {
		return nil, 0, 0, err
	}

	result := map[string]interface{}{
		"studentId": studentID,
		"total":     total,
		"byStatus":  byStatus,
	}

	execTime := time.Since(start).Milliseconds()
	return result, total, execTime, nil
}

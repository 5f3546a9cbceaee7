package querypostgresql

import "scholarship-workers/internal/models"

type Input struct {
	QueryType      string                 `json:"queryType"`
	StudentID      string                 `json:"studentId,omitempty"`
	ScholarshipID  string                 `json:"scholarshipId,omitempty"`
	ScholarshipIDs []string               `json:"scholarshipIds,omitempty"`
	Filters        map[string]interface{} `json:"filters,omitempty"`
}

type Output struct {
	Data               interface{} `json:"data"`
	RowCount           int         `json:"rowCount"`
	QueryExecutionTime int64       `json:"queryExecutionTime"` // milliseconds
}

type QueryType = models.QueryType

var (
	QueryTypeStudentProfile       = models.QueryTypeStudentProfile
	QueryTypeScholarshipDetails   = models.QueryTypeScholarshipDetails
	QueryTypeScholarshipDeadlines = models.QueryTypeScholarshipDeadlines
	QueryTypeApplicationStats     = models.QueryTypeApplicationStats
)

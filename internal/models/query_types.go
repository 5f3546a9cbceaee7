// internal/models/query_types.go
package models

type QueryType string

const (
	QueryTypeStudentProfile       QueryType = "student_profile"
	QueryTypeScholarshipDetails   QueryType = "scholarship_details"
	QueryTypeScholarshipDeadlines QueryType = "scholarship_deadlines"
	QueryTypeApplicationStats     QueryType = "application_stats"
)

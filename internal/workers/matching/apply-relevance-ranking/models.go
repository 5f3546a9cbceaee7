package applyrelevanceranking

type Input struct {
	SearchResults  []SearchResult      `json:"searchResults"`
	DetailsData    []ScholarshipDetail `json:"detailsData"`
	StudentProfile StudentProfile      `json:"studentProfile"`
}

type SearchResult struct {
	ID     string                 `json:"id"`
	Score  float64                `json:"score"` // Elasticsearch _score
	Source map[string]interface{} `json:"_source"`
}

type ScholarshipDetail struct {
	ID               string   `json:"id"`
	Name             string   `json:"name"`
	AmountMin        int      `json:"amountMin"`
	AmountMax        int      `json:"amountMax"`
	MinGPA           float64  `json:"minGpa,omitempty"`
	FieldsOfStudy    []string `json:"fieldsOfStudy,omitempty"`
	States           []string `json:"states,omitempty"`
	Deadline         string   `json:"deadline,omitempty"` // ISO 8601
	ApplicationCount int      `json:"applicationCount"`
	ViewCount        int      `json:"viewCount"`
}

type StudentProfile struct {
	GPA           float64  `json:"gpa,omitempty"`
	FieldsOfStudy []string `json:"fieldsOfStudy,omitempty"`
	State         string   `json:"state,omitempty"`
	DesiredAmount int      `json:"desiredAmount,omitempty"`
}

type Output struct {
	RankedScholarships []RankedScholarship `json:"rankedScholarships"`
}

type RankedScholarship struct {
	ID              string  `json:"id"`
	Name            string  `json:"name"`
	FinalScore      float64 `json:"finalScore"`
	ESScore         float64 `json:"esScore"`
	MatchScore      float64 `json:"matchScore"`
	PopularityScore float64 `json:"popularityScore"`
	UrgencyScore    float64 `json:"urgencyScore"`
}

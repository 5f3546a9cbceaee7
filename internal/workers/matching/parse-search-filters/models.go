package parsesearchfilters

type Input struct {
	RawFilters map[string]interface{} `json:"rawFilters"`
}

type Output struct {
	ParsedFilters ParsedFilters `json:"parsedFilters"`
}

type ParsedFilters struct {
	FieldsOfStudy      []string    `json:"fieldsOfStudy"`
	States             []string    `json:"states"`
	Keywords           string      `json:"keywords"`
	SortBy             string      `json:"sortBy"`
	DeadlineWithinDays int         `json:"deadlineWithinDays,omitempty"`
	Pagination         Pagination  `json:"pagination"`
	AmountRange        AmountRange `json:"amountRange"`
}

type Pagination struct {
	Page int `json:"page"`
	Size int `json:"size"`
}

type AmountRange struct {
	Min int `json:"min"`
	Max int `json:"max"`
}

package buildresponse

type Input struct {
	TemplateID string                 `json:"templateId"`
	RequestID  string                 `json:"requestId"`
	Data       map[string]interface{} `json:"data"`
	Metadata   map[string]interface{} `json:"metadata,omitempty"`
}

type Output struct {
	Response ResponsePayload `json:"response"`
}

type ResponsePayload struct {
	RequestID string                 `json:"requestId"`
	Status    string                 `json:"status"`
	Data      map[string]interface{} `json:"data"`
	Metadata  ResponseMetadata       `json:"metadata"`
}

type ResponseMetadata struct {
	Timestamp string `json:"timestamp"` // ISO 8601
	Version   string `json:"version"`
}

// TemplateDefinition is one entry in the portal template registry.
// Schema validates the incoming data, Template is the response shape
// with {{placeholder}} markers.
type TemplateDefinition struct {
	ID       string                 `json:"id"`
	Type     string                 `json:"type"` // match-results, application-receipt, essay-feedback
	Schema   map[string]interface{} `json:"schema"`
	Template map[string]interface{} `json:"template"`
	Version  string                 `json:"version"`
}

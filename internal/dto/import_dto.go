package dto

// ImportResponse is returned by POST /v1/catalogs/:catalog/import.
// Status is "success" (HTTP 200) or "partial_success" (HTTP 206).
type ImportResponse struct {
	Status     string   `json:"status"`
	Created    int      `json:"created"`
	Updated    int      `json:"updated"`
	Errors     []string `json:"errors,omitempty"`
	ErrorCount int      `json:"error_count,omitempty"`
}

package models

// ListParams captures the query parameters shared by every list endpoint.
// Zero values are omitted from the outgoing query string.
type ListParams struct {
	Page    int
	PerPage int
	Query   string
	Sort    string
}

// Pagination mirrors the backend's meta.pagination block.
type Pagination struct {
	CurrentPage int `json:"current_page"`
	LastPage    int `json:"last_page"`
	PerPage     int `json:"per_page"`
	Total       int `json:"total"`
}

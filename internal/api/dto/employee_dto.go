package dto

import "github.com/spec-kit/employee-directory/internal/domain"

// CreateEmployeeRequest payload for adding a record.
type CreateEmployeeRequest struct {
	Name       string `json:"name" form:"name"`
	Department string `json:"department" form:"department"`
	Role       string `json:"role" form:"role"`
}

// EmployeeResponse is one record as rendered to clients.
type EmployeeResponse struct {
	Name       string `json:"name"`
	Department string `json:"department"`
	Role       string `json:"role"`
}

// CollectionResponse renders the collection or a filtered view of it.
type CollectionResponse struct {
	Employees []EmployeeResponse `json:"employees"`
	Count     int                `json:"count"`
}

// SearchResponse renders a tagged search result.
type SearchResponse struct {
	Kind    domain.SearchKind  `json:"kind"`
	Records []EmployeeResponse `json:"records,omitempty"`
	Message string             `json:"message,omitempty"`
}

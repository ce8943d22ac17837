package dto

import (
	"github.com/noah-isme/revu-go-api/internal/models"
)

// EmployeeResponse is the wire form of an employee.
type EmployeeResponse struct {
	ID             string  `json:"id"`
	EmployeeNumber string  `json:"employee_number"`
	DisplayName    string  `json:"display_name"`
	UserID         *string `json:"user_id"`
}

// EmployeePage is a paged employee listing.
type EmployeePage struct {
	Items    []EmployeeResponse `json:"items"`
	Total    int64              `json:"total"`
	Page     int                `json:"page"`
	PageSize int                `json:"page_size"`
}

// NewEmployeeResponse maps a model to its wire form.
func NewEmployeeResponse(e models.Employee) EmployeeResponse {
	response := EmployeeResponse{
		ID:             e.ID.String(),
		EmployeeNumber: e.EmployeeNumber,
		DisplayName:    e.DisplayName,
	}
	if e.UserID != nil {
		id := e.UserID.String()
		response.UserID = &id
	}
	return response
}

// NewEmployeeResponseSlice maps a list of employees.
func NewEmployeeResponseSlice(employees []models.Employee) []EmployeeResponse {
	out := make([]EmployeeResponse, 0, len(employees))
	for _, e := range employees {
		out = append(out, NewEmployeeResponse(e))
	}
	return out
}

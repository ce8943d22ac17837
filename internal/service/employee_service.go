package service

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/noah-isme/revu-go-api/internal/dto"
	"github.com/noah-isme/revu-go-api/internal/repository"
)

// EmployeeService exposes the employee directory.
type EmployeeService interface {
	List(ctx context.Context, filter repository.EmployeeFilter) (dto.EmployeePage, error)
	Get(ctx context.Context, id uuid.UUID) (dto.EmployeeResponse, error)
}

type employeeService struct {
	employees repository.EmployeeRepository
	logger    zerolog.Logger
}

// NewEmployeeService builds the employee directory service.
func NewEmployeeService(employees repository.EmployeeRepository, logger zerolog.Logger) EmployeeService {
	return &employeeService{
		employees: employees,
		logger:    logger.With().Str("component", "employee_service").Logger(),
	}
}

func (s *employeeService) List(ctx context.Context, filter repository.EmployeeFilter) (dto.EmployeePage, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize < 1 || filter.PageSize > 100 {
		filter.PageSize = 20
	}

	employees, total, err := s.employees.List(ctx, filter)
	if err != nil {
		return dto.EmployeePage{}, err
	}
	return dto.EmployeePage{
		Items:    dto.NewEmployeeResponseSlice(employees),
		Total:    total,
		Page:     filter.Page,
		PageSize: filter.PageSize,
	}, nil
}

func (s *employeeService) Get(ctx context.Context, id uuid.UUID) (dto.EmployeeResponse, error) {
	employee, err := s.employees.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.EmployeeResponse{}, ErrEmployeeNotFound
		}
		return dto.EmployeeResponse{}, err
	}
	return dto.NewEmployeeResponse(employee), nil
}

package service

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/noah-isme/revu-go-api/internal/dto"
	"github.com/noah-isme/revu-go-api/internal/repository"
)

// UserService resolves authenticated accounts.
type UserService interface {
	Me(ctx context.Context, userID uuid.UUID) (dto.MeResponse, error)
}

type userService struct {
	users repository.UserRepository
}

// NewUserService builds the user profile service.
func NewUserService(users repository.UserRepository) UserService {
	return &userService{users: users}
}

func (s *userService) Me(ctx context.Context, userID uuid.UUID) (dto.MeResponse, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.MeResponse{}, ErrUserNotFound
		}
		return dto.MeResponse{}, err
	}
	return dto.NewMeResponse(user), nil
}

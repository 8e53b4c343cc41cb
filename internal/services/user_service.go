package services

import (
	"context"
	"log/slog"

	"carrental/internal/logger"
	"carrental/internal/models"
	"carrental/internal/repositories"

	"github.com/google/uuid"
)

type UserService interface {
	List(ctx context.Context) ([]*models.User, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	Delete(ctx context.Context, id uuid.UUID) error
	Restore(ctx context.Context, id uuid.UUID) (*models.User, error)
}

type userService struct {
	userRepo repositories.UserRepository
	log      *slog.Logger
}

func NewUserService(userRepo repositories.UserRepository) UserService {
	return &userService{userRepo: userRepo, log: logger.WithService("users")}
}

func (s *userService) List(ctx context.Context) ([]*models.User, error) {
	return s.userRepo.List(ctx)
}

func (s *userService) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return s.userRepo.GetByID(ctx, id)
}

// Delete soft-deletes the user and revokes their refresh token.
func (s *userService) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.userRepo.SoftDelete(ctx, id); err != nil {
		return err
	}
	s.log.Info("user soft-deleted", "user_id", id)
	return nil
}

func (s *userService) Restore(ctx context.Context, id uuid.UUID) (*models.User, error) {
	if err := s.userRepo.Restore(ctx, id); err != nil {
		return nil, err
	}
	s.log.Info("user restored", "user_id", id)
	return s.userRepo.GetByID(ctx, id)
}

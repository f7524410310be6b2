package service

import (
	"context"
	"errors"
	"time"

	"storefront/internal/models"
	"storefront/internal/repository"

	"go.uber.org/zap"
)

// IdentityService поддерживает локальную копию пользователя из claims токена.
type IdentityService interface {
	// EnsureUser создаёт или обновляет строку пользователя по claims.
	EnsureUser(ctx context.Context, id Identity) (*models.User, error)
}

type identityService struct {
	repo *repository.Repository
	log  *zap.Logger
	now  func() time.Time
}

func NewIdentityService(repo *repository.Repository, log *zap.Logger) IdentityService {
	return &identityService{repo: repo, log: log, now: time.Now}
}

func (s *identityService) EnsureUser(ctx context.Context, id Identity) (*models.User, error) {
	u, err := s.repo.Users.GetByID(ctx, id.UserID)
	if errors.Is(err, repository.ErrNotFound) {
		u = &models.User{
			ID:        id.UserID,
			Email:     id.Email,
			FirstName: id.FirstName,
			LastName:  id.LastName,
			IsStaff:   id.IsStaff,
			CreatedAt: s.now(),
			UpdatedAt: s.now(),
		}
		if err := s.repo.Users.Create(ctx, u); err != nil {
			return nil, err
		}
		s.log.Info("Пользователь заведён из claims", zap.Uint("user_id", u.ID))
		return u, nil
	}
	if err != nil {
		return nil, err
	}

	if u.Email != id.Email || u.IsStaff != id.IsStaff {
		u.Email = id.Email
		u.IsStaff = id.IsStaff
		u.UpdatedAt = s.now()
		if err := s.repo.Users.Update(ctx, u); err != nil {
			return nil, err
		}
	}
	return u, nil
}

package services

import (
	"context"
	"errors"
	"regexp"

	"github.com/fichaje-app/apiserver/types"
)

var pinPattern = regexp.MustCompile(`^\d{4}$`)

// ErrInvalidPIN is returned when a PIN is not exactly four digits.
var ErrInvalidPIN = errors.New("pin must be exactly 4 digits")

// UserRepository defines persistence operations for users.
type UserRepository interface {
	GetByID(ctx context.Context, id int) (types.User, error)
	GetByPIN(ctx context.Context, pin, facilityID string) (types.User, error)
	GetAdminByName(ctx context.Context, name string) (types.User, error)
	ListByFacility(ctx context.Context, facilityID string) ([]types.User, error)
	Create(ctx context.Context, user types.User) (types.User, error)
	Delete(ctx context.Context, id int) error
}

// UserService encapsulates user use-cases.
type UserService struct {
	repo UserRepository
}

func NewUserService(repo UserRepository) *UserService {
	return &UserService{repo: repo}
}

func (s *UserService) GetByID(ctx context.Context, id int) (types.User, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *UserService) GetByPIN(ctx context.Context, pin, facilityID string) (types.User, error) {
	return s.repo.GetByPIN(ctx, pin, facilityID)
}

func (s *UserService) GetAdminByName(ctx context.Context, name string) (types.User, error) {
	return s.repo.GetAdminByName(ctx, name)
}

func (s *UserService) ListByFacility(ctx context.Context, facilityID string) ([]types.User, error) {
	return s.repo.ListByFacility(ctx, facilityID)
}

// Create stores a new user after validating the PIN format. PIN
// uniqueness per facility is enforced by the store.
func (s *UserService) Create(ctx context.Context, user types.User) (types.User, error) {
	if !pinPattern.MatchString(user.PIN) {
		return types.User{}, ErrInvalidPIN
	}
	if user.Role == "" {
		user.Role = types.RoleWorker
	}
	return s.repo.Create(ctx, user)
}

func (s *UserService) Delete(ctx context.Context, id int) error {
	return s.repo.Delete(ctx, id)
}

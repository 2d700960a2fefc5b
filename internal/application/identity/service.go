package identity

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/ferretools/shopapi/internal/domain/cart"
	"github.com/ferretools/shopapi/internal/domain/user"
	"github.com/ferretools/shopapi/internal/pkg/logging"
)

var ErrValidation = errors.New("identity: invalid input")

type IDGenerator interface {
	NewID() string
}

type PasswordHasher interface {
	Hash(password string) (string, error)
	Verify(password, hash string) bool
}

type TokenIssuer interface {
	Issue(u *user.User) (string, error)
}

// Service handles registration, login and the current-session lookup. Every
// registered user gets a fresh cart of their own.
type Service struct {
	users       user.Repository
	carts       cart.Repository
	hasher      PasswordHasher
	tokens      TokenIssuer
	idGenerator IDGenerator
}

func NewService(users user.Repository, carts cart.Repository, hasher PasswordHasher, tokens TokenIssuer, idGen IDGenerator) *Service {
	return &Service{
		users:       users,
		carts:       carts,
		hasher:      hasher,
		tokens:      tokens,
		idGenerator: idGen,
	}
}

type RegisterInput struct {
	FirstName string
	LastName  string
	Age       int
	Email     string
	Password  string
}

func (s *Service) Register(ctx context.Context, input RegisterInput) (*user.User, error) {
	if input.Email == "" || input.Password == "" {
		return nil, fmt.Errorf("%w: email and password are required", ErrValidation)
	}

	hash, err := s.hasher.Hash(input.Password)
	if err != nil {
		return nil, fmt.Errorf("identity: hash password: %w", err)
	}

	c := cart.New(s.idGenerator.NewID())
	if err := s.carts.Insert(ctx, c); err != nil {
		return nil, fmt.Errorf("identity: create cart: %w", err)
	}

	u, err := user.New(s.idGenerator.NewID(), input.FirstName, input.LastName,
		input.Age, input.Email, hash, user.RoleUser, c.ID)
	if err != nil {
		return nil, err
	}
	if err := s.users.Insert(ctx, u); err != nil {
		return nil, err
	}

	logging.FromContext(ctx).Info("user_registered",
		zap.String("user_id", u.ID),
		zap.String("cart_id", c.ID),
	)
	return u, nil
}

// Login verifies the credentials and issues a session token. A missing user
// and a wrong password are indistinguishable to the caller.
func (s *Service) Login(ctx context.Context, email, password string) (string, *user.User, error) {
	if email == "" || password == "" {
		return "", nil, fmt.Errorf("%w: email and password are required", ErrValidation)
	}

	u, err := s.users.GetByEmail(ctx, email)
	if errors.Is(err, user.ErrNotFound) {
		return "", nil, user.ErrInvalidCredentials
	}
	if err != nil {
		return "", nil, fmt.Errorf("identity: lookup user: %w", err)
	}
	if !s.hasher.Verify(password, u.PasswordHash) {
		return "", nil, user.ErrInvalidCredentials
	}

	token, err := s.tokens.Issue(u)
	if err != nil {
		return "", nil, fmt.Errorf("identity: issue token: %w", err)
	}

	logging.FromContext(ctx).Info("user_logged_in", zap.String("user_id", u.ID))
	return token, u, nil
}

func (s *Service) Current(ctx context.Context, userID string) (*user.User, error) {
	if userID == "" {
		return nil, fmt.Errorf("%w: user id is required", ErrValidation)
	}
	return s.users.Get(ctx, userID)
}

// ListUsers backs the admin-only user listing.
func (s *Service) ListUsers(ctx context.Context) ([]*user.User, error) {
	return s.users.List(ctx)
}

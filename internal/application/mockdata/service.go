package mockdata

import (
	"context"
	"errors"
	"fmt"
	"regexp"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/ferretools/shopapi/internal/domain/cart"
	"github.com/ferretools/shopapi/internal/domain/product"
	"github.com/ferretools/shopapi/internal/domain/user"
	"github.com/ferretools/shopapi/internal/pkg/logging"
)

var ErrValidation = errors.New("mockdata: invalid input")

// Seeded users all share this password, which doubles as the marker Reset
// uses to tell mock users from real ones.
const mockPassword = "coder123"

// Seeded products get a UUID code; Reset removes every product whose code
// matches this shape.
var mockCodePattern = regexp.MustCompile(`^[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}$`)

var mockCategories = []string{
	"Herramientas Manuales",
	"Herramientas Eléctricas",
	"Materiales",
	"Accesorios",
}

type IDGenerator interface {
	NewID() string
}

type PasswordHasher interface {
	Hash(password string) (string, error)
	Verify(password, hash string) bool
}

// Service generates and seeds fake users and products for manual testing.
type Service struct {
	users       user.Repository
	products    product.Repository
	carts       cart.Repository
	hasher      PasswordHasher
	idGenerator IDGenerator
	faker       *gofakeit.Faker
	pageSize    int
}

func NewService(users user.Repository, products product.Repository, carts cart.Repository, hasher PasswordHasher, idGen IDGenerator) *Service {
	return &Service{
		users:       users,
		products:    products,
		carts:       carts,
		hasher:      hasher,
		idGenerator: idGen,
		faker:       gofakeit.New(0),
		pageSize:    500,
	}
}

// GenerateUsers builds fake users without persisting anything.
func (s *Service) GenerateUsers(count int) ([]*user.User, error) {
	if count < 0 {
		return nil, fmt.Errorf("%w: count must be zero or greater", ErrValidation)
	}

	hash, err := s.hasher.Hash(mockPassword)
	if err != nil {
		return nil, fmt.Errorf("mockdata: hash password: %w", err)
	}

	users := make([]*user.User, 0, count)
	for i := 0; i < count; i++ {
		role := user.RoleUser
		if s.faker.Bool() {
			role = user.RoleAdmin
		}
		u, err := user.New(
			s.idGenerator.NewID(),
			s.faker.FirstName(),
			s.faker.LastName(),
			s.faker.Number(18, 80),
			s.faker.Email(),
			hash,
			role,
			s.idGenerator.NewID(),
		)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, nil
}

// GenerateProducts builds fake products without persisting anything.
func (s *Service) GenerateProducts(count int) ([]*product.Product, error) {
	if count < 0 {
		return nil, fmt.Errorf("%w: count must be zero or greater", ErrValidation)
	}

	products := make([]*product.Product, 0, count)
	for i := 0; i < count; i++ {
		p, err := s.buildProduct()
		if err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	return products, nil
}

type SeedResult struct {
	Users    []*user.User
	Products []*product.Product
}

// Seed inserts the requested number of fake users (each with a cart of their
// own) and products.
func (s *Service) Seed(ctx context.Context, userCount, productCount int) (*SeedResult, error) {
	if userCount < 0 || productCount < 0 {
		return nil, fmt.Errorf("%w: counts must be zero or greater", ErrValidation)
	}

	hash, err := s.hasher.Hash(mockPassword)
	if err != nil {
		return nil, fmt.Errorf("mockdata: hash password: %w", err)
	}

	result := &SeedResult{}

	for i := 0; i < userCount; i++ {
		c := cart.New(s.idGenerator.NewID())
		if err := s.carts.Insert(ctx, c); err != nil {
			return nil, fmt.Errorf("mockdata: insert cart: %w", err)
		}

		role := user.RoleUser
		if s.faker.Bool() {
			role = user.RoleAdmin
		}
		u, err := user.New(
			s.idGenerator.NewID(),
			s.faker.FirstName(),
			s.faker.LastName(),
			s.faker.Number(18, 80),
			s.faker.Email(),
			hash,
			role,
			c.ID,
		)
		if err != nil {
			return nil, err
		}
		if err := s.users.Insert(ctx, u); err != nil {
			return nil, fmt.Errorf("mockdata: insert user: %w", err)
		}
		result.Users = append(result.Users, u)
	}

	for i := 0; i < productCount; i++ {
		p, err := s.buildProduct()
		if err != nil {
			return nil, err
		}
		if err := s.products.Insert(ctx, p); err != nil {
			return nil, fmt.Errorf("mockdata: insert product: %w", err)
		}
		result.Products = append(result.Products, p)
	}

	logging.FromContext(ctx).Info("mock_data_seeded",
		zap.Int("users", len(result.Users)),
		zap.Int("products", len(result.Products)),
	)
	return result, nil
}

type ResetResult struct {
	Users    int `json:"users"`
	Products int `json:"products"`
	Carts    int `json:"carts"`
}

// Reset removes every seeded user (recognised by the shared mock password),
// their carts, and every product whose code looks like a seeded UUID code.
func (s *Service) Reset(ctx context.Context) (*ResetResult, error) {
	result := &ResetResult{}

	users, err := s.users.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("mockdata: list users: %w", err)
	}
	for _, u := range users {
		if !s.hasher.Verify(mockPassword, u.PasswordHash) {
			continue
		}
		if err := s.users.Delete(ctx, u.ID); err != nil {
			return nil, fmt.Errorf("mockdata: delete user: %w", err)
		}
		result.Users++

		if u.CartID == "" {
			continue
		}
		switch err := s.carts.Delete(ctx, u.CartID); {
		case err == nil:
			result.Carts++
		case errors.Is(err, cart.ErrNotFound):
			// generated-but-never-seeded cart id
		default:
			return nil, fmt.Errorf("mockdata: delete cart: %w", err)
		}
	}

	var mockProductIDs []string
	for offset := 0; ; offset += s.pageSize {
		page, err := s.products.List(ctx, s.pageSize, offset)
		if err != nil {
			return nil, fmt.Errorf("mockdata: list products: %w", err)
		}
		for _, p := range page {
			if mockCodePattern.MatchString(p.Code) {
				mockProductIDs = append(mockProductIDs, p.ID)
			}
		}
		if len(page) < s.pageSize {
			break
		}
	}
	for _, id := range mockProductIDs {
		if err := s.products.Delete(ctx, id); err != nil {
			return nil, fmt.Errorf("mockdata: delete product: %w", err)
		}
		result.Products++
	}

	logging.FromContext(ctx).Info("mock_data_reset",
		zap.Int("users", result.Users),
		zap.Int("products", result.Products),
		zap.Int("carts", result.Carts),
	)
	return result, nil
}

func (s *Service) buildProduct() (*product.Product, error) {
	price := decimal.NewFromInt(int64(s.faker.Number(100, 10000)))
	return product.New(
		s.idGenerator.NewID(),
		s.faker.ProductName(),
		s.faker.ProductDescription(),
		price,
		s.faker.RandomString(mockCategories),
		s.faker.Number(0, 100),
		s.idGenerator.NewID(),
		[]string{fmt.Sprintf("https://picsum.photos/200/200?random=%d", s.faker.Number(1, 100000))},
	)
}

package httpapi_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/ferretools/shopapi/internal/application/carts"
	"github.com/ferretools/shopapi/internal/application/catalog"
	"github.com/ferretools/shopapi/internal/application/checkout"
	"github.com/ferretools/shopapi/internal/application/identity"
	"github.com/ferretools/shopapi/internal/application/mockdata"
	domaincart "github.com/ferretools/shopapi/internal/domain/cart"
	"github.com/ferretools/shopapi/internal/domain/product"
	"github.com/ferretools/shopapi/internal/domain/user"
	"github.com/ferretools/shopapi/internal/infrastructure/auth"
	"github.com/ferretools/shopapi/internal/infrastructure/httpapi"
	"github.com/ferretools/shopapi/internal/infrastructure/id"
	"github.com/ferretools/shopapi/internal/infrastructure/memory"
)

type api struct {
	router   http.Handler
	products *memory.ProductRepository
	carts    *memory.CartRepository
	users    *memory.UserRepository
	tokens   *auth.TokenManager
	hasher   *auth.Hasher
	ids      *id.UUIDGenerator
}

func newAPI(t *testing.T) *api {
	t.Helper()

	products := memory.NewProductRepository()
	cartRepo := memory.NewCartRepository()
	tickets := memory.NewTicketRepository()
	users := memory.NewUserRepository()
	idem := memory.NewIdempotencyStore(time.Hour)

	tokens := auth.NewTokenManager("test-secret", time.Hour)
	hasher := auth.NewHasher(bcrypt.MinCost)
	ids := id.NewUUIDGenerator()

	handler := httpapi.NewHandler(
		checkout.NewService(products, cartRepo, tickets, idem, ids, nil),
		carts.NewService(cartRepo, products, ids),
		catalog.NewService(products, ids),
		identity.NewService(users, cartRepo, hasher, tokens, ids),
		mockdata.NewService(users, products, cartRepo, hasher, ids),
		tokens,
		httpapi.SeedLimits{MaxUsers: 100, MaxProducts: 100},
	)

	return &api{
		router:   handler.Router(),
		products: products,
		carts:    cartRepo,
		users:    users,
		tokens:   tokens,
		hasher:   hasher,
		ids:      ids,
	}
}

func (a *api) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	a.router.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

// seedUser inserts a user directly and returns a valid session token.
func (a *api) seedUser(t *testing.T, email string, role user.Role) (*user.User, string) {
	t.Helper()

	hash, err := a.hasher.Hash("s3cret")
	require.NoError(t, err)

	c := domaincart.New(a.ids.NewID())
	require.NoError(t, a.carts.Insert(context.Background(), c))

	u, err := user.New(a.ids.NewID(), "Test", "User", 30, email, hash, role, c.ID)
	require.NoError(t, err)
	require.NoError(t, a.users.Insert(context.Background(), u))

	token, err := a.tokens.Issue(u)
	require.NoError(t, err)
	return u, token
}

func (a *api) seedProduct(t *testing.T, productID string, price int64, stock int) {
	t.Helper()
	p, err := product.New(productID, "Llave inglesa", "", decimal.NewFromInt(price), "Herramientas Manuales", stock, "code-"+productID, nil)
	require.NoError(t, err)
	require.NoError(t, a.products.Insert(context.Background(), p))
}

func TestHealth(t *testing.T) {
	a := newAPI(t)
	rec := a.do(t, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", decodeBody(t, rec)["status"])
}

func TestRegisterAndLogin(t *testing.T) {
	a := newAPI(t)

	rec := a.do(t, http.MethodPost, "/api/sessions/register", "", map[string]any{
		"first_name": "Ada",
		"last_name":  "Lovelace",
		"age":        30,
		"email":      "ada@example.com",
		"password":   "s3cret",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	body := decodeBody(t, rec)
	assert.Equal(t, "ada@example.com", body["email"])
	assert.Equal(t, "user", body["role"])
	assert.NotEmpty(t, body["cart_id"])
	assert.NotContains(t, rec.Body.String(), "s3cret", "password never leaves the server")

	// Same email again is a conflict.
	rec = a.do(t, http.MethodPost, "/api/sessions/register", "", map[string]any{
		"first_name": "Ada",
		"last_name":  "Lovelace",
		"age":        30,
		"email":      "ada@example.com",
		"password":   "s3cret",
	})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = a.do(t, http.MethodPost, "/api/sessions/login", "", map[string]string{
		"email":    "ada@example.com",
		"password": "s3cret",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	body = decodeBody(t, rec)
	assert.Equal(t, "login successful", body["message"])
	token, _ := body["token"].(string)
	require.NotEmpty(t, token)

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, "token", cookies[0].Name)

	rec = a.do(t, http.MethodGet, "/api/sessions/current", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ada@example.com", decodeBody(t, rec)["email"])
}

func TestLogin_BadCredentials(t *testing.T) {
	a := newAPI(t)
	a.seedUser(t, "ada@example.com", user.RoleUser)

	rec := a.do(t, http.MethodPost, "/api/sessions/login", "", map[string]string{
		"email":    "ada@example.com",
		"password": "wrong",
	})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "invalid credentials", decodeBody(t, rec)["error"])
}

func TestCurrent_RequiresAuth(t *testing.T) {
	a := newAPI(t)

	rec := a.do(t, http.MethodGet, "/api/sessions/current", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = a.do(t, http.MethodGet, "/api/sessions/current", "garbage-token", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestProductEndpoints_AdminGating(t *testing.T) {
	a := newAPI(t)
	_, userToken := a.seedUser(t, "user@example.com", user.RoleUser)
	_, adminToken := a.seedUser(t, "admin@example.com", user.RoleAdmin)

	payload := map[string]any{
		"name":     "Sierra circular",
		"price":    "129.90",
		"category": "Herramientas Eléctricas",
		"stock":    12,
		"code":     "SRC-001",
	}

	rec := a.do(t, http.MethodPost, "/api/products/", "", payload)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = a.do(t, http.MethodPost, "/api/products/", userToken, payload)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = a.do(t, http.MethodPost, "/api/products/", adminToken, payload)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	created := decodeBody(t, rec)
	productID, _ := created["id"].(string)
	require.NotEmpty(t, productID)
	assert.Equal(t, "129.9", created["price"])

	// Reads stay public.
	rec = a.do(t, http.MethodGet, "/api/products/", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var listed []map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &listed))
	assert.Len(t, listed, 1)

	rec = a.do(t, http.MethodGet, "/api/products/"+productID, "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = a.do(t, http.MethodGet, "/api/products/ghost", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = a.do(t, http.MethodPut, "/api/products/"+productID, adminToken, map[string]any{"stock": 30})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(30), decodeBody(t, rec)["stock"])

	rec = a.do(t, http.MethodDelete, "/api/products/"+productID, adminToken, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = a.do(t, http.MethodGet, "/api/products/"+productID, "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCartEndpoints(t *testing.T) {
	a := newAPI(t)
	a.seedProduct(t, "p1", 100, 10)

	rec := a.do(t, http.MethodPost, "/api/carts/", "", nil)
	require.Equal(t, http.StatusCreated, rec.Code)
	cartID, _ := decodeBody(t, rec)["id"].(string)
	require.NotEmpty(t, cartID)

	rec = a.do(t, http.MethodPost, "/api/carts/"+cartID+"/products/p1", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = a.do(t, http.MethodPut, "/api/carts/"+cartID+"/products/p1", "", map[string]int{"quantity": 4})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = a.do(t, http.MethodGet, "/api/carts/"+cartID, "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	products, _ := body["products"].([]any)
	require.Len(t, products, 1)
	line, _ := products[0].(map[string]any)
	assert.Equal(t, "p1", line["product"])
	assert.Equal(t, float64(4), line["quantity"])

	rec = a.do(t, http.MethodPost, "/api/carts/"+cartID+"/products/ghost", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = a.do(t, http.MethodPut, "/api/carts/"+cartID+"/products/p1", "", map[string]int{"quantity": 0})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = a.do(t, http.MethodDelete, "/api/carts/"+cartID+"/products/p1", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = a.do(t, http.MethodDelete, "/api/carts/"+cartID, "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "all products removed from cart", decodeBody(t, rec)["message"])
}

func TestPurchase_RequiresAuth(t *testing.T) {
	a := newAPI(t)
	rec := a.do(t, http.MethodPost, "/api/carts/any/purchase", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestPurchase_Success(t *testing.T) {
	a := newAPI(t)
	u, token := a.seedUser(t, "buyer@example.com", user.RoleUser)
	a.seedProduct(t, "p1", 100, 10)

	c, err := a.carts.Get(context.Background(), u.CartID)
	require.NoError(t, err)
	require.NoError(t, c.AddProduct("p1", 2))
	require.NoError(t, a.carts.Update(context.Background(), c))

	rec := a.do(t, http.MethodPost, "/api/carts/"+u.CartID+"/purchase", token, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	body := decodeBody(t, rec)
	assert.Equal(t, "purchase completed", body["message"])
	assert.NotContains(t, body, "unprocessedProducts", "fully fulfilled purchases omit the field")

	tk, _ := body["ticket"].(map[string]any)
	require.NotNil(t, tk)
	assert.Equal(t, "buyer@example.com", tk["purchaser"])
	assert.Equal(t, "200", tk["amount"])
	assert.NotEmpty(t, tk["purchase_datetime"])
}

func TestPurchase_Partial(t *testing.T) {
	a := newAPI(t)
	u, token := a.seedUser(t, "buyer@example.com", user.RoleUser)
	a.seedProduct(t, "p1", 100, 10)
	a.seedProduct(t, "p2", 50, 1)

	c, err := a.carts.Get(context.Background(), u.CartID)
	require.NoError(t, err)
	require.NoError(t, c.AddProduct("p1", 2))
	require.NoError(t, c.AddProduct("p2", 5))
	require.NoError(t, a.carts.Update(context.Background(), c))

	rec := a.do(t, http.MethodPost, "/api/carts/"+u.CartID+"/purchase", token, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	body := decodeBody(t, rec)
	assert.Equal(t, "purchase completed", body["message"])
	assert.Equal(t, []any{"p2"}, body["unprocessedProducts"])
}

func TestPurchase_EmptyCart(t *testing.T) {
	a := newAPI(t)
	u, token := a.seedUser(t, "buyer@example.com", user.RoleUser)

	rec := a.do(t, http.MethodPost, "/api/carts/"+u.CartID+"/purchase", token, nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "cart empty or missing", decodeBody(t, rec)["error"])
}

func TestPurchase_AllShort(t *testing.T) {
	a := newAPI(t)
	u, token := a.seedUser(t, "buyer@example.com", user.RoleUser)
	a.seedProduct(t, "p1", 100, 1)

	c, err := a.carts.Get(context.Background(), u.CartID)
	require.NoError(t, err)
	require.NoError(t, c.AddProduct("p1", 5))
	require.NoError(t, a.carts.Update(context.Background(), c))

	rec := a.do(t, http.MethodPost, "/api/carts/"+u.CartID+"/purchase", token, nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	body := decodeBody(t, rec)
	assert.Equal(t, "no product could be processed due to insufficient stock", body["error"])
	assert.Equal(t, []any{"p1"}, body["unprocessedProducts"])
}

func TestPurchase_IdempotencyKeyReplay(t *testing.T) {
	a := newAPI(t)
	u, token := a.seedUser(t, "buyer@example.com", user.RoleUser)
	a.seedProduct(t, "p1", 100, 10)

	c, err := a.carts.Get(context.Background(), u.CartID)
	require.NoError(t, err)
	require.NoError(t, c.AddProduct("p1", 2))
	require.NoError(t, a.carts.Update(context.Background(), c))

	doPurchase := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/carts/"+u.CartID+"/purchase", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		req.Header.Set("Idempotency-Key", "order-1")
		rec := httptest.NewRecorder()
		a.router.ServeHTTP(rec, req)
		return rec
	}

	rec := doPurchase()
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = doPurchase()
	assert.Equal(t, http.StatusConflict, rec.Code)

	p, err := a.products.Get(context.Background(), "p1")
	require.NoError(t, err)
	assert.Equal(t, 8, p.Stock)
}

func TestUsersEndpoint_AdminOnly(t *testing.T) {
	a := newAPI(t)
	_, userToken := a.seedUser(t, "user@example.com", user.RoleUser)
	_, adminToken := a.seedUser(t, "admin@example.com", user.RoleAdmin)

	rec := a.do(t, http.MethodGet, "/api/users", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = a.do(t, http.MethodGet, "/api/users", userToken, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = a.do(t, http.MethodGet, "/api/users", adminToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var users []map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &users))
	assert.Len(t, users, 2)
}

func TestMockEndpoints(t *testing.T) {
	a := newAPI(t)
	_, adminToken := a.seedUser(t, "admin@example.com", user.RoleAdmin)

	rec := a.do(t, http.MethodGet, "/api/mocks/mockingusers", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = a.do(t, http.MethodGet, "/api/mocks/mockingusers", adminToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var users []map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &users))
	assert.Len(t, users, 50)

	rec = a.do(t, http.MethodGet, "/api/mocks/mockingproducts", adminToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = a.do(t, http.MethodPost, "/api/mocks/generatedata", adminToken, map[string]int{
		"users":    3,
		"products": 5,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	body := decodeBody(t, rec)
	assert.Equal(t, float64(3), body["users"])
	assert.Equal(t, float64(5), body["products"])

	// Counts above the configured ceiling are refused.
	rec = a.do(t, http.MethodPost, "/api/mocks/generatedata", adminToken, map[string]int{
		"users":    1000,
		"products": 5,
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = a.do(t, http.MethodDelete, "/api/mocks/reset", adminToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	deleted, _ := decodeBody(t, rec)["deleted"].(map[string]any)
	require.NotNil(t, deleted)
	assert.Equal(t, float64(3), deleted["users"])
	assert.Equal(t, float64(5), deleted["products"])
}

func TestInvalidJSONBody(t *testing.T) {
	a := newAPI(t)

	req := httptest.NewRequest(http.MethodPost, "/api/sessions/register", bytes.NewReader([]byte("{not json")))
	rec := httptest.NewRecorder()
	a.router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// Unknown fields are rejected too.
	rec = a.do(t, http.MethodPost, "/api/sessions/login", "", map[string]string{
		"email":    "a@example.com",
		"password": "x",
		"extra":    "nope",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

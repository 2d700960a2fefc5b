package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/ferretools/shopapi/internal/application/carts"
	"github.com/ferretools/shopapi/internal/application/catalog"
	"github.com/ferretools/shopapi/internal/application/checkout"
	"github.com/ferretools/shopapi/internal/application/identity"
	"github.com/ferretools/shopapi/internal/application/mockdata"
	domaincart "github.com/ferretools/shopapi/internal/domain/cart"
	"github.com/ferretools/shopapi/internal/domain/product"
	"github.com/ferretools/shopapi/internal/domain/ticket"
	"github.com/ferretools/shopapi/internal/domain/user"
	"github.com/ferretools/shopapi/internal/infrastructure/auth"
	"github.com/ferretools/shopapi/internal/pkg/logging"
)

type SeedLimits struct {
	MaxUsers    int
	MaxProducts int
}

type Handler struct {
	checkout   *checkout.Service
	carts      *carts.Service
	catalog    *catalog.Service
	identity   *identity.Service
	mockdata   *mockdata.Service
	tokens     *auth.TokenManager
	seedLimits SeedLimits
}

func NewHandler(
	checkoutSvc *checkout.Service,
	cartsSvc *carts.Service,
	catalogSvc *catalog.Service,
	identitySvc *identity.Service,
	mockdataSvc *mockdata.Service,
	tokens *auth.TokenManager,
	seedLimits SeedLimits,
) *Handler {
	return &Handler{
		checkout:   checkoutSvc,
		carts:      cartsSvc,
		catalog:    catalogSvc,
		identity:   identitySvc,
		mockdata:   mockdataSvc,
		tokens:     tokens,
		seedLimits: seedLimits,
	}
}

func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(Authenticate(h.tokens))

	r.Route("/api", func(r chi.Router) {
		r.Route("/sessions", func(r chi.Router) {
			r.Post("/register", h.handleRegister)
			r.Post("/login", h.handleLogin)
			r.With(RequireAuth).Get("/current", h.handleCurrent)
		})

		r.Route("/products", func(r chi.Router) {
			r.Get("/", h.handleListProducts)
			r.Get("/{productID}", h.handleGetProduct)
			r.With(RequireAdmin).Post("/", h.handleCreateProduct)
			r.With(RequireAdmin).Put("/{productID}", h.handleUpdateProduct)
			r.With(RequireAdmin).Delete("/{productID}", h.handleDeleteProduct)
		})

		r.Route("/carts", func(r chi.Router) {
			r.Post("/", h.handleCreateCart)
			r.Get("/{cartID}", h.handleGetCart)
			r.Put("/{cartID}", h.handleReplaceCart)
			r.Delete("/{cartID}", h.handleClearCart)
			r.Post("/{cartID}/products/{productID}", h.handleAddToCart)
			r.Put("/{cartID}/products/{productID}", h.handleSetQuantity)
			r.Delete("/{cartID}/products/{productID}", h.handleRemoveFromCart)
			r.With(RequireAuth).Post("/{cartID}/purchase", h.handlePurchase)
		})

		r.With(RequireAdmin).Get("/users", h.handleListUsers)

		r.Route("/mocks", func(r chi.Router) {
			r.Use(RequireAdmin)
			r.Get("/mockingusers", h.handleMockUsers)
			r.Get("/mockingproducts", h.handleMockProducts)
			r.Post("/generatedata", h.handleSeedData)
			r.Delete("/reset", h.handleResetData)
		})

		r.Get("/loggertest", h.handleLoggerTest)
	})

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	return r
}

// --- sessions

type registerRequest struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Age       int    `json:"age"`
	Email     string `json:"email"`
	Password  string `json:"password"`
}

func (h *Handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	u, err := h.identity.Register(r.Context(), identity.RegisterInput{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Age:       req.Age,
		Email:     req.Email,
		Password:  req.Password,
	})
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toUserResponse(u))
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Message string       `json:"message"`
	Token   string       `json:"token"`
	User    userResponse `json:"user"`
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	token, u, err := h.identity.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	writeJSON(w, http.StatusOK, loginResponse{
		Message: "login successful",
		Token:   token,
		User:    toUserResponse(u),
	})
}

func (h *Handler) handleCurrent(w http.ResponseWriter, r *http.Request) {
	claims := auth.ClaimsFromContext(r.Context())
	u, err := h.identity.Current(r.Context(), claims.Subject)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toUserResponse(u))
}

func (h *Handler) handleListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.identity.ListUsers(r.Context())
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	out := make([]userResponse, 0, len(users))
	for _, u := range users {
		out = append(out, toUserResponse(u))
	}
	writeJSON(w, http.StatusOK, out)
}

// --- products

type productRequest struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Category    string          `json:"category"`
	Stock       int             `json:"stock"`
	Code        string          `json:"code"`
	Thumbnails  []string        `json:"thumbnails"`
}

func (h *Handler) handleListProducts(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limit", product.DefaultListLimit)
	offset := queryInt(r, "offset", 0)

	products, err := h.catalog.List(r.Context(), limit, offset)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	out := make([]productResponse, 0, len(products))
	for _, p := range products {
		out = append(out, toProductResponse(p))
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) handleGetProduct(w http.ResponseWriter, r *http.Request) {
	p, err := h.catalog.Get(r.Context(), chi.URLParam(r, "productID"))
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toProductResponse(p))
}

func (h *Handler) handleCreateProduct(w http.ResponseWriter, r *http.Request) {
	var req productRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	p, err := h.catalog.Create(r.Context(), catalog.CreateProductInput{
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
		Category:    req.Category,
		Stock:       req.Stock,
		Code:        req.Code,
		Thumbnails:  req.Thumbnails,
	})
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toProductResponse(p))
}

type productUpdateRequest struct {
	Name        *string          `json:"name"`
	Description *string          `json:"description"`
	Price       *decimal.Decimal `json:"price"`
	Category    *string          `json:"category"`
	Stock       *int             `json:"stock"`
	Thumbnails  []string         `json:"thumbnails"`
}

func (h *Handler) handleUpdateProduct(w http.ResponseWriter, r *http.Request) {
	var req productUpdateRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	p, err := h.catalog.Update(r.Context(), chi.URLParam(r, "productID"), catalog.UpdateProductInput{
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
		Category:    req.Category,
		Stock:       req.Stock,
		Thumbnails:  req.Thumbnails,
	})
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toProductResponse(p))
}

func (h *Handler) handleDeleteProduct(w http.ResponseWriter, r *http.Request) {
	if err := h.catalog.Delete(r.Context(), chi.URLParam(r, "productID")); err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "product deleted"})
}

// --- carts

func (h *Handler) handleCreateCart(w http.ResponseWriter, r *http.Request) {
	c, err := h.carts.Create(r.Context())
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toCartResponse(c))
}

func (h *Handler) handleGetCart(w http.ResponseWriter, r *http.Request) {
	c, err := h.carts.Get(r.Context(), chi.URLParam(r, "cartID"))
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toCartResponse(c))
}

func (h *Handler) handleAddToCart(w http.ResponseWriter, r *http.Request) {
	c, err := h.carts.AddProduct(r.Context(), chi.URLParam(r, "cartID"), chi.URLParam(r, "productID"))
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toCartResponse(c))
}

type replaceCartRequest struct {
	Products []domaincart.LineItem `json:"products"`
}

func (h *Handler) handleReplaceCart(w http.ResponseWriter, r *http.Request) {
	var req replaceCartRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Products == nil {
		writeError(w, http.StatusBadRequest, "products must be an array")
		return
	}

	c, err := h.carts.ReplaceItems(r.Context(), chi.URLParam(r, "cartID"), req.Products)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toCartResponse(c))
}

type setQuantityRequest struct {
	Quantity int `json:"quantity"`
}

func (h *Handler) handleSetQuantity(w http.ResponseWriter, r *http.Request) {
	var req setQuantityRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Quantity < 1 {
		writeError(w, http.StatusBadRequest, "quantity must be a positive integer")
		return
	}

	c, err := h.carts.SetQuantity(r.Context(), chi.URLParam(r, "cartID"), chi.URLParam(r, "productID"), req.Quantity)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toCartResponse(c))
}

func (h *Handler) handleRemoveFromCart(w http.ResponseWriter, r *http.Request) {
	c, err := h.carts.RemoveProduct(r.Context(), chi.URLParam(r, "cartID"), chi.URLParam(r, "productID"))
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toCartResponse(c))
}

func (h *Handler) handleClearCart(w http.ResponseWriter, r *http.Request) {
	c, err := h.carts.Clear(r.Context(), chi.URLParam(r, "cartID"))
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"message": "all products removed from cart",
		"cart":    toCartResponse(c),
	})
}

// --- checkout

type purchaseResponse struct {
	Message             string         `json:"message"`
	Ticket              *ticket.Ticket `json:"ticket"`
	UnprocessedProducts []string       `json:"unprocessedProducts,omitempty"`
}

func (h *Handler) handlePurchase(w http.ResponseWriter, r *http.Request) {
	claims := auth.ClaimsFromContext(r.Context())

	result, err := h.checkout.Purchase(r.Context(),
		chi.URLParam(r, "cartID"),
		claims.Email,
		r.Header.Get("Idempotency-Key"),
	)
	if err != nil {
		var short *checkout.InsufficientStockError
		switch {
		case errors.Is(err, checkout.ErrCartEmpty):
			writeJSON(w, http.StatusBadRequest, map[string]string{
				"error": "cart empty or missing",
			})
		case errors.As(err, &short):
			writeJSON(w, http.StatusBadRequest, map[string]any{
				"error":               "no product could be processed due to insufficient stock",
				"unprocessedProducts": short.Unprocessed,
			})
		case errors.Is(err, checkout.ErrDuplicatePurchase):
			writeError(w, http.StatusConflict, "duplicate purchase request")
		default:
			h.writeDomainError(w, r, err)
		}
		return
	}

	resp := purchaseResponse{
		Message: "purchase completed",
		Ticket:  result.Ticket,
	}
	if len(result.UnprocessedProducts) > 0 {
		resp.UnprocessedProducts = result.UnprocessedProducts
	}
	writeJSON(w, http.StatusOK, resp)
}

// --- mock data

func (h *Handler) handleMockUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.mockdata.GenerateUsers(50)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	out := make([]userResponse, 0, len(users))
	for _, u := range users {
		out = append(out, toUserResponse(u))
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) handleMockProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.mockdata.GenerateProducts(50)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	out := make([]productResponse, 0, len(products))
	for _, p := range products {
		out = append(out, toProductResponse(p))
	}
	writeJSON(w, http.StatusOK, out)
}

type seedRequest struct {
	Users    int `json:"users"`
	Products int `json:"products"`
}

func (h *Handler) handleSeedData(w http.ResponseWriter, r *http.Request) {
	var req seedRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Users < 0 || req.Products < 0 {
		writeError(w, http.StatusBadRequest, "invalid parameters")
		return
	}
	if req.Users > h.seedLimits.MaxUsers || req.Products > h.seedLimits.MaxProducts {
		writeError(w, http.StatusBadRequest, "seed counts exceed the configured limit")
		return
	}

	result, err := h.mockdata.Seed(r.Context(), req.Users, req.Products)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"message":  "data generated and inserted successfully",
		"users":    len(result.Users),
		"products": len(result.Products),
	})
}

func (h *Handler) handleResetData(w http.ResponseWriter, r *http.Request) {
	result, err := h.mockdata.Reset(r.Context())
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"message": "mock data reset successfully",
		"deleted": result,
	})
}

// --- misc

func (h *Handler) handleLoggerTest(w http.ResponseWriter, r *http.Request) {
	logger := logging.FromContext(r.Context())
	logger.Debug("logger test: DEBUG")
	logger.Info("logger test: INFO")
	logger.Warn("logger test: WARNING")
	logger.Error("logger test: ERROR")
	writeJSON(w, http.StatusOK, map[string]string{"message": "test logs emitted"})
}

// --- responses

type userResponse struct {
	ID        string `json:"id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Age       int    `json:"age"`
	Email     string `json:"email"`
	Role      string `json:"role"`
	CartID    string `json:"cart_id,omitempty"`
}

func toUserResponse(u *user.User) userResponse {
	return userResponse{
		ID:        u.ID,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Age:       u.Age,
		Email:     u.Email,
		Role:      string(u.Role),
		CartID:    u.CartID,
	}
}

type productResponse struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Category    string          `json:"category"`
	Stock       int             `json:"stock"`
	Code        string          `json:"code"`
	Thumbnails  []string        `json:"thumbnails"`
}

func toProductResponse(p *product.Product) productResponse {
	return productResponse{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Price:       p.Price,
		Category:    p.Category,
		Stock:       p.Stock,
		Code:        p.Code,
		Thumbnails:  p.Thumbnails,
	}
}

type cartResponse struct {
	ID       string                `json:"id"`
	Products []domaincart.LineItem `json:"products"`
}

func toCartResponse(c *domaincart.Cart) cartResponse {
	return cartResponse{ID: c.ID, Products: c.Items}
}

// --- plumbing

func decodeJSON(r *http.Request, dst any) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	return decoder.Decode(dst)
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

func queryInt(r *http.Request, key string, def int) int {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return n
}

// writeDomainError is the single boundary translating domain errors to HTTP
// statuses. Store failures come out as an opaque 500.
func (h *Handler) writeDomainError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, product.ErrNotFound),
		errors.Is(err, domaincart.ErrNotFound),
		errors.Is(err, domaincart.ErrItemNotFound),
		errors.Is(err, ticket.ErrNotFound),
		errors.Is(err, user.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, user.ErrInvalidCredentials):
		writeError(w, http.StatusUnauthorized, "invalid credentials")
	case errors.Is(err, user.ErrEmailTaken),
		errors.Is(err, product.ErrCodeInUse):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, carts.ErrValidation),
		errors.Is(err, catalog.ErrValidation),
		errors.Is(err, identity.ErrValidation),
		errors.Is(err, mockdata.ErrValidation),
		errors.Is(err, domaincart.ErrInvalidQuantity),
		errors.Is(err, product.ErrInvalidName),
		errors.Is(err, product.ErrInvalidPrice),
		errors.Is(err, product.ErrInvalidStock),
		errors.Is(err, user.ErrInvalidEmail),
		errors.Is(err, user.ErrInvalidAge):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		logging.FromContext(r.Context()).Error("internal_error", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}

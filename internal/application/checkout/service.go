package checkout

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/ferretools/shopapi/internal/domain/cart"
	"github.com/ferretools/shopapi/internal/domain/product"
	"github.com/ferretools/shopapi/internal/domain/ticket"
	"github.com/ferretools/shopapi/internal/pkg/logging"
	"github.com/ferretools/shopapi/internal/pkg/metrics"
)

var (
	// ErrCartEmpty covers both a missing cart and a cart with no line items.
	ErrCartEmpty = errors.New("checkout: cart empty or missing")
	// ErrDuplicatePurchase is returned when an idempotency key is replayed.
	ErrDuplicatePurchase = errors.New("checkout: duplicate purchase request")
)

// InsufficientStockError is returned when not a single line item could be
// fulfilled. It carries the full unprocessed list so the boundary can report
// which products were short.
type InsufficientStockError struct {
	Unprocessed []string
}

func (e *InsufficientStockError) Error() string {
	return "checkout: no product could be processed due to insufficient stock"
}

type Result struct {
	Ticket *ticket.Ticket
	// UnprocessedProducts lists the product IDs left in the cart for lack of
	// stock, in the order they were detected.
	UnprocessedProducts []string
}

// Service sequences the product, cart and ticket stores to perform a
// purchase. Stock is deducted through a conditional decrement at the store,
// so concurrent checkouts over the same product cannot oversell.
type Service struct {
	products    ProductStore
	carts       CartStore
	tickets     TicketStore
	idempotency IdempotencyStore
	idGenerator IDGenerator
	metrics     *metrics.Metrics
	now         func() time.Time
}

func NewService(products ProductStore, carts CartStore, tickets TicketStore, idem IdempotencyStore, idGen IDGenerator, m *metrics.Metrics) *Service {
	if m == nil {
		m = metrics.NewUnregistered()
	}
	return &Service{
		products:    products,
		carts:       carts,
		tickets:     tickets,
		idempotency: idem,
		idGenerator: idGen,
		metrics:     m,
		now:         time.Now,
	}
}

// Purchase fulfills as much of the cart as stock allows. Fulfilled items are
// removed from the cart and receipted on a ticket; short items stay in the
// cart and are reported back. With zero fulfillable items no ticket is
// created and InsufficientStockError is returned.
func (s *Service) Purchase(ctx context.Context, cartID, purchaser, idempotencyKey string) (*Result, error) {
	logger := logging.FromContext(ctx).With(
		zap.String("component", "checkout"),
		zap.String("cart_id", cartID),
	)

	if cartID == "" {
		return nil, fmt.Errorf("checkout: cart id is required")
	}
	if purchaser == "" {
		return nil, fmt.Errorf("checkout: purchaser is required")
	}

	var reservation string
	if idempotencyKey != "" && s.idempotency != nil {
		reservation = cartID + ":" + idempotencyKey
		ok, err := s.idempotency.Reserve(ctx, reservation)
		if err != nil {
			return nil, fmt.Errorf("checkout: idempotency check: %w", err)
		}
		if !ok {
			s.metrics.Checkouts.WithLabelValues("duplicate").Inc()
			return nil, ErrDuplicatePurchase
		}
	}

	result, err := s.fulfill(ctx, logger, cartID, purchaser)
	if err != nil && reservation != "" {
		// A key stays claimed only when a ticket was written, so a failed
		// attempt can be retried under the same key.
		if relErr := s.idempotency.Release(ctx, reservation); relErr != nil {
			logger.Warn("idempotency_release_failed", zap.Error(relErr))
		}
	}
	return result, err
}

func (s *Service) fulfill(ctx context.Context, logger *zap.Logger, cartID, purchaser string) (*Result, error) {
	c, err := s.carts.Get(ctx, cartID)
	if errors.Is(err, cart.ErrNotFound) {
		s.metrics.Checkouts.WithLabelValues("empty_cart").Inc()
		return nil, ErrCartEmpty
	}
	if err != nil {
		return nil, fmt.Errorf("checkout: load cart: %w", err)
	}
	if c.IsEmpty() {
		s.metrics.Checkouts.WithLabelValues("empty_cart").Inc()
		return nil, ErrCartEmpty
	}

	var (
		total       = decimal.Zero
		processed   = make([]cart.LineItem, 0, len(c.Items))
		unprocessed = make([]string, 0)
	)

	// Line items are visited in the cart's stored order. Each item either
	// deducts stock atomically or lands on the unprocessed list untouched.
	for _, item := range c.Items {
		p, err := s.products.Get(ctx, item.ProductID)
		if errors.Is(err, product.ErrNotFound) {
			logger.Warn("checkout_product_missing", zap.String("product_id", item.ProductID))
			unprocessed = append(unprocessed, item.ProductID)
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("checkout: load product %s: %w", item.ProductID, err)
		}

		ok, err := s.products.DecrementStock(ctx, item.ProductID, item.Quantity)
		if err != nil {
			return nil, fmt.Errorf("checkout: decrement stock for %s: %w", item.ProductID, err)
		}
		if !ok {
			unprocessed = append(unprocessed, item.ProductID)
			continue
		}

		total = total.Add(p.Price.Mul(decimal.NewFromInt(int64(item.Quantity))))
		processed = append(processed, item)
	}

	// The cart keeps exactly the items whose product ended up on the final
	// unprocessed list.
	short := make(map[string]struct{}, len(unprocessed))
	for _, id := range unprocessed {
		short[id] = struct{}{}
	}
	remaining := make([]cart.LineItem, 0, len(unprocessed))
	for _, item := range c.Items {
		if _, ok := short[item.ProductID]; ok {
			remaining = append(remaining, item)
		}
	}
	if err := c.ReplaceItems(remaining); err != nil {
		return nil, fmt.Errorf("checkout: rewrite cart: %w", err)
	}
	if err := s.carts.Update(ctx, c); err != nil {
		return nil, fmt.Errorf("checkout: save cart: %w", err)
	}

	s.metrics.UnprocessedProducts.Add(float64(len(unprocessed)))

	if len(processed) == 0 {
		logger.Info("checkout_rejected_no_stock",
			zap.Strings("unprocessed_products", unprocessed),
		)
		s.metrics.Checkouts.WithLabelValues("no_stock").Inc()
		return nil, &InsufficientStockError{Unprocessed: unprocessed}
	}

	t, err := ticket.New(s.idGenerator.NewID(), total, purchaser, processed, s.now().UTC())
	if err != nil {
		return nil, fmt.Errorf("checkout: build ticket: %w", err)
	}
	if err := s.tickets.Create(ctx, t); err != nil {
		return nil, fmt.Errorf("checkout: save ticket: %w", err)
	}

	outcome := "success"
	if len(unprocessed) > 0 {
		outcome = "partial"
	}
	s.metrics.Checkouts.WithLabelValues(outcome).Inc()
	logger.Info("checkout_completed",
		zap.String("ticket_id", t.ID),
		zap.String("amount", t.Amount.String()),
		zap.Int("fulfilled_items", len(processed)),
		zap.Int("unprocessed_items", len(unprocessed)),
	)

	return &Result{Ticket: t, UnprocessedProducts: unprocessed}, nil
}

package cart

import (
	"errors"
	"time"
)

var (
	ErrNotFound        = errors.New("cart: not found")
	ErrItemNotFound    = errors.New("cart: product not in cart")
	ErrInvalidQuantity = errors.New("cart: quantity must be a positive integer")
)

// LineItem is a product reference with a quantity, kept in insertion order.
type LineItem struct {
	ProductID string `json:"product"`
	Quantity  int    `json:"quantity"`
}

type Cart struct {
	ID        string
	Items     []LineItem
	CreatedAt time.Time
	UpdatedAt time.Time
}

func New(id string) *Cart {
	now := time.Now().UTC()
	return &Cart{
		ID:        id,
		Items:     []LineItem{},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// AddProduct appends a new line item, or bumps the quantity when the product
// is already in the cart.
func (c *Cart) AddProduct(productID string, quantity int) error {
	if quantity <= 0 {
		return ErrInvalidQuantity
	}
	for i := range c.Items {
		if c.Items[i].ProductID == productID {
			c.Items[i].Quantity += quantity
			c.touch()
			return nil
		}
	}
	c.Items = append(c.Items, LineItem{ProductID: productID, Quantity: quantity})
	c.touch()
	return nil
}

// SetQuantity replaces the quantity of an existing line item.
func (c *Cart) SetQuantity(productID string, quantity int) error {
	if quantity < 1 {
		return ErrInvalidQuantity
	}
	for i := range c.Items {
		if c.Items[i].ProductID == productID {
			c.Items[i].Quantity = quantity
			c.touch()
			return nil
		}
	}
	return ErrItemNotFound
}

func (c *Cart) RemoveProduct(productID string) error {
	for i := range c.Items {
		if c.Items[i].ProductID == productID {
			c.Items = append(c.Items[:i], c.Items[i+1:]...)
			c.touch()
			return nil
		}
	}
	return ErrItemNotFound
}

// ReplaceItems swaps the whole line-item list. Used by checkout to keep only
// the items that could not be fulfilled.
func (c *Cart) ReplaceItems(items []LineItem) error {
	for _, item := range items {
		if item.Quantity <= 0 {
			return ErrInvalidQuantity
		}
	}
	c.Items = append([]LineItem{}, items...)
	c.touch()
	return nil
}

func (c *Cart) Clear() {
	c.Items = []LineItem{}
	c.touch()
}

func (c *Cart) IsEmpty() bool {
	return len(c.Items) == 0
}

func (c *Cart) touch() {
	c.UpdatedAt = time.Now().UTC()
}

func (c *Cart) Clone() *Cart {
	if c == nil {
		return nil
	}
	clone := *c
	clone.Items = append([]LineItem{}, c.Items...)
	return &clone
}

package checkout

import (
	"errors"

	"github.com/shopspring/decimal"

	"shoppos/internal/domain"
)

var (
	ErrOutOfStock     = errors.New("product is out of stock")
	ErrStockCeiling   = errors.New("requested quantity exceeds available stock")
	ErrQuantityFloor  = errors.New("quantity cannot go below one")
	ErrNegativePrice  = errors.New("price cannot be negative")
	ErrLineNotFound   = errors.New("product is not in the cart")
	ErrEmptyCart      = errors.New("cart is empty")
	ErrInvalidProduct = errors.New("product has no id")
)

// Line is a product snapshot taken when it first entered the cart plus the
// terminal's working quantity and price.
type Line struct {
	Product  domain.Product  `json:"product"`
	Quantity int             `json:"quantity"`
	Price    decimal.Decimal `json:"price"`
}

func (l Line) Total() decimal.Decimal {
	return l.Price.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// Cart holds at most one line per product ID. Lines keep the order in which
// products were first added.
type Cart struct {
	lines map[string]*Line
	order []string
}

func NewCart() *Cart {
	return &Cart{lines: make(map[string]*Line)}
}

// Add puts one unit of p into the cart. The stock ceiling is checked against
// the product passed in, not the snapshot held by an existing line.
func (c *Cart) Add(p domain.Product) error {
	if p.ID == "" {
		return ErrInvalidProduct
	}
	if p.Quantity <= 0 {
		return ErrOutOfStock
	}
	if line, ok := c.lines[p.ID]; ok {
		if line.Quantity >= p.Quantity {
			return ErrStockCeiling
		}
		line.Quantity++
		return nil
	}
	c.lines[p.ID] = &Line{Product: p, Quantity: 1, Price: domain.RoundMoney(p.Price)}
	c.order = append(c.order, p.ID)
	return nil
}

func (c *Cart) Remove(productID string) error {
	if _, ok := c.lines[productID]; !ok {
		return ErrLineNotFound
	}
	delete(c.lines, productID)
	for i, id := range c.order {
		if id == productID {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
	return nil
}

// Adjust changes a line's quantity by delta, bounded by 1 and the stock seen
// when the line was created.
func (c *Cart) Adjust(productID string, delta int) error {
	line, ok := c.lines[productID]
	if !ok {
		return ErrLineNotFound
	}
	next := line.Quantity + delta
	if next > line.Product.Quantity {
		return ErrStockCeiling
	}
	if next < 1 {
		return ErrQuantityFloor
	}
	line.Quantity = next
	return nil
}

// OverridePrice sets the unit price for this sale only, rounded to
// domain.MoneyPlaces; the catalog price is untouched.
func (c *Cart) OverridePrice(productID string, price decimal.Decimal) error {
	line, ok := c.lines[productID]
	if !ok {
		return ErrLineNotFound
	}
	if price.IsNegative() {
		return ErrNegativePrice
	}
	line.Price = domain.RoundMoney(price)
	return nil
}

func (c *Cart) Lines() []Line {
	out := make([]Line, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, *c.lines[id])
	}
	return out
}

func (c *Cart) Line(productID string) (Line, bool) {
	line, ok := c.lines[productID]
	if !ok {
		return Line{}, false
	}
	return *line, true
}

func (c *Cart) Total() decimal.Decimal {
	total := decimal.Zero
	for _, line := range c.lines {
		total = total.Add(line.Total())
	}
	return total
}

func (c *Cart) ItemCount() int {
	n := 0
	for _, line := range c.lines {
		n += line.Quantity
	}
	return n
}

func (c *Cart) Len() int {
	return len(c.order)
}

func (c *Cart) Clear() {
	c.lines = make(map[string]*Line)
	c.order = nil
}

// View is the JSON shape of a cart.
type View struct {
	Lines     []Line          `json:"lines"`
	Total     decimal.Decimal `json:"total"`
	ItemCount int             `json:"item_count"`
}

func (c *Cart) View() View {
	return View{Lines: c.Lines(), Total: c.Total(), ItemCount: c.ItemCount()}
}

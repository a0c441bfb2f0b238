package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/ekharid/internal/model"
	"github.com/iliyamo/ekharid/internal/service"
)

// CartHandler serves the buyer routes: cart quantity changes, cart
// listing, order placement and order history.  Every route is scoped to
// the :buyerId path parameter, which the router guards to equal the caller.
type CartHandler struct {
	Cart   *service.CartService
	Orders *service.OrderService
}

func NewCartHandler(cart *service.CartService, orders *service.OrderService) *CartHandler {
	return &CartHandler{Cart: cart, Orders: orders}
}

type cartReq struct {
	ProductID string `json:"productId" validate:"required"`
}

type orderItemReq struct {
	ProductID string `json:"productId" validate:"required"`
	Quantity  int    `json:"quantity" validate:"required,min=1"`
}

type placeOrderReq struct {
	Items []orderItemReq `json:"items" validate:"required,min=1,dive"`
}

func (h *CartHandler) bindCart(c echo.Context) (string, error) {
	var req cartReq
	if err := c.Bind(&req); err != nil {
		return "", echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	if err := c.Validate(&req); err != nil {
		return "", fail(c, err)
	}
	return req.ProductID, nil
}

func cartState(p *model.Product, buyerID string) echo.Map {
	return echo.Map{
		"productId": p.ID,
		"stock":     p.Stock,                 // units left for everyone
		"status":    p.Status(),              // derived, sold at zero stock
		"quantity":  p.CartQuantity(buyerID), // this buyer's cart line only
	}
}

// IncreaseQuantity reserves one more unit.
func (h *CartHandler) IncreaseQuantity(c echo.Context) error {
	productID, err := h.bindCart(c)
	if err != nil {
		return err
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	buyerID := c.Param("buyerId") // equals the token subject, see RequireSelf
	p, err := h.Cart.Increase(ctx, buyerID, productID)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "quantity increased", "cart": cartState(p, buyerID)})
}

// DecreaseQuantity releases one reserved unit.
func (h *CartHandler) DecreaseQuantity(c echo.Context) error {
	productID, err := h.bindCart(c)
	if err != nil {
		return err
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	buyerID := c.Param("buyerId")
	p, err := h.Cart.Decrease(ctx, buyerID, productID)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "quantity decreased", "cart": cartState(p, buyerID)})
}

// ResetQuantity clears the cart line.
func (h *CartHandler) ResetQuantity(c echo.Context) error {
	productID, err := h.bindCart(c)
	if err != nil {
		return err
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	buyerID := c.Param("buyerId")
	p, released, err := h.Cart.Reset(ctx, buyerID, productID)
	if err != nil {
		return fail(c, err)
	}
	state := cartState(p, buyerID)
	state["released"] = released // units returned to stock
	return c.JSON(http.StatusOK, echo.Map{"message": "cart item removed", "cart": state})
}

// FetchCartItems lists the caller's cart lines.  An empty cart is a 200
// with an empty list.
func (h *CartHandler) FetchCartItems(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()

	items, err := h.Cart.FetchCart(ctx, c.Param("buyerId"))
	if err != nil {
		return fail(c, err)
	}
	msg := "cart items fetched successfully"
	if len(items) == 0 {
		msg = "your cart is empty"
	}
	return c.JSON(http.StatusOK, echo.Map{"message": msg, "items": toLineItemParts(items)})
}

// PlaceOrder commits the requested lines.  When a line fails after earlier
// ones were committed, the error response lists the committed lines.
func (h *CartHandler) PlaceOrder(c echo.Context) error {
	var req placeOrderReq
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	if err := c.Validate(&req); err != nil {
		return fail(c, err)
	}
	items := make([]service.OrderItem, 0, len(req.Items))
	for _, it := range req.Items { // keep request order, lines commit in sequence
		items = append(items, service.OrderItem{ProductID: it.ProductID, Quantity: it.Quantity})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	lines, err := h.Orders.PlaceOrder(ctx, c.Param("buyerId"), items)
	if err != nil {
		if len(lines) == 0 { // nothing committed, plain error
			return fail(c, err)
		}
		status := statusOf(err)
		msg := err.Error()
		if status >= http.StatusInternalServerError { // do not leak internals
			msg = http.StatusText(status)
		}
		return c.JSON(status, echo.Map{"message": msg, "committed": toPlacedLineParts(lines)})
	}
	msg := "order placed successfully"
	if len(lines) == 0 { // every product id was unknown
		msg = "no matching products, nothing ordered"
	}
	return c.JSON(http.StatusCreated, echo.Map{"message": msg, "lines": toPlacedLineParts(lines)})
}

// GetOrders lists the caller's reservation history, newest first.
func (h *CartHandler) GetOrders(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()

	rows, err := h.Orders.GetOrders(ctx, c.Param("buyerId"))
	if err != nil {
		return fail(c, err)
	}
	msg := "orders fetched successfully"
	if len(rows) == 0 {
		msg = "no orders yet"
	}
	return c.JSON(http.StatusOK, echo.Map{"message": msg, "orders": toLineItemParts(rows)})
}

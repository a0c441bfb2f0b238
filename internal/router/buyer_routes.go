package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/ekharid/internal/middleware"
	"github.com/iliyamo/ekharid/internal/model"
)

// RegisterBuyer registers the cart and order routes under
// /product/:buyerId.  Every route requires a buyer token whose subject is
// :buyerId.  Writes change stock, so they invalidate cached catalog reads.
func RegisterBuyer(e *echo.Echo, d Deps) {
	g := e.Group("/product/:buyerId",
		middleware.JWTAuth(d.JWTSecret),
		middleware.RequireRole(model.RoleBuyer),
		middleware.RequireSelf("buyerId"),
	)
	invalidate := middleware.InvalidateCache(d.Cache, d.Redis)

	g.PUT("/increaseQuantity", d.Cart.IncreaseQuantity, invalidate)
	g.PUT("/decreaseQuantity", d.Cart.DecreaseQuantity, invalidate)
	g.PUT("/resetQuantity", d.Cart.ResetQuantity, invalidate)
	g.GET("/fetchCartItems", d.Cart.FetchCartItems)
	g.POST("/placeOrder", d.Cart.PlaceOrder, invalidate)
	g.GET("/getOrders", d.Cart.GetOrders)
}

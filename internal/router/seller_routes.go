package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/ekharid/internal/middleware"
	"github.com/iliyamo/ekharid/internal/model"
)

// RegisterSeller registers catalog writes.  All require a seller token;
// addProducts additionally requires :sellerId to be the caller, while
// update and delete check ownership of the product in the service.
func RegisterSeller(e *echo.Echo, d Deps) {
	auth := []echo.MiddlewareFunc{
		middleware.JWTAuth(d.JWTSecret),
		middleware.RequireRole(model.RoleSeller),
		middleware.InvalidateCache(d.Cache, d.Redis),
	}

	e.POST("/seller/:sellerId/addProducts", d.Products.AddProduct,
		append(auth, middleware.RequireSelf("sellerId"))...)
	e.PUT("/product/:productId/updateProduct", d.Products.UpdateProduct, auth...)
	e.DELETE("/product/:productId/deleteProductById", d.Products.DeleteProduct, auth...)
}

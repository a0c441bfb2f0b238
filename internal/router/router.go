// Package router registers the HTTP routes of the marketplace API.
package router

import (
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/ekharid/internal/config"
	"github.com/iliyamo/ekharid/internal/handler"
	"github.com/iliyamo/ekharid/internal/middleware"
	"github.com/iliyamo/ekharid/internal/storage"
)

// Deps carries everything the route groups need.  Redis may be nil, in
// which case caching and invalidation are no-ops.
type Deps struct {
	Auth      *handler.AuthHandler
	Products  *handler.ProductHandler
	Cart      *handler.CartHandler
	JWTSecret string
	UploadDir string
	Redis     *redis.Client
	Cache     config.CacheConfig
}

// Register wires every route group onto e.
func Register(e *echo.Echo, d Deps) {
	RegisterRoutes(e, d.UploadDir)
	RegisterPublic(e, d)
	RegisterSeller(e, d)
	RegisterBuyer(e, d)
}

// RegisterRoutes registers the health check and the static image files.
func RegisterRoutes(e *echo.Echo, uploadDir string) {
	e.GET("/healthz", handler.Health)
	if uploadDir != "" {
		e.Static(storage.PublicPrefix, uploadDir)
	}
}

// RegisterPublic registers routes that need no token: account creation,
// login, catalog reads and search.  Catalog reads go through the response
// cache.
func RegisterPublic(e *echo.Echo, d Deps) {
	cache := middleware.NewRedisCache(d.Cache, d.Redis)

	u := e.Group("/user")
	u.POST("/userRegistration", d.Auth.Register)
	u.POST("/userLogin", d.Auth.Login)

	e.GET("/seller/:sellerId/getSellerDetails", d.Auth.SellerDetails, cache)
	e.GET("/seller/:sellerId/getProducts", d.Products.GetSellerProducts, cache)

	e.GET("/product/getAllProducts", d.Products.GetAllProducts, cache)
	e.GET("/product/:productId/getProductById", d.Products.GetProductByID, cache)
	// POST keeps the body-based search of the original client; not cached.
	e.POST("/product/searchProducts", d.Products.SearchProducts)
}

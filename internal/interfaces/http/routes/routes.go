// internal/interfaces/http/routes/routes.go
package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/vardan-naturals/storefront/internal/interfaces/http/handlers"
	"github.com/vardan-naturals/storefront/internal/interfaces/http/middleware"
	"github.com/vardan-naturals/storefront/internal/pkg/auth"
)

// Handlers groups everything the API routes dispatch to
type Handlers struct {
	Auth   *handlers.AuthHandler
	Cart   *handlers.CartHandler
	Prices *handlers.PriceHandler
	Tokens *auth.JWTManager
}

// SetupAuthRoutes sets up administrator login
func SetupAuthRoutes(rg *gin.RouterGroup, h Handlers) {
	authGroup := rg.Group("/auth")
	{
		authGroup.POST("/login", h.Auth.Login)
	}
}

// SetupCartRoutes sets up the session cart routes
func SetupCartRoutes(rg *gin.RouterGroup, h Handlers) {
	cart := rg.Group("/cart")
	{
		cart.GET("", h.Cart.GetCart)
		cart.GET("/count", h.Cart.GetCartCount)
		cart.DELETE("", h.Cart.ClearCart)
		cart.POST("/items", h.Cart.AddToCart)
		cart.PATCH("/items/:index", h.Cart.UpdateCartItem)
		cart.DELETE("/items/:index", h.Cart.RemoveFromCart)
		cart.POST("/checkout", h.Cart.Checkout)
	}
}

// SetupAdminRoutes sets up price administration routes
func SetupAdminRoutes(rg *gin.RouterGroup, h Handlers) {
	admin := rg.Group("/admin")
	admin.Use(middleware.AuthMiddleware(h.Tokens), middleware.AdminMiddleware())
	{
		admin.GET("/prices", h.Prices.ListPrices)
		admin.PUT("/prices", h.Prices.UpdatePrice)
		admin.GET("/prices/export", h.Prices.ExportPrices)
		admin.GET("/prices/verify", h.Prices.VerifyPrices)
		admin.GET("/prices/updates", h.Prices.PriceUpdates)
	}
}

// SetupRoutes sets up every API route
func SetupRoutes(rg *gin.RouterGroup, h Handlers) {
	SetupAuthRoutes(rg, h)
	SetupCartRoutes(rg, h)
	SetupAdminRoutes(rg, h)
}

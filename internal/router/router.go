package router

import (
	"github.com/digitalghar/storefront/config"
	"github.com/digitalghar/storefront/internal/app/controller"
	"github.com/digitalghar/storefront/internal/middleware"
	"github.com/gin-gonic/gin"
)

type Router struct {
	authController       *controller.AuthController
	catalogController    *controller.CatalogController
	cartController       *controller.CartController
	cartEventsController *controller.CartEventsController
	checkoutController   *controller.CheckoutController
	accountController    *controller.AccountController
	adminController      *controller.AdminController
	uploadController     *controller.UploadController
	sessions             middleware.SessionLoader
	authLimiter          *middleware.RateLimiter
	config               *config.Config
}

func NewRouter(
	authController *controller.AuthController,
	catalogController *controller.CatalogController,
	cartController *controller.CartController,
	cartEventsController *controller.CartEventsController,
	checkoutController *controller.CheckoutController,
	accountController *controller.AccountController,
	adminController *controller.AdminController,
	uploadController *controller.UploadController,
	sessions middleware.SessionLoader,
	authLimiter *middleware.RateLimiter,
	cfg *config.Config,
) *Router {
	return &Router{
		authController:       authController,
		catalogController:    catalogController,
		cartController:       cartController,
		cartEventsController: cartEventsController,
		checkoutController:   checkoutController,
		accountController:    accountController,
		adminController:      adminController,
		uploadController:     uploadController,
		sessions:             sessions,
		authLimiter:          authLimiter,
		config:               cfg,
	}
}

func (r *Router) Setup() *gin.Engine {
	gin.SetMode(r.config.Server.GinMode)

	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(middleware.LoggingMiddleware())
	router.Use(middleware.CORS(r.config.CORS))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":  "healthy",
			"message": "DigitalGhar storefront is running",
		})
	})

	loadSession := middleware.SessionMiddleware(r.sessions, r.config.Session)

	// throttled before a session is loaded or created
	limited := router.Group("/api/v1/auth", r.authLimiter.Middleware(), loadSession)
	{
		limited.POST("/register", r.authController.Register)
		limited.POST("/login", r.authController.Login)
	}

	v1 := router.Group("/api/v1", loadSession)
	{
		auth := v1.Group("/auth")
		{
			auth.POST("/logout", r.authController.Logout)
			auth.GET("/session", r.authController.Session)
		}

		v1.GET("/home", r.catalogController.Home)
		v1.GET("/products", r.catalogController.ListProducts)
		v1.GET("/products/:slug", r.catalogController.GetProduct)
		v1.GET("/categories", r.catalogController.ListCategories)

		cart := v1.Group("/cart")
		{
			cart.GET("", r.cartController.GetCart)
			cart.DELETE("", r.cartController.ClearCart)
			cart.POST("/items", r.cartController.AddToCart)
			cart.DELETE("/items/:id", r.cartController.RemoveFromCart)
			cart.POST("/coupon", r.cartController.ApplyCoupon)
			cart.GET("/events", r.cartEventsController.Connect)
		}

		checkout := v1.Group("/checkout")
		{
			checkout.GET("", r.checkoutController.GetCheckout)
			checkout.POST("", r.checkoutController.PlaceOrder)
		}

		account := v1.Group("/account")
		account.Use(middleware.RequireAuthenticated())
		{
			account.GET("/profile", r.accountController.GetProfile)
			account.GET("/orders", r.accountController.ListOrders)
			account.GET("/downloads", r.accountController.ListDownloads)
			account.POST("/orders/:id/payment", r.accountController.SubmitPayment)
		}

		admin := v1.Group("/admin")
		admin.Use(middleware.RequireAuthenticated(), middleware.RequireAdmin())
		{
			admin.GET("/dashboard", r.adminController.Dashboard)

			admin.GET("/products", r.adminController.ListProducts)
			admin.GET("/products/:id", r.adminController.GetProduct)
			admin.POST("/products", r.adminController.CreateProduct)
			admin.PUT("/products/:id", r.adminController.UpdateProduct)
			admin.DELETE("/products/:id", r.adminController.DeleteProduct)

			admin.GET("/categories", r.adminController.ListCategories)
			admin.POST("/categories", r.adminController.CreateCategory)
			admin.PUT("/categories/:id", r.adminController.UpdateCategory)
			admin.DELETE("/categories/:id", r.adminController.DeleteCategory)

			admin.GET("/orders", r.adminController.ListOrders)
			admin.GET("/orders/export", r.adminController.ExportOrders)
			admin.POST("/orders/:id/verify", r.adminController.VerifyOrder)
			admin.POST("/orders/:id/reject", r.adminController.RejectOrder)

			admin.POST("/uploads/presigned-url", r.uploadController.GeneratePresignedURL)
		}
	}

	return router
}

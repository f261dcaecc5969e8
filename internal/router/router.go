// Package router assembles the gin engine: middleware, public auth routes and
// the owner-scoped API under /api/v1.
package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"gorm.io/gorm"

	"budgetapp/internal/handlers"
	"budgetapp/internal/middleware"
	"budgetapp/internal/services"
	"budgetapp/internal/tokens"

	_ "budgetapp/internal/docs" // registers the OpenAPI document
)

// Deps holds what the router needs from main.
type Deps struct {
	DB         *gorm.DB
	Denylist   tokens.Denylist
	CORSOrigin string
}

// New builds the application router.
func New(deps Deps) *gin.Engine {
	db := deps.DB
	denylist := deps.Denylist
	if denylist == nil {
		denylist = tokens.NewMemoryDenylist()
	}

	// Services
	userService := services.NewUserService(db)
	budgetService := services.NewBudgetService(db)
	groupService := services.NewGroupService(db)
	categoryService := services.NewCategoryService(db)
	payeeService := services.NewPayeeService(db)
	transactionService := services.NewTransactionService(db)
	auditService := services.NewAuditService(db)

	// Handlers
	authHandler := handlers.NewAuthHandler(userService, auditService, denylist)
	userHandler := handlers.NewUserHandler(userService, auditService)
	budgetHandler := handlers.NewBudgetHandler(budgetService, auditService)
	groupHandler := handlers.NewGroupHandler(groupService, auditService)
	categoryHandler := handlers.NewCategoryHandler(categoryService, auditService)
	payeeHandler := handlers.NewPayeeHandler(payeeService, auditService)
	transactionHandler := handlers.NewTransactionHandler(transactionService, payeeService, auditService)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogging())
	router.Use(middleware.ErrorHandler())
	router.Use(cors(deps.CORSOrigin))

	// Swagger documentation
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Health check endpoint
	router.GET("/api/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	v1 := router.Group("/api/v1")

	// Public routes
	auth := v1.Group("/auth")
	auth.POST("/register", authHandler.Register)
	auth.POST("/token", authHandler.Token)
	auth.POST("/logout", authHandler.Logout)

	// Protected routes
	protected := v1.Group("/")
	protected.Use(middleware.AuthMiddleware(denylist))

	protected.GET("/user-info", authHandler.UserInfo)

	users := protected.Group("/users")
	users.GET("", middleware.RequireAdmin(), userHandler.ListUsers)
	users.GET("/:id", userHandler.GetUser)
	users.PUT("/:id", userHandler.UpdateUser)
	users.DELETE("/:id", userHandler.DeleteUser)

	budgets := protected.Group("/budgets")
	budgets.POST("", budgetHandler.CreateBudget)
	budgets.GET("", budgetHandler.GetBudgets)
	budgets.POST("/copy", budgetHandler.CopyBudget)
	budgets.GET("/:id", budgetHandler.GetBudget)
	budgets.PUT("/:id", budgetHandler.UpdateBudget)
	budgets.DELETE("/:id", budgetHandler.DeleteBudget)

	groups := protected.Group("/budget-category-groups")
	groups.POST("", groupHandler.CreateGroup)
	groups.GET("", groupHandler.GetGroups)
	groups.GET("/:id", groupHandler.GetGroup)
	groups.PUT("/:id", groupHandler.UpdateGroup)
	groups.DELETE("/:id", groupHandler.DeleteGroup)

	categories := protected.Group("/budget-categories")
	categories.POST("", categoryHandler.CreateCategory)
	categories.GET("", categoryHandler.GetCategories)
	categories.GET("/:id", categoryHandler.GetCategory)
	categories.PUT("/:id", categoryHandler.UpdateCategory)
	categories.DELETE("/:id", categoryHandler.DeleteCategory)

	transactions := protected.Group("/transactions")
	transactions.POST("", transactionHandler.CreateTransaction)
	transactions.GET("", transactionHandler.GetTransactions)
	transactions.GET("/:id", transactionHandler.GetTransactionByID)
	transactions.PUT("/:id", transactionHandler.UpdateTransaction)
	transactions.DELETE("/:id", transactionHandler.DeleteTransaction)

	payees := protected.Group("/payees")
	payees.POST("", payeeHandler.CreatePayee)
	payees.GET("", payeeHandler.GetPayees)
	payees.GET("/:id", payeeHandler.GetPayee)
	payees.PUT("/:id", payeeHandler.UpdatePayee)
	payees.DELETE("/:id", payeeHandler.DeletePayee)

	return router
}

// cors answers preflight requests and sets the allow headers. A specific
// origin also allows credentials so the auth cookie is sent cross-site.
func cors(origin string) gin.HandlerFunc {
	if origin == "" {
		origin = "*"
	}
	return func(c *gin.Context) {
		h := c.Writer.Header()
		h.Set("Access-Control-Allow-Origin", origin)
		h.Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		h.Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Request-ID")
		if origin != "*" {
			h.Set("Access-Control-Allow-Credentials", "true")
			h.Add("Vary", "Origin")
		}

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

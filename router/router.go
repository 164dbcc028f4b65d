package router

import (
	"time"

	"github.com/TripTally/trip-tally-backend/config"
	"github.com/TripTally/trip-tally-backend/handlers"
	"github.com/TripTally/trip-tally-backend/middleware"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Dependencies holds everything SetupRouter needs to wire the routes.
type Dependencies struct {
	Config           *config.Config
	JWTValidator     middleware.Validator
	ExpenseHandler   *handlers.ExpenseHandler
	MemberHandler    *handlers.MemberHandler
	ChecklistHandler *handlers.ChecklistHandler
	HealthHandler    *handlers.HealthHandler
	RedisClient      *redis.Client
	Logger           *zap.SugaredLogger
}

// SetupRouter configures and returns the main Gin engine with all
// routes defined.
func SetupRouter(deps Dependencies) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	// Global middleware
	r.Use(middleware.RequestIDMiddleware())
	r.Use(middleware.ErrorHandler())
	r.Use(middleware.CORSMiddleware(&deps.Config.Server))

	// Health and metrics routes stay unauthenticated.
	r.GET("/health", deps.HealthHandler.DetailedHealth)
	r.GET("/health/liveness", deps.HealthHandler.LivenessCheck)
	r.GET("/health/readiness", deps.HealthHandler.ReadinessCheck)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Mutations are rate limited per user; reads are not.
	rateLimit := middleware.MutationRateLimiter(
		deps.RedisClient,
		deps.Config.RateLimit.RequestsPerMinute,
		time.Duration(deps.Config.RateLimit.WindowSeconds)*time.Second,
	)

	v1 := r.Group("/v1")
	v1.Use(middleware.AuthMiddleware(deps.JWTValidator))
	{
		tripRoutes := v1.Group("/trips/:id")
		{
			expenseRoutes := tripRoutes.Group("/expenses")
			{
				expenseRoutes.POST("", rateLimit, deps.ExpenseHandler.CreateExpenseHandler)
				expenseRoutes.GET("", deps.ExpenseHandler.ListExpensesHandler)
				expenseRoutes.GET("/:expenseId", deps.ExpenseHandler.GetExpenseHandler)
				expenseRoutes.PUT("/:expenseId", rateLimit, deps.ExpenseHandler.UpdateExpenseHandler)
				expenseRoutes.DELETE("/:expenseId", rateLimit, deps.ExpenseHandler.DeleteExpenseHandler)
			}

			tripRoutes.GET("/balances", deps.ExpenseHandler.GetBalancesHandler)

			memberRoutes := tripRoutes.Group("/members")
			{
				memberRoutes.GET("", deps.MemberHandler.GetTripMembersHandler)
				memberRoutes.POST("", rateLimit, deps.MemberHandler.AddMemberHandler)
				memberRoutes.DELETE("/:memberId", rateLimit, deps.MemberHandler.RemoveMemberHandler)
				memberRoutes.PATCH("/:memberId/deactivate", rateLimit, deps.MemberHandler.DeactivateMemberHandler)
			}

			checklistRoutes := tripRoutes.Group("/checklist")
			{
				checklistRoutes.POST("", rateLimit, deps.ChecklistHandler.CreateItemHandler)
				checklistRoutes.GET("", deps.ChecklistHandler.ListItemsHandler)
				checklistRoutes.PUT("/:itemId", rateLimit, deps.ChecklistHandler.UpdateItemHandler)
				checklistRoutes.DELETE("/:itemId", rateLimit, deps.ChecklistHandler.DeleteItemHandler)
			}
		}
	}

	return r
}

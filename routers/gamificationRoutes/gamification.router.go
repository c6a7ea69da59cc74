package gamificationRoutes

import (
	gamificationController "lms/controllers/gamification"
	"lms/middleware"

	"github.com/gofiber/fiber/v2"
)

// SetupGamificationRoutes sets up points, badges and leaderboard routes
func SetupGamificationRoutes(app *fiber.App) {
	group := app.Group("/gamification")

	group.Get("/stats", middleware.JWTMiddleware, gamificationController.GetMyStats)
	group.Get("/badges", middleware.JWTMiddleware, gamificationController.GetMyBadges)
	group.Get("/leaderboard", middleware.JWTMiddleware, gamificationController.GetLeaderboard)
}

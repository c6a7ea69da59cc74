package gamificationController

import (
	"lms/database"
	"lms/middleware"
	"lms/models"

	"github.com/gofiber/fiber/v2"
)

// GetMyStats returns the caller's points and streak summary
func GetMyStats(c *fiber.Ctx) error {
	userID, ok := c.Locals("userId").(uint)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	db := database.Database.Db

	var stats models.UserStats
	if err := db.Where("user_id = ?", userID).First(&stats).Error; err != nil {
		// No activity yet; return zeroed stats instead of an error
		stats = models.UserStats{UserID: userID}
	}

	var recent []models.PointsTransaction
	if err := db.Where("user_id = ? AND is_deleted = ?", userID, false).
		Order("created_at desc").Limit(20).Find(&recent).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch points history!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Stats fetched successfully!", fiber.Map{
		"total_points":   stats.TotalPoints,
		"current_streak": stats.CurrentStreak,
		"longest_streak": stats.LongestStreak,
		"last_activity":  stats.LastActivityAt,
		"recent_points":  recent,
	})
}

// GetMyBadges lists the caller's earned badges
func GetMyBadges(c *fiber.Ctx) error {
	userID, ok := c.Locals("userId").(uint)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	var earned []models.UserBadge
	if err := database.Database.Db.Where("user_id = ? AND is_deleted = ?", userID, false).
		Preload("Badge").Order("earned_at desc").Find(&earned).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch badges!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Badges fetched successfully!", earned)
}

// GetLeaderboard returns the top learners by total points
func GetLeaderboard(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", 10)
	if limit < 1 || limit > 100 {
		limit = 10
	}

	type leaderboardRow struct {
		UserID        uint   `json:"user_id"`
		Name          string `json:"name"`
		TotalPoints   int    `json:"total_points"`
		CurrentStreak int    `json:"current_streak"`
	}

	var rows []leaderboardRow
	err := database.Database.Db.Model(&models.UserStats{}).
		Select("user_stats.user_id, users.name, user_stats.total_points, user_stats.current_streak").
		Joins("JOIN users ON users.id = user_stats.user_id AND users.is_deleted = false").
		Where("user_stats.is_deleted = ?", false).
		Order("user_stats.total_points desc").
		Limit(limit).
		Scan(&rows).Error
	if err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch leaderboard!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Leaderboard fetched successfully!", rows)
}

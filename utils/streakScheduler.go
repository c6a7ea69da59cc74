package utils

import (
	"lms/database"
	"lms/models"
	"log"
	"time"

	"github.com/robfig/cron/v3"
)

// InitializeStreakScheduler sets up the daily streak maintenance job
func InitializeStreakScheduler() {
	log.Println("[STREAK-SCHEDULER] Initializing streak scheduler...")

	c := cron.New()

	// Run daily just after midnight to reset broken streaks
	c.AddFunc("5 0 * * *", func() {
		log.Println("[STREAK-SCHEDULER] Running daily streak reset...")
		ResetBrokenStreaks()
	})

	c.Start()
	log.Println("[STREAK-SCHEDULER] Streak scheduler started - runs daily at 00:05")
}

// ResetBrokenStreaks zeroes the current streak of users with no activity
// yesterday or today. Longest streak is preserved.
func ResetBrokenStreaks() {
	db := database.Database.Db
	cutoff := time.Now().Truncate(24 * time.Hour).AddDate(0, 0, -1)

	result := db.Model(&models.UserStats{}).
		Where("current_streak > 0 AND (last_activity_at IS NULL OR last_activity_at < ?)", cutoff).
		Update("current_streak", 0)

	if result.Error != nil {
		log.Printf("[STREAK-SCHEDULER] Error resetting streaks: %v", result.Error)
		return
	}
	log.Printf("[STREAK-SCHEDULER] Reset %d broken streaks", result.RowsAffected)
}

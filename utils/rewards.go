package utils

import (
	"lms/database"
	"lms/models"
	"log"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Points awarded per activity
const (
	PointsEnrollment      = 50
	PointsLessonCompleted = 10
	PointsCourseCompleted = 200
	PointsStreakMilestone = 100
)

// Badge codes
const (
	BadgeFirstEnrollment      = "FIRST_ENROLLMENT"
	BadgeFirstCourseCompleted = "FIRST_COURSE_COMPLETED"
	BadgeStreakWeek           = "STREAK_7"
)

// SeedBadges inserts the built-in badge definitions if they are missing
func SeedBadges() {
	badges := []models.Badge{
		{Code: BadgeFirstEnrollment, Name: "First Steps", Description: "Enrolled in your first course"},
		{Code: BadgeFirstCourseCompleted, Name: "Finisher", Description: "Completed your first course"},
		{Code: BadgeStreakWeek, Name: "On Fire", Description: "Learned 7 days in a row"},
	}

	for _, badge := range badges {
		err := database.Database.Db.
			Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "code"}}, DoNothing: true}).
			Create(&badge).Error
		if err != nil {
			log.Printf("[REWARDS] Failed to seed badge %s: %v", badge.Code, err)
		}
	}
}

// AwardPoints appends to the points ledger and bumps the user's total
func AwardPoints(userID uint, points int, reason, referenceType string, referenceID uint) {
	db := database.Database.Db

	err := db.Transaction(func(tx *gorm.DB) error {
		entry := models.PointsTransaction{
			UserID:        userID,
			Points:        points,
			Reason:        reason,
			ReferenceType: referenceType,
			ReferenceID:   referenceID,
		}
		if err := tx.Create(&entry).Error; err != nil {
			return err
		}

		stats := models.UserStats{UserID: userID}
		if err := tx.Where("user_id = ?", userID).FirstOrCreate(&stats).Error; err != nil {
			return err
		}
		return tx.Model(&stats).Update("total_points", gorm.Expr("total_points + ?", points)).Error
	})
	if err != nil {
		log.Printf("[REWARDS] Failed to award %d points to user %d (%s): %v", points, userID, reason, err)
	}
}

// RecordDailyActivity maintains the user's learning streak. Same-day repeat
// activity is a no-op; activity on consecutive days extends the streak.
func RecordDailyActivity(userID uint) {
	db := database.Database.Db
	now := time.Now()
	today := now.Truncate(24 * time.Hour)

	var stats models.UserStats
	if err := db.Where("user_id = ?", userID).FirstOrCreate(&stats, models.UserStats{UserID: userID}).Error; err != nil {
		log.Printf("[REWARDS] Failed to load stats for user %d: %v", userID, err)
		return
	}

	if stats.LastActivityAt != nil {
		last := stats.LastActivityAt.Truncate(24 * time.Hour)
		switch {
		case last.Equal(today):
			return
		case last.Equal(today.AddDate(0, 0, -1)):
			stats.CurrentStreak++
		default:
			stats.CurrentStreak = 1
		}
	} else {
		stats.CurrentStreak = 1
	}

	if stats.CurrentStreak > stats.LongestStreak {
		stats.LongestStreak = stats.CurrentStreak
	}
	stats.LastActivityAt = &now

	if err := db.Save(&stats).Error; err != nil {
		log.Printf("[REWARDS] Failed to update streak for user %d: %v", userID, err)
		return
	}

	if stats.CurrentStreak == 7 {
		AwardPoints(userID, PointsStreakMilestone, models.PointsReasonStreakMilestone, "", 0)
		EnsureBadge(userID, BadgeStreakWeek)
	}
}

// EnsureBadge awards a badge to the user if not already earned
func EnsureBadge(userID uint, code string) {
	db := database.Database.Db

	var badge models.Badge
	if err := db.Where("code = ? AND is_deleted = false", code).First(&badge).Error; err != nil {
		log.Printf("[REWARDS] Badge %s not found: %v", code, err)
		return
	}

	userBadge := models.UserBadge{UserID: userID, BadgeID: badge.ID, EarnedAt: time.Now()}
	err := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "badge_id"}},
		DoNothing: true,
	}).Create(&userBadge).Error
	if err != nil {
		log.Printf("[REWARDS] Failed to award badge %s to user %d: %v", code, userID, err)
	}
}

// RewardsNotifier adapts the rewards helpers to the payment reconciler's
// collaborator interface. Invoked fire-and-forget after enrollment creation.
type RewardsNotifier struct{}

// NotifyEnrollmentCreated awards enrollment rewards and emails the student.
func (RewardsNotifier) NotifyEnrollmentCreated(userID, courseID uint) {
	HandleEnrollmentCreated(userID, courseID)
}

// HandleEnrollmentCreated runs the rewards side effects shared by the free
// signup path and webhook reconciliation.
func HandleEnrollmentCreated(userID, courseID uint) {
	db := database.Database.Db

	AwardPoints(userID, PointsEnrollment, models.PointsReasonEnrollment, "course", courseID)
	RecordDailyActivity(userID)

	var count int64
	if err := db.Model(&models.Enrollment{}).Where("user_id = ? AND is_deleted = false", userID).Count(&count).Error; err == nil && count == 1 {
		EnsureBadge(userID, BadgeFirstEnrollment)
	}

	var user models.User
	var course models.Course
	if db.First(&user, userID).Error == nil && db.First(&course, courseID).Error == nil {
		SendEnrollmentEmail(user.Email, user.Name, course.Title)
	}
}

// HandleCourseCompleted runs the rewards side effects when a user finishes a course
func HandleCourseCompleted(userID, courseID uint) {
	db := database.Database.Db

	AwardPoints(userID, PointsCourseCompleted, models.PointsReasonCourseCompleted, "course", courseID)

	var count int64
	if err := db.Model(&models.Enrollment{}).Where("user_id = ? AND status = ? AND completed_at IS NOT NULL AND is_deleted = false", userID, models.EnrollmentStatusActive).Count(&count).Error; err == nil && count == 1 {
		EnsureBadge(userID, BadgeFirstCourseCompleted)
	}
}

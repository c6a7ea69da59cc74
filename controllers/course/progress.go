package courseController

import (
	"lms/database"
	"lms/middleware"
	"lms/models"
	"lms/utils"
	"log"
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CompleteLesson marks a lesson as completed for the caller and recomputes
// the enrollment progress. Safe to call repeatedly for the same lesson.
func CompleteLesson(c *fiber.Ctx) error {
	userID, ok := c.Locals("userId").(uint)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	courseID := c.Locals("courseID").(int)
	lessonID := c.Locals("lessonID").(int)

	db := database.Database.Db

	// Caller must be enrolled
	var enrollment models.Enrollment
	if err := db.Where("user_id = ? AND course_id = ? AND status = ? AND is_deleted = ?",
		userID, courseID, models.EnrollmentStatusActive, false).First(&enrollment).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusForbidden, false, "You are not enrolled in this course!", nil)
	}

	var lesson models.Lesson
	if err := db.Where("id = ? AND course_id = ? AND is_published = ? AND is_deleted = ?",
		lessonID, courseID, true, false).First(&lesson).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Lesson not found!", nil)
	}

	now := time.Now()
	progress := models.LessonProgress{
		UserID:         userID,
		LessonID:       uint(lessonID),
		CourseID:       uint(courseID),
		WatchedSeconds: lesson.DurationSeconds,
		Completed:      true,
		CompletedAt:    &now,
	}

	// Upsert keyed on the unique (user, lesson) index; re-completing is a no-op
	res := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "lesson_id"}},
		DoNothing: true,
	}).Create(&progress)
	if res.Error != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to save progress!", nil)
	}

	firstCompletion := res.RowsAffected == 1

	updated, err := recomputeEnrollmentProgress(db, &enrollment)
	if err != nil {
		log.Printf("Error recomputing progress for user %d course %d: %v", userID, courseID, err)
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to update progress!", nil)
	}

	if firstCompletion {
		go func() {
			utils.AwardPoints(userID, utils.PointsLessonCompleted, models.PointsReasonLessonCompleted, "lesson", uint(lessonID))
			utils.RecordDailyActivity(userID)
			if updated.CompletedAt != nil {
				utils.HandleCourseCompleted(userID, uint(courseID))
			}
		}()
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Lesson completed!", fiber.Map{
		"progress":          updated.Progress,
		"completed_lessons": updated.CompletedLessons,
		"total_lessons":     updated.TotalLessons,
		"course_completed":  updated.CompletedAt != nil,
	})
}

// recomputeEnrollmentProgress refreshes the cached counters on an enrollment
// from the lesson progress rows and flags course completion.
func recomputeEnrollmentProgress(db *gorm.DB, enrollment *models.Enrollment) (*models.Enrollment, error) {
	var totalLessons int64
	if err := db.Model(&models.Lesson{}).
		Where("course_id = ? AND is_published = ? AND is_deleted = ?", enrollment.CourseID, true, false).
		Count(&totalLessons).Error; err != nil {
		return nil, err
	}

	var completedLessons int64
	if err := db.Model(&models.LessonProgress{}).
		Where("user_id = ? AND course_id = ? AND completed = ? AND is_deleted = ?", enrollment.UserID, enrollment.CourseID, true, false).
		Count(&completedLessons).Error; err != nil {
		return nil, err
	}

	enrollment.TotalLessons = int(totalLessons)
	enrollment.CompletedLessons = int(completedLessons)
	if totalLessons > 0 {
		enrollment.Progress = float64(completedLessons) / float64(totalLessons) * 100
	}
	if totalLessons > 0 && completedLessons >= totalLessons && enrollment.CompletedAt == nil {
		now := time.Now()
		enrollment.CompletedAt = &now
	}

	if err := db.Save(enrollment).Error; err != nil {
		return nil, err
	}
	return enrollment, nil
}

// GetCourseProgress returns the caller's progress in a course
func GetCourseProgress(c *fiber.Ctx) error {
	userID, ok := c.Locals("userId").(uint)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	courseID := c.Locals("courseID").(int)
	db := database.Database.Db

	var enrollment models.Enrollment
	if err := db.Where("user_id = ? AND course_id = ? AND is_deleted = ?", userID, courseID, false).First(&enrollment).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "You are not enrolled in this course!", nil)
	}

	var completed []models.LessonProgress
	if err := db.Where("user_id = ? AND course_id = ? AND completed = ? AND is_deleted = ?", userID, courseID, true, false).Find(&completed).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch progress!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Progress fetched successfully!", fiber.Map{
		"enrollment":        enrollment,
		"completed_lessons": completed,
	})
}

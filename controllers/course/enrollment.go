package courseController

import (
	"lms/database"
	"lms/middleware"
	"lms/models"
	"lms/utils"
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm/clause"
)

// EnrollInCourse enrolls the caller into a free course. Paid courses must go
// through checkout; their enrollment is created by webhook reconciliation.
func EnrollInCourse(c *fiber.Ctx) error {
	userID, ok := c.Locals("userId").(uint)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	var user models.User
	if err := database.Database.Db.Where("id = ? AND is_deleted = ?", userID, false).First(&user).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "User not found!", nil)
	}

	courseID := c.Locals("courseID").(int)

	// Check if course exists and is active
	var course models.Course
	if err := database.Database.Db.Where("id = ? AND is_deleted = ? AND status = ? AND is_published = ?", courseID, false, "ACTIVE", true).First(&course).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Course not found or not active!", nil)
	}

	if !course.IsFree() {
		return middleware.JsonResponse(c, fiber.StatusPaymentRequired, false, "This is a paid course. Start a checkout via /payment/checkout/:courseId", fiber.Map{
			"price_cents": course.PriceCents,
			"currency":    course.Currency,
		})
	}

	// Insert-if-absent backed by the unique (user, course) index, so a
	// double-tap cannot create two enrollments.
	enrollment := models.Enrollment{
		UserID:     userID,
		CourseID:   uint(courseID),
		Status:     models.EnrollmentStatusActive,
		EnrolledAt: time.Now(),
	}
	res := database.Database.Db.
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "course_id"}},
			DoNothing: true,
		}).
		Create(&enrollment)
	if res.Error != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to enroll in course!", nil)
	}
	if res.RowsAffected == 0 {
		return middleware.JsonResponse(c, fiber.StatusConflict, false, "User already enrolled in this course!", nil)
	}

	go utils.HandleEnrollmentCreated(userID, uint(courseID))

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Enrolled in course successfully!", enrollment)
}

// GetEnrollments lists the caller's enrollments
func GetEnrollments(c *fiber.Ctx) error {
	userID, ok := c.Locals("userId").(uint)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	page := c.QueryInt("page", 1)
	limit := c.QueryInt("limit", 10)
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 10
	}
	offset := (page - 1) * limit

	db := database.Database.Db.Model(&models.Enrollment{}).
		Where("user_id = ? AND is_deleted = ?", userID, false).
		Preload("Course")

	var total int64
	db.Count(&total)

	var enrollments []models.Enrollment
	if err := db.Offset(offset).Limit(limit).Order("created_at desc").Find(&enrollments).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch enrollments!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Enrollments fetched successfully!", fiber.Map{
		"enrollments": enrollments,
		"pagination": fiber.Map{
			"total": total,
			"page":  page,
			"limit": limit,
		},
	})
}

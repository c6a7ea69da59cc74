package courseController

import (
	"lms/database"
	"lms/middleware"
	"lms/models"
	"time"

	"github.com/gofiber/fiber/v2"
)

// RequestCertificate opens a certificate request for a completed course
func RequestCertificate(c *fiber.Ctx) error {
	userID, ok := c.Locals("userId").(uint)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	courseID := c.Locals("courseID").(int)
	db := database.Database.Db

	var enrollment models.Enrollment
	if err := db.Where("user_id = ? AND course_id = ? AND is_deleted = ?", userID, courseID, false).First(&enrollment).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusForbidden, false, "You are not enrolled in this course!", nil)
	}

	if enrollment.CompletedAt == nil {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Complete the course before requesting a certificate!", nil)
	}

	// Already issued?
	if err := db.Where("user_id = ? AND course_id = ? AND is_deleted = ?", userID, courseID, false).First(&models.Certificate{}).Error; err == nil {
		return middleware.JsonResponse(c, fiber.StatusConflict, false, "Certificate already issued for this course!", nil)
	}

	// Pending request?
	if err := db.Where("user_id = ? AND course_id = ? AND status = ? AND is_deleted = ?", userID, courseID, "PENDING", false).First(&models.CertificateRequest{}).Error; err == nil {
		return middleware.JsonResponse(c, fiber.StatusConflict, false, "Certificate request already pending!", nil)
	}

	request := models.CertificateRequest{
		UserID:       userID,
		CourseID:     uint(courseID),
		EnrollmentID: enrollment.ID,
		Status:       "PENDING",
		RequestedAt:  time.Now(),
	}
	if err := db.Create(&request).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to create certificate request!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Certificate requested successfully!", request)
}

// GetUserCertificates lists the caller's issued certificates
func GetUserCertificates(c *fiber.Ctx) error {
	userID, ok := c.Locals("userId").(uint)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	var certificates []models.Certificate
	if err := database.Database.Db.Where("user_id = ? AND is_deleted = ?", userID, false).
		Order("issued_at desc").Find(&certificates).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch certificates!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Certificates fetched successfully!", certificates)
}

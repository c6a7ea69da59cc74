package adminController

import (
	"lms/database"
	"lms/middleware"
	"lms/models"
	"lms/utils"
	"time"

	"github.com/gofiber/fiber/v2"
)

// ListUsers lists platform users for the back-office
func ListUsers(c *fiber.Ctx) error {
	page := c.QueryInt("page", 1)
	limit := c.QueryInt("limit", 20)
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 20
	}
	offset := (page - 1) * limit

	db := database.Database.Db.Model(&models.User{}).Where("is_deleted = ?", false)
	if search := c.Query("search"); search != "" {
		db = db.Where("email ILIKE ? OR name ILIKE ?", "%"+search+"%", "%"+search+"%")
	}

	var total int64
	db.Count(&total)

	var users []models.User
	if err := db.Omit("password").Order("created_at desc").Offset(offset).Limit(limit).Find(&users).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch users!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Users fetched successfully!", fiber.Map{
		"users": users,
		"pagination": fiber.Map{
			"total": total,
			"page":  page,
			"limit": limit,
		},
	})
}

// BlockUser toggles the blocked flag on a user account
func BlockUser(c *fiber.Ctx) error {
	targetID := c.Locals("targetUserID").(int)

	reqData, ok := c.Locals("validatedBlockUser").(*struct {
		Blocked bool   `json:"blocked"`
		Reason  string `json:"reason"`
	})
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
	}

	db := database.Database.Db

	var user models.User
	if err := db.Where("id = ? AND is_deleted = ?", targetID, false).First(&user).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "User not found!", nil)
	}

	updates := map[string]interface{}{"is_blocked": reqData.Blocked}
	if !reqData.Blocked {
		updates["blocked_until"] = nil
		updates["failed_login_attempts"] = 0
	}

	if err := db.Model(&user).Updates(updates).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to update user!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "User updated successfully!", nil)
}

// ListOrders lists orders for reconciliation support and investigation
func ListOrders(c *fiber.Ctx) error {
	page := c.QueryInt("page", 1)
	limit := c.QueryInt("limit", 20)
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 20
	}
	offset := (page - 1) * limit

	db := database.Database.Db.Model(&models.Order{})
	if status := c.Query("status"); status != "" {
		db = db.Where("status = ?", status)
	}
	if session := c.Query("session"); session != "" {
		db = db.Where("provider_session_id = ?", session)
	}

	var total int64
	db.Count(&total)

	var orders []models.Order
	if err := db.Preload("Course").Order("created_at desc").Offset(offset).Limit(limit).Find(&orders).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch orders!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Orders fetched successfully!", fiber.Map{
		"orders": orders,
		"pagination": fiber.Map{
			"total": total,
			"page":  page,
			"limit": limit,
		},
	})
}

// ListWebhookEvents exposes the webhook audit log for investigation
func ListWebhookEvents(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", 50)
	if limit < 1 || limit > 200 {
		limit = 50
	}

	db := database.Database.Db.Model(&models.WebhookEvent{})
	if outcome := c.Query("outcome"); outcome != "" {
		db = db.Where("outcome = ?", outcome)
	}

	var events []models.WebhookEvent
	if err := db.Order("created_at desc").Limit(limit).Find(&events).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch webhook events!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Webhook events fetched successfully!", events)
}

// ApproveCertificate approves a pending certificate request and issues the certificate
func ApproveCertificate(c *fiber.Ctx) error {
	adminID, _ := c.Locals("userId").(uint)
	requestID := c.Locals("requestID").(int)

	db := database.Database.Db

	var request models.CertificateRequest
	if err := db.Where("id = ? AND status = ? AND is_deleted = ?", requestID, "PENDING", false).First(&request).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Pending certificate request not found!", nil)
	}

	now := time.Now()
	certificate := models.Certificate{
		UserID:            request.UserID,
		CourseID:          request.CourseID,
		CertificateNumber: utils.GenerateCertificateNumber(),
		IssuedAt:          now,
	}

	tx := db.Begin()
	if err := tx.Create(&certificate).Error; err != nil {
		tx.Rollback()
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to issue certificate!", nil)
	}
	if err := tx.Model(&request).Updates(map[string]interface{}{
		"status":      "APPROVED",
		"approved_at": &now,
		"approved_by": &adminID,
	}).Error; err != nil {
		tx.Rollback()
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to update request!", nil)
	}
	tx.Commit()

	go func() {
		var user models.User
		var course models.Course
		if db.First(&user, request.UserID).Error == nil && db.First(&course, request.CourseID).Error == nil {
			utils.SendCertificateIssuedEmail(user.Email, user.Name, course.Title, certificate.CertificateNumber)
		}
	}()

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Certificate approved and issued!", certificate)
}

// RejectCertificate rejects a pending certificate request
func RejectCertificate(c *fiber.Ctx) error {
	requestID := c.Locals("requestID").(int)

	reqData, ok := c.Locals("validatedRejectCertificate").(*struct {
		Reason string `json:"reason" validate:"required,min=3"`
	})
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
	}

	db := database.Database.Db

	var request models.CertificateRequest
	if err := db.Where("id = ? AND status = ? AND is_deleted = ?", requestID, "PENDING", false).First(&request).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Pending certificate request not found!", nil)
	}

	if err := db.Model(&request).Updates(map[string]interface{}{
		"status":           "REJECTED",
		"rejection_reason": reqData.Reason,
	}).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to update request!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Certificate request rejected!", nil)
}

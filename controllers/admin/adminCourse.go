package adminController

import (
	"lms/database"
	"lms/middleware"
	"lms/models"

	"github.com/gofiber/fiber/v2"
)

// CreateCourse creates a new course in DRAFT status
func CreateCourse(c *fiber.Ctx) error {
	reqData, ok := c.Locals("validatedCreateCourse").(*struct {
		Title        string `json:"title" validate:"required,min=3"`
		Description  string `json:"description" validate:"required"`
		Author       string `json:"author" validate:"required"`
		Duration     int64  `json:"duration" validate:"gte=0"`
		PriceCents   int64  `json:"price_cents" validate:"gte=0"`
		Currency     string `json:"currency" validate:"omitempty,len=3"`
		ThumbnailURL string `json:"thumbnail_url"`
	})
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
	}

	course := models.Course{
		Title:        reqData.Title,
		Description:  reqData.Description,
		Author:       reqData.Author,
		Duration:     reqData.Duration,
		PriceCents:   reqData.PriceCents,
		ThumbnailURL: reqData.ThumbnailURL,
		Status:       "DRAFT",
	}
	if reqData.Currency != "" {
		course.Currency = reqData.Currency
	}

	if err := database.Database.Db.Create(&course).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to create course!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusCreated, true, "Course created successfully!", course)
}

// UpdateCourse updates course fields, including publish state
func UpdateCourse(c *fiber.Ctx) error {
	courseID := c.Locals("courseID").(int)

	reqData, ok := c.Locals("validatedUpdateCourse").(*struct {
		Title        *string `json:"title" validate:"omitempty,min=3"`
		Description  *string `json:"description"`
		Author       *string `json:"author"`
		Duration     *int64  `json:"duration" validate:"omitempty,gte=0"`
		PriceCents   *int64  `json:"price_cents" validate:"omitempty,gte=0"`
		Status       *string `json:"status" validate:"omitempty,oneof=DRAFT ACTIVE INACTIVE"`
		ThumbnailURL *string `json:"thumbnail_url"`
		IsPublished  *bool   `json:"is_published"`
	})
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
	}

	db := database.Database.Db

	var course models.Course
	if err := db.Where("id = ? AND is_deleted = ?", courseID, false).First(&course).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Course not found!", nil)
	}

	updates := map[string]interface{}{}
	if reqData.Title != nil {
		updates["title"] = *reqData.Title
	}
	if reqData.Description != nil {
		updates["description"] = *reqData.Description
	}
	if reqData.Author != nil {
		updates["author"] = *reqData.Author
	}
	if reqData.Duration != nil {
		updates["duration"] = *reqData.Duration
	}
	if reqData.PriceCents != nil {
		updates["price_cents"] = *reqData.PriceCents
	}
	if reqData.Status != nil {
		updates["status"] = *reqData.Status
	}
	if reqData.ThumbnailURL != nil {
		updates["thumbnail_url"] = *reqData.ThumbnailURL
	}
	if reqData.IsPublished != nil {
		updates["is_published"] = *reqData.IsPublished
	}

	if len(updates) == 0 {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Nothing to update!", nil)
	}

	if err := db.Model(&course).Updates(updates).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to update course!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Course updated successfully!", course)
}

// DeleteCourse soft-deletes a course
func DeleteCourse(c *fiber.Ctx) error {
	courseID := c.Locals("courseID").(int)
	db := database.Database.Db

	var course models.Course
	if err := db.Where("id = ? AND is_deleted = ?", courseID, false).First(&course).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Course not found!", nil)
	}

	if err := db.Model(&course).Updates(map[string]interface{}{"is_deleted": true, "is_published": false}).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to delete course!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Course deleted successfully!", nil)
}

// ListCourses lists all courses including drafts, for the back-office
func ListCourses(c *fiber.Ctx) error {
	page := c.QueryInt("page", 1)
	limit := c.QueryInt("limit", 20)
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 20
	}
	offset := (page - 1) * limit

	db := database.Database.Db.Model(&models.Course{}).Where("is_deleted = ?", false)

	var total int64
	db.Count(&total)

	var courses []models.Course
	if err := db.Order("created_at desc").Offset(offset).Limit(limit).Find(&courses).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch courses!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Courses fetched successfully!", fiber.Map{
		"courses": courses,
		"pagination": fiber.Map{
			"total": total,
			"page":  page,
			"limit": limit,
		},
	})
}

// CreateModule adds a module to a course
func CreateModule(c *fiber.Ctx) error {
	courseID := c.Locals("courseID").(int)

	reqData, ok := c.Locals("validatedCreateModule").(*struct {
		Title       string `json:"title" validate:"required,min=2"`
		Description string `json:"description"`
		OrderIndex  int    `json:"order_index" validate:"gte=0"`
	})
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
	}

	db := database.Database.Db

	if err := db.Where("id = ? AND is_deleted = ?", courseID, false).First(&models.Course{}).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Course not found!", nil)
	}

	module := models.CourseModule{
		CourseID:    uint(courseID),
		Title:       reqData.Title,
		Description: reqData.Description,
		OrderIndex:  reqData.OrderIndex,
	}
	if err := db.Create(&module).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to create module!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusCreated, true, "Module created successfully!", module)
}

// CreateLesson adds a lesson to a module
func CreateLesson(c *fiber.Ctx) error {
	courseID := c.Locals("courseID").(int)
	moduleID := c.Locals("moduleID").(int)

	reqData, ok := c.Locals("validatedCreateLesson").(*struct {
		Title           string `json:"title" validate:"required,min=2"`
		Description     string `json:"description"`
		ContentType     string `json:"content_type" validate:"required,oneof=VIDEO TEXT"`
		VideoURL        string `json:"video_url" validate:"required_if=ContentType VIDEO,omitempty,url"`
		TextContent     string `json:"text_content" validate:"required_if=ContentType TEXT"`
		DurationSeconds int    `json:"duration_seconds" validate:"gte=0"`
		OrderIndex      int    `json:"order_index" validate:"gte=0"`
		IsPublished     bool   `json:"is_published"`
	})
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request data!", nil)
	}

	db := database.Database.Db

	var module models.CourseModule
	if err := db.Where("id = ? AND course_id = ? AND is_deleted = ?", moduleID, courseID, false).First(&module).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Module not found!", nil)
	}

	lesson := models.Lesson{
		CourseID:        uint(courseID),
		ModuleID:        uint(moduleID),
		Title:           reqData.Title,
		Description:     reqData.Description,
		ContentType:     reqData.ContentType,
		VideoURL:        reqData.VideoURL,
		TextContent:     reqData.TextContent,
		DurationSeconds: reqData.DurationSeconds,
		OrderIndex:      reqData.OrderIndex,
		IsPublished:     reqData.IsPublished,
	}
	if err := db.Create(&lesson).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to create lesson!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusCreated, true, "Lesson created successfully!", lesson)
}

// DeleteLesson soft-deletes a lesson
func DeleteLesson(c *fiber.Ctx) error {
	lessonID := c.Locals("lessonID").(int)
	db := database.Database.Db

	var lesson models.Lesson
	if err := db.Where("id = ? AND is_deleted = ?", lessonID, false).First(&lesson).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Lesson not found!", nil)
	}

	if err := db.Model(&lesson).Update("is_deleted", true).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to delete lesson!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Lesson deleted successfully!", nil)
}

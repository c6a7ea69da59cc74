package courseController

import (
	"lms/database"
	"lms/middleware"
	"lms/models"

	"github.com/gofiber/fiber/v2"
)

// GetAllCourses lists published courses for the catalog
func GetAllCourses(c *fiber.Ctx) error {
	page := c.QueryInt("page", 1)
	limit := c.QueryInt("limit", 10)
	search := c.Query("search")

	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 10
	}
	offset := (page - 1) * limit

	db := database.Database.Db
	query := db.Model(&models.Course{}).
		Where("is_published = ? AND status = ? AND is_deleted = ?", true, "ACTIVE", false)

	if search != "" {
		query = query.Where("title ILIKE ?", "%"+search+"%")
	}
	if free := c.Query("free"); free == "true" {
		query = query.Where("price_cents = 0")
	}

	var total int64
	query.Count(&total)

	var courses []models.Course
	if err := query.Order("created_at desc").Offset(offset).Limit(limit).Find(&courses).Error; err != nil {
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

// GetCourseDetails returns a published course with its modules and lessons
func GetCourseDetails(c *fiber.Ctx) error {
	courseID := c.Locals("courseID").(int)

	db := database.Database.Db

	var course models.Course
	if err := db.Where("id = ? AND is_published = ? AND is_deleted = ?", courseID, true, false).First(&course).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Course not found!", nil)
	}

	var modules []models.CourseModule
	if err := db.Where("course_id = ? AND is_deleted = ?", courseID, false).Order("order_index asc").Find(&modules).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch modules!", nil)
	}

	var lessons []models.Lesson
	if err := db.Where("course_id = ? AND is_published = ? AND is_deleted = ?", courseID, true, false).
		Order("module_id asc, order_index asc").Find(&lessons).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch lessons!", nil)
	}

	// Group lessons under their modules
	lessonsByModule := make(map[uint][]models.Lesson)
	for _, lesson := range lessons {
		lessonsByModule[lesson.ModuleID] = append(lessonsByModule[lesson.ModuleID], lesson)
	}

	type moduleDetail struct {
		models.CourseModule
		Lessons []models.Lesson `json:"lessons"`
	}
	details := make([]moduleDetail, 0, len(modules))
	for _, module := range modules {
		details = append(details, moduleDetail{CourseModule: module, Lessons: lessonsByModule[module.ID]})
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Course fetched successfully!", fiber.Map{
		"course":  course,
		"modules": details,
	})
}

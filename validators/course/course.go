package courseValidator

import (
	"lms/middleware"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
)

// paramID parses a positive integer route parameter
func paramID(c *fiber.Ctx, name string) (int, bool) {
	raw := strings.TrimSpace(c.Params(name))
	if raw == "" {
		return 0, false
	}
	id, err := strconv.Atoi(raw)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// CourseID validates the :id route parameter
func CourseID() fiber.Handler {
	return func(c *fiber.Ctx) error {
		courseID, ok := paramID(c, "id")
		if !ok {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid Course ID!", nil)
		}
		c.Locals("courseID", courseID)
		return c.Next()
	}
}

// CourseLessonIDs validates :course_id and :lesson_id route parameters
func CourseLessonIDs() fiber.Handler {
	return func(c *fiber.Ctx) error {
		courseID, ok := paramID(c, "course_id")
		if !ok {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid Course ID!", nil)
		}
		lessonID, ok := paramID(c, "lesson_id")
		if !ok {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid Lesson ID!", nil)
		}
		c.Locals("courseID", courseID)
		c.Locals("lessonID", lessonID)
		return c.Next()
	}
}

// CourseIDFromCoursePath validates the :course_id route parameter
func CourseIDFromCoursePath() fiber.Handler {
	return func(c *fiber.Ctx) error {
		courseID, ok := paramID(c, "course_id")
		if !ok {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid Course ID!", nil)
		}
		c.Locals("courseID", courseID)
		return c.Next()
	}
}

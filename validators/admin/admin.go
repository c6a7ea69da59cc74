package adminValidator

import (
	"lms/middleware"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

var validate = validator.New()

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

func validationErrors(err error) map[string]string {
	errors := make(map[string]string)
	if verrs, ok := err.(validator.ValidationErrors); ok {
		for _, fieldErr := range verrs {
			errors[strings.ToLower(fieldErr.Field())] = "Invalid value for " + fieldErr.Field() + "!"
		}
	}
	return errors
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

// CourseModuleIDs validates :id and :module_id route parameters
func CourseModuleIDs() fiber.Handler {
	return func(c *fiber.Ctx) error {
		courseID, ok := paramID(c, "id")
		if !ok {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid Course ID!", nil)
		}
		moduleID, ok := paramID(c, "module_id")
		if !ok {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid Module ID!", nil)
		}
		c.Locals("courseID", courseID)
		c.Locals("moduleID", moduleID)
		return c.Next()
	}
}

// LessonID validates the :lesson_id route parameter
func LessonID() fiber.Handler {
	return func(c *fiber.Ctx) error {
		lessonID, ok := paramID(c, "lesson_id")
		if !ok {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid Lesson ID!", nil)
		}
		c.Locals("lessonID", lessonID)
		return c.Next()
	}
}

// RequestID validates the :request_id route parameter
func RequestID() fiber.Handler {
	return func(c *fiber.Ctx) error {
		requestID, ok := paramID(c, "request_id")
		if !ok {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid Request ID!", nil)
		}
		c.Locals("requestID", requestID)
		return c.Next()
	}
}

// TargetUserID validates the :user_id route parameter
func TargetUserID() fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, ok := paramID(c, "user_id")
		if !ok {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid User ID!", nil)
		}
		c.Locals("targetUserID", userID)
		return c.Next()
	}
}

// CreateCourse validates the course creation body
func CreateCourse() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData := new(struct {
			Title        string `json:"title" validate:"required,min=3"`
			Description  string `json:"description" validate:"required"`
			Author       string `json:"author" validate:"required"`
			Duration     int64  `json:"duration" validate:"gte=0"`
			PriceCents   int64  `json:"price_cents" validate:"gte=0"`
			Currency     string `json:"currency" validate:"omitempty,len=3"`
			ThumbnailURL string `json:"thumbnail_url"`
		})

		if err := c.BodyParser(reqData); err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
		}
		if err := validate.Struct(reqData); err != nil {
			return middleware.ValidationErrorResponse(c, validationErrors(err))
		}

		c.Locals("validatedCreateCourse", reqData)
		return c.Next()
	}
}

// UpdateCourse validates the course update body
func UpdateCourse() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData := new(struct {
			Title        *string `json:"title" validate:"omitempty,min=3"`
			Description  *string `json:"description"`
			Author       *string `json:"author"`
			Duration     *int64  `json:"duration" validate:"omitempty,gte=0"`
			PriceCents   *int64  `json:"price_cents" validate:"omitempty,gte=0"`
			Status       *string `json:"status" validate:"omitempty,oneof=DRAFT ACTIVE INACTIVE"`
			ThumbnailURL *string `json:"thumbnail_url"`
			IsPublished  *bool   `json:"is_published"`
		})

		if err := c.BodyParser(reqData); err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
		}
		if err := validate.Struct(reqData); err != nil {
			return middleware.ValidationErrorResponse(c, validationErrors(err))
		}

		c.Locals("validatedUpdateCourse", reqData)
		return c.Next()
	}
}

// CreateModule validates the module creation body
func CreateModule() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData := new(struct {
			Title       string `json:"title" validate:"required,min=2"`
			Description string `json:"description"`
			OrderIndex  int    `json:"order_index" validate:"gte=0"`
		})

		if err := c.BodyParser(reqData); err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
		}
		if err := validate.Struct(reqData); err != nil {
			return middleware.ValidationErrorResponse(c, validationErrors(err))
		}

		c.Locals("validatedCreateModule", reqData)
		return c.Next()
	}
}

// CreateLesson validates the lesson creation body
func CreateLesson() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData := new(struct {
			Title           string `json:"title" validate:"required,min=2"`
			Description     string `json:"description"`
			ContentType     string `json:"content_type" validate:"required,oneof=VIDEO TEXT"`
			VideoURL        string `json:"video_url" validate:"required_if=ContentType VIDEO,omitempty,url"`
			TextContent     string `json:"text_content" validate:"required_if=ContentType TEXT"`
			DurationSeconds int    `json:"duration_seconds" validate:"gte=0"`
			OrderIndex      int    `json:"order_index" validate:"gte=0"`
			IsPublished     bool   `json:"is_published"`
		})

		if err := c.BodyParser(reqData); err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
		}
		if err := validate.Struct(reqData); err != nil {
			return middleware.ValidationErrorResponse(c, validationErrors(err))
		}

		c.Locals("validatedCreateLesson", reqData)
		return c.Next()
	}
}

// BlockUser validates the block/unblock body
func BlockUser() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData := new(struct {
			Blocked bool   `json:"blocked"`
			Reason  string `json:"reason"`
		})

		if err := c.BodyParser(reqData); err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
		}

		c.Locals("validatedBlockUser", reqData)
		return c.Next()
	}
}

// RejectCertificate validates the rejection body
func RejectCertificate() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData := new(struct {
			Reason string `json:"reason" validate:"required,min=3"`
		})

		if err := c.BodyParser(reqData); err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
		}
		if err := validate.Struct(reqData); err != nil {
			return middleware.ValidationErrorResponse(c, validationErrors(err))
		}

		c.Locals("validatedRejectCertificate", reqData)
		return c.Next()
	}
}

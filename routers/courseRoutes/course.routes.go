package courseRoutes

import (
	courseController "lms/controllers/course"
	"lms/middleware"
	courseValidator "lms/validators/course"

	"github.com/gofiber/fiber/v2"
)

// SetupCourseRoutes sets up all user-facing course routes
func SetupCourseRoutes(app *fiber.App) {
	courseGroup := app.Group("/course")

	// Catalog (published courses)
	courseGroup.Get("/list", middleware.JWTMiddleware, courseController.GetAllCourses)
	courseGroup.Get("/:id", middleware.JWTMiddleware, courseValidator.CourseID(), courseController.GetCourseDetails)

	// Enrollment (free courses; paid courses go through /payment/checkout)
	courseGroup.Post("/:id/enroll", middleware.JWTMiddleware, courseValidator.CourseID(), courseController.EnrollInCourse)

	// Lesson completion and progress tracking
	courseGroup.Post("/:course_id/lesson/:lesson_id/complete", middleware.JWTMiddleware, courseValidator.CourseLessonIDs(), courseController.CompleteLesson)
	courseGroup.Get("/:course_id/progress", middleware.JWTMiddleware, courseValidator.CourseIDFromCoursePath(), courseController.GetCourseProgress)

	// Certificate request
	courseGroup.Post("/:course_id/certificate/request", middleware.JWTMiddleware, courseValidator.CourseIDFromCoursePath(), courseController.RequestCertificate)

	// User enrollments and certificates
	userGroup := app.Group("/user")
	userGroup.Get("/enrollments", middleware.JWTMiddleware, courseController.GetEnrollments)
	userGroup.Get("/certificates", middleware.JWTMiddleware, courseController.GetUserCertificates)
}

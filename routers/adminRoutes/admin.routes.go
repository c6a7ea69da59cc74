package adminRoutes

import (
	adminController "lms/controllers/admin"
	"lms/middleware"
	adminValidator "lms/validators/admin"

	"github.com/gofiber/fiber/v2"
)

// SetupAdminRoutes sets up all back-office routes
func SetupAdminRoutes(app *fiber.App) {
	adminGroup := app.Group("/admin", middleware.JWTMiddleware, middleware.AdminOnly)

	// Course management
	adminGroup.Get("/courses", adminController.ListCourses)
	adminGroup.Post("/course", adminValidator.CreateCourse(), adminController.CreateCourse)
	adminGroup.Put("/course/:id", adminValidator.CourseID(), adminValidator.UpdateCourse(), adminController.UpdateCourse)
	adminGroup.Delete("/course/:id", adminValidator.CourseID(), adminController.DeleteCourse)

	// Module and lesson management
	adminGroup.Post("/course/:id/module", adminValidator.CourseID(), adminValidator.CreateModule(), adminController.CreateModule)
	adminGroup.Post("/course/:id/module/:module_id/lesson", adminValidator.CourseModuleIDs(), adminValidator.CreateLesson(), adminController.CreateLesson)
	adminGroup.Delete("/lesson/:lesson_id", adminValidator.LessonID(), adminController.DeleteLesson)

	// Orders and webhook audit log
	adminGroup.Get("/orders", adminController.ListOrders)
	adminGroup.Get("/webhook-events", adminController.ListWebhookEvents)

	// User management
	adminGroup.Get("/users", adminController.ListUsers)
	adminGroup.Patch("/users/:user_id/block", adminValidator.TargetUserID(), adminValidator.BlockUser(), adminController.BlockUser)

	// Certificate approvals
	adminGroup.Post("/certificate/:request_id/approve", adminValidator.RequestID(), adminController.ApproveCertificate)
	adminGroup.Post("/certificate/:request_id/reject", adminValidator.RequestID(), adminValidator.RejectCertificate(), adminController.RejectCertificate)
}

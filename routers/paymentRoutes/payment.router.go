package paymentRoutes

import (
	paymentController "lms/controllers/payment"
	"lms/middleware"
	paymentValidator "lms/validators/payment"

	"github.com/gofiber/fiber/v2"
)

// SetupPaymentRoutes sets up checkout and webhook routes
func SetupPaymentRoutes(app *fiber.App, controller *paymentController.PaymentController) {
	paymentGroup := app.Group("/payment")

	paymentGroup.Post("/checkout/:courseId", middleware.JWTMiddleware, paymentValidator.CheckoutCourse(), controller.CreateCheckout)
	paymentGroup.Get("/orders", middleware.JWTMiddleware, controller.GetMyOrders)

	// Provider callback: authenticated by signature, not by JWT
	paymentGroup.Post("/webhook", controller.HandleWebhook)
}

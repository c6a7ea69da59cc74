package main

import (
	"lms/config"
	paymentController "lms/controllers/payment"
	"lms/database"
	"lms/payments"
	adminRoutes "lms/routers/adminRoutes"
	authRoutes "lms/routers/authRoutes"
	courseRoutes "lms/routers/courseRoutes"
	gamificationRoutes "lms/routers/gamificationRoutes"
	paymentRoutes "lms/routers/paymentRoutes"
	"lms/utils"
	"log"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
)

func main() {
	config.LoadConfig()
	database.ConnectDb()

	utils.SeedBadges()
	utils.InitializeStreakScheduler()

	// Payment collaborators live for the whole process; the reconciler gets
	// its store handle here rather than reaching for the global instance.
	store := payments.NewGormStore(database.Database.Db)
	reconciler := payments.NewReconciler(store, utils.RewardsNotifier{})
	verifier := payments.NewVerifier(config.AppConfig.PaymentWebhookSecret)
	provider := payments.NewProviderClient(config.AppConfig.PaymentApiURL, config.AppConfig.PaymentApiKey)
	payment := paymentController.NewPaymentController(verifier, reconciler, provider)

	app := fiber.New()

	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,PUT,PATCH,DELETE",  // Allowed HTTP methods
		AllowHeaders: "Content-Type,Authorization", // Allowed headers
	}))

	// Enable the built-in logger middleware to log all requests
	app.Use(logger.New(logger.Config{
		Format: "[${time}] ${ip} ${method} ${path} ${status} ${latency}\n",
	}))

	authRoutes.SetupAuthRoutes(app)
	courseRoutes.SetupCourseRoutes(app)
	paymentRoutes.SetupPaymentRoutes(app, payment)
	gamificationRoutes.SetupGamificationRoutes(app)
	adminRoutes.SetupAdminRoutes(app)

	log.Printf("Server is running on port %s", config.AppConfig.Port)
	log.Fatal(app.Listen(":" + config.AppConfig.Port))
}

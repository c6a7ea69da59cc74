package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	Port      string
	JWTKey    string
	SaltRound int

	// Payment provider (hosted checkout + signed webhooks)
	PaymentApiURL        string
	PaymentApiKey        string
	PaymentWebhookSecret string
	CheckoutSuccessURL   string
	CheckoutCancelURL    string

	// SendGrid email
	SendGridApiKey string
	EmailSender    string
	EmailName      string
}

// AppConfig is a global variable to access configuration
var AppConfig *Config

// LoadConfig initializes configuration from environment variables or defaults
func LoadConfig() {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found. Using system environment variables.")
	}

	AppConfig = &Config{
		Port:      getEnv("PORT", "3000"),
		JWTKey:    getEnv("JWT_SECRET_KEY", "defaultSecret"),
		SaltRound: getEnvInt("SALT_ROUND", 10),

		PaymentApiURL:        getEnv("PAYMENT_API_URL", "https://api.sandbox.paylane.io/v1"),
		PaymentApiKey:        getEnv("PAYMENT_API_KEY", ""),
		PaymentWebhookSecret: getEnv("PAYMENT_WEBHOOK_SECRET", ""),
		CheckoutSuccessURL:   getEnv("CHECKOUT_SUCCESS_URL", "http://localhost:3000/checkout/success"),
		CheckoutCancelURL:    getEnv("CHECKOUT_CANCEL_URL", "http://localhost:3000/checkout/cancel"),

		SendGridApiKey: getEnv("SENDGRID_API_KEY", ""),
		EmailSender:    getEnv("EMAIL_SENDER", "no-reply@learnhub.io"),
		EmailName:      getEnv("EMAIL_NAME", "LearnHub"),
	}

	// Validate critical configuration
	if AppConfig.JWTKey == "defaultSecret" {
		log.Println("Warning: Using default JWT_SECRET_KEY. Update it in your environment.")
	}
	if AppConfig.PaymentWebhookSecret == "" {
		log.Println("Warning: PAYMENT_WEBHOOK_SECRET is empty. Webhook verification will reject all events.")
	}
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

// getEnvInt retrieves an environment variable as an integer or returns the default integer value
func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	intValue, err := strconv.Atoi(value)
	if err != nil {
		log.Printf("Error converting environment variable %s to int: %v", key, err)
		return defaultValue
	}
	return intValue
}

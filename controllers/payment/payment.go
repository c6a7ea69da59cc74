package paymentController

import (
	"errors"
	"lms/config"
	"lms/database"
	"lms/middleware"
	"lms/models"
	"lms/payments"
	"log"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"gorm.io/datatypes"
	"gorm.io/gorm/clause"
)

// PaymentController owns the checkout and webhook endpoints. The verifier,
// reconciler and provider client are constructed at process startup and
// injected here; this controller holds no business rules of its own beyond
// translating outcomes to HTTP statuses.
type PaymentController struct {
	verifier   *payments.Verifier
	reconciler *payments.Reconciler
	provider   *payments.ProviderClient
}

// NewPaymentController wires the payment collaborators into a controller
func NewPaymentController(verifier *payments.Verifier, reconciler *payments.Reconciler, provider *payments.ProviderClient) *PaymentController {
	return &PaymentController{
		verifier:   verifier,
		reconciler: reconciler,
		provider:   provider,
	}
}

// SignatureHeader carries the provider's timestamped HMAC signature
const SignatureHeader = "Paylane-Signature"

// CreateCheckout opens a provider checkout session for a paid course and
// records the PENDING order keyed by the provider session id.
func (p *PaymentController) CreateCheckout(c *fiber.Ctx) error {
	userID, ok := c.Locals("userId").(uint)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	courseID := c.Locals("courseID").(int)
	db := database.Database.Db

	var course models.Course
	if err := db.Where("id = ? AND is_deleted = ? AND status = ? AND is_published = ?", courseID, false, "ACTIVE", true).First(&course).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "Course not found or not active!", nil)
	}

	if course.IsFree() {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "This course is free. Enroll directly via /course/:id/enroll", nil)
	}

	// Already enrolled?
	if err := db.Where("user_id = ? AND course_id = ? AND is_deleted = ?", userID, courseID, false).First(&models.Enrollment{}).Error; err == nil {
		return middleware.JsonResponse(c, fiber.StatusConflict, false, "You are already enrolled in this course!", nil)
	}

	// Reuse an open checkout for the same course instead of stacking orders
	var pending models.Order
	if err := db.Where("user_id = ? AND course_id = ? AND status = ?", userID, courseID, models.OrderStatusPending).First(&pending).Error; err == nil {
		return middleware.JsonResponse(c, fiber.StatusOK, true, "Checkout already in progress!", fiber.Map{
			"order_id":     pending.ID,
			"checkout_url": pending.CheckoutURL,
		})
	}

	session, err := p.provider.CreateCheckoutSession(c.Context(), payments.CheckoutSessionRequest{
		AmountCents:     course.PriceCents,
		Currency:        course.Currency,
		Description:     course.Title,
		ClientReference: "user_" + strconv.FormatUint(uint64(userID), 10),
		Metadata: map[string]string{
			"user_id":   strconv.FormatUint(uint64(userID), 10),
			"course_id": strconv.FormatUint(uint64(courseID), 10),
		},
		SuccessURL: config.AppConfig.CheckoutSuccessURL,
		CancelURL:  config.AppConfig.CheckoutCancelURL,
	})
	if err != nil {
		log.Printf("Error creating checkout session for user %d course %d: %v", userID, courseID, err)
		return middleware.JsonResponse(c, fiber.StatusBadGateway, false, "Failed to start checkout with payment provider!", nil)
	}

	order := models.Order{
		UserID:      userID,
		CourseID:    uint(courseID),
		ProviderSID: session.SessionID,
		AmountCents: course.PriceCents,
		Currency:    course.Currency,
		Status:      models.OrderStatusPending,
		CheckoutURL: session.CheckoutURL,
	}
	if err := db.Create(&order).Error; err != nil {
		log.Printf("Error saving order for session %s: %v", session.SessionID, err)
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to create order!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Checkout created!", fiber.Map{
		"order_id":     order.ID,
		"checkout_url": session.CheckoutURL,
	})
}

// HandleWebhook receives signed provider events. Verification never touches
// storage; reconciliation outcomes map onto HTTP statuses so the provider
// redelivers only on transient failures.
func (p *PaymentController) HandleWebhook(c *fiber.Ctx) error {
	payload := c.Body()
	signature := c.Get(SignatureHeader)

	event, err := p.verifier.Verify(payload, signature)
	if err != nil {
		log.Printf("[WEBHOOK] Rejected delivery: %v", err)
		// Permanent: a tampered or malformed delivery must not be retried
		return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Webhook rejected: "+err.Error(), nil)
	}

	p.recordWebhookEvent(event, "RECEIVED", "")

	// Closed set of event types; everything but checkout completion is
	// acknowledged without touching reconciliation.
	if event.Type != payments.EventCheckoutCompleted {
		p.recordWebhookEvent(event, "IGNORED", "")
		return middleware.JsonResponse(c, fiber.StatusOK, true, "Event acknowledged", fiber.Map{"handled": false})
	}

	result, err := p.reconciler.Reconcile(c.Context(), event)
	if err != nil {
		switch {
		case errors.Is(err, payments.ErrOrderNotFound):
			log.Printf("[WEBHOOK] No order for session %s (event %s), dropping", event.SessionID, event.ID)
			p.recordWebhookEvent(event, "ORDER_NOT_FOUND", err.Error())
			return middleware.JsonResponse(c, fiber.StatusNotFound, false, "No order for this session!", nil)
		case errors.Is(err, payments.ErrMetadataMismatch):
			log.Printf("[WEBHOOK] Metadata mismatch for session %s (event %s): %v", event.SessionID, event.ID, err)
			p.recordWebhookEvent(event, "METADATA_MISMATCH", err.Error())
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Event metadata does not match order!", nil)
		default:
			// Transient: signal the provider to redeliver
			log.Printf("[WEBHOOK] Transient failure for session %s (event %s): %v", event.SessionID, event.ID, err)
			p.recordWebhookEvent(event, "TRANSIENT_FAILURE", err.Error())
			return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Temporary failure, please retry!", nil)
		}
	}

	p.recordWebhookEvent(event, result.Outcome, "")

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Event processed", fiber.Map{
		"handled": true,
		"outcome": result.Outcome,
	})
}

// recordWebhookEvent appends to the webhook audit log. Best-effort: audit
// failures never affect the delivery response.
func (p *PaymentController) recordWebhookEvent(event *payments.PaymentEvent, outcome, processingError string) {
	record := models.WebhookEvent{
		Provider:        "paylane",
		ProviderEventID: event.ID,
		EventType:       event.Type,
		Payload:         datatypes.JSON(event.Raw),
		SignatureValid:  true,
		Outcome:         outcome,
		ProcessingError: processingError,
	}

	err := database.Database.Db.
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "provider_event_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"outcome", "processing_error"}),
		}).
		Create(&record).Error
	if err != nil {
		log.Printf("[WEBHOOK] Failed to record audit event %s: %v", event.ID, err)
	}
}

// GetMyOrders lists the caller's orders
func (p *PaymentController) GetMyOrders(c *fiber.Ctx) error {
	userID, ok := c.Locals("userId").(uint)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Unauthorized!", nil)
	}

	var orders []models.Order
	if err := database.Database.Db.Where("user_id = ?", userID).
		Preload("Course").Order("created_at desc").Find(&orders).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to fetch orders!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Orders fetched successfully!", orders)
}

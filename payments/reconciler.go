package payments

import (
	"context"
	"errors"
	"fmt"
	"log"

	"lms/models"
)

// Reconciliation errors. Both are permanent data-integrity conditions: the
// caller acknowledges them to the provider so the event is not redelivered,
// and logs them for investigation.
var (
	// ErrOrderNotFound means no local order matches the event's session id.
	// Retrying cannot create the missing order, so the event is dropped.
	ErrOrderNotFound = errors.New("no order for provider session")

	// ErrMetadataMismatch means the event's user/course claims disagree with
	// the stored order. The order is the source of truth; event-supplied
	// identifiers are never trusted over it.
	ErrMetadataMismatch = errors.New("event metadata does not match order")
)

// errCASLost signals inside a reconcile transaction that a concurrent
// delivery won the PENDING->PAID transition.
var errCASLost = errors.New("order status precondition failed")

// Reconciliation outcomes.
const (
	OutcomeReconciled       = "RECONCILED"        // this delivery performed the transition
	OutcomeAlreadyProcessed = "ALREADY_PROCESSED" // idempotent no-op, order already terminal
)

// Result reports a successful reconciliation.
type Result struct {
	Outcome    string
	Order      *models.Order
	Enrollment *models.Enrollment
}

// Notifier is the rewards collaborator poked after an enrollment is created.
// Calls are fire-and-forget; a notifier failure never rolls back the
// order/enrollment transition.
type Notifier interface {
	NotifyEnrollmentCreated(userID, courseID uint)
}

// Reconciler consumes verified checkout-completed events and performs the
// exactly-once promotion of a PENDING order to PAID plus creation of the
// matching ACTIVE enrollment. It is safe to run concurrently for the same
// session id: correctness rests on the store's per-key atomic primitives,
// and the engine performs no internal retries — provider redelivery is the
// retry strategy for transient failures.
type Reconciler struct {
	store    Store
	notifier Notifier
}

// NewReconciler builds a Reconciler on an injected store. notifier may be nil.
func NewReconciler(store Store, notifier Notifier) *Reconciler {
	return &Reconciler{store: store, notifier: notifier}
}

// Reconcile matches a verified event against its order and promotes it.
//
// Order status and enrollment creation commit atomically: after any
// successful call, the order is PAID iff an ACTIVE enrollment exists for its
// user/course (free-course enrollments are created elsewhere and never pass
// through here).
func (r *Reconciler) Reconcile(ctx context.Context, event *PaymentEvent) (*Result, error) {
	order, err := r.store.FindOrderBySessionID(ctx, event.SessionID)
	if err != nil {
		return nil, fmt.Errorf("find order for session %q: %w", event.SessionID, err)
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}

	// The provider may redeliver the same logical event an unbounded number
	// of times; a non-PENDING order means a prior delivery already settled it.
	if order.Status != models.OrderStatusPending {
		return &Result{Outcome: OutcomeAlreadyProcessed, Order: order}, nil
	}

	if event.UserID != order.UserID || event.CourseID != order.CourseID {
		return nil, fmt.Errorf("%w: event user=%d course=%d, order user=%d course=%d",
			ErrMetadataMismatch, event.UserID, event.CourseID, order.UserID, order.CourseID)
	}

	var enrollment *models.Enrollment
	err = r.store.Transaction(ctx, func(tx Store) error {
		won, err := tx.CASOrderStatus(ctx, order.ID, models.OrderStatusPending, models.OrderStatusPaid)
		if err != nil {
			return err
		}
		if !won {
			return errCASLost
		}
		enrollment, err = tx.CreateEnrollmentIfAbsent(ctx, order.UserID, order.CourseID, order.ID)
		return err
	})
	if errors.Is(err, errCASLost) {
		// A concurrent delivery performed the transition between our status
		// read and the conditional update.
		return &Result{Outcome: OutcomeAlreadyProcessed, Order: order}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("promote order %d for session %q: %w", order.ID, event.SessionID, err)
	}

	if r.notifier != nil {
		go func(userID, courseID uint) {
			defer func() {
				if rec := recover(); rec != nil {
					log.Printf("[RECONCILER] rewards notifier panicked for user %d course %d: %v", userID, courseID, rec)
				}
			}()
			r.notifier.NotifyEnrollmentCreated(userID, courseID)
		}(order.UserID, order.CourseID)
	}

	order.Status = models.OrderStatusPaid
	return &Result{Outcome: OutcomeReconciled, Order: order, Enrollment: enrollment}, nil
}

package payments

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"lms/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memStore is a minimal in-memory Store for reconciler tests. Transaction
// emulates rollback by snapshotting state and restoring it when fn fails.
type memStore struct {
	mu          sync.Mutex
	txMu        sync.Mutex
	orders      map[string]*models.Order       // by provider session id
	enrollments map[[2]uint]*models.Enrollment // by (user, course)
	nextID      uint

	findOrderErr error
	casErr       error
	createErr    error

	casCalls    int
	createCalls int
}

func newMemStore() *memStore {
	return &memStore{
		orders:      map[string]*models.Order{},
		enrollments: map[[2]uint]*models.Enrollment{},
		nextID:      100,
	}
}

func (m *memStore) addOrder(sessionID string, userID, courseID uint, status string) *models.Order {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	order := &models.Order{UserID: userID, CourseID: courseID, ProviderSID: sessionID, AmountCents: 4999, Status: status}
	order.ID = m.nextID
	m.orders[sessionID] = order
	return order
}

func (m *memStore) FindOrderBySessionID(ctx context.Context, sessionID string) (*models.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.findOrderErr != nil {
		return nil, m.findOrderErr
	}
	order, ok := m.orders[sessionID]
	if !ok {
		return nil, nil
	}
	copied := *order
	return &copied, nil
}

func (m *memStore) CASOrderStatus(ctx context.Context, orderID uint, expectedStatus, newStatus string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.casCalls++
	if m.casErr != nil {
		return false, m.casErr
	}
	for _, order := range m.orders {
		if order.ID == orderID {
			if order.Status != expectedStatus {
				return false, nil
			}
			order.Status = newStatus
			return true, nil
		}
	}
	return false, nil
}

func (m *memStore) FindEnrollment(ctx context.Context, userID, courseID uint) (*models.Enrollment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	enrollment, ok := m.enrollments[[2]uint{userID, courseID}]
	if !ok {
		return nil, nil
	}
	copied := *enrollment
	return &copied, nil
}

func (m *memStore) CreateEnrollmentIfAbsent(ctx context.Context, userID, courseID, orderID uint) (*models.Enrollment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.createCalls++
	if m.createErr != nil {
		return nil, m.createErr
	}
	key := [2]uint{userID, courseID}
	if existing, ok := m.enrollments[key]; ok {
		copied := *existing
		return &copied, nil
	}
	m.nextID++
	enrollment := &models.Enrollment{UserID: userID, CourseID: courseID, Status: models.EnrollmentStatusActive, OrderID: &orderID}
	enrollment.ID = m.nextID
	m.enrollments[key] = enrollment
	copied := *enrollment
	return &copied, nil
}

func (m *memStore) Transaction(ctx context.Context, fn func(Store) error) error {
	// Serialize transactions so a failed one restores a consistent snapshot.
	m.txMu.Lock()
	defer m.txMu.Unlock()

	m.mu.Lock()
	ordersSnap := map[string]*models.Order{}
	for k, v := range m.orders {
		copied := *v
		ordersSnap[k] = &copied
	}
	enrollSnap := map[[2]uint]*models.Enrollment{}
	for k, v := range m.enrollments {
		copied := *v
		enrollSnap[k] = &copied
	}
	m.mu.Unlock()

	if err := fn(m); err != nil {
		m.mu.Lock()
		m.orders = ordersSnap
		m.enrollments = enrollSnap
		m.mu.Unlock()
		return err
	}
	return nil
}

func (m *memStore) enrollmentCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.enrollments)
}

func completedEvent(sessionID string, userID, courseID uint) *PaymentEvent {
	return &PaymentEvent{
		ID:        "evt_" + sessionID,
		Type:      EventCheckoutCompleted,
		SessionID: sessionID,
		UserID:    userID,
		CourseID:  courseID,
	}
}

func TestReconcileHappyPath(t *testing.T) {
	store := newMemStore()
	order := store.addOrder("cs_1", 7, 42, models.OrderStatusPending)
	r := NewReconciler(store, nil)

	result, err := r.Reconcile(context.Background(), completedEvent("cs_1", 7, 42))
	require.NoError(t, err)
	assert.Equal(t, OutcomeReconciled, result.Outcome)
	assert.Equal(t, models.OrderStatusPaid, result.Order.Status)
	require.NotNil(t, result.Enrollment)
	assert.Equal(t, models.EnrollmentStatusActive, result.Enrollment.Status)
	require.NotNil(t, result.Enrollment.OrderID)
	assert.Equal(t, order.ID, *result.Enrollment.OrderID)
	assert.Equal(t, models.OrderStatusPaid, store.orders["cs_1"].Status)
}

func TestReconcileIdempotentRedelivery(t *testing.T) {
	store := newMemStore()
	store.addOrder("cs_1", 7, 42, models.OrderStatusPending)
	r := NewReconciler(store, nil)
	event := completedEvent("cs_1", 7, 42)

	first, err := r.Reconcile(context.Background(), event)
	require.NoError(t, err)
	assert.Equal(t, OutcomeReconciled, first.Outcome)

	// Redelivering the same logical event any number of times is a no-op.
	for i := 0; i < 5; i++ {
		result, err := r.Reconcile(context.Background(), event)
		require.NoError(t, err)
		assert.Equal(t, OutcomeAlreadyProcessed, result.Outcome)
	}

	assert.Equal(t, 1, store.enrollmentCount())
	assert.Equal(t, models.OrderStatusPaid, store.orders["cs_1"].Status)
}

func TestReconcileConcurrentDeliveries(t *testing.T) {
	store := newMemStore()
	store.addOrder("cs_1", 7, 42, models.OrderStatusPending)
	r := NewReconciler(store, nil)

	const deliveries = 8
	outcomes := make(chan string, deliveries)
	var wg sync.WaitGroup
	for i := 0; i < deliveries; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			result, err := r.Reconcile(context.Background(), completedEvent("cs_1", 7, 42))
			if assert.NoError(t, err) {
				outcomes <- result.Outcome
			}
		}()
	}
	wg.Wait()
	close(outcomes)

	reconciled := 0
	for outcome := range outcomes {
		if outcome == OutcomeReconciled {
			reconciled++
		}
	}
	assert.Equal(t, 1, reconciled, "exactly one delivery wins the transition")
	assert.Equal(t, 1, store.enrollmentCount())
	assert.Equal(t, models.OrderStatusPaid, store.orders["cs_1"].Status)
}

func TestReconcileOrderNotFound(t *testing.T) {
	store := newMemStore()
	r := NewReconciler(store, nil)

	result, err := r.Reconcile(context.Background(), completedEvent("cs_missing", 7, 42))
	assert.ErrorIs(t, err, ErrOrderNotFound)
	assert.Nil(t, result)
	assert.Zero(t, store.casCalls)
	assert.Zero(t, store.createCalls)
}

func TestReconcileMetadataMismatch(t *testing.T) {
	store := newMemStore()
	store.addOrder("cs_1", 7, 42, models.OrderStatusPending)
	r := NewReconciler(store, nil)

	for _, event := range []*PaymentEvent{
		completedEvent("cs_1", 8, 42), // wrong user
		completedEvent("cs_1", 7, 43), // wrong course
	} {
		result, err := r.Reconcile(context.Background(), event)
		assert.ErrorIs(t, err, ErrMetadataMismatch)
		assert.Nil(t, result)
	}

	// The stored order is the source of truth; nothing was mutated.
	assert.Zero(t, store.casCalls)
	assert.Zero(t, store.createCalls)
	assert.Equal(t, models.OrderStatusPending, store.orders["cs_1"].Status)
}

func TestReconcileAtomicPairing(t *testing.T) {
	store := newMemStore()
	store.addOrder("cs_1", 7, 42, models.OrderStatusPending)
	store.createErr = errors.New("enrollments table unavailable")
	r := NewReconciler(store, nil)

	_, err := r.Reconcile(context.Background(), completedEvent("cs_1", 7, 42))
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrOrderNotFound)
	assert.NotErrorIs(t, err, ErrMetadataMismatch)

	// The failed enrollment insert rolled the status transition back: the
	// order is never PAID without its enrollment.
	assert.Equal(t, models.OrderStatusPending, store.orders["cs_1"].Status)
	assert.Zero(t, store.enrollmentCount())

	// Redelivery after the outage settles the order.
	store.createErr = nil
	result, err := r.Reconcile(context.Background(), completedEvent("cs_1", 7, 42))
	require.NoError(t, err)
	assert.Equal(t, OutcomeReconciled, result.Outcome)
	assert.Equal(t, 1, store.enrollmentCount())
}

func TestReconcileTransientStoreFailure(t *testing.T) {
	store := newMemStore()
	store.findOrderErr = errors.New("connection refused")
	r := NewReconciler(store, nil)

	_, err := r.Reconcile(context.Background(), completedEvent("cs_1", 7, 42))
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrOrderNotFound)
	assert.NotErrorIs(t, err, ErrMetadataMismatch)
}

type recordingNotifier struct {
	calls chan [2]uint
}

func (n *recordingNotifier) NotifyEnrollmentCreated(userID, courseID uint) {
	n.calls <- [2]uint{userID, courseID}
}

func TestReconcileNotifiesRewardsOnce(t *testing.T) {
	store := newMemStore()
	store.addOrder("cs_1", 7, 42, models.OrderStatusPending)
	notifier := &recordingNotifier{calls: make(chan [2]uint, 4)}
	r := NewReconciler(store, notifier)

	_, err := r.Reconcile(context.Background(), completedEvent("cs_1", 7, 42))
	require.NoError(t, err)

	select {
	case call := <-notifier.calls:
		assert.Equal(t, [2]uint{7, 42}, call)
	case <-time.After(2 * time.Second):
		t.Fatal("rewards notifier was not called")
	}

	// The idempotent no-op path must not re-notify.
	_, err = r.Reconcile(context.Background(), completedEvent("cs_1", 7, 42))
	require.NoError(t, err)
	select {
	case <-notifier.calls:
		t.Fatal("notifier called on redelivery")
	case <-time.After(100 * time.Millisecond):
	}
}

type panickyNotifier struct{ called chan struct{} }

func (n *panickyNotifier) NotifyEnrollmentCreated(userID, courseID uint) {
	close(n.called)
	panic("rewards service exploded")
}

func TestReconcileNotifierFailureDoesNotRollBack(t *testing.T) {
	store := newMemStore()
	store.addOrder("cs_1", 7, 42, models.OrderStatusPending)
	notifier := &panickyNotifier{called: make(chan struct{})}
	r := NewReconciler(store, notifier)

	result, err := r.Reconcile(context.Background(), completedEvent("cs_1", 7, 42))
	require.NoError(t, err)
	assert.Equal(t, OutcomeReconciled, result.Outcome)

	select {
	case <-notifier.called:
	case <-time.After(2 * time.Second):
		t.Fatal("notifier not invoked")
	}

	assert.Equal(t, models.OrderStatusPaid, store.orders["cs_1"].Status)
	assert.Equal(t, 1, store.enrollmentCount())
}

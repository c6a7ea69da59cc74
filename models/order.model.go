package models

import (
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// OrderStatus values. Transitions are forward-only: PENDING may move to
// PAID, FAILED or CANCELED; the terminal statuses never change again.
const (
	OrderStatusPending  = "PENDING"
	OrderStatusPaid     = "PAID"
	OrderStatusFailed   = "FAILED"
	OrderStatusCanceled = "CANCELED"
)

// Order is the durable record of a purchase intent for a course. It is
// created when checkout is initiated and mutated only by payment
// reconciliation. Orders are never deleted.
type Order struct {
	gorm.Model
	UserID      uint   `json:"user_id" gorm:"index;not null"`
	CourseID    uint   `json:"course_id" gorm:"index;not null"`
	ProviderSID string `json:"provider_session_id" gorm:"column:provider_session_id;uniqueIndex;not null"`
	AmountCents int64  `json:"amount_cents" gorm:"not null"`
	Currency    string `json:"currency" gorm:"default:'USD'"`
	Status      string `json:"status" gorm:"default:'PENDING';index"`
	CheckoutURL string `json:"checkout_url"`
	User        User   `json:"-" gorm:"foreignKey:UserID"`
	Course      Course `json:"course,omitempty" gorm:"foreignKey:CourseID"`
}

// WebhookEvent is an audit record of a received provider event, written by
// the HTTP boundary before reconciliation runs. ProviderEventID dedupes the
// log itself; reconciliation idempotency is keyed on the session id instead,
// since redeliveries arrive with fresh event ids.
type WebhookEvent struct {
	gorm.Model
	Provider        string         `json:"provider" gorm:"type:varchar(32);not null;default:'paylane'"`
	ProviderEventID string         `json:"provider_event_id" gorm:"type:varchar(191);uniqueIndex"`
	EventType       string         `json:"event_type" gorm:"type:varchar(100);index"`
	Payload         datatypes.JSON `json:"payload"`
	SignatureValid  bool           `json:"signature_valid" gorm:"default:false"`
	Outcome         string         `json:"outcome" gorm:"type:varchar(50)"`
	ProcessingError string         `json:"processing_error" gorm:"type:text"`
}

package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Request model. A request links an owner and a sitter for a service
// window. Accepted/Declined stay nil until the sitter responds; once set,
// exactly one of them is true.
type Request struct {
	ID           primitive.ObjectID `json:"id,omitempty" bson:"_id,omitempty"`
	OwnerUserID  primitive.ObjectID `json:"ownerUserId" bson:"ownerUserId"`
	SitterUserID primitive.ObjectID `json:"sitterUserId" bson:"sitterUserId"`
	Start        time.Time          `json:"start" bson:"start"`
	End          time.Time          `json:"end" bson:"end"`
	Cost         float64            `json:"cost" bson:"cost"`
	Accepted     *bool              `json:"accepted,omitempty" bson:"accepted,omitempty"`
	Declined     *bool              `json:"declined,omitempty" bson:"declined,omitempty"`
	ReadByOwner  bool               `json:"readByOwner" bson:"readByOwner"`
	ReadBySitter bool               `json:"readBySitter" bson:"readBySitter"`
	// SitterProfile is attached by ListByOwnerAccepted; never persisted.
	SitterProfile *Profile  `json:"sitterProfile,omitempty" bson:"-"`
	CreatedAt     time.Time `json:"createdAt" bson:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt" bson:"updatedAt"`
}

// Responded reports whether the sitter has accepted or declined.
func (r *Request) Responded() bool {
	return r.Accepted != nil || r.Declined != nil
}

// CreateRequestPayload model
type CreateRequestPayload struct {
	OwnerUserID  string    `json:"ownerUserId" validate:"required"`
	SitterUserID string    `json:"sitterUserId" validate:"required"`
	Start        time.Time `json:"start" validate:"required"`
	End          time.Time `json:"end" validate:"required"`
	Cost         float64   `json:"cost" validate:"gte=0"`
}

// ScheduleUpdatePayload model for rescheduling a request
type ScheduleUpdatePayload struct {
	Start time.Time `json:"start" validate:"required"`
	End   time.Time `json:"end" validate:"required"`
	Cost  float64   `json:"cost" validate:"gte=0"`
}

// ConfirmationPayload model for the sitter's accept/decline response
type ConfirmationPayload struct {
	Accepted bool `json:"accepted"`
}

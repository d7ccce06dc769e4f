package models

import "time"

// Notice kinds discriminating the NotificationView variants.
const (
	NoticeKindRequest      = "request"
	NoticeKindConfirmation = "confirmation"
)

// NotificationView is the ephemeral view-model streamed to clients over the
// realtime channel. It is built fresh for every aggregation and never
// persisted. Kind discriminates the two variants: a pending request toward
// the sitter, or the sitter's accept/decline response toward the owner.
// Only the confirmation variant carries AcceptedStatus/DeclinedStatus.
type NotificationView struct {
	Kind           string    `json:"kind"`
	RequestID      string    `json:"requestId"`
	FirstName      string    `json:"firstName"`
	ProfileImg     string    `json:"profileImg"`
	RequestedDate  time.Time `json:"requestedDate"`
	ReadStatus     bool      `json:"readStatus"`
	AcceptedStatus *bool     `json:"acceptedStatus,omitempty"`
	DeclinedStatus *bool     `json:"declinedStatus,omitempty"`
}

// IsConfirmation reports whether the view is the confirmation variant.
// The accepted-field fallback keeps payloads without a kind working.
func (v NotificationView) IsConfirmation() bool {
	return v.Kind == NoticeKindConfirmation || (v.Kind == "" && v.AcceptedStatus != nil)
}

// RequestRef is the stub clients subscribe with: enough to locate the
// request record and the counterpart user whose profile the notice shows.
type RequestRef struct {
	RequestID    string `json:"requestId"`
	OwnerUserID  string `json:"ownerUserId"`
	SitterUserID string `json:"sitterUserId"`
}

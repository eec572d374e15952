package models

import (
	"strconv"

	"github.com/google/uuid"
)

// NotificationKind tells the transport which message template to render.
type NotificationKind string

const (
	NotifyRegistrationSubmitted NotificationKind = "registration_submitted"
	NotifyRegistrationApproved  NotificationKind = "registration_approved"
	NotifyRegistrationRejected  NotificationKind = "registration_rejected"
	NotifyBanned                NotificationKind = "banned"
	NotifyUnbanned              NotificationKind = "unbanned"
	NotifyComplaintFiled        NotificationKind = "complaint_filed"
	NotifyComplaintResolved     NotificationKind = "complaint_resolved"
	NotifySupportRequest        NotificationKind = "support_request"
	NotifySupportReply          NotificationKind = "support_reply"
	NotifyBroadcast             NotificationKind = "broadcast"
	NotifyMaintenanceStarted    NotificationKind = "maintenance_started"
	NotifyMaintenanceFinished   NotificationKind = "maintenance_finished"
)

// ActionKind names an inline affordance attached to a message.
type ActionKind string

const (
	ActionApprove ActionKind = "approve"
	ActionReject  ActionKind = "reject"
	ActionReplyTo ActionKind = "reply_to"
	ActionBanFrom ActionKind = "ban_from"
	ActionComment ActionKind = "comment"
)

// Action is an inline button the transport renders; Payload comes back
// verbatim in the matching callback event.
type Action struct {
	Kind    ActionKind        `json:"kind"`
	Payload map[string]string `json:"payload,omitempty"`
}

// Notification is an outbound message request for the transport collaborator.
type Notification struct {
	ID        string            `json:"id"`
	Recipient int64             `json:"recipient"`
	Kind      NotificationKind  `json:"kind"`
	Params    map[string]string `json:"params,omitempty"`
	Actions   []Action          `json:"actions,omitempty"`
}

// NewNotification stamps a fresh id on a notification request.
func NewNotification(recipient int64, kind NotificationKind, params map[string]string, actions ...Action) Notification {
	return Notification{
		ID:        uuid.NewString(),
		Recipient: recipient,
		Kind:      kind,
		Params:    params,
		Actions:   actions,
	}
}

// UserAction builds an action whose payload carries a single user id.
func UserAction(kind ActionKind, userID int64) Action {
	return Action{Kind: kind, Payload: map[string]string{"user_id": strconv.FormatInt(userID, 10)}}
}

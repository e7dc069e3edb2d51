package notification

import (
	"time"
)

// Type classifies a notification for presentation purposes only;
// nothing in the delivery core branches on it.
type Type string

const (
	TypeInfo    Type = "info"
	TypeWarning Type = "warning"
	TypeError   Type = "error"
	TypeSuccess Type = "success"
	TypeSystem  Type = "system"
	TypeBilling Type = "billing"
	TypeCompany Type = "company"
	TypeUser    Type = "user"
)

// Valid reports whether t is one of the known notification types.
func (t Type) Valid() bool {
	switch t {
	case TypeInfo, TypeWarning, TypeError, TypeSuccess,
		TypeSystem, TypeBilling, TypeCompany, TypeUser:
		return true
	}
	return false
}

// Notification is a single delivered alert. The JSON field names are the
// wire contract shared by the REST gateway and the push transport; both
// delivery paths must agree on identity via ID.
type Notification struct {
	ID            string     `json:"id"`
	Title         string     `json:"title"`
	Message       string     `json:"message"`
	Type          Type       `json:"type"`
	IsRead        bool       `json:"isRead"`
	ReadAt        *time.Time `json:"readAt,omitempty"`
	Link          string     `json:"link,omitempty"`
	ReferenceType string     `json:"referenceType,omitempty"`
	ReferenceID   string     `json:"referenceId,omitempty"`
	CreatedAt     time.Time  `json:"createdAt"`
}

// MarkRead transitions the notification to read at the given time.
// The transition happens exactly once; marking an already-read
// notification leaves ReadAt untouched.
func (n *Notification) MarkRead(at time.Time) {
	if n.IsRead {
		return
	}
	n.IsRead = true
	n.ReadAt = &at
}

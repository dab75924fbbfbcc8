package types

import "time"

// MaxVisitorNameLength is the maximum length of a sanitized visitor name, in characters.
const MaxVisitorNameLength = 50

// Visitor is one guestbook entry as persisted in the visitor record file.
type Visitor struct {
	Name      string    `json:"name"`
	Timestamp time.Time `json:"timestamp"`
	// OriginIP is the caller's network address. It is stored but never
	// returned by read endpoints.
	OriginIP string `json:"originIP,omitempty"`
}

// View returns the public projection of the visitor.
func (v Visitor) View() VisitorView {
	return VisitorView{Name: v.Name, Timestamp: v.Timestamp}
}

// VisitorView is the read projection of a Visitor.
type VisitorView struct {
	Name      string    `json:"name" example:"Ada"`
	Timestamp time.Time `json:"timestamp" example:"2024-05-01T12:00:00.000Z"`
}

// VisitorCreate represents the request body for POST /save-visitor.
// Name is a pointer so that an absent field can be told apart from an empty one.
type VisitorCreate struct {
	Name *string `json:"name" form:"name"`
}

// SaveVisitorResponse is returned after a visitor was recorded.
type SaveVisitorResponse struct {
	Status        string `json:"status" example:"Visitor data saved successfully!"`
	TotalVisitors int    `json:"totalVisitors" example:"42"`
}

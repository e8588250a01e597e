// Package booking wraps the package, session, billing, and inquiry
// resources of the backend for the signed-in guardian.
package booking

import "time"

// PackageRequest asks for a tutoring package quote or purchase.
type PackageRequest struct {
	PackageType string `json:"packageType"`
	Hours       int    `json:"hours"`
	ChildName   string `json:"childName,omitempty"`
	Notes       string `json:"notes,omitempty"`
}

// Package is a booked tutoring package.
type Package struct {
	ID          string    `json:"id"`
	PackageType string    `json:"packageType"`
	Hours       int       `json:"hours"`
	Credits     int       `json:"credits"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"createdAt"`
}

// SessionRequest books a single tutoring session.
type SessionRequest struct {
	Subject     string    `json:"subject"`
	ScheduledAt time.Time `json:"scheduledAt"`
	Minutes     int       `json:"minutes"`
	ChildName   string    `json:"childName,omitempty"`
	Notes       string    `json:"notes,omitempty"`
	FreeTrial   bool      `json:"freeTrial,omitempty"`
}

// Session is a booked tutoring session.
type Session struct {
	ID          string    `json:"id"`
	Subject     string    `json:"subject"`
	ScheduledAt time.Time `json:"scheduledAt"`
	Minutes     int       `json:"minutes"`
	Status      string    `json:"status"`
	FreeTrial   bool      `json:"freeTrial,omitempty"`
}

// BillingRecord is one invoice or payment entry for a user.
type BillingRecord struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	Amount    float64   `json:"amount"`
	Currency  string    `json:"currency"`
	Status    string    `json:"status"`
	ProofURL  string    `json:"proofUrl,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// Inquiry is a contact-form message from a prospective customer.
type Inquiry struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Message string `json:"message"`
}

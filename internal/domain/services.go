package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	KeyStatusActive  = "active"
	KeyStatusRevoked = "revoked"
)

type DigitalKey struct {
	KeyID      string    `json:"keyId"`
	GuestID    string    `json:"guestId"`
	RoomNumber string    `json:"roomNumber"`
	ValidFrom  string    `json:"validFrom"`
	ValidTo    string    `json:"validTo"`
	Status     string    `json:"status"`
	UpdatedAt  time.Time `json:"updatedAt"`
	Provider   string    `json:"provider"`
}

type KeyRequest struct {
	GuestID       string `json:"guestId"`
	RoomNumber    string `json:"roomNumber"`
	CheckIn       string `json:"checkIn"`
	CheckOut      string `json:"checkOut"`
	ReservationID string `json:"reservationId,omitempty"`
	GuestEmail    string `json:"guestEmail,omitempty"`
	GuestPhone    string `json:"guestPhone,omitempty"`
}

// ---- spa ----

type SpaService struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Category    string          `json:"category"`
	Duration    int             `json:"duration"`
	Price       decimal.Decimal `json:"price"`
	Currency    string          `json:"currency"`
}

type Practitioner struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Title       string   `json:"title"`
	Specialties []string `json:"specialties"`
	Bio         string   `json:"bio"`
}

type TimeSlot struct {
	Start          string `json:"start"`
	End            string `json:"end"`
	PractitionerID string `json:"practitionerId"`
	Available      bool   `json:"available"`
}

type SpaBooking struct {
	ID                 string `json:"id"`
	ConfirmationNumber string `json:"confirmationNumber"`
	ServiceID          string `json:"serviceId"`
	ServiceName        string `json:"serviceName"`
	PractitionerID     string `json:"practitionerId"`
	PractitionerName   string `json:"practitionerName"`
	Date               string `json:"date"`
	Time               string `json:"time"`
	Duration           int    `json:"duration"`
	GuestName          string `json:"guestName"`
	GuestEmail         string `json:"guestEmail"`
	GuestPhone         string `json:"guestPhone"`
	Status             string `json:"status"`
	Notes              string `json:"notes"`
	Provider           string `json:"provider"`
}

type NewSpaBooking struct {
	ServiceID      string `json:"serviceId"`
	PractitionerID string `json:"practitionerId,omitempty"`
	Date           string `json:"date"`
	Time           string `json:"time"`
	Duration       int    `json:"duration,omitempty"`
	GuestName      string `json:"guestName"`
	GuestEmail     string `json:"guestEmail,omitempty"`
	GuestPhone     string `json:"guestPhone,omitempty"`
	RoomNumber     string `json:"roomNumber,omitempty"`
	Notes          string `json:"notes,omitempty"`
}

type SpaFeedback struct {
	BookingID string `json:"bookingId"`
	Rating    int    `json:"rating"`
	Comment   string `json:"comment,omitempty"`
}

// ---- ocr ----

type ExtractedID struct {
	DocumentType   string  `json:"documentType"`
	DocumentNumber string  `json:"documentNumber"`
	FirstName      string  `json:"firstName"`
	LastName       string  `json:"lastName"`
	DateOfBirth    string  `json:"dateOfBirth"`
	IssueDate      string  `json:"issueDate"`
	ExpiryDate     string  `json:"expiryDate"`
	Nationality    string  `json:"nationality"`
	Sex            string  `json:"sex"`
	Confidence     float64 `json:"confidence"`
	Provider       string  `json:"provider"`
}

type IDValidation struct {
	IsValid  bool     `json:"isValid"`
	Errors   []string `json:"errors"`
	Warnings []string `json:"warnings"`
}

// ---- payment ----

type PaymentIntent struct {
	ID               string            `json:"id"`
	Status           string            `json:"status"`
	Amount           decimal.Decimal   `json:"amount"`
	AmountCapturable decimal.Decimal   `json:"amountCapturable"`
	AmountReceived   decimal.Decimal   `json:"amountReceived"`
	Currency         string            `json:"currency"`
	CustomerID       string            `json:"customerId"`
	Description      string            `json:"description"`
	CaptureMethod    string            `json:"captureMethod"`
	ClientSecret     string            `json:"clientSecret,omitempty"`
	Metadata         map[string]string `json:"metadata"`
}

type Refund struct {
	ID              string          `json:"id"`
	PaymentIntentID string          `json:"paymentIntentId"`
	Amount          decimal.Decimal `json:"amount"`
	Currency        string          `json:"currency"`
	Status          string          `json:"status"`
	Reason          string          `json:"reason"`
}

type Customer struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
	Phone string `json:"phone"`
}

type PaymentMethod struct {
	ID         string `json:"id"`
	CustomerID string `json:"customerId"`
	Type       string `json:"type"`
	Brand      string `json:"brand"`
	Last4      string `json:"last4"`
	ExpMonth   int64  `json:"expMonth"`
	ExpYear    int64  `json:"expYear"`
}

// ---- concierge ----

type ChatTurn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type GuestInfo struct {
	Name       string `json:"name,omitempty"`
	RoomNumber string `json:"roomNumber,omitempty"`
	Language   string `json:"language,omitempty"`
}

type ConciergeReply struct {
	Response           string `json:"response"`
	RequiresEscalation bool   `json:"requiresEscalation"`
	Model              string `json:"model"`
}

type Sentiment struct {
	Sentiment string  `json:"sentiment"`
	Score     float64 `json:"score"`
	Urgency   string  `json:"urgency"`
}

type Recommendation struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Category    string `json:"category"`
}

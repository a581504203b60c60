package domain

import "github.com/shopspring/decimal"

// Reservation is the canonical PMS reservation. JSON names are the canonical
// field names, so a marshalled Reservation normalizes back to itself.
type Reservation struct {
	ID                 string  `json:"id"`
	ConfirmationNumber string  `json:"confirmationNumber"`
	GuestID            *string `json:"guestId"`
	GuestFirstName     string  `json:"guestFirstName"`
	GuestLastName      string  `json:"guestLastName"`
	GuestName          string  `json:"guestName"`
	Email              *string `json:"email"`
	Phone              *string `json:"phone"`
	CheckIn            string  `json:"checkIn"`
	CheckOut           string  `json:"checkOut"`
	RoomNumber         *string `json:"roomNumber"`
	RoomType           *string `json:"roomType"`
	Adults             int     `json:"adults"`
	Children           int     `json:"children"`
	Status             string  `json:"status"`
	Provider           string  `json:"provider"`
}

type Folio struct {
	ReservationID string          `json:"reservationId"`
	Charges       []Charge        `json:"charges"`
	Payments      []FolioPayment  `json:"payments"`
	Balance       decimal.Decimal `json:"balance"`
	Currency      string          `json:"currency"`
}

type Charge struct {
	ID          string          `json:"id"`
	Date        string          `json:"date"`
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"amount"`
	Category    string          `json:"category"`
}

type FolioPayment struct {
	ID     string          `json:"id"`
	Date   string          `json:"date"`
	Amount decimal.Decimal `json:"amount"`
	Method string          `json:"method"`
}

type Room struct {
	Number string  `json:"number"`
	Type   string  `json:"type"`
	Status string  `json:"status"`
	Floor  *string `json:"floor"`
}

type MenuItem struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Category    string          `json:"category"`
	Price       decimal.Decimal `json:"price"`
}

// ReservationFilters narrows ListReservations. Zero values are not sent.
type ReservationFilters struct {
	Status   string
	From     string
	To       string
	GuestID  string
	RoomType string
	Limit    int
}

type RoomFilters struct {
	Status   string
	RoomType string
	Floor    string
}

type NewReservation struct {
	GuestFirstName string `json:"guestFirstName"`
	GuestLastName  string `json:"guestLastName"`
	Email          string `json:"email,omitempty"`
	Phone          string `json:"phone,omitempty"`
	CheckIn        string `json:"checkIn"`
	CheckOut       string `json:"checkOut"`
	RoomType       string `json:"roomType,omitempty"`
	Adults         int    `json:"adults"`
	Children       int    `json:"children"`
	RatePlan       string `json:"ratePlan,omitempty"`
}

type GuestProfile struct {
	FirstName   string `json:"firstName,omitempty"`
	LastName    string `json:"lastName,omitempty"`
	Email       string `json:"email,omitempty"`
	Phone       string `json:"phone,omitempty"`
	Nationality string `json:"nationality,omitempty"`
	Language    string `json:"language,omitempty"`
}

type CheckInOptions struct {
	RoomNumber  string `json:"roomNumber,omitempty"`
	ArrivalTime string `json:"arrivalTime,omitempty"`
}

type NewCharge struct {
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"amount"`
	Category    string          `json:"category,omitempty"`
	Currency    string          `json:"currency,omitempty"`
}

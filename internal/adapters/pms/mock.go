package pms

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"hotel_connect/internal/domain"
)

// mockNamespace seeds the name-based UUIDs of fixture records so the same
// input always yields the same id.
var mockNamespace = uuid.MustParse("6f1c3f0e-4a52-4c55-9a8e-2f1b7c1d9e01")

type fixtureGuest struct {
	first, last, email, phone, roomType string
}

var fixtureGuests = []fixtureGuest{
	{"Alice", "Martin", "alice.martin@example.com", "+33 1 23 45 67 89", "Deluxe King"},
	{"Bruno", "Keller", "bruno.keller@example.com", "+41 44 123 45 67", "Superior Twin"},
	{"Chiara", "Rossi", "chiara.rossi@example.com", "+39 06 1234 5678", "Junior Suite"},
	{"Daniel", "Okafor", "daniel.okafor@example.com", "+44 20 7946 0958", "Classic Double"},
}

// fixtures is the zero-network PMS used when no mock server is configured.
// It keeps no state: every answer is a pure function of its input.
type fixtures struct{}

func mockID(parts ...string) string {
	return uuid.NewSHA1(mockNamespace, []byte(strings.Join(parts, "|"))).String()
}

func pickGuest(key string) (int, fixtureGuest) {
	var h uint32
	for _, r := range key {
		h = h*31 + uint32(r)
	}
	i := int(h % uint32(len(fixtureGuests)))
	return i, fixtureGuests[i]
}

func fixtureReservation(conf, checkIn, checkOut, status string) map[string]any {
	i, g := pickGuest(conf)
	return map[string]any{
		"id":                 mockID("reservation", conf),
		"confirmationNumber": conf,
		"guestId":            mockID("guest", g.email),
		"guestFirstName":     g.first,
		"guestLastName":      g.last,
		"email":              g.email,
		"phone":              g.phone,
		"checkIn":            checkIn,
		"checkOut":           checkOut,
		"roomNumber":         strconv.Itoa(101 + i*102),
		"roomType":           g.roomType,
		"adults":             float64(1 + i%2),
		"children":           float64(0),
		"status":             status,
	}
}

func shiftDay(date string, days int) string {
	d, err := time.Parse("2006-01-02", date)
	if err != nil {
		return date
	}
	return d.AddDate(0, 0, days).Format("2006-01-02")
}

func (fixtures) Name() string { return ProviderMock }

func (fixtures) GetReservation(_ context.Context, conf string) (map[string]any, error) {
	return fixtureReservation(conf, "2026-01-15", "2026-01-18", "confirmed"), nil
}

func (f fixtures) ListReservations(_ context.Context, flt domain.ReservationFilters) (any, error) {
	from := flt.From
	if from == "" {
		from = "2026-01-15"
	}
	status := flt.Status
	if status == "" {
		status = "confirmed"
	}
	n := len(fixtureGuests)
	if flt.Limit > 0 && flt.Limit < n {
		n = flt.Limit
	}
	out := make([]any, 0, n)
	for i := 0; i < n; i++ {
		conf := fmt.Sprintf("MOCK-%s-%d", strings.ReplaceAll(from, "-", ""), i+1)
		out = append(out, fixtureReservation(conf, from, shiftDay(from, 2+i), status))
	}
	return out, nil
}

func (fixtures) CreateReservation(_ context.Context, in domain.NewReservation) (map[string]any, error) {
	id := mockID("new", in.GuestFirstName, in.GuestLastName, in.CheckIn, in.CheckOut)
	return map[string]any{
		"id":                 id,
		"confirmationNumber": "MOCK-" + strings.ToUpper(id[:8]),
		"guestFirstName":     in.GuestFirstName,
		"guestLastName":      in.GuestLastName,
		"email":              in.Email,
		"phone":              in.Phone,
		"checkIn":            in.CheckIn,
		"checkOut":           in.CheckOut,
		"roomType":           in.RoomType,
		"adults":             float64(in.Adults),
		"children":           float64(in.Children),
		"status":             "confirmed",
	}, nil
}

func (f fixtures) UpdateReservation(ctx context.Context, id string, patch map[string]any) (map[string]any, error) {
	r, _ := f.GetReservation(ctx, id)
	r["id"] = id
	for k, v := range patch {
		r[k] = v
	}
	return r, nil
}

func (fixtures) GetFolio(_ context.Context, id string) (map[string]any, error) {
	return map[string]any{
		"reservationId": id,
		"currency":      "EUR",
		"charges": []any{
			map[string]any{"id": mockID("charge", id, "1"), "date": "2026-01-15", "description": "Room night", "amount": "180.00", "category": "room"},
			map[string]any{"id": mockID("charge", id, "2"), "date": "2026-01-15", "description": "Dinner", "amount": "64.50", "category": "food_beverage"},
		},
		"payments": []any{
			map[string]any{"id": mockID("payment", id), "date": "2026-01-15", "amount": "100.00", "method": "card"},
		},
		"balance": "144.50",
	}, nil
}

func (fixtures) UpdateGuestProfile(_ context.Context, guestID string, g domain.GuestProfile) (map[string]any, error) {
	return map[string]any{
		"id":          guestID,
		"firstName":   g.FirstName,
		"lastName":    g.LastName,
		"email":       g.Email,
		"phone":       g.Phone,
		"nationality": g.Nationality,
		"language":    g.Language,
	}, nil
}

func (f fixtures) CheckIn(ctx context.Context, id string, o domain.CheckInOptions) (map[string]any, error) {
	r, _ := f.GetReservation(ctx, id)
	r["id"] = id
	r["status"] = "checked_in"
	if o.RoomNumber != "" {
		r["roomNumber"] = o.RoomNumber
	}
	return r, nil
}

func (f fixtures) CheckOut(ctx context.Context, id string) (map[string]any, error) {
	r, _ := f.GetReservation(ctx, id)
	r["id"] = id
	r["status"] = "checked_out"
	return r, nil
}

func (fixtures) AddCharge(_ context.Context, id string, ch domain.NewCharge) (map[string]any, error) {
	return map[string]any{
		"id":          mockID("charge", id, ch.Description, ch.Amount.String()),
		"date":        "2026-01-15",
		"description": ch.Description,
		"amount":      ch.Amount.String(),
		"category":    ch.Category,
	}, nil
}

func (f fixtures) GetArrivals(ctx context.Context, date string) (any, error) {
	return f.ListReservations(ctx, domain.ReservationFilters{From: date, Limit: 2})
}

func (fixtures) GetDepartures(_ context.Context, date string) (any, error) {
	out := make([]any, 0, 2)
	for i := 0; i < 2; i++ {
		conf := fmt.Sprintf("MOCK-D%s-%d", strings.ReplaceAll(date, "-", ""), i+1)
		out = append(out, fixtureReservation(conf, shiftDay(date, -(2+i)), date, "checked_in"))
	}
	return out, nil
}

func (fixtures) GetRooms(_ context.Context, flt domain.RoomFilters) (any, error) {
	all := []map[string]any{
		{"number": "101", "type": "Deluxe King", "status": "clean", "floor": "1"},
		{"number": "203", "type": "Superior Twin", "status": "dirty", "floor": "2"},
		{"number": "305", "type": "Junior Suite", "status": "clean", "floor": "3"},
		{"number": "407", "type": "Classic Double", "status": "inspected", "floor": "4"},
	}
	out := make([]any, 0, len(all))
	for _, r := range all {
		if flt.Status != "" && r["status"] != flt.Status {
			continue
		}
		if flt.RoomType != "" && r["type"] != flt.RoomType {
			continue
		}
		if flt.Floor != "" && r["floor"] != flt.Floor {
			continue
		}
		out = append(out, r)
	}
	return out, nil
}

func (fixtures) GetMenu(context.Context) (any, error) {
	return []any{
		map[string]any{"id": "M1", "name": "Club Sandwich", "description": "Chicken, bacon, egg", "category": "room_service", "price": "18.00"},
		map[string]any{"id": "M2", "name": "Caesar Salad", "description": "Romaine, parmesan, croutons", "category": "room_service", "price": "14.50"},
		map[string]any{"id": "M3", "name": "Espresso", "description": "", "category": "beverages", "price": "3.50"},
	}, nil
}

func (fixtures) GetSpaServices(context.Context) (any, error) {
	return []any{
		map[string]any{"id": "S1", "name": "Swedish Massage", "category": "massage", "duration": float64(60), "price": "95.00", "currency": "EUR"},
		map[string]any{"id": "S2", "name": "Signature Facial", "category": "facial", "duration": float64(45), "price": "80.00", "currency": "EUR"},
	}, nil
}

func (fixtures) GetSpaAvailability(_ context.Context, date, serviceID string) (any, error) {
	out := make([]any, 0, 4)
	for h := 10; h < 18; h += 2 {
		out = append(out, map[string]any{
			"start":          fmt.Sprintf("%sT%02d:00:00Z", date, h),
			"end":            fmt.Sprintf("%sT%02d:00:00Z", date, h+1),
			"practitionerId": mockID("practitioner", serviceID)[:8],
			"available":      h != 14,
		})
	}
	return out, nil
}

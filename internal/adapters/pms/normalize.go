package pms

import (
	"strings"

	"hotel_connect/internal/domain"
	"hotel_connect/internal/normalize"
)

/********** alias registries (single source of truth) **********/

// Every chain starts with the canonical json name so that normalizing an
// already-normalized record reads each field back from itself.
var reservationAliases = map[string][]string{
	"id":           {"id", "reservationId", "ReservationId", "Id", "reservationID", "reservation_id", "reservationIdList.0.id"},
	"confirmation": {"confirmationNumber", "confirmation_number", "ConfirmationNumber", "confirmationNo", "Number", "reservationIdList.1.id"},
	"guestId":      {"guestId", "guest.id", "guest_id", "guestID", "profileId", "CustomerId", "Customer.Id"},
	"flatFirst":    {"guestFirstName", "guest_first_name", "GuestFirstName"},
	"flatLast":     {"guestLastName", "guest_last_name", "GuestLastName"},
	"nestedFirst": {
		"guest.firstName", "guest.first_name", "guest.FirstName", "guest.givenName",
		"Customer.FirstName", "primaryGuest.firstName", "guestInfo.firstName",
	},
	"nestedLast": {
		"guest.lastName", "guest.last_name", "guest.LastName", "guest.surname",
		"Customer.LastName", "primaryGuest.lastName", "guestInfo.lastName",
	},
	"flatName":   {"guestName", "guest.name", "guest_name", "GuestName", "guest.fullName", "Customer.FullName"},
	"email":      {"email", "guest.email", "guestEmail", "guest_email", "guest.emailAddress", "Customer.Email"},
	"phone":      {"phone", "guest.phone", "guestPhone", "guest_phone", "guest.phoneNumber", "Customer.Phone"},
	"checkIn":    {"checkIn", "check_in", "arrivalDate", "arrival", "startDate", "StartUtc", "roomStay.arrivalDate"},
	"checkOut":   {"checkOut", "check_out", "departureDate", "departure", "endDate", "EndUtc", "roomStay.departureDate"},
	"roomNumber": {"roomNumber", "room.number", "room_number", "roomName", "roomStay.roomId", "AssignedResource.Name", "AssignedResourceId"},
	"roomType":   {"roomType", "room.type", "room_type", "roomTypeName", "roomStay.roomType", "RequestedResourceCategory.Name"},
	"adults":     {"adults", "Adults", "adultCount", "AdultCount", "guestCounts.adults", "roomStay.guestCounts.adults"},
	"children":   {"children", "Children", "childCount", "ChildCount", "kids", "guestCounts.children", "roomStay.guestCounts.children"},
	"status":     {"status", "reservationStatus", "reservation_status", "State", "Status"},
}

var envelopeKeys = []string{"reservation", "Reservation", "data"}

// NormalizeReservation maps any provider's reservation payload onto the
// canonical record. Missing optional fields stay empty; it never fails.
// Guest name precedence: flat first/last, then a nested guest object's
// first/last, then a flat name.
func NormalizeReservation(raw map[string]any, provider string) domain.Reservation {
	m := normalize.Unwrap(raw, envelopeKeys...)
	a := reservationAliases

	first := normalize.FirstStr(m, a["flatFirst"]...)
	last := normalize.FirstStr(m, a["flatLast"]...)
	if first == "" && last == "" {
		first = normalize.FirstStr(m, a["nestedFirst"]...)
		last = normalize.FirstStr(m, a["nestedLast"]...)
	}
	name := normalize.JoinNonEmpty(first, last)
	if name == "" {
		name = normalize.FirstStr(m, a["flatName"]...)
	}

	if provider == "" {
		provider = normalize.Str(m, "provider")
	}

	return domain.Reservation{
		ID:                 normalize.FirstStr(m, a["id"]...),
		ConfirmationNumber: normalize.FirstStr(m, a["confirmation"]...),
		GuestID:            normalize.FirstStrPtr(m, a["guestId"]...),
		GuestFirstName:     first,
		GuestLastName:      last,
		GuestName:          name,
		Email:              normalize.FirstStrPtr(m, a["email"]...),
		Phone:              normalize.FirstStrPtr(m, a["phone"]...),
		CheckIn:            normalize.FirstStr(m, a["checkIn"]...),
		CheckOut:           normalize.FirstStr(m, a["checkOut"]...),
		RoomNumber:         normalize.FirstStrPtr(m, a["roomNumber"]...),
		RoomType:           normalize.FirstStrPtr(m, a["roomType"]...),
		Adults:             normalize.FirstInt(m, 1, a["adults"]...),
		Children:           normalize.FirstInt(m, 0, a["children"]...),
		Status:             strings.ToLower(normalize.FirstStr(m, a["status"]...)),
		Provider:           provider,
	}
}

/********** folio **********/

// NormalizeFolio keeps the provider's charge and payment order. A missing
// balance is zero and a missing currency is EUR.
func NormalizeFolio(raw map[string]any, reservationID string) domain.Folio {
	m := normalize.Unwrap(raw, "folio", "Folio", "data")

	f := domain.Folio{
		ReservationID: normalize.FirstStr(m, "reservationId", "reservation_id", "ReservationId"),
		Currency:      normalize.FirstStr(m, "currency", "Currency", "currencyCode", "currency_code"),
		Charges:       []domain.Charge{},
		Payments:      []domain.FolioPayment{},
	}
	if f.ReservationID == "" {
		f.ReservationID = reservationID
	}
	if f.Currency == "" {
		f.Currency = "EUR"
	}
	if b, ok := normalize.FirstDecimal(m, "balance", "Balance", "totalBalance", "balanceAmount", "outstanding"); ok {
		f.Balance = b
	}
	for _, it := range normalize.FirstObjects(m, "charges", "Charges", "lineItems", "postings", "OrderItems", "transactions") {
		f.Charges = append(f.Charges, normalizeCharge(it))
	}
	for _, it := range normalize.FirstObjects(m, "payments", "Payments", "deposits") {
		amt, _ := normalize.FirstDecimal(it, "amount", "Amount", "value")
		f.Payments = append(f.Payments, domain.FolioPayment{
			ID:     normalize.FirstStr(it, "id", "Id", "paymentId", "transactionId"),
			Date:   normalize.FirstStr(it, "date", "postingDate", "paymentDate", "CreatedUtc", "created_at"),
			Amount: amt,
			Method: normalize.FirstStr(it, "method", "paymentMethod", "payment_method", "type", "Type"),
		})
	}
	return f
}

func normalizeCharge(m map[string]any) domain.Charge {
	amt, _ := normalize.FirstDecimal(m, "amount", "Amount", "price", "grossAmount", "value")
	return domain.Charge{
		ID:          normalize.FirstStr(m, "id", "Id", "chargeId", "transactionId", "transaction_id"),
		Date:        normalize.FirstStr(m, "date", "postingDate", "transactionDate", "ConsumedUtc", "created_at"),
		Description: normalize.FirstStr(m, "description", "name", "Name", "transactionDescription", "Notes"),
		Amount:      amt,
		Category:    normalize.FirstStr(m, "category", "type", "Type", "transactionCategory", "AccountingCategoryId"),
	}
}

/********** rooms, menu, spa **********/

func normalizeRoom(m map[string]any) domain.Room {
	return domain.Room{
		Number: normalize.FirstStr(m, "number", "roomNumber", "room_number", "Name", "roomName", "roomId"),
		Type:   normalize.FirstStr(m, "type", "roomType", "room_type", "roomTypeName", "CategoryName"),
		Status: strings.ToLower(normalize.FirstStr(m, "status", "housekeepingStatus", "roomStatus", "State")),
		Floor:  normalize.FirstStrPtr(m, "floor", "Floor", "FloorNumber", "Data.FloorNumber"),
	}
}

func normalizeMenuItem(m map[string]any) domain.MenuItem {
	price, _ := normalize.FirstDecimal(m, "price", "Price", "amount", "Amount", "Price.GrossValue")
	return domain.MenuItem{
		ID:          normalize.FirstStr(m, "id", "Id", "itemID", "itemId", "code"),
		Name:        normalize.FirstStr(m, "name", "Name", "itemName", "title"),
		Description: normalize.FirstStr(m, "description", "Description", "itemDescription"),
		Category:    normalize.FirstStr(m, "category", "Category", "itemCategoryName", "CategoryId"),
		Price:       price,
	}
}

func normalizeSpaService(m map[string]any) domain.SpaService {
	price, _ := normalize.FirstDecimal(m, "price", "Price", "amount")
	cur := normalize.FirstStr(m, "currency", "Currency")
	if cur == "" {
		cur = "EUR"
	}
	return domain.SpaService{
		ID:          normalize.FirstStr(m, "id", "Id", "serviceId", "service_id"),
		Name:        normalize.FirstStr(m, "name", "Name", "serviceName"),
		Description: normalize.FirstStr(m, "description", "Description"),
		Category:    normalize.FirstStr(m, "category", "Category", "type"),
		Duration:    normalize.FirstInt(m, 0, "duration", "Duration", "durationMinutes"),
		Price:       price,
		Currency:    cur,
	}
}

func normalizeSlot(m map[string]any) domain.TimeSlot {
	return domain.TimeSlot{
		Start:          normalize.FirstStr(m, "start", "startTime", "start_time", "time"),
		End:            normalize.FirstStr(m, "end", "endTime", "end_time"),
		PractitionerID: normalize.FirstStr(m, "practitionerId", "therapistId", "staffId"),
		Available:      normalize.FirstBool(m, true, "available", "isAvailable"),
	}
}

func normalizeGuest(raw map[string]any, sent domain.GuestProfile) domain.GuestProfile {
	m := normalize.Unwrap(raw, "profile", "guest", "Customer", "data")
	pick := func(v, fallback string) string {
		if v != "" {
			return v
		}
		return fallback
	}
	return domain.GuestProfile{
		FirstName:   pick(normalize.FirstStr(m, "firstName", "first_name", "FirstName", "givenName"), sent.FirstName),
		LastName:    pick(normalize.FirstStr(m, "lastName", "last_name", "LastName", "surname"), sent.LastName),
		Email:       pick(normalize.FirstStr(m, "email", "Email", "emailAddress"), sent.Email),
		Phone:       pick(normalize.FirstStr(m, "phone", "Phone", "phoneNumber"), sent.Phone),
		Nationality: pick(normalize.FirstStr(m, "nationality", "NationalityCode", "nationalityCode"), sent.Nationality),
		Language:    pick(normalize.FirstStr(m, "language", "LanguageCode", "languageCode"), sent.Language),
	}
}

package spa

import (
	"strings"

	"hotel_connect/internal/domain"
	"hotel_connect/internal/normalize"
)

// Spa platforms disagree on casing (snake_case, PascalCase, camelCase); each
// chain lists the canonical name first.

func NormalizeService(m map[string]any) domain.SpaService {
	m = normalize.Unwrap(m, "service", "Service")
	price, _ := normalize.FirstDecimal(m, "price", "Price", "amount", "OnlinePrice", "cost")
	cur := normalize.FirstStr(m, "currency", "Currency", "currency_code", "CurrencyCode")
	if cur == "" {
		cur = "EUR"
	}
	return domain.SpaService{
		ID:          normalize.FirstStr(m, "id", "Id", "ID", "service_id", "serviceId", "ProgramId"),
		Name:        normalize.FirstStr(m, "name", "Name", "service_name", "title"),
		Description: normalize.FirstStr(m, "description", "Description", "desc"),
		Category:    normalize.FirstStr(m, "category", "Category", "category_name", "ServiceCategory.Name", "type"),
		Duration:    normalize.FirstInt(m, 0, "duration", "Duration", "duration_minutes", "DurationMinutes", "SessionLength"),
		Price:       price,
		Currency:    cur,
	}
}

func NormalizePractitioner(m map[string]any) domain.Practitioner {
	m = normalize.Unwrap(m, "practitioner", "Staff")
	name := normalize.FirstStr(m, "name", "Name", "full_name", "DisplayName")
	if name == "" {
		name = normalize.JoinNonEmpty(
			normalize.FirstStr(m, "firstName", "first_name", "FirstName"),
			normalize.FirstStr(m, "lastName", "last_name", "LastName"),
		)
	}
	specs := normalize.FirstStrings(m, "specialties", "Specialties", "specialities", "services", "Services")
	if specs == nil {
		specs = []string{}
	}
	return domain.Practitioner{
		ID:          normalize.FirstStr(m, "id", "Id", "ID", "practitioner_id", "staff_id", "StaffId"),
		Name:        name,
		Title:       normalize.FirstStr(m, "title", "Title", "role", "job_title"),
		Specialties: specs,
		Bio:         normalize.FirstStr(m, "bio", "Bio", "biography", "description"),
	}
}

func NormalizeSlot(m map[string]any) domain.TimeSlot {
	return domain.TimeSlot{
		Start:          normalize.FirstStr(m, "start", "Start", "start_time", "startTime", "StartDateTime", "time"),
		End:            normalize.FirstStr(m, "end", "End", "end_time", "endTime", "EndDateTime"),
		PractitionerID: normalize.FirstStr(m, "practitionerId", "practitioner_id", "staff_id", "StaffId", "Staff.Id"),
		Available:      normalize.FirstBool(m, true, "available", "Available", "is_available", "IsAvailable"),
	}
}

func NormalizeBooking(raw map[string]any) domain.SpaBooking {
	m := normalize.Unwrap(raw, "booking", "Booking", "Appointment", "appointment", "data")
	return domain.SpaBooking{
		ID:                 normalize.FirstStr(m, "id", "Id", "ID", "booking_id", "bookingId", "AppointmentId"),
		ConfirmationNumber: normalize.FirstStr(m, "confirmationNumber", "confirmation_number", "ConfirmationNumber", "reference", "confirmation_code"),
		ServiceID:          normalize.FirstStr(m, "serviceId", "service_id", "ServiceId", "service.id", "SessionTypeId"),
		ServiceName:        normalize.FirstStr(m, "serviceName", "service_name", "service.name", "ServiceName", "SessionType.Name"),
		PractitionerID:     normalize.FirstStr(m, "practitionerId", "practitioner_id", "StaffId", "staff_id", "practitioner.id", "Staff.Id"),
		PractitionerName:   normalize.FirstStr(m, "practitionerName", "practitioner_name", "practitioner.name", "Staff.DisplayName", "Staff.Name"),
		Date:               normalize.FirstStr(m, "date", "Date", "booking_date", "appointment_date"),
		Time:               normalize.FirstStr(m, "time", "Time", "start_time", "startTime", "StartDateTime"),
		Duration:           normalize.FirstInt(m, 0, "duration", "Duration", "duration_minutes", "DurationMinutes"),
		GuestName:          normalize.FirstStr(m, "guestName", "guest_name", "guest.name", "client.name", "Client.Name"),
		GuestEmail:         normalize.FirstStr(m, "guestEmail", "guest_email", "guest.email", "client.email", "Client.Email"),
		GuestPhone:         normalize.FirstStr(m, "guestPhone", "guest_phone", "guest.phone", "client.phone", "Client.MobilePhone"),
		Status:             strings.ToLower(normalize.FirstStr(m, "status", "Status", "state", "booking_status")),
		Notes:              normalize.FirstStr(m, "notes", "Notes", "comment", "special_requests"),
		Provider:           normalize.FirstStr(m, "provider"),
	}
}

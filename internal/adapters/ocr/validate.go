package ocr

import (
	"fmt"
	"strings"
	"time"

	"hotel_connect/internal/domain"
)

const (
	minGuestAge = 18
	maxAge      = 120
)

// ValidateIDData applies the check-in rules to an extracted document. It
// never fails: problems are reported in the result. A warning alone does
// not make the document invalid.
func ValidateIDData(d domain.ExtractedID, now time.Time) domain.IDValidation {
	errs := []string{}
	warns := []string{}

	for _, f := range []struct{ name, v string }{
		{"documentNumber", d.DocumentNumber},
		{"firstName", d.FirstName},
		{"lastName", d.LastName},
		{"dateOfBirth", d.DateOfBirth},
		{"expiryDate", d.ExpiryDate},
	} {
		if strings.TrimSpace(f.v) == "" {
			errs = append(errs, fmt.Sprintf("%s is required", f.name))
		}
	}

	today := civilDate(now)
	if d.DateOfBirth != "" {
		dob, err := time.Parse(dateLayout, normalizeDate(d.DateOfBirth))
		switch {
		case err != nil:
			errs = append(errs, fmt.Sprintf("dateOfBirth %q is not a valid date", d.DateOfBirth))
		default:
			age := ageOn(dob, today)
			if age < minGuestAge {
				warns = append(warns, fmt.Sprintf("guest is under %d (age %d)", minGuestAge, age))
			}
			if age > maxAge {
				errs = append(errs, fmt.Sprintf("age %d derived from dateOfBirth is implausible", age))
			}
		}
	}
	if d.ExpiryDate != "" {
		exp, err := time.Parse(dateLayout, normalizeDate(d.ExpiryDate))
		switch {
		case err != nil:
			errs = append(errs, fmt.Sprintf("expiryDate %q is not a valid date", d.ExpiryDate))
		case exp.Before(today):
			errs = append(errs, fmt.Sprintf("document expired on %s", exp.Format(dateLayout)))
		}
	}

	return domain.IDValidation{IsValid: len(errs) == 0, Errors: errs, Warnings: warns}
}

func civilDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ageOn counts completed years.
func ageOn(dob, day time.Time) int {
	age := day.Year() - dob.Year()
	if day.Month() < dob.Month() || (day.Month() == dob.Month() && day.Day() < dob.Day()) {
		age--
	}
	return age
}

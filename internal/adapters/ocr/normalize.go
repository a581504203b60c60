package ocr

import (
	"strings"
	"time"

	"hotel_connect/internal/domain"
	"hotel_connect/internal/normalize"
)

const dateLayout = "2006-01-02"

// Day-first layouts: identity documents outside the US print dates that way.
var dateLayouts = []string{
	dateLayout,
	"2006-01-02T15:04:05",
	time.RFC3339,
	"02.01.2006",
	"02/01/2006",
	"02-01-2006",
	"02 Jan 2006",
	"02 January 2006",
	"Jan 02, 2006",
	"January 2, 2006",
	"20060102",
}

// NormalizeData maps a provider field map onto the canonical record. Dates
// come out as YYYY-MM-DD when they parse and are kept verbatim otherwise.
// Normalizing an already canonical record changes nothing.
func NormalizeData(raw map[string]any, provider string) domain.ExtractedID {
	m := normalize.Unwrap(raw, "data", "document", "result")
	conf, _ := normalize.FirstFloat(m, "confidence", "Confidence", "score")
	p := normalize.FirstStr(m, "provider")
	if p == "" {
		p = provider
	}
	return domain.ExtractedID{
		DocumentType:   normalizeDocType(normalize.FirstStr(m, "documentType", "document_type", "DocumentType", "ID_TYPE", "type")),
		DocumentNumber: normalize.FirstStr(m, "documentNumber", "document_number", "DocumentNumber", "DOCUMENT_NUMBER", "passportNumber", "idNumber"),
		FirstName:      normalize.FirstStr(m, "firstName", "first_name", "FirstName", "FIRST_NAME", "givenName", "given_names", "givenNames"),
		LastName:       normalize.FirstStr(m, "lastName", "last_name", "LastName", "LAST_NAME", "surname", "familyName"),
		DateOfBirth:    normalizeDate(normalize.FirstStr(m, "dateOfBirth", "date_of_birth", "DateOfBirth", "DATE_OF_BIRTH", "dob", "birthDate")),
		IssueDate:      normalizeDate(normalize.FirstStr(m, "issueDate", "issue_date", "IssueDate", "DATE_OF_ISSUE", "dateOfIssue")),
		ExpiryDate:     normalizeDate(normalize.FirstStr(m, "expiryDate", "expiry_date", "ExpiryDate", "EXPIRATION_DATE", "expirationDate", "dateOfExpiry")),
		Nationality:    strings.ToUpper(normalize.FirstStr(m, "nationality", "Nationality", "NATIONALITY", "countryCode", "country")),
		Sex:            normalizeSex(normalize.FirstStr(m, "sex", "Sex", "SEX", "gender", "Gender")),
		Confidence:     conf,
		Provider:       p,
	}
}

func normalizeDate(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	for _, l := range dateLayouts {
		if t, err := time.Parse(l, s); err == nil {
			return t.Format(dateLayout)
		}
	}
	return s
}

func normalizeDocType(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	return strings.Join(strings.Fields(s), "_")
}

func normalizeSex(s string) string {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "":
		return ""
	case "M", "MALE":
		return "M"
	case "F", "FEMALE":
		return "F"
	default:
		return "X"
	}
}

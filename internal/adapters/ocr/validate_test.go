package ocr_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hotel_connect/internal/adapters/ocr"
	"hotel_connect/internal/domain"
	"hotel_connect/internal/normalize"
)

func valid() domain.ExtractedID {
	return domain.ExtractedID{
		DocumentNumber: "X1", FirstName: "A", LastName: "B",
		DateOfBirth: "1990-03-01", ExpiryDate: "2030-01-01",
	}
}

func hasMatch(list []string, sub string) bool {
	for _, s := range list {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

func TestValidate_ExpiredChildDocument(t *testing.T) {
	v := ocr.ValidateIDData(domain.ExtractedID{
		DocumentNumber: "X", FirstName: "A", LastName: "B",
		DateOfBirth: "2020-01-01", ExpiryDate: "2020-01-01",
	}, fixedNow)
	assert.False(t, v.IsValid)
	assert.True(t, hasMatch(v.Errors, "expired"), v.Errors)
	assert.True(t, hasMatch(v.Warnings, "under 18"), v.Warnings)
}

func TestValidate_MinorIsOnlyAWarning(t *testing.T) {
	d := valid()
	d.DateOfBirth = "2010-06-30"
	v := ocr.ValidateIDData(d, fixedNow)
	assert.True(t, v.IsValid)
	assert.Empty(t, v.Errors)
	require.Len(t, v.Warnings, 1)
}

func TestValidate_EachMissingFieldHasItsOwnError(t *testing.T) {
	v := ocr.ValidateIDData(domain.ExtractedID{}, fixedNow)
	assert.False(t, v.IsValid)
	require.Len(t, v.Errors, 5)
	for _, f := range []string{"documentNumber", "firstName", "lastName", "dateOfBirth", "expiryDate"} {
		assert.True(t, hasMatch(v.Errors, f), f)
	}
	assert.NotNil(t, v.Warnings)
}

func TestValidate_DateEdges(t *testing.T) {
	d := valid()
	d.DateOfBirth = "1900-01-01"
	v := ocr.ValidateIDData(d, fixedNow)
	assert.False(t, v.IsValid)
	assert.True(t, hasMatch(v.Errors, "implausible"))

	d = valid()
	d.ExpiryDate = "2026-10-15"
	assert.True(t, ocr.ValidateIDData(d, fixedNow).IsValid, "expiring today is still valid")

	d.ExpiryDate = "2026-10-14"
	assert.False(t, ocr.ValidateIDData(d, fixedNow).IsValid)

	d = valid()
	d.DateOfBirth = "sometime"
	assert.True(t, hasMatch(ocr.ValidateIDData(d, fixedNow).Errors, "not a valid date"))

	// birthday tomorrow: still 17
	d = valid()
	d.DateOfBirth = "2008-10-16"
	v = ocr.ValidateIDData(d, fixedNow)
	assert.True(t, v.IsValid)
	assert.True(t, hasMatch(v.Warnings, "age 17"))
}

func TestExtractFromText_TD1(t *testing.T) {
	text := "IDENTITY CARD\nI<UTOD231458907<<<<<<<<<<<<<<<\n7408122F1204159UTO<<<<<<<<<<<6\nERIKSSON<<ANNA<MARIA<<<<<<<<<<"
	m := ocr.ExtractFromText(text, fixedNow)
	assert.Equal(t, "id_card", m["documentType"])
	assert.Equal(t, "D23145890", m["documentNumber"])
	assert.Equal(t, "1974-08-12", m["dateOfBirth"])
	assert.Equal(t, "2012-04-15", m["expiryDate"])
	assert.Equal(t, "UTO", m["nationality"])
	assert.Equal(t, "F", m["sex"])
	assert.Equal(t, "ERIKSSON", m["lastName"])
	assert.Equal(t, "ANNA MARIA", m["firstName"])
}

func TestExtractFromText_NothingToRead(t *testing.T) {
	assert.Empty(t, ocr.ExtractFromText("hello\nworld", fixedNow))
}

func TestNormalizeData_Idempotent(t *testing.T) {
	shapes := []map[string]any{
		{"FIRST_NAME": "Jane", "LAST_NAME": "Doe", "DATE_OF_BIRTH": "1985-04-12T00:00:00", "SEX": "female", "ID_TYPE": "Driver License"},
		{"data": map[string]any{"given_names": "Jan", "surname": "Nowak", "dob": "12.04.1985", "nationality": "pol", "confidence": 0.8}},
		{"firstName": "A", "lastName": "B", "expiryDate": "31 Dec 2030", "gender": "M"},
	}
	for _, raw := range shapes {
		once := ocr.NormalizeData(raw, "test")
		m, err := normalize.ToMap(once)
		require.NoError(t, err)
		assert.Equal(t, once, ocr.NormalizeData(m, "other"))
	}

	d := ocr.NormalizeData(shapes[1], "test")
	assert.Equal(t, "1985-04-12", d.DateOfBirth)
	assert.Equal(t, "POL", d.Nationality)
	assert.Equal(t, "Jan", d.FirstName)

	d = ocr.NormalizeData(shapes[0], "test")
	assert.Equal(t, "F", d.Sex)
	assert.Equal(t, "driver_license", d.DocumentType)
}

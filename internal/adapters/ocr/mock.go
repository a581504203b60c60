package ocr

import (
	"context"
	"strings"

	"github.com/google/uuid"
)

var mockNamespace = uuid.MustParse("0d6f7a2e-5b1c-4e0a-9c51-2f3f3b8a7e10")

// mock answers without any network call. The document number is derived
// from the image bytes, so the same scan always reads the same.
type mock struct{}

func newMock(Config, Env) (Provider, error) { return mock{}, nil }

func (mock) Name() string { return ProviderMock }

func (mock) Extract(_ context.Context, image []byte, documentType string) (map[string]any, error) {
	id := uuid.NewSHA1(mockNamespace, image)
	docType := normalizeDocType(documentType)
	if docType == "" {
		docType = "passport"
	}
	return map[string]any{
		"documentType":   docType,
		"documentNumber": "X" + strings.ToUpper(id.String()[:8]),
		"firstName":      "Alex",
		"lastName":       "Morgan",
		"dateOfBirth":    "1985-04-12",
		"issueDate":      "2021-06-01",
		"expiryDate":     "2031-05-31",
		"nationality":    "CHE",
		"sex":            "X",
		"confidence":     0.99,
	}, nil
}

package ocr_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/textract"
	"github.com/aws/aws-sdk-go-v2/service/textract/types"
	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hotel_connect/internal/adapters/ocr"
	"hotel_connect/internal/domain"
)

var fixedNow = time.Date(2026, 10, 15, 8, 0, 0, 0, time.UTC)

func clock() time.Time { return fixedNow }

func build(t *testing.T, cfg ocr.Config, opts ...ocr.Option) *ocr.Service {
	t.Helper()
	s, err := ocr.New(cfg, append([]ocr.Option{ocr.WithClock(clock)}, opts...)...)
	require.NoError(t, err)
	return s
}

func TestDispatch(t *testing.T) {
	assert.Equal(t, []string{"aws-textract", "azure-vision", "google-vision", "mock"}, ocr.Supported())

	_, err := ocr.New(ocr.Config{Provider: "tesseract"})
	var upe *domain.UnsupportedProviderError
	require.ErrorAs(t, err, &upe)
	assert.Equal(t, domain.DomainOCR, upe.Domain)

	_, err = ocr.New(ocr.Config{Provider: ocr.ProviderAzureVision, APIKey: "k"})
	var ice *domain.InvalidConfigError
	require.ErrorAs(t, err, &ice)
	assert.Contains(t, ice.Reason, "baseUrl")

	cfg, err := ocr.ParseConfig(ocr.ProviderGoogleVision, map[string]any{"apiKey": "k"})
	require.NoError(t, err)
	assert.Equal(t, "https://vision.googleapis.com/v1", cfg.BaseURL)
}

func TestMock_DeterministicAndValid(t *testing.T) {
	s := build(t, ocr.Config{Provider: ocr.ProviderMock})
	ctx := context.Background()

	a, err := s.ExtractIDData(ctx, []byte("scan-1"), "")
	require.NoError(t, err)
	b, err := s.ExtractIDData(ctx, []byte("scan-1"), "")
	require.NoError(t, err)
	assert.Equal(t, a, b)
	assert.Equal(t, "passport", a.DocumentType)
	assert.Equal(t, "mock", a.Provider)
	assert.Regexp(t, `^X[0-9A-F]{8}$`, a.DocumentNumber)

	v := s.ValidateIDData(a)
	assert.True(t, v.IsValid, v.Errors)
	assert.Empty(t, v.Warnings)

	_, err = s.ExtractIDData(ctx, nil, "passport")
	assert.ErrorIs(t, err, ocr.ErrEmptyImage)
}

type fakeTextract struct {
	out *textract.AnalyzeIDOutput
	err error
	in  *textract.AnalyzeIDInput
}

func (f *fakeTextract) AnalyzeID(_ context.Context, in *textract.AnalyzeIDInput, _ ...func(*textract.Options)) (*textract.AnalyzeIDOutput, error) {
	f.in = in
	return f.out, f.err
}

func field(typ, text, normalized string, conf float32) types.IdentityDocumentField {
	v := &types.AnalyzeIDDetections{Text: aws.String(text), Confidence: aws.Float32(conf)}
	if normalized != "" {
		v.NormalizedValue = &types.NormalizedValue{Value: aws.String(normalized), ValueType: types.ValueTypeDate}
	}
	return types.IdentityDocumentField{Type: &types.AnalyzeIDDetections{Text: aws.String(typ)}, ValueDetection: v}
}

func TestTextract_MapsFields(t *testing.T) {
	fake := &fakeTextract{out: &textract.AnalyzeIDOutput{IdentityDocuments: []types.IdentityDocument{{
		IdentityDocumentFields: []types.IdentityDocumentField{
			field("FIRST_NAME", "JANE", "", 99),
			field("LAST_NAME", "DOE", "", 97),
			field("DOCUMENT_NUMBER", "D1234567", "", 98),
			field("DATE_OF_BIRTH", "04/12/1985", "1985-04-12T00:00:00", 96),
			field("EXPIRATION_DATE", "05/31/2031", "2031-05-31T00:00:00", 100),
			field("ID_TYPE", "DRIVER LICENSE FRONT", "", 90),
		},
	}}}}
	s := build(t, ocr.Config{Provider: ocr.ProviderAWSTextract}, ocr.WithTextract(fake))

	d, err := s.ExtractIDData(context.Background(), []byte{0xff, 0xd8}, "drivers_license")
	require.NoError(t, err)
	require.Len(t, fake.in.DocumentPages, 1)
	assert.Equal(t, []byte{0xff, 0xd8}, fake.in.DocumentPages[0].Bytes)

	assert.Equal(t, "JANE", d.FirstName)
	assert.Equal(t, "DOE", d.LastName)
	assert.Equal(t, "D1234567", d.DocumentNumber)
	assert.Equal(t, "1985-04-12", d.DateOfBirth)
	assert.Equal(t, "2031-05-31", d.ExpiryDate)
	assert.Equal(t, "driver_license_front", d.DocumentType)
	assert.InDelta(t, 0.9667, d.Confidence, 0.001)
	assert.Equal(t, "aws-textract", d.Provider)
}

func TestTextract_ErrorPropagates(t *testing.T) {
	boom := errors.New("throttled")
	s := build(t, ocr.Config{Provider: ocr.ProviderAWSTextract}, ocr.WithTextract(&fakeTextract{err: boom}))
	_, err := s.ExtractIDData(context.Background(), []byte("x"), "")
	assert.ErrorIs(t, err, boom)
}

const td3 = "P<UTOERIKSSON<<ANNA<MARIA<<<<<<<<<<<<<<<<<<<\nL898902C36UTO7408122F1204159ZE184226B<<<<<10"

func TestGoogleVision_ReadsFullText(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/images:annotate", r.URL.Path)
		assert.Equal(t, "gkey", r.URL.Query().Get("key"))
		var in struct {
			Requests []struct {
				Image    struct{ Content []byte }
				Features []struct{ Type string }
			}
		}
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&in))
		if assert.Len(t, in.Requests, 1) {
			assert.Equal(t, []byte("img"), in.Requests[0].Image.Content)
			assert.Equal(t, "DOCUMENT_TEXT_DETECTION", in.Requests[0].Features[0].Type)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"responses": []any{map[string]any{
			"fullTextAnnotation": map[string]any{"text": "PASSPORT\n" + td3, "pages": []any{map[string]any{"confidence": 0.93}}},
		}}})
	}))
	defer ts.Close()

	s := build(t, ocr.Config{Provider: ocr.ProviderGoogleVision, APIKey: "gkey", BaseURL: ts.URL})
	d, err := s.ExtractIDData(context.Background(), []byte("img"), "passport")
	require.NoError(t, err)
	assert.Equal(t, "L898902C3", d.DocumentNumber)
	assert.Equal(t, "ANNA MARIA", d.FirstName)
	assert.Equal(t, "ERIKSSON", d.LastName)
	assert.Equal(t, "1974-08-12", d.DateOfBirth)
	assert.Equal(t, "2012-04-15", d.ExpiryDate)
	assert.InDelta(t, 0.93, d.Confidence, 1e-9)
}

func azureServer(t *testing.T, pendingPolls int32, final string) (*httptest.Server, *int32) {
	t.Helper()
	var polls int32
	var ts *httptest.Server
	ts = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "az", r.Header.Get("Ocp-Apim-Subscription-Key"))
		switch {
		case r.Method == http.MethodPost && r.URL.Path == "/vision/v3.2/read/analyze":
			assert.Equal(t, "application/octet-stream", r.Header.Get("Content-Type"))
			b, _ := io.ReadAll(r.Body)
			assert.Equal(t, "img", string(b))
			w.Header().Set("Operation-Location", ts.URL+"/vision/v3.2/read/analyzeResults/op-1")
			w.WriteHeader(http.StatusAccepted)
		case r.URL.Path == "/vision/v3.2/read/analyzeResults/op-1":
			n := atomic.AddInt32(&polls, 1)
			if n <= pendingPolls {
				_ = json.NewEncoder(w).Encode(map[string]any{"status": "running"})
				return
			}
			_ = json.NewEncoder(w).Encode(map[string]any{
				"status": final,
				"analyzeResult": map[string]any{"readResults": []any{map[string]any{"lines": []any{
					map[string]any{"text": "Surname:"},
					map[string]any{"text": "MÜLLER"},
					map[string]any{"text": "Given names: Hans Peter"},
					map[string]any{"text": "Document No. C01X00T47"},
					map[string]any{"text": "Date of birth: 12.04.1985"},
					map[string]any{"text": "Date of expiry 31/05/2031"},
					map[string]any{"text": "Nationality: DEU"},
					map[string]any{"text": "Sex: M"},
				}}}},
			})
		default:
			http.NotFound(w, r)
		}
	}))
	return ts, &polls
}

func azure(t *testing.T, base string) *ocr.Service {
	return build(t, ocr.Config{Provider: ocr.ProviderAzureVision, APIKey: "az", BaseURL: base}, ocr.WithPollInterval(time.Millisecond))
}

func TestAzure_PollsUntilSucceeded(t *testing.T) {
	ts, polls := azureServer(t, 2, "succeeded")
	defer ts.Close()

	d, err := azure(t, ts.URL).ExtractIDData(context.Background(), []byte("img"), "id_card")
	require.NoError(t, err)
	assert.EqualValues(t, 3, atomic.LoadInt32(polls))
	assert.Equal(t, "MÜLLER", d.LastName)
	assert.Equal(t, "Hans Peter", d.FirstName)
	assert.Equal(t, "C01X00T47", d.DocumentNumber)
	assert.Equal(t, "1985-04-12", d.DateOfBirth)
	assert.Equal(t, "2031-05-31", d.ExpiryDate)
	assert.Equal(t, "DEU", d.Nationality)
	assert.Equal(t, "M", d.Sex)
	assert.Equal(t, "id_card", d.DocumentType)
}

func TestAzure_GivesUpAfterTenPolls(t *testing.T) {
	ts, polls := azureServer(t, 1000, "succeeded")
	defer ts.Close()

	_, err := azure(t, ts.URL).ExtractIDData(context.Background(), []byte("img"), "")
	assert.ErrorIs(t, err, ocr.ErrAnalysisPending)
	assert.EqualValues(t, 10, atomic.LoadInt32(polls))
}

func TestAzure_FailedOperationStopsPolling(t *testing.T) {
	ts, polls := azureServer(t, 0, "failed")
	defer ts.Close()

	_, err := azure(t, ts.URL).ExtractIDData(context.Background(), []byte("img"), "")
	require.Error(t, err)
	assert.EqualValues(t, 1, atomic.LoadInt32(polls))
}

func TestAzure_HonoursCancellation(t *testing.T) {
	ts, _ := azureServer(t, 1000, "succeeded")
	defer ts.Close()

	s := build(t, ocr.Config{Provider: ocr.ProviderAzureVision, APIKey: "az", BaseURL: ts.URL}, ocr.WithPollInterval(time.Hour))
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := s.ExtractIDData(ctx, []byte("img"), "")
	require.Error(t, err)
	assert.Less(t, time.Since(start), 5*time.Second)
}

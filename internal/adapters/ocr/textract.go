package ocr

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awshttp "github.com/aws/aws-sdk-go-v2/aws/transport/http"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/textract"
	"github.com/aws/aws-sdk-go-v2/service/textract/types"

	"hotel_connect/internal/adapters/transport"
	"hotel_connect/internal/domain"
)

// AnalyzeIDAPI is the slice of the Textract client this package uses.
type AnalyzeIDAPI interface {
	AnalyzeID(ctx context.Context, in *textract.AnalyzeIDInput, optFns ...func(*textract.Options)) (*textract.AnalyzeIDOutput, error)
}

type textractProvider struct {
	api AnalyzeIDAPI
	env Env
}

func newTextract(cfg Config, env Env) (Provider, error) {
	if env.Textract != nil {
		return &textractProvider{api: env.Textract, env: env}, nil
	}
	// the SDK owns request building, so metrics come from the round tripper
	tc := transport.New(ProviderAWSTextract, cfg.BaseURL, env.Opts...)
	loadOpts := []func(*config.LoadOptions) error{
		config.WithRegion(cfg.Region),
		config.WithHTTPClient(transport.InstrumentedHTTPClient(ProviderAWSTextract, tc.HTTPClient())),
		config.WithRetryMaxAttempts(1),
	}
	if cfg.AccessKeyID != "" {
		loadOpts = append(loadOpts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}
	awsCfg, err := config.LoadDefaultConfig(context.Background(), loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	client := textract.NewFromConfig(awsCfg, func(o *textract.Options) {
		if cfg.BaseURL != "" {
			o.BaseEndpoint = aws.String(cfg.BaseURL)
		}
	})
	return &textractProvider{api: client, env: env}, nil
}

func (p *textractProvider) Name() string { return ProviderAWSTextract }

func (p *textractProvider) Extract(ctx context.Context, image []byte, documentType string) (map[string]any, error) {
	out, err := p.api.AnalyzeID(ctx, &textract.AnalyzeIDInput{
		DocumentPages: []types.Document{{Bytes: image}},
	})
	if err != nil {
		return nil, textractError(err)
	}
	if len(out.IdentityDocuments) == 0 {
		return map[string]any{}, nil
	}
	return textractFields(out.IdentityDocuments[0], p.env.Now()), nil
}

// textractFields flattens AnalyzeID detections keyed by their field type
// (FIRST_NAME, DATE_OF_BIRTH, ...). Normalized values win over raw text.
func textractFields(doc types.IdentityDocument, now time.Time) map[string]any {
	m := map[string]any{}
	var sum float64
	n := 0
	for _, f := range doc.IdentityDocumentFields {
		if f.Type == nil || f.ValueDetection == nil {
			continue
		}
		key := aws.ToString(f.Type.Text)
		v := f.ValueDetection
		val := aws.ToString(v.Text)
		if v.NormalizedValue != nil && aws.ToString(v.NormalizedValue.Value) != "" {
			val = aws.ToString(v.NormalizedValue.Value)
		}
		if key == "" || val == "" {
			continue
		}
		m[key] = val
		if v.Confidence != nil {
			sum += float64(aws.ToFloat32(v.Confidence))
			n++
		}
	}
	if n > 0 {
		m["confidence"] = sum / float64(n) / 100
	}
	if mrz, ok := m["MRZ_CODE"].(string); ok {
		for k, v := range ExtractFromText(mrz, now) {
			if _, set := m[textractKeys[k]]; !set {
				m[k] = v
			}
		}
	}
	return m
}

// textractKeys maps canonical field names to AnalyzeID field types.
var textractKeys = map[string]string{
	"documentType":   "ID_TYPE",
	"documentNumber": "DOCUMENT_NUMBER",
	"firstName":      "FIRST_NAME",
	"lastName":       "LAST_NAME",
	"dateOfBirth":    "DATE_OF_BIRTH",
	"issueDate":      "DATE_OF_ISSUE",
	"expiryDate":     "EXPIRATION_DATE",
	"nationality":    "NATIONALITY",
	"sex":            "SEX",
}

func textractError(err error) error {
	var re *awshttp.ResponseError
	if errors.As(err, &re) {
		body := ""
		if re.Err != nil {
			body = re.Err.Error()
		}
		return &domain.ProviderAPIError{
			Provider:   ProviderAWSTextract,
			Status:     re.HTTPStatusCode(),
			StatusText: http.StatusText(re.HTTPStatusCode()),
			Body:       body,
		}
	}
	return err
}

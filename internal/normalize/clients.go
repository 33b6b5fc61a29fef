package normalize

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

// PhoneType classifies a validated number.
type PhoneType string

const (
	PhoneTypeMobile   PhoneType = "mobile"
	PhoneTypeLandline PhoneType = "landline"
)

// PhoneResult is the phone verification service's verdict on one number.
type PhoneResult struct {
	Valid  bool      `json:"valid_number"`
	Number string    `json:"parsed_number"`
	Type   PhoneType `json:"number_type"`
}

// PhoneClient validates phone numbers through the external verification
// service. Implementations must be safe for concurrent use.
type PhoneClient interface {
	Validate(ctx context.Context, number, countryISO string) (PhoneResult, error)
}

// EmailResult is the email verification service's verdict on one address.
type EmailResult struct {
	Valid   bool   `json:"safe_to_send"`
	Address string `json:"email"`
}

// EmailClient validates email addresses through the external verification
// service.
type EmailClient interface {
	Validate(ctx context.Context, address string) (EmailResult, error)
}

var tracer = otel.Tracer("personmatch/normalize")

// HTTPPhoneClient calls the phone verification micro-service. The service
// may enforce an off-hours call window; that is its concern, the client only
// reports its verdict.
type HTTPPhoneClient struct {
	baseURL string
	client  *http.Client
}

// NewHTTPPhoneClient builds a phone client against the given base URL.
func NewHTTPPhoneClient(baseURL string, timeout time.Duration) *HTTPPhoneClient {
	return &HTTPPhoneClient{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
	}
}

func (c *HTTPPhoneClient) Validate(ctx context.Context, number, countryISO string) (PhoneResult, error) {
	ctx, span := tracer.Start(ctx, "phone.validate")
	defer span.End()
	span.SetAttributes(attribute.String("phone.country", countryISO))

	endpoint := fmt.Sprintf("%s/call/%s?country=%s", c.baseURL, url.PathEscape(number), url.QueryEscape(countryISO))
	var result PhoneResult
	if err := c.getJSON(ctx, endpoint, &result); err != nil {
		return PhoneResult{}, fmt.Errorf("phone validation: %w", err)
	}
	return result, nil
}

func (c *HTTPPhoneClient) getJSON(ctx context.Context, endpoint string, into any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(into)
}

// HTTPEmailClient calls the email verification micro-service.
type HTTPEmailClient struct {
	baseURL string
	client  *http.Client
}

// NewHTTPEmailClient builds an email client against the given base URL.
func NewHTTPEmailClient(baseURL string, timeout time.Duration) *HTTPEmailClient {
	return &HTTPEmailClient{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
	}
}

func (c *HTTPEmailClient) Validate(ctx context.Context, address string) (EmailResult, error) {
	ctx, span := tracer.Start(ctx, "email.validate")
	defer span.End()

	endpoint := fmt.Sprintf("%s/email?email=%s", c.baseURL, url.QueryEscape(address))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return EmailResult{}, fmt.Errorf("email validation: %w", err)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return EmailResult{}, fmt.Errorf("email validation: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return EmailResult{}, fmt.Errorf("email validation: unexpected status %d", resp.StatusCode)
	}
	var result EmailResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return EmailResult{}, fmt.Errorf("email validation: %w", err)
	}
	return result, nil
}

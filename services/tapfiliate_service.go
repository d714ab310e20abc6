package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"os"

	"github.com/HSouheill/affiliate_signup/config"
	"github.com/HSouheill/affiliate_signup/models"
)

// TapfiliateService handles interactions with the Tapfiliate REST API
type TapfiliateService struct {
	baseURL string
	apiKey  string
	client  *http.Client
	debug   bool
}

// apiResponse is a raw Tapfiliate response
type apiResponse struct {
	Status      int
	ContentType string
	Body        []byte
}

func (r *apiResponse) ok() bool {
	return r.Status >= 200 && r.Status < 300
}

// NewTapfiliateService creates a client from cfg. A nil httpClient selects a
// client with cfg.HTTPTimeout (zero means no timeout).
func NewTapfiliateService(cfg config.TapfiliateConfig, httpClient *http.Client) *TapfiliateService {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.HTTPTimeout}
	}
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = config.DefaultTapfiliateBaseURL
	}
	return &TapfiliateService{
		baseURL: baseURL,
		apiKey:  cfg.APIKey,
		client:  httpClient,
		debug:   os.Getenv("TAPFILIATE_DEBUG") == "true",
	}
}

// Configured reports whether an API key is available
func (s *TapfiliateService) Configured() bool {
	return s.apiKey != ""
}

// getHeaders returns the headers required for Tapfiliate API requests
func (s *TapfiliateService) getHeaders() map[string]string {
	return map[string]string{
		"Content-Type": "application/json",
		"Accept":       "application/json",
		"X-Api-Key":    s.apiKey,
	}
}

// makeRequest performs an HTTP request to the Tapfiliate API. Only transport
// failures are returned as errors; status handling is left to the caller.
func (s *TapfiliateService) makeRequest(ctx context.Context, method, endpoint string, payload interface{}) (*apiResponse, error) {
	if !s.Configured() {
		return nil, ErrMissingAPIKey
	}

	reqURL := s.baseURL + endpoint

	var body io.Reader
	if payload != nil {
		jsonData, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request: %w", err)
		}
		body = bytes.NewBuffer(jsonData)
		if s.debug {
			log.Printf("[%s] Tapfiliate request body: %s", RequestIDFromContext(ctx), maskSecrets(jsonData))
		}
	}

	req, err := http.NewRequestWithContext(ctx, method, reqURL, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	for key, value := range s.getHeaders() {
		req.Header.Set(key, value)
	}

	log.Printf("[%s] Tapfiliate API Request: %s %s", RequestIDFromContext(ctx), method, endpoint)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	log.Printf("[%s] Tapfiliate API Response: %s %s -> %d", RequestIDFromContext(ctx), method, endpoint, resp.StatusCode)
	if s.debug {
		log.Printf("[%s] Tapfiliate response body: %s", RequestIDFromContext(ctx), string(respBody))
	}

	return &apiResponse{
		Status:      resp.StatusCode,
		ContentType: resp.Header.Get("Content-Type"),
		Body:        respBody,
	}, nil
}

// call performs a request and converts non-2xx responses into a VendorError
func (s *TapfiliateService) call(ctx context.Context, method, endpoint string, payload interface{}, fallback string) (*apiResponse, error) {
	resp, err := s.makeRequest(ctx, method, endpoint, payload)
	if err != nil {
		return nil, err
	}
	if !resp.ok() {
		vendorErr := ClassifyVendorError(resp.Status, resp.ContentType, resp.Body, fallback)
		log.Printf("[%s] Tapfiliate API Error Details: Status=%d, HTML=%t, Message=%s",
			RequestIDFromContext(ctx), resp.Status, vendorErr.HTML, vendorErr.Message)
		return resp, vendorErr
	}
	return resp, nil
}

// ListCustomFields retrieves the affiliate custom field catalog
func (s *TapfiliateService) ListCustomFields(ctx context.Context) ([]models.CustomField, error) {
	resp, err := s.call(ctx, http.MethodGet, "affiliates/custom-fields/", nil, "Could not load custom fields")
	if err != nil {
		return nil, err
	}

	var fields []models.CustomField
	if err := json.Unmarshal(resp.Body, &fields); err != nil {
		return nil, fmt.Errorf("failed to parse custom fields: %w", err)
	}
	return fields, nil
}

// CreateAffiliate creates an affiliate and returns it with its id
func (s *TapfiliateService) CreateAffiliate(ctx context.Context, payload map[string]interface{}) (*models.VendorAffiliate, error) {
	resp, err := s.call(ctx, http.MethodPost, "affiliates/", payload, MessageCreateFailed)
	if err != nil {
		return nil, err
	}

	var affiliate models.VendorAffiliate
	if err := json.Unmarshal(resp.Body, &affiliate); err != nil {
		return nil, fmt.Errorf("failed to parse affiliate: %w", err)
	}
	if affiliate.ID == "" {
		return nil, ErrMissingAffiliateID
	}
	affiliate.Raw = json.RawMessage(resp.Body)
	return &affiliate, nil
}

// UpdateAffiliate patches an existing affiliate
func (s *TapfiliateService) UpdateAffiliate(ctx context.Context, affiliateID string, patch map[string]interface{}) error {
	_, err := s.call(ctx, http.MethodPatch, "affiliates/"+url.PathEscape(affiliateID)+"/", patch, MessageUpdateFailed)
	return err
}

// SetWebsite stores the affiliate's website in its meta-data
func (s *TapfiliateService) SetWebsite(ctx context.Context, affiliateID, website string) error {
	endpoint := "affiliates/" + url.PathEscape(affiliateID) + "/meta-data/website/"
	_, err := s.call(ctx, http.MethodPut, endpoint, models.MetadataValue{Value: website}, MessageMetadataFailed)
	return err
}

// SetParent links an affiliate to the affiliate that referred it
func (s *TapfiliateService) SetParent(ctx context.Context, affiliateID, parentID string) error {
	endpoint := "affiliates/" + url.PathEscape(affiliateID) + "/parent/"
	body := models.ParentRequest{Affiliate: models.AffiliateRef{ID: parentID}}
	_, err := s.call(ctx, http.MethodPost, endpoint, body, MessageParentFailed)
	return err
}

// EnrollInProgram adds an affiliate to a program pending approval and
// without sending the welcome email. The vendor's enrollment object is
// returned as received.
func (s *TapfiliateService) EnrollInProgram(ctx context.Context, programID, affiliateID string) (json.RawMessage, error) {
	endpoint := "programs/" + url.PathEscape(programID) + "/affiliates/?send_welcome_email=false"
	body := models.EnrollmentRequest{
		Affiliate: models.AffiliateRef{ID: affiliateID},
		Approved:  false,
	}
	resp, err := s.call(ctx, http.MethodPost, endpoint, body, MessageEnrollFailed)
	if err != nil {
		return nil, err
	}
	if len(bytes.TrimSpace(resp.Body)) == 0 || !json.Valid(resp.Body) {
		return json.RawMessage("{}"), nil
	}
	return json.RawMessage(resp.Body), nil
}

// secretFields are replaced with [HIDDEN] in debug logs
var secretFields = []string{"password"}

// maskSecrets renders a JSON request body for logging with secret fields
// hidden. Bodies that are not JSON objects are not logged at all.
func maskSecrets(body []byte) string {
	var fields map[string]interface{}
	if err := json.Unmarshal(body, &fields); err != nil {
		return "[UNLOGGED]"
	}
	for _, name := range secretFields {
		if _, ok := fields[name]; ok {
			fields[name] = "[HIDDEN]"
		}
	}
	masked, err := json.Marshal(fields)
	if err != nil {
		return "[UNLOGGED]"
	}
	return string(masked)
}

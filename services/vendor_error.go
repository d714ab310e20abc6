package services

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/HSouheill/affiliate_signup/models"
)

// Messages used when Tapfiliate does not give a usable reason
const (
	MessageTryAgainLater  = "The affiliate service is temporarily unavailable, please try again later"
	MessageCreateFailed   = "Could not create the affiliate account, please try again"
	MessageUpdateFailed   = "Could not update the affiliate, please try again"
	MessageEnrollFailed   = "Could not enroll the affiliate in the program, please try again"
	MessageMetadataFailed = "Could not save the affiliate website"
	MessageParentFailed   = "Could not link the affiliate to its parent"
)

var (
	// ErrMissingAPIKey is returned before any request is sent when no API key is configured
	ErrMissingAPIKey = errors.New("missing Tapfiliate API key, set TAPFILIATE_API_KEY")
	// ErrMissingAffiliateID is returned when Tapfiliate accepts a creation but returns no id
	ErrMissingAffiliateID = errors.New("tapfiliate response did not contain an affiliate id")
)

// VendorError is a non-success response from Tapfiliate
type VendorError struct {
	Status  int
	Message string
	HTML    bool
}

func (e *VendorError) Error() string {
	return fmt.Sprintf("tapfiliate API error: %d - %s", e.Status, e.Message)
}

// ClassifyVendorError turns a failed Tapfiliate response into a VendorError.
// HTML error pages become a generic 500. JSON bodies contribute their message
// when they have a recognized shape; otherwise fallback is used with the
// vendor status.
func ClassifyVendorError(status int, contentType string, body []byte, fallback string) *VendorError {
	if strings.Contains(strings.ToLower(contentType), "text/html") {
		return &VendorError{
			Status:  http.StatusInternalServerError,
			Message: MessageTryAgainLater,
			HTML:    true,
		}
	}

	if status < 400 {
		status = http.StatusBadGateway
	}

	message := vendorMessage(body)
	if message == "" {
		message = fallback
	}
	return &VendorError{Status: status, Message: message}
}

func vendorMessage(body []byte) string {
	var parsed models.VendorErrorBody
	if err := json.Unmarshal(body, &parsed); err != nil {
		return ""
	}

	var messages []string
	for _, e := range parsed.Errors {
		msg := strings.TrimSpace(e.Message)
		if msg == "" {
			continue
		}
		if e.Field != "" {
			msg = e.Field + ": " + msg
		}
		messages = append(messages, msg)
	}
	if len(messages) > 0 {
		return strings.Join(messages, "; ")
	}
	if msg := strings.TrimSpace(parsed.Message); msg != "" {
		return msg
	}
	return strings.TrimSpace(parsed.Error)
}

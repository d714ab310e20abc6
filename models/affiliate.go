// models/affiliate.go
package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// Signup modes accepted in AffiliateRequest.Mode. An empty mode selects the
// legacy single-step flow.
const (
	ModeCreateAffiliateOnly = "create_affiliate_only"
	ModeFinalizeAffiliate   = "finalize_affiliate"
	ModeUpdateCustomFields  = "update_custom_fields"
)

// AffiliateRequest is the sign-up form payload posted by the website
type AffiliateRequest struct {
	Mode               string      `json:"mode"`
	FirstName          string      `json:"first_name" validate:"required"`
	LastName           string      `json:"last_name" validate:"required"`
	Email              string      `json:"email" validate:"required"`
	Password           string      `json:"password" validate:"required"`
	City               string      `json:"city" validate:"required"`
	Country            string      `json:"country" validate:"required"`
	Company            string      `json:"company" validate:"required"`
	CompanyType        string      `json:"company_type"`
	CompanyDescription string      `json:"company_description"`
	CommissionType     string      `json:"commission_type"`
	NumberOfProperties interface{} `json:"number_of_properties,omitempty"`
	ParentID           AffiliateID `json:"parent_id"`
	WantsDemoCall      *FlexBool   `json:"wantsDemoCall,omitempty"`
	Metadata           Metadata    `json:"metadata"`
	Program            string      `json:"program" validate:"required"`
	AffiliateID        AffiliateID `json:"affiliate_id" validate:"required"`
}

// Metadata holds the optional affiliate meta-data collected by the form
type Metadata struct {
	Website string `json:"website"`
}

// Trim strips surrounding whitespace from every text field in place. The
// password is left as typed; it is forwarded verbatim.
func (r *AffiliateRequest) Trim() {
	r.Mode = strings.TrimSpace(r.Mode)
	r.FirstName = strings.TrimSpace(r.FirstName)
	r.LastName = strings.TrimSpace(r.LastName)
	r.Email = strings.TrimSpace(r.Email)
	r.City = strings.TrimSpace(r.City)
	r.Country = strings.TrimSpace(r.Country)
	r.Company = strings.TrimSpace(r.Company)
	r.CompanyType = strings.TrimSpace(r.CompanyType)
	r.CompanyDescription = strings.TrimSpace(r.CompanyDescription)
	r.CommissionType = strings.TrimSpace(r.CommissionType)
	r.Program = strings.TrimSpace(r.Program)
	r.ParentID = AffiliateID(strings.TrimSpace(string(r.ParentID)))
	r.AffiliateID = AffiliateID(strings.TrimSpace(string(r.AffiliateID)))
	r.Metadata.Website = strings.TrimSpace(r.Metadata.Website)
}

// AffiliateID is an opaque affiliate identifier. Tapfiliate returns string
// ids, but forms and older records may carry them as JSON numbers.
type AffiliateID string

// UnmarshalJSON accepts a JSON string, number or null.
func (id *AffiliateID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = AffiliateID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("affiliate id must be a string or number: %w", err)
	}
	*id = AffiliateID(n.String())
	return nil
}

func (id AffiliateID) String() string {
	return string(id)
}

// FlexBool decodes checkbox style values sent either as JSON booleans or as
// strings such as "true", "yes" and "1".
type FlexBool bool

// UnmarshalJSON implements json.Unmarshaler.
func (b *FlexBool) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case bytes.Equal(data, []byte("true")):
		*b = true
		return nil
	case bytes.Equal(data, []byte("false")), bytes.Equal(data, []byte("null")):
		*b = false
		return nil
	}

	var raw interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	switch v := raw.(type) {
	case string:
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "true", "yes", "y", "1", "on":
			*b = true
		default:
			*b = false
		}
	case float64:
		*b = v != 0
	default:
		return fmt.Errorf("cannot decode %s as a boolean", string(data))
	}
	return nil
}

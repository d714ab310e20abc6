package models

import "encoding/json"

// CustomField is one entry of the Tapfiliate affiliate custom-field catalog
type CustomField struct {
	ID    AffiliateID `json:"id"`
	Key   string      `json:"key"`
	Title string      `json:"title"`
	Label string      `json:"label"`
}

// DisplayLabel returns the human readable label a field is addressed by.
func (f CustomField) DisplayLabel() string {
	if f.Title != "" {
		return f.Title
	}
	return f.Label
}

// FieldKey returns the key custom field values are submitted under.
func (f CustomField) FieldKey() string {
	if f.Key != "" {
		return f.Key
	}
	return f.ID.String()
}

// VendorAffiliate is an affiliate as returned by Tapfiliate. Raw keeps the
// complete vendor object so it can be handed back to the caller untouched.
type VendorAffiliate struct {
	ID  AffiliateID     `json:"id"`
	Raw json.RawMessage `json:"-"`
}

// AffiliateRef references an affiliate inside enrollment and parent bodies
type AffiliateRef struct {
	ID string `json:"id"`
}

// EnrollmentRequest is the body of the program enrollment call
type EnrollmentRequest struct {
	Affiliate AffiliateRef `json:"affiliate"`
	Approved  bool         `json:"approved"`
}

// ParentRequest is the body of the set-parent call
type ParentRequest struct {
	Affiliate AffiliateRef `json:"affiliate"`
}

// MetadataValue is the body of a meta-data PUT
type MetadataValue struct {
	Value string `json:"value"`
}

// VendorErrorBody covers the error shapes Tapfiliate is known to return
type VendorErrorBody struct {
	Message string `json:"message"`
	Error   string `json:"error"`
	Errors  []struct {
		Message string `json:"message"`
		Field   string `json:"field,omitempty"`
	} `json:"errors"`
}

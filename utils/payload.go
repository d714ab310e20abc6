// utils/payload.go
package utils

import (
	"github.com/HSouheill/affiliate_signup/models"
)

// Placeholders for address parts the sign-up form does not collect
const (
	AddressPlaceholder    = "N/A"
	PostalCodePlaceholder = "N/A"
)

// BuildAffiliatePayload builds the Tapfiliate create-affiliate body. The
// parent id and the raw company type, commission type and number of
// properties inputs are never part of it; related values only travel inside
// customFields.
func BuildAffiliatePayload(req *models.AffiliateRequest, customFields map[string]string) map[string]interface{} {
	payload := map[string]interface{}{
		"firstname": req.FirstName,
		"lastname":  req.LastName,
		"email":     req.Email,
		"password":  req.Password,
		"company":   companyObject(req),
		"address":   addressObject(req),
	}
	if len(customFields) > 0 {
		payload["custom_fields"] = stringMap(customFields)
	}
	return CompactPayload(payload)
}

// BuildProfilePatch builds the PATCH body used when finalizing an affiliate
// that already exists. An empty map means there is nothing to update.
func BuildProfilePatch(req *models.AffiliateRequest, customFields map[string]string) map[string]interface{} {
	patch := map[string]interface{}{
		"company": companyObject(req),
		"address": addressObject(req),
	}
	if len(customFields) > 0 {
		patch["custom_fields"] = stringMap(customFields)
	}
	return CompactPayload(patch)
}

// BuildCustomFieldsPatch builds a PATCH body that only touches custom fields.
func BuildCustomFieldsPatch(customFields map[string]string) map[string]interface{} {
	return CompactPayload(map[string]interface{}{
		"custom_fields": stringMap(customFields),
	})
}

func companyObject(req *models.AffiliateRequest) map[string]interface{} {
	company := map[string]interface{}{
		"name": req.Company,
	}
	if description, ok := CompanyDescription(req.CompanyType, req.CompanyDescription); ok {
		company["description"] = description
	}
	return company
}

// addressObject returns nil when neither city nor country was supplied so
// that no placeholder-only address is sent.
func addressObject(req *models.AffiliateRequest) map[string]interface{} {
	if req.City == "" && req.Country == "" {
		return nil
	}
	return map[string]interface{}{
		"address":     AddressPlaceholder,
		"postal_code": PostalCodePlaceholder,
		"city":        req.City,
		"country": map[string]interface{}{
			"code": CountryCode(req.Country),
		},
	}
}

func stringMap(in map[string]string) map[string]interface{} {
	out := make(map[string]interface{}, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

// CompactPayload removes nil values, empty strings and nested objects left
// empty by that removal. The input map is modified and returned.
func CompactPayload(payload map[string]interface{}) map[string]interface{} {
	for key, value := range payload {
		switch v := value.(type) {
		case nil:
			delete(payload, key)
		case string:
			if v == "" {
				delete(payload, key)
			}
		case map[string]interface{}:
			if v == nil || len(CompactPayload(v)) == 0 {
				delete(payload, key)
			}
		}
	}
	return payload
}

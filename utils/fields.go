// utils/fields.go
package utils

import (
	"strings"
)

// Custom field labels as configured in the Tapfiliate dashboard, already
// normalized with NormalizeLabel.
const (
	LabelCompanyType    = "company type"
	LabelCommissionType = "commission type"
	LabelDemoCall       = "wants demo call"
)

// CommissionTypes are the only values the commission type field accepts.
// The first entry is the default.
var CommissionTypes = []string{
	"I want 10% commission",
	"I want to give my clients a 10% discount",
	"I want 5% commission and to give my clients a 5% discount",
}

// companyTypeLabels maps form values to the labels shown in Tapfiliate
var companyTypeLabels = map[string]string{
	"property_manager": "Property manager",
	"agency":           "Agency",
	"hotel":            "Hotel",
	"freelancer":       "Freelancer",
	"influencer":       "Influencer",
	"other":            "Other",
}

// CompanyTypeNoDescription is the company type whose description is always
// replaced by CompanyDescriptionNotApplicable.
const (
	CompanyTypeNoDescription        = "influencer"
	CompanyDescriptionNotApplicable = "Not applicable"
)

// company types whose free-text description is forwarded as entered
var describedCompanyTypes = map[string]bool{
	"agency": true,
	"other":  true,
}

// NormalizeLabel trims and lower-cases a custom field label.
func NormalizeLabel(label string) string {
	return strings.ToLower(strings.TrimSpace(label))
}

// NormalizeCommissionType returns value when it is one of CommissionTypes and
// the default commission type otherwise.
func NormalizeCommissionType(value string) string {
	for _, allowed := range CommissionTypes {
		if value == allowed {
			return value
		}
	}
	return CommissionTypes[0]
}

// CompanyTypeLabel converts a form value to its display label. Unknown values
// are returned unchanged.
func CompanyTypeLabel(value string) string {
	if label, ok := companyTypeLabels[strings.ToLower(strings.TrimSpace(value))]; ok {
		return label
	}
	return value
}

// CompanyDescription derives the company description sent to Tapfiliate.
// The second return value is false when no description should be sent.
func CompanyDescription(companyType, description string) (string, bool) {
	companyType = strings.ToLower(strings.TrimSpace(companyType))
	description = strings.TrimSpace(description)

	if companyType == CompanyTypeNoDescription {
		return CompanyDescriptionNotApplicable, true
	}
	if describedCompanyTypes[companyType] && description != "" {
		return description, true
	}
	return "", false
}

// DemoCallValue renders the demo call preference as the dropdown value
// Tapfiliate expects.
func DemoCallValue(wants bool) string {
	if wants {
		return "Yes"
	}
	return "No"
}

// ValidParentID reports whether a parent affiliate id can be linked and
// returns it trimmed. Only non-empty strings of decimal digits qualify.
func ValidParentID(parentID string) (string, bool) {
	parentID = strings.TrimSpace(parentID)
	if parentID == "" || strings.EqualFold(parentID, "null") {
		return "", false
	}
	for _, r := range parentID {
		if r < '0' || r > '9' {
			return "", false
		}
	}
	return parentID, true
}

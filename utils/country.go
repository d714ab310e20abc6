// utils/country.go
package utils

import "strings"

// DefaultCountryCode is used when a country cannot be resolved
const DefaultCountryCode = "GB"

// countryCodes maps lower-cased country names and common aliases to their
// ISO 3166-1 alpha-2 code.
var countryCodes = map[string]string{
	"united kingdom":           "GB",
	"uk":                       "GB",
	"great britain":            "GB",
	"britain":                  "GB",
	"england":                  "GB",
	"scotland":                 "GB",
	"wales":                    "GB",
	"northern ireland":         "GB",
	"ireland":                  "IE",
	"republic of ireland":      "IE",
	"united states":            "US",
	"united states of america": "US",
	"usa":                      "US",
	"america":                  "US",
	"canada":                   "CA",
	"mexico":                   "MX",
	"brazil":                   "BR",
	"argentina":                "AR",
	"chile":                    "CL",
	"colombia":                 "CO",
	"peru":                     "PE",
	"france":                   "FR",
	"germany":                  "DE",
	"deutschland":              "DE",
	"spain":                    "ES",
	"españa":                   "ES",
	"portugal":                 "PT",
	"italy":                    "IT",
	"italia":                   "IT",
	"netherlands":              "NL",
	"the netherlands":          "NL",
	"holland":                  "NL",
	"belgium":                  "BE",
	"luxembourg":               "LU",
	"switzerland":              "CH",
	"austria":                  "AT",
	"denmark":                  "DK",
	"sweden":                   "SE",
	"norway":                   "NO",
	"finland":                  "FI",
	"iceland":                  "IS",
	"poland":                   "PL",
	"czech republic":           "CZ",
	"czechia":                  "CZ",
	"slovakia":                 "SK",
	"hungary":                  "HU",
	"romania":                  "RO",
	"bulgaria":                 "BG",
	"greece":                   "GR",
	"croatia":                  "HR",
	"slovenia":                 "SI",
	"serbia":                   "RS",
	"estonia":                  "EE",
	"latvia":                   "LV",
	"lithuania":                "LT",
	"malta":                    "MT",
	"cyprus":                   "CY",
	"turkey":                   "TR",
	"türkiye":                  "TR",
	"ukraine":                  "UA",
	"israel":                   "IL",
	"lebanon":                  "LB",
	"united arab emirates":     "AE",
	"uae":                      "AE",
	"saudi arabia":             "SA",
	"qatar":                    "QA",
	"egypt":                    "EG",
	"morocco":                  "MA",
	"south africa":             "ZA",
	"nigeria":                  "NG",
	"kenya":                    "KE",
	"india":                    "IN",
	"pakistan":                 "PK",
	"china":                    "CN",
	"hong kong":                "HK",
	"japan":                    "JP",
	"south korea":              "KR",
	"korea":                    "KR",
	"singapore":                "SG",
	"malaysia":                 "MY",
	"thailand":                 "TH",
	"vietnam":                  "VN",
	"indonesia":                "ID",
	"philippines":              "PH",
	"australia":                "AU",
	"new zealand":              "NZ",
}

// CountryCode resolves free-text country input to an ISO 3166-1 alpha-2
// code. Known names and aliases are looked up first, any other two letter
// value passes through upper-cased, and everything else falls back to
// DefaultCountryCode.
func CountryCode(input string) string {
	normalized := strings.ToLower(strings.TrimSpace(input))
	if code, ok := countryCodes[normalized]; ok {
		return code
	}
	if len(normalized) == 2 && isASCIILetters(normalized) {
		return strings.ToUpper(normalized)
	}
	return DefaultCountryCode
}

func isASCIILetters(s string) bool {
	for _, r := range s {
		if r < 'a' || r > 'z' {
			return false
		}
	}
	return true
}

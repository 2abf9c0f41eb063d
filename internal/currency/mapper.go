package currency

import "strings"

const Default = "USD"

const (
	USD = "USD"
	INR = "INR"
	GBP = "GBP"
)

// checkout only accepts these; all use two decimal places.
var supported = map[string]bool{USD: true, INR: true, GBP: true}

var byCountry = map[string]string{
	// North America
	"US": "USD", "CA": "CAD", "MX": "MXN",

	// Europe
	"GB": "GBP", "DE": "EUR", "FR": "EUR", "IT": "EUR", "ES": "EUR",
	"NL": "EUR", "BE": "EUR", "AT": "EUR", "PT": "EUR", "IE": "EUR",
	"FI": "EUR", "GR": "EUR", "CH": "CHF", "SE": "SEK", "NO": "NOK",
	"DK": "DKK", "PL": "PLN", "CZ": "CZK",

	// Asia
	"IN": "INR", "CN": "CNY", "JP": "JPY", "KR": "KRW", "SG": "SGD",
	"HK": "HKD", "TH": "THB", "MY": "MYR", "ID": "IDR", "PH": "PHP",
	"VN": "VND", "TW": "TWD",

	// Oceania
	"AU": "AUD", "NZ": "NZD",

	// Middle East
	"AE": "AED", "SA": "SAR", "IL": "ILS", "TR": "TRY",

	// South America
	"BR": "BRL", "AR": "ARS", "CL": "CLP", "CO": "COP",

	// Africa
	"ZA": "ZAR", "EG": "EGP", "NG": "NGN", "KE": "KES",
}

// For maps an ISO 3166-1 alpha-2 country code to its ISO 4217 currency.
// Unknown codes fall back to USD.
func For(country string) string {
	if c, ok := byCountry[strings.ToUpper(strings.TrimSpace(country))]; ok {
		return c
	}
	return Default
}

func Normalize(code string) string { return strings.ToUpper(strings.TrimSpace(code)) }

func Supported(code string) bool { return supported[Normalize(code)] }

func SupportedList() []string { return []string{USD, INR, GBP} }

func ValidCountry(code string) bool {
	if len(code) != 2 {
		return false
	}
	for _, r := range code {
		if (r < 'A' || r > 'Z') && (r < 'a' || r > 'z') {
			return false
		}
	}
	return true
}

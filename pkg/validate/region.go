package validate

import (
	"regexp"
	"strings"

	"golang.org/x/text/language"
)

// IsCountry reports whether code is an ISO 3166-1 alpha-2 country code.
// Letter case is ignored.
func IsCountry(code string) bool {
	if len(code) != 2 {
		return false
	}
	for _, r := range code {
		if (r < 'a' || r > 'z') && (r < 'A' || r > 'Z') {
			return false
		}
	}
	region, err := language.ParseRegion(code)
	if err != nil {
		return false
	}
	return region.IsCountry()
}

type countryRule struct{}

func (countryRule) Validate(value any) bool {
	text, ok := value.(string)
	return ok && IsCountry(text)
}

func (countryRule) Describe() Descriptor { return Descriptor{Kind: KindCountryCode} }

// CountryCode accepts ISO 3166-1 alpha-2 country codes.
func CountryCode() Validator { return countryRule{} }

var (
	postalPatterns = map[string]*regexp.Regexp{
		"AR": regexp.MustCompile(`^([A-Z]\d{4}[A-Z]{3}|\d{4})$`),
		"AT": regexp.MustCompile(`^\d{4}$`),
		"AU": regexp.MustCompile(`^\d{4}$`),
		"BE": regexp.MustCompile(`^\d{4}$`),
		"BR": regexp.MustCompile(`^\d{5}-?\d{3}$`),
		"CA": regexp.MustCompile(`^[ABCEGHJKLMNPRSTVXY]\d[A-Z] ?\d[A-Z]\d$`),
		"CH": regexp.MustCompile(`^\d{4}$`),
		"CL": regexp.MustCompile(`^\d{7}$`),
		"CN": regexp.MustCompile(`^\d{6}$`),
		"DE": regexp.MustCompile(`^\d{5}$`),
		"DK": regexp.MustCompile(`^\d{4}$`),
		"ES": regexp.MustCompile(`^\d{5}$`),
		"FR": regexp.MustCompile(`^\d{5}$`),
		"GB": regexp.MustCompile(`^[A-Z]{1,2}\d[A-Z\d]? ?\d[A-Z]{2}$`),
		"IN": regexp.MustCompile(`^\d{6}$`),
		"IT": regexp.MustCompile(`^\d{5}$`),
		"JP": regexp.MustCompile(`^\d{3}-?\d{4}$`),
		"MX": regexp.MustCompile(`^\d{5}$`),
		"NL": regexp.MustCompile(`^\d{4} ?[A-Z]{2}$`),
		"PL": regexp.MustCompile(`^\d{2}-?\d{3}$`),
		"PT": regexp.MustCompile(`^\d{4}-?\d{3}$`),
		"SE": regexp.MustCompile(`^\d{3} ?\d{2}$`),
		"US": regexp.MustCompile(`^\d{5}(-\d{4})?$`),
	}
	genericPostal = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9 -]{1,9}$`)
)

type postalRule struct {
	country string
}

func (r postalRule) Validate(value any) bool {
	text, ok := value.(string)
	if !ok {
		return false
	}
	if pattern, ok := postalPatterns[r.country]; ok {
		return pattern.MatchString(strings.ToUpper(text))
	}
	return genericPostal.MatchString(text)
}

func (r postalRule) Describe() Descriptor {
	if r.country == "" {
		return Descriptor{Kind: KindPostalCode}
	}
	return Descriptor{Kind: KindPostalCode, Args: []string{r.country}}
}

// PostalCode accepts postal codes in the format used by country. Countries
// without a known format, and an empty country, fall back to a loose
// alphanumeric check.
func PostalCode(country string) Validator {
	return postalRule{country: strings.ToUpper(strings.TrimSpace(country))}
}

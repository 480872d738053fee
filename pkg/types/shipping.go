package types

import "strings"

// ShippingDetails carries the address fields captured at checkout. Only
// presence is validated here; carriers and geocoding are out of scope.
type ShippingDetails struct {
	Name     string `json:"name"`
	Address1 string `json:"address1"`
	Address2 string `json:"address2,omitempty"`
	City     string `json:"city"`
	State    string `json:"state,omitempty"`
	ZipCode  string `json:"zip_code"`
	Country  string `json:"country"`
}

// MissingFields returns the names of required fields that are blank.
func (s ShippingDetails) MissingFields() []string {
	var missing []string
	required := []struct {
		name  string
		value string
	}{
		{"name", s.Name},
		{"address1", s.Address1},
		{"city", s.City},
		{"zip_code", s.ZipCode},
		{"country", s.Country},
	}
	for _, field := range required {
		if strings.TrimSpace(field.value) == "" {
			missing = append(missing, field.name)
		}
	}
	return missing
}

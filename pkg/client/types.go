package client

import (
	"encoding/json"
	"fmt"
)

// Gender is a predicted gender. The empty Gender means the API had no
// prediction for the name.
type Gender string

const (
	// GenderUnknown is the API's null gender.
	GenderUnknown Gender = ""

	// GenderFemale is "female".
	GenderFemale Gender = "female"

	// GenderMale is "male".
	GenderMale Gender = "male"
)

// UnmarshalJSON accepts "female", "male" and null.
func (g *Gender) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*g = GenderUnknown
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("decode gender: %w", err)
	}

	switch Gender(s) {
	case GenderFemale, GenderMale:
		*g = Gender(s)
		return nil
	default:
		return fmt.Errorf("unknown gender %q", s)
	}
}

// GenderResult is the gender prediction for one name.
type GenderResult struct {
	Gender      Gender  `json:"gender"`
	Probability float64 `json:"probability"`
	Count       int     `json:"count"`
}

// CountryResult is one likely country of origin for a name. The API returns
// them ordered by descending probability and the order is kept.
type CountryResult struct {
	CountryID   string  `json:"country_id"`
	Probability float64 `json:"probability"`
}

// rawGenderResult is one element of the genderize.io response array.
type rawGenderResult struct {
	Name        string  `json:"name"`
	Gender      Gender  `json:"gender"`
	Probability float64 `json:"probability"`
	Count       int     `json:"count"`
}

// rawCountryResult is one element of the nationalize.io response array.
type rawCountryResult struct {
	Name    string          `json:"name"`
	Country []CountryResult `json:"country"`
}

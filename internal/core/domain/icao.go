package domain

import (
	"fmt"
	"regexp"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

var icaoPattern = regexp.MustCompile(`^[A-Z]{4}$`)

// LookupKey is a normalized ICAO airport code.
type LookupKey string

func (k LookupKey) String() string {
	return string(k)
}

// NormalizeKey trims and upper-cases raw input and checks it is a
// four-letter ICAO code.
func NormalizeKey(raw string) (LookupKey, error) {
	code := strings.ToUpper(strings.TrimSpace(raw))

	err := validation.Validate(code,
		validation.Required.Error("airport code is required"),
		validation.Match(icaoPattern).Error("airport code must be 4 letters"),
	)
	if err != nil {
		return "", fmt.Errorf("%w: %q: %v", ErrInvalidInput, raw, err)
	}

	return LookupKey(code), nil
}

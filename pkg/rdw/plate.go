package rdw

import (
	"fmt"
	"strings"
)

// PlateLength is the length of a normalized Dutch license plate.
const PlateLength = 6

// LicensePlate is a normalized plate: six upper-case ASCII letters or digits.
type LicensePlate string

func (p LicensePlate) String() string { return string(p) }

// NormalizeLicensePlate strips hyphens, upper-cases the rest and validates the result.
func NormalizeLicensePlate(raw string) (LicensePlate, error) {
	if raw == "" {
		return "", fmt.Errorf("%w: license plate is empty", ErrInvalidArgument)
	}

	plate := strings.ToUpper(strings.ReplaceAll(raw, "-", ""))
	if len(plate) != PlateLength {
		return "", fmt.Errorf("%w: license plate %q must have %d characters without hyphens", ErrInvalidArgument, raw, PlateLength)
	}
	for i := 0; i < len(plate); i++ {
		if !isAlphanumeric(plate[i]) {
			return "", fmt.Errorf("%w: license plate %q contains non-alphanumeric character %q", ErrInvalidArgument, raw, plate[i])
		}
	}
	return LicensePlate(plate), nil
}

// NormalizeLicensePlatePtr is NormalizeLicensePlate for optional input; nil is rejected.
func NormalizeLicensePlatePtr(raw *string) (LicensePlate, error) {
	if raw == nil {
		return "", fmt.Errorf("%w: license plate is missing", ErrInvalidArgument)
	}
	return NormalizeLicensePlate(*raw)
}

func isAlphanumeric(c byte) bool {
	return ('A' <= c && c <= 'Z') || ('0' <= c && c <= '9')
}

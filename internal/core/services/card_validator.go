package services

import (
	"regexp"
	"strings"
)

// CardValidationReason classifies why card details were rejected, so callers
// can report precisely instead of a generic rejection.
type CardValidationReason string

const (
	ReasonNumberFormat   CardValidationReason = "NUMBER_FORMAT"
	ReasonChecksumFailed CardValidationReason = "CHECKSUM_FAILED"
	ReasonExpiryInvalid  CardValidationReason = "EXPIRY_INVALID"
	ReasonCVVInvalid     CardValidationReason = "CVV_INVALID"
)

// CardValidationResult is the outcome of validating card details.
type CardValidationResult struct {
	OK     bool
	Reason CardValidationReason
}

var (
	cardNumberPattern = regexp.MustCompile(`^\d{13,19}$`)
	expiryPattern     = regexp.MustCompile(`^(0[1-9]|1[0-2])/\d{2}$`)
	// CVV is exactly 3 digits. Card networks that use 4-digit codes are out
	// of scope for the accepted card types.
	cvvPattern = regexp.MustCompile(`^\d{3}$`)
)

// CardValidator checks card details before any authorization is attempted.
// It is pure: no id is consumed and nothing is written on rejection.
type CardValidator struct{}

// NewCardValidator creates a CardValidator.
func NewCardValidator() *CardValidator {
	return &CardValidator{}
}

// Validate checks the card number (digits only, length 13-19, Luhn checksum),
// the expiry (MM/YY, month 01-12) and the CVV (exactly 3 digits). Whitespace
// in the card number is stripped before checking. The first failing check
// determines the reported reason.
func (v *CardValidator) Validate(cardNumber, expiry, cvv string) CardValidationResult {
	number := strings.ReplaceAll(cardNumber, " ", "")

	if !cardNumberPattern.MatchString(number) {
		return CardValidationResult{Reason: ReasonNumberFormat}
	}
	if !luhnValid(number) {
		return CardValidationResult{Reason: ReasonChecksumFailed}
	}
	if !expiryPattern.MatchString(expiry) {
		return CardValidationResult{Reason: ReasonExpiryInvalid}
	}
	if !cvvPattern.MatchString(cvv) {
		return CardValidationResult{Reason: ReasonCVVInvalid}
	}
	return CardValidationResult{OK: true}
}

// luhnValid applies the Luhn checksum: double every second digit from the
// rightmost, subtract 9 when the result exceeds 9, sum all digits; the number
// is valid iff the sum is divisible by 10. Assumes digits-only input.
func luhnValid(number string) bool {
	sum := 0
	double := false
	for i := len(number) - 1; i >= 0; i-- {
		digit := int(number[i] - '0')
		if double {
			digit *= 2
			if digit > 9 {
				digit -= 9
			}
		}
		sum += digit
		double = !double
	}
	return sum%10 == 0
}

package payments

import (
	"regexp"
	"strings"
	"time"
)

var (
	expiryPattern = regexp.MustCompile(`^(\d{2})/(\d{2})$`)
	cvvPattern    = regexp.MustCompile(`^\d{3,4}$`)
)

// Card is the card data entered at checkout. It is never persisted.
type Card struct {
	Number string
	Expiry string
	CVV    string
}

// Digits returns the card number without spaces.
func (c Card) Digits() string {
	return strings.Join(strings.Fields(c.Number), "")
}

// Last4 returns the trailing four digits of the card number.
func (c Card) Last4() string {
	digits := c.Digits()
	if len(digits) < 4 {
		return digits
	}
	return digits[len(digits)-4:]
}

// ValidateCard checks the number with the Luhn algorithm and the MM/YY expiry and CVV formats.
// The returned map is keyed by field name and is empty when the card is acceptable.
func ValidateCard(card Card, now time.Time) map[string]string {
	problems := make(map[string]string)
	if !LuhnValid(card.Digits()) {
		problems["number"] = "Invalid card number"
	}
	if m := expiryPattern.FindStringSubmatch(strings.TrimSpace(card.Expiry)); m == nil {
		problems["expiry"] = "MM/YY"
	} else if expired(m[1], m[2], now) {
		problems["expiry"] = "Card has expired"
	}
	if !cvvPattern.MatchString(strings.TrimSpace(card.CVV)) {
		problems["cvv"] = "CVV must be 3-4 digits"
	}
	return problems
}

// LuhnValid reports whether digits passes the Luhn checksum. Non-digit input is invalid.
func LuhnValid(digits string) bool {
	if len(digits) < 12 || len(digits) > 19 {
		return false
	}
	sum := 0
	alt := false
	for i := len(digits) - 1; i >= 0; i-- {
		c := digits[i]
		if c < '0' || c > '9' {
			return false
		}
		n := int(c - '0')
		if alt {
			n *= 2
			if n > 9 {
				n -= 9
			}
		}
		sum += n
		alt = !alt
	}
	return sum%10 == 0
}

func expired(month, year string, now time.Time) bool {
	mm := int(month[0]-'0')*10 + int(month[1]-'0')
	yy := int(year[0]-'0')*10 + int(year[1]-'0')
	if mm < 1 || mm > 12 {
		return true
	}
	// Valid through the last day of the expiry month.
	end := time.Date(2000+yy, time.Month(mm)+1, 1, 0, 0, 0, 0, time.UTC)
	return !now.UTC().Before(end)
}

package validator

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"tutor-import-service/internal/models"
)

var emailPattern = regexp.MustCompile(`^[a-z0-9._%+\-]+@[a-z0-9.\-]+\.[a-z]{2,}$`)

// coerceEmail lowercases and validates an email address.
func coerceEmail(raw string) (string, error) {
	email := strings.ToLower(strings.TrimSpace(raw))
	if !emailPattern.MatchString(email) {
		return "", fmt.Errorf("not a valid email address: %q", raw)
	}
	return email, nil
}

// coercePhone normalizes an Indonesian phone number to country-code form:
// digits only, with a leading "0" or bare "8" rewritten to the "62" prefix.
func coercePhone(raw string) (string, error) {
	var digits strings.Builder
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			digits.WriteRune(r)
		}
	}
	phone := digits.String()

	switch {
	case strings.HasPrefix(phone, "62"):
		// Already country-code form.
	case strings.HasPrefix(phone, "0"):
		phone = "62" + phone[1:]
	case strings.HasPrefix(phone, "8"):
		phone = "62" + phone
	case phone == "":
		return "", fmt.Errorf("no digits in phone number: %q", raw)
	default:
		return "", fmt.Errorf("unrecognized phone prefix: %q", raw)
	}

	if len(phone) < 10 || len(phone) > 15 {
		return "", fmt.Errorf("phone number has implausible length: %q", raw)
	}
	return phone, nil
}

// coerceNumber parses a locale-tolerant float: non-numeric characters are
// stripped and a decimal comma is accepted.
func coerceNumber(raw string) (float64, error) {
	cleaned := strings.TrimSpace(raw)
	cleaned = strings.ReplaceAll(cleaned, ",", ".")

	var b strings.Builder
	for _, r := range cleaned {
		if (r >= '0' && r <= '9') || r == '.' || r == '-' {
			b.WriteRune(r)
		}
	}
	cleaned = b.String()
	if cleaned == "" {
		return 0, fmt.Errorf("no numeric content: %q", raw)
	}

	value, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0, fmt.Errorf("not a number: %q", raw)
	}
	return value, nil
}

var thousandsPattern = regexp.MustCompile(`^\d{1,3}(\.\d{3})+$`)

// coerceDecimal parses a monetary amount, tolerating "Rp" prefixes and
// Indonesian thousands separators ("Rp 50.000" is fifty thousand).
func coerceDecimal(raw string) (decimal.Decimal, error) {
	cleaned := strings.TrimSpace(raw)
	cleaned = strings.TrimPrefix(strings.ToLower(cleaned), "rp")
	cleaned = strings.TrimSpace(cleaned)
	cleaned = strings.ReplaceAll(cleaned, " ", "")

	if thousandsPattern.MatchString(cleaned) {
		cleaned = strings.ReplaceAll(cleaned, ".", "")
	}
	cleaned = strings.ReplaceAll(cleaned, ",", ".")

	var b strings.Builder
	for _, r := range cleaned {
		if (r >= '0' && r <= '9') || r == '.' || r == '-' {
			b.WriteRune(r)
		}
	}
	cleaned = b.String()
	if cleaned == "" {
		return decimal.Zero, fmt.Errorf("no numeric content: %q", raw)
	}

	value, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Zero, fmt.Errorf("not a valid amount: %q", raw)
	}
	return value, nil
}

// coerceDate parses a date with explicit day-first disambiguation for
// slash-delimited values ("15/03/1990" is the 15th of March). A leading
// 4-digit part is taken as a year. Dash-delimited ISO and day-first forms
// are also accepted.
func coerceDate(raw string) (time.Time, error) {
	value := strings.TrimSpace(raw)
	if value == "" {
		return time.Time{}, fmt.Errorf("empty date")
	}

	if strings.Contains(value, "/") {
		return parseDelimitedDate(value, "/")
	}

	for _, layout := range []string{"2006-01-02", "02-01-2006", "2006-01-02 15:04:05"} {
		if t, err := time.Parse(layout, value); err == nil {
			return t, nil
		}
	}
	if strings.Contains(value, "-") {
		return parseDelimitedDate(value, "-")
	}
	return time.Time{}, fmt.Errorf("unrecognized date format: %q", raw)
}

func parseDelimitedDate(value, sep string) (time.Time, error) {
	parts := strings.Split(value, sep)
	if len(parts) != 3 {
		return time.Time{}, fmt.Errorf("unrecognized date format: %q", value)
	}

	nums := make([]int, 3)
	for i, part := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			return time.Time{}, fmt.Errorf("unrecognized date format: %q", value)
		}
		nums[i] = n
	}

	var day, month, year int
	if len(strings.TrimSpace(parts[0])) == 4 {
		// Year-first: 1990/03/15.
		year, month, day = nums[0], nums[1], nums[2]
	} else {
		// Day-first is the convention for this domain.
		day, month, year = nums[0], nums[1], nums[2]
		if year < 100 {
			if year >= 50 {
				year += 1900
			} else {
				year += 2000
			}
		}
	}

	if month < 1 || month > 12 || day < 1 || day > 31 {
		return time.Time{}, fmt.Errorf("date out of range: %q", value)
	}

	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	// time.Date normalizes overflow (Feb 31 becomes Mar 2); reject that.
	if t.Day() != day || int(t.Month()) != month {
		return time.Time{}, fmt.Errorf("date out of range: %q", value)
	}
	return t, nil
}

// ageAt computes full years between birth and now.
func ageAt(birth, now time.Time) int {
	years := now.Year() - birth.Year()
	if now.YearDay() < birth.YearDay() {
		years--
	}
	return years
}

// coerceList splits a delimited multi-value cell on commas and semicolons,
// trimming tokens and dropping empties.
func coerceList(raw string) []string {
	split := strings.FieldsFunc(raw, func(r rune) bool {
		return r == ',' || r == ';'
	})

	tokens := make([]string, 0, len(split))
	for _, token := range split {
		token = strings.TrimSpace(token)
		if token != "" {
			tokens = append(tokens, token)
		}
	}
	return tokens
}

var truthyTokens = map[string]bool{
	"true":  true,
	"yes":   true,
	"1":     true,
	"ya":    true,
	"iya":   true,
	"y":     true,
	"aktif": true,
	"bisa":  true,
}

// coerceSwitch maps a fixed set of truthy tokens (including localized
// affirmatives) to true; everything else is false.
func coerceSwitch(raw string) bool {
	return truthyTokens[strings.ToLower(strings.TrimSpace(raw))]
}

// coerceGender maps free-text gender labels onto the known values. Returns
// GenderUnknown for unrecognized input.
func coerceGender(raw string) models.Gender {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "l", "m", "laki-laki", "laki laki", "laki", "pria", "male":
		return models.GenderMale
	case "p", "f", "perempuan", "wanita", "female":
		return models.GenderFemale
	default:
		return models.GenderUnknown
	}
}

var nikPattern = regexp.MustCompile(`^\d{16}$`)

// validNIK reports whether the value looks like a 16-digit national
// identity number.
func validNIK(value string) bool {
	return nikPattern.MatchString(value)
}

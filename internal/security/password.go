package security

import (
	"unicode"

	"golang.org/x/crypto/bcrypt"
)

// DefaultBcryptCost matches the cost the rest of the system was sized
// for; login latency budgets assume it.
const DefaultBcryptCost = 12

func HashPassword(password string, cost int) (string, error) {
	if cost == 0 {
		cost = DefaultBcryptCost
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// VerifyPassword reports whether candidate matches the stored hash.
func VerifyPassword(hash, candidate string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(candidate)) == nil
}

// StrengthReport is advisory scoring only; it does not gate anything.
type StrengthReport struct {
	Score       int      `json:"score"`
	IsStrong    bool     `json:"is_strong"`
	Suggestions []string `json:"suggestions"`
}

// CheckPasswordStrength scores a candidate password: +1 for length >=8,
// +1 bonus for length >=12, +1 per present character class
// (lower/upper/digit/symbol). Strong at score >= 4.
func CheckPasswordStrength(password string) StrengthReport {
	report := StrengthReport{Suggestions: []string{}}

	if len(password) >= 8 {
		report.Score++
	} else {
		report.Suggestions = append(report.Suggestions, "use at least 8 characters")
	}

	var hasLower, hasUpper, hasDigit, hasSymbol bool
	for _, r := range password {
		switch {
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsDigit(r):
			hasDigit = true
		default:
			hasSymbol = true
		}
	}
	if hasLower {
		report.Score++
	} else {
		report.Suggestions = append(report.Suggestions, "add lowercase letters")
	}
	if hasUpper {
		report.Score++
	} else {
		report.Suggestions = append(report.Suggestions, "add uppercase letters")
	}
	if hasDigit {
		report.Score++
	} else {
		report.Suggestions = append(report.Suggestions, "add digits")
	}
	if hasSymbol {
		report.Score++
	} else {
		report.Suggestions = append(report.Suggestions, "add symbols")
	}
	if len(password) >= 12 {
		report.Score++
	}

	report.IsStrong = report.Score >= 4
	return report
}

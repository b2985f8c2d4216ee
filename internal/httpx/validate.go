package httpx

import (
	"fmt"
	"net/mail"
	"strings"
	"unicode/utf8"
)

// Validator collects the first failure per field.
type Validator struct {
	errs map[string]string
}

func NewValidator() *Validator {
	return &Validator{errs: map[string]string{}}
}

func (v *Validator) Valid() bool { return len(v.errs) == 0 }

func (v *Validator) Errors() map[string]string { return v.errs }

func (v *Validator) fail(field, msg string) {
	if _, ok := v.errs[field]; !ok {
		v.errs[field] = msg
	}
}

func (v *Validator) Email(field, value string) {
	if !IsEmail(value) {
		v.fail(field, "Please enter a valid email address")
	}
}

func (v *Validator) Password(field, value string, min, max int) {
	n := utf8.RuneCountInString(value)
	switch {
	case n < min:
		v.fail(field, fmt.Sprintf("Password must be at least %d characters", min))
	case n > max:
		v.fail(field, fmt.Sprintf("Password must be at most %d characters", max))
	}
}

// IsEmail accepts a bare address with a dotted domain, no display name.
func IsEmail(s string) bool {
	if s == "" || strings.TrimSpace(s) != s {
		return false
	}
	addr, err := mail.ParseAddress(s)
	if err != nil || addr.Address != s || addr.Name != "" {
		return false
	}
	at := strings.LastIndexByte(s, '@')
	domain := s[at+1:]
	return strings.Contains(domain, ".") && !strings.HasPrefix(domain, ".") && !strings.HasSuffix(domain, ".")
}

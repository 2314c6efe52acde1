// Package validate holds input validation and HTML sanitization for
// user-supplied content.
package validate

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
	"unicode"

	"github.com/microcosm-cc/bluemonday"
)

const (
	// MaxEmailLength follows the SMTP path length limit.
	MaxEmailLength = 254

	MinPasswordLength = 8

	MinUsernameLength = 2
	MaxUsernameLength = 20

	// MaxImageSize bounds uploaded image payloads.
	MaxImageSize = 5 * 1024 * 1024
)

var (
	emailPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

	// Usernames allow latin letters, digits, Hangul, underscore and hyphen.
	usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9가-힣_\-]+$`)

	allowedImageTypes = map[string]bool{
		"image/jpeg": true,
		"image/png":  true,
		"image/gif":  true,
		"image/webp": true,
	}

	// contentPolicy keeps basic formatting but strips scripts, iframes,
	// event handlers and javascript: URLs.
	contentPolicy = buildContentPolicy()

	// strictPolicy strips all markup.
	strictPolicy = bluemonday.StrictPolicy()
)

func buildContentPolicy() *bluemonday.Policy {
	p := bluemonday.NewPolicy()
	p.AllowElements("p", "br", "b", "strong", "i", "em", "u", "s",
		"blockquote", "pre", "code", "ul", "ol", "li", "h1", "h2", "h3", "h4")
	p.AllowAttrs("href").OnElements("a")
	p.AllowStandardURLs()
	p.RequireNoFollowOnLinks(true)
	return p
}

// Email checks address shape and length.
func Email(email string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return fmt.Errorf("email is required")
	}
	if len(email) > MaxEmailLength {
		return fmt.Errorf("email must be at most %d characters", MaxEmailLength)
	}
	if !emailPattern.MatchString(email) {
		return fmt.Errorf("email format is invalid")
	}
	return nil
}

// Password requires a minimum length and at least three of four
// character classes (lowercase, uppercase, digit, symbol).
func Password(password string) error {
	if len(password) < MinPasswordLength {
		return fmt.Errorf("password must be at least %d characters", MinPasswordLength)
	}

	var lower, upper, digit, symbol bool
	for _, r := range password {
		switch {
		case unicode.IsLower(r):
			lower = true
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsDigit(r):
			digit = true
		default:
			symbol = true
		}
	}

	classes := 0
	for _, present := range []bool{lower, upper, digit, symbol} {
		if present {
			classes++
		}
	}
	if classes < 3 {
		return fmt.Errorf("password must mix at least three of: lowercase, uppercase, digits, symbols")
	}
	return nil
}

// Username checks length and allowed characters. Length is counted in
// runes so Hangul names are not penalized.
func Username(username string) error {
	username = strings.TrimSpace(username)
	length := len([]rune(username))
	if length < MinUsernameLength || length > MaxUsernameLength {
		return fmt.Errorf("username must be %d-%d characters", MinUsernameLength, MaxUsernameLength)
	}
	if !usernamePattern.MatchString(username) {
		return fmt.Errorf("username contains invalid characters")
	}
	return nil
}

// Image checks an uploaded image's declared type, size and filename.
func Image(contentType string, size int64, filename string) error {
	if !allowedImageTypes[strings.ToLower(strings.TrimSpace(contentType))] {
		return fmt.Errorf("unsupported image type %q", contentType)
	}
	if size <= 0 || size > MaxImageSize {
		return fmt.Errorf("image must be between 1 byte and %d bytes", MaxImageSize)
	}

	base := filepath.Base(filename)
	if base != filename || strings.Contains(filename, "..") {
		return fmt.Errorf("image filename must not contain path separators")
	}
	return nil
}

// SanitizeHTML strips dangerous markup from rich content while keeping
// basic formatting.
func SanitizeHTML(input string) string {
	return contentPolicy.Sanitize(input)
}

// SanitizeText strips all markup, for plain-text fields like titles.
func SanitizeText(input string) string {
	return strings.TrimSpace(strictPolicy.Sanitize(input))
}

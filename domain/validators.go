package domain

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

const maxNameLength = 63

// supportedLanguages is the fixed locale set the UI ships translations for.
var supportedLanguages = map[string]bool{
	"es": true,
	"en": true,
	"fr": true,
	"de": true,
	"pt": true,
}

// ValidateName checks a trainer name chosen at registration. Names are
// immutable afterwards, so this is the only place they are checked.
func ValidateName(name string) error {
	if name == "" {
		return fmt.Errorf("trainer name is required")
	}
	if name != strings.TrimSpace(name) {
		return fmt.Errorf("trainer name must not start or end with whitespace")
	}
	if utf8.RuneCountInString(name) > maxNameLength {
		return fmt.Errorf("trainer name must be at most %d characters", maxNameLength)
	}
	return nil
}

// ValidatePassword checks a plaintext password before hashing.
func ValidatePassword(password string) error {
	if password == "" {
		return fmt.Errorf("password is required")
	}
	return nil
}

// NormalizeLanguage maps a requested locale onto the supported set,
// falling back to the default the way the original entity default did.
func NormalizeLanguage(language string) string {
	if supportedLanguages[language] {
		return language
	}
	return DefaultLanguage
}

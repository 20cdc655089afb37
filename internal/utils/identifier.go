package utils

import "strings"

const fallbackMobileSecret = "123456"

// IsAllDigits reports whether value is a non-empty run of ASCII digits.
func IsAllDigits(value string) bool {
	if value == "" {
		return false
	}
	for _, r := range value {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// MobileSuffixSecret derives the insecure default password from the last six
// characters of a mobile number. Only used behind AUTH_ALLOW_MOBILE_PASSWORD.
func MobileSuffixSecret(mobile string) string {
	mobile = strings.TrimSpace(mobile)
	if mobile == "" {
		return fallbackMobileSecret
	}
	if len(mobile) <= 6 {
		return mobile
	}
	return mobile[len(mobile)-6:]
}

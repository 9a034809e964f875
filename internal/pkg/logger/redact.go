package logger

import (
	"regexp"
	"strings"
)

var phoneRegex = regexp.MustCompile(`(?:\+?91[\s-]?)?[6-9]\d{9}\b`)

func redactPIIValue(key, val string) string {
	key = strings.ToLower(key)
	if strings.Contains(key, "subject") || strings.Contains(key, "migrant") || strings.Contains(key, "patient") {
		return RedactID(val)
	}
	if strings.Contains(key, "phone") || strings.Contains(key, "mobile") {
		return RedactPhone(val)
	}
	return phoneRegex.ReplaceAllStringFunc(val, RedactPhone)
}

// RedactID masks a subject identifier, keeping the last four characters:
// "MIG-2024-00871" -> "***0871". Identifiers of four characters or fewer are
// fully masked.
func RedactID(id string) string {
	if len(id) <= 4 {
		return "***"
	}
	return "***" + id[len(id)-4:]
}

// RedactPhone masks a phone number down to its last two digits:
// "+91 9876543210" -> "********10".
func RedactPhone(phone string) string {
	digits := make([]byte, 0, len(phone))
	for i := 0; i < len(phone); i++ {
		if phone[i] >= '0' && phone[i] <= '9' {
			digits = append(digits, phone[i])
		}
	}
	if len(digits) <= 2 {
		return "**"
	}
	return "********" + string(digits[len(digits)-2:])
}

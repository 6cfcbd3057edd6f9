package ai

import (
	"encoding/json"
	"fmt"
	"strings"

	"barberbot/models"
)

// Intent is a booking request found inside a model reply.
type Intent struct {
	Request models.BookingRequest
	// Raw is the JSON object as it appeared in the reply.
	Raw string
	// Prose is the reply with the JSON object and any code fence removed.
	Prose string
}

// ExtractIntent returns the first well-formed JSON object in reply whose
// "action" is "create_booking". Surrounding prose, code fences and other
// JSON objects are tolerated.
func ExtractIntent(reply string) (Intent, bool) {
	for start := strings.IndexByte(reply, '{'); start >= 0; {
		end := matchingBrace(reply, start)
		if end > start {
			raw := reply[start : end+1]
			if req, ok := decodeBookingRequest(raw); ok {
				return Intent{
					Request: req,
					Raw:     raw,
					Prose:   stripFences(reply[:start] + reply[end+1:]),
				}, true
			}
		}
		next := strings.IndexByte(reply[start+1:], '{')
		if next < 0 {
			break
		}
		start += next + 1
	}
	return Intent{}, false
}

// matchingBrace returns the index of the brace closing the one at open,
// skipping braces inside JSON strings, or -1.
func matchingBrace(s string, open int) int {
	depth := 0
	inString := false
	escaped := false
	for i := open; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

func decodeBookingRequest(raw string) (models.BookingRequest, bool) {
	var fields map[string]any
	if err := json.Unmarshal([]byte(raw), &fields); err != nil {
		return models.BookingRequest{}, false
	}
	action := strings.ToLower(strings.TrimSpace(stringField(fields, "action")))
	if action != models.CreateBookingAction {
		return models.BookingRequest{}, false
	}
	return models.BookingRequest{
		Action:   action,
		Service:  strings.TrimSpace(stringField(fields, "service")),
		DateTime: strings.TrimSpace(stringField(fields, "datetime")),
		Barber:   strings.TrimSpace(stringField(fields, "barber")),
		Notes:    strings.TrimSpace(stringField(fields, "notes")),
	}, true
}

// stringField reads a field the model may have emitted as a number or null.
func stringField(fields map[string]any, key string) string {
	switch v := fields[key].(type) {
	case nil:
		return ""
	case string:
		return v
	case float64:
		return strings.TrimSuffix(fmt.Sprintf("%v", v), ".0")
	default:
		return fmt.Sprint(v)
	}
}

func stripFences(s string) string {
	s = strings.ReplaceAll(s, "```json", "")
	s = strings.ReplaceAll(s, "```", "")
	return strings.TrimSpace(s)
}

package classify

import (
	"sort"
	"strings"

	"github.com/eshaffer321/streamly-go/internal/types"
)

var defaultMessages = map[types.ErrorKind]string{
	types.KindNetwork:      "Connection failed. Please check your internet connection",
	types.KindBadRequest:   "The request could not be processed",
	types.KindUnauthorized: "Please log in to continue",
	types.KindForbidden:    "You do not have permission to perform this action",
	types.KindNotFound:     "The requested resource was not found",
	types.KindValidation:   "Some fields are invalid",
	types.KindRateLimited:  rateLimitedMessage,
	types.KindServer:       "Server error. Please try again later",
	types.KindUnknown:      unexpectedMessage,
}

// FriendlyMessage renders any pipeline error as text fit for an end user.
// Transport details (URLs, raw status lines, socket errors) never leak.
func FriendlyMessage(err error) string {
	if err == nil {
		return ""
	}

	e := Error(err)

	switch e.Kind {
	case types.KindValidation:
		if msg := firstFieldMessage(e.Fields); msg != "" {
			return msg
		}
	case types.KindUnauthorized:
		lower := strings.ToLower(e.Message)
		if strings.Contains(lower, "invalid") || strings.Contains(lower, "credential") {
			return "Account does not exist or password is incorrect"
		}
	case types.KindNetwork:
		return defaultMessages[types.KindNetwork]
	case types.KindUnknown:
		if e.StatusCode == 0 {
			return defaultMessages[types.KindUnknown]
		}
	}

	if e.Message != "" && e.Message != genericMessage {
		return e.Message
	}
	return defaultMessages[e.Kind]
}

// firstFieldMessage picks the first message of the alphabetically first
// field so the result is stable across map iteration
func firstFieldMessage(fields map[string][]string) string {
	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		if msgs := fields[name]; len(msgs) > 0 {
			return msgs[0]
		}
	}
	return ""
}

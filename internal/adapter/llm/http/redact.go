package http

import (
	"fmt"
	"regexp"
)

// MaxLoggedResponseLength caps how much of a model response is logged.
// Responses may quote source code under review, so full bodies never reach
// log aggregators.
const MaxLoggedResponseLength = 200

// TruncateForLogging returns a log-safe prefix of the response text.
func TruncateForLogging(response string) string {
	if len(response) <= MaxLoggedResponseLength {
		return response
	}
	return response[:MaxLoggedResponseLength] + fmt.Sprintf("... [truncated, total length=%d bytes]", len(response))
}

var secretQueryParams = regexp.MustCompile(`(?i)\b(key|apiKey|api_key|token|access_token)=[^&"\s]+`)

// RedactURLSecrets strips credential query parameters from URLs embedded in
// error messages before they are logged.
func RedactURLSecrets(text string) string {
	if text == "" {
		return text
	}
	return secretQueryParams.ReplaceAllString(text, "$1=[REDACTED]")
}

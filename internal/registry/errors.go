package registry

import (
	"fmt"
)

const (
	networkStatusErrorTemplateConstant = "registry request to %s failed with status %d"
	networkCauseErrorTemplateConstant  = "registry request to %s failed: %v"
	parseErrorTemplateConstant         = "registry response from %s is malformed: %v"
)

// NetworkError reports a failed registry request or a non-success status code.
type NetworkError struct {
	URL        string
	StatusCode int
	Cause      error
}

// Error describes the network failure.
func (networkError NetworkError) Error() string {
	if networkError.Cause != nil {
		return fmt.Sprintf(networkCauseErrorTemplateConstant, networkError.URL, networkError.Cause)
	}
	return fmt.Sprintf(networkStatusErrorTemplateConstant, networkError.URL, networkError.StatusCode)
}

// Unwrap exposes the transport error.
func (networkError NetworkError) Unwrap() error {
	return networkError.Cause
}

// ParseError reports a registry payload that is not valid JSON or does not match the expected shape.
type ParseError struct {
	URL   string
	Cause error
}

// Error describes the malformed payload.
func (parseError ParseError) Error() string {
	return fmt.Sprintf(parseErrorTemplateConstant, parseError.URL, parseError.Cause)
}

// Unwrap exposes the decoding or validation error.
func (parseError ParseError) Unwrap() error {
	return parseError.Cause
}

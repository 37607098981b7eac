package languagetool

import "fmt"

// EngineError is returned when LanguageTool cannot be reached or answers with a
// non-2xx status.
type EngineError struct {
	StatusCode int // 0 when the request never got a response
	Body       string
	Err        error
}

func (e *EngineError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("languagetool returned status %d: %s", e.StatusCode, e.Body)
	}
	return fmt.Sprintf("languagetool request failed: %v", e.Err)
}

func (e *EngineError) Unwrap() error {
	return e.Err
}

// ResponseParseError is returned when a response body is not the expected shape.
type ResponseParseError struct {
	Field string // JSON path of the offending field, empty for syntax errors
	Err   error
}

func (e *ResponseParseError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("parsing languagetool response: %s: %v", e.Field, e.Err)
	}
	return fmt.Sprintf("parsing languagetool response: %v", e.Err)
}

func (e *ResponseParseError) Unwrap() error {
	return e.Err
}

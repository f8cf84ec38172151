package processor

import "fmt"

// ParseError reports a PDF that could not be opened or parsed at all.
// It is fatal for the document; no partial output accompanies it.
type ParseError struct {
	FileName string
	Err      error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse pdf %s: %v", e.FileName, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

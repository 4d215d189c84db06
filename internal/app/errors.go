package app

import "fmt"

// DomainError is a business-rule failure that already knows how it
// should surface over HTTP: the status code, a stable machine-readable
// code for the `{"code": ..., "error": ...}` envelope, and a human
// message. mapError unwraps it in the handlers; anything else becomes
// a generic 500.
type DomainError struct {
	Status  int
	Code    string
	Message string
	Details any
}

func (e *DomainError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// domainError keeps service-layer call sites short.
func domainError(status int, code, message string, details any) *DomainError {
	return &DomainError{Status: status, Code: code, Message: message, Details: details}
}

package discovery

import "fmt"

// ValidationError reports a rejected seed keyword list. The pipeline
// performs no work when it raises one.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid discovery request: %s", e.Reason)
}

// CatalogUnavailableError wraps a readiness failure from the security
// catalog. It is fatal for the call; the caller may retry later.
type CatalogUnavailableError struct {
	Err error
}

func (e *CatalogUnavailableError) Error() string {
	return fmt.Sprintf("security catalog unavailable: %v", e.Err)
}

func (e *CatalogUnavailableError) Unwrap() error {
	return e.Err
}

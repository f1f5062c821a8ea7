package catalog

import "fmt"

// BuildError signals that catalog construction failed. The catalog keeps
// serving its previous snapshot (if any) until a correct build succeeds.
type BuildError struct {
	Market string
	Symbol string
	Reason string
}

func (e *BuildError) Error() string {
	if e.Market != "" || e.Symbol != "" {
		return fmt.Sprintf("catalog build failed: %s (%s:%s)", e.Reason, e.Market, e.Symbol)
	}
	return fmt.Sprintf("catalog build failed: %s", e.Reason)
}

// NotReadyError signals that the catalog has not been built yet
type NotReadyError struct{}

func (e *NotReadyError) Error() string {
	return "catalog is not ready"
}

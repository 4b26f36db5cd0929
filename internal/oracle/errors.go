package oracle

import "fmt"

// StatusError is returned when the oracle answers with a non-2xx status
// other than 404. A 404 is a valid domain answer ("not present in the
// graph") and is translated to the operation's empty value instead.
type StatusError struct {
	Endpoint string
	Status   int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("oracle: %s returned status %d", e.Endpoint, e.Status)
}

// ValidationError is returned when a decoded response body violates the
// documented shape. The whole response is rejected — nothing is coerced
// or dropped.
type ValidationError struct {
	Field string
	Value any
	Want  string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("oracle: invalid response: %s = %v, want %s", e.Field, e.Value, e.Want)
}

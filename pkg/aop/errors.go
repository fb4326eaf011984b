// pkg/aop/errors.go
package aop

import "fmt"

// ConfigurationError reports a structural problem in annotations or
// registration discovered at chain-build time, registration time, or first
// dispatch: a non-overridable method, conflicting annotation forms, a
// missing instance provider, an empty advice/type list, and so on.
type ConfigurationError struct {
	Key    MethodKey
	Reason string
}

func (e *ConfigurationError) Error() string {
	if e.Key.Name == "" {
		return fmt.Sprintf("aop: configuration error: %s", e.Reason)
	}
	return fmt.Sprintf("aop: configuration error for %s: %s", e.Key, e.Reason)
}

func newConfigErr(key MethodKey, format string, args ...interface{}) *ConfigurationError {
	return &ConfigurationError{Key: key, Reason: fmt.Sprintf(format, args...)}
}

// UnsupportedOperationError reports an operation that is well-formed but not
// meaningful for the target it was applied to: an async adapter applied to
// a synchronous method, or Apply called directly on a bundle.
type UnsupportedOperationError struct {
	Reason string
}

func (e *UnsupportedOperationError) Error() string {
	return "aop: unsupported operation: " + e.Reason
}

func newUnsupportedErr(format string, args ...interface{}) *UnsupportedOperationError {
	return &UnsupportedOperationError{Reason: fmt.Sprintf(format, args...)}
}

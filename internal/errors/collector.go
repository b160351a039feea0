package errors

import (
	"fmt"
	"strings"
	"sync"
)

// ErrorCollector accumulates errors across a whole manifest or validation
// pass so callers can report every problem at once instead of stopping at
// the first.
type ErrorCollector struct {
	errors []error
	mutex  sync.RWMutex
}

// NewErrorCollector creates a new error collector.
func NewErrorCollector() *ErrorCollector {
	return &ErrorCollector{
		errors: make([]error, 0),
	}
}

// Add adds an error to the collector. Nil errors are ignored.
func (ec *ErrorCollector) Add(err error) {
	if err == nil {
		return
	}
	ec.mutex.Lock()
	defer ec.mutex.Unlock()
	ec.errors = append(ec.errors, err)
}

// Addf adds a formatted validation error.
func (ec *ErrorCollector) Addf(code, format string, args ...interface{}) {
	ec.Add(NewValidationError(code, fmt.Sprintf(format, args...)))
}

// Errors returns a copy of all collected errors.
func (ec *ErrorCollector) Errors() []error {
	ec.mutex.RLock()
	defer ec.mutex.RUnlock()

	result := make([]error, len(ec.errors))
	copy(result, ec.errors)
	return result
}

// HasErrors reports whether anything was collected.
func (ec *ErrorCollector) HasErrors() bool {
	ec.mutex.RLock()
	defer ec.mutex.RUnlock()
	return len(ec.errors) > 0
}

// Err returns nil if nothing was collected, otherwise a single error
// aggregating every collected message.
func (ec *ErrorCollector) Err() error {
	ec.mutex.RLock()
	defer ec.mutex.RUnlock()

	if len(ec.errors) == 0 {
		return nil
	}

	messages := make([]string, len(ec.errors))
	for i, err := range ec.errors {
		messages[i] = err.Error()
	}
	return fmt.Errorf("%d error(s): %s", len(ec.errors), strings.Join(messages, "; "))
}

// Reset clears the collector.
func (ec *ErrorCollector) Reset() {
	ec.mutex.Lock()
	defer ec.mutex.Unlock()
	ec.errors = ec.errors[:0]
}

package main

import "fmt"

// ServiceError is the unified error type for service-level failures.
type ServiceError struct {
	Service   string // service name
	Operation string // operation name
	Err       error  // underlying error
}

// Error returns the formatted message: [Service.Operation] error message
func (e *ServiceError) Error() string {
	return fmt.Sprintf("[%s.%s] %v", e.Service, e.Operation, e.Err)
}

// Unwrap returns the underlying error so errors.Is/errors.As keep working.
func (e *ServiceError) Unwrap() error {
	return e.Err
}

// WrapError attaches service context to an error. Returns nil if err is nil.
func WrapError(service, operation string, err error) error {
	if err == nil {
		return nil
	}
	return &ServiceError{Service: service, Operation: operation, Err: err}
}

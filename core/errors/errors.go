// Package errors provides the error taxonomy shared by the tree builder,
// the schema classifier and the label resolver.
package errors

import (
	"errors"
	"fmt"
)

// Sentinel errors for common cases
var (
	// ErrNotFound indicates a document or element was not found
	ErrNotFound = errors.New("not found")
	// ErrInvalidInput indicates invalid input or validation failure
	ErrInvalidInput = errors.New("invalid input")
	// ErrInternal indicates an internal system error
	ErrInternal = errors.New("internal error")

	// ErrConstruction marks a fatal failure while building the presentation tree
	ErrConstruction = errors.New("tree construction failed")
	// ErrClassification marks a fatal failure of the schema classification pass
	ErrClassification = errors.New("classification failed")
	// ErrLabelResolution marks a fatal failure of the label resolution pass
	ErrLabelResolution = errors.New("label resolution failed")
)

// NotFoundError represents a resource not found error with context
type NotFoundError struct {
	Resource string // Type of resource (e.g., "document", "element", "group")
	ID       string // Identifier or locator of the resource
	Err      error  // Underlying error, if any
}

func (e *NotFoundError) Error() string {
	if e.ID != "" {
		return fmt.Sprintf("%s not found: %s", e.Resource, e.ID)
	}
	return fmt.Sprintf("%s not found", e.Resource)
}

func (e *NotFoundError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return ErrNotFound
}

// Is lets errors.Is match ErrNotFound even when a cause is wrapped.
func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// ValidationError represents an input validation error with context
type ValidationError struct {
	Field   string // Field name that failed validation
	Value   string // Value that failed validation
	Message string // Human-readable error message
	Err     error  // Underlying error, if any
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation failed for %s: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation failed: %s", e.Message)
}

func (e *ValidationError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return ErrInvalidInput
}

// IOError represents an I/O operation error with context
type IOError struct {
	Operation string // Operation being performed (e.g., "read", "write", "open")
	Path      string // File/resource path involved
	Err       error  // Underlying error
}

func (e *IOError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("failed to %s %s: %v", e.Operation, e.Path, e.Err)
	}
	return fmt.Sprintf("failed to %s: %v", e.Operation, e.Err)
}

func (e *IOError) Unwrap() error {
	return e.Err
}

// ParseError represents a parsing or deserialization error
type ParseError struct {
	Format  string // Format being parsed (e.g., "XML", "order", "config")
	Path    string // Locator, if applicable
	Message string // Error details
	Err     error  // Underlying error, if any
}

func (e *ParseError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("failed to parse %s at %s: %s", e.Format, e.Path, e.Message)
	}
	return fmt.Sprintf("failed to parse %s: %s", e.Format, e.Message)
}

func (e *ParseError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return ErrInvalidInput
}

// ConstructionError aborts a tree build. No partial tree accompanies it.
type ConstructionError struct {
	Locator    string // Presentation linkbase locator
	Role       string // Presentation link role, if known
	Identifier string // Linkage identifier or fragment involved
	Reason     string
	Err        error
}

func (e *ConstructionError) Error() string {
	msg := "build tree"
	if e.Locator != "" {
		msg += " " + e.Locator
	}
	if e.Role != "" {
		msg += " (" + e.Role + ")"
	}
	msg += ": " + e.Reason
	if e.Identifier != "" {
		msg += ": " + e.Identifier
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ConstructionError) Unwrap() []error {
	if e.Err != nil {
		return []error{ErrConstruction, e.Err}
	}
	return []error{ErrConstruction}
}

// ClassificationError reports a node the usage table cannot place, or whose
// schema definition could not be read.
type ClassificationError struct {
	Locator           string
	FragmentID        string
	Name              string
	Type              string
	SubstitutionGroup string
	Abstract          string
	Reason            string
	Err               error
}

func (e *ClassificationError) Error() string {
	msg := fmt.Sprintf("classify %s#%s: %s", e.Locator, e.FragmentID, e.Reason)
	if e.Name != "" || e.Type != "" {
		msg += fmt.Sprintf(" (name=%s type=%s substitutionGroup=%s abstract=%s)",
			e.Name, e.Type, e.SubstitutionGroup, e.Abstract)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ClassificationError) Unwrap() []error {
	if e.Err != nil {
		return []error{ErrClassification, e.Err}
	}
	return []error{ErrClassification}
}

// LabelError reports a node for which no governing label linkbase exists.
type LabelError struct {
	Locator    string // Schema locator of the node
	FragmentID string
	Reason     string
	Err        error
}

func (e *LabelError) Error() string {
	msg := fmt.Sprintf("resolve label %s#%s: %s", e.Locator, e.FragmentID, e.Reason)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *LabelError) Unwrap() []error {
	if e.Err != nil {
		return []error{ErrLabelResolution, e.Err}
	}
	return []error{ErrLabelResolution}
}

// Helper functions for creating common errors

// NewNotFound creates a NotFoundError
func NewNotFound(resource, id string) *NotFoundError {
	return &NotFoundError{
		Resource: resource,
		ID:       id,
	}
}

// NewValidation creates a ValidationError
func NewValidation(field, message string) *ValidationError {
	return &ValidationError{
		Field:   field,
		Message: message,
	}
}

// NewIO creates an IOError
func NewIO(operation, path string, err error) *IOError {
	return &IOError{
		Operation: operation,
		Path:      path,
		Err:       err,
	}
}

// Wrapf adds formatted context to an error. If err is nil, returns nil.
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	message := fmt.Sprintf(format, args...)
	return fmt.Errorf("%s: %w", message, err)
}

// Is wraps errors.Is for convenience
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As wraps errors.As for convenience
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}

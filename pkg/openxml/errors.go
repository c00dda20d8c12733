package openxml

import (
	"errors"
	"fmt"
	"strings"

	"github.com/benjaminschreck/go-openxml/pkg/openxml/archive"
	"github.com/benjaminschreck/go-openxml/pkg/openxml/parts"
	"github.com/benjaminschreck/go-openxml/pkg/openxml/store"
	"github.com/benjaminschreck/go-openxml/pkg/openxml/xml"
)

// ErrPackageClosed is returned by every operation on a closed Package.
var ErrPackageClosed = errors.New("openxml: package closed")

// Errors of the core packages, re-exported so callers can test them
// without importing every subpackage.
var (
	ErrStoreInit           = store.ErrStoreInit
	ErrStoreClosed         = store.ErrClosed
	ErrArchiveRead         = archive.ErrArchiveRead
	ErrArchiveWrite        = archive.ErrArchiveWrite
	ErrMalformedXML        = xml.ErrMalformedXML
	ErrSerializeLoopSafety = xml.ErrSerializeLoopSafety
	ErrElementNotFound     = xml.ErrElementNotFound
	ErrParentNotFound      = xml.ErrParentNotFound
	ErrRootExists          = xml.ErrRootExists
	ErrPartInUse           = parts.ErrPartInUse
	ErrPartClosed          = parts.ErrPartClosed
	ErrInvalidPart         = parts.ErrInvalidPart
)

// OperationError represents a failure of a package-level operation
type OperationError struct {
	Operation string
	Part      string
	Cause     error
}

func (e *OperationError) Error() string {
	if e.Part != "" && e.Cause != nil {
		return fmt.Sprintf("openxml: %s of '%s': %v", e.Operation, e.Part, e.Cause)
	}
	if e.Part != "" {
		return fmt.Sprintf("openxml: %s of '%s'", e.Operation, e.Part)
	}
	if e.Cause != nil {
		return fmt.Sprintf("openxml: %s: %v", e.Operation, e.Cause)
	}
	return fmt.Sprintf("openxml: %s failed", e.Operation)
}

func (e *OperationError) Unwrap() error {
	return e.Cause
}

// NewOperationError creates a new operation error. It returns nil when
// cause is nil.
func NewOperationError(operation, part string, cause error) error {
	if cause == nil {
		return nil
	}
	return &OperationError{
		Operation: operation,
		Part:      part,
		Cause:     cause,
	}
}

// ValidationIssue represents a single configuration problem
type ValidationIssue struct {
	Field   string
	Message string
}

// ValidationError collects every issue found by Config.Validate
type ValidationError struct {
	Issues []ValidationIssue
}

func (e *ValidationError) Error() string {
	if len(e.Issues) == 0 {
		return "validation error"
	}

	if len(e.Issues) == 1 {
		return fmt.Sprintf("validation error: %s - %s", e.Issues[0].Field, e.Issues[0].Message)
	}

	var lines []string
	lines = append(lines, fmt.Sprintf("%d validation issues:", len(e.Issues)))
	for _, issue := range e.Issues {
		lines = append(lines, fmt.Sprintf("  %s: %s", issue.Field, issue.Message))
	}
	return strings.Join(lines, "\n")
}

func (e *ValidationError) add(field, format string, args ...any) {
	e.Issues = append(e.Issues, ValidationIssue{Field: field, Message: fmt.Sprintf(format, args...)})
}

func (e *ValidationError) err() error {
	if len(e.Issues) == 0 {
		return nil
	}
	return e
}

// IsOperationError checks if an error is an operation error
func IsOperationError(err error) bool {
	var target *OperationError
	return errors.As(err, &target)
}

// IsValidationError checks if an error is a configuration validation error
func IsValidationError(err error) bool {
	var target *ValidationError
	return errors.As(err, &target)
}

// IsMalformed checks if an error reports unparsable XML
func IsMalformed(err error) bool {
	return errors.Is(err, xml.ErrMalformedXML)
}

// IsClosed checks if an error comes from using a closed package, store or part
func IsClosed(err error) bool {
	return errors.Is(err, ErrPackageClosed) || errors.Is(err, store.ErrClosed) || errors.Is(err, parts.ErrPartClosed)
}

// IsArchiveError checks if an error comes from reading or writing the ZIP container
func IsArchiveError(err error) bool {
	return errors.Is(err, archive.ErrArchiveRead) || errors.Is(err, archive.ErrArchiveWrite)
}

// IsInvalidPart checks if an error reports a part with unexpected structure
func IsInvalidPart(err error) bool {
	return errors.Is(err, parts.ErrInvalidPart)
}

// IsPartInUse checks if an error reports a second controller for an open part
func IsPartInUse(err error) bool {
	return errors.Is(err, parts.ErrPartInUse)
}

package model

import "fmt"

// ErrorKind classifies ingestion failures.
type ErrorKind int

const (
	// FileNotAccessible: source missing or permission denied.
	FileNotAccessible ErrorKind = iota + 1
	// FileLocked: transient lock or IO error, retryable.
	FileLocked
	// ParseError: file opened but content malformed.
	ParseError
	// RowMappingError: a single row was skipped.
	RowMappingError
)

func (k ErrorKind) String() string {
	switch k {
	case FileNotAccessible:
		return "file_not_accessible"
	case FileLocked:
		return "file_locked"
	case ParseError:
		return "parse_error"
	case RowMappingError:
		return "row_mapping_error"
	default:
		return "unknown"
	}
}

// Retryable reports whether the loader should try again.
func (k ErrorKind) Retryable() bool {
	return k == FileLocked
}

// LoadError is the failure descriptor of a load attempt.
type LoadError struct {
	Kind     ErrorKind
	Role     Role
	File     string
	Attempts int
	Err      error
}

func (e *LoadError) Error() string {
	if e.Attempts > 1 {
		return fmt.Sprintf("%s %s (%s, %d attempts): %v", e.Role, e.File, e.Kind, e.Attempts, e.Err)
	}
	return fmt.Sprintf("%s %s (%s): %v", e.Role, e.File, e.Kind, e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

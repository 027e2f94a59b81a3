package errors

import (
	"errors"
	"fmt"
	"os"

	"github.com/julianstephens/salah/internal/logger"
)

var (
	// ErrStorageRead is returned when the persisted record is absent or
	// unparseable. Callers recover with a fresh default record.
	ErrStorageRead = errors.New("failed to read stored record")
	// ErrStorageWrite is returned when persisting the record fails. The
	// in-memory record stays authoritative for the session.
	ErrStorageWrite = errors.New("failed to write stored record")
	// ErrImportValidation is returned when an import payload is not a record
	// object. Nothing is applied.
	ErrImportValidation = errors.New("import failed: invalid record JSON")
	// ErrRemoteUnavailable is returned when the remote store cannot be
	// reached or no user id is configured. Local state is unaffected.
	ErrRemoteUnavailable = errors.New("remote store unavailable")
)

// Format formats an error message with a consistent "Error: " prefix
func Format(err error) string {
	if err == nil {
		return ""
	}
	return fmt.Sprintf("Error: %v", err)
}

// Formatf formats an error message with a consistent "Error: " prefix using a format string
func Formatf(format string, args ...interface{}) string {
	return fmt.Sprintf("Error: "+format, args...)
}

// IsRecoverable reports whether err only degrades the session (storage
// trouble) rather than failing the user's request.
func IsRecoverable(err error) bool {
	return errors.Is(err, ErrStorageRead) || errors.Is(err, ErrStorageWrite)
}

// Fatal logs an error and exits the program with exit code 1
func Fatal(err error) {
	if err != nil {
		logger.Error("Command execution failed", "error", err)
		fmt.Fprintf(os.Stderr, "%s\n", Format(err))
		os.Exit(1)
	}
}

// Fatalf logs and formats an error message, then exits the program with exit code 1
func Fatalf(format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	logger.Error("Command execution failed", "error", msg)
	fmt.Fprintf(os.Stderr, "%s\n", Formatf(format, args...))
	os.Exit(1)
}

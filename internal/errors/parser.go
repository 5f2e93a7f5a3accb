package errors

import (
	"errors"
	"strings"

	"github.com/lib/pq"
	"gorm.io/gorm"
)

// ErrorInfo carries a parsed error code and message
type ErrorInfo struct {
	Code    string
	Message string
}

// Postgres error classes we map explicitly.
const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
	pgNotNullViolation    = "23502"
	pgCheckViolation      = "23514"
)

// ParseError converts a storage error into a user-safe code and
// message. Driver detail stays in the logs; responses never carry raw
// constraint or connection information.
func ParseError(err error, context string) ErrorInfo {
	if err == nil {
		return ErrorInfo{Code: InternalServerError, Message: "An internal error occurred"}
	}

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrorInfo{Code: ResourceNotFound, Message: notFoundMessage(context)}
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return parsePostgresError(string(pqErr.Code), pqErr.Constraint, context)
	}

	// The postgres gorm driver reports constraint violations without a
	// pq.Error type; fall back to message inspection.
	errStr := strings.ToLower(err.Error())
	switch {
	case strings.Contains(errStr, "duplicate key") || strings.Contains(errStr, "unique constraint"):
		return parsePostgresError(pgUniqueViolation, errStr, context)
	case strings.Contains(errStr, "foreign key constraint"):
		return parsePostgresError(pgForeignKeyViolation, errStr, context)
	case strings.Contains(errStr, "violates not-null constraint"):
		return parsePostgresError(pgNotNullViolation, errStr, context)
	case strings.Contains(errStr, "check constraint"):
		return parsePostgresError(pgCheckViolation, errStr, context)
	case strings.Contains(errStr, "connection refused"),
		strings.Contains(errStr, "no such host"),
		strings.Contains(errStr, "timeout"):
		return ErrorInfo{
			Code:    InternalExternalAPI,
			Message: "A dependent service is unavailable. Please try again later",
		}
	}

	return ErrorInfo{Code: InternalServerError, Message: "An internal error occurred. Please try again later"}
}

func parsePostgresError(code, detail, context string) ErrorInfo {
	detail = strings.ToLower(detail)

	switch code {
	case pgUniqueViolation:
		if strings.Contains(detail, "email") {
			return ErrorInfo{Code: AuthEmailAlreadyExists, Message: "This email is already registered"}
		}
		return ErrorInfo{Code: ResourceAlreadyExists, Message: "This record already exists"}

	case pgForeignKeyViolation:
		if strings.Contains(detail, "still referenced") {
			return ErrorInfo{Code: ResourceConflict, Message: "This record is still in use and cannot be deleted"}
		}
		if strings.Contains(detail, "user_id") {
			return ErrorInfo{Code: ResourceNotFound, Message: "The referenced user does not exist"}
		}
		if strings.Contains(detail, "resume_id") {
			return ErrorInfo{Code: ResumeNotFound, Message: "The referenced resume does not exist"}
		}
		return ErrorInfo{Code: ResourceNotFound, Message: "A referenced record does not exist"}

	case pgNotNullViolation:
		return ErrorInfo{Code: ValidationRequired, Message: "A required field is missing"}

	case pgCheckViolation:
		return ErrorInfo{Code: ValidationInvalidInput, Message: "Invalid input"}
	}

	return ErrorInfo{Code: InternalDatabaseError, Message: defaultMessage(context)}
}

func notFoundMessage(context string) string {
	contextLower := strings.ToLower(context)

	switch {
	case strings.Contains(contextLower, "resume"):
		return "Resume not found"
	case strings.Contains(contextLower, "user"):
		return "User not found"
	case strings.Contains(contextLower, "file"):
		return "File not found"
	}
	return "The requested record was not found"
}

func defaultMessage(context string) string {
	contextLower := strings.ToLower(context)

	switch {
	case strings.Contains(contextLower, "create"):
		return "Failed to create the record. Please try again later"
	case strings.Contains(contextLower, "update"):
		return "Failed to update the record. Please try again later"
	case strings.Contains(contextLower, "delete"):
		return "Failed to delete the record. Please try again later"
	}
	return "An internal error occurred. Please try again later"
}

// ParseAndRespond parses an error and writes the response in one call
func ParseAndRespond(c interface{ JSON(int, interface{}) }, statusCode int, err error, context string) {
	errorInfo := ParseError(err, context)
	c.JSON(statusCode, ErrorResponse{
		Error:   errorInfo.Code,
		Message: errorInfo.Message,
	})
}

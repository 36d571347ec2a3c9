// Package domainerr is the error taxonomy of the IAM core (spec.md §7).
// Every error a service method can return is one of these typed wrappers;
// low-level errors (pgx, grpc, jwk fetch failures) are translated into one
// of them at the repository/adapter boundary and never leak past it. The
// shape mirrors the teacher's common/errors.go wrapper-struct-per-kind
// convention.
package domainerr

import (
	"fmt"
	"strings"
)

// InvariantViolation records a domain rule broken inside an aggregate.
// Never retried; surfaced as 4xx.
type InvariantViolation struct {
	EntityType string
	Code       string
	Title      string
	Message    string
	Err        error
}

func (e InvariantViolation) Error() string { return e.Message }
func (e InvariantViolation) Unwrap() error { return e.Err }

// NewInvariantViolation builds an InvariantViolation for entityType.
func NewInvariantViolation(entityType, message string) InvariantViolation {
	return InvariantViolation{
		EntityType: entityType,
		Code:       InvariantViolationBusinessError.Error(),
		Title:      "Invariant Violation",
		Message:    message,
	}
}

// DuplicateName records a unique-constraint violation on an entity name.
// Surfaced as 409.
type DuplicateName struct {
	EntityType string
	Code       string
	Title      string
	Message    string
	Err        error
}

func (e DuplicateName) Error() string { return e.Message }
func (e DuplicateName) Unwrap() error { return e.Err }

// NewDuplicateName builds a DuplicateName for entityType/name.
func NewDuplicateName(entityType, name string) DuplicateName {
	return DuplicateName{
		EntityType: entityType,
		Code:       DuplicateNameBusinessError.Error(),
		Title:      "Duplicate Name",
		Message:    fmt.Sprintf("%s with name %q already exists", entityType, name),
	}
}

// Unauthenticated records a missing or invalid credential. 401.
type Unauthenticated struct {
	Code    string
	Title   string
	Message string
	Reason  string
	Err     error
}

func (e Unauthenticated) Error() string { return e.Message }
func (e Unauthenticated) Unwrap() error { return e.Err }

// NewUnauthenticated builds an Unauthenticated with a stable reason code
// (e.g. "expired", "invalid_audience", "api_key_verification_failed").
func NewUnauthenticated(reason, message string) Unauthenticated {
	return Unauthenticated{
		Code:    UnauthenticatedBusinessError.Error(),
		Title:   "Unauthenticated",
		Message: message,
		Reason:  reason,
	}
}

// Forbidden records a valid principal with insufficient permission. 403.
type Forbidden struct {
	Code    string
	Title   string
	Message string
	Err     error
}

func (e Forbidden) Error() string { return e.Message }
func (e Forbidden) Unwrap() error { return e.Err }

// NewForbidden builds a Forbidden error. The message never leaks the
// specific permission check that failed.
func NewForbidden(message string) Forbidden {
	return Forbidden{
		Code:    ForbiddenBusinessError.Error(),
		Title:   "Forbidden",
		Message: message,
	}
}

// TenantContextMissing records a multi-tenant request with no resolvable
// tenant. 400.
type TenantContextMissing struct {
	Code    string
	Title   string
	Message string
}

func (e TenantContextMissing) Error() string { return e.Message }

func NewTenantContextMissing() TenantContextMissing {
	return TenantContextMissing{
		Code:    TenantContextMissingBusinessError.Error(),
		Title:   "Tenant Context Missing",
		Message: "no tenant could be resolved for this request",
	}
}

// NotFound records an absent entity. 404.
type NotFound struct {
	EntityType string
	Code       string
	Title      string
	Message    string
	Err        error
}

func (e NotFound) Error() string {
	if strings.TrimSpace(e.Message) != "" {
		return e.Message
	}

	return fmt.Sprintf("%s not found", e.EntityType)
}

func (e NotFound) Unwrap() error { return e.Err }

func NewNotFound(entityType string) NotFound {
	return NotFound{
		EntityType: entityType,
		Code:       NotFoundBusinessError.Error(),
		Title:      "Not Found",
		Message:    fmt.Sprintf("%s not found", entityType),
	}
}

// AuthorizationEngineError records a rejected or timed-out write to the
// external authorization engine. Retried with backoff by the outbox
// worker; quarantined after MAX_ATTEMPTS.
type AuthorizationEngineError struct {
	Code      string
	Title     string
	Message   string
	Permanent bool
	Err       error
}

func (e AuthorizationEngineError) Error() string { return e.Message }
func (e AuthorizationEngineError) Unwrap() error { return e.Err }

func NewAuthorizationEngineError(cause error, permanent bool) AuthorizationEngineError {
	return AuthorizationEngineError{
		Code:      AuthorizationEngineErrorBusinessErr.Error(),
		Title:     "Authorization Engine Error",
		Message:   cause.Error(),
		Permanent: permanent,
		Err:       cause,
	}
}

// RelationalTransient records a recoverable database failure: connection
// loss, deadlock, serialization failure. Retried at the worker level.
type RelationalTransient struct {
	Code    string
	Title   string
	Message string
	Err     error
}

func (e RelationalTransient) Error() string { return e.Message }
func (e RelationalTransient) Unwrap() error { return e.Err }

func NewRelationalTransient(cause error) RelationalTransient {
	return RelationalTransient{
		Code:    RelationalTransientBusinessError.Error(),
		Title:   "Relational Transient Error",
		Message: cause.Error(),
		Err:     cause,
	}
}

// JWKSFetchFailed records an inability to fetch the issuer's key set.
// Surfaced as 401 since no token can be verified without it.
type JWKSFetchFailed struct {
	Code    string
	Title   string
	Message string
	Err     error
}

func (e JWKSFetchFailed) Error() string { return e.Message }
func (e JWKSFetchFailed) Unwrap() error { return e.Err }

func NewJWKSFetchFailed(cause error) JWKSFetchFailed {
	return JWKSFetchFailed{
		Code:    JWKSFetchFailedBusinessError.Error(),
		Title:   "JWKS Fetch Failed",
		Message: cause.Error(),
		Err:     cause,
	}
}

// InternalServer is the catch-all for anything that isn't one of the
// taxonomy kinds above. Client-facing messages never include err's text.
type InternalServer struct {
	EntityType string
	Code       string
	Title      string
	Message    string
	Err        error
}

func (e InternalServer) Error() string { return e.Message }
func (e InternalServer) Unwrap() error { return e.Err }

func ValidateInternalError(err error, entityType string) InternalServer {
	return InternalServer{
		EntityType: entityType,
		Code:       InternalServerBusinessError.Error(),
		Title:      "Internal Server Error",
		Message:    "the server encountered an unexpected error",
		Err:        err,
	}
}

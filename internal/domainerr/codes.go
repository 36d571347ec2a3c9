package domainerr

import "errors"

// Sentinel business-error codes, one per taxonomy kind from spec.md §7.
// Mirrors the teacher's sentinel-string-code convention
// (common/constant/errors.go's errors.New("0001")...) adapted to this
// service's own numbering.
var (
	InvariantViolationBusinessError      = errors.New("IAM-0001")
	DuplicateNameBusinessError           = errors.New("IAM-0002")
	UnauthenticatedBusinessError         = errors.New("IAM-0003")
	ForbiddenBusinessError               = errors.New("IAM-0004")
	TenantContextMissingBusinessError    = errors.New("IAM-0005")
	NotFoundBusinessError                = errors.New("IAM-0006")
	AuthorizationEngineErrorBusinessErr  = errors.New("IAM-0007")
	RelationalTransientBusinessError     = errors.New("IAM-0008")
	JWKSFetchFailedBusinessError         = errors.New("IAM-0009")
	InternalServerBusinessError          = errors.New("IAM-0010")
	UnknownEventTypeBusinessError        = errors.New("IAM-0011")
)

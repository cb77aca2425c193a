package domain

import "errors"

var (
	// ErrUnsupportedFormat covers both a declared content type outside the
	// allow-list and a sniffed format outside the supported set, including
	// HEIC/HEIF detected by either signal.
	ErrUnsupportedFormat = errors.New("unsupported image format")

	// ErrReceivedTooLarge means the raw upload exceeded the pre-decode
	// byte ceiling. Checked before any decode work.
	ErrReceivedTooLarge = errors.New("received image too large")

	// ErrDecodeFailed means the bytes passed sniffing but could not be
	// parsed as the sniffed format (corrupt data).
	ErrDecodeFailed = errors.New("image decode failed")

	// ErrCompressionBudgetExceeded means every ladder step was tried and
	// none produced an encoding within the byte budget.
	ErrCompressionBudgetExceeded = errors.New("compression budget exceeded")

	// ErrStoragePathViolation means a storage key resolved to a path
	// outside the storage root. Unreachable for keys this system mints;
	// enforced defensively anyway.
	ErrStoragePathViolation = errors.New("storage path escapes storage root")

	ErrNotFound      = errors.New("not found")
	ErrUnknownOwner  = errors.New("unknown owner")
	ErrLimitExceeded = errors.New("owner image limit exceeded")
)

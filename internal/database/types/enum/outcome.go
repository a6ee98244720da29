package enum

// OutcomeCode classifies the result of an engine operation.
//
//go:generate go tool enumer -type=OutcomeCode -trimprefix=OutcomeCode -transform=snake -json
type OutcomeCode int

const (
	// OutcomeCodeOK means the operation committed or was an idempotent no-op.
	OutcomeCodeOK OutcomeCode = iota
	// OutcomeCodeNotFound means a referenced bias, user, group or target does not exist.
	OutcomeCodeNotFound
	// OutcomeCodeForbidden means the caller is not allowed to perform the operation.
	OutcomeCodeForbidden
	// OutcomeCodeInvalid means the request is malformed.
	OutcomeCodeInvalid
	// OutcomeCodeConflict means contention persisted after all retries.
	OutcomeCodeConflict
	// OutcomeCodeCanceled means the caller gave up before commit.
	OutcomeCodeCanceled
	// OutcomeCodeInternal covers unexpected storage failures.
	OutcomeCodeInternal
)

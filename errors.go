package ecscore

import "fmt"

// ErrorCode is the public, stable error enumeration from spec.md §6.
type ErrorCode int32

const (
	Succeed                 ErrorCode = 0
	ErrEntityExpired        ErrorCode = -1
	ErrComponentExists      ErrorCode = -2
	ErrComponentNotExists   ErrorCode = -3
	ErrInvalidArchetype     ErrorCode = -4
	ErrArchetypeOverflow    ErrorCode = -5
	ErrIndexOverflow        ErrorCode = -6
)

func (c ErrorCode) String() string {
	switch c {
	case Succeed:
		return "succeed"
	case ErrEntityExpired:
		return "entity_expired"
	case ErrComponentExists:
		return "component_already_exists"
	case ErrComponentNotExists:
		return "component_not_exists"
	case ErrInvalidArchetype:
		return "invalid_archetype"
	case ErrArchetypeOverflow:
		return "archetype_count_overflow"
	case ErrIndexOverflow:
		return "index_overflow"
	default:
		return "unknown_error_code"
	}
}

// CoreError wraps one of the ErrorCode constants with a descriptive cause.
// Input-validation, lifecycle, and capacity failures (spec.md §7) are all
// reported this way — "not found" on a get-style lookup is never one of
// these, it is a nil/zero return instead.
type CoreError struct {
	Code ErrorCode
	Err  error
}

func (e *CoreError) Error() string {
	if e.Err == nil {
		return e.Code.String()
	}
	return fmt.Sprintf("%s: %v", e.Code, e.Err)
}

func (e *CoreError) Unwrap() error {
	return e.Err
}

// LogicError marks a programmer-bug class failure (hive double-free,
// bitset out-of-range) as distinct from the recoverable CoreError kinds.
// Low-level primitives return it locally; higher layers (e.g. refstore)
// may choose to panic on it in debug builds and merely log it in release,
// per spec.md §7's propagation policy.
type LogicError struct {
	msg string
}

func (e *LogicError) Error() string {
	return e.msg
}

func newLogicError(format string, args ...any) *LogicError {
	return &LogicError{msg: fmt.Sprintf(format, args...)}
}

// ErrIndexOutOfRange is returned by DynamicBitset accessors when an index
// falls outside the bitset's current size.
var ErrIndexOutOfRange = newLogicError("index out of range")

// ErrDoubleFree is returned by Hive.Destruct when called on an index that
// is not currently allocated.
var ErrDoubleFree = newLogicError("double free of hive slot")

var errAlreadyFinalized = fmt.Errorf("type descriptor already finalized")

func errNilFieldType(i int) error {
	return fmt.Errorf("field %d has a nil field type", i)
}

func errFieldOverflow(i int) error {
	return fmt.Errorf("field %d overflows the owning type's size", i)
}

func errFieldMisaligned(i int) error {
	return fmt.Errorf("field %d violates its type's alignment", i)
}

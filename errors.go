package hdrhistogram

import (
	stderrors "errors"

	"github.com/pingcap/errors"
)

// Kind identifies the class of failure reported by a *Error. Callers that
// need to branch on failure type should use the IsXxx helpers below rather
// than comparing errors directly, since every returned error is wrapped
// with call-site context via pingcap/errors.
type Kind int

const (
	// KindOutOfRange is returned when a value exceeds the configured
	// highest trackable value and the histogram is in discard mode.
	KindOutOfRange Kind = iota
	// KindOverflow is returned when incrementing a counter would exceed
	// the width of the underlying counts store.
	KindOverflow
	// KindDecodeTruncated is returned when a V2 payload ends mid-varint,
	// is shorter than the frame header or its declared payload length, or
	// starts with an unrecognized frame cookie.
	KindDecodeTruncated
	// KindDecodeValueOverflow is returned when a decoded count exceeds
	// the destination counts store's width, or a write index would run
	// past counts_len.
	KindDecodeValueOverflow
	// KindGeometryMismatch is returned by Add/Subtract when the
	// two histograms were not constructed with identical Geometry.
	KindGeometryMismatch
	// KindInvalidConfig is returned by New when the constructor
	// parameters cannot produce a valid Geometry.
	KindInvalidConfig
	// KindInvalidArgument is returned for malformed call-site arguments
	// that are not a function of histogram state (e.g. a negative count).
	KindInvalidArgument
)

func (k Kind) String() string {
	switch k {
	case KindOutOfRange:
		return "out_of_range"
	case KindOverflow:
		return "overflow"
	case KindDecodeTruncated:
		return "decode_truncated"
	case KindDecodeValueOverflow:
		return "decode_value_overflow"
	case KindGeometryMismatch:
		return "geometry_mismatch"
	case KindInvalidConfig:
		return "invalid_config"
	case KindInvalidArgument:
		return "invalid_argument"
	default:
		return "unknown"
	}
}

// sentinel causes, one per Kind, suitable for errors.Is comparisons via
// pingcap/errors' stdlib-compatible Cause unwrapping.
var (
	sentinelOutOfRange          = errors.New("hdrhistogram: value out of range")
	sentinelOverflow            = errors.New("hdrhistogram: counter overflow")
	sentinelDecodeTruncated     = errors.New("hdrhistogram: truncated varint stream")
	sentinelDecodeValueOverflow = errors.New("hdrhistogram: decoded value overflows destination")
	sentinelGeometryMismatch    = errors.New("hdrhistogram: geometry mismatch")
	sentinelInvalidConfig       = errors.New("hdrhistogram: invalid configuration")
	sentinelInvalidArgument     = errors.New("hdrhistogram: invalid argument")
	sentinelByKind              = map[Kind]error{
		KindOutOfRange:          sentinelOutOfRange,
		KindOverflow:            sentinelOverflow,
		KindDecodeTruncated:     sentinelDecodeTruncated,
		KindDecodeValueOverflow: sentinelDecodeValueOverflow,
		KindGeometryMismatch:    sentinelGeometryMismatch,
		KindInvalidConfig:       sentinelInvalidConfig,
		KindInvalidArgument:     sentinelInvalidArgument,
	}
)

// Error is the concrete error type returned by every fallible operation in
// this package. Use Kind() or the package-level IsXxx helpers to branch on
// failure class; use errors.Unwrap/errors.Is for interop with the standard
// library's error-chain tooling.
type Error struct {
	kind  Kind
	cause error
}

func newError(kind Kind, format string, args ...interface{}) error {
	sentinel := sentinelByKind[kind]
	return &Error{
		kind:  kind,
		cause: errors.Annotatef(sentinel, format, args...),
	}
}

// Kind reports the failure class of e.
func (e *Error) Kind() Kind { return e.kind }

func (e *Error) Error() string { return e.cause.Error() }

func (e *Error) Unwrap() error { return errors.Cause(e.cause) }

func (e *Error) Cause() error { return errors.Cause(e.cause) }

func kindOf(err error) (Kind, bool) {
	for err != nil {
		if herr, ok := err.(*Error); ok {
			return herr.kind, true
		}
		err = stderrors.Unwrap(err)
	}
	return 0, false
}

// IsOutOfRange reports whether err was produced by a discard-mode record
// call on a value exceeding the highest trackable value.
func IsOutOfRange(err error) bool { return kindIs(err, KindOutOfRange) }

// IsOverflow reports whether err was produced by a counter that would have
// exceeded its configured width.
func IsOverflow(err error) bool { return kindIs(err, KindOverflow) }

// IsDecodeTruncated reports whether err was produced by a V2 payload that
// ended before its header or declared length was consumed, or whose frame
// cookie was not recognized.
func IsDecodeTruncated(err error) bool { return kindIs(err, KindDecodeTruncated) }

// IsDecodeValueOverflow reports whether err was produced by a decoded
// count or index that does not fit the destination histogram.
func IsDecodeValueOverflow(err error) bool { return kindIs(err, KindDecodeValueOverflow) }

// IsGeometryMismatch reports whether err was produced by Add/Subtract on
// histograms with incompatible Geometry.
func IsGeometryMismatch(err error) bool { return kindIs(err, KindGeometryMismatch) }

// IsInvalidConfig reports whether err was produced by New with parameters
// that cannot form a valid Geometry.
func IsInvalidConfig(err error) bool { return kindIs(err, KindInvalidConfig) }

// IsInvalidArgument reports whether err was produced by a malformed
// call-site argument.
func IsInvalidArgument(err error) bool { return kindIs(err, KindInvalidArgument) }

func kindIs(err error, want Kind) bool {
	k, ok := kindOf(err)
	return ok && k == want
}

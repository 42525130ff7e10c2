package analytics

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidScope is returned when a scope is outside {vendor, admin}
	ErrInvalidScope = errors.New("invalid scope")

	// ErrAccessDenied is returned when scope, permission or ownership checks fail
	ErrAccessDenied = errors.New("access denied")

	// ErrInvalidTimeWindow is returned for missing, invalid or mismatched-shape timestamps
	ErrInvalidTimeWindow = errors.New("invalid time window")

	// ErrMissingCurrency is returned when a money metric has no currency
	ErrMissingCurrency = errors.New("missing currency")

	// ErrInvariantViolation covers taxonomy, shape and anchoring errors
	ErrInvariantViolation = errors.New("invariant violation")
)

// Violation codes. These are stable identifiers written to the audit log;
// do not rename them.
const (
	CodeUnknownMetric             = "unknown_metric"
	CodeMetricTypeMismatchMoney   = "metric_type_mismatch_money"
	CodeMetricTypeMismatchCount   = "metric_type_mismatch_count"
	CodeMissingCurrency           = "missing_currency"
	CodeInvalidCurrency           = "invalid_currency_code"
	CodeCurrencyNotAllowedOnCount = "currency_not_allowed_for_count_metric"
	CodeAnchoringNotApplicable    = "order_item_anchoring_not_applicable"

	CodeRangeMissingStart        = "range_missing_start"
	CodeRangeMissingEnd          = "range_missing_end"
	CodeRangeStartNotPositive    = "range_start_not_positive"
	CodeRangeEndNotPositive      = "range_end_not_positive"
	CodeRangeStartNotBeforeEnd   = "range_start_not_before_end"
	CodePointInTimeStartNotAllow = "point_in_time_start_not_allowed"
	CodePointInTimeMissingEnd    = "point_in_time_missing_end"
	CodePointInTimeEndNotPos     = "point_in_time_end_not_positive"

	CodeInvalidScope                = "invalid_scope"
	CodeNoAuthenticatedActor        = "no_authenticated_actor"
	CodeNoVendorStore               = "no_vendor_store_found"
	CodeStoreOwnershipLookupFailed  = "store_ownership_lookup_failed"
	CodeAdminPermissionRequired     = "admin_permission_required"
	CodePermissionLookupFailed      = "permission_lookup_failed"
	CodeVendorRequiresStore         = "vendor_scope_requires_at_least_one_store"
	CodeAdminMissingStoreIDs        = "admin_scope_missing_store_ids"
	CodeAdminInvalidStoreID         = "admin_scope_invalid_store_id"
	CodeAdminMissingEffectiveStores = "admin_scope_missing_effective_store_ids"
	CodeAdminStoreIDsMismatch       = "admin_scope_store_ids_mismatch"
)

// ViolationError is a fail-closed rejection carrying a stable code.
// Kind is one of the package sentinel errors and is matched by errors.Is.
type ViolationError struct {
	Kind    error
	Code    string
	Message string
}

func (e *ViolationError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%v: %s", e.Kind, e.Code)
	}
	return fmt.Sprintf("%v: %s (%s)", e.Kind, e.Message, e.Code)
}

// Unwrap returns the sentinel kind
func (e *ViolationError) Unwrap() error {
	return e.Kind
}

func newViolation(kind error, code, message string) *ViolationError {
	return &ViolationError{Kind: kind, Code: code, Message: message}
}

// ViolationCode extracts the violation code from err, or "" if err is not a violation
func ViolationCode(err error) string {
	var v *ViolationError
	if errors.As(err, &v) {
		return v.Code
	}
	return ""
}

// isInvariant reports whether a violation belongs to the developer-path class
func isInvariant(err error) bool {
	return errors.Is(err, ErrInvariantViolation)
}

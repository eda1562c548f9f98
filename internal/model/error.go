package model

// ErrorResponse represents a standardised error response.
type ErrorResponse struct {
	Error         string `json:"error"`
	Message       string `json:"message"`
	CorrelationID string `json:"correlationId,omitempty"`
}

// Standard error codes for API responses
const (
	ErrCodeInvalidJSON          = "INVALID_JSON"
	ErrCodeMissingField         = "MISSING_FIELD"
	ErrCodeInvalidDenomination  = "INVALID_DENOMINATION"
	ErrCodeNoVoucherAvailable   = "NO_VOUCHER_AVAILABLE"
	ErrCodeReservationHeld      = "RESERVATION_HELD"
	ErrCodeSourceUnavailable    = "SOURCE_UNAVAILABLE"
	ErrCodeInvalidOTP           = "INVALID_OTP"
	ErrCodePortalSessionMissing = "PORTAL_SESSION_MISSING"
	ErrCodeUnauthorised         = "UNAUTHORIZED"
	ErrCodeInternalError        = "INTERNAL_ERROR"
)

// DomainError carries a stable code alongside the operator-facing message.
type DomainError struct {
	Code    string
	Message string
}

func (e *DomainError) Error() string {
	return e.Message
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// Common domain errors
var (
	// ErrInvalidDenomination marks a requested face value outside the
	// canonical six-value set.
	ErrInvalidDenomination = NewDomainError(ErrCodeInvalidDenomination, "Denomination must be one of 15, 30, 40, 50, 100, 200")

	// ErrNoVoucherAvailable is the reportable "nothing to redeem" outcome,
	// not a fault: the requested denomination has no un-redeemed voucher.
	ErrNoVoucherAvailable = NewDomainError(ErrCodeNoVoucherAvailable, "No unused voucher of the requested denomination")

	// ErrReservationHeld rejects a second reservation while one is live.
	ErrReservationHeld = NewDomainError(ErrCodeReservationHeld, "A reservation is already held; confirm or release it first")

	// ErrSourceUnavailable distinguishes "could not check the source" from
	// "nothing new found".
	ErrSourceUnavailable = NewDomainError(ErrCodeSourceUnavailable, "Voucher source could not be reached")

	// ErrInvalidOTP is reported with a retry prompt and never corrupts
	// portal session state.
	ErrInvalidOTP = NewDomainError(ErrCodeInvalidOTP, "One-time code must be exactly 5 digits; please try again")

	// ErrPortalSessionMissing is returned when an OTP is submitted before a
	// portal challenge was started.
	ErrPortalSessionMissing = NewDomainError(ErrCodePortalSessionMissing, "No pending portal sign-in; start a portal scan first")
)

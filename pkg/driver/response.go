package driver

// Outcome is the single, mutually exclusive result of a driver call.
type Outcome int

const (
	// OutcomePending is the zero value; a response still being built.
	OutcomePending Outcome = iota
	// OutcomeComplete: funds confirmed taken (or returned, for refunds).
	OutcomeComplete
	// OutcomeProcessing: accepted but not yet confirmed.
	OutcomeProcessing
	// OutcomeFailed: the processor rejected the operation.
	OutcomeFailed
	// OutcomeRedirect: the customer must be sent elsewhere to continue.
	OutcomeRedirect
	// OutcomeSca: strong customer authentication is required first.
	OutcomeSca
)

func (o Outcome) String() string {
	switch o {
	case OutcomePending:
		return "PENDING"
	case OutcomeComplete:
		return "COMPLETE"
	case OutcomeProcessing:
		return "PROCESSING"
	case OutcomeFailed:
		return "FAILED"
	case OutcomeRedirect:
		return "REDIRECT"
	case OutcomeSca:
		return "SCA"
	}
	return "UNKNOWN"
}

// Error describes a processor rejection. Msg and Code are logged against
// the payment; User is safe to show to the customer.
type Error struct {
	Msg  string
	Code string
	User string
}

// ChargeResponse is the result of Driver.Charge. Drivers build it with the
// setters; once locked every setter is a no-op.
type ChargeResponse struct {
	locked  bool
	outcome Outcome

	txnID string
	fee   int64
	err   Error

	redirectURL      string
	redirectPostData map[string]string

	scaData string
	scaURL  string

	paymentRef string
	successURL string
	errorURL   string
}

func NewChargeResponse() *ChargeResponse {
	return &ChargeResponse{}
}

// Lock makes the response immutable. Called once, after the driver returns.
func (r *ChargeResponse) Lock() *ChargeResponse {
	r.locked = true
	return r
}

func (r *ChargeResponse) IsLocked() bool { return r.locked }

func (r *ChargeResponse) Outcome() Outcome   { return r.outcome }
func (r *ChargeResponse) IsComplete() bool   { return r.outcome == OutcomeComplete }
func (r *ChargeResponse) IsProcessing() bool { return r.outcome == OutcomeProcessing }
func (r *ChargeResponse) IsFailed() bool     { return r.outcome == OutcomeFailed }
func (r *ChargeResponse) IsRedirect() bool   { return r.outcome == OutcomeRedirect }
func (r *ChargeResponse) IsSca() bool        { return r.outcome == OutcomeSca }

func (r *ChargeResponse) SetComplete(txnID string, fee int64) *ChargeResponse {
	if !r.locked {
		r.outcome = OutcomeComplete
		r.txnID = txnID
		r.fee = fee
	}
	return r
}

func (r *ChargeResponse) SetProcessing(txnID string, fee int64) *ChargeResponse {
	if !r.locked {
		r.outcome = OutcomeProcessing
		r.txnID = txnID
		r.fee = fee
	}
	return r
}

func (r *ChargeResponse) SetFailed(msg, code, user string) *ChargeResponse {
	if !r.locked {
		r.outcome = OutcomeFailed
		r.err = Error{Msg: msg, Code: code, User: user}
		if r.err.User == "" {
			r.err.User = msg
		}
	}
	return r
}

// SetRedirect marks the response as a redirect flow. postData, when
// non-nil, must be POSTed to the URL rather than followed with a GET.
func (r *ChargeResponse) SetRedirect(url string, postData map[string]string) *ChargeResponse {
	if !r.locked {
		r.outcome = OutcomeRedirect
		r.redirectURL = url
		r.redirectPostData = postData
	}
	return r
}

// SetSca marks the response as requiring strong customer authentication.
// scaData is an opaque serialised blob the driver gets back on continuation.
func (r *ChargeResponse) SetSca(scaData string) *ChargeResponse {
	if !r.locked {
		r.outcome = OutcomeSca
		r.scaData = scaData
	}
	return r
}

// SetScaURL records the continuation URL computed by the charge core; it
// also populates the redirect fields so callers which have not considered
// SCA still function.
func (r *ChargeResponse) SetScaURL(url string) *ChargeResponse {
	if !r.locked {
		r.scaURL = url
		r.redirectURL = url
	}
	return r
}

func (r *ChargeResponse) SetPaymentRef(ref string) *ChargeResponse {
	if !r.locked {
		r.paymentRef = ref
	}
	return r
}

func (r *ChargeResponse) SetSuccessURL(url string) *ChargeResponse {
	if !r.locked {
		r.successURL = url
	}
	return r
}

func (r *ChargeResponse) SetErrorURL(url string) *ChargeResponse {
	if !r.locked {
		r.errorURL = url
	}
	return r
}

func (r *ChargeResponse) TransactionID() string               { return r.txnID }
func (r *ChargeResponse) Fee() int64                          { return r.fee }
func (r *ChargeResponse) Error() Error                        { return r.err }
func (r *ChargeResponse) RedirectURL() string                 { return r.redirectURL }
func (r *ChargeResponse) RedirectPostData() map[string]string { return r.redirectPostData }
func (r *ChargeResponse) ScaData() string                     { return r.scaData }
func (r *ChargeResponse) ScaURL() string                      { return r.scaURL }
func (r *ChargeResponse) PaymentRef() string                  { return r.paymentRef }
func (r *ChargeResponse) SuccessURL() string                  { return r.successURL }
func (r *ChargeResponse) ErrorURL() string                    { return r.errorURL }

// RefundResponse is the result of Driver.Refund.
type RefundResponse struct {
	locked  bool
	outcome Outcome
	txnID   string
	fee     int64
	err     Error
}

func NewRefundResponse() *RefundResponse {
	return &RefundResponse{}
}

func (r *RefundResponse) Lock() *RefundResponse {
	r.locked = true
	return r
}

func (r *RefundResponse) IsLocked() bool     { return r.locked }
func (r *RefundResponse) Outcome() Outcome   { return r.outcome }
func (r *RefundResponse) IsComplete() bool   { return r.outcome == OutcomeComplete }
func (r *RefundResponse) IsProcessing() bool { return r.outcome == OutcomeProcessing }
func (r *RefundResponse) IsFailed() bool     { return r.outcome == OutcomeFailed }

func (r *RefundResponse) SetComplete(txnID string, feeRefunded int64) *RefundResponse {
	if !r.locked {
		r.outcome = OutcomeComplete
		r.txnID = txnID
		r.fee = feeRefunded
	}
	return r
}

func (r *RefundResponse) SetProcessing(txnID string) *RefundResponse {
	if !r.locked {
		r.outcome = OutcomeProcessing
		r.txnID = txnID
	}
	return r
}

func (r *RefundResponse) SetFailed(msg, code, user string) *RefundResponse {
	if !r.locked {
		r.outcome = OutcomeFailed
		r.err = Error{Msg: msg, Code: code, User: user}
		if r.err.User == "" {
			r.err.User = msg
		}
	}
	return r
}

func (r *RefundResponse) TransactionID() string { return r.txnID }
func (r *RefundResponse) Fee() int64            { return r.fee }
func (r *RefundResponse) Error() Error          { return r.err }

// ScaResponse is the result of Driver.Sca. SCA continuations either
// complete, need another redirect hop, or fail.
type ScaResponse struct {
	locked      bool
	outcome     Outcome
	txnID       string
	fee         int64
	err         Error
	redirectURL string
}

func NewScaResponse() *ScaResponse {
	return &ScaResponse{}
}

func (r *ScaResponse) Lock() *ScaResponse {
	r.locked = true
	return r
}

func (r *ScaResponse) IsLocked() bool   { return r.locked }
func (r *ScaResponse) Outcome() Outcome { return r.outcome }
func (r *ScaResponse) IsComplete() bool { return r.outcome == OutcomeComplete }
func (r *ScaResponse) IsRedirect() bool { return r.outcome == OutcomeRedirect }
func (r *ScaResponse) IsFailed() bool   { return r.outcome == OutcomeFailed }

func (r *ScaResponse) SetComplete(txnID string, fee int64) *ScaResponse {
	if !r.locked {
		r.outcome = OutcomeComplete
		r.txnID = txnID
		r.fee = fee
	}
	return r
}

func (r *ScaResponse) SetRedirect(url string) *ScaResponse {
	if !r.locked {
		r.outcome = OutcomeRedirect
		r.redirectURL = url
	}
	return r
}

func (r *ScaResponse) SetFailed(msg, code, user string) *ScaResponse {
	if !r.locked {
		r.outcome = OutcomeFailed
		r.err = Error{Msg: msg, Code: code, User: user}
		if r.err.User == "" {
			r.err.User = msg
		}
	}
	return r
}

func (r *ScaResponse) TransactionID() string { return r.txnID }
func (r *ScaResponse) Fee() int64            { return r.fee }
func (r *ScaResponse) Error() Error          { return r.err }
func (r *ScaResponse) RedirectURL() string   { return r.redirectURL }

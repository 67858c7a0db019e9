package payments

// Gateway transaction statuses as reported by notifications and status pulls.
const (
	TransactionCapture    = "capture"
	TransactionSettlement = "settlement"
	TransactionPending    = "pending"
	TransactionDeny       = "deny"
	TransactionExpire     = "expire"
	TransactionCancel     = "cancel"
)

// Fraud assessment statuses attached to capture reports.
const (
	FraudAccept    = "accept"
	FraudChallenge = "challenge"
)

// StatusReport is the gateway's view of a transaction, delivered either by
// push notification or by an active status pull.
type StatusReport struct {
	OrderNumber       string `json:"order_id" validate:"required"`
	TransactionStatus string `json:"transaction_status" validate:"required"`
	FraudStatus       string `json:"fraud_status"`
	PaymentType       string `json:"payment_type"`
	TransactionID     string `json:"transaction_id"`
	StatusCode        string `json:"status_code"`
	GrossAmount       string `json:"gross_amount"`
	SignatureKey      string `json:"signature_key"`
}

// SessionResponse is the gateway's answer to a create-session call.
type SessionResponse struct {
	Token       string `json:"token"`
	RedirectURL string `json:"redirect_url"`
}

// ReconcileResult reports the lifecycle outcome of applying a status report.
type ReconcileResult struct {
	OrderNumber string `json:"order_number"`
	Status      string `json:"status"`
	BibNumber   string `json:"bib_number,omitempty"`
	Changed     bool   `json:"changed"`
}

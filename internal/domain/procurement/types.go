// Package procurement holds the wire types of the fraud scoring and procurement API.
package procurement

import "encoding/json"

// RiskLevel grades a fraud score.
type RiskLevel string

const (
	RiskLow      RiskLevel = "low"
	RiskMedium   RiskLevel = "medium"
	RiskHigh     RiskLevel = "high"
	RiskCritical RiskLevel = "critical"
)

// FraudDetectionRequest asks the scoring backend to evaluate one claim.
type FraudDetectionRequest struct {
	ClaimID       int64          `json:"claim_id"`
	VendorID      string         `json:"vendor_id"`
	Amount        float64        `json:"amount"`
	BudgetID      int64          `json:"budget_id"`
	AllocationID  int64          `json:"allocation_id"`
	InvoiceHash   string         `json:"invoice_hash"`
	DeputyID      string         `json:"deputy_id"`
	Area          string         `json:"area"`
	VendorHistory map[string]any `json:"vendor_history,omitempty"`
}

// FraudDetectionResponse is the scoring verdict for a claim.
type FraudDetectionResponse struct {
	ClaimID    int64     `json:"claim_id"`
	Score      float64   `json:"score"`
	RiskLevel  RiskLevel `json:"risk_level"`
	Flags      []string  `json:"flags"`
	Reasoning  string    `json:"reasoning"`
	Confidence float64   `json:"confidence"`
	Timestamp  string    `json:"timestamp"`
}

// Claim is a vendor payment claim held on the ledger.
type Claim struct {
	ClaimID              int64    `json:"claim_id"`
	Vendor               string   `json:"vendor"`
	Amount               float64  `json:"amount"`
	InvoiceHash          string   `json:"invoice_hash"`
	Deputy               string   `json:"deputy"`
	AIApproved           bool     `json:"ai_approved"`
	Flagged              bool     `json:"flagged"`
	Paid                 bool     `json:"paid"`
	EscrowTime           int64    `json:"escrow_time"`
	TotalPaidToSuppliers float64  `json:"total_paid_to_suppliers"`
	FraudScore           *float64 `json:"fraud_score,omitempty"`
	ChallengeCount       int      `json:"challenge_count"`
}

// ClaimSubmission is the body of a new claim.
type ClaimSubmission struct {
	Vendor      string   `json:"vendor"`
	Amount      float64  `json:"amount"`
	InvoiceHash string   `json:"invoice_hash"`
	Deputy      string   `json:"deputy"`
	AIApproved  bool     `json:"ai_approved"`
	Flagged     bool     `json:"flagged"`
	Paid        bool     `json:"paid"`
	FraudScore  *float64 `json:"fraud_score,omitempty"`
}

// Budget is a top-level budget line.
type Budget struct {
	BudgetID  int64   `json:"budget_id"`
	Amount    float64 `json:"amount"`
	Purpose   string  `json:"purpose"`
	Allocated float64 `json:"allocated"`
	Remaining float64 `json:"remaining"`
}

// FraudAlert is a ledger alert raised against a claim.
type FraudAlert struct {
	ClaimID     int64  `json:"claim_id"`
	AlertType   string `json:"alert_type"`
	Severity    string `json:"severity"`
	Description string `json:"description"`
	Timestamp   int64  `json:"timestamp"`
	Resolved    bool   `json:"resolved"`
}

// SystemStats summarises ledger activity.
type SystemStats struct {
	TotalBudget     float64 `json:"total_budget"`
	ActiveClaims    int     `json:"active_claims"`
	FlaggedClaims   int     `json:"flagged_claims"`
	TotalChallenges int     `json:"total_challenges"`
	VendorCount     int     `json:"vendor_count"`
}

// Health is the backend health report. Stats are passed through untouched.
type Health struct {
	Status     string            `json:"status"`
	Timestamp  float64           `json:"timestamp"`
	Version    string            `json:"version"`
	Services   map[string]string `json:"services,omitempty"`
	FraudStats json.RawMessage   `json:"fraud_stats,omitempty"`
}

// Healthy reports whether the backend declared itself healthy.
func (h Health) Healthy() bool { return h.Status == "healthy" }

// Overview bundles the dashboard reads.
type Overview struct {
	Stats   SystemStats
	Budgets []Budget
	Alerts  []FraudAlert
}

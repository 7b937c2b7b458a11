package nmw

// =============================================================================
// RAG STATUS - Canonical tri-state compliance classification
// =============================================================================

// RAGStatus is the tri-state compliance verdict.
type RAGStatus string

const (
	StatusGreen RAGStatus = "GREEN"
	StatusAmber RAGStatus = "AMBER"
	StatusRed   RAGStatus = "RED"
)

// Worse reports whether s is a worse tier than o (RED worst, GREEN best).
func (s RAGStatus) Worse(o RAGStatus) bool { return s.rank() > o.rank() }

func (s RAGStatus) rank() int {
	switch s {
	case StatusGreen:
		return 0
	case StatusAmber:
		return 1
	default:
		return 2
	}
}

// Severity qualifies a RED verdict or an individual issue.
type Severity string

const (
	SeverityLow      Severity = "LOW"
	SeverityMedium   Severity = "MEDIUM"
	SeverityHigh     Severity = "HIGH"
	SeverityCritical Severity = "CRITICAL"
)

// =============================================================================
// ISSUE CODES - Fixed taxonomy consumed by reporting collaborators
// =============================================================================

// IssueCode identifies a machine-readable issue class. Codes are stable;
// downstream explanation and reporting map them to human text.
type IssueCode string

const (
	IssueRateBelowMinimum      IssueCode = "RATE_BELOW_MINIMUM"
	IssueAccommodationExceeded IssueCode = "ACCOMMODATION_OFFSET_EXCEEDED"
	IssueExcessiveDeductions   IssueCode = "EXCESSIVE_DEDUCTIONS"
	IssueZeroHoursWithPay      IssueCode = "ZERO_HOURS_WITH_PAY"
	IssueMissingAgeData        IssueCode = "MISSING_AGE_DATA"
	IssueNegativeEffectiveRate IssueCode = "NEGATIVE_EFFECTIVE_RATE"
	IssueTroncExcluded         IssueCode = "TRONC_EXCLUDED"
	IssueUnclassifiedComponent IssueCode = "UNCLASSIFIED_COMPONENT"
	IssueEstimatedPremiumSplit IssueCode = "ESTIMATED_PREMIUM_SPLIT"
	IssueRateTableUnavailable  IssueCode = "RATE_TABLE_UNAVAILABLE"
)

// =============================================================================
// AMBER FLAGS - Precondition flags checked before any rate comparison
// =============================================================================

// AmberFlag marks a data-quality condition that degrades the verdict to
// AMBER ("fail open to manual review") instead of failing the calculation.
type AmberFlag string

const (
	FlagZeroHoursWithPay      AmberFlag = "zero_hours_with_pay"
	FlagMissingAgeData        AmberFlag = "missing_age_data"
	FlagNegativeEffectiveRate AmberFlag = "negative_effective_rate"
	FlagExcessiveDeductions   AmberFlag = "excessive_deductions"
	FlagAccommodationOffsets  AmberFlag = "accommodation_offset_violations"
	FlagRateTableUnavailable  AmberFlag = "rate_table_unavailable"
)

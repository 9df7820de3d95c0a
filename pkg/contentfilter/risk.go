package contentfilter

// Risk is the four-tier classification assigned to notification content.
type Risk int

const (
	RiskLow Risk = iota
	RiskMedium
	RiskHigh
	RiskCritical
)

func (r Risk) String() string {
	switch r {
	case RiskLow:
		return "low"
	case RiskMedium:
		return "medium"
	case RiskHigh:
		return "high"
	case RiskCritical:
		return "critical"
	default:
		return "unknown"
	}
}

// escalate raises r to at least level, never lowering it.
func (r Risk) escalate(level Risk) Risk {
	if level > r {
		return level
	}
	return r
}

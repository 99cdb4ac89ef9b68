package report

type Frequency string

const (
	FrequencyOnce      Frequency = "once"
	FrequencyDaily     Frequency = "daily"
	FrequencyWeekly    Frequency = "weekly"
	FrequencyMonthly   Frequency = "monthly"
	FrequencyQuarterly Frequency = "quarterly"
)

// CronExpression returns the canonical recurrence for a preset
// frequency. FrequencyOnce has no recurrence and returns "".
func (f Frequency) CronExpression() string {
	switch f {
	case FrequencyDaily:
		return "0 2 * * *"
	case FrequencyWeekly:
		return "0 2 * * 1"
	case FrequencyMonthly:
		return "0 2 1 * *"
	case FrequencyQuarterly:
		return "0 2 1 1,4,7,10 *"
	default:
		return ""
	}
}

func (f Frequency) Valid() bool {
	switch f {
	case FrequencyOnce, FrequencyDaily, FrequencyWeekly, FrequencyMonthly, FrequencyQuarterly:
		return true
	}
	return false
}

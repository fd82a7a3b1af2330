package admin

import "time"

// DateLayout is the format of startDate and endDate
const DateLayout = "2006-01-02"

// Period is an inclusive range of calendar days
type Period struct {
	Start time.Time
	End   time.Time
}

// Until is the exclusive upper bound used in queries
func (p Period) Until() time.Time {
	return p.End.AddDate(0, 0, 1)
}

// Statistics is the admin dashboard snapshot. Counts by status cover rows
// created inside the period; user and report counts are current totals.
type Statistics struct {
	StartDate          string         `json:"start_date"`
	EndDate            string         `json:"end_date"`
	UsersByRole        map[string]int `json:"users_by_role"`
	BlockedUsers       int            `json:"blocked_users"`
	LostByStatus       map[string]int `json:"lost_by_status"`
	FoundByStatus      map[string]int `json:"found_by_status"`
	HandoversByStatus  map[string]int `json:"handovers_by_status"`
	CompletionRate     float64        `json:"completion_rate"`
	AvgHoursToComplete float64        `json:"avg_hours_to_complete"`
	OpenReports        int            `json:"open_reports"`
	GeneratedAt        string         `json:"generated_at"`
}

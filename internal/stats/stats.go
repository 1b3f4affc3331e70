// Package stats derives counts from the account store and the ledger. It
// only reads; every number it reports comes from a single consistent
// snapshot or the call fails as STORAGE.
package stats

// UnspecifiedDepartment buckets active-approved accounts with no
// department; they are never silently dropped.
const UnspecifiedDepartment = "unspecified"

// ScheduleSummary reports participation for one schedule. Claims from
// since-deactivated or unapproved accounts count toward neither number.
type ScheduleSummary struct {
	ScheduleID        int64 `json:"schedule_id"`
	CheckedCount      int64 `json:"checked_count"`
	TotalParticipants int64 `json:"total_participants"`
}

// UserStatistics reports account population counts. Total/Active/Inactive/
// Admins/Members cover approved accounts; Pending counts undecided ones.
type UserStatistics struct {
	Total        int64            `json:"total"`
	Active       int64            `json:"active"`
	Inactive     int64            `json:"inactive"`
	Approved     int64            `json:"approved"`
	Pending      int64            `json:"pending"`
	Admins       int64            `json:"admins"`
	Members      int64            `json:"members"`
	ByDepartment map[string]int64 `json:"by_department"`
}

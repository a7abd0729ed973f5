package dto

// DashboardResponse is the warden overview: today's admission picture plus
// lifetime status tallies.
type DashboardResponse struct {
	Date          string         `json:"date"`
	WindowOpen    bool           `json:"is_window_open"`
	Capacity      int            `json:"capacity"`
	AdmittedToday int            `json:"admitted_today"`
	SlotsLeft     int            `json:"slots_left"`
	TodayByStatus map[string]int `json:"today_by_status"`
	TotalByStatus map[string]int `json:"total_by_status"`
	Waitlist      []PassResponse `json:"waitlist"`
}

package dto

// AttendanceBucketView is one (day, time label) aggregation bucket.
type AttendanceBucketView struct {
	Day             string   `json:"day"`
	Time            string   `json:"time"`
	SessionIDs      []string `json:"session_ids"`
	SessionCount    int      `json:"session_count"`
	TotalAttendance int      `json:"total_attendance"`
}

// AttendanceSummaryView carries the aggregate totals.
type AttendanceSummaryView struct {
	TotalSessions     int     `json:"total_sessions"`
	TotalAttendance   int     `json:"total_attendance"`
	AverageAttendance float64 `json:"average_attendance"`
}

// AttendanceReportResponse is the analytics payload for a date range.
type AttendanceReportResponse struct {
	From    string                 `json:"from"`
	To      string                 `json:"to"`
	Order   string                 `json:"order"`
	Buckets []AttendanceBucketView `json:"buckets"`
	Summary AttendanceSummaryView  `json:"summary"`
}

package query

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"

	"branchboard/internal/core"
	"branchboard/internal/store"
)

// Window is an attendance look-back in whole days. Zero covers today only.
type Window int

const (
	Today      Window = 0
	Last30Days Window = 30
)

// RecentLimit caps the records returned in a summary.
const RecentLimit = 10

// ParseWindow accepts "today", "last30" or a day count.
func ParseWindow(s string) (Window, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "today":
		return Today, nil
	case "last30":
		return Last30Days, nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 0 {
		return 0, fmt.Errorf("invalid attendance window %q", s)
	}
	return Window(n), nil
}

// AttendanceOfEmployee returns the employee's records dated on or after the
// start of the day windowDays before now, most recent first. Records on the
// same date keep insertion order. Day boundaries follow now's location.
func AttendanceOfEmployee(s store.Snapshot, employeeID string, windowDays int, now time.Time) []core.Attendance {
	if windowDays < 0 {
		windowDays = 0
	}
	cutoff := core.StartOfDay(now, nil).AddDate(0, 0, -windowDays)
	out := core.Filter(s.Attendance, func(r core.Attendance) bool {
		return r.EmployeeID == employeeID && !r.Date.Before(cutoff)
	})
	slices.SortStableFunc(out, func(a, b core.Attendance) int { return b.Date.Compare(a.Date) })
	return out
}

// HasAttendanceOn reports whether the employee already has a record dated on
// the same calendar day as day, in day's location.
func HasAttendanceOn(s store.Snapshot, employeeID string, day time.Time) bool {
	return slices.ContainsFunc(s.Attendance, func(r core.Attendance) bool {
		return r.EmployeeID == employeeID && core.SameDay(r.Date, day, day.Location())
	})
}

// AttendanceSummary is the per-employee view over one window.
type AttendanceSummary struct {
	Records         []core.Attendance
	PresentDays     int
	AbsentDays      int
	TotalDays       int
	TotalDuration   int // minutes, present days only
	AverageDuration int // minutes, floored
	Today           *core.Attendance
	TodayStatus     core.AttendanceStatus
}

// SummarizeAttendance counts the records in window. Duplicate records for a
// day are counted individually. TodayStatus is absent unless a record for
// today exists.
func SummarizeAttendance(s store.Snapshot, employeeID string, window Window, now time.Time) AttendanceSummary {
	records := AttendanceOfEmployee(s, employeeID, int(window), now)

	sum := AttendanceSummary{TotalDays: len(records), TodayStatus: core.Absent}
	for _, r := range records {
		switch r.Status {
		case core.Present:
			sum.PresentDays++
			sum.TotalDuration += r.Minutes()
		case core.Absent:
			sum.AbsentDays++
		}
	}
	if sum.PresentDays > 0 {
		sum.AverageDuration = sum.TotalDuration / sum.PresentDays
	}

	loc := now.Location()
	if today := core.Find(records, func(r core.Attendance) bool { return core.SameDay(r.Date, now, loc) }); today != nil {
		sum.Today = today
		sum.TodayStatus = today.Status
	}

	if len(records) > RecentLimit {
		records = records[:RecentLimit]
	}
	sum.Records = records
	return sum
}

// FormatMinutes renders a duration as "8h 30m".
func FormatMinutes(minutes int) string {
	return fmt.Sprintf("%dh %dm", minutes/60, minutes%60)
}

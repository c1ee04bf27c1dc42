// Package analytics derives read-only statistics from a task collection.
// Every call recomputes from the tasks it is given.
package analytics

import (
	"fmt"
	"math"
	"sort"
	"time"

	"produtivo/internal/core"
)

// Window is the period a report covers, ending today.
type Window string

const (
	WindowWeek  Window = "week"
	WindowMonth Window = "month"
)

// ParseWindow accepts "week" and "month"; empty means week.
func ParseWindow(s string) (Window, error) {
	switch Window(s) {
	case "", WindowWeek:
		return WindowWeek, nil
	case WindowMonth:
		return WindowMonth, nil
	}
	return "", fmt.Errorf("%w: window must be week or month", core.ErrInvalidInput)
}

// Days is the number of calendar days in the window, today included.
func (w Window) Days() int {
	if w == WindowMonth {
		return 30
	}
	return 7
}

// Options carries the clock and calendar a report is computed with.
type Options struct {
	Now      time.Time
	Location *time.Location
}

type DayStat struct {
	Date      core.Date `json:"date"`
	Created   int       `json:"created"`
	Completed int       `json:"completed"`
}

// Durations summarizes days-to-complete over completed tasks.
type Durations struct {
	Count  int     `json:"count"`
	Mean   float64 `json:"mean"`
	Median float64 `json:"median"`
	Min    int     `json:"min"`
	Max    int     `json:"max"`
}

type GroupStat struct {
	Key            string `json:"key"`
	Count          int    `json:"count"`
	Completed      int    `json:"completed"`
	CompletionRate int    `json:"completion_rate"`
}

type Report struct {
	Window         Window      `json:"window"`
	From           core.Date   `json:"from"`
	To             core.Date   `json:"to"`
	Total          int         `json:"total"`
	Completed      int         `json:"completed"`
	CompletionRate int         `json:"completion_rate"`
	Daily          []DayStat   `json:"daily"`
	TimeToComplete Durations   `json:"time_to_complete"`
	ByList         []GroupStat `json:"by_list"`
	ByTag          []GroupStat `json:"by_tag"`
}

// Compute builds the report for window. Totals, the completion rate and the
// rollups count tasks created inside the window; time-to-complete covers
// every completed task regardless of the window.
func Compute(tasks []core.Task, window Window, opts Options) Report {
	loc := opts.Location
	if loc == nil {
		loc = time.Local
	}
	now := opts.Now
	if now.IsZero() {
		now = time.Now()
	}

	to := core.DateOf(now, loc)
	from := to.AddDays(1 - window.Days())
	report := Report{Window: window, From: from, To: to}

	daily := make([]DayStat, window.Days())
	index := make(map[core.Date]int, len(daily))
	for i := range daily {
		d := from.AddDays(i)
		daily[i].Date = d
		index[d] = i
	}

	lists := newGroups()
	tags := newGroups()
	for _, t := range tasks {
		if i, ok := index[core.DateOf(t.CreatedAt, loc)]; ok && !t.CreatedAt.IsZero() {
			daily[i].Created++

			done := t.IsCompleted()
			report.Total++
			if done {
				report.Completed++
			}
			if t.ListID != "" {
				lists.add(t.ListID, done)
			}
			for _, tag := range uniqueTags(t.Tags) {
				tags.add(tag, done)
			}
		}
		if t.CompletedAt != nil {
			if i, ok := index[core.DateOf(*t.CompletedAt, loc)]; ok {
				daily[i].Completed++
			}
		}
	}

	report.CompletionRate = Rate(report.Completed, report.Total)
	report.Daily = daily
	report.TimeToComplete = TimeToComplete(tasks)
	report.ByList = lists.stats()
	report.ByTag = tags.stats()
	return report
}

// Rate is completed/total as a rounded percentage, 0 when total is 0.
func Rate(completed, total int) int {
	if total == 0 {
		return 0
	}
	return int(math.Round(float64(completed) * 100 / float64(total)))
}

// DaysToComplete is the whole number of days, rounded up, between creation
// and completion. ok is false when t is not a completed task with both
// timestamps.
func DaysToComplete(t core.Task) (days int, ok bool) {
	if !t.IsCompleted() || t.CompletedAt == nil || t.CreatedAt.IsZero() {
		return 0, false
	}
	elapsed := t.CompletedAt.Sub(t.CreatedAt)
	if elapsed < 0 {
		return 0, true
	}
	return int(math.Ceil(elapsed.Hours() / 24)), true
}

// TimeToComplete aggregates DaysToComplete over tasks.
func TimeToComplete(tasks []core.Task) Durations {
	var days []int
	for _, t := range tasks {
		if d, ok := DaysToComplete(t); ok {
			days = append(days, d)
		}
	}
	if len(days) == 0 {
		return Durations{}
	}
	sort.Ints(days)

	sum := 0
	for _, d := range days {
		sum += d
	}
	n := len(days)
	median := float64(days[n/2])
	if n%2 == 0 {
		median = float64(days[n/2-1]+days[n/2]) / 2
	}
	return Durations{
		Count:  n,
		Mean:   math.Round(float64(sum)/float64(n)*100) / 100,
		Median: median,
		Min:    days[0],
		Max:    days[n-1],
	}
}

type groups map[string]*GroupStat

func newGroups() groups { return groups{} }

func (g groups) add(key string, done bool) {
	s, ok := g[key]
	if !ok {
		s = &GroupStat{Key: key}
		g[key] = s
	}
	s.Count++
	if done {
		s.Completed++
	}
}

func (g groups) stats() []GroupStat {
	out := make([]GroupStat, 0, len(g))
	for _, s := range g {
		s.CompletionRate = Rate(s.Completed, s.Count)
		out = append(out, *s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}

func uniqueTags(tags []string) []string {
	seen := make(map[string]bool, len(tags))
	out := tags[:0:0]
	for _, t := range tags {
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	return out
}

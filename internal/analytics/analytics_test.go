package analytics

import (
	"errors"
	"testing"
	"time"

	"produtivo/internal/core"
)

var now = time.Date(2024, 5, 10, 18, 0, 0, 0, time.UTC)

func at(day, hour int) time.Time {
	return time.Date(2024, 5, day, hour, 0, 0, 0, time.UTC)
}

func completed(id string, created, done time.Time, list string, tags ...string) core.Task {
	return core.Task{ID: id, Status: core.StatusCompleted, CreatedAt: created, CompletedAt: &done, ListID: list, Tags: tags}
}

func pending(id string, created time.Time, list string, tags ...string) core.Task {
	return core.Task{ID: id, Status: core.StatusPending, CreatedAt: created, ListID: list, Tags: tags}
}

func TestCompute_Empty(t *testing.T) {
	r := Compute(nil, WindowWeek, Options{Now: now, Location: time.UTC})
	if r.CompletionRate != 0 || r.Total != 0 {
		t.Fatalf("empty collection: rate=%d total=%d", r.CompletionRate, r.Total)
	}
	if len(r.Daily) != 7 {
		t.Fatalf("daily series has %d days, want 7", len(r.Daily))
	}
	if r.TimeToComplete.Count != 0 || len(r.ByList) != 0 || len(r.ByTag) != 0 {
		t.Fatalf("unexpected aggregates %+v", r)
	}
}

func TestCompute_Week(t *testing.T) {
	tasks := []core.Task{
		completed("1", at(9, 8), at(10, 9), "work", "a", "b"),
		pending("2", at(9, 12), "work", "a"),
		pending("3", at(4, 12), "home"),
		// outside the window, still counts for time-to-complete
		completed("4", at(1, 0), at(5, 12), "home", "a"),
	}

	r := Compute(tasks, WindowWeek, Options{Now: now, Location: time.UTC})

	if !r.From.Equal(core.NewDate(2024, 5, 4)) || !r.To.Equal(core.NewDate(2024, 5, 10)) {
		t.Fatalf("window = %s..%s", r.From, r.To)
	}
	if r.Total != 3 || r.Completed != 1 || r.CompletionRate != 33 {
		t.Fatalf("total=%d completed=%d rate=%d", r.Total, r.Completed, r.CompletionRate)
	}

	last := r.Daily[len(r.Daily)-1]
	if last.Created != 0 || last.Completed != 1 {
		t.Errorf("today = %+v", last)
	}
	if r.Daily[5].Created != 2 {
		t.Errorf("May 9 created = %d, want 2", r.Daily[5].Created)
	}
	if r.Daily[1].Completed != 1 {
		t.Errorf("May 5 completed = %d, want 1", r.Daily[1].Completed)
	}

	ttc := r.TimeToComplete
	// task 1: 25h -> 2 days; task 4: 4.5 days -> 5 days
	if ttc.Count != 2 || ttc.Min != 2 || ttc.Max != 5 || ttc.Median != 3.5 || ttc.Mean != 3.5 {
		t.Errorf("time to complete = %+v", ttc)
	}

	if len(r.ByList) != 2 || r.ByList[0].Key != "home" || r.ByList[1].Key != "work" {
		t.Fatalf("by list = %+v", r.ByList)
	}
	if r.ByList[1].Count != 2 || r.ByList[1].CompletionRate != 50 {
		t.Errorf("work rollup = %+v", r.ByList[1])
	}
	if len(r.ByTag) != 2 || r.ByTag[0] != (GroupStat{Key: "a", Count: 2, Completed: 1, CompletionRate: 50}) {
		t.Errorf("by tag = %+v", r.ByTag)
	}
}

func TestCompute_MonthWindow(t *testing.T) {
	tasks := []core.Task{pending("1", time.Date(2024, 4, 11, 0, 0, 0, 0, time.UTC), "")}
	r := Compute(tasks, WindowMonth, Options{Now: now, Location: time.UTC})
	if len(r.Daily) != 30 || r.Total != 1 {
		t.Fatalf("month window: days=%d total=%d", len(r.Daily), r.Total)
	}
}

func TestCompute_LocalCalendarDay(t *testing.T) {
	sp := time.FixedZone("BRT", -3*60*60)
	// 01:00 UTC on May 10 is still May 9 in UTC-3.
	tasks := []core.Task{pending("1", time.Date(2024, 5, 10, 1, 0, 0, 0, time.UTC), "")}
	r := Compute(tasks, WindowWeek, Options{Now: now, Location: sp})
	if r.Daily[5].Created != 1 {
		t.Fatalf("task should be bucketed on May 9 local, daily=%+v", r.Daily)
	}
}

func TestTimeToComplete_OddCount(t *testing.T) {
	tasks := []core.Task{
		completed("1", at(1, 0), at(2, 0), ""),
		completed("2", at(1, 0), at(4, 0), ""),
		completed("3", at(1, 0), at(9, 0), ""),
		pending("4", at(1, 0), ""),
	}
	got := TimeToComplete(tasks)
	want := Durations{Count: 3, Mean: 4, Median: 3, Min: 1, Max: 8}
	if got != want {
		t.Fatalf("TimeToComplete() = %+v, want %+v", got, want)
	}
}

func TestParseWindow(t *testing.T) {
	if w, err := ParseWindow(""); err != nil || w != WindowWeek {
		t.Errorf("ParseWindow(\"\") = %v, %v", w, err)
	}
	if w, err := ParseWindow("month"); err != nil || w != WindowMonth {
		t.Errorf("ParseWindow(month) = %v, %v", w, err)
	}
	if _, err := ParseWindow("year"); !errors.Is(err, core.ErrInvalidInput) {
		t.Errorf("ParseWindow(year) error = %v", err)
	}
}

func TestRate(t *testing.T) {
	tests := []struct{ completed, total, want int }{
		{0, 0, 0},
		{1, 3, 33},
		{2, 3, 67},
		{3, 3, 100},
	}
	for _, tt := range tests {
		if got := Rate(tt.completed, tt.total); got != tt.want {
			t.Errorf("Rate(%d, %d) = %d, want %d", tt.completed, tt.total, got, tt.want)
		}
	}
}

package rrule

import (
	"testing"
	"time"

	"github.com/hray3182/nagqueen/internal/models"
	"github.com/hray3182/nagqueen/internal/recurrence"
)

func TestString(t *testing.T) {
	t.Parallel()
	anchor := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	tests := []struct {
		name string
		rule models.RecurrenceRule
		want string
	}{
		{
			name: "daily",
			rule: models.RecurrenceRule{Kind: models.KindDaily, TimeOfDay: models.TimeOfDay{Hour: 9}},
			want: "FREQ=DAILY;BYHOUR=9;BYMINUTE=0;BYSECOND=0",
		},
		{
			name: "once",
			rule: models.RecurrenceRule{Kind: models.KindOnce, TimeOfDay: models.TimeOfDay{Hour: 9}, AnchorDate: &anchor},
			want: "FREQ=DAILY;COUNT=1;BYHOUR=9;BYMINUTE=0;BYSECOND=0",
		},
		{
			name: "weekly",
			rule: models.RecurrenceRule{Kind: models.KindWeekly, TimeOfDay: models.TimeOfDay{Hour: 8, Minute: 30}, DaysOfWeek: []int{1, 3}},
			want: "FREQ=WEEKLY;BYDAY=TU,TH;BYHOUR=8;BYMINUTE=30;BYSECOND=0",
		},
		{
			name: "weekly default",
			rule: models.RecurrenceRule{Kind: models.KindWeekly, TimeOfDay: models.TimeOfDay{Hour: 8}},
			want: "FREQ=WEEKLY;BYDAY=MO;BYHOUR=8;BYMINUTE=0;BYSECOND=0",
		},
		{
			name: "monthly last",
			rule: models.RecurrenceRule{Kind: models.KindMonthly, TimeOfDay: models.TimeOfDay{Hour: 9}, DayOfMonth: models.LastDayOfMonth},
			want: "FREQ=MONTHLY;BYMONTHDAY=-1;BYHOUR=9;BYMINUTE=0;BYSECOND=0",
		},
		{
			name: "monthly clamped",
			rule: models.RecurrenceRule{Kind: models.KindMonthly, TimeOfDay: models.TimeOfDay{Hour: 9}, DayOfMonth: 30},
			want: "FREQ=MONTHLY;BYMONTHDAY=28,29,30;BYSETPOS=-1;BYHOUR=9;BYMINUTE=0;BYSECOND=0",
		},
		{
			name: "monthly default",
			rule: models.RecurrenceRule{Kind: models.KindMonthly, TimeOfDay: models.TimeOfDay{Hour: 9}},
			want: "FREQ=MONTHLY;BYMONTHDAY=1;BYHOUR=9;BYMINUTE=0;BYSECOND=0",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := String(tt.rule); got != tt.want {
				t.Fatalf("String() = %q, want %q", got, tt.want)
			}
		})
	}
}

// rrule-go is an independent implementation of the same calendar, so the two
// must agree for every rule that does not depend on the once anchor quirk.
func TestNextAgreesWithRecurrence(t *testing.T) {
	t.Parallel()
	rules := []models.RecurrenceRule{
		{Kind: models.KindDaily, TimeOfDay: models.TimeOfDay{Hour: 9}},
		{Kind: models.KindDaily, TimeOfDay: models.TimeOfDay{Hour: 23, Minute: 59}},
		{Kind: models.KindWeekly, TimeOfDay: models.TimeOfDay{Hour: 8}, DaysOfWeek: []int{1, 3}},
		{Kind: models.KindWeekly, TimeOfDay: models.TimeOfDay{Hour: 8}},
		{Kind: models.KindWeekly, TimeOfDay: models.TimeOfDay{Hour: 0}, DaysOfWeek: []int{6}},
		{Kind: models.KindMonthly, TimeOfDay: models.TimeOfDay{Hour: 9}, DayOfMonth: 31},
		{Kind: models.KindMonthly, TimeOfDay: models.TimeOfDay{Hour: 9}, DayOfMonth: 29},
		{Kind: models.KindMonthly, TimeOfDay: models.TimeOfDay{Hour: 9}, DayOfMonth: 15},
		{Kind: models.KindMonthly, TimeOfDay: models.TimeOfDay{Hour: 9}, DayOfMonth: models.LastDayOfMonth},
	}

	start := time.Date(2023, 12, 25, 0, 0, 0, 0, time.UTC)
	for _, rule := range rules {
		for i := 0; i < 120; i++ {
			now := start.Add(time.Duration(i) * 13 * time.Hour)
			want := recurrence.NextRun(rule, now)
			got, err := Next(rule, now)
			if err != nil {
				t.Fatalf("%s: Next error: %v", String(rule), err)
			}
			if !got.Equal(want) {
				t.Fatalf("%s at %s: rrule-go %s, recurrence %s", String(rule), now, got, want)
			}
		}
	}
}

func TestNextOnceAnchor(t *testing.T) {
	t.Parallel()
	anchor := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	rule := models.RecurrenceRule{Kind: models.KindOnce, TimeOfDay: models.TimeOfDay{Hour: 10}, AnchorDate: &anchor}
	now := time.Date(2024, 3, 10, 10, 0, 0, 0, time.UTC)

	got, err := Next(rule, now)
	if err != nil {
		t.Fatalf("Next error: %v", err)
	}
	if want := recurrence.NextRun(rule, now); !got.Equal(want) {
		t.Fatalf("Next = %s, want %s", got, want)
	}
}

func TestDescribe(t *testing.T) {
	t.Parallel()
	tests := []struct {
		rule models.RecurrenceRule
		want string
	}{
		{models.RecurrenceRule{Kind: models.KindDaily, TimeOfDay: models.TimeOfDay{Hour: 7, Minute: 5}}, "every day at 07:05 UTC"},
		{models.RecurrenceRule{Kind: models.KindWeekly, TimeOfDay: models.TimeOfDay{Hour: 8}, DaysOfWeek: []int{1, 3}}, "every Tue, Thu at 08:00 UTC"},
		{models.RecurrenceRule{Kind: models.KindMonthly, TimeOfDay: models.TimeOfDay{Hour: 9}, DayOfMonth: models.LastDayOfMonth}, "monthly on the last day at 09:00 UTC"},
		{models.RecurrenceRule{Kind: models.KindMonthly, TimeOfDay: models.TimeOfDay{Hour: 9}}, "monthly on day 1 at 09:00 UTC"},
		{models.RecurrenceRule{Kind: models.KindOnce, TimeOfDay: models.TimeOfDay{Hour: 9}}, "once at 09:00 UTC"},
	}
	for _, tt := range tests {
		if got := Describe(tt.rule); got != tt.want {
			t.Errorf("Describe(%+v) = %q, want %q", tt.rule, got, tt.want)
		}
	}
}

package runlog

import (
	"testing"
	"time"

	"github.com/hitoshi/stridelog/internal/model"
)

func day(t *testing.T, value string) time.Time {
	t.Helper()
	d, err := time.Parse("2006-01-02", value)
	if err != nil {
		t.Fatalf("invalid date %q: %v", value, err)
	}
	return d
}

func TestComputeWeeklyStats_EmptyCollection_ReturnsZeros(t *testing.T) {
	stats := ComputeWeeklyStats(nil, time.Now())

	if stats.TotalDistanceKm != 0 {
		t.Errorf("TotalDistanceKm = %v, want 0", stats.TotalDistanceKm)
	}
	if stats.RunCount != 0 {
		t.Errorf("RunCount = %d, want 0", stats.RunCount)
	}
	// 距離合計0の場合、平均ペースはゼロ除算を避けて0とする（ポリシー）
	if stats.AveragePaceMinPerKm != 0 {
		t.Errorf("AveragePaceMinPerKm = %v, want 0", stats.AveragePaceMinPerKm)
	}
}

func TestComputeWeeklyStats_ExcludesEntriesOlderThanSevenDays(t *testing.T) {
	now := day(t, "2024-06-15")
	runs := []*model.RunLog{
		{Date: now, DistanceKm: 5, DurationMin: 30},
		{Date: now.AddDate(0, 0, -3), DistanceKm: 4, DurationMin: 24},
		{Date: now.AddDate(0, 0, -10), DistanceKm: 6, DurationMin: 36},
	}

	stats := ComputeWeeklyStats(runs, now)

	if stats.RunCount != 2 {
		t.Errorf("RunCount = %d, want 2", stats.RunCount)
	}
	if stats.TotalDistanceKm != 9 {
		t.Errorf("TotalDistanceKm = %v, want 9", stats.TotalDistanceKm)
	}
}

func TestComputeWeeklyStats_AveragePace(t *testing.T) {
	now := day(t, "2024-06-15")
	runs := []*model.RunLog{
		{Date: now, DistanceKm: 5, DurationMin: 30},
		{Date: now.AddDate(0, 0, -1), DistanceKm: 5, DurationMin: 24},
	}

	stats := ComputeWeeklyStats(runs, now)

	// (30 + 24) / (5 + 5) = 5.4 min/km
	if stats.AveragePaceMinPerKm != 5.4 {
		t.Errorf("AveragePaceMinPerKm = %v, want 5.4", stats.AveragePaceMinPerKm)
	}
}

func TestComputeWeeklyStats_DateOnlyComparison(t *testing.T) {
	// 時刻成分が入っていても日付単位で判定されることを検証
	now := time.Date(2024, 6, 15, 23, 30, 0, 0, time.UTC)
	runs := []*model.RunLog{
		{Date: time.Date(2024, 6, 8, 1, 0, 0, 0, time.UTC), DistanceKm: 3, DurationMin: 20},
	}

	stats := ComputeWeeklyStats(runs, now)

	if stats.RunCount != 1 {
		t.Errorf("RunCount = %d, want 1（7日前当日は含む）", stats.RunCount)
	}
}

func TestComputeLifetimeStats_EmptyCollection_ReturnsZeros(t *testing.T) {
	stats := ComputeLifetimeStats(nil)

	if stats.TotalDistanceKm != 0 || stats.TotalDurationMin != 0 || stats.AverageEffort != 0 {
		t.Errorf("expected all zeros, got %+v", stats)
	}
}

func TestComputeLifetimeStats_TotalsAndAverageEffort(t *testing.T) {
	runs := []*model.RunLog{
		{DistanceKm: 5, DurationMin: 30, Effort: 6},
		{DistanceKm: 10, DurationMin: 65, Effort: 8},
	}

	stats := ComputeLifetimeStats(runs)

	if stats.TotalDistanceKm != 15 {
		t.Errorf("TotalDistanceKm = %v, want 15", stats.TotalDistanceKm)
	}
	if stats.TotalDurationMin != 95 {
		t.Errorf("TotalDurationMin = %v, want 95", stats.TotalDurationMin)
	}
	if stats.AverageEffort != 7 {
		t.Errorf("AverageEffort = %v, want 7", stats.AverageEffort)
	}
}

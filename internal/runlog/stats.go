package runlog

import (
	"time"

	"github.com/hitoshi/stridelog/internal/model"
)

// weeklyWindowDays は週間統計の集計対象となる日数。
const weeklyWindowDays = 7

// dateOnly はタイムスタンプから時刻成分を落とし、UTC日付に正規化する。
// ラン記録の日付比較はすべて日付単位で行う。
func dateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ComputeWeeklyStats は直近7日間のランの集計値を導出する純粋関数。
// 対象は date >= now - 7日 のエントリ（日付単位の比較、nowは呼び出し時点）。
// 走行距離合計が0の場合、平均ペースはゼロ除算を避けるため0とする（ポリシー）。
// ウィンドウ境界のずれを避けるため、差分計算はせず常に全件から再計算する。
func ComputeWeeklyStats(runs []*model.RunLog, now time.Time) model.WeeklyStats {
	cutoff := dateOnly(now).AddDate(0, 0, -weeklyWindowDays)

	var stats model.WeeklyStats
	var totalDuration float64
	for _, run := range runs {
		if dateOnly(run.Date).Before(cutoff) {
			continue
		}
		stats.TotalDistanceKm += run.DistanceKm
		totalDuration += run.DurationMin
		stats.RunCount++
	}

	if stats.TotalDistanceKm > 0 {
		stats.AveragePaceMinPerKm = totalDuration / stats.TotalDistanceKm
	}

	return stats
}

// ComputeLifetimeStats は全期間のランの集計値を導出する純粋関数。
// 空のコレクションでは平均強度を0とする。
func ComputeLifetimeStats(runs []*model.RunLog) model.LifetimeStats {
	var stats model.LifetimeStats
	var effortSum float64
	for _, run := range runs {
		stats.TotalDistanceKm += run.DistanceKm
		stats.TotalDurationMin += run.DurationMin
		effortSum += float64(run.Effort)
	}

	if len(runs) > 0 {
		stats.AverageEffort = effortSum / float64(len(runs))
	}

	return stats
}

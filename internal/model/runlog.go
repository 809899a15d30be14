package model

import "time"

// RunLog はユーザーが記録した1回のランを表す。
// IDとCreatedAt/UpdatedAtはストア側が採番・管理し、クライアントは変更しない。
type RunLog struct {
	ID          string
	UserID      string
	Date        time.Time // 日付のみ（時刻成分は持たない）
	DistanceKm  float64
	DurationMin float64
	Effort      int // 主観的運動強度 [1,10]
	Notes       string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// WeeklyStats は直近7日間のランの集計値。派生値であり永続化しない。
type WeeklyStats struct {
	TotalDistanceKm     float64
	AveragePaceMinPerKm float64
	RunCount            int
}

// LifetimeStats は全期間のランの集計値。派生値であり永続化しない。
type LifetimeStats struct {
	TotalDistanceKm  float64
	TotalDurationMin float64
	AverageEffort    float64
}

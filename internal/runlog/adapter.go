// Package runlog はラン記録ストアアダプタを提供する。
//
// Adapterは1人のユーザーのラン記録コレクションをメモリ上に保持し、
// リモート行ストア（repository.RunLogRepository）と同期し、
// 週間・全期間の統計値を導出する。フォームやカードなどの消費側は
// このアダプタの操作を呼び、その出力を描画するだけの存在であり、
// コレクションを直接変更することはない。
package runlog

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/hitoshi/stridelog/internal/model"
	"github.com/hitoshi/stridelog/internal/repository"
)

// NewRun はラン記録の新規作成入力を表す。
// ID・所有者・タイムスタンプはストア側が付与するため含まない。
type NewRun struct {
	Date        time.Time
	DistanceKm  float64
	DurationMin float64
	Effort      int
	Notes       string
}

// Adapter はラン記録ストアアダプタ。
// コレクションはアダプタが排他的に所有し、常に1人のユーザーのエントリのみを保持する。
// ミューテックスはメモリアクセスの整列のみを担い、操作間の順序は保証しない。
// 2つの操作が競合した場合は後に完了した書き込みが勝つ（個人用途での既知の許容リスク）。
type Adapter struct {
	repo repository.RunLogRepository
	now  func() time.Time // テストで固定時刻を注入するためのフック

	mu       sync.Mutex
	userID   string
	runs     []*model.RunLog
	loading  bool
	weekly   model.WeeklyStats
	lifetime model.LifetimeStats
}

// NewAdapter はAdapterを生成する。
func NewAdapter(repo repository.RunLogRepository) *Adapter {
	return &Adapter{
		repo: repo,
		now:  time.Now,
	}
}

// Initialize はアダプタを指定ユーザーの状態に初期化する。
// userIDが空の場合はコレクションを空にするだけでリモート呼び出しを行わない。
// 繰り返し呼んでも安全であり、毎回リモートからの全件取得でメモリ状態を完全に置き換える
// （差分マージは行わない）。取得失敗時はコレクションを変更せず、エラーをログと戻り値で通知する。
func (a *Adapter) Initialize(ctx context.Context, userID string) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.userID = userID

	if userID == "" {
		a.runs = nil
		a.recomputeStats()
		return nil
	}

	return a.refreshLocked(ctx)
}

// Refresh は現在のユーザーのコレクションをリモートから再取得する。
// ユーザー未設定の場合はリモート呼び出しを行わず、absent-sessionエラーを返す。
func (a *Adapter) Refresh(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.userID == "" {
		return model.NewAbsentSessionError()
	}

	return a.refreshLocked(ctx)
}

// Add はラン記録を作成する。
// ユーザー未設定の場合はリモート呼び出しを行わないno-op（absent-sessionエラー）。
// 書き込み成功後はコレクションを全件再取得する（悲観的リフレッシュ）。
// リモート拒否時はコレクションを変更せず、エラーを呼び出し側に返す。
func (a *Adapter) Add(ctx context.Context, input NewRun) (*model.RunLog, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.userID == "" {
		return nil, model.NewAbsentSessionError()
	}

	created, err := a.repo.Create(ctx, &model.RunLog{
		UserID:      a.userID,
		Date:        dateOnly(input.Date),
		DistanceKm:  input.DistanceKm,
		DurationMin: input.DurationMin,
		Effort:      input.Effort,
		Notes:       input.Notes,
	})
	if err != nil {
		return nil, fmt.Errorf("ラン記録の追加に失敗しました: %w", err)
	}

	// 書き込み後の再取得失敗は追加自体の失敗とは区別してログし、
	// メモリ状態は直前の正常値のまま残す。
	if err := a.refreshLocked(ctx); err != nil {
		return created, err
	}

	return created, nil
}

// Update はラン記録を部分更新する。
// 対象IDが現在のコレクションに存在しない場合はリモート呼び出しを行わず
// run-not-foundエラーを返す。リモート側のUPDATEもuser_id述語で自ユーザーの行に限定される。
// updated_atの更新はストア側の責務。
func (a *Adapter) Update(ctx context.Context, id string, patch repository.RunLogPatch) (*model.RunLog, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.userID == "" {
		return nil, model.NewAbsentSessionError()
	}

	if !a.containsLocked(id) {
		return nil, model.NewRunNotFoundError(id)
	}

	updated, err := a.repo.Update(ctx, id, a.userID, patch)
	if err != nil {
		return nil, fmt.Errorf("ラン記録の更新に失敗しました: %w", err)
	}
	if updated == nil {
		return nil, model.NewRunNotFoundError(id)
	}

	if err := a.refreshLocked(ctx); err != nil {
		return updated, err
	}

	return updated, nil
}

// Delete はラン記録を削除する。
// 対象IDが現在のコレクションに存在しない場合（削除済み・他ユーザーの行を含む）は
// リモート呼び出しを行わないno-opとして成功を返す（アダプタ境界での削除の冪等性）。
// リモート側のDELETEもuser_id述語で自ユーザーの行に限定される。
func (a *Adapter) Delete(ctx context.Context, id string) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.userID == "" {
		return model.NewAbsentSessionError()
	}

	if !a.containsLocked(id) {
		return nil
	}

	if _, err := a.repo.Delete(ctx, id, a.userID); err != nil {
		return fmt.Errorf("ラン記録の削除に失敗しました: %w", err)
	}

	filtered := a.runs[:0:0]
	for _, run := range a.runs {
		if run.ID != id {
			filtered = append(filtered, run)
		}
	}
	a.runs = filtered
	a.recomputeStats()

	return nil
}

// Runs は現在のコレクションの読み取り専用コピーを日付降順で返す。
func (a *Adapter) Runs() []model.RunLog {
	a.mu.Lock()
	defer a.mu.Unlock()

	runs := make([]model.RunLog, len(a.runs))
	for i, run := range a.runs {
		runs[i] = *run
	}
	return runs
}

// Loading は初期取得・再取得が進行中かどうかを返す。
func (a *Adapter) Loading() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.loading
}

// WeeklyStats は直近7日間の統計値を返す。
// 値はコレクションが変化した操作の成功時に再計算されたもの。
func (a *Adapter) WeeklyStats() model.WeeklyStats {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.weekly
}

// LifetimeStats は全期間の統計値を返す。
func (a *Adapter) LifetimeStats() model.LifetimeStats {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.lifetime
}

// UserID は現在のユーザーIDを返す。未設定の場合は空文字列。
func (a *Adapter) UserID() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.userID
}

// refreshLocked はリモートから全件取得してコレクションを置き換える。
// 呼び出し側がmuを保持していること。
// 取得失敗時はコレクションを変更せず、loadingだけを確実に戻す。
func (a *Adapter) refreshLocked(ctx context.Context) error {
	a.loading = true
	defer func() { a.loading = false }()

	runs, err := a.repo.ListByUserID(ctx, a.userID)
	if err != nil {
		slog.Error("failed to fetch run logs",
			slog.String("user_id", a.userID),
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("ラン記録一覧の取得に失敗しました: %w", err)
	}

	a.runs = runs
	a.recomputeStats()
	return nil
}

// containsLocked は指定IDがコレクションに存在するかを返す。
// 呼び出し側がmuを保持していること。
func (a *Adapter) containsLocked(id string) bool {
	for _, run := range a.runs {
		if run.ID == id {
			return true
		}
	}
	return false
}

// recomputeStats は統計値を全件から再計算する。
// 呼び出し側がmuを保持していること。
func (a *Adapter) recomputeStats() {
	a.weekly = ComputeWeeklyStats(a.runs, a.now())
	a.lifetime = ComputeLifetimeStats(a.runs)
}

package handler

import (
	"context"
	"time"

	"github.com/hitoshi/stridelog/internal/metrics"
	"github.com/hitoshi/stridelog/internal/model"
	"github.com/hitoshi/stridelog/internal/repository"
	"github.com/hitoshi/stridelog/internal/runlog"
	"github.com/hitoshi/stridelog/internal/security"
	"github.com/hitoshi/stridelog/internal/user"
)

// RunLogServiceAdapter は runlog.Registry を RunLogServiceInterface に適合させるアダプタ。
// リクエストのユーザーIDに対応するアダプタを取得し、必要であれば初期化する。
// メモ欄はサニタイズしてからストアに渡す。
type RunLogServiceAdapter struct {
	registry  *runlog.Registry
	sanitizer security.NotesSanitizerService
	collector metrics.MetricsCollector
}

// NewRunLogServiceAdapter はRunLogServiceAdapterを生成する。
// collectorはnilでもよい（メトリクスを記録しない）。
func NewRunLogServiceAdapter(
	registry *runlog.Registry,
	sanitizer security.NotesSanitizerService,
	collector metrics.MetricsCollector,
) *RunLogServiceAdapter {
	return &RunLogServiceAdapter{
		registry:  registry,
		sanitizer: sanitizer,
		collector: collector,
	}
}

// adapterFor はユーザーのアダプタを取得し、未初期化なら初期化する。
func (a *RunLogServiceAdapter) adapterFor(ctx context.Context, userID string) (*runlog.Adapter, error) {
	adapter := a.registry.Get(userID)
	if adapter.UserID() != userID {
		start := time.Now()
		if err := adapter.Initialize(ctx, userID); err != nil {
			return nil, err
		}
		a.recordLatency(start)
	}
	return adapter, nil
}

// ListRuns はユーザーの全ラン記録と導出統計を返す。
// 初期化済みのアダプタでも毎回リモートから再取得するため、
// GETのたびにメモリ状態がストアの最新行に追従する。
func (a *RunLogServiceAdapter) ListRuns(ctx context.Context, userID string) ([]model.RunLog, model.WeeklyStats, model.LifetimeStats, error) {
	adapter := a.registry.Get(userID)

	start := time.Now()
	var err error
	if adapter.UserID() != userID {
		err = adapter.Initialize(ctx, userID)
	} else {
		err = adapter.Refresh(ctx)
	}
	if err != nil {
		return nil, model.WeeklyStats{}, model.LifetimeStats{}, err
	}
	a.recordLatency(start)

	return adapter.Runs(), adapter.WeeklyStats(), adapter.LifetimeStats(), nil
}

// AddRun はラン記録を作成する。
func (a *RunLogServiceAdapter) AddRun(ctx context.Context, userID string, input runlog.NewRun) (*model.RunLog, error) {
	adapter, err := a.adapterFor(ctx, userID)
	if err != nil {
		return nil, err
	}

	input.Notes = a.sanitizer.Sanitize(input.Notes)

	start := time.Now()
	created, err := adapter.Add(ctx, input)
	if err != nil {
		return nil, err
	}
	a.recordLatency(start)

	if a.collector != nil {
		a.collector.RecordRunCreated()
	}
	return created, nil
}

// UpdateRun はラン記録を部分更新する。
func (a *RunLogServiceAdapter) UpdateRun(ctx context.Context, userID, runID string, patch repository.RunLogPatch) (*model.RunLog, error) {
	adapter, err := a.adapterFor(ctx, userID)
	if err != nil {
		return nil, err
	}

	if patch.Notes != nil {
		sanitized := a.sanitizer.Sanitize(*patch.Notes)
		patch.Notes = &sanitized
	}

	start := time.Now()
	updated, err := adapter.Update(ctx, runID, patch)
	if err != nil {
		return nil, err
	}
	a.recordLatency(start)

	if a.collector != nil {
		a.collector.RecordRunUpdated()
	}
	return updated, nil
}

// DeleteRun はラン記録を削除する。
func (a *RunLogServiceAdapter) DeleteRun(ctx context.Context, userID, runID string) error {
	adapter, err := a.adapterFor(ctx, userID)
	if err != nil {
		return err
	}

	start := time.Now()
	if err := adapter.Delete(ctx, runID); err != nil {
		return err
	}
	a.recordLatency(start)

	if a.collector != nil {
		a.collector.RecordRunDeleted()
	}
	return nil
}

// recordLatency は行ストア操作のレイテンシを記録する。
func (a *RunLogServiceAdapter) recordLatency(start time.Time) {
	if a.collector != nil {
		a.collector.RecordQueryLatency(time.Since(start))
	}
}

// UserServiceAdapter は user.Service を UserServiceInterface に適合させるアダプタ。
// 退会時にはレジストリからユーザーのランログアダプタも破棄する。
type UserServiceAdapter struct {
	svc      *user.Service
	registry *runlog.Registry
}

// NewUserServiceAdapter はUserServiceAdapterを生成する。
func NewUserServiceAdapter(svc *user.Service, registry *runlog.Registry) *UserServiceAdapter {
	return &UserServiceAdapter{svc: svc, registry: registry}
}

// Withdraw はユーザーの退会処理を実行する。
func (a *UserServiceAdapter) Withdraw(ctx context.Context, userID string) error {
	if err := a.svc.Withdraw(ctx, userID); err != nil {
		return err
	}
	if a.registry != nil {
		a.registry.Remove(userID)
	}
	return nil
}

// --- compile-time interface checks ---

var _ RunLogServiceInterface = (*RunLogServiceAdapter)(nil)
var _ UserServiceInterface = (*UserServiceAdapter)(nil)

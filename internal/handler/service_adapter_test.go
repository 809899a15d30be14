package handler

import (
	"context"
	"sort"
	"testing"
	"time"

	"github.com/hitoshi/stridelog/internal/model"
	"github.com/hitoshi/stridelog/internal/repository"
	"github.com/hitoshi/stridelog/internal/runlog"
	"github.com/hitoshi/stridelog/internal/security"
)

// stubRunLogRepo はリモート行ストアのインメモリ実装。
// ListByUserIDの呼び出し回数を記録する。
type stubRunLogRepo struct {
	rows      []*model.RunLog
	listCalls int
}

func (s *stubRunLogRepo) ListByUserID(ctx context.Context, userID string) ([]*model.RunLog, error) {
	s.listCalls++
	var result []*model.RunLog
	for _, row := range s.rows {
		if row.UserID == userID {
			copied := *row
			result = append(result, &copied)
		}
	}
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].Date.After(result[j].Date)
	})
	return result, nil
}

func (s *stubRunLogRepo) Create(ctx context.Context, run *model.RunLog) (*model.RunLog, error) {
	created := *run
	created.ID = "run-created"
	s.rows = append(s.rows, &created)
	copied := created
	return &copied, nil
}

func (s *stubRunLogRepo) Update(ctx context.Context, id, userID string, patch repository.RunLogPatch) (*model.RunLog, error) {
	for _, row := range s.rows {
		if row.ID != id || row.UserID != userID {
			continue
		}
		if patch.Notes != nil {
			row.Notes = *patch.Notes
		}
		if patch.DistanceKm != nil {
			row.DistanceKm = *patch.DistanceKm
		}
		copied := *row
		return &copied, nil
	}
	return nil, nil
}

func (s *stubRunLogRepo) Delete(ctx context.Context, id, userID string) (int64, error) {
	for i, row := range s.rows {
		if row.ID == id && row.UserID == userID {
			s.rows = append(s.rows[:i], s.rows[i+1:]...)
			return 1, nil
		}
	}
	return 0, nil
}

var _ repository.RunLogRepository = (*stubRunLogRepo)(nil)

func newTestServiceAdapter(t *testing.T, repo repository.RunLogRepository) *RunLogServiceAdapter {
	t.Helper()
	registry := runlog.NewRegistry(repo, runlog.RegistryConfig{
		TTL:             time.Minute,
		CleanupInterval: time.Minute,
	})
	t.Cleanup(registry.Stop)
	return NewRunLogServiceAdapter(registry, security.NewNotesSanitizer(), nil)
}

// GETのたびにリモートから再取得し、ストア側の変化がレスポンスに反映されることを検証
func TestRunLogServiceAdapter_ListRuns_RefetchesFromStoreEachCall(t *testing.T) {
	date := time.Date(2024, 6, 14, 0, 0, 0, 0, time.UTC)
	repo := &stubRunLogRepo{
		rows: []*model.RunLog{
			{ID: "run-1", UserID: "user-1", Date: date, DistanceKm: 5, DurationMin: 30, Effort: 5},
		},
	}
	svc := newTestServiceAdapter(t, repo)

	runs, _, _, err := svc.ListRuns(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("ListRuns() error = %v", err)
	}
	if len(runs) != 1 {
		t.Fatalf("1回目 runs = %d entries, want 1", len(runs))
	}
	if repo.listCalls != 1 {
		t.Fatalf("listCalls = %d, want 1", repo.listCalls)
	}

	// ストア側に別経路で行が追加された状況
	repo.rows = append(repo.rows, &model.RunLog{
		ID: "run-2", UserID: "user-1", Date: date.AddDate(0, 0, 1), DistanceKm: 8, DurationMin: 48, Effort: 7,
	})

	runs, weekly, _, err := svc.ListRuns(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("ListRuns() error = %v", err)
	}
	if repo.listCalls != 2 {
		t.Errorf("listCalls = %d, want 2（キャッシュ済みアダプタでも再取得する）", repo.listCalls)
	}
	if len(runs) != 2 {
		t.Errorf("2回目 runs = %d entries, want 2（ストアの最新行に追従）", len(runs))
	}
	if weekly.RunCount == 1 {
		t.Error("統計が1回目の取得結果のまま再計算されていない")
	}
}

// 他ユーザーの行IDを指定した削除がストアの行に影響しないことを検証
func TestRunLogServiceAdapter_DeleteRun_OtherUsersRunSurvives(t *testing.T) {
	date := time.Date(2024, 6, 14, 0, 0, 0, 0, time.UTC)
	repo := &stubRunLogRepo{
		rows: []*model.RunLog{
			{ID: "run-theirs", UserID: "user-2", Date: date, DistanceKm: 10, DurationMin: 55, Effort: 8},
		},
	}
	svc := newTestServiceAdapter(t, repo)

	if err := svc.DeleteRun(context.Background(), "user-1", "run-theirs"); err != nil {
		t.Fatalf("DeleteRun() error = %v, want nil（冪等なno-op）", err)
	}

	survived, err := repo.ListByUserID(context.Background(), "user-2")
	if err != nil {
		t.Fatalf("ListByUserID() error = %v", err)
	}
	if len(survived) != 1 || survived[0].ID != "run-theirs" {
		t.Errorf("user-2の行が削除されている: %+v", survived)
	}
}

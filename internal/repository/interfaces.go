// Package repository はデータ永続化のインターフェースを定義する。
package repository

import (
	"context"
	"time"

	"github.com/hitoshi/stridelog/internal/model"
)

// UserRepository はユーザーデータの永続化インターフェース。
type UserRepository interface {
	// FindByID は指定IDのユーザーを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.User, error)

	// FindByEmail はメールアドレスでユーザーを検索する。見つからない場合はnilを返す。
	FindByEmail(ctx context.Context, email string) (*model.User, error)

	// Create はユーザーを作成する。メールアドレス重複時はエラーを返す。
	Create(ctx context.Context, user *model.User) error

	// DeleteByID は指定IDのユーザーを削除する。
	// 関連するsessions、run_logsはCASCADE削除される。
	DeleteByID(ctx context.Context, id string) error
}

// SessionRepository はセッションデータの永続化インターフェース。
type SessionRepository interface {
	// Create はセッションを作成する。
	Create(ctx context.Context, session *model.Session) error
	// FindByID は指定IDのセッションを取得する。期限切れの場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Session, error)
	// DeleteByID は指定IDのセッションを削除する。
	DeleteByID(ctx context.Context, id string) error
	// DeleteByUserID は指定ユーザーの全セッションを削除する。
	DeleteByUserID(ctx context.Context, userID string) error
	// DeleteExpired は期限切れセッションを削除し、削除件数を返す。
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

// RunLogRepository はラン記録の永続化インターフェース。
// ランログアダプタから見た「リモート行ストア」に相当する。
type RunLogRepository interface {
	// ListByUserID はユーザーの全ラン記録を日付降順で返す。
	// 同一日付の順序はストアの自然順（created_at降順）で安定している。
	ListByUserID(ctx context.Context, userID string) ([]*model.RunLog, error)

	// Create はラン記録を作成し、ストアが採番したタイムスタンプ込みの行を返す。
	Create(ctx context.Context, run *model.RunLog) (*model.RunLog, error)

	// Update は指定ユーザーが所有する行の指定フィールドのみを部分更新し、更新後の行を返す。
	// updated_atはストア側でNOW()に更新される。
	// 対象行が存在しないか所有者が異なる場合はnilを返す。
	Update(ctx context.Context, id, userID string, patch RunLogPatch) (*model.RunLog, error)

	// Delete は指定ユーザーが所有する指定IDのラン記録を削除する。
	// 対象行が存在しないか所有者が異なる場合もエラーとせず、削除件数を返す。
	Delete(ctx context.Context, id, userID string) (int64, error)
}

// RunLogPatch はラン記録の部分更新内容を表す。
// nilのフィールドは変更しない。
type RunLogPatch struct {
	Date        *time.Time
	DistanceKm  *float64
	DurationMin *float64
	Effort      *int
	Notes       *string
}

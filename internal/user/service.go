// Package user はユーザー管理のドメインロジックを提供する。
package user

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/hitoshi/stridelog/internal/model"
	"github.com/hitoshi/stridelog/internal/repository"
)

// RunLogDeleter はラン記録の一括削除インターフェース。
type RunLogDeleter interface {
	DeleteByUserID(ctx context.Context, userID string) (int64, error)
}

// Service はユーザー管理のサービス層。
// 退会処理のビジネスロジックを提供する。
type Service struct {
	userRepo      repository.UserRepository
	sessionRepo   repository.SessionRepository
	runLogDeleter RunLogDeleter
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(
	userRepo repository.UserRepository,
	sessionRepo repository.SessionRepository,
	runLogDeleter RunLogDeleter,
) *Service {
	return &Service{
		userRepo:      userRepo,
		sessionRepo:   sessionRepo,
		runLogDeleter: runLogDeleter,
	}
}

// Withdraw はユーザーの退会処理を実行する。
// 削除順序: run_logs → sessions → user
// 行はCASCADEでも削除されるが、件数をログに残すため明示的に消す。
func (s *Service) Withdraw(ctx context.Context, userID string) error {
	// ユーザー存在確認
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("ユーザーの取得に失敗しました: %w", err)
	}
	if user == nil {
		return model.NewUserNotFoundError()
	}

	slog.Info("退会処理を開始します",
		slog.String("user_id", userID),
	)

	// 1. ラン記録を削除
	if s.runLogDeleter != nil {
		deleted, err := s.runLogDeleter.DeleteByUserID(ctx, userID)
		if err != nil {
			return fmt.Errorf("ラン記録の削除に失敗しました: %w", err)
		}
		slog.Info("ラン記録を削除しました",
			slog.String("user_id", userID),
			slog.Int64("deleted_count", deleted),
		)
	}

	// 2. セッションを削除
	if s.sessionRepo != nil {
		if err := s.sessionRepo.DeleteByUserID(ctx, userID); err != nil {
			return fmt.Errorf("セッションの削除に失敗しました: %w", err)
		}
	}

	// 3. ユーザーを削除
	if err := s.userRepo.DeleteByID(ctx, userID); err != nil {
		return fmt.Errorf("ユーザーの削除に失敗しました: %w", err)
	}

	slog.Info("退会処理が完了しました",
		slog.String("user_id", userID),
	)

	return nil
}

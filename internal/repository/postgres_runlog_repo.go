package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/hitoshi/stridelog/internal/model"
)

// PostgresRunLogRepo はPostgreSQLを使用したラン記録リポジトリ。
type PostgresRunLogRepo struct {
	db *sql.DB
}

// NewPostgresRunLogRepo はPostgresRunLogRepoを生成する。
func NewPostgresRunLogRepo(db *sql.DB) *PostgresRunLogRepo {
	return &PostgresRunLogRepo{db: db}
}

// ListByUserID はユーザーの全ラン記録を日付降順で返す。
// 同一日付内の順序はcreated_at降順で安定させる。
func (r *PostgresRunLogRepo) ListByUserID(ctx context.Context, userID string) ([]*model.RunLog, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user_id, date, distance_km, duration_min, effort, notes, created_at, updated_at
		 FROM run_logs WHERE user_id = $1 ORDER BY date DESC, created_at DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("ラン記録一覧の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	var runs []*model.RunLog
	for rows.Next() {
		run := &model.RunLog{}
		if err := rows.Scan(&run.ID, &run.UserID, &run.Date, &run.DistanceKm, &run.DurationMin, &run.Effort, &run.Notes, &run.CreatedAt, &run.UpdatedAt); err != nil {
			return nil, fmt.Errorf("ラン記録行の読み取りに失敗しました: %w", err)
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ラン記録一覧の走査に失敗しました: %w", err)
	}
	return runs, nil
}

// Create はラン記録を作成し、ストアが採番したID・タイムスタンプ込みの行を返す。
// IDはストア側の責務として常にここで採番し、呼び出し側の指定は受け付けない。
func (r *PostgresRunLogRepo) Create(ctx context.Context, run *model.RunLog) (*model.RunLog, error) {
	created := &model.RunLog{}
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO run_logs (id, user_id, date, distance_km, duration_min, effort, notes)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING id, user_id, date, distance_km, duration_min, effort, notes, created_at, updated_at`,
		uuid.New().String(), run.UserID, run.Date, run.DistanceKm, run.DurationMin, run.Effort, run.Notes,
	).Scan(&created.ID, &created.UserID, &created.Date, &created.DistanceKm, &created.DurationMin, &created.Effort, &created.Notes, &created.CreatedAt, &created.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("ラン記録の作成に失敗しました: %w", err)
	}
	return created, nil
}

// Update は指定ユーザーが所有する行の指定フィールドのみを部分更新し、更新後の行を返す。
// nilのフィールドはCOALESCEにより既存値を維持する。updated_atはストア側でNOW()に更新する。
// user_id述語により他ユーザーの行は対象外となり、その場合もnilを返す。
func (r *PostgresRunLogRepo) Update(ctx context.Context, id, userID string, patch RunLogPatch) (*model.RunLog, error) {
	updated := &model.RunLog{}
	err := r.db.QueryRowContext(ctx,
		`UPDATE run_logs SET
		     date         = COALESCE($3::date, date),
		     distance_km  = COALESCE($4::double precision, distance_km),
		     duration_min = COALESCE($5::double precision, duration_min),
		     effort       = COALESCE($6::integer, effort),
		     notes        = COALESCE($7::text, notes),
		     updated_at   = NOW()
		 WHERE id = $1 AND user_id = $2
		 RETURNING id, user_id, date, distance_km, duration_min, effort, notes, created_at, updated_at`,
		id, userID, patch.Date, patch.DistanceKm, patch.DurationMin, patch.Effort, patch.Notes,
	).Scan(&updated.ID, &updated.UserID, &updated.Date, &updated.DistanceKm, &updated.DurationMin, &updated.Effort, &updated.Notes, &updated.CreatedAt, &updated.UpdatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("ラン記録の更新に失敗しました: %w", err)
	}

	return updated, nil
}

// Delete は指定ユーザーが所有する指定IDのラン記録を削除し、削除件数を返す。
// user_id述語により他ユーザーの行は削除できない。
// 対象行が存在しない場合もエラーとしない（削除の冪等性のため）。
func (r *PostgresRunLogRepo) Delete(ctx context.Context, id, userID string) (int64, error) {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM run_logs WHERE id = $1 AND user_id = $2`,
		id, userID,
	)
	if err != nil {
		return 0, fmt.Errorf("ラン記録の削除に失敗しました: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("削除結果の取得に失敗しました: %w", err)
	}
	return rowsAffected, nil
}

// DeleteByUserID は指定ユーザーの全ラン記録を削除し、削除件数を返す。
// 退会処理から呼ばれる。
func (r *PostgresRunLogRepo) DeleteByUserID(ctx context.Context, userID string) (int64, error) {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM run_logs WHERE user_id = $1`,
		userID,
	)
	if err != nil {
		return 0, fmt.Errorf("ラン記録の一括削除に失敗しました: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("削除結果の取得に失敗しました: %w", err)
	}
	return rowsAffected, nil
}

// compile-time interface check
var _ RunLogRepository = (*PostgresRunLogRepo)(nil)

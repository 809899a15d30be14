package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/hitoshi/stridelog/internal/middleware"
	"github.com/hitoshi/stridelog/internal/model"
	"github.com/hitoshi/stridelog/internal/repository"
	"github.com/hitoshi/stridelog/internal/runlog"
)

// runDateLayout はAPI境界でのラン日付の表現形式。
const runDateLayout = "2006-01-02"

// RunLogServiceInterface はランハンドラーが必要とするサービスインターフェース。
type RunLogServiceInterface interface {
	// ListRuns はユーザーの全ラン記録と導出統計を返す。
	ListRuns(ctx context.Context, userID string) ([]model.RunLog, model.WeeklyStats, model.LifetimeStats, error)
	// AddRun はラン記録を作成する。
	AddRun(ctx context.Context, userID string, input runlog.NewRun) (*model.RunLog, error)
	// UpdateRun はラン記録を部分更新する。
	UpdateRun(ctx context.Context, userID, runID string, patch repository.RunLogPatch) (*model.RunLog, error)
	// DeleteRun はラン記録を削除する。
	DeleteRun(ctx context.Context, userID, runID string) error
}

// RunHandler はラン記録管理のHTTPハンドラー。
type RunHandler struct {
	service RunLogServiceInterface
}

// NewRunHandler はRunHandlerを生成する。
func NewRunHandler(service RunLogServiceInterface) *RunHandler {
	return &RunHandler{
		service: service,
	}
}

// createRunRequest はラン記録作成リクエストのボディ。
type createRunRequest struct {
	Date        string  `json:"date"` // YYYY-MM-DD
	DistanceKm  float64 `json:"distance_km"`
	DurationMin float64 `json:"duration_min"`
	Effort      int     `json:"effort"`
	Notes       string  `json:"notes"`
}

// updateRunRequest はラン記録更新リクエストのボディ。
// nilのフィールドは変更しない。
type updateRunRequest struct {
	Date        *string  `json:"date"`
	DistanceKm  *float64 `json:"distance_km"`
	DurationMin *float64 `json:"duration_min"`
	Effort      *int     `json:"effort"`
	Notes       *string  `json:"notes"`
}

// runResponse はラン記録のAPIレスポンス。
type runResponse struct {
	ID          string  `json:"id"`
	Date        string  `json:"date"` // YYYY-MM-DD
	DistanceKm  float64 `json:"distance_km"`
	DurationMin float64 `json:"duration_min"`
	Effort      int     `json:"effort"`
	Notes       string  `json:"notes"`
	CreatedAt   string  `json:"created_at"`
	UpdatedAt   string  `json:"updated_at"`
}

// weeklyStatsResponse は直近7日間統計のAPIレスポンス。
type weeklyStatsResponse struct {
	TotalDistanceKm     float64 `json:"total_distance_km"`
	AveragePaceMinPerKm float64 `json:"average_pace_min_per_km"`
	RunCount            int     `json:"run_count"`
}

// lifetimeStatsResponse は全期間統計のAPIレスポンス。
type lifetimeStatsResponse struct {
	TotalDistanceKm  float64 `json:"total_distance_km"`
	TotalDurationMin float64 `json:"total_duration_min"`
	AverageEffort    float64 `json:"average_effort"`
}

// runListResponse はラン記録一覧のAPIレスポンス。
type runListResponse struct {
	Runs          []runResponse         `json:"runs"`
	WeeklyStats   weeklyStatsResponse   `json:"weekly_stats"`
	LifetimeStats lifetimeStatsResponse `json:"lifetime_stats"`
}

// ListRuns はラン記録一覧と統計を返す。
// GET /api/runs
func (h *RunHandler) ListRuns(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	runs, weekly, lifetime, err := h.service.ListRuns(r.Context(), userID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	resp := runListResponse{
		Runs: make([]runResponse, len(runs)),
		WeeklyStats: weeklyStatsResponse{
			TotalDistanceKm:     weekly.TotalDistanceKm,
			AveragePaceMinPerKm: weekly.AveragePaceMinPerKm,
			RunCount:            weekly.RunCount,
		},
		LifetimeStats: lifetimeStatsResponse{
			TotalDistanceKm:  lifetime.TotalDistanceKm,
			TotalDurationMin: lifetime.TotalDurationMin,
			AverageEffort:    lifetime.AverageEffort,
		},
	}
	for i := range runs {
		resp.Runs[i] = toRunResponse(&runs[i])
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

// CreateRun はラン記録の作成を処理する。
// POST /api/runs
func (h *RunHandler) CreateRun(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	var req createRunRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, &model.APIError{
			Code:     "INVALID_REQUEST",
			Message:  "リクエストボディの解析に失敗しました。",
			Category: "validation",
			Action:   "正しいJSON形式でリクエストしてください。",
		})
		return
	}

	date, err := parseRunDate(req.Date)
	if err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewInvalidRunInputError(err.Error()))
		return
	}
	if err := validateRunMetrics(req.DistanceKm, req.DurationMin, req.Effort); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewInvalidRunInputError(err.Error()))
		return
	}

	created, err := h.service.AddRun(r.Context(), userID, runlog.NewRun{
		Date:        date,
		DistanceKm:  req.DistanceKm,
		DurationMin: req.DurationMin,
		Effort:      req.Effort,
		Notes:       req.Notes,
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(toRunResponse(created))
}

// UpdateRun はラン記録の部分更新を処理する。
// PATCH /api/runs/:id
func (h *RunHandler) UpdateRun(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	runID := chi.URLParam(r, "id")

	var req updateRunRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, &model.APIError{
			Code:     "INVALID_REQUEST",
			Message:  "リクエストボディの解析に失敗しました。",
			Category: "validation",
			Action:   "正しいJSON形式でリクエストしてください。",
		})
		return
	}

	patch, err := buildRunPatch(&req)
	if err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewInvalidRunInputError(err.Error()))
		return
	}

	updated, err := h.service.UpdateRun(r.Context(), userID, runID, patch)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(toRunResponse(updated))
}

// DeleteRun はラン記録の削除を処理する。
// DELETE /api/runs/:id
func (h *RunHandler) DeleteRun(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	runID := chi.URLParam(r, "id")

	if err := h.service.DeleteRun(r.Context(), userID, runID); err != nil {
		handleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// --- ヘルパー関数 ---

// parseRunDate はYYYY-MM-DD形式の日付文字列を解析する。
func parseRunDate(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, errors.New("日付が空です")
	}
	date, err := time.Parse(runDateLayout, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("日付はYYYY-MM-DD形式で指定してください: %s", value)
	}
	return date, nil
}

// validateRunMetrics は距離・時間・努力度の値域を検証する。
func validateRunMetrics(distanceKm, durationMin float64, effort int) error {
	if distanceKm <= 0 {
		return errors.New("距離は正の数で指定してください")
	}
	if durationMin <= 0 {
		return errors.New("時間は正の数で指定してください")
	}
	if effort < 1 || effort > 10 {
		return errors.New("努力度は1から10の整数で指定してください")
	}
	return nil
}

// buildRunPatch は更新リクエストを検証してRunLogPatchに変換する。
func buildRunPatch(req *updateRunRequest) (repository.RunLogPatch, error) {
	var patch repository.RunLogPatch

	if req.Date != nil {
		date, err := parseRunDate(*req.Date)
		if err != nil {
			return repository.RunLogPatch{}, err
		}
		patch.Date = &date
	}
	if req.DistanceKm != nil {
		if *req.DistanceKm <= 0 {
			return repository.RunLogPatch{}, errors.New("距離は正の数で指定してください")
		}
		patch.DistanceKm = req.DistanceKm
	}
	if req.DurationMin != nil {
		if *req.DurationMin <= 0 {
			return repository.RunLogPatch{}, errors.New("時間は正の数で指定してください")
		}
		patch.DurationMin = req.DurationMin
	}
	if req.Effort != nil {
		if *req.Effort < 1 || *req.Effort > 10 {
			return repository.RunLogPatch{}, errors.New("努力度は1から10の整数で指定してください")
		}
		patch.Effort = req.Effort
	}
	if req.Notes != nil {
		patch.Notes = req.Notes
	}

	return patch, nil
}

// toRunResponse はmodel.RunLogからAPIレスポンスに変換する。
func toRunResponse(run *model.RunLog) runResponse {
	return runResponse{
		ID:          run.ID,
		Date:        run.Date.Format(runDateLayout),
		DistanceKm:  run.DistanceKm,
		DurationMin: run.DurationMin,
		Effort:      run.Effort,
		Notes:       run.Notes,
		CreatedAt:   run.CreatedAt.Format(time.RFC3339),
		UpdatedAt:   run.UpdatedAt.Format(time.RFC3339),
	}
}

// apiErrorResponse は統一エラーフォーマットのレスポンス。
type apiErrorResponse struct {
	Code     string `json:"code"`
	Message  string `json:"message"`
	Category string `json:"category"`
	Action   string `json:"action"`
}

// writeAPIErrorResponse は統一エラーフォーマットでエラーレスポンスを書き込む。
func writeAPIErrorResponse(w http.ResponseWriter, statusCode int, apiErr *model.APIError) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(apiErrorResponse{
		Code:     apiErr.Code,
		Message:  apiErr.Message,
		Category: apiErr.Category,
		Action:   apiErr.Action,
	})
}

// handleServiceError はサービス層から返されたエラーを適切なHTTPステータスコードに変換する。
func handleServiceError(w http.ResponseWriter, err error) {
	var apiErr *model.APIError
	if errors.As(err, &apiErr) {
		statusCode := mapAPIErrorToHTTPStatus(apiErr)
		writeAPIErrorResponse(w, statusCode, apiErr)
		return
	}

	// APIError以外のエラーは内部サーバーエラーとして扱う
	slog.Error("internal server error", slog.String("error", err.Error()))
	writeAPIErrorResponse(w, http.StatusInternalServerError, &model.APIError{
		Code:     "INTERNAL_ERROR",
		Message:  "内部エラーが発生しました。",
		Category: "system",
		Action:   "しばらく待ってから再度お試しください。",
	})
}

// mapAPIErrorToHTTPStatus はAPIErrorコードからHTTPステータスコードにマッピングする。
func mapAPIErrorToHTTPStatus(apiErr *model.APIError) int {
	switch apiErr.Code {
	case model.ErrCodeUnauthorized, model.ErrCodeAbsentSession, model.ErrCodeInvalidCredentials:
		return http.StatusUnauthorized
	case model.ErrCodeEmailTaken:
		return http.StatusConflict
	case model.ErrCodeInvalidRunInput:
		return http.StatusBadRequest
	case model.ErrCodeRunNotFound, model.ErrCodeUserNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

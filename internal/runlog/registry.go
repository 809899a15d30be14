package runlog

import (
	"sync"
	"time"

	"github.com/hitoshi/stridelog/internal/repository"
)

// RegistryConfig はアダプタレジストリの設定を保持する。
type RegistryConfig struct {
	TTL             time.Duration // 最終アクセスからアダプタを破棄するまでの時間
	CleanupInterval time.Duration // 期限切れエントリのクリーンアップ間隔
}

// DefaultRegistryConfig はデフォルトのレジストリ設定を返す。
func DefaultRegistryConfig() RegistryConfig {
	return RegistryConfig{
		TTL:             30 * time.Minute,
		CleanupInterval: 5 * time.Minute,
	}
}

// adapterEntry はユーザーごとのアダプタとアクセス時刻を保持する。
type adapterEntry struct {
	adapter    *Adapter
	lastAccess time.Time
}

// Registry はユーザーごとのAdapterを管理する。
// アダプタはユーザー単位で1つだけ存在し、同一ユーザーの全リクエストが共有する。
// 一定時間アクセスのないアダプタはバックグラウンドで破棄される。
type Registry struct {
	repo   repository.RunLogRepository
	config RegistryConfig

	mu       sync.RWMutex
	adapters map[string]*adapterEntry

	stopCh chan struct{}
}

// NewRegistry は新しいRegistryを生成する。
// バックグラウンドで期限切れエントリのクリーンアップを開始する。
func NewRegistry(repo repository.RunLogRepository, config RegistryConfig) *Registry {
	r := &Registry{
		repo:     repo,
		config:   config,
		adapters: make(map[string]*adapterEntry),
		stopCh:   make(chan struct{}),
	}

	go r.cleanupLoop()

	return r
}

// Stop はクリーンアップのバックグラウンドゴルーチンを停止する。
func (r *Registry) Stop() {
	close(r.stopCh)
}

// Get は指定ユーザーのアダプタを取得または作成する。
// 新規作成されたアダプタは未初期化であり、呼び出し側がInitializeを呼ぶこと。
func (r *Registry) Get(userID string) *Adapter {
	r.mu.RLock()
	entry, exists := r.adapters[userID]
	r.mu.RUnlock()

	if exists {
		r.mu.Lock()
		entry.lastAccess = time.Now()
		r.mu.Unlock()
		return entry.adapter
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	// ダブルチェック
	if entry, exists := r.adapters[userID]; exists {
		entry.lastAccess = time.Now()
		return entry.adapter
	}

	adapter := NewAdapter(r.repo)
	r.adapters[userID] = &adapterEntry{
		adapter:    adapter,
		lastAccess: time.Now(),
	}

	return adapter
}

// Remove は指定ユーザーのアダプタを破棄する。
// ログアウトや退会時に呼ばれる。
func (r *Registry) Remove(userID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.adapters, userID)
}

// Count は現在管理されているアダプタのエントリ数を返す。
// テストおよびメトリクス用。
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.adapters)
}

// cleanupLoop はバックグラウンドで期限切れエントリを定期的にクリーンアップする。
func (r *Registry) cleanupLoop() {
	ticker := time.NewTicker(r.config.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			r.cleanup()
		case <-r.stopCh:
			return
		}
	}
}

// cleanup は最終アクセス時刻がTTLを超えたエントリを削除する。
func (r *Registry) cleanup() {
	now := time.Now()

	r.mu.Lock()
	for userID, entry := range r.adapters {
		if now.Sub(entry.lastAccess) > r.config.TTL {
			delete(r.adapters, userID)
		}
	}
	r.mu.Unlock()
}

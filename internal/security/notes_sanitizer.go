// Package security はアプリケーションのセキュリティ機能を提供する。
//
// NotesSanitizerService はラン記録のメモ欄の入力をサニタイズし、
// XSS攻撃などのセキュリティリスクからユーザーを保護する。
// bluemondayライブラリの厳格なポリシーで、HTMLタグを一切許可しない。
package security

import (
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// NotesSanitizerService はメモ欄サニタイズ機能のインターフェースを定義する。
// ラン記録の保存・更新前に使用される。
type NotesSanitizerService interface {
	// Sanitize はメモ欄の入力をサニタイズしてプレーンテキストを返す。
	// メモは自由記述のテキストでありHTMLを含む想定はないため、
	// 全てのタグを除去する（script, styleはタグ内容ごと除去）。
	// 前後の空白は取り除く。空文字列の入力には空文字列を返す。
	// 同一入力に対して常に同一出力を返す（冪等）。
	Sanitize(raw string) string
}

// notesSanitizer はNotesSanitizerServiceの実装。
// bluemondayのポリシーを保持し、スレッドセーフにサニタイズ処理を行う。
type notesSanitizer struct {
	policy *bluemonday.Policy
}

// NewNotesSanitizer はNotesSanitizerServiceの新しいインスタンスを生成する。
// 許可タグを一切持たないStrictPolicyを使用する。
func NewNotesSanitizer() *notesSanitizer {
	return &notesSanitizer{
		policy: bluemonday.StrictPolicy(),
	}
}

// Sanitize はメモ欄の入力をサニタイズしてプレーンテキストを返す。
func (s *notesSanitizer) Sanitize(raw string) string {
	return strings.TrimSpace(s.policy.Sanitize(raw))
}

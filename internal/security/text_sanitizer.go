// Package security はアプリケーションのセキュリティ機能を提供する。
//
// TextSanitizer は利用者が入力した自由記述テキスト（氏名、説明文、回答など）から
// HTMLマークアップを除去する。bluemondayのStrictPolicyを使用し、全てのタグを取り除く。
// PasswordHasher はbcryptによるパスワードのハッシュ化と照合を行う。
package security

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// TextSanitizer は自由記述テキストのサニタイズ機能のインターフェースを定義する。
type TextSanitizer interface {
	// Clean はHTMLタグを除去し、前後の空白を取り除いたプレーンテキストを返す。
	// 同一入力に対して常に同一出力を返す（冪等）。
	Clean(input string) string
}

// textSanitizer はTextSanitizerの実装。
// bluemondayのポリシーはスレッドセーフに共有できる。
type textSanitizer struct {
	policy *bluemonday.Policy
}

// NewTextSanitizer はTextSanitizerの新しいインスタンスを生成する。
func NewTextSanitizer() *textSanitizer {
	return &textSanitizer{
		policy: bluemonday.StrictPolicy(),
	}
}

// Clean はHTMLタグを除去したプレーンテキストを返す。
// StrictPolicyはエンティティをエスケープして出力するため、保存用に元の文字へ戻す。
func (s *textSanitizer) Clean(input string) string {
	if input == "" {
		return ""
	}
	return strings.TrimSpace(html.UnescapeString(s.policy.Sanitize(input)))
}

// CleanPtr はnil許容の文字列をサニタイズする。
func CleanPtr(s TextSanitizer, input *string) *string {
	if input == nil {
		return nil
	}
	cleaned := s.Clean(*input)
	return &cleaned
}

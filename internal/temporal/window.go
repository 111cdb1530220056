// Package temporal は期間付きレコード（パスワード、ロール割り当て）の有効判定を提供する。
//
// 各レコードは開始日時 startAt と終了日時 endAt（nil は無期限）を持つ。
// 日時はタイムゾーンを持たないナイーブな値として扱い、内部ではUTCとして比較する。
package temporal

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// TimestampLayout はAPIで受け付ける日時文字列の固定フォーマット（24時間表記、タイムゾーンなし）。
const TimestampLayout = "2006-01-02 15:04:05"

// Clock は現在時刻を返す関数。サービス層に注入してテストで「現在」を固定する。
type Clock func() time.Time

// SystemClock はUTCの現在時刻を秒精度で返す。
// データベースのTIMESTAMP列と比較するためタイムゾーン情報は持たない。
func SystemClock() time.Time {
	return time.Now().UTC().Truncate(time.Second)
}

// Window はレコードの有効期間を表す。
type Window struct {
	StartAt time.Time
	EndAt   *time.Time // nil は無期限
}

// ActiveAt は指定時刻にこの期間が有効かどうかを返す。
// startAt <= now かつ (endAt が nil または endAt > now) のとき有効。
func (w Window) ActiveAt(now time.Time) bool {
	if w.StartAt.After(now) {
		return false
	}
	return w.EndAt == nil || w.EndAt.After(now)
}

// IsOpen は終了日時が未設定（無期限）かどうかを返す。
func (w Window) IsOpen() bool {
	return w.EndAt == nil
}

// Windowed は有効期間を持つレコードのインターフェース。
type Windowed interface {
	ValidityWindow() Window
}

// Current は指定時刻に有効なレコードのうち、開始日時が最も新しいものを返す。
// 有効なレコードが存在しない場合は第2戻り値がfalseになる。
// 同じ開始日時のレコードが複数ある場合は入力順で先のものを返す。
func Current[T Windowed](records []T, now time.Time) (T, bool) {
	var (
		best  T
		found bool
	)
	for _, r := range records {
		w := r.ValidityWindow()
		if !w.ActiveAt(now) {
			continue
		}
		if !found || w.StartAt.After(best.ValidityWindow().StartAt) {
			best = r
			found = true
		}
	}
	return best, found
}

// Active は指定時刻に有効な全レコードを開始日時の降順で返す。
func Active[T Windowed](records []T, now time.Time) []T {
	active := make([]T, 0, len(records))
	for _, r := range records {
		if r.ValidityWindow().ActiveAt(now) {
			active = append(active, r)
		}
	}
	sort.SliceStable(active, func(i, j int) bool {
		return active[i].ValidityWindow().StartAt.After(active[j].ValidityWindow().StartAt)
	})
	return active
}

// ParseError は日時文字列がTimestampLayoutに一致しない場合のエラー。
type ParseError struct {
	Field string
	Value string
}

// Error はerrorインターフェースを実装する。
func (e *ParseError) Error() string {
	return fmt.Sprintf("%s must use the format YYYY-MM-DD HH:MM:SS: %q", e.Field, e.Value)
}

// ParseTimestamp は固定フォーマットの日時文字列をUTCのtime.Timeに変換する。
// fieldはエラーメッセージに含めるフィールド名。
func ParseTimestamp(field, value string) (time.Time, error) {
	t, err := time.Parse(TimestampLayout, strings.TrimSpace(value))
	if err != nil {
		return time.Time{}, &ParseError{Field: field, Value: value}
	}
	return t.UTC(), nil
}

// FormatTimestamp はtime.TimeをTimestampLayoutの文字列に変換する。
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}

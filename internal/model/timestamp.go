package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/hitoshi/mssecurity/internal/temporal"
)

// Timestamp はAPI上で "YYYY-MM-DD HH:MM:SS" 形式に直列化される日時。
type Timestamp struct {
	time.Time
}

// NewTimestamp はtime.TimeからTimestampを生成する。
func NewTimestamp(t time.Time) Timestamp {
	return Timestamp{Time: t.UTC()}
}

// MarshalJSON は固定フォーマットの文字列として出力する。
func (t Timestamp) MarshalJSON() ([]byte, error) {
	return json.Marshal(temporal.FormatTimestamp(t.Time))
}

// TimestampPtr はnil許容のtime.TimeをTimestampに変換する。
func TimestampPtr(t *time.Time) *Timestamp {
	if t == nil {
		return nil
	}
	ts := NewTimestamp(*t)
	return &ts
}

// OptionalString はJSONのキーの有無とnullを区別して受け取る文字列。
//
//	キーなし:   Present=false
//	null:       Present=true, Valid=false
//	"value":    Present=true, Valid=true
type OptionalString struct {
	Present bool
	Valid   bool
	Value   string
}

// UnmarshalJSON はキーが存在する場合にのみ呼ばれる。
func (o *OptionalString) UnmarshalJSON(data []byte) error {
	o.Present = true
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		o.Valid = false
		o.Value = ""
		return nil
	}
	if err := json.Unmarshal(data, &o.Value); err != nil {
		return err
	}
	o.Valid = true
	return nil
}

// SomeString は値を持つOptionalStringを生成する。
func SomeString(v string) OptionalString {
	return OptionalString{Present: true, Valid: true, Value: v}
}

// NullString はnullが指定されたOptionalStringを生成する。
func NullString() OptionalString {
	return OptionalString{Present: true}
}

// OptionalFloat はJSONのキーの有無とnullを区別して受け取る数値。
// 数値のほか、数値として解釈できる文字列も受け付ける。
type OptionalFloat struct {
	Present bool
	Valid   bool
	Value   float64
}

// UnmarshalJSON はキーが存在する場合にのみ呼ばれる。
func (o *OptionalFloat) UnmarshalJSON(data []byte) error {
	o.Present = true
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		o.Valid = false
		o.Value = 0
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		if strings.TrimSpace(s) == "" {
			o.Valid = false
			return nil
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			return fmt.Errorf("invalid number %q", s)
		}
		o.Value, o.Valid = v, true
		return nil
	}
	if err := json.Unmarshal(data, &o.Value); err != nil {
		return err
	}
	o.Valid = true
	return nil
}

// Ptr は値をポインタで返す。nullの場合はnilを返す。
func (o OptionalFloat) Ptr() *float64 {
	if !o.Valid {
		return nil
	}
	v := o.Value
	return &v
}

// SomeFloat は値を持つOptionalFloatを生成する。
func SomeFloat(v float64) OptionalFloat {
	return OptionalFloat{Present: true, Valid: true, Value: v}
}

// Ptr は値をポインタで返す。nullの場合はnilを返す。
func (o OptionalString) Ptr() *string {
	if !o.Valid {
		return nil
	}
	v := o.Value
	return &v
}

// ParseTimestamp は日時文字列を解析する。形式不正はValidationErrorを返す。
func ParseTimestamp(field, value string) (Timestamp, error) {
	t, err := temporal.ParseTimestamp(field, value)
	if err != nil {
		return Timestamp{}, NewValidationError(err.Error())
	}
	return NewTimestamp(t), nil
}

// ParseOptionalTimestamp はnull許容の日時を解析する。nullの場合はnilを返す。
func ParseOptionalTimestamp(field string, value OptionalString) (*Timestamp, error) {
	if !value.Valid {
		return nil, nil
	}
	ts, err := ParseTimestamp(field, value.Value)
	if err != nil {
		return nil, err
	}
	return &ts, nil
}

// ParseWindow は startAt と endAt を解析する。前後関係は検査しない。
func ParseWindow(startAt string, endAt OptionalString) (Timestamp, *Timestamp, error) {
	start, err := ParseTimestamp("startAt", startAt)
	if err != nil {
		return Timestamp{}, nil, err
	}
	end, err := ParseOptionalTimestamp("endAt", endAt)
	if err != nil {
		return Timestamp{}, nil, err
	}
	return start, end, nil
}

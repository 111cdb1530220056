package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/hitoshi/mssecurity/internal/model"
)

// maxJSONBodyBytes はJSONリクエストボディの上限。
const maxJSONBodyBytes = 1 << 20

// requestValidator はリクエストボディの形式検証に使う共有インスタンス。
// 必須チェックはサービス層が行い、ここでは値がある場合の形式と長さのみを検証する。
var requestValidator = newRequestValidator()

func newRequestValidator() *validator.Validate {
	v := validator.New()

	// エラーメッセージにはJSONのキー名を使う
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			return f.Name
		}
		return name
	})

	// キーなしとnullは値なしとして扱い、omitemptyで検証をスキップさせる
	v.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
		o, ok := field.Interface().(model.OptionalString)
		if !ok || !o.Valid {
			return nil
		}
		return o.Value
	}, model.OptionalString{})
	v.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
		o, ok := field.Interface().(model.OptionalFloat)
		if !ok || !o.Valid {
			return nil
		}
		return o.Value
	}, model.OptionalFloat{})

	return v
}

// decodeJSON はリクエストボディをdstにデコードし、形式を検証する。
// ボディが空の場合は全キーなしとして扱う。
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) *model.APIError {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBodyBytes)

	if err := json.NewDecoder(r.Body).Decode(dst); err != nil && !errors.Is(err, io.EOF) {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return model.NewValidationError("Request body too large")
		}
		return model.NewValidationError("Invalid JSON body")
	}

	return validateRequest(dst)
}

// validateRequest は構造体タグに従って形式を検証し、最初の違反をValidationErrorとして返す。
func validateRequest(dst any) *model.APIError {
	err := requestValidator.Struct(dst)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return model.NewValidationError(err.Error())
	}
	return model.NewValidationError(describeFieldError(fieldErrs[0]))
}

// describeFieldError は検証エラーをクライアント向けのメッセージに変換する。
func describeFieldError(fe validator.FieldError) string {
	switch fe.Tag() {
	case "email":
		return fmt.Sprintf("%s must be a valid email address", fe.Field())
	case "ip":
		return fmt.Sprintf("%s must be a valid IP address", fe.Field())
	case "latitude":
		return fmt.Sprintf("%s must be between -90 and 90", fe.Field())
	case "longitude":
		return fmt.Sprintf("%s must be between -180 and 180", fe.Field())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", fe.Field(), fe.Param())
	default:
		return fmt.Sprintf("%s is invalid", fe.Field())
	}
}

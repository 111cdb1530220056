package handler

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/hitoshi/mssecurity/internal/model"
)

// idPattern は数値IDのパスパラメータにマッチする正規表現。
// 数値以外のセグメントは画像取得ルートなど別のルートに回るか404になる。
const idPattern = "[0-9]+"

var (
	notFoundRoute    = model.NewNotFoundError("Resource not found")
	methodNotAllowed = &model.APIError{Code: "METHOD_NOT_ALLOWED", Message: "Method not allowed"}
)

// int64Param は数値のパスパラメータを取得する。解析できない場合は404を書き込みfalseを返す。
func int64Param(w http.ResponseWriter, r *http.Request, key string) (int64, bool) {
	raw := chi.URLParam(r, key)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		writeAPIErrorResponse(w, http.StatusNotFound, notFoundRoute)
		return 0, false
	}
	return id, true
}

// uuidParam はUUIDのパスパラメータを取得する。形式が不正な場合は404を書き込みfalseを返す。
func uuidParam(w http.ResponseWriter, r *http.Request, key string) (string, bool) {
	id, err := uuid.Parse(chi.URLParam(r, key))
	if err != nil {
		writeAPIErrorResponse(w, http.StatusNotFound, notFoundRoute)
		return "", false
	}
	return id.String(), true
}

package handler

import (
	"errors"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"

	"github.com/hitoshi/mssecurity/internal/account"
	"github.com/hitoshi/mssecurity/internal/model"
	"github.com/hitoshi/mssecurity/internal/storage"
)

// DefaultUploadMaxBytes はマルチパートリクエスト全体のデフォルト上限（10MiB）。
const DefaultUploadMaxBytes int64 = 10 << 20

// photoField はマルチパートで画像を受け取るフィールド名。
const photoField = "photo"

// multipartRequest は解析済みのマルチパートリクエスト。
type multipartRequest struct {
	form  *multipart.Form
	photo *account.Upload
	file  multipart.File
}

// value はテキストフィールドの値をキーの有無を区別して返す。
func (m *multipartRequest) value(key string) model.OptionalString {
	if m.form == nil {
		return model.OptionalString{}
	}
	values, ok := m.form.Value[key]
	if !ok || len(values) == 0 {
		return model.OptionalString{}
	}
	return model.SomeString(values[0])
}

// Close は開いた画像ファイルと一時ファイルを解放する。
func (m *multipartRequest) Close() {
	if m.file != nil {
		m.file.Close()
	}
	if m.form != nil {
		m.form.RemoveAll()
	}
}

// parseMultipart はマルチパートリクエストを解析し、photoフィールドの画像を開く。
// 画像がない場合はphotoがnilになる。呼び出し側はCloseを呼ぶこと。
func parseMultipart(w http.ResponseWriter, r *http.Request, maxBytes int64) (*multipartRequest, *model.APIError) {
	if maxBytes <= 0 {
		maxBytes = DefaultUploadMaxBytes
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes)

	if err := r.ParseMultipartForm(maxBytes); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return nil, model.NewValidationError("Uploaded file is too large")
		}
		if errors.Is(err, http.ErrNotMultipart) {
			return &multipartRequest{}, nil
		}
		return nil, model.NewValidationError("Invalid multipart form")
	}

	req := &multipartRequest{form: r.MultipartForm}
	headers := r.MultipartForm.File[photoField]
	if len(headers) == 0 || headers[0].Filename == "" {
		return req, nil
	}

	f, err := headers[0].Open()
	if err != nil {
		req.Close()
		return nil, model.NewValidationError("Invalid multipart form")
	}
	req.file = f
	req.photo = &account.Upload{Filename: headers[0].Filename, Content: f}
	return req, nil
}

// serveImage はアップロード先ディレクトリから画像を返す。
// ファイル名にパス区切りや危険な文字が含まれる場合、またはファイルが存在しない場合は404を返す。
func serveImage(w http.ResponseWriter, r *http.Request, dir, filename string) {
	if filename == "" || storage.SecureFilename(filename) != filename {
		writeAPIErrorResponse(w, http.StatusNotFound, model.NewNotFoundError("Image not found"))
		return
	}

	path := filepath.Join(dir, filename)
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		writeAPIErrorResponse(w, http.StatusNotFound, model.NewNotFoundError("Image not found"))
		return
	}

	http.ServeFile(w, r, path)
}

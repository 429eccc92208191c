// Package form разбирает multipart-запросы с единственным файлом.
package form

import (
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"

	"github.com/magabrotheeeer/course-seller/internal/apperr"
	"github.com/magabrotheeeer/course-seller/internal/media"
)

// FileField имя поля с файлом во всех формах.
const FileField = "file"

const maxMemory = 32 << 20

// Parse разбирает multipart-форму. Тело не в multipart допускается, тогда
// значения берутся из urlencoded-формы.
func Parse(r *http.Request) error {
	err := r.ParseMultipartForm(maxMemory)
	if errors.Is(err, http.ErrNotMultipart) {
		err = r.ParseForm()
	}
	if err != nil {
		return apperr.Validation("invalid form data")
	}
	return nil
}

// File возвращает загруженный файл или nil, если поле не передано.
// Вызывающий закрывает файл через возвращаемую функцию.
func File(r *http.Request) (*media.File, func(), error) {
	const op = "form.File"

	f, header, err := r.FormFile(FileField)
	if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
		return nil, func() {}, nil
	}
	if err != nil {
		return nil, func() {}, fmt.Errorf("%s: %w", op, err)
	}
	return &media.File{
		Name:        header.Filename,
		ContentType: contentType(header),
		Body:        f,
	}, func() { _ = f.Close() }, nil
}

func contentType(h *multipart.FileHeader) string {
	if ct := h.Header.Get("Content-Type"); ct != "" {
		return ct
	}
	return "application/octet-stream"
}

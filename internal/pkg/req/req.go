/*
Package req provides helper functions for HTTP request parsing and data binding.

Bridge handlers decode small JSON bodies; BindJSON enforces the content type,
rejects unknown fields and trailing data, and caps the body size.
*/
package req

import (
	"encoding/json"
	"net/http"
	"strings"

	"portalsync/internal/pkg/errs"
)

// MaxBodyBytes caps every JSON request body accepted by the bridge.
const MaxBodyBytes int64 = 64 << 10 // 64 KB

// BindJSON decodes the JSON request body into dst.
func BindJSON(w http.ResponseWriter, r *http.Request, dst any) *errs.CustomError {
	contentType := r.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "application/json") {
		return errs.NewError(errs.ErrUnsupportedMediaType)
	}

	r.Body = http.MaxBytesReader(w, r.Body, MaxBodyBytes)

	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()

	if err := decoder.Decode(dst); err != nil {
		return errs.NewError(errs.ErrInvalidJSONFormat)
	}

	if decoder.More() {
		return errs.NewError(errs.ErrExtraContentInBody)
	}

	return nil
}

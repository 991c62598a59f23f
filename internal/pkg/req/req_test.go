package req

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"portalsync/internal/pkg/errs"
)

type sample struct {
	Name string `json:"name"`
}

func newRequest(contentType, body string) *http.Request {
	r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	r.Header.Set("Content-Type", contentType)
	return r
}

func TestBindJSON(t *testing.T) {
	var dst sample
	err := BindJSON(httptest.NewRecorder(), newRequest("application/json", `{"name":"Ana"}`), &dst)

	require.Nil(t, err)
	assert.Equal(t, "Ana", dst.Name)
}

func TestBindJSONRejects(t *testing.T) {
	cases := []struct {
		name        string
		contentType string
		body        string
		code        int
	}{
		{"wrong content type", "text/plain", `{"name":"Ana"}`, errs.ErrUnsupportedMediaType},
		{"malformed", "application/json", `{"name":`, errs.ErrInvalidJSONFormat},
		{"unknown field", "application/json", `{"nombre":"Ana"}`, errs.ErrInvalidJSONFormat},
		{"trailing data", "application/json", `{"name":"Ana"} {"name":"Bo"}`, errs.ErrExtraContentInBody},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var dst sample
			err := BindJSON(httptest.NewRecorder(), newRequest(tc.contentType, tc.body), &dst)
			require.NotNil(t, err)
			assert.Equal(t, tc.code, err.Code)
		})
	}
}

package echoapi_test

import (
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/madrasa/core/notice"
)

func Test_noticeApi(t *testing.T) {
	f := setup(t)

	create := func(t *testing.T, body string) notice.Notice {
		rec := f.do(http.MethodPost, "/v1/notices", f.adminToken, []byte(body))
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
		var n notice.Notice
		unmarshal(t, rec, &n)
		return n
	}
	titles := func(t *testing.T, path, token string) []string {
		rec := f.do(http.MethodGet, path, token)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		var notices []notice.Notice
		unmarshal(t, rec, &notices)
		res := make([]string, 0, len(notices))
		for _, n := range notices {
			res = append(res, n.Title)
		}
		return res
	}

	older := create(t, `{"title": " Holiday ", "content": "Closed on Friday", "is_published": true, "publish_date": "2025-03-01T00:00:00Z"}`)
	lastDay := create(t, `{"title": "Exams", "content": "Exams start soon", "is_published": true,
		"publish_date": "2025-03-10T00:00:00Z", "expiry_date": "2025-03-15T00:00:00Z"}`)
	create(t, `{"title": "Expired", "content": "Old news", "is_published": true,
		"publish_date": "2025-03-01T00:00:00Z", "expiry_date": "2025-03-14T00:00:00Z"}`)
	draft := create(t, `{"title": "Draft", "content": "Not yet", "publish_date": "2025-03-12T00:00:00Z"}`)

	assert.Equal(t, "Holiday", older.Title)
	assert.False(t, draft.IsPublished)

	t.Run("Public board", func(t *testing.T) {
		// no token needed; expiry day included
		assert.Equal(t, []string{lastDay.Title, older.Title}, titles(t, "/v1/notices/public", ""))
	})

	t.Run("Admin list", func(t *testing.T) {
		assert.Len(t, titles(t, "/v1/notices", f.adminToken), 4)
	})

	t.Run("Toggle publish", func(t *testing.T) {
		rec := f.do(http.MethodPost, "/v1/notices/"+draft.ID+"/toggle-publish", f.adminToken)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		var n notice.Notice
		unmarshal(t, rec, &n)
		assert.True(t, n.IsPublished)
		assert.Equal(t, []string{draft.Title, lastDay.Title, older.Title}, titles(t, "/v1/notices/public", ""))

		f.do(http.MethodPost, "/v1/notices/"+draft.ID+"/toggle-publish", f.adminToken)
		assert.Equal(t, []string{lastDay.Title, older.Title}, titles(t, "/v1/notices/public", ""))
	})

	t.Run("Update", func(t *testing.T) {
		rec := f.do(http.MethodPut, "/v1/notices/"+lastDay.ID, f.adminToken, []byte(`{"content": "Exams start on Monday", "no_expiry": true}`))
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		var n notice.Notice
		unmarshal(t, rec, &n)
		assert.Equal(t, "Exams", n.Title)
		assert.Equal(t, "Exams start on Monday", n.Content)
		assert.False(t, n.ExpiryDate.Valid)
	})

	runHTTPTests(t, f.app, []httpTest{
		{
			name: "Required fields", method: http.MethodPost, path: "/v1/notices", token: f.adminToken, body: []byte(`{}`),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"title": "this field is required", "content": "this field is required"}),
		},
		{
			name: "Expiry before publish", method: http.MethodPut, path: "/v1/notices/" + older.ID, token: f.adminToken,
			body:     []byte(`{"expiry_date": "2025-02-01T00:00:00Z"}`),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"expiry_date": "expiry date cannot be before the publish date"}),
		},
		{name: "Admin only", path: "/v1/notices", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{name: "Retrieve", path: "/v1/notices/" + older.ID, token: f.adminToken, wantData: marchallObj(t, older)},
		{name: "Delete", method: http.MethodDelete, path: "/v1/notices/" + older.ID, token: f.adminToken, wantCode: http.StatusNoContent},
		{
			name: "Unknown", path: "/v1/notices/" + uuid.New().String(), token: f.adminToken,
			wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Error: notice.ErrNotFound.Error()}),
		},
	})
}

package render_api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/labstack/echo/v4"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"
	"thirdcoast.systems/h5video/cmd/web/internal/telemetry"
	"thirdcoast.systems/h5video/internal/db"
	"thirdcoast.systems/h5video/internal/filerepo"
	"thirdcoast.systems/h5video/internal/messages"
	"thirdcoast.systems/h5video/internal/render"
)

func newService(t *testing.T) *render.Service {
	t.Helper()
	fsys := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fsys, "/uploads/Example.mp4", []byte("x"), 0o644))
	return render.NewService(filerepo.NewLocalRepository(fsys, "/uploads", "https://wiki.example"), messages.NewCatalog(nil))
}

func postRender(t *testing.T, h echo.HandlerFunc, body string, header map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	e.POST("/api/render", h)

	req := httptest.NewRequest(http.MethodPost, "/api/render", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	for k, v := range header {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

type decoded struct {
	HTML          string   `json:"html"`
	ExternalLinks []string `json:"external_links"`
	ImageUsages   []string `json:"image_usages"`
	Lang          string   `json:"lang"`
	Persisted     bool     `json:"persisted"`
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) decoded {
	t.Helper()
	var out decoded
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func TestHandleRender(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := telemetry.NewMetrics(reg)

	rec := postRender(t, HandleRender(newService(t), nil, metrics),
		`{"text":"<video>{{{1}}}</video> <video>https://cdn.example/a.mp4</video>","args":{"1":"File:Example.mp4"}}`, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	out := decode(t, rec)
	require.Contains(t, out.HTML, `<source src="https://wiki.example/media/Example.mp4" type="video/mp4" />`)
	require.Contains(t, out.HTML, `<source src="https://cdn.example/a.mp4" type="video/mp4" />`)
	require.Equal(t, []string{"https://cdn.example/a.mp4"}, out.ExternalLinks)
	require.Equal(t, []string{"Example.mp4"}, out.ImageUsages)
	require.Equal(t, "en", out.Lang)
	require.False(t, out.Persisted)

	n, err := testutil.GatherAndCount(reg, "h5video_page_render_seconds")
	require.NoError(t, err)
	require.Equal(t, 1, n)
}

func TestHandleRender_Language(t *testing.T) {
	svc := newService(t)
	body := `{"text":"<video>nope</video>"}`

	rec := postRender(t, HandleRender(svc, nil, nil), body, map[string]string{"Accept-Language": "de-DE,de;q=0.9"})
	out := decode(t, rec)
	require.Equal(t, "de", out.Lang)
	require.Contains(t, out.HTML, svc.Catalog().For(svc.Catalog().Match("de")).Message("h5video-invalid-source"))

	rec = postRender(t, HandleRender(svc, nil, nil), `{"text":"<video>nope</video>","lang":"fr"}`, map[string]string{"Accept-Language": "de"})
	require.Equal(t, "fr", decode(t, rec).Lang)
}

func TestHandleRender_BadBody(t *testing.T) {
	rec := postRender(t, HandleRender(newService(t), nil, nil), `{"text":`, nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleRender_Persists(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	id := db.PageID("Demo")
	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO pages").WithArgs(id, "Demo").WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec("DELETE FROM page_external_links").WithArgs(id).WillReturnResult(pgxmock.NewResult("DELETE", 0))
	mock.ExpectExec("DELETE FROM page_image_usages").WithArgs(id).WillReturnResult(pgxmock.NewResult("DELETE", 0))
	mock.ExpectExec("INSERT INTO page_image_usages").WithArgs(id, 0, "Example.mp4").WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectCommit()

	rec := postRender(t, HandleRender(newService(t), mock, nil), `{"title":" Demo ","text":"<video>File:Example.mp4</video>"}`, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.True(t, decode(t, rec).Persisted)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestHandleRender_NoTitleSkipsPersistence(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	rec := postRender(t, HandleRender(newService(t), mock, nil), `{"text":"<video>File:Example.mp4</video>"}`, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.False(t, decode(t, rec).Persisted)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestHandlePageLinks(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	id := db.PageID("Demo page")
	mock.ExpectQuery("SELECT title FROM pages").WithArgs(id).
		WillReturnRows(pgxmock.NewRows([]string{"title"}).AddRow("Demo page"))
	mock.ExpectQuery("SELECT url FROM page_external_links").WithArgs(id).
		WillReturnRows(pgxmock.NewRows([]string{"url"}))
	mock.ExpectQuery("SELECT file_title FROM page_image_usages").WithArgs(id).
		WillReturnRows(pgxmock.NewRows([]string{"file_title"}).AddRow("Example.mp4"))
	mock.ExpectQuery("SELECT title FROM pages").WithArgs(db.PageID("Missing")).
		WillReturnError(pgx.ErrNoRows)

	e := echo.New()
	e.GET("/api/pages/:title/links", HandlePageLinks(mock))

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/pages/Demo%20page/links", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var links db.PageLinks
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &links))
	require.Equal(t, "Demo page", links.Title)
	require.Equal(t, []string{"Example.mp4"}, links.ImageUsages)

	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/pages/Missing/links", nil))
	require.Equal(t, http.StatusNotFound, rec.Code)
	require.NoError(t, mock.ExpectationsWereMet())
}

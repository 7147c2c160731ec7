// package render_api provides the wikitext rendering API handlers.
package render_api

import (
	"log/slog"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"thirdcoast.systems/h5video/cmd/web/handlers/common"
	"thirdcoast.systems/h5video/cmd/web/internal/telemetry"
	"thirdcoast.systems/h5video/internal/db"
	"thirdcoast.systems/h5video/internal/render"
	"thirdcoast.systems/h5video/internal/wikitext"
)

type renderRequest struct {
	Title string            `json:"title"`
	Text  string            `json:"text"`
	Args  map[string]string `json:"args"`
	Lang  string            `json:"lang"`
}

type renderResponse struct {
	HTML string `json:"html"`
	*wikitext.ParserOutput
	Language  string `json:"lang"`
	Persisted bool   `json:"persisted"`
}

// HandleRender renders the posted wikitext. When store is non-nil and the
// request names a page title, the page's link metadata is replaced with the
// result of this render.
func HandleRender(svc *render.Service, store db.TxBeginner, metrics *telemetry.Metrics) echo.HandlerFunc {
	return func(c echo.Context) error {
		var req renderRequest
		if err := c.Bind(&req); err != nil {
			return common.ErrBadRequest("invalid request body")
		}

		start := time.Now()
		lang := common.RequestLanguage(c, svc.Catalog(), req.Lang)
		res := svc.Render(c.Request().Context(), lang, req.Text, req.Args)
		if metrics != nil {
			metrics.ObservePage("api", start)
		}

		resp := renderResponse{
			HTML:         res.HTML,
			ParserOutput: res.Output,
			Language:     lang.String(),
		}

		title := strings.TrimSpace(req.Title)
		if store != nil && title != "" {
			err := db.ReplacePageLinks(c.Request().Context(), store, db.PageLinks{
				PageID:        db.PageID(title),
				Title:         title,
				ExternalLinks: res.Output.ExternalLinks,
				ImageUsages:   res.Output.ImageUsages,
			})
			if err != nil {
				slog.Error("failed to persist page links", "title", title, "error", err)
				return common.ErrInternal("failed to persist page links")
			}
			resp.Persisted = true
		}

		return c.JSON(200, resp)
	}
}

// HandlePageLinks returns the stored link metadata of a page.
func HandlePageLinks(dbc db.DBTX) echo.HandlerFunc {
	return func(c echo.Context) error {
		title, err := common.RequireParam(c, "title")
		if err != nil {
			return err
		}

		links, err := db.New(dbc).GetPageLinks(c.Request().Context(), db.PageID(title))
		if err != nil {
			if db.IsNoRows(err) {
				return common.ErrNotFound("page not found")
			}
			slog.Error("failed to load page links", "title", title, "error", err)
			return common.ErrInternal("failed to load page links")
		}
		return c.JSON(200, links)
	}
}

package content

import (
	"time"

	"github.com/labstack/echo/v4"
	"thirdcoast.systems/h5video/cmd/web/handlers/common"
	"thirdcoast.systems/h5video/cmd/web/internal/telemetry"
	"thirdcoast.systems/h5video/cmd/web/templates"
	"thirdcoast.systems/h5video/internal/render"
)

// HandlePreview renders the wikitext of the text query parameter as a page.
func HandlePreview(svc *render.Service, metrics *telemetry.Metrics) echo.HandlerFunc {
	return func(c echo.Context) error {
		text := c.QueryParam("text")
		lang := common.RequestLanguage(c, svc.Catalog(), c.QueryParam("lang"))

		page := templates.Preview{Lang: lang.String(), Source: text}
		if text != "" {
			start := time.Now()
			page.Result = svc.Render(c.Request().Context(), lang, text, nil)
			if metrics != nil {
				metrics.ObservePage("preview", start)
			}
		}

		c.Response().Header().Set(echo.HeaderContentType, echo.MIMETextHTMLCharsetUTF8)
		return templates.PreviewPage(page).Render(c.Request().Context(), c.Response())
	}
}

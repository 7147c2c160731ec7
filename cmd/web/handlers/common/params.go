package common

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/labstack/echo/v4"
	"golang.org/x/text/language"
	"thirdcoast.systems/h5video/internal/filerepo"
	"thirdcoast.systems/h5video/internal/messages"
)

// RequireParam extracts a non-empty, unescaped route parameter or returns a 400 error.
func RequireParam(c echo.Context, param string) (string, error) {
	raw, err := url.PathUnescape(c.Param(param))
	if err != nil || strings.TrimSpace(raw) == "" {
		return "", echo.NewHTTPError(http.StatusBadRequest, "invalid "+param)
	}
	return raw, nil
}

// RequireFileTitleParam extracts a route parameter naming a file and
// normalizes it to its storage title.
func RequireFileTitleParam(c echo.Context, param string) (string, error) {
	raw, err := RequireParam(c, param)
	if err != nil {
		return "", err
	}
	title, err := filerepo.NormalizeTitle(raw)
	if err != nil {
		return "", echo.NewHTTPError(http.StatusBadRequest, "invalid "+param)
	}
	return title, nil
}

// RequestLanguage picks the message language: an explicit code wins over the
// Accept-Language header.
func RequestLanguage(c echo.Context, catalog *messages.Catalog, explicit string) language.Tag {
	if explicit = strings.TrimSpace(explicit); explicit != "" {
		return catalog.Match(explicit)
	}
	return catalog.Match(c.Request().Header.Get("Accept-Language"))
}

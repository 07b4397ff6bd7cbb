package handlers

import (
	"io"

	"github.com/labstack/echo/v4"
)

// recordingRenderer stands in for the HTML template renderer and captures
// which template a handler asked for plus the data it passed.
type recordingRenderer struct {
	lastName string
	lastData interface{}
}

func (r *recordingRenderer) Render(w io.Writer, name string, data interface{}, c echo.Context) error {
	r.lastName = name
	r.lastData = data
	return nil
}

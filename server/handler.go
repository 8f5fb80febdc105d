package server

import (
	"context"
	"errors"
	"net/http"

	"github.com/erikmagkekse/netgroup-nfs/exportsync"
	"github.com/erikmagkekse/netgroup-nfs/model"
	"github.com/erikmagkekse/netgroup-nfs/netgroup"

	"github.com/labstack/echo/v5"
)

type Previewer interface {
	Preview(ctx context.Context, path string, r model.ExportRestriction) (exportsync.ExportResult, error)
}

type Handler struct {
	Syncer  Previewer
	Tracker *exportsync.Tracker
	Exports map[string]model.ExportRestriction
}

func (h *Handler) Status(c *echo.Context) error {
	runs, last, err := h.Tracker.Last()
	resp := StatusResponse{Runs: runs, Last: last}
	if err != nil {
		resp.LastError = err.Error()
	}
	return c.JSON(http.StatusOK, resp)
}

// Preview computes the host restrictions of one configured export, given
// by the "export" query parameter, without applying them.
func (h *Handler) Preview(c *echo.Context) error {
	path := c.Request().URL.Query().Get("export")
	if path == "" {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "export query parameter is required", Code: "BAD_REQUEST"})
	}
	r, ok := h.Exports[path]
	if !ok {
		return c.JSON(http.StatusNotFound, ErrorResponse{Error: "export " + path + " is not configured", Code: "NOT_FOUND"})
	}

	res, err := h.Syncer.Preview(c.Request().Context(), path, r)
	if err != nil {
		code := "INTERNAL_ERROR"
		switch {
		case errors.Is(err, netgroup.ErrMapUnavailable):
			code = "MAP_UNAVAILABLE"
		case errors.Is(err, exportsync.ErrMultipleRestrictions):
			code = "UNSUPPORTED_EXPORT"
		}
		return c.JSON(http.StatusBadGateway, ErrorResponse{Error: err.Error(), Code: code})
	}
	return c.JSON(http.StatusOK, res)
}

package controllers

import (
	"errors"
	"net/http"

	"github.com/shashiranjanraj/parcelhub/app/services"
	"github.com/shashiranjanraj/parcelhub/pkg/ctx"
)

// fail writes the error envelope for a service error.
func fail(c *ctx.Context, err error) {
	var se *services.Error
	if !errors.As(err, &se) {
		c.Log().Error("unclassified error", "error", err)
		c.ErrorDetail(http.StatusInternalServerError, "Internal server error", err.Error())
		return
	}

	status := statusOf(se.Kind)
	switch {
	case status >= http.StatusInternalServerError:
		c.Log().Error(se.Message, "error", se.Cause)
		detail := ""
		if se.Cause != nil {
			detail = se.Cause.Error()
		}
		c.ErrorDetail(status, se.Message, detail)
	case se.Cause != nil:
		c.ErrorDetail(status, se.Message, se.Cause.Error())
	default:
		c.Error(status, se.Message)
	}
}

func statusOf(kind error) int {
	switch kind {
	case services.ErrInvalidInput:
		return http.StatusBadRequest
	case services.ErrNotFound, services.ErrNoChange:
		return http.StatusNotFound
	case services.ErrConflict:
		return http.StatusConflict
	case services.ErrUnavailable:
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

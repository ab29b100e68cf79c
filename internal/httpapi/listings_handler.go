package httpapi

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	apperrors "listing-workers/internal/common/errors"
	"listing-workers/internal/common/logger"
	"listing-workers/internal/service"
)

const channel = "http"

type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

func RegisterListings(r chi.Router, svc ListingService, log logger.Logger) {
	r.Get("/v1/listings", func(w http.ResponseWriter, req *http.Request) {
		result, err := svc.Query(req.Context(), queryRequest(req.URL.Query()))
		if err != nil {
			writeError(w, req, log, err)
			return
		}
		render.JSON(w, req, result.Listings)
	})

	r.Get("/v1/listings/{listingID}", func(w http.ResponseWriter, req *http.Request) {
		view, err := svc.Find(req.Context(), chi.URLParam(req, "listingID"))
		if err != nil {
			writeError(w, req, log, err)
			return
		}
		render.JSON(w, req, view)
	})
}

// queryRequest separates SORT and ORDER from the filter parameters. Names are
// matched ignoring case; a parameter given several times becomes a list.
func queryRequest(params url.Values) service.QueryRequest {
	req := service.QueryRequest{
		Filters: make(map[string]interface{}, len(params)),
		Channel: channel,
	}

	for name, values := range params {
		if len(values) == 0 {
			continue
		}
		switch {
		case strings.EqualFold(name, "SORT"):
			req.Sort = values[0]
		case strings.EqualFold(name, "ORDER"):
			req.Order = values[0]
		case len(values) == 1:
			req.Filters[name] = values[0]
		default:
			req.Filters[name] = values
		}
	}

	return req
}

func writeError(w http.ResponseWriter, req *http.Request, log logger.Logger, err error) {
	stdErr := apperrors.Normalize(err)
	status := apperrors.HTTPStatus(stdErr.Code)

	fields := map[string]interface{}{
		"path":      req.URL.Path,
		"errorCode": string(stdErr.Code),
		"status":    status,
		"details":   stdErr.Details,
	}
	if status >= http.StatusInternalServerError {
		log.Error("listing request failed", fields)
	} else {
		log.Debug("listing request rejected", fields)
	}

	resp := ErrorResponse{Code: string(stdErr.Code), Message: stdErr.Message}
	if status < http.StatusInternalServerError {
		resp.Details = stdErr.Details
	}

	render.Status(req, status)
	render.JSON(w, req, resp)
}

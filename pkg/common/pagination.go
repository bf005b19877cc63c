package common

import (
	"net/http"
	"strconv"
)

// ListParams represents list-shaping parameters for collection endpoints
type ListParams struct {
	Limit int `json:"limit"`
}

// ExtractListParams extracts list parameters from the request query string.
// A missing or invalid limit falls back to def; values above max are clamped.
func ExtractListParams(r *http.Request, def, max int) ListParams {
	params := ListParams{Limit: def}

	if raw := r.URL.Query().Get("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			params.Limit = n
		}
	}
	if params.Limit > max {
		params.Limit = max
	}
	return params
}

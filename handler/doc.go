// Package handler renders JSON API responses in a single envelope:
//
//	{"data": ..., "meta": {...}}
//	{"error": {"code": "...", "message": "...", "details": {"field": ["..."]}}}
//
// Handlers build a Response and write it:
//
//	handler.Write(w, r, handler.JSON(list, handler.WithJSONMeta(map[string]any{"limit": 20})))
//	handler.Write(w, r, handler.JSONError(err))
//
// JSONError maps validator errors to 422 with per-field details and HTTPError
// values to their own status. Any other error is reported as a bare 500.
package handler

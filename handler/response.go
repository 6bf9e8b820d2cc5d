package handler

import "net/http"

// Response renders itself to an http.ResponseWriter.
type Response interface {
	Render(w http.ResponseWriter, r *http.Request) error
}

// Write renders resp. A render failure means the client went away
// mid-response, so there is nothing left to report to it.
func Write(w http.ResponseWriter, r *http.Request, resp Response) {
	_ = resp.Render(w, r)
}

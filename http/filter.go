package http

import "net/http"

// Action is the outcome class of a filter.
type Action int

const (
	// Unhandled means the next filter should run.
	Unhandled Action = iota
	// ResponseSent means processing stops; the response is complete.
	ResponseSent
	// Failed means processing stops with an HTTP error status; no response
	// has been written yet.
	Failed
)

// Result is the tri-state outcome of a filter. Status is meaningful only for
// Failed results.
type Result struct {
	Action Action
	Status int
}

// Next reports that the next filter should run.
func Next() Result {
	return Result{Action: Unhandled}
}

// Sent reports a completed response.
func Sent() Result {
	return Result{Action: ResponseSent}
}

// Fail reports a terminal failure with the given HTTP status.
func Fail(status int) Result {
	return Result{Action: Failed, Status: status}
}

// A Filter is one stage of the request pipeline. Filters may mutate the
// request (e.g. an internal rewrite) before handing it on.
type Filter interface {
	Filter(w http.ResponseWriter, r *http.Request) Result
}

// Chain runs filters in order until one completes or fails the response.
// When every filter returns Unhandled, or one fails, a plain error page is
// written.
func Chain(filters ...Filter) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		for _, f := range filters {
			switch result := f.Filter(w, r); result.Action {
			case ResponseSent:
				return
			case Failed:
				writeErrorPage(w, result.Status)
				return
			}
		}
		writeErrorPage(w, http.StatusNotFound)
	})
}

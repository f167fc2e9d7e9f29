package composedoc

import "net/http"

// Handler is the marker interface of composition handlers. Handle
// contributes the handler's part of the response to the request's shared
// composition state.
type Handler interface {
	Handle(r *http.Request) error
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(r *http.Request) error

// Handle calls f(r).
func (f HandlerFunc) Handle(r *http.Request) error {
	return f(r)
}

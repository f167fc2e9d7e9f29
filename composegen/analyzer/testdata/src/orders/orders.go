package orders

import (
	"net/http"

	"compose"
)

var (
	_ compose.Handler = (*Summary)(nil)
	_ compose.Handler = Lines{}
)

type Summary struct{}

//compose:get /orders/{id}
//compose:field "Summary" string
//compose:param name=id required type=int source=Path
func (*Summary) Handle(r *http.Request) error { return nil }

type Lines struct{}

//compose:get /orders/{id}
//compose:field "Lines" []string
//compose:response 404 string
//compose:default-response error
func (Lines) Handle(r *http.Request) error { return nil }

// Untracked does not implement the marker; its directives are ignored.
type Untracked struct{}

//compose:get /orders/{id}
//compose:field "Summary" int
func (Untracked) Handle(r *http.Request) {}

type History struct{}

var _ compose.Handler = History{}

//compose:get /orders/{id}/history
//compose:get /v2/orders/{id}/history
//compose:field "History" []string
func (History) Handle(r *http.Request) error { return nil }

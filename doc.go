// Package composedoc documents HTTP endpoints whose responses are composed
// from the contributions of several independent handlers.
//
// A composition handler implements [Handler] and describes what it adds to
// a route's response with //compose: line comments on its method:
//
//	//compose:get /orders/{id}
//	//compose:field "Shipping" ShippingInfo
//	//compose:param name=id required type=int source=Path
//	//compose:default-response ErrorBody
//	func (h *ShippingHandler) Handle(r *http.Request) error { ... }
//
// Directive kinds:
//
//   - get <route>: a GET route template the handler participates in.
//     Repeat for several routes.
//   - field <name> <type>: the property the handler contributes to the
//     composed response.
//   - response <status> [type]: an explicit response. A 2xx response may not
//     be combined with a field.
//   - default-response [type]: the response for unlisted status codes.
//   - param name=<n> [required] type=<t> source=Path|Query|Body|Header:
//     a request parameter.
//
// The composegen command (and the [github.com/broady/composedoc/composegen]
// package) merges every field contributed to the same route into one model
// type and emits a documentation-only handler returning it, so API
// description tooling sees one endpoint with one response schema.
package composedoc

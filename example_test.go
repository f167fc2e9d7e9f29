package composedoc_test

import (
	"fmt"
	"net/http"
	"net/http/httptest"

	"github.com/broady/composedoc"
)

type ShippingInfo struct {
	Carrier string `json:"carrier"`
}

type ShippingHandler struct{}

var _ composedoc.Handler = (*ShippingHandler)(nil)

//compose:get /orders/{id}
//compose:field "Shipping" ShippingInfo
//compose:param name=id required type=int source=Path
func (h *ShippingHandler) Handle(r *http.Request) error {
	fmt.Println("shipping for order", r.PathValue("id"))
	return nil
}

func ExampleHandler() {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /orders/{id}", func(w http.ResponseWriter, r *http.Request) {
		var h composedoc.Handler = &ShippingHandler{}
		if err := h.Handle(r); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
	})

	mux.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/orders/42", nil))
	// Output: shipping for order 42
}

func ExampleHandlerFunc() {
	var h composedoc.Handler = composedoc.HandlerFunc(func(r *http.Request) error {
		fmt.Println(r.URL.Path)
		return nil
	})
	_ = h.Handle(httptest.NewRequest("GET", "/orders/7", nil))
	// Output: /orders/7
}

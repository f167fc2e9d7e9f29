package conflicts

import (
	"net/http"

	"compose"
)

var (
	_ compose.Handler = Mixed{}
	_ compose.Handler = First{}
	_ compose.Handler = Second{}
	_ compose.Handler = Multi{}
	_ compose.Handler = multi{}
)

type Mixed struct{}

//compose:get /mixed
//compose:field "Value" int
//compose:response 200 string
func (Mixed) Handle(r *http.Request) error { return nil } // want `SC0001: method conflicts\.Mixed\.Handle cannot declare a //compose:response for a 2XX HTTP status code`

type First struct{}

//compose:get /totals
//compose:field "Total" int
func (First) Handle(r *http.Request) error { return nil }

type Second struct{}

//compose:get /totals
//compose:field "Total" float64
func (Second) Handle(r *http.Request) error { return nil } // want `SC0002: composition property "Total" for route /totals is already contributed by conflicts\.First\.Handle`

type Multi struct{}

//compose:get /b
//compose:field "B" int
func (Multi) Extra(r *http.Request) error { return nil }

//compose:get /c
//compose:field "C" int
func (Multi) Handle(r *http.Request) error { return nil }

// multi derives the same identifiers as Multi.
type multi struct{}

//compose:get /a
//compose:field "A" int
func (multi) Handle(r *http.Request) error { return nil } // want `SC0003: generated type ConflictsMultiCompositionModel for route /a collides with the one generated for route /b`

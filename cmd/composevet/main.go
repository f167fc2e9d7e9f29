// Command composevet reports composition handler diagnostics.
//
// Usage:
//
//	composevet [-marker=example.com/app/compose.Handler] ./...
//	go vet -vettool=$(which composevet) ./...
package main

import (
	"golang.org/x/tools/go/analysis/singlechecker"

	"github.com/broady/composedoc/composegen/analyzer"
)

func main() {
	singlechecker.Main(analyzer.Analyzer)
}

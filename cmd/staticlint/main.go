// Command staticlint runs the project's static analysis suite.
//
//	go build -o staticlint ./cmd/staticlint
//	./staticlint ./...
//
// The suite is the standard go/analysis passes, every staticcheck SA check,
// the simple checks S1000-S1040, stylecheck ST1000 (package comments) and the
// nobaresleep analyzer from internal/analyzers.
package main

import (
	"strings"

	"golang.org/x/tools/go/analysis"
	"golang.org/x/tools/go/analysis/multichecker"
	"golang.org/x/tools/go/analysis/passes/asmdecl"
	"golang.org/x/tools/go/analysis/passes/assign"
	"golang.org/x/tools/go/analysis/passes/atomic"
	"golang.org/x/tools/go/analysis/passes/bools"
	"golang.org/x/tools/go/analysis/passes/buildtag"
	"golang.org/x/tools/go/analysis/passes/cgocall"
	"golang.org/x/tools/go/analysis/passes/composite"
	"golang.org/x/tools/go/analysis/passes/copylock"
	"golang.org/x/tools/go/analysis/passes/errorsas"
	"golang.org/x/tools/go/analysis/passes/httpresponse"
	"golang.org/x/tools/go/analysis/passes/ifaceassert"
	"golang.org/x/tools/go/analysis/passes/loopclosure"
	"golang.org/x/tools/go/analysis/passes/lostcancel"
	"golang.org/x/tools/go/analysis/passes/nilfunc"
	"golang.org/x/tools/go/analysis/passes/printf"
	"golang.org/x/tools/go/analysis/passes/shadow"
	"golang.org/x/tools/go/analysis/passes/shift"
	"golang.org/x/tools/go/analysis/passes/sigchanyzer"
	"golang.org/x/tools/go/analysis/passes/stdmethods"
	"golang.org/x/tools/go/analysis/passes/stringintconv"
	"golang.org/x/tools/go/analysis/passes/structtag"
	"golang.org/x/tools/go/analysis/passes/tests"
	"golang.org/x/tools/go/analysis/passes/unmarshal"
	"golang.org/x/tools/go/analysis/passes/unreachable"
	"golang.org/x/tools/go/analysis/passes/unsafeptr"
	"golang.org/x/tools/go/analysis/passes/unusedresult"
	"honnef.co/go/tools/analysis/lint"
	"honnef.co/go/tools/simple"
	"honnef.co/go/tools/staticcheck"
	"honnef.co/go/tools/stylecheck"

	"github.com/and161185/lab-data-logger/internal/analyzers/nobaresleep"
)

var stdPasses = []*analysis.Analyzer{
	asmdecl.Analyzer, assign.Analyzer, atomic.Analyzer, bools.Analyzer, buildtag.Analyzer,
	cgocall.Analyzer, composite.Analyzer, copylock.Analyzer, errorsas.Analyzer,
	httpresponse.Analyzer, ifaceassert.Analyzer, loopclosure.Analyzer, lostcancel.Analyzer,
	nilfunc.Analyzer, printf.Analyzer, shadow.Analyzer, shift.Analyzer, sigchanyzer.Analyzer,
	stdmethods.Analyzer, stringintconv.Analyzer, structtag.Analyzer, tests.Analyzer,
	unmarshal.Analyzer, unreachable.Analyzer, unsafeptr.Analyzer, unusedresult.Analyzer,
}

// pick returns the analyzers whose name starts with prefix, or equals one of names.
func pick(from []*lint.Analyzer, prefix string, names ...string) []*analysis.Analyzer {
	var out []*analysis.Analyzer
	for _, a := range from {
		name := a.Analyzer.Name
		if prefix != "" && strings.HasPrefix(name, prefix) {
			out = append(out, a.Analyzer)
			continue
		}
		for _, n := range names {
			if name == n {
				out = append(out, a.Analyzer)
			}
		}
	}
	return out
}

func collect() []*analysis.Analyzer {
	list := append([]*analysis.Analyzer{}, stdPasses...)
	list = append(list, pick(staticcheck.Analyzers, "SA")...)
	list = append(list, pick(simple.Analyzers, "S1")...)
	list = append(list, pick(stylecheck.Analyzers, "", "ST1000")...)
	return append(list, nobaresleep.Analyzer)
}

func main() {
	multichecker.Main(collect()...)
}

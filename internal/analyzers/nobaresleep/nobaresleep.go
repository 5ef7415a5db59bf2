// Package nobaresleep implements an analyzer forbidding time.Sleep outside tests.
//
// Pull loops and stop windows must stay responsive to cancellation, so they
// wait with a timer and a select on ctx.Done() instead.
package nobaresleep

import (
	"go/ast"
	"go/types"
	"strings"

	"golang.org/x/tools/go/analysis"
)

var Analyzer = &analysis.Analyzer{
	Name: "nobaresleep",
	Doc:  "forbid time.Sleep in non-test code",
	Run:  run,
}

func run(pass *analysis.Pass) (any, error) {
	for _, f := range pass.Files {
		fn := pass.Fset.Position(f.Pos()).Filename
		if strings.HasSuffix(fn, "_test.go") || isGenerated(f) {
			continue
		}

		ast.Inspect(f, func(n ast.Node) bool {
			call, ok := n.(*ast.CallExpr)
			if !ok {
				return true
			}
			sel, ok := call.Fun.(*ast.SelectorExpr)
			if !ok {
				return true
			}
			obj, ok := pass.TypesInfo.Uses[sel.Sel].(*types.Func)
			if !ok || obj.Pkg() == nil {
				return true
			}
			if obj.Pkg().Path() == "time" && obj.Name() == "Sleep" {
				pass.Reportf(call.Pos(), "time.Sleep ignores cancellation; select on a timer and ctx.Done()")
			}
			return true
		})
	}
	return nil, nil
}

func isGenerated(f *ast.File) bool {
	for _, cg := range f.Comments {
		for _, c := range cg.List {
			if strings.Contains(c.Text, "Code generated") && strings.Contains(c.Text, "DO NOT EDIT") {
				return true
			}
		}
	}
	return false
}

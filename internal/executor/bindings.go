package executor

import (
	"fmt"

	"github.com/dop251/goja"
	"github.com/dop251/goja/ast"
	"github.com/dop251/goja/parser"
)

// DeclaredNames returns the top-level var, let and const names of code in
// source order. Destructuring patterns are skipped.
func DeclaredNames(code string) ([]string, error) {
	program, err := parser.ParseFile(nil, "", code, 0)
	if err != nil {
		return nil, err
	}
	var names []string
	collect := func(list []*ast.Binding) {
		for _, b := range list {
			if id, ok := b.Target.(*ast.Identifier); ok {
				names = append(names, string(id.Name))
			}
		}
	}
	for _, stmt := range program.Body {
		switch decl := stmt.(type) {
		case *ast.VariableStatement:
			collect(decl.List)
		case *ast.LexicalDeclaration:
			collect(decl.List)
		}
	}
	return names, nil
}

// bindingNames lists every user binding of a finished run: declared names
// first, then globals created by plain assignment.
func bindingNames(vm *goja.Runtime, code string) []string {
	declared, _ := DeclaredNames(code)
	seen := make(map[string]bool, len(declared))
	var names []string
	for _, name := range append(declared, vm.GlobalObject().Keys()...) {
		if seen[name] || builtin(name) {
			continue
		}
		seen[name] = true
		names = append(names, name)
	}
	return names
}

// lookup resolves name in the finished runtime, lexical bindings included
func lookup(vm *goja.Runtime, name string) any {
	v, err := vm.RunString(fmt.Sprintf("typeof %s === 'undefined' ? undefined : %s", name, name))
	if err != nil || v == nil || goja.IsUndefined(v) || goja.IsNull(v) {
		return nil
	}
	return v.Export()
}

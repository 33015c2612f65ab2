// Package gen generates advised wrappers for interfaces. A wrapper implements
// the interface by routing every call through an advice.Dispatcher, and
// calls the wrapped implementation directly when a method has no advice.
package gen

import (
	"bytes"
	"go/types"
	"strconv"

	"github.com/CherkashinEvgeny/goadvice/advice"
	"github.com/dave/jennifer/jen"
	"github.com/pkg/errors"
)

const (
	advicePkg  = "github.com/CherkashinEvgeny/goadvice/advice"
	contextPkg = "context"
)

type Config struct {
	PkgName string
	PkgPath string
	Targets []Target
	// Only restricts interception to target → method pairs. Methods left out
	// delegate straight to the implementation. Nil intercepts every method.
	Only map[string]map[string]bool
}

// OnlyAdvised builds Config.Only from a registry snapshot.
func OnlyAdvised(snapshot advice.Snapshot) map[string]map[string]bool {
	only := make(map[string]map[string]bool, len(snapshot))
	for target, methods := range snapshot {
		only[target] = make(map[string]bool, len(methods))
		for method := range methods {
			only[target][method] = true
		}
	}
	return only
}

func Generate(cfg Config) ([]byte, error) {
	if cfg.PkgName == "" {
		return nil, errors.New("destination package name is empty")
	}
	f := jen.NewFilePathName(cfg.PkgPath, cfg.PkgName)
	f.HeaderComment("Code generated by goadvice. DO NOT EDIT.")
	for _, target := range cfg.Targets {
		generateTarget(f, cfg, target)
	}
	buf := bytes.NewBuffer(nil)
	if err := f.Render(buf); err != nil {
		return nil, errors.Wrap(err, "render")
	}
	return buf.Bytes(), nil
}

func generateTarget(f *jen.File, cfg Config, target Target) {
	ifaceCode := typeCode(target.Named)

	f.Commentf("%s routes calls of %s through an advice dispatcher.", target.Wrapper, target.Name)
	f.Type().Id(target.Wrapper).Struct(
		jen.Id("Impl").Add(ifaceCode),
		jen.Id("Dispatcher").Op("*").Qual(advicePkg, "Dispatcher"),
	)
	f.Line()
	f.Func().Id("New"+target.Wrapper).Params(
		jen.Id("impl").Add(ifaceCode),
		jen.Id("dispatcher").Op("*").Qual(advicePkg, "Dispatcher"),
	).Op("*").Id(target.Wrapper).Block(
		jen.Return(jen.Op("&").Id(target.Wrapper).Values(jen.Dict{
			jen.Id("Impl"):       jen.Id("impl"),
			jen.Id("Dispatcher"): jen.Id("dispatcher"),
		})),
	)

	for i := 0; i < target.Iface.NumMethods(); i++ {
		m := target.Iface.Method(i)
		if !m.Exported() {
			continue
		}
		sig := m.Type().(*types.Signature)
		method := newMethod(target, m.Name(), sig)
		f.Line()
		if cfg.Only != nil && !cfg.Only[target.Name][m.Name()] {
			method.delegating(f)
			continue
		}
		method.intercepting(f)
	}
}

type method struct {
	target   Target
	name     string
	sig      *types.Signature
	hasCtx   bool
	hasErr   bool
	params   []jen.Code
	results  []jen.Code
	values   []types.Type
	variadic bool
}

func newMethod(target Target, name string, sig *types.Signature) *method {
	m := &method{target: target, name: name, sig: sig, variadic: sig.Variadic()}
	params := sig.Params()
	if params.Len() > 0 && isContext(params.At(0).Type()) {
		m.hasCtx = true
	}
	for i := 0; i < params.Len(); i++ {
		m.params = append(m.params, jen.Id(paramName(i)).Add(paramType(sig, i)))
	}
	results := sig.Results()
	for i := 0; i < results.Len(); i++ {
		t := results.At(i).Type()
		m.results = append(m.results, typeCode(t))
		if i == results.Len()-1 && isError(t) {
			m.hasErr = true
			continue
		}
		m.values = append(m.values, t)
	}
	return m
}

func paramName(i int) string {
	return "p" + strconv.Itoa(i)
}

func resultName(i int) string {
	return "r" + strconv.Itoa(i)
}

func isContext(t types.Type) bool {
	named, ok := t.(*types.Named)
	if !ok {
		return false
	}
	obj := named.Obj()
	return obj.Pkg() != nil && obj.Pkg().Path() == contextPkg && obj.Name() == "Context"
}

func isError(t types.Type) bool {
	return types.Identical(t, types.Universe.Lookup("error").Type())
}

func (m *method) declare(f *jen.File) *jen.Statement {
	return f.Func().
		Params(jen.Id("w").Op("*").Id(m.target.Wrapper)).
		Id(m.name).
		Params(m.params...).
		Params(m.results...)
}

// implCall calls the wrapped implementation with the given arguments.
func (m *method) implCall(args []jen.Code) *jen.Statement {
	call := jen.Id("w").Dot("Impl").Dot(m.name)
	if m.variadic && len(args) > 0 {
		last := len(args) - 1
		args[last] = jen.Add(args[last]).Op("...")
	}
	return call.Call(args...)
}

func (m *method) directArgs() []jen.Code {
	args := make([]jen.Code, 0, len(m.params))
	for i := range m.params {
		args = append(args, jen.Id(paramName(i)))
	}
	return args
}

func (m *method) direct() []jen.Code {
	call := m.implCall(m.directArgs())
	if len(m.results) == 0 {
		return []jen.Code{call}
	}
	return []jen.Code{jen.Return(call)}
}

func (m *method) delegating(f *jen.File) {
	m.declare(f).Block(m.direct()...)
}

func (m *method) intercepting(f *jen.File) {
	first := 0
	ctx := jen.Qual(contextPkg, "Background").Call()
	if m.hasCtx {
		first = 1
		ctx = jen.Id(paramName(0))
	}
	boxed := make([]jen.Code, 0, len(m.params)-first)
	for i := first; i < len(m.params); i++ {
		boxed = append(boxed, jen.Id(paramName(i)))
	}

	bypass := m.direct()
	if len(m.results) == 0 {
		bypass = append(bypass, jen.Return())
	}
	body := []jen.Code{
		jen.If(
			jen.Id("w").Dot("Dispatcher").Op("==").Nil().Op("||").
				Op("!").Id("w").Dot("Dispatcher").Dot("Advised").Call(jen.Lit(m.target.Name), jen.Lit(m.name)),
		).Block(bypass...),
		jen.List(jen.Id("result"), jen.Err()).Op(":=").Id("w").Dot("Dispatcher").Dot("Dispatch").Call(
			ctx,
			jen.Qual(advicePkg, "JoinPoint").Values(jen.Dict{
				jen.Id("Target"):  jen.Lit(m.target.Name),
				jen.Id("Method"):  jen.Lit(m.name),
				jen.Id("Subject"): jen.Id("w").Dot("Impl"),
			}),
			jen.Qual(advicePkg, "Args").Values(boxed...),
			m.original(first),
		),
	}
	body = append(body, m.unbox()...)
	m.declare(f).Block(body...)
}

// original renders the advice.Original closure unboxing args into a call of
// the implementation.
func (m *method) original(first int) jen.Code {
	params := m.sig.Params()
	args := make([]jen.Code, 0, params.Len())
	if m.hasCtx {
		args = append(args, jen.Id("ctx"))
	}
	for i := first; i < params.Len(); i++ {
		args = append(args, jen.Qual(advicePkg, "As").
			Types(typeCode(params.At(i).Type())).
			Call(jen.Id("args").Index(jen.Lit(i-first))))
	}
	call := m.implCall(args)

	var lhs []jen.Code
	for i := range m.values {
		lhs = append(lhs, jen.Id(resultName(i)))
	}
	errExpr := jen.Nil()
	if m.hasErr {
		lhs = append(lhs, jen.Err())
		errExpr = jen.Err()
	}

	var valueExpr jen.Code
	switch len(m.values) {
	case 0:
		valueExpr = jen.Nil()
	case 1:
		valueExpr = jen.Id(resultName(0))
	default:
		items := make([]jen.Code, 0, len(m.values))
		for i := range m.values {
			items = append(items, jen.Id(resultName(i)))
		}
		valueExpr = jen.Qual(advicePkg, "Results").Values(items...)
	}

	var stmts []jen.Code
	if len(lhs) == 0 {
		stmts = append(stmts, call)
	} else {
		stmts = append(stmts, jen.List(lhs...).Op(":=").Add(call))
	}
	stmts = append(stmts, jen.Return(valueExpr, errExpr))

	return jen.Func().
		Params(jen.Id("ctx").Qual(contextPkg, "Context"), jen.Id("args").Qual(advicePkg, "Args")).
		Params(jen.Interface(), jen.Error()).
		Block(stmts...)
}

// unbox converts the dispatch result back to the method's results. Methods
// without an error result panic with a propagated error.
func (m *method) unbox() []jen.Code {
	var stmts []jen.Code
	if !m.hasErr {
		stmts = append(stmts, jen.If(jen.Err().Op("!=").Nil()).Block(jen.Panic(jen.Err())))
	}

	var values []jen.Code
	switch len(m.values) {
	case 0:
		stmts = append(stmts, jen.Id("_").Op("=").Id("result"))
	case 1:
		values = append(values, jen.Qual(advicePkg, "As").Types(typeCode(m.values[0])).Call(jen.Id("result")))
	default:
		for i, t := range m.values {
			stmts = append(stmts, jen.Var().Id(resultName(i)).Add(typeCode(t)))
			values = append(values, jen.Id(resultName(i)))
		}
		assign := make([]jen.Code, 0, len(m.values))
		for i, t := range m.values {
			assign = append(assign, jen.Id(resultName(i)).Op("=").Qual(advicePkg, "As").
				Types(typeCode(t)).Call(jen.Id("results").Index(jen.Lit(i))))
		}
		stmts = append(stmts, jen.If(
			jen.List(jen.Id("results"), jen.Id("ok")).Op(":=").Id("result").Assert(jen.Qual(advicePkg, "Results")),
			jen.Id("ok").Op("&&").Len(jen.Id("results")).Op("==").Lit(len(m.values)),
		).Block(assign...))
	}
	if m.hasErr {
		values = append(values, jen.Err())
	}
	if len(values) > 0 {
		stmts = append(stmts, jen.Return(values...))
	}
	return stmts
}

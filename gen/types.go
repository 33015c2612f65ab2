package gen

import (
	"go/types"

	"github.com/dave/jennifer/jen"
)

// typeCode renders t, qualifying named types with their package path so
// jennifer can manage imports.
func typeCode(t types.Type) jen.Code {
	switch t := t.(type) {
	case *types.Basic:
		if t.Kind() == types.UnsafePointer {
			return jen.Qual("unsafe", "Pointer")
		}
		return jen.Id(t.Name())
	case *types.Alias:
		return objectCode(t.Obj(), t.TypeArgs())
	case *types.Named:
		return objectCode(t.Obj(), t.TypeArgs())
	case *types.TypeParam:
		return jen.Id(t.Obj().Name())
	case *types.Pointer:
		return jen.Op("*").Add(typeCode(t.Elem()))
	case *types.Slice:
		return jen.Index().Add(typeCode(t.Elem()))
	case *types.Array:
		return jen.Index(jen.Lit(int(t.Len()))).Add(typeCode(t.Elem()))
	case *types.Map:
		return jen.Map(typeCode(t.Key())).Add(typeCode(t.Elem()))
	case *types.Chan:
		switch t.Dir() {
		case types.SendOnly:
			return jen.Chan().Op("<-").Add(typeCode(t.Elem()))
		case types.RecvOnly:
			return jen.Op("<-").Chan().Add(typeCode(t.Elem()))
		}
		return jen.Chan().Add(typeCode(t.Elem()))
	case *types.Signature:
		return jen.Func().Add(signatureCode(t))
	case *types.Interface:
		items := make([]jen.Code, 0, t.NumEmbeddeds()+t.NumExplicitMethods())
		for i := 0; i < t.NumEmbeddeds(); i++ {
			items = append(items, typeCode(t.EmbeddedType(i)))
		}
		for i := 0; i < t.NumExplicitMethods(); i++ {
			m := t.ExplicitMethod(i)
			items = append(items, jen.Id(m.Name()).Add(signatureCode(m.Type().(*types.Signature))))
		}
		return jen.Interface(items...)
	case *types.Struct:
		fields := make([]jen.Code, 0, t.NumFields())
		for i := 0; i < t.NumFields(); i++ {
			f := t.Field(i)
			if f.Embedded() {
				fields = append(fields, typeCode(f.Type()))
				continue
			}
			fields = append(fields, jen.Id(f.Name()).Add(typeCode(f.Type())))
		}
		return jen.Struct(fields...)
	}
	return jen.Id(t.String())
}

func objectCode(obj *types.TypeName, args *types.TypeList) jen.Code {
	var code *jen.Statement
	if obj.Pkg() == nil {
		code = jen.Id(obj.Name())
	} else {
		code = jen.Qual(obj.Pkg().Path(), obj.Name())
	}
	if args != nil && args.Len() > 0 {
		list := make([]jen.Code, 0, args.Len())
		for i := 0; i < args.Len(); i++ {
			list = append(list, typeCode(args.At(i)))
		}
		code = code.Types(list...)
	}
	return code
}

// signatureCode renders the parameter and result lists of sig.
func signatureCode(sig *types.Signature) *jen.Statement {
	params := make([]jen.Code, 0, sig.Params().Len())
	for i := 0; i < sig.Params().Len(); i++ {
		params = append(params, paramType(sig, i))
	}
	results := make([]jen.Code, 0, sig.Results().Len())
	for i := 0; i < sig.Results().Len(); i++ {
		results = append(results, typeCode(sig.Results().At(i).Type()))
	}
	return jen.Params(params...).Params(results...)
}

// paramType renders the declared type of parameter i, "...T" for a variadic tail.
func paramType(sig *types.Signature, i int) jen.Code {
	t := sig.Params().At(i).Type()
	if sig.Variadic() && i == sig.Params().Len()-1 {
		return jen.Op("...").Add(typeCode(t.(*types.Slice).Elem()))
	}
	return typeCode(t)
}

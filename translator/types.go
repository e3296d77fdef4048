package translator

import (
	"strings"

	"vba2py/lang"
)

// TypeKind is the primitive class a declaration resolves to.
type TypeKind int

const (
	TypeVariant TypeKind = iota
	TypeString
	TypeInteger
	TypeLong
	TypeByte
	TypeDouble
	TypeSingle
	TypeCurrency
	TypeBoolean
	TypeDate
	TypeObject
)

// InferredType is computed once per declaration and stored with the symbol.
// Class names the object type for TypeObject.
type InferredType struct {
	Kind  TypeKind
	Known bool
	Class string
}

// Unknown is the type of names declared without an annotation or suffix.
func Unknown() InferredType { return InferredType{} }

// Known returns a resolved primitive type.
func Known(kind TypeKind) InferredType { return InferredType{Kind: kind, Known: true} }

var typeNames = map[string]TypeKind{
	"string":   TypeString,
	"integer":  TypeInteger,
	"long":     TypeLong,
	"longlong": TypeLong,
	"longptr":  TypeLong,
	"byte":     TypeByte,
	"double":   TypeDouble,
	"single":   TypeSingle,
	"currency": TypeCurrency,
	"decimal":  TypeDouble,
	"boolean":  TypeBoolean,
	"date":     TypeDate,
	"variant":  TypeVariant,
	"object":   TypeObject,
}

var suffixTypes = map[rune]TypeKind{
	'$': TypeString,
	'%': TypeInteger,
	'&': TypeLong,
	'#': TypeDouble,
	'!': TypeSingle,
	'@': TypeCurrency,
}

// inferType resolves a declaration's type from its annotation first and its
// suffix second.
func inferType(typ *lang.TypeName, suffix rune) InferredType {
	if typ != nil {
		if kind, ok := typeNames[strings.ToLower(typ.Name)]; ok {
			return Known(kind)
		}
		return InferredType{Kind: TypeObject, Known: true, Class: typ.Name}
	}
	if kind, ok := suffixTypes[suffix]; ok {
		return Known(kind)
	}
	return Unknown()
}

func (it InferredType) isString() bool { return it.Known && it.Kind == TypeString }

// initializer is the Python value a fresh variable of this type holds.
func (it InferredType) initializer(isNew bool) string {
	if isNew && it.Kind == TypeObject && it.Class != "" {
		return pyTypeName(it.Class) + "()"
	}
	if !it.Known {
		return "None"
	}
	switch it.Kind {
	case TypeString:
		return `""`
	case TypeInteger, TypeLong, TypeByte:
		return "0"
	case TypeDouble, TypeSingle, TypeCurrency:
		return "0.0"
	case TypeBoolean:
		return "False"
	}
	return "None"
}

// hint is the Python annotation for primitive types, empty otherwise.
func (it InferredType) hint() string {
	if !it.Known {
		return ""
	}
	switch it.Kind {
	case TypeString:
		return "str"
	case TypeInteger, TypeLong, TypeByte:
		return "int"
	case TypeDouble, TypeSingle, TypeCurrency:
		return "float"
	case TypeBoolean:
		return "bool"
	}
	return ""
}

// literalType infers a constant's type from its value.
func literalType(e lang.Expr) InferredType {
	lit, ok := e.(*lang.Literal)
	if !ok {
		return Unknown()
	}
	switch lit.Kind {
	case lang.StringLit:
		return Known(TypeString)
	case lang.BoolLit:
		return Known(TypeBoolean)
	case lang.NumberLit:
		if strings.ContainsAny(lit.Value, ".eE#!@") && !strings.HasPrefix(lit.Value, "&") {
			return Known(TypeDouble)
		}
		return Known(TypeLong)
	}
	return Unknown()
}

// Package semantic implements the flow-sensitive analyzer over a built
// arena tree: lexical scopes, a flat variable table, a small inferred type
// lattice, and diagnostics for unused, undeclared, and uninitialized
// variables, duplicate declarations, type mismatches, and unknown
// methods/properties.
package semantic

import (
	"strconv"
	"strings"
)

// TypeKind enumerates the inferred type lattice. Unknown is absorbing: it is
// compatible with everything, so nothing is reported before enough
// information is known.
type TypeKind uint8

// Lattice members.
const (
	TypeUnknown TypeKind = iota
	TypeNumber
	TypeString
	TypeBoolean
	TypeDate
	TypeNull
	TypeUndefined
	TypeObject
)

// SimpleType is one lattice value. Name is set only for Object types.
type SimpleType struct {
	Kind TypeKind
	Name string
}

// Unknown is the absorbing lattice element.
var Unknown = SimpleType{Kind: TypeUnknown}

// ObjectType names a platform object type such as "Массив".
func ObjectType(name string) SimpleType {
	return SimpleType{Kind: TypeObject, Name: name}
}

// String renders the type for diagnostics.
func (t SimpleType) String() string {
	switch t.Kind {
	case TypeNumber:
		return "Число"
	case TypeString:
		return "Строка"
	case TypeBoolean:
		return "Булево"
	case TypeDate:
		return "Дата"
	case TypeNull:
		return "Null"
	case TypeUndefined:
		return "Неопределено"
	case TypeObject:
		return t.Name
	default:
		return "Неизвестно"
	}
}

// LiteralType classifies a literal by its normalized text.
func LiteralType(text string) SimpleType {
	switch {
	case isTrueLiteral(text) || strings.EqualFold(text, "false") || strings.EqualFold(text, "Ложь"):
		return SimpleType{Kind: TypeBoolean}
	case text == "Null":
		return SimpleType{Kind: TypeNull}
	case text == "Undefined" || text == "Неопределено":
		return SimpleType{Kind: TypeUndefined}
	default:
		if _, err := strconv.ParseFloat(text, 64); err == nil {
			return SimpleType{Kind: TypeNumber}
		}

		return SimpleType{Kind: TypeString}
	}
}

func isTrueLiteral(text string) bool {
	return strings.EqualFold(text, "true") || strings.EqualFold(text, "Истина")
}

// BinaryResult infers the type of a binary expression from its operand types
// and operator text as the converter emits it.
func BinaryResult(lhs SimpleType, op string, rhs SimpleType) SimpleType {
	switch op {
	case "+":
		if lhs.Kind == TypeNumber && rhs.Kind == TypeNumber {
			return SimpleType{Kind: TypeNumber}
		}
		if lhs.Kind == TypeString && rhs.Kind == TypeString {
			return SimpleType{Kind: TypeString}
		}

		return Unknown
	case "-", "*", "/", "%":
		if lhs.Kind == TypeNumber && rhs.Kind == TypeNumber {
			return SimpleType{Kind: TypeNumber}
		}

		return Unknown
	case "=", "<>", "<", ">", "<=", ">=":
		return SimpleType{Kind: TypeBoolean}
	case "И", "ИЛИ":
		return SimpleType{Kind: TypeBoolean}
	default:
		return Unknown
	}
}

// UnaryResult infers the type of a unary expression.
func UnaryResult(op string, inner SimpleType) SimpleType {
	switch op {
	case "НЕ":
		return SimpleType{Kind: TypeBoolean}
	case "-":
		return inner
	default:
		return inner
	}
}

package ast

// Kind classifies an arena node. The set is closed: the converter never emits
// anything outside it, and unsupported constructs become KindError leaves.
type Kind uint8

// Node kinds.
const (
	KindModule Kind = iota
	KindProcedure
	KindFunction
	KindParam
	KindBlock
	KindIdentifier
	KindLiteral
	KindCall
	KindMember
	KindAssignment
	KindNew
	KindVarDecl
	KindIf
	KindWhile
	KindReturn
	KindBinary
	KindUnary
	KindError
)

var kindNames = [...]string{
	"Module", "Procedure", "Function", "Param", "Block",
	"Identifier", "Literal", "Call", "Member", "Assignment",
	"New", "VarDecl", "If", "While", "Return",
	"Binary", "Unary", "Error",
}

// String returns the kind name.
func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}

	return "Unknown"
}

// IsRoutine reports whether the kind is a Procedure or Function, the unit of
// incremental rebuild.
func (k Kind) IsRoutine() bool {
	return k == KindProcedure || k == KindFunction
}

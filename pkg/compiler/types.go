package compiler

import "github.com/samber/lo"

// TypeKind is the tag of the Type variant.
type TypeKind int

const (
	TyVoid TypeKind = iota
	TyChar
	TyInt
	TyPointer
	TyArray
	TyStruct
	TyFunction
	TyEnum
)

// Member is one field of a struct type, with its byte offset from the start
// of the struct.
type Member struct {
	Name   string
	Type   *Type
	Offset int
}

// Type is a tagged variant over every type this language supports. Instances
// are created once by the constructors below and shared by every AST node
// and Symbol that refers to the same type; nothing here is mutated after
// construction (a struct type is built complete by newStructType once its
// member list has been parsed).
type Type struct {
	Kind TypeKind
	Size int
	Align int

	Base     *Type // Pointer, Array element type
	ArrayLen int   // Array

	Tag     string    // Struct
	Members []*Member // Struct

	Return   *Type   // Function
	Params   []*Type // Function
	Variadic bool    // Function
}

var (
	voidType = &Type{Kind: TyVoid, Size: 0, Align: 1}
	charType = &Type{Kind: TyChar, Size: 1, Align: 1}
	intType  = &Type{Kind: TyInt, Size: 4, Align: 4}
)

func pointerTo(base *Type) *Type {
	return &Type{Kind: TyPointer, Size: 8, Align: 8, Base: base}
}

func arrayOf(base *Type, length int) *Type {
	return &Type{Kind: TyArray, Size: base.Size * length, Align: 8, Base: base, ArrayLen: length}
}

func enumType() *Type {
	return &Type{Kind: TyEnum, Size: 4, Align: 4}
}

func functionType(ret *Type, params []*Type, variadic bool) *Type {
	return &Type{Kind: TyFunction, Return: ret, Params: params, Variadic: variadic}
}

// newStructType computes member offsets as a running sum of preceding member
// sizes with no padding, per this language's layout rule, and returns the
// finished type. fields is consumed in declaration order.
func newStructType(tag string, fields []*Member) *Type {
	offset := 0
	members := lo.Map(fields, func(m *Member, _ int) *Member {
		placed := &Member{Name: m.Name, Type: m.Type, Offset: offset}
		offset += m.Type.Size
		return placed
	})
	return &Type{Kind: TyStruct, Size: offset, Align: 8, Tag: tag, Members: members}
}

func (t *Type) isInteger() bool {
	return t.Kind == TyChar || t.Kind == TyInt || t.Kind == TyEnum
}

func (t *Type) isPointerlike() bool {
	return t.Kind == TyPointer || t.Kind == TyArray
}

// decay applies the array-to-pointer rule used for every value context
// except as the operand of & or sizeof.
func (t *Type) decay() *Type {
	if t.Kind == TyArray {
		return pointerTo(t.Base)
	}
	return t
}

// findMember returns the Member named name, looking through a struct type
// reached by at most one pointer indirection (so p->m and p.m share logic).
func (t *Type) findMember(name string) *Member {
	base := t
	if base.Kind == TyPointer {
		base = base.Base
	}
	if base.Kind != TyStruct {
		return nil
	}
	for _, m := range base.Members {
		if m.Name == name {
			return m
		}
	}
	return nil
}

func (t *Type) String() string {
	switch t.Kind {
	case TyVoid:
		return "void"
	case TyChar:
		return "char"
	case TyInt:
		return "int"
	case TyEnum:
		return "enum"
	case TyPointer:
		return t.Base.String() + "*"
	case TyArray:
		return t.Base.String() + "[]"
	case TyStruct:
		return "struct " + t.Tag
	case TyFunction:
		return t.Return.String() + "()"
	default:
		return "?"
	}
}

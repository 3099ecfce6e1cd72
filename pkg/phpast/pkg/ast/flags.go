package ast

import (
	"slices"
	"strconv"
)

// Flags carries the kind-specific flag word of a node.
type Flags uint32

// Name qualification flags for AST_NAME.
const (
	NameFQ       Flags = 0
	NameNotFQ    Flags = 1
	NameRelative Flags = 2
)

// Binary operator flags for AST_BINARY_OP and AST_ASSIGN_OP.
const (
	BinaryAdd              Flags = 1
	BinarySub              Flags = 2
	BinaryMul              Flags = 3
	BinaryDiv              Flags = 4
	BinaryMod              Flags = 5
	BinaryShiftLeft        Flags = 6
	BinaryShiftRight       Flags = 7
	BinaryConcat           Flags = 8
	BinaryBitwiseOr        Flags = 9
	BinaryBitwiseAnd       Flags = 10
	BinaryBitwiseXor       Flags = 11
	BinaryPow              Flags = 12
	BinaryBoolXor          Flags = 15
	BinaryIsIdentical      Flags = 16
	BinaryIsNotIdentical   Flags = 17
	BinaryIsEqual          Flags = 18
	BinaryIsNotEqual       Flags = 19
	BinaryIsSmaller        Flags = 20
	BinaryIsSmallerOrEqual Flags = 21
	BinarySpaceship        Flags = 170
	BinaryIsGreater        Flags = 256
	BinaryIsGreaterOrEqual Flags = 257
	BinaryBoolOr           Flags = 258
	BinaryBoolAnd          Flags = 259
	BinaryCoalesce         Flags = 260
)

// Unary operator flags for AST_UNARY_OP.
const (
	UnaryBitwiseNot Flags = 13
	UnaryBoolNot    Flags = 14
	UnarySilence    Flags = 260
	UnaryPlus       Flags = 261
	UnaryMinus      Flags = 262
)

// Magic constant flags for AST_MAGIC_CONST.
const (
	MagicLine Flags = iota + 1
	MagicFile
	MagicDir
	MagicNamespace
	MagicFunction
	MagicMethod
	MagicClass
	MagicTrait
)

// Type flags for AST_TYPE and AST_CAST.
const (
	TypeNull     Flags = 1
	TypeFalse    Flags = 2
	TypeTrue     Flags = 3
	TypeLong     Flags = 4
	TypeDouble   Flags = 5
	TypeString   Flags = 6
	TypeArray    Flags = 7
	TypeObject   Flags = 8
	TypeCallable Flags = 12
	TypeIterable Flags = 13
	TypeVoid     Flags = 14
	TypeStatic   Flags = 15
	TypeMixed    Flags = 16
	TypeNever    Flags = 17
	TypeBool     Flags = 18
)

// Modifier flags for methods, properties, class constants, closures and
// promoted parameters.
const (
	ModifierPublic    Flags = 1
	ModifierProtected Flags = 2
	ModifierPrivate   Flags = 4
	ModifierStatic    Flags = 16
	ModifierFinal     Flags = 32
	ModifierAbstract  Flags = 64
	ModifierReadonly  Flags = 128
)

// Parameter flags for AST_PARAM. They share the word with promotion modifiers.
const (
	ParamRef      Flags = 8
	ParamVariadic Flags = 16
	ParamNullable Flags = 256
)

// Function flags for declarations.
const (
	FuncReturnsRef Flags = 1 << 12
	FuncGenerator  Flags = 1 << 24
)

// Class flags for AST_CLASS.
const (
	ClassInterface Flags = 1
	ClassTrait     Flags = 2
	ClassAnonymous Flags = 4
	ClassFinal     Flags = 32
	ClassAbstract  Flags = 64
	ClassReadonly  Flags = 1 << 16
	ClassEnum      Flags = 1 << 28
)

// Use flags for AST_USE and AST_GROUP_USE.
const (
	UseNormal   Flags = 1
	UseFunction Flags = 2
	UseConst    Flags = 4
)

// Include flags for AST_INCLUDE_OR_EVAL.
const (
	ExecEval        Flags = 1
	ExecInclude     Flags = 2
	ExecIncludeOnce Flags = 4
	ExecRequire     Flags = 8
	ExecRequireOnce Flags = 16
)

// Array syntax flags for AST_ARRAY.
const (
	ArraySyntaxList  Flags = 1
	ArraySyntaxLong  Flags = 2
	ArraySyntaxShort Flags = 3
)

// Miscellaneous flags.
const (
	// ArrayElemRef marks a by-reference AST_ARRAY_ELEM.
	ArrayElemRef Flags = 1
	// ClosureUseRef marks a by-reference AST_CLOSURE_VAR.
	ClosureUseRef Flags = 1
	// DimAlternativeSyntax marks $a{0} subscripts.
	DimAlternativeSyntax Flags = 2
)

type flagName struct {
	flag Flags
	name string
}

var binaryNames = []flagName{
	{BinaryAdd, "BINARY_ADD"}, {BinarySub, "BINARY_SUB"}, {BinaryMul, "BINARY_MUL"},
	{BinaryDiv, "BINARY_DIV"}, {BinaryMod, "BINARY_MOD"}, {BinaryShiftLeft, "BINARY_SHIFT_LEFT"},
	{BinaryShiftRight, "BINARY_SHIFT_RIGHT"}, {BinaryConcat, "BINARY_CONCAT"},
	{BinaryBitwiseOr, "BINARY_BITWISE_OR"}, {BinaryBitwiseAnd, "BINARY_BITWISE_AND"},
	{BinaryBitwiseXor, "BINARY_BITWISE_XOR"}, {BinaryPow, "BINARY_POW"},
	{BinaryBoolXor, "BINARY_BOOL_XOR"}, {BinaryIsIdentical, "BINARY_IS_IDENTICAL"},
	{BinaryIsNotIdentical, "BINARY_IS_NOT_IDENTICAL"}, {BinaryIsEqual, "BINARY_IS_EQUAL"},
	{BinaryIsNotEqual, "BINARY_IS_NOT_EQUAL"}, {BinaryIsSmaller, "BINARY_IS_SMALLER"},
	{BinaryIsSmallerOrEqual, "BINARY_IS_SMALLER_OR_EQUAL"}, {BinarySpaceship, "BINARY_SPACESHIP"},
	{BinaryIsGreater, "BINARY_IS_GREATER"}, {BinaryIsGreaterOrEqual, "BINARY_IS_GREATER_OR_EQUAL"},
	{BinaryBoolOr, "BINARY_BOOL_OR"}, {BinaryBoolAnd, "BINARY_BOOL_AND"},
	{BinaryCoalesce, "BINARY_COALESCE"},
}

var unaryNames = []flagName{
	{UnaryBitwiseNot, "UNARY_BITWISE_NOT"}, {UnaryBoolNot, "UNARY_BOOL_NOT"},
	{UnarySilence, "UNARY_SILENCE"}, {UnaryPlus, "UNARY_PLUS"}, {UnaryMinus, "UNARY_MINUS"},
}

var magicNames = []flagName{
	{MagicLine, "MAGIC_LINE"}, {MagicFile, "MAGIC_FILE"}, {MagicDir, "MAGIC_DIR"},
	{MagicNamespace, "MAGIC_NAMESPACE"}, {MagicFunction, "MAGIC_FUNCTION"},
	{MagicMethod, "MAGIC_METHOD"}, {MagicClass, "MAGIC_CLASS"}, {MagicTrait, "MAGIC_TRAIT"},
}

var typeNames = []flagName{
	{TypeNull, "TYPE_NULL"}, {TypeFalse, "TYPE_FALSE"}, {TypeTrue, "TYPE_TRUE"},
	{TypeLong, "TYPE_LONG"}, {TypeDouble, "TYPE_DOUBLE"}, {TypeString, "TYPE_STRING"},
	{TypeArray, "TYPE_ARRAY"}, {TypeObject, "TYPE_OBJECT"}, {TypeCallable, "TYPE_CALLABLE"},
	{TypeIterable, "TYPE_ITERABLE"}, {TypeVoid, "TYPE_VOID"}, {TypeStatic, "TYPE_STATIC"},
	{TypeMixed, "TYPE_MIXED"}, {TypeNever, "TYPE_NEVER"}, {TypeBool, "TYPE_BOOL"},
}

var nameNames = []flagName{
	{NameFQ, "NAME_FQ"}, {NameNotFQ, "NAME_NOT_FQ"}, {NameRelative, "NAME_RELATIVE"},
}

var modifierNames = []flagName{
	{ModifierPublic, "MODIFIER_PUBLIC"}, {ModifierProtected, "MODIFIER_PROTECTED"},
	{ModifierPrivate, "MODIFIER_PRIVATE"}, {ModifierStatic, "MODIFIER_STATIC"},
	{ModifierFinal, "MODIFIER_FINAL"}, {ModifierAbstract, "MODIFIER_ABSTRACT"},
	{ModifierReadonly, "MODIFIER_READONLY"},
}

var funcNames = []flagName{
	{FuncReturnsRef, "FUNC_RETURNS_REF"}, {FuncGenerator, "FUNC_GENERATOR"},
}

var paramNames = []flagName{
	{ModifierPublic, "PARAM_MODIFIER_PUBLIC"}, {ModifierProtected, "PARAM_MODIFIER_PROTECTED"},
	{ModifierPrivate, "PARAM_MODIFIER_PRIVATE"}, {ModifierReadonly, "PARAM_MODIFIER_READONLY"},
	{ParamRef, "PARAM_REF"}, {ParamVariadic, "PARAM_VARIADIC"}, {ParamNullable, "PARAM_NULLABLE"},
}

var classNames = []flagName{
	{ClassInterface, "CLASS_INTERFACE"}, {ClassTrait, "CLASS_TRAIT"},
	{ClassAnonymous, "CLASS_ANONYMOUS"}, {ClassFinal, "CLASS_FINAL"},
	{ClassAbstract, "CLASS_ABSTRACT"}, {ClassReadonly, "CLASS_READONLY"}, {ClassEnum, "CLASS_ENUM"},
}

var useNames = []flagName{
	{UseNormal, "USE_NORMAL"}, {UseFunction, "USE_FUNCTION"}, {UseConst, "USE_CONST"},
}

var execNames = []flagName{
	{ExecEval, "EXEC_EVAL"}, {ExecInclude, "EXEC_INCLUDE"}, {ExecIncludeOnce, "EXEC_INCLUDE_ONCE"},
	{ExecRequire, "EXEC_REQUIRE"}, {ExecRequireOnce, "EXEC_REQUIRE_ONCE"},
}

var arrayNames = []flagName{
	{ArraySyntaxList, "ARRAY_SYNTAX_LIST"}, {ArraySyntaxLong, "ARRAY_SYNTAX_LONG"},
	{ArraySyntaxShort, "ARRAY_SYNTAX_SHORT"},
}

// FlagNames renders the flag word of a node of kind k as php-ast constant
// names. Exclusive flag families yield one name; combinable families yield
// one name per set bit. Unknown values are rendered as numbers.
func FlagNames(k Kind, flags Flags) []string {
	switch k {
	case KindBinaryOp, KindAssignOp:
		return exclusive(binaryNames, flags)
	case KindUnaryOp:
		return exclusive(unaryNames, flags)
	case KindMagicConst:
		return exclusive(magicNames, flags)
	case KindType, KindCast:
		return exclusive(typeNames, flags)
	case KindName:
		return exclusive(nameNames, flags)
	case KindUse, KindGroupUse, KindUseElem:
		return exclusive(useNames, flags)
	case KindIncludeOrEval:
		return exclusive(execNames, flags)
	case KindArray:
		return exclusive(arrayNames, flags)
	case KindFuncDecl:
		return combined(funcNames, flags)
	case KindMethod, KindClosure, KindArrowFunc:
		return combined(slices.Concat(modifierNames, funcNames), flags)
	case KindPropGroup, KindPropDecl, KindClassConstGroup, KindClassConstDecl, KindTraitAlias:
		return combined(modifierNames, flags)
	case KindParam:
		return combined(paramNames, flags)
	case KindClass:
		return combined(classNames, flags)
	case KindArrayElem, KindClosureVar:
		if flags == 0 {
			return nil
		}

		return []string{"BY_REFERENCE"}
	default:
		if flags == 0 {
			return nil
		}

		return []string{strconv.FormatUint(uint64(flags), 10)}
	}
}

func exclusive(names []flagName, flags Flags) []string {
	for _, fn := range names {
		if fn.flag == flags {
			return []string{fn.name}
		}
	}

	if flags == 0 {
		return nil
	}

	return []string{strconv.FormatUint(uint64(flags), 10)}
}

func combined(names []flagName, flags Flags) []string {
	var out []string

	rest := flags

	for _, fn := range names {
		if fn.flag != 0 && flags&fn.flag == fn.flag {
			out = append(out, fn.name)
			rest &^= fn.flag
		}
	}

	if rest != 0 {
		out = append(out, strconv.FormatUint(uint64(rest), 10))
	}

	return out
}

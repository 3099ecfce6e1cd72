package ast

// Kind names a canonical node shape. Values use the php-ast spelling.
type Kind string

// Special and zero-child kinds.
const (
	KindMagicConst      Kind = "AST_MAGIC_CONST"
	KindType            Kind = "AST_TYPE"
	KindCallableConvert Kind = "AST_CALLABLE_CONVERT"
	// KindUnmapped is the stub emitted for a CST shape with no conversion.
	KindUnmapped Kind = "AST_UNMAPPED"
)

// Declaration kinds.
const (
	KindFuncDecl  Kind = "AST_FUNC_DECL"
	KindClosure   Kind = "AST_CLOSURE"
	KindMethod    Kind = "AST_METHOD"
	KindArrowFunc Kind = "AST_ARROW_FUNC"
	KindClass     Kind = "AST_CLASS"
)

// List kinds. Their children are keyed "0", "1", ... in source order.
const (
	KindArgList          Kind = "AST_ARG_LIST"
	KindArray            Kind = "AST_ARRAY"
	KindEncapsList       Kind = "AST_ENCAPS_LIST"
	KindExprList         Kind = "AST_EXPR_LIST"
	KindStmtList         Kind = "AST_STMT_LIST"
	KindIf               Kind = "AST_IF"
	KindSwitchList       Kind = "AST_SWITCH_LIST"
	KindCatchList        Kind = "AST_CATCH_LIST"
	KindParamList        Kind = "AST_PARAM_LIST"
	KindClosureUses      Kind = "AST_CLOSURE_USES"
	KindPropDecl         Kind = "AST_PROP_DECL"
	KindConstDecl        Kind = "AST_CONST_DECL"
	KindClassConstDecl   Kind = "AST_CLASS_CONST_DECL"
	KindNameList         Kind = "AST_NAME_LIST"
	KindTraitAdaptations Kind = "AST_TRAIT_ADAPTATIONS"
	KindUse              Kind = "AST_USE"
	KindMatchArmList     Kind = "AST_MATCH_ARM_LIST"
	KindAttributeList    Kind = "AST_ATTRIBUTE_LIST"
	KindAttributeGroup   Kind = "AST_ATTRIBUTE_GROUP"
	KindTypeUnion        Kind = "AST_TYPE_UNION"
	KindTypeIntersection Kind = "AST_TYPE_INTERSECTION"
)

// Single-child kinds.
const (
	KindName          Kind = "AST_NAME"
	KindVar           Kind = "AST_VAR"
	KindConst         Kind = "AST_CONST"
	KindUnpack        Kind = "AST_UNPACK"
	KindCast          Kind = "AST_CAST"
	KindEmpty         Kind = "AST_EMPTY"
	KindIsset         Kind = "AST_ISSET"
	KindShellExec     Kind = "AST_SHELL_EXEC"
	KindClone         Kind = "AST_CLONE"
	KindExit          Kind = "AST_EXIT"
	KindPrint         Kind = "AST_PRINT"
	KindIncludeOrEval Kind = "AST_INCLUDE_OR_EVAL"
	KindUnaryOp       Kind = "AST_UNARY_OP"
	KindPreInc        Kind = "AST_PRE_INC"
	KindPreDec        Kind = "AST_PRE_DEC"
	KindPostInc       Kind = "AST_POST_INC"
	KindPostDec       Kind = "AST_POST_DEC"
	KindYieldFrom     Kind = "AST_YIELD_FROM"
	KindGlobal        Kind = "AST_GLOBAL"
	KindUnset         Kind = "AST_UNSET"
	KindReturn        Kind = "AST_RETURN"
	KindLabel         Kind = "AST_LABEL"
	KindRef           Kind = "AST_REF"
	KindHaltCompiler  Kind = "AST_HALT_COMPILER"
	KindEcho          Kind = "AST_ECHO"
	KindThrow         Kind = "AST_THROW"
	KindGoto          Kind = "AST_GOTO"
	KindBreak         Kind = "AST_BREAK"
	KindContinue      Kind = "AST_CONTINUE"
	KindClassName     Kind = "AST_CLASS_NAME"
	KindNullableType  Kind = "AST_NULLABLE_TYPE"
	KindClosureVar    Kind = "AST_CLOSURE_VAR"
)

// Multi-child kinds.
const (
	KindDim                Kind = "AST_DIM"
	KindProp               Kind = "AST_PROP"
	KindNullsafeProp       Kind = "AST_NULLSAFE_PROP"
	KindStaticProp         Kind = "AST_STATIC_PROP"
	KindCall               Kind = "AST_CALL"
	KindClassConst         Kind = "AST_CLASS_CONST"
	KindAssign             Kind = "AST_ASSIGN"
	KindAssignRef          Kind = "AST_ASSIGN_REF"
	KindAssignOp           Kind = "AST_ASSIGN_OP"
	KindBinaryOp           Kind = "AST_BINARY_OP"
	KindArrayElem          Kind = "AST_ARRAY_ELEM"
	KindNew                Kind = "AST_NEW"
	KindInstanceof         Kind = "AST_INSTANCEOF"
	KindYield              Kind = "AST_YIELD"
	KindStatic             Kind = "AST_STATIC"
	KindWhile              Kind = "AST_WHILE"
	KindDoWhile            Kind = "AST_DO_WHILE"
	KindIfElem             Kind = "AST_IF_ELEM"
	KindSwitch             Kind = "AST_SWITCH"
	KindSwitchCase         Kind = "AST_SWITCH_CASE"
	KindDeclare            Kind = "AST_DECLARE"
	KindPropGroup          Kind = "AST_PROP_GROUP"
	KindPropElem           Kind = "AST_PROP_ELEM"
	KindConstElem          Kind = "AST_CONST_ELEM"
	KindClassConstGroup    Kind = "AST_CLASS_CONST_GROUP"
	KindUseTrait           Kind = "AST_USE_TRAIT"
	KindTraitPrecedence    Kind = "AST_TRAIT_PRECEDENCE"
	KindMethodReference    Kind = "AST_METHOD_REFERENCE"
	KindNamespace          Kind = "AST_NAMESPACE"
	KindUseElem            Kind = "AST_USE_ELEM"
	KindTraitAlias         Kind = "AST_TRAIT_ALIAS"
	KindGroupUse           Kind = "AST_GROUP_USE"
	KindAttribute          Kind = "AST_ATTRIBUTE"
	KindMatch              Kind = "AST_MATCH"
	KindMatchArm           Kind = "AST_MATCH_ARM"
	KindNamedArg           Kind = "AST_NAMED_ARG"
	KindEnumCase           Kind = "AST_ENUM_CASE"
	KindMethodCall         Kind = "AST_METHOD_CALL"
	KindNullsafeMethodCall Kind = "AST_NULLSAFE_METHOD_CALL"
	KindStaticCall         Kind = "AST_STATIC_CALL"
	KindConditional        Kind = "AST_CONDITIONAL"
	KindTry                Kind = "AST_TRY"
	KindCatch              Kind = "AST_CATCH"
	KindFor                Kind = "AST_FOR"
	KindForeach            Kind = "AST_FOREACH"
	KindParam              Kind = "AST_PARAM"
)

var listKinds = map[Kind]bool{
	KindArgList: true, KindArray: true, KindEncapsList: true, KindExprList: true,
	KindStmtList: true, KindIf: true, KindSwitchList: true, KindCatchList: true,
	KindParamList: true, KindClosureUses: true, KindPropDecl: true, KindConstDecl: true,
	KindClassConstDecl: true, KindNameList: true, KindTraitAdaptations: true, KindUse: true,
	KindMatchArmList: true, KindAttributeList: true, KindAttributeGroup: true,
	KindTypeUnion: true, KindTypeIntersection: true,
}

// IsList reports whether nodes of kind k hold an index-keyed child list.
func (k Kind) IsList() bool {
	return listKinds[k]
}

// IsDecl reports whether k is a declaration kind carrying a declaration id.
func (k Kind) IsDecl() bool {
	switch k {
	case KindFuncDecl, KindClosure, KindMethod, KindArrowFunc, KindClass:
		return true
	default:
		return false
	}
}

// IsFunctionLike reports whether k declares a callable body.
func (k Kind) IsFunctionLike() bool {
	return k.IsDecl() && k != KindClass
}

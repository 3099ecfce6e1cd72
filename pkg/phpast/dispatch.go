package phpast

import (
	"maps"
	"slices"
	"sync"
)

// dispatchTable maps every CST kind the converter understands to its
// conversion. It is built once and shared read-only by all conversions.
var dispatchTable = sync.OnceValue(func() map[string]convertFunc {
	table := map[string]convertFunc{
		"program": convertProgram,

		// Statements.
		"expression_statement":        convertExpressionStatement,
		"compound_statement":          convertCompound,
		"empty_statement":             convertEmpty,
		"comment":                     convertEmpty,
		"php_tag":                     convertEmpty,
		"text_interpolation":          convertInlineHTML,
		"text":                        convertInlineHTML,
		"echo_statement":              convertEcho,
		"unset_statement":             convertUnset,
		"global_declaration":          convertGlobal,
		"function_static_declaration": convertStatic,
		"return_statement":            convertReturn,
		"break_statement":             convertBreak,
		"continue_statement":          convertBreak,
		"goto_statement":              convertGoto,
		"named_label_statement":       convertLabel,
		"exit_statement":              convertExit,
		"if_statement":                convertIf,
		"while_statement":             convertWhile,
		"do_statement":                convertDoWhile,
		"for_statement":               convertFor,
		"foreach_statement":           convertForeach,
		"switch_statement":            convertSwitch,
		"try_statement":               convertTry,
		"declare_statement":           convertDeclare,
		"const_declaration":           convertConstStatement,

		// Declarations.
		"function_definition":                    convertFunction,
		"method_declaration":                     convertMethod,
		"anonymous_function":                     convertClosure,
		"anonymous_function_creation_expression": convertClosure,
		"arrow_function":                         convertClosure,
		"class_declaration":                      convertClass,
		"interface_declaration":                  convertClass,
		"trait_declaration":                      convertClass,
		"enum_declaration":                       convertClass,
		"attribute_list":                         convertAttributeList,

		// Namespaces and imports.
		"namespace_definition":      convertNamespace,
		"namespace_use_declaration": convertNamespaceUse,
		"use_declaration":           convertTraitUse,

		// Operators.
		"binary_expression":                 convertBinary,
		"assignment_expression":             convertAssign,
		"reference_assignment_expression":   convertAssign,
		"augmented_assignment_expression":   convertAssignOp,
		"unary_op_expression":               convertUnary,
		"error_suppression_expression":      convertSilence,
		"cast_expression":                   convertCast,
		"update_expression":                 convertUpdate,
		"clone_expression":                  convertClone,
		"print_intrinsic":                   convertPrint,
		"throw_expression":                  convertThrow,
		"throw_statement":                   convertThrow,
		"include_expression":                convertInclude,
		"include_once_expression":           convertInclude,
		"require_expression":                convertInclude,
		"require_once_expression":           convertInclude,
		"parenthesized_expression":          convertParenthesized,
		"sequence_expression":               convertSequence,
		"conditional_expression":            convertConditional,
		"match_expression":                  convertMatch,
		"yield_expression":                  convertYield,
		"by_ref":                            convertByRef,
		"object_creation_expression":        convertNew,
		"function_call_expression":          convertCall,
		"member_call_expression":            convertMemberCall,
		"nullsafe_member_call_expression":   convertMemberCall,
		"scoped_call_expression":            convertStaticCall,
		"member_access_expression":          convertMemberAccess,
		"nullsafe_member_access_expression": convertMemberAccess,
		"scoped_property_access_expression": convertStaticProp,
		"class_constant_access_expression":  convertClassConstAccess,
		"subscript_expression":              convertSubscript,
		"variable_name":                     convertVariable,
		"dynamic_variable_name":             convertDynamicVariable,
		"array_creation_expression":         convertArray,
		"list_literal":                      convertList,
		"variadic_unpacking":                convertUnpack,

		// Names and types.
		"name":                         convertConstant,
		"qualified_name":               convertConstant,
		"relative_name":                convertConstant,
		"relative_scope":               convertName,
		"named_type":                   convertType,
		"optional_type":                convertType,
		"primitive_type":               convertType,
		"bottom_type":                  convertType,
		"union_type":                   convertType,
		"intersection_type":            convertType,
		"disjunctive_normal_form_type": convertType,
		"boolean":                      convertConstant,
		"null":                         convertConstant,

		// Literals.
		"integer":                  convertInteger,
		"float":                    convertInteger,
		"string":                   convertString,
		"encapsed_string":          convertEncapsed,
		"heredoc":                  convertHeredoc,
		"nowdoc":                   convertNowdoc,
		"shell_command_expression": convertShellExec,
	}

	return table
})

// HandledKinds returns the sorted CST kinds with a registered conversion.
func HandledKinds() []string {
	return slices.Sorted(maps.Keys(dispatchTable()))
}

package ast

// Identifiers substituted for unrecoverable input in placeholder mode.
const (
	PlaceholderVariable   = "__INCOMPLETE_VARIABLE__"
	PlaceholderProperty   = "__INCOMPLETE_PROPERTY__"
	PlaceholderClassConst = "__INCOMPLETE_CLASS_CONST__"
	PlaceholderName       = "__INCOMPLETE_NAME__"
)

// IsPlaceholder reports whether v is a placeholder identifier or a node
// built around one (AST_VAR, AST_CONST, AST_NAME, AST_PROP, AST_CLASS_CONST).
func IsPlaceholder(v any) bool {
	switch v := v.(type) {
	case string:
		switch v {
		case PlaceholderVariable, PlaceholderProperty, PlaceholderClassConst, PlaceholderName:
			return true
		}
	case *Node:
		if v == nil {
			return false
		}

		switch v.Kind {
		case KindVar, KindName, KindConst:
			return IsPlaceholder(v.Child("name"))
		case KindProp, KindNullsafeProp, KindStaticProp:
			return IsPlaceholder(v.Child("prop"))
		case KindClassConst:
			return IsPlaceholder(v.Child("const"))
		}
	}

	return false
}

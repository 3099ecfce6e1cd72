package ast

import _ "embed"

// Schema is the JSON Schema (draft-07) of the MarshalJSON encoding.
//
//go:embed schema.json
var Schema []byte

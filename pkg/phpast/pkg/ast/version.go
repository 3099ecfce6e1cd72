package ast

import (
	"errors"
	"fmt"
	"strconv"
)

// ErrUnsupportedVersion is returned for an unknown schema version.
var ErrUnsupportedVersion = errors.New("unsupported schema version")

// Version selects the canonical tree layout.
type Version int

// Supported schema versions.
const (
	// Version50 keeps declaration metadata in Node.Decl.
	Version50 Version = 50
	// Version70 moves declaration metadata into keyed children.
	Version70 Version = 70
	// Version80 adds attribute children.
	Version80 Version = 80
	// Version85 adds the enum backing type to AST_CLASS.
	Version85 Version = 85

	CurrentVersion = Version85
)

// Versions lists the supported schema versions in ascending order.
func Versions() []Version {
	return []Version{Version50, Version70, Version80, Version85}
}

// ValidateVersion converts an integer to a supported Version.
func ValidateVersion(v int) (Version, error) {
	for _, known := range Versions() {
		if int(known) == v {
			return known, nil
		}
	}

	return 0, fmt.Errorf("%w: %d", ErrUnsupportedVersion, v)
}

// String implements fmt.Stringer.
func (v Version) String() string {
	return strconv.Itoa(int(v))
}

// DeclMetadataInChildren reports whether name, docComment and __declId are
// children of declaration nodes.
func (v Version) DeclMetadataInChildren() bool {
	return v >= Version70
}

// GroupsClassMembers reports whether properties and class constants are
// wrapped in AST_PROP_GROUP and AST_CLASS_CONST_GROUP.
func (v Version) GroupsClassMembers() bool {
	return v >= Version70
}

// HasAttributes reports whether declarations carry an attributes child.
func (v Version) HasAttributes() bool {
	return v >= Version80
}

// HasClassType reports whether AST_CLASS carries the enum backing type.
func (v Version) HasClassType() bool {
	return v >= Version85
}

package pipeline

import (
	"errors"
	"fmt"
)

// Kind is the tag of a pipeline step.
type Kind string

// The closed set of step kinds.
const (
	KindAggregate Kind = "aggregate"
	KindCustom    Kind = "custom"
	KindDelete    Kind = "delete"
	KindDomain    Kind = "domain"
	KindFilter    Kind = "filter"
	KindNewColumn Kind = "newcolumn"
	KindRename    Kind = "rename"
	KindSelect    Kind = "select"
)

// allKinds is kept sorted ascending.
var allKinds = []Kind{
	KindAggregate,
	KindCustom,
	KindDelete,
	KindDomain,
	KindFilter,
	KindNewColumn,
	KindRename,
	KindSelect,
}

// ErrUnknownKind is returned when a step tag is outside the closed set.
var ErrUnknownKind = errors.New("unknown step kind")

// Kinds returns every step kind, sorted ascending.
// The returned slice is a copy.
func Kinds() []Kind {
	out := make([]Kind, len(allKinds))
	copy(out, allKinds)
	return out
}

// Valid reports whether k belongs to the closed set of step kinds.
func (k Kind) Valid() bool {
	for _, known := range allKinds {
		if k == known {
			return true
		}
	}
	return false
}

func (k Kind) String() string {
	return string(k)
}

// ParseKind converts a step name to a Kind.
func ParseKind(name string) (Kind, error) {
	k := Kind(name)
	if !k.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownKind, name)
	}
	return k, nil
}

package submissions

import (
	"strings"

	"github.com/google/uuid"
)

// LookupKind selects which identifier a Lookup carries.
type LookupKind int

const (
	LookupInternal LookupKind = iota
	LookupPublic
)

// Lookup addresses one submission by either its internal or public id.
type Lookup struct {
	Kind     LookupKind
	ID       uuid.UUID
	PublicID string
}

// ByID addresses a submission by its internal id.
func ByID(id uuid.UUID) Lookup {
	return Lookup{Kind: LookupInternal, ID: id}
}

// ByPublicID addresses a submission by its public SUB- id.
func ByPublicID(id string) Lookup {
	return Lookup{Kind: LookupPublic, PublicID: id}
}

// ParseLookup treats anything with UUID syntax as an internal id and
// everything else as a public id.
func ParseLookup(raw string) Lookup {
	raw = strings.TrimSpace(raw)
	if id, err := uuid.Parse(raw); err == nil {
		return ByID(id)
	}
	return ByPublicID(raw)
}

// Valid reports whether l could match a stored submission. Public ids must
// have the generated SUB-YYYYMM-NNNN shape.
func (l Lookup) Valid() bool {
	return l.Kind == LookupInternal || IsPublicID(l.PublicID)
}

func (l Lookup) String() string {
	if l.Kind == LookupInternal {
		return l.ID.String()
	}
	return l.PublicID
}

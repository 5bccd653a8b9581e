package indexfile

import "github.com/cxxls/cxxls/internal/types"

// QueryDef is a Def translated into query-id space: ready for QueryDB to
// store as one entry in an entity's Defs vector.
type QueryDef struct {
	DetailedName  string
	ShortName     string
	Spell         types.Range
	Extent        types.Range
	Kind          types.SymbolKind
	Storage       types.StorageClass
	HasFuncParent bool
	Callees       []types.LexicalRef // non-nil only for Func defs
}

// IsLocal reports whether a variable with this Def as its front def stays
// out of the workspace symbol index.
func (d *QueryDef) IsLocal() bool {
	return d.Storage.IsLocal(d.HasFuncParent)
}

// DefUpdate replaces (or inserts) the Def a given file contributes for one
// entity. QueryDB keeps at most one Def per (entity, file) pair.
type DefUpdate struct {
	EntityKind types.SymbolKind
	EntityID   types.QueryID
	File       types.QueryID
	Def        QueryDef
}

// EntityDefRemoval removes the Def a given file previously contributed for
// one entity. The entity itself is not deleted: it is tombstoned only if
// this was its last Def and it has no remaining declarations/uses either,
// which QueryDB.apply decides.
type EntityDefRemoval struct {
	EntityKind types.SymbolKind
	EntityID   types.QueryID
	File       types.QueryID
}

// RefEdge names one of the two position-bearing edge lists an entity
// carries.
type RefEdge uint8

const (
	EdgeDeclarations RefEdge = iota
	EdgeUses
)

// RefEdgeUpdate adds and removes LexicalRefs from one entity's
// declarations or uses list.
type RefEdgeUpdate struct {
	EntityKind types.SymbolKind
	EntityID   types.QueryID
	Edge       RefEdge
	ToAdd      []types.LexicalRef
	ToRemove   []types.LexicalRef
}

// IDEdge names one of the plain-id structural edges (no source position):
// type/func inheritance and template instantiation.
type IDEdge uint8

const (
	EdgeDerived IDEdge = iota
	EdgeInstances
	EdgeBases
)

// IDEdgeUpdate adds and removes plain query ids from one entity's
// derived/instances/bases list.
type IDEdgeUpdate struct {
	EntityKind types.SymbolKind
	EntityID   types.QueryID
	Edge       IDEdge
	ToAdd      []types.QueryID
	ToRemove   []types.QueryID
}

// FileDef is a file's own metadata, as QueryDB stores it. Includes are
// carried as resolved paths rather than query ids: QueryDB mints (or looks
// up) a file id for each one itself, since a header can be included before
// it has ever been indexed directly.
type FileDef struct {
	Path            string
	Language        types.Language
	Includes        []string
	InactiveRegions []types.Range
}

// FileDefUpdate replaces one file's metadata.
type FileDefUpdate struct {
	File types.QueryID
	Def  FileDef
}

// IndexUpdate is the complete set of mutations QueryDB.Apply needs to move
// from the previous indexed state of a file to its current one. Edge
// updates carry both additions and removals rather than a fresh full list,
// so QueryDB never has to diff against its own state.
type IndexUpdate struct {
	FilesRemoved      []types.QueryID
	FileDefUpdates    []FileDefUpdate
	EntityDefRemovals []EntityDefRemoval
	DefUpdates        []DefUpdate
	RefEdgeUpdates    []RefEdgeUpdate
	IDEdgeUpdates     []IDEdgeUpdate
}

// Merge concatenates two updates produced for disjoint files (the normal
// case when a pipeline worker batches several finished imports before
// handing off to the QueryDB-owner goroutine). Ref/id edge updates that
// target the same (kind, entity, edge) are coalesced into one entry; set
// semantics at apply time make the coalesced add/remove lists equivalent
// to applying each update in sequence.
func (u *IndexUpdate) Merge(other *IndexUpdate) *IndexUpdate {
	if u == nil {
		return other
	}
	if other == nil {
		return u
	}
	out := &IndexUpdate{
		FilesRemoved:      append(append([]types.QueryID{}, u.FilesRemoved...), other.FilesRemoved...),
		FileDefUpdates:    append(append([]FileDefUpdate{}, u.FileDefUpdates...), other.FileDefUpdates...),
		EntityDefRemovals: append(append([]EntityDefRemoval{}, u.EntityDefRemovals...), other.EntityDefRemovals...),
		DefUpdates:        append(append([]DefUpdate{}, u.DefUpdates...), other.DefUpdates...),
	}

	type refKey struct {
		kind types.SymbolKind
		id   types.QueryID
		edge RefEdge
	}
	refs := make(map[refKey]*RefEdgeUpdate)
	var refOrder []refKey
	addRef := func(ru RefEdgeUpdate) {
		k := refKey{ru.EntityKind, ru.EntityID, ru.Edge}
		if existing, ok := refs[k]; ok {
			existing.ToAdd = append(existing.ToAdd, ru.ToAdd...)
			existing.ToRemove = append(existing.ToRemove, ru.ToRemove...)
			return
		}
		cp := ru
		refs[k] = &cp
		refOrder = append(refOrder, k)
	}
	for _, ru := range u.RefEdgeUpdates {
		addRef(ru)
	}
	for _, ru := range other.RefEdgeUpdates {
		addRef(ru)
	}
	for _, k := range refOrder {
		out.RefEdgeUpdates = append(out.RefEdgeUpdates, *refs[k])
	}

	type idKey struct {
		kind types.SymbolKind
		id   types.QueryID
		edge IDEdge
	}
	ids := make(map[idKey]*IDEdgeUpdate)
	var idOrder []idKey
	addID := func(iu IDEdgeUpdate) {
		k := idKey{iu.EntityKind, iu.EntityID, iu.Edge}
		if existing, ok := ids[k]; ok {
			existing.ToAdd = append(existing.ToAdd, iu.ToAdd...)
			existing.ToRemove = append(existing.ToRemove, iu.ToRemove...)
			return
		}
		cp := iu
		ids[k] = &cp
		idOrder = append(idOrder, k)
	}
	for _, iu := range u.IDEdgeUpdates {
		addID(iu)
	}
	for _, iu := range other.IDEdgeUpdates {
		addID(iu)
	}
	for _, k := range idOrder {
		out.IDEdgeUpdates = append(out.IDEdgeUpdates, *ids[k])
	}

	return out
}

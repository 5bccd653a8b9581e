package querydb

import (
	"github.com/cxxls/cxxls/internal/indexfile"
	"github.com/cxxls/cxxls/internal/types"
)

// entityLocked returns the entity slot for (kind, id), or nil if the kind
// is not one of Type/Func/Var or id is out of range. Caller must hold db.mu.
func (db *DB) entityLocked(kind types.SymbolKind, id types.QueryID) *Entity {
	slots := db.slotsFor(kind)
	if slots == nil || int(id) >= len(*slots) {
		return nil
	}
	return &(*slots)[id]
}

func (db *DB) applyEntityDefRemovalLocked(rm indexfile.EntityDefRemoval) {
	e := db.entityLocked(rm.EntityKind, rm.EntityID)
	if e == nil {
		return
	}
	for i, d := range e.Defs {
		if d.File == rm.File {
			e.Defs = append(e.Defs[:i], e.Defs[i+1:]...)
			break
		}
	}
	db.maybeTombstoneLocked(rm.EntityKind, rm.EntityID, e)
	db.refreshSymbolIndexLocked(rm.EntityKind, rm.EntityID, e)
}

func (db *DB) applyDefUpdateLocked(du indexfile.DefUpdate) {
	e := db.entityLocked(du.EntityKind, du.EntityID)
	if e == nil {
		return
	}
	e.Kind = du.EntityKind // un-tombstone if it had been removed then redefined
	replaced := false
	for i, d := range e.Defs {
		if d.File == du.File {
			e.Defs[i].Def = du.Def
			replaced = true
			break
		}
	}
	if !replaced {
		e.Defs = append(e.Defs, DefEntry{File: du.File, Def: du.Def})
	}
	db.refreshSymbolIndexLocked(du.EntityKind, du.EntityID, e)
}

// maybeTombstoneLocked marks an entity Invalid once it has no surviving
// def and no surviving declarations or uses. The slot and id stay put:
// QueryDB never reuses an id once minted.
func (db *DB) maybeTombstoneLocked(kind types.SymbolKind, id types.QueryID, e *Entity) {
	if len(e.Defs) == 0 && len(e.Declarations) == 0 && len(e.Uses) == 0 {
		e.Kind = types.KindInvalid
	}
}

func (db *DB) refreshSymbolIndexLocked(kind types.SymbolKind, id types.QueryID, e *Entity) {
	idx := db.findSymbolIndexLocked(kind, id)
	if e.Tombstoned() {
		if idx >= 0 {
			db.symbolIndex[idx].Tombstoned = true
		}
		return
	}
	def, ok := e.AnyDef()
	if !ok {
		if idx >= 0 {
			db.symbolIndex[idx].Tombstoned = true
		}
		return
	}
	// A variable whose front def is local (auto, register, or storage-less
	// with a function parent) never enters the symbol index; if a prior
	// non-local def had entered it, the entry is retired the same way a
	// removed def's would be.
	if kind == types.KindVar && def.Def.IsLocal() {
		if idx >= 0 {
			db.symbolIndex[idx].Tombstoned = true
		}
		return
	}
	entry := symbolEntry{Name: def.Def.DetailedName, ShortName: def.Def.ShortName, Kind: kind, ID: id}
	if idx >= 0 {
		db.symbolIndex[idx] = entry
		return
	}
	db.symbolIndex = append(db.symbolIndex, entry)
}

func (db *DB) findSymbolIndexLocked(kind types.SymbolKind, id types.QueryID) int {
	for i, s := range db.symbolIndex {
		if s.Kind == kind && s.ID == id {
			return i
		}
	}
	return -1
}

func (db *DB) applyRefEdgeLocked(ru indexfile.RefEdgeUpdate) {
	e := db.entityLocked(ru.EntityKind, ru.EntityID)
	if e == nil {
		return
	}
	target := edgeRefSlot(e, ru.Edge)
	for _, r := range ru.ToRemove {
		*target = removeOneRef(*target, r)
		db.removeFileRefLocked(r)
	}
	for _, r := range ru.ToAdd {
		*target = append(*target, r)
		db.addFileRefLocked(r, ru.EntityKind)
	}
	db.maybeTombstoneLocked(ru.EntityKind, ru.EntityID, e)
	db.refreshSymbolIndexLocked(ru.EntityKind, ru.EntityID, e)
}

func edgeRefSlot(e *Entity, edge indexfile.RefEdge) *[]types.LexicalRef {
	if edge == indexfile.EdgeDeclarations {
		return &e.Declarations
	}
	return &e.Uses
}

func (db *DB) applyIDEdgeLocked(iu indexfile.IDEdgeUpdate) {
	e := db.entityLocked(iu.EntityKind, iu.EntityID)
	if e == nil {
		return
	}
	target := idEdgeSlot(e, iu.Edge)
	for _, id := range iu.ToRemove {
		*target = removeOneID(*target, id)
	}
	*target = append(*target, iu.ToAdd...)
}

func idEdgeSlot(e *Entity, edge indexfile.IDEdge) *[]types.QueryID {
	switch edge {
	case indexfile.EdgeInstances:
		return &e.Instances
	case indexfile.EdgeBases:
		return &e.Bases
	default:
		return &e.Derived
	}
}

func (db *DB) addFileRefLocked(ref types.LexicalRef, kind types.SymbolKind) {
	if int(ref.File) >= len(db.files) {
		return
	}
	f := &db.files[ref.File]
	f.refs = append(f.refs, fileRef{Ref: ref, Kind: kind})
}

func (db *DB) removeFileRefLocked(ref types.LexicalRef) {
	if int(ref.File) >= len(db.files) {
		return
	}
	f := &db.files[ref.File]
	for i, fr := range f.refs {
		if fr.Ref == ref {
			f.refs = append(f.refs[:i], f.refs[i+1:]...)
			return
		}
	}
}

func removeOneRef(s []types.LexicalRef, v types.LexicalRef) []types.LexicalRef {
	for i, r := range s {
		if r == v {
			return append(s[:i], s[i+1:]...)
		}
	}
	return s
}

func removeOneID(s []types.QueryID, v types.QueryID) []types.QueryID {
	for i, id := range s {
		if id == v {
			return append(s[:i], s[i+1:]...)
		}
	}
	return s
}

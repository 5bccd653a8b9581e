package querydb

import "github.com/cxxls/cxxls/internal/types"

// MintFile, MintType, MintFunc, MintVar implement indexfile.Minter:
// first sighting of a path/USR allocates a new dense id and a matching
// slot in the parallel vector; later sightings return the existing id.
// Ids are never reused, even once an entity is later tombstoned.
func (db *DB) MintFile(path string) types.QueryID {
	db.mu.Lock()
	defer db.mu.Unlock()
	if id, ok := db.filesByPath[path]; ok {
		return id
	}
	id := types.QueryID(len(db.files))
	db.files = append(db.files, QueryFile{ID: id, Path: path})
	db.filesByPath[path] = id
	return id
}

func (db *DB) MintType(u types.USR) types.QueryID {
	db.mu.Lock()
	defer db.mu.Unlock()
	return mintEntity(&db.types, db.typesByUSR, u, types.KindType)
}

func (db *DB) MintFunc(u types.USR) types.QueryID {
	db.mu.Lock()
	defer db.mu.Unlock()
	return mintEntity(&db.funcs, db.funcsByUSR, u, types.KindFunc)
}

func (db *DB) MintVar(u types.USR) types.QueryID {
	db.mu.Lock()
	defer db.mu.Unlock()
	return mintEntity(&db.vars, db.varsByUSR, u, types.KindVar)
}

func mintEntity(slots *[]Entity, byUSR map[types.USR]types.QueryID, u types.USR, kind types.SymbolKind) types.QueryID {
	if id, ok := byUSR[u]; ok {
		return id
	}
	id := types.QueryID(len(*slots))
	*slots = append(*slots, Entity{USR: u, Kind: kind})
	byUSR[u] = id
	return id
}

package querydb

import "github.com/cxxls/cxxls/internal/indexfile"

// Apply merges an IndexUpdate into the database. It is the only mutating
// entry point; callers (the pipeline's QueryDB-owner goroutine) are
// expected to serialize their own calls. Apply itself still takes the
// write lock so a concurrent reader never observes a half-applied update.
func (db *DB) Apply(update *indexfile.IndexUpdate) {
	if update == nil {
		return
	}
	db.mu.Lock()
	defer db.mu.Unlock()

	for _, id := range update.FilesRemoved {
		if int(id) < len(db.files) {
			db.files[id].Removed = true
		}
	}
	for _, fu := range update.FileDefUpdates {
		db.applyFileDefLocked(fu)
	}
	for _, rm := range update.EntityDefRemovals {
		db.applyEntityDefRemovalLocked(rm)
	}
	for _, du := range update.DefUpdates {
		db.applyDefUpdateLocked(du)
	}
	for _, ru := range update.RefEdgeUpdates {
		db.applyRefEdgeLocked(ru)
	}
	for _, iu := range update.IDEdgeUpdates {
		db.applyIDEdgeLocked(iu)
	}
}

func (db *DB) applyFileDefLocked(fu indexfile.FileDefUpdate) {
	if int(fu.File) >= len(db.files) {
		return
	}
	f := &db.files[fu.File]
	f.Path = fu.Def.Path
	f.Language = fu.Def.Language
	f.Includes = fu.Def.Includes
	f.InactiveRegions = fu.Def.InactiveRegions
	f.Removed = false
}

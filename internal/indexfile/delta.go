package indexfile

import (
	"sort"

	"github.com/cxxls/cxxls/internal/types"
)

// CreateDelta computes the IndexUpdate that moves QueryDB from prev's
// indexed state to cur's. prev/prevIdMap are nil for a file indexed for
// the first time; cur/curIdMap are nil when the file has been deleted from
// the workspace.
func CreateDelta(prevIdMap, curIdMap *IdMap, prev, cur *IndexFile) *IndexUpdate {
	upd := &IndexUpdate{}

	switch {
	case cur == nil:
		upd.FilesRemoved = append(upd.FilesRemoved, prevIdMap.PrimaryFile())
	case prev == nil || prev.Path != cur.Path || !fileDefEqual(prev, cur):
		upd.FileDefUpdates = append(upd.FileDefUpdates, FileDefUpdate{
			File: curIdMap.PrimaryFile(),
			Def: FileDef{
				Path:            cur.Path,
				Language:        cur.Language,
				Includes:        includePaths(cur.Includes),
				InactiveRegions: cur.SkippedRanges,
			},
		})
	}

	var prevTypes []TypeEntity
	var prevFuncs []FuncEntity
	var prevVars []VarEntity
	if prev != nil {
		prevTypes, prevFuncs, prevVars = prev.Types, prev.Funcs, prev.Vars
	}
	var curTypes []TypeEntity
	var curFuncs []FuncEntity
	var curVars []VarEntity
	if cur != nil {
		curTypes, curFuncs, curVars = cur.Types, cur.Funcs, cur.Vars
	}

	deltaTypes(prevIdMap, curIdMap, prevTypes, curTypes, upd)
	deltaFuncs(prevIdMap, curIdMap, prevFuncs, curFuncs, upd)
	deltaVars(prevIdMap, curIdMap, prevVars, curVars, upd)

	return upd
}

func fileDefEqual(prev, cur *IndexFile) bool {
	if prev.Language != cur.Language || len(prev.Includes) != len(cur.Includes) || len(prev.SkippedRanges) != len(cur.SkippedRanges) {
		return false
	}
	for i := range prev.Includes {
		if prev.Includes[i] != cur.Includes[i] {
			return false
		}
	}
	for i := range prev.SkippedRanges {
		if prev.SkippedRanges[i] != cur.SkippedRanges[i] {
			return false
		}
	}
	return true
}

func includePaths(incs []Include) []string {
	if len(incs) == 0 {
		return nil
	}
	out := make([]string, len(incs))
	for i, inc := range incs {
		out[i] = inc.ResolvedPath
	}
	return out
}

func toQueryDef(m *IdMap, d *Def) QueryDef {
	return QueryDef{
		DetailedName:  d.DetailedName,
		ShortName:     d.ShortName,
		Spell:         d.Spell,
		Extent:        d.Extent,
		Kind:          d.Kind,
		Storage:       d.Storage,
		HasFuncParent: d.HasFuncParent,
		Callees:       m.toQueryRefs(d.CalleesLocal),
	}
}

func defEqual(a, b QueryDef) bool {
	if a.DetailedName != b.DetailedName || a.ShortName != b.ShortName ||
		a.Spell != b.Spell || a.Extent != b.Extent || a.Kind != b.Kind ||
		a.Storage != b.Storage || a.HasFuncParent != b.HasFuncParent {
		return false
	}
	if len(a.Callees) != len(b.Callees) {
		return false
	}
	for i := range a.Callees {
		if a.Callees[i] != b.Callees[i] {
			return false
		}
	}
	return true
}

// hasDef reports whether d is a real definition (the parser leaves
// DetailedName empty for a bare forward declaration recorded only via
// the declarations edge).
func hasDef(d *Def) bool { return d != nil && d.DetailedName != "" }

func sortedUSRs(a, b map[types.USR]int) []types.USR {
	seen := make(map[types.USR]struct{}, len(a)+len(b))
	out := make([]types.USR, 0, len(a)+len(b))
	for u := range a {
		if _, ok := seen[u]; !ok {
			seen[u] = struct{}{}
			out = append(out, u)
		}
	}
	for u := range b {
		if _, ok := seen[u]; !ok {
			seen[u] = struct{}{}
			out = append(out, u)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func emitRefEdge(upd *IndexUpdate, kind types.SymbolKind, id types.QueryID, edge RefEdge, add, remove []types.LexicalRef) {
	if len(add) == 0 && len(remove) == 0 {
		return
	}
	upd.RefEdgeUpdates = append(upd.RefEdgeUpdates, RefEdgeUpdate{
		EntityKind: kind, EntityID: id, Edge: edge, ToAdd: add, ToRemove: remove,
	})
}

func emitIDEdge(upd *IndexUpdate, kind types.SymbolKind, id types.QueryID, edge IDEdge, add, remove []types.QueryID) {
	if len(add) == 0 && len(remove) == 0 {
		return
	}
	upd.IDEdgeUpdates = append(upd.IDEdgeUpdates, IDEdgeUpdate{
		EntityKind: kind, EntityID: id, Edge: edge, ToAdd: add, ToRemove: remove,
	})
}

func diffRefs(prev, cur []types.LexicalRef) (add, remove []types.LexicalRef) {
	prevCount := make(map[types.LexicalRef]int, len(prev))
	for _, r := range prev {
		prevCount[r]++
	}
	curCount := make(map[types.LexicalRef]int, len(cur))
	for _, r := range cur {
		curCount[r]++
	}
	for _, r := range cur {
		if prevCount[r] > 0 {
			prevCount[r]--
			continue
		}
		add = append(add, r)
	}
	for _, r := range prev {
		if curCount[r] > 0 {
			curCount[r]--
			continue
		}
		remove = append(remove, r)
	}
	return add, remove
}

func diffIDs(prev, cur []types.QueryID) (add, remove []types.QueryID) {
	prevCount := make(map[types.QueryID]int, len(prev))
	for _, id := range prev {
		prevCount[id]++
	}
	curCount := make(map[types.QueryID]int, len(cur))
	for _, id := range cur {
		curCount[id]++
	}
	for _, id := range cur {
		if prevCount[id] > 0 {
			prevCount[id]--
			continue
		}
		add = append(add, id)
	}
	for _, id := range prev {
		if curCount[id] > 0 {
			curCount[id]--
			continue
		}
		remove = append(remove, id)
	}
	return add, remove
}

func deltaTypes(prevIdMap, curIdMap *IdMap, prev, cur []TypeEntity, upd *IndexUpdate) {
	prevIdx := make(map[types.USR]int, len(prev))
	for i, e := range prev {
		prevIdx[e.USR] = i
	}
	curIdx := make(map[types.USR]int, len(cur))
	for i, e := range cur {
		curIdx[e.USR] = i
	}

	for _, usr := range sortedUSRs(prevIdx, curIdx) {
		pi, inPrev := prevIdx[usr]
		ci, inCur := curIdx[usr]
		switch {
		case inPrev && !inCur:
			pe := prev[pi]
			qid := prevIdMap.ToQueryType(types.LocalID(pi))
			if hasDef(pe.Def) {
				upd.EntityDefRemovals = append(upd.EntityDefRemovals, EntityDefRemoval{EntityKind: types.KindType, EntityID: qid, File: prevIdMap.PrimaryFile()})
			}
			emitRefEdge(upd, types.KindType, qid, EdgeDeclarations, nil, prevIdMap.toQueryRefs(pe.DeclarationsLocal))
			emitRefEdge(upd, types.KindType, qid, EdgeUses, nil, prevIdMap.toQueryRefs(pe.UsesLocal))
			emitIDEdge(upd, types.KindType, qid, EdgeDerived, nil, prevIdMap.toQueryIDs(types.KindType, pe.DerivedLocal))
			emitIDEdge(upd, types.KindType, qid, EdgeInstances, nil, prevIdMap.toQueryIDs(types.KindType, pe.InstancesLocal))
			emitIDEdge(upd, types.KindType, qid, EdgeBases, nil, prevIdMap.toQueryIDs(types.KindType, pe.BasesLocal))
		case !inPrev && inCur:
			ce := cur[ci]
			qid := curIdMap.ToQueryType(types.LocalID(ci))
			if hasDef(ce.Def) {
				upd.DefUpdates = append(upd.DefUpdates, DefUpdate{EntityKind: types.KindType, EntityID: qid, File: curIdMap.PrimaryFile(), Def: toQueryDef(curIdMap, ce.Def)})
			}
			emitRefEdge(upd, types.KindType, qid, EdgeDeclarations, curIdMap.toQueryRefs(ce.DeclarationsLocal), nil)
			emitRefEdge(upd, types.KindType, qid, EdgeUses, curIdMap.toQueryRefs(ce.UsesLocal), nil)
			emitIDEdge(upd, types.KindType, qid, EdgeDerived, curIdMap.toQueryIDs(types.KindType, ce.DerivedLocal), nil)
			emitIDEdge(upd, types.KindType, qid, EdgeInstances, curIdMap.toQueryIDs(types.KindType, ce.InstancesLocal), nil)
			emitIDEdge(upd, types.KindType, qid, EdgeBases, curIdMap.toQueryIDs(types.KindType, ce.BasesLocal), nil)
		default:
			pe, ce := prev[pi], cur[ci]
			qid := curIdMap.ToQueryType(types.LocalID(ci))
			curHasDef, prevHasDef := hasDef(ce.Def), hasDef(pe.Def)
			switch {
			case curHasDef:
				newDef := toQueryDef(curIdMap, ce.Def)
				if !prevHasDef || !defEqual(toQueryDef(prevIdMap, pe.Def), newDef) {
					upd.DefUpdates = append(upd.DefUpdates, DefUpdate{EntityKind: types.KindType, EntityID: qid, File: curIdMap.PrimaryFile(), Def: newDef})
				}
			case prevHasDef:
				upd.EntityDefRemovals = append(upd.EntityDefRemovals, EntityDefRemoval{EntityKind: types.KindType, EntityID: qid, File: curIdMap.PrimaryFile()})
			}
			addR, remR := diffRefs(prevIdMap.toQueryRefs(pe.DeclarationsLocal), curIdMap.toQueryRefs(ce.DeclarationsLocal))
			emitRefEdge(upd, types.KindType, qid, EdgeDeclarations, addR, remR)
			addR, remR = diffRefs(prevIdMap.toQueryRefs(pe.UsesLocal), curIdMap.toQueryRefs(ce.UsesLocal))
			emitRefEdge(upd, types.KindType, qid, EdgeUses, addR, remR)
			addI, remI := diffIDs(prevIdMap.toQueryIDs(types.KindType, pe.DerivedLocal), curIdMap.toQueryIDs(types.KindType, ce.DerivedLocal))
			emitIDEdge(upd, types.KindType, qid, EdgeDerived, addI, remI)
			addI, remI = diffIDs(prevIdMap.toQueryIDs(types.KindType, pe.InstancesLocal), curIdMap.toQueryIDs(types.KindType, ce.InstancesLocal))
			emitIDEdge(upd, types.KindType, qid, EdgeInstances, addI, remI)
			addI, remI = diffIDs(prevIdMap.toQueryIDs(types.KindType, pe.BasesLocal), curIdMap.toQueryIDs(types.KindType, ce.BasesLocal))
			emitIDEdge(upd, types.KindType, qid, EdgeBases, addI, remI)
		}
	}
}

func deltaFuncs(prevIdMap, curIdMap *IdMap, prev, cur []FuncEntity, upd *IndexUpdate) {
	prevIdx := make(map[types.USR]int, len(prev))
	for i, e := range prev {
		prevIdx[e.USR] = i
	}
	curIdx := make(map[types.USR]int, len(cur))
	for i, e := range cur {
		curIdx[e.USR] = i
	}

	for _, usr := range sortedUSRs(prevIdx, curIdx) {
		pi, inPrev := prevIdx[usr]
		ci, inCur := curIdx[usr]
		switch {
		case inPrev && !inCur:
			pe := prev[pi]
			qid := prevIdMap.ToQueryFunc(types.LocalID(pi))
			if hasDef(pe.Def) {
				upd.EntityDefRemovals = append(upd.EntityDefRemovals, EntityDefRemoval{EntityKind: types.KindFunc, EntityID: qid, File: prevIdMap.PrimaryFile()})
			}
			emitRefEdge(upd, types.KindFunc, qid, EdgeDeclarations, nil, prevIdMap.toQueryRefs(pe.DeclarationsLocal))
			emitRefEdge(upd, types.KindFunc, qid, EdgeUses, nil, prevIdMap.toQueryRefs(pe.UsesLocal))
			emitIDEdge(upd, types.KindFunc, qid, EdgeDerived, nil, prevIdMap.toQueryIDs(types.KindFunc, pe.DerivedLocal))
		case !inPrev && inCur:
			ce := cur[ci]
			qid := curIdMap.ToQueryFunc(types.LocalID(ci))
			if hasDef(ce.Def) {
				upd.DefUpdates = append(upd.DefUpdates, DefUpdate{EntityKind: types.KindFunc, EntityID: qid, File: curIdMap.PrimaryFile(), Def: toQueryDef(curIdMap, ce.Def)})
			}
			emitRefEdge(upd, types.KindFunc, qid, EdgeDeclarations, curIdMap.toQueryRefs(ce.DeclarationsLocal), nil)
			emitRefEdge(upd, types.KindFunc, qid, EdgeUses, curIdMap.toQueryRefs(ce.UsesLocal), nil)
			emitIDEdge(upd, types.KindFunc, qid, EdgeDerived, curIdMap.toQueryIDs(types.KindFunc, ce.DerivedLocal), nil)
		default:
			pe, ce := prev[pi], cur[ci]
			qid := curIdMap.ToQueryFunc(types.LocalID(ci))
			curHasDef, prevHasDef := hasDef(ce.Def), hasDef(pe.Def)
			switch {
			case curHasDef:
				newDef := toQueryDef(curIdMap, ce.Def)
				if !prevHasDef || !defEqual(toQueryDef(prevIdMap, pe.Def), newDef) {
					upd.DefUpdates = append(upd.DefUpdates, DefUpdate{EntityKind: types.KindFunc, EntityID: qid, File: curIdMap.PrimaryFile(), Def: newDef})
				}
			case prevHasDef:
				upd.EntityDefRemovals = append(upd.EntityDefRemovals, EntityDefRemoval{EntityKind: types.KindFunc, EntityID: qid, File: curIdMap.PrimaryFile()})
			}
			addR, remR := diffRefs(prevIdMap.toQueryRefs(pe.DeclarationsLocal), curIdMap.toQueryRefs(ce.DeclarationsLocal))
			emitRefEdge(upd, types.KindFunc, qid, EdgeDeclarations, addR, remR)
			addR, remR = diffRefs(prevIdMap.toQueryRefs(pe.UsesLocal), curIdMap.toQueryRefs(ce.UsesLocal))
			emitRefEdge(upd, types.KindFunc, qid, EdgeUses, addR, remR)
			addI, remI := diffIDs(prevIdMap.toQueryIDs(types.KindFunc, pe.DerivedLocal), curIdMap.toQueryIDs(types.KindFunc, ce.DerivedLocal))
			emitIDEdge(upd, types.KindFunc, qid, EdgeDerived, addI, remI)
		}
	}
}

func deltaVars(prevIdMap, curIdMap *IdMap, prev, cur []VarEntity, upd *IndexUpdate) {
	prevIdx := make(map[types.USR]int, len(prev))
	for i, e := range prev {
		prevIdx[e.USR] = i
	}
	curIdx := make(map[types.USR]int, len(cur))
	for i, e := range cur {
		curIdx[e.USR] = i
	}

	for _, usr := range sortedUSRs(prevIdx, curIdx) {
		pi, inPrev := prevIdx[usr]
		ci, inCur := curIdx[usr]
		switch {
		case inPrev && !inCur:
			pe := prev[pi]
			qid := prevIdMap.ToQueryVar(types.LocalID(pi))
			if hasDef(pe.Def) {
				upd.EntityDefRemovals = append(upd.EntityDefRemovals, EntityDefRemoval{EntityKind: types.KindVar, EntityID: qid, File: prevIdMap.PrimaryFile()})
			}
			emitRefEdge(upd, types.KindVar, qid, EdgeDeclarations, nil, prevIdMap.toQueryRefs(pe.DeclarationsLocal))
			emitRefEdge(upd, types.KindVar, qid, EdgeUses, nil, prevIdMap.toQueryRefs(pe.UsesLocal))
		case !inPrev && inCur:
			ce := cur[ci]
			qid := curIdMap.ToQueryVar(types.LocalID(ci))
			if hasDef(ce.Def) {
				upd.DefUpdates = append(upd.DefUpdates, DefUpdate{EntityKind: types.KindVar, EntityID: qid, File: curIdMap.PrimaryFile(), Def: toQueryDef(curIdMap, ce.Def)})
			}
			emitRefEdge(upd, types.KindVar, qid, EdgeDeclarations, curIdMap.toQueryRefs(ce.DeclarationsLocal), nil)
			emitRefEdge(upd, types.KindVar, qid, EdgeUses, curIdMap.toQueryRefs(ce.UsesLocal), nil)
		default:
			pe, ce := prev[pi], cur[ci]
			qid := curIdMap.ToQueryVar(types.LocalID(ci))
			curHasDef, prevHasDef := hasDef(ce.Def), hasDef(pe.Def)
			switch {
			case curHasDef:
				newDef := toQueryDef(curIdMap, ce.Def)
				if !prevHasDef || !defEqual(toQueryDef(prevIdMap, pe.Def), newDef) {
					upd.DefUpdates = append(upd.DefUpdates, DefUpdate{EntityKind: types.KindVar, EntityID: qid, File: curIdMap.PrimaryFile(), Def: newDef})
				}
			case prevHasDef:
				upd.EntityDefRemovals = append(upd.EntityDefRemovals, EntityDefRemoval{EntityKind: types.KindVar, EntityID: qid, File: curIdMap.PrimaryFile()})
			}
			addR, remR := diffRefs(prevIdMap.toQueryRefs(pe.DeclarationsLocal), curIdMap.toQueryRefs(ce.DeclarationsLocal))
			emitRefEdge(upd, types.KindVar, qid, EdgeDeclarations, addR, remR)
			addR, remR = diffRefs(prevIdMap.toQueryRefs(pe.UsesLocal), curIdMap.toQueryRefs(ce.UsesLocal))
			emitRefEdge(upd, types.KindVar, qid, EdgeUses, addR, remR)
		}
	}
}

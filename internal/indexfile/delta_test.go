package indexfile

import (
	"testing"

	"github.com/cxxls/cxxls/internal/types"
)

func mkRange(line int) types.Range {
	return types.Range{Start: types.Position{Line: line, Column: 0}, End: types.Position{Line: line, Column: 5}}
}

func TestCreateDeltaFirstImportEmitsAdds(t *testing.T) {
	minter := newFakeMinter()
	cur := &IndexFile{
		Path: "widget.h",
		Funcs: []FuncEntity{
			{
				USR: 100,
				Def: &Def{DetailedName: "void foo()", ShortName: "foo", Spell: mkRange(1), Extent: mkRange(1)},
				UsesLocal: []LexicalRefLocal{
					{Range: mkRange(4), ID: 0, Kind: types.KindFunc, Role: types.RoleCall},
				},
			},
		},
	}
	curIdMap := BuildIdMap(cur, minter)

	upd := CreateDelta(nil, curIdMap, nil, cur)

	if len(upd.DefUpdates) != 1 {
		t.Fatalf("expected 1 DefUpdate, got %d", len(upd.DefUpdates))
	}
	if upd.DefUpdates[0].Def.DetailedName != "void foo()" {
		t.Fatalf("unexpected def: %+v", upd.DefUpdates[0].Def)
	}
	foundUses := false
	for _, ru := range upd.RefEdgeUpdates {
		if ru.Edge == EdgeUses && len(ru.ToAdd) == 1 && len(ru.ToRemove) == 0 {
			foundUses = true
		}
	}
	if !foundUses {
		t.Fatalf("expected a Uses edge update with one addition, got %+v", upd.RefEdgeUpdates)
	}
	if len(upd.FileDefUpdates) != 1 || upd.FileDefUpdates[0].Def.Path != "widget.h" {
		t.Fatalf("expected a FileDefUpdate for widget.h, got %+v", upd.FileDefUpdates)
	}
}

func TestCreateDeltaUnchangedFileIsNoOp(t *testing.T) {
	minter := newFakeMinter()
	mkFile := func() *IndexFile {
		return &IndexFile{
			Path: "widget.h",
			Funcs: []FuncEntity{
				{
					USR: 100,
					Def: &Def{DetailedName: "void foo()", ShortName: "foo", Spell: mkRange(1), Extent: mkRange(1)},
					UsesLocal: []LexicalRefLocal{
						{Range: mkRange(4), ID: 0, Kind: types.KindFunc, Role: types.RoleCall},
					},
				},
			},
		}
	}

	prev := mkFile()
	prevIdMap := BuildIdMap(prev, minter)
	_ = CreateDelta(nil, prevIdMap, nil, prev)

	cur := mkFile()
	curIdMap := BuildIdMap(cur, minter)
	upd := CreateDelta(prevIdMap, curIdMap, prev, cur)

	if len(upd.DefUpdates) != 0 {
		t.Fatalf("expected no DefUpdates for an unchanged file, got %+v", upd.DefUpdates)
	}
	if len(upd.RefEdgeUpdates) != 0 {
		t.Fatalf("expected no RefEdgeUpdates for an unchanged file, got %+v", upd.RefEdgeUpdates)
	}
	if len(upd.FileDefUpdates) != 0 {
		t.Fatalf("expected no FileDefUpdate for an unchanged file, got %+v", upd.FileDefUpdates)
	}
}

func TestCreateDeltaRemovedUseIsDiffed(t *testing.T) {
	minter := newFakeMinter()
	prev := &IndexFile{
		Path: "widget.h",
		Funcs: []FuncEntity{
			{
				USR: 100,
				Def: &Def{DetailedName: "void foo()"},
				UsesLocal: []LexicalRefLocal{
					{Range: mkRange(4), ID: 0, Kind: types.KindFunc, Role: types.RoleCall},
					{Range: mkRange(9), ID: 0, Kind: types.KindFunc, Role: types.RoleCall},
				},
			},
		},
	}
	prevIdMap := BuildIdMap(prev, minter)

	cur := &IndexFile{
		Path: "widget.h",
		Funcs: []FuncEntity{
			{
				USR: 100,
				Def: &Def{DetailedName: "void foo()"},
				UsesLocal: []LexicalRefLocal{
					{Range: mkRange(4), ID: 0, Kind: types.KindFunc, Role: types.RoleCall},
				},
			},
		},
	}
	curIdMap := BuildIdMap(cur, minter)

	upd := CreateDelta(prevIdMap, curIdMap, prev, cur)

	if len(upd.DefUpdates) != 0 {
		t.Fatalf("def text is unchanged, expected no DefUpdates, got %+v", upd.DefUpdates)
	}
	var usesEdge *RefEdgeUpdate
	for i := range upd.RefEdgeUpdates {
		if upd.RefEdgeUpdates[i].Edge == EdgeUses {
			usesEdge = &upd.RefEdgeUpdates[i]
		}
	}
	if usesEdge == nil {
		t.Fatalf("expected a Uses RefEdgeUpdate")
	}
	if len(usesEdge.ToAdd) != 0 || len(usesEdge.ToRemove) != 1 {
		t.Fatalf("expected exactly one removed use, got add=%d remove=%d", len(usesEdge.ToAdd), len(usesEdge.ToRemove))
	}
	if usesEdge.ToRemove[0].Range != mkRange(9) {
		t.Fatalf("removed the wrong use: %+v", usesEdge.ToRemove[0])
	}
}

func TestCreateDeltaFileDeletionRemovesEverything(t *testing.T) {
	minter := newFakeMinter()
	prev := &IndexFile{
		Path: "widget.h",
		Funcs: []FuncEntity{
			{USR: 100, Def: &Def{DetailedName: "void foo()"}},
		},
	}
	prevIdMap := BuildIdMap(prev, minter)

	upd := CreateDelta(prevIdMap, nil, prev, nil)

	if len(upd.FilesRemoved) != 1 || upd.FilesRemoved[0] != prevIdMap.PrimaryFile() {
		t.Fatalf("expected widget.h's file id in FilesRemoved, got %+v", upd.FilesRemoved)
	}
	if len(upd.EntityDefRemovals) != 1 {
		t.Fatalf("expected foo's def to be removed, got %+v", upd.EntityDefRemovals)
	}
}

func TestMergeCoalescesSameEdge(t *testing.T) {
	a := &IndexUpdate{
		RefEdgeUpdates: []RefEdgeUpdate{
			{EntityKind: types.KindFunc, EntityID: 5, Edge: EdgeUses, ToAdd: []types.LexicalRef{{ID: 1}}},
		},
	}
	b := &IndexUpdate{
		RefEdgeUpdates: []RefEdgeUpdate{
			{EntityKind: types.KindFunc, EntityID: 5, Edge: EdgeUses, ToAdd: []types.LexicalRef{{ID: 2}}},
		},
	}
	merged := a.Merge(b)
	if len(merged.RefEdgeUpdates) != 1 {
		t.Fatalf("expected the two updates to coalesce into one, got %d", len(merged.RefEdgeUpdates))
	}
	if len(merged.RefEdgeUpdates[0].ToAdd) != 2 {
		t.Fatalf("expected both additions to survive coalescing, got %+v", merged.RefEdgeUpdates[0].ToAdd)
	}
}

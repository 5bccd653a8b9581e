package querydb

import (
	"testing"

	"github.com/cxxls/cxxls/internal/indexfile"
	"github.com/cxxls/cxxls/internal/types"
)

func mkRange(line int) types.Range {
	return types.Range{Start: types.Position{Line: line, Column: 0}, End: types.Position{Line: line, Column: 5}}
}

func TestApplyFirstImportStoresDefAndUses(t *testing.T) {
	db := New()
	file := &indexfile.IndexFile{
		Path: "widget.h",
		Funcs: []indexfile.FuncEntity{
			{
				USR: 100,
				Def: &indexfile.Def{DetailedName: "void foo()", ShortName: "foo", Spell: mkRange(1)},
				UsesLocal: []indexfile.LexicalRefLocal{
					{Range: mkRange(4), ID: 0, Kind: types.KindFunc, Role: types.RoleCall},
				},
			},
		},
	}
	idMap := indexfile.BuildIdMap(file, db)
	upd := indexfile.CreateDelta(nil, idMap, nil, file)
	db.Apply(upd)

	fid, ok := db.ResolveFile("widget.h")
	if !ok {
		t.Fatalf("expected widget.h to resolve")
	}
	funcID, ok := db.ResolveUSR(types.KindFunc, 100)
	if !ok {
		t.Fatalf("expected USR 100 to resolve")
	}
	if name := db.DetailedName(types.KindFunc, funcID); name != "void foo()" {
		t.Fatalf("unexpected detailed name %q", name)
	}
	refs := db.References(types.KindFunc, funcID)
	if len(refs) != 1 || refs[0].File != fid {
		t.Fatalf("expected one reference tagged with widget.h's file id, got %+v", refs)
	}
	all := db.AllSymbols(fid)
	if len(all) != 1 {
		t.Fatalf("expected 1 symbol in widget.h's outline, got %d", len(all))
	}
}

func TestImplicitRefsWidenInAllSymbols(t *testing.T) {
	db := New()
	file := &indexfile.IndexFile{
		Path: "widget.h",
		Vars: []indexfile.VarEntity{
			{
				USR: 7,
				Def: &indexfile.Def{DetailedName: "int x"},
				UsesLocal: []indexfile.LexicalRefLocal{
					{Range: mkRange(2), ID: 0, Kind: types.KindVar, Role: types.RoleImplicit},
				},
			},
		},
	}
	idMap := indexfile.BuildIdMap(file, db)
	db.Apply(indexfile.CreateDelta(nil, idMap, nil, file))

	fid, _ := db.ResolveFile("widget.h")
	all := db.AllSymbols(fid)
	if len(all) != 1 {
		t.Fatalf("expected one symbol, got %d", len(all))
	}
	want := mkRange(2).WidenByColumn(1)
	if all[0].Range != want {
		t.Fatalf("expected widened range %+v, got %+v", want, all[0].Range)
	}
}

func TestRemovingLastDefAndRefsTombstones(t *testing.T) {
	db := New()
	mk := func(withDef bool) *indexfile.IndexFile {
		f := &indexfile.IndexFile{Path: "a.h"}
		if withDef {
			f.Funcs = []indexfile.FuncEntity{{USR: 5, Def: &indexfile.Def{DetailedName: "void f()"}}}
		}
		return f
	}

	v1 := mk(true)
	m1 := indexfile.BuildIdMap(v1, db)
	db.Apply(indexfile.CreateDelta(nil, m1, nil, v1))

	funcID, ok := db.ResolveUSR(types.KindFunc, 5)
	if !ok {
		t.Fatalf("expected USR 5 to resolve after first import")
	}

	v2 := mk(false)
	m2 := indexfile.BuildIdMap(v2, db)
	db.Apply(indexfile.CreateDelta(m1, m2, v1, v2))

	if _, ok := db.GetEntity(types.KindFunc, funcID); ok {
		t.Fatalf("expected entity to be tombstoned once its only def and refs are gone")
	}
}

func TestMultipleDefsKeepsFirstAsAnyDef(t *testing.T) {
	db := New()
	a := &indexfile.IndexFile{
		Path:  "a.h",
		Types: []indexfile.TypeEntity{{USR: 9, Def: &indexfile.Def{DetailedName: "struct Widget (a.h)"}}},
	}
	b := &indexfile.IndexFile{
		Path:  "b.h",
		Types: []indexfile.TypeEntity{{USR: 9, Def: &indexfile.Def{DetailedName: "struct Widget (b.h)"}}},
	}
	db.Apply(indexfile.CreateDelta(nil, indexfile.BuildIdMap(a, db), nil, a))
	db.Apply(indexfile.CreateDelta(nil, indexfile.BuildIdMap(b, db), nil, b))

	typeID, _ := db.ResolveUSR(types.KindType, 9)
	if name := db.DetailedName(types.KindType, typeID); name != "struct Widget (a.h)" {
		t.Fatalf("expected AnyDef to stay the first-inserted def, got %q", name)
	}
}

func TestLocalVarExcludedFromSymbolIndex(t *testing.T) {
	db := New()
	file := &indexfile.IndexFile{
		Path: "main.cc",
		Vars: []indexfile.VarEntity{
			{USR: 1, Def: &indexfile.Def{DetailedName: "int global"}},
			{USR: 2, Def: &indexfile.Def{DetailedName: "int tmp", Storage: types.StorageAuto}},
			{USR: 3, Def: &indexfile.Def{DetailedName: "int n", HasFuncParent: true}},
			{USR: 4, Def: &indexfile.Def{DetailedName: "int counter", Storage: types.StorageStaticLocal, HasFuncParent: true}},
		},
	}
	db.Apply(indexfile.CreateDelta(nil, indexfile.BuildIdMap(file, db), nil, file))

	names := map[string]bool{}
	for _, s := range db.AllIndexedSymbols() {
		names[s.Name] = true
	}
	if !names["int global"] || !names["int counter"] {
		t.Fatalf("expected non-local vars in symbol index, got %v", names)
	}
	if names["int tmp"] || names["int n"] {
		t.Fatalf("expected local vars to stay out of the symbol index, got %v", names)
	}
}

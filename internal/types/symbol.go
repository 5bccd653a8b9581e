package types

// SymbolKind discriminates which QueryDB vector a reference's id indexes
// into. Prefer this tagged-variant approach over inheritance: LexicalRef and
// SymbolRef carry a Kind discriminant and interpret ID accordingly, so the
// symbol graph never needs heap-pointer cycles (see DESIGN.md "Graph
// cycles").
type SymbolKind uint8

const (
	KindInvalid SymbolKind = iota
	KindFile
	KindType
	KindFunc
	KindVar
)

func (k SymbolKind) String() string {
	switch k {
	case KindFile:
		return "File"
	case KindType:
		return "Type"
	case KindFunc:
		return "Func"
	case KindVar:
		return "Var"
	default:
		return "Invalid"
	}
}

// Role is a bitmask describing how a symbol is referenced at one lexical
// location.
type Role uint16

const RoleNone Role = 0

const (
	RoleDeclaration Role = 1 << iota
	RoleDefinition
	RoleReference
	RoleRead
	RoleWrite
	RoleCall
	RoleDynamic
	RoleAddress
	RoleImplicit
)

func (r Role) Has(bit Role) bool { return r&bit != 0 }

// Language is the source language QueryFile.Def records, classified from
// the file extension. Every language is parsed with the same C++ grammar
// and extracted the same way; Objective-C categories/protocols get no
// special mapping onto the type/func/var model.
type Language uint8

const (
	LangUnknown Language = iota
	LangC
	LangCpp
	LangObjC
	LangObjCpp
)

func (l Language) String() string {
	switch l {
	case LangC:
		return "c"
	case LangCpp:
		return "cpp"
	case LangObjC:
		return "objective-c"
	case LangObjCpp:
		return "objective-cpp"
	default:
		return "unknown"
	}
}

// StorageClass records a variable Def's storage, used to decide whether it
// is "local" (and therefore excluded from the symbol index).
type StorageClass uint8

const (
	StorageNone StorageClass = iota
	StorageAuto
	StorageRegister
	StorageStatic
	StorageExtern
	StorageStaticLocal // static storage, function-scoped (kept in index)
)

// IsLocal reports whether a Def with this storage class is excluded from
// the workspace-wide symbol index. Locals (auto, register, or storage-less
// variables with a function parent) never enter the index. Function-scoped
// static variables retain file-wide identity and are not local.
func (s StorageClass) IsLocal(hasFunctionParent bool) bool {
	switch s {
	case StorageAuto, StorageRegister:
		return true
	case StorageNone:
		return hasFunctionParent
	default:
		return false
	}
}

// LexicalRef is a single occurrence of a symbol at one source location:
// (file, range, id, kind, role).
type LexicalRef struct {
	File  QueryID
	Range Range
	ID    QueryID
	Kind  SymbolKind
	Role  Role
}

// SymbolRef is the lighter (file, range)-less handle used by indexes that
// key purely by symbol identity (e.g. the symbol_idx vector).
type SymbolRef struct {
	ID   QueryID
	Kind SymbolKind
}

package parser

import (
	"path/filepath"
	"strings"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/cxxls/cxxls/internal/indexfile"
	"github.com/cxxls/cxxls/internal/types"
)

// extractor walks one tree-sitter-cpp parse tree and accumulates the
// IndexFile facts for a single translation unit. It is not reused across
// files.
type extractor struct {
	content []byte
	path    string
	lang    types.Language

	scope     []string // enclosing namespace/class qualifiers, innermost last
	funcStack []int    // indices into funcs for the enclosing function(s)

	types []indexfile.TypeEntity
	funcs []indexfile.FuncEntity
	vars  []indexfile.VarEntity

	typesByQualName map[string]int
	funcsByQualName map[string]int
	pendingCallees  map[int][]pendingCallee

	includes []indexfile.Include
	skipped  []types.Range
}

type pendingCallee struct {
	name string
	r    types.Range
}

func newExtractor(content []byte, path string, lang types.Language) *extractor {
	return &extractor{
		content:         content,
		path:            path,
		lang:            lang,
		typesByQualName: make(map[string]int),
		funcsByQualName: make(map[string]int),
		pendingCallees:  make(map[int][]pendingCallee),
	}
}

// walk is the single recursive AST pass. Objective-C/Objective-C++ syntax
// (@interface, @implementation, @protocol, category extensions) is not
// understood by the cpp grammar and surfaces as ERROR nodes; walk descends
// into them like any other node and simply extracts whatever well-formed
// C-style declarations happen to sit inside, rather than failing the parse.
func (ex *extractor) walk(node *tree_sitter.Node) {
	if node == nil {
		return
	}

	switch node.Kind() {
	case "namespace_definition":
		ex.walkNamespace(node)
		return

	case "class_specifier", "struct_specifier", "union_specifier":
		ex.walkAggregate(node)
		return

	case "enum_specifier":
		ex.extractType(node)
		ex.walkChildren(node)
		return

	case "function_definition":
		ex.extractFunction(node)
		return

	case "field_declaration":
		ex.extractFieldDeclaration(node)
		return

	case "declaration":
		ex.extractDeclaration(node)
		return

	case "preproc_include":
		ex.extractInclude(node)
		return

	case "preproc_if":
		if ex.handleDeadPreprocIf(node) {
			return
		}

	case "call_expression":
		ex.recordCallee(node)
	}

	ex.walkChildren(node)
}

func (ex *extractor) walkChildren(node *tree_sitter.Node) {
	n := node.ChildCount()
	for i := uint(0); i < n; i++ {
		ex.walk(node.Child(i))
	}
}

func (ex *extractor) walkNamespace(node *tree_sitter.Node) {
	name := ex.text(node.ChildByFieldName("name"))
	if name != "" {
		ex.scope = append(ex.scope, name)
	}
	ex.walkChildren(node)
	if name != "" {
		ex.scope = ex.scope[:len(ex.scope)-1]
	}
}

func (ex *extractor) walkAggregate(node *tree_sitter.Node) {
	ex.extractType(node)

	nameNode := node.ChildByFieldName("name")
	name := ex.text(nameNode)
	if name != "" {
		ex.scope = append(ex.scope, name)
	}
	ex.walkChildren(node)
	if name != "" {
		ex.scope = ex.scope[:len(ex.scope)-1]
	}
}

// extractType handles class/struct/union/enum specifiers, including a bare
// forward declaration (`class Widget;`, no body field). An anonymous
// aggregate (no name field) contributes no TypeEntity: it has no USR
// spelling distinct from its member declarations. A name already seen in
// this file (forward-declared then defined, or redeclared) is folded into
// the existing entity rather than minted again, matching the one-entity-
// per-USR-per-file invariant the delta computation in internal/indexfile
// relies on.
func (ex *extractor) extractType(node *tree_sitter.Node) {
	nameNode := node.ChildByFieldName("name")
	if nameNode == nil {
		return
	}
	name := ex.text(nameNode)
	qname := qualify(ex.scope, name)
	usr := makeUSR(types.KindType, qname, "")
	nameRange := ex.rangeOf(nameNode)
	hasBody := node.ChildByFieldName("body") != nil

	var def *indexfile.Def
	if hasBody {
		def = &indexfile.Def{
			DetailedName: qname,
			ShortName:    name,
			Spell:        nameRange,
			Extent:       ex.rangeOf(node),
			Kind:         types.KindType,
			Storage:      types.StorageNone,
		}
	}

	if idx, ok := ex.typesByQualName[qname]; ok {
		ex.types[idx].DeclarationsLocal = append(ex.types[idx].DeclarationsLocal, indexfile.LexicalRefLocal{
			Range: nameRange, ID: types.LocalID(idx), Kind: types.KindType, Role: declRole(hasBody),
		})
		if def != nil {
			ex.types[idx].Def = def
		}
		return
	}

	idx := len(ex.types)
	ex.types = append(ex.types, indexfile.TypeEntity{
		USR: usr,
		Def: def,
		DeclarationsLocal: []indexfile.LexicalRefLocal{{
			Range: nameRange,
			ID:    types.LocalID(idx),
			Kind:  types.KindType,
			Role:  declRole(hasBody),
		}},
	})
	ex.typesByQualName[qname] = idx
}

func declRole(isDefinition bool) types.Role {
	if isDefinition {
		return types.RoleDefinition
	}
	return types.RoleDeclaration
}

// extractFunction handles an out-of-line or inline function/method
// definition (one with a body). Its own declarator subtree is not walked a
// second time; the body is, to pick up nested locals and call edges.
func (ex *extractor) extractFunction(node *tree_sitter.Node) {
	declNode := node.ChildByFieldName("declarator")
	name, scopeParts, fnNode := ex.resolveDeclarator(declNode)
	if name == "" || fnNode == nil {
		ex.walkChildren(node)
		return
	}

	fullScope := append(append([]string{}, ex.scope...), scopeParts...)
	qname := qualify(fullScope, name)
	sig := ex.paramSignature(fnNode)
	usr := makeUSR(types.KindFunc, qname, sig)

	spell := ex.rangeOf(node)
	if nameNode := ex.leafNameNode(declNode); nameNode != nil {
		spell = ex.rangeOf(nameNode)
	}

	def := &indexfile.Def{
		DetailedName: qname + detailSuffix(sig),
		ShortName:    name,
		Spell:        spell,
		Extent:       ex.rangeOf(node),
		Kind:         types.KindFunc,
		Storage:      ex.storageOf(node),
	}

	// A prior prototype for the same qualified name (a class's in-body
	// declaration, or an earlier free-function forward declaration) is
	// folded into one entity rather than minted twice.
	var idx int
	if existing, ok := ex.funcsByQualName[qname]; ok {
		idx = existing
		ex.funcs[idx].USR = usr
		ex.funcs[idx].Def = def
		ex.funcs[idx].DeclarationsLocal = append(ex.funcs[idx].DeclarationsLocal, indexfile.LexicalRefLocal{
			Range: spell, ID: types.LocalID(idx), Kind: types.KindFunc, Role: types.RoleDefinition,
		})
	} else {
		idx = len(ex.funcs)
		ex.funcs = append(ex.funcs, indexfile.FuncEntity{
			USR: usr,
			Def: def,
			DeclarationsLocal: []indexfile.LexicalRefLocal{{
				Range: spell,
				ID:    types.LocalID(idx),
				Kind:  types.KindFunc,
				Role:  types.RoleDefinition,
			}},
		})
		ex.funcsByQualName[qname] = idx
	}

	ex.funcStack = append(ex.funcStack, idx)
	if body := node.ChildByFieldName("body"); body != nil {
		ex.walkChildren(body)
	}
	ex.funcStack = ex.funcStack[:len(ex.funcStack)-1]
}

// extractFieldDeclaration handles a class/struct member: either a method
// prototype (the declarator unwraps to a function_declarator) or a data
// member. Only the first declarator is indexed for `int a, b;`-style
// multi-declarator members (see DESIGN.md).
func (ex *extractor) extractFieldDeclaration(node *tree_sitter.Node) {
	d := node.ChildByFieldName("declarator")
	if d == nil {
		ex.walkChildren(node)
		return
	}
	name, scopeParts, fnNode := ex.resolveDeclarator(d)
	if name == "" {
		ex.walkChildren(node)
		return
	}
	if fnNode != nil {
		ex.extractFuncDeclaration(node, d, name, scopeParts, fnNode)
	} else {
		ex.extractVarDeclaration(node, d, name, scopeParts, false)
	}
	ex.walkChildren(node)
}

// extractDeclaration handles a bare `T x;` / `T x = init;` / `T f(...);`
// statement, at file scope or inside a function body.
func (ex *extractor) extractDeclaration(node *tree_sitter.Node) {
	d := node.ChildByFieldName("declarator")
	if d == nil {
		ex.walkChildren(node)
		return
	}
	name, scopeParts, fnNode := ex.resolveDeclarator(d)
	if name == "" {
		ex.walkChildren(node)
		return
	}
	if fnNode != nil {
		ex.extractFuncDeclaration(node, d, name, scopeParts, fnNode)
	} else {
		ex.extractVarDeclaration(node, d, name, scopeParts, len(ex.funcStack) > 0)
	}
	ex.walkChildren(node)
}

// extractFuncDeclaration records a function prototype: a declaration with
// no body. If a definition (or an earlier prototype) for the same qualified
// name already exists in this file, the occurrence is folded into that
// entity's declarations instead of minting a duplicate.
func (ex *extractor) extractFuncDeclaration(declStmt, declNode *tree_sitter.Node, name string, scopeParts []string, fnNode *tree_sitter.Node) {
	fullScope := append(append([]string{}, ex.scope...), scopeParts...)
	qname := qualify(fullScope, name)
	sig := ex.paramSignature(fnNode)
	usr := makeUSR(types.KindFunc, qname, sig)

	r := ex.rangeOf(declStmt)
	if nameNode := ex.leafNameNode(declNode); nameNode != nil {
		r = ex.rangeOf(nameNode)
	}

	if idx, ok := ex.funcsByQualName[qname]; ok {
		ex.funcs[idx].DeclarationsLocal = append(ex.funcs[idx].DeclarationsLocal, indexfile.LexicalRefLocal{
			Range: r, ID: types.LocalID(idx), Kind: types.KindFunc, Role: types.RoleDeclaration,
		})
		return
	}

	idx := len(ex.funcs)
	ex.funcs = append(ex.funcs, indexfile.FuncEntity{
		USR: usr,
		DeclarationsLocal: []indexfile.LexicalRefLocal{{
			Range: r, ID: types.LocalID(idx), Kind: types.KindFunc, Role: types.RoleDeclaration,
		}},
	})
	ex.funcsByQualName[qname] = idx
}

func (ex *extractor) extractVarDeclaration(declStmt, declNode *tree_sitter.Node, name string, scopeParts []string, hasFuncParent bool) {
	fullScope := append(append([]string{}, ex.scope...), scopeParts...)
	qname := qualify(fullScope, name)
	usr := makeUSR(types.KindVar, qname, "")

	r := ex.rangeOf(declStmt)
	if nameNode := ex.leafNameNode(declNode); nameNode != nil {
		r = ex.rangeOf(nameNode)
	}

	idx := len(ex.vars)
	ex.vars = append(ex.vars, indexfile.VarEntity{
		USR: usr,
		Def: &indexfile.Def{
			DetailedName:  qname,
			ShortName:     name,
			Spell:         r,
			Extent:        ex.rangeOf(declStmt),
			Kind:          types.KindVar,
			Storage:       ex.storageOf(declStmt),
			HasFuncParent: hasFuncParent,
		},
		DeclarationsLocal: []indexfile.LexicalRefLocal{{
			Range: r, ID: types.LocalID(idx), Kind: types.KindVar, Role: types.RoleDefinition,
		}},
	})
}

func (ex *extractor) extractInclude(node *tree_sitter.Node) {
	pathNode := node.ChildByFieldName("path")
	if pathNode == nil {
		return
	}
	spelling := strings.Trim(ex.text(pathNode), `"<>`)
	resolved := spelling
	if pathNode.Kind() == "string_literal" {
		// Quoted includes resolve relative to this file; angle-bracket
		// (system) includes are left as their bare spelling since real
		// resolution needs the compilation database's include-path list,
		// which this adapter does not have access to.
		resolved = filepath.Join(filepath.Dir(ex.path), spelling)
	}
	ex.includes = append(ex.includes, indexfile.Include{
		Line:         int(node.StartPosition().Row),
		ResolvedPath: resolved,
	})
}

// handleDeadPreprocIf recognizes the common `#if 0 ... #endif` idiom for
// commenting out code and records the disabled span as a skipped range.
// Macro-conditioned branches (`#ifdef FOO`) are not evaluated; this
// adapter has no preprocessor, so those regions are indexed as written.
func (ex *extractor) handleDeadPreprocIf(node *tree_sitter.Node) bool {
	cond := node.ChildByFieldName("condition")
	if cond == nil || strings.TrimSpace(ex.text(cond)) != "0" {
		return false
	}

	whole := ex.rangeOf(node)
	end := whole.End
	alt := node.ChildByFieldName("alternative")
	if alt != nil {
		end = ex.rangeOf(alt).Start
	}
	ex.skipped = append(ex.skipped, types.Range{Start: whole.Start, End: end})

	if alt != nil {
		ex.walk(alt)
	}
	return true
}

func (ex *extractor) recordCallee(node *tree_sitter.Node) {
	if len(ex.funcStack) == 0 {
		return
	}
	fnNode := node.ChildByFieldName("function")
	name := ex.callTargetName(fnNode)
	if name == "" {
		return
	}
	caller := ex.funcStack[len(ex.funcStack)-1]
	ex.pendingCallees[caller] = append(ex.pendingCallees[caller], pendingCallee{
		name: name,
		r:    ex.rangeOf(fnNode),
	})
}

func (ex *extractor) callTargetName(node *tree_sitter.Node) string {
	if node == nil {
		return ""
	}
	switch node.Kind() {
	case "identifier", "field_identifier":
		return ex.text(node)
	case "qualified_identifier":
		return ex.callTargetName(node.ChildByFieldName("name"))
	case "field_expression":
		return ex.callTargetName(node.ChildByFieldName("field"))
	default:
		return ""
	}
}

// finalizeCallees resolves every call site recorded during the walk against
// this file's own functions by short name, now that the whole file has been
// seen. Calls to functions declared elsewhere (the overwhelming majority,
// since a header declares and another TU defines) cannot be resolved to a
// LocalID from a single file's facts and are dropped. The extractor records
// no `uses` references either, so no cross-file call edge reaches QueryDB.
func (ex *extractor) finalizeCallees() {
	for idx, calls := range ex.pendingCallees {
		if ex.funcs[idx].Def == nil {
			continue
		}
		for _, c := range calls {
			targetIdx, ok := ex.resolveCalleeByName(c.name)
			if !ok {
				continue
			}
			ex.funcs[idx].Def.CalleesLocal = append(ex.funcs[idx].Def.CalleesLocal, indexfile.LexicalRefLocal{
				Range: c.r, ID: types.LocalID(targetIdx), Kind: types.KindFunc, Role: types.RoleCall,
			})
		}
	}
}

func (ex *extractor) resolveCalleeByName(name string) (int, bool) {
	for idx, f := range ex.funcs {
		if f.Def != nil && f.Def.ShortName == name {
			return idx, true
		}
	}
	return 0, false
}

// resolveDeclarator unwraps a tree-sitter-cpp declarator node down to its
// leaf name, collecting any `::`-qualified scope prefix along the way, and
// reports the function_declarator node if the declarator names a function.
func (ex *extractor) resolveDeclarator(node *tree_sitter.Node) (name string, scope []string, fn *tree_sitter.Node) {
	if node == nil {
		return "", nil, nil
	}
	switch node.Kind() {
	case "identifier", "field_identifier", "type_identifier", "namespace_identifier",
		"destructor_name", "operator_name":
		return ex.text(node), nil, nil

	case "qualified_identifier":
		var sc []string
		if scopeNode := node.ChildByFieldName("scope"); scopeNode != nil {
			sName, sScope, _ := ex.resolveDeclarator(scopeNode)
			sc = append(sc, sScope...)
			if sName != "" {
				sc = append(sc, sName)
			}
		}
		n, nScope, nFn := ex.resolveDeclarator(node.ChildByFieldName("name"))
		sc = append(sc, nScope...)
		return n, sc, nFn

	case "function_declarator":
		n, sc, _ := ex.resolveDeclarator(node.ChildByFieldName("declarator"))
		return n, sc, node

	case "pointer_declarator", "reference_declarator", "init_declarator",
		"parenthesized_declarator", "array_declarator":
		return ex.resolveDeclarator(node.ChildByFieldName("declarator"))

	default:
		return "", nil, nil
	}
}

// leafNameNode mirrors resolveDeclarator but returns the AST node for the
// leaf name instead of its text, so callers can report a tight Spell range.
func (ex *extractor) leafNameNode(node *tree_sitter.Node) *tree_sitter.Node {
	if node == nil {
		return nil
	}
	switch node.Kind() {
	case "identifier", "field_identifier", "type_identifier", "namespace_identifier",
		"destructor_name", "operator_name":
		return node
	case "qualified_identifier":
		return ex.leafNameNode(node.ChildByFieldName("name"))
	case "function_declarator", "pointer_declarator", "reference_declarator",
		"init_declarator", "parenthesized_declarator", "array_declarator":
		return ex.leafNameNode(node.ChildByFieldName("declarator"))
	default:
		return nil
	}
}

// storageOf scans node's direct children for a storage_class_specifier
// keyword. A `static` local inside a function body maps to
// StorageStaticLocal so it keeps its file-wide identity (see
// types.StorageClass.IsLocal).
func (ex *extractor) storageOf(node *tree_sitter.Node) types.StorageClass {
	n := node.ChildCount()
	for i := uint(0); i < n; i++ {
		child := node.Child(i)
		if child == nil || child.Kind() != "storage_class_specifier" {
			continue
		}
		switch ex.text(child) {
		case "static":
			if len(ex.funcStack) > 0 {
				return types.StorageStaticLocal
			}
			return types.StorageStatic
		case "extern":
			return types.StorageExtern
		case "register":
			return types.StorageRegister
		case "auto":
			return types.StorageAuto
		}
	}
	return types.StorageNone
}

// paramSignature returns the raw text of a function_declarator's parameter
// list, used both as an overload disambiguator for USR hashing and as the
// parameter portion of DetailedName.
func (ex *extractor) paramSignature(fnNode *tree_sitter.Node) string {
	params := fnNode.ChildByFieldName("parameters")
	return ex.text(params)
}

func detailSuffix(sig string) string {
	if sig == "" {
		return "()"
	}
	return sig
}

func (ex *extractor) text(node *tree_sitter.Node) string {
	if node == nil {
		return ""
	}
	return string(ex.content[node.StartByte():node.EndByte()])
}

func (ex *extractor) rangeOf(node *tree_sitter.Node) types.Range {
	start := node.StartPosition()
	end := node.EndPosition()
	return types.Range{
		Start: types.Position{Line: int(start.Row), Column: int(start.Column)},
		End:   types.Position{Line: int(end.Row), Column: int(end.Column)},
	}
}

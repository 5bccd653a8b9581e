package config

import (
	"fmt"
	"os"
	"strings"

	kdl "github.com/sblinch/kdl-go"
	"github.com/sblinch/kdl-go/document"
)

// mergeProjectKDL decodes path (a `.cxxls.kdl` file) and overlays its
// settings onto cfg. The project file always wins over both Default and
// any user-level config.toml, matching a project's right to override
// editor-wide defaults for itself.
func mergeProjectKDL(cfg *Config, path string) error {
	content, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	doc, err := kdl.Parse(strings.NewReader(string(content)))
	if err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}

	for _, n := range doc.Nodes {
		switch nodeName(n) {
		case "index":
			for _, cn := range n.Children {
				switch nodeName(cn) {
				case "workers":
					if v, ok := firstIntArg(cn); ok {
						cfg.IndexerWorkers = v
					}
				case "cache_dir":
					if s, ok := firstStringArg(cn); ok {
						cfg.CacheDir = s
					}
				case "cache_format":
					if s, ok := firstStringArg(cn); ok {
						cfg.CacheFormat = s
					}
				case "enable_index_on_did_change":
					if b, ok := firstBoolArg(cn); ok {
						cfg.EnableIndexOnDidChange = b
					}
				}
			}
		case "diagnostics":
			for _, cn := range n.Children {
				switch nodeName(cn) {
				case "frequency_ms":
					if v, ok := firstIntArg(cn); ok {
						cfg.Diagnostics.FrequencyMs = v
					}
				case "whitelist":
					cfg.Diagnostics.Whitelist = collectStringArgs(cn)
				case "blacklist":
					cfg.Diagnostics.Blacklist = collectStringArgs(cn)
				}
			}
		case "highlight":
			for _, cn := range n.Children {
				switch nodeName(cn) {
				case "enabled":
					if b, ok := firstBoolArg(cn); ok {
						cfg.Highlight.Enabled = b
					}
				case "whitelist":
					cfg.Highlight.Whitelist = collectStringArgs(cn)
				case "blacklist":
					cfg.Highlight.Blacklist = collectStringArgs(cn)
				}
			}
		case "completion":
			for _, cn := range n.Children {
				if nodeName(cn) == "filter_and_sort" {
					if b, ok := firstBoolArg(cn); ok {
						cfg.Completion.FilterAndSort = b
					}
				}
			}
		case "workspace_symbol":
			for _, cn := range n.Children {
				switch nodeName(cn) {
				case "max_num":
					if v, ok := firstIntArg(cn); ok {
						cfg.WorkspaceSymbol.MaxNum = v
					}
				case "sort":
					if b, ok := firstBoolArg(cn); ok {
						cfg.WorkspaceSymbol.Sort = b
					}
				}
			}
		case "xref":
			for _, cn := range n.Children {
				if nodeName(cn) == "max_num" {
					if v, ok := firstIntArg(cn); ok {
						cfg.Xref.MaxNum = v
					}
				}
			}
		case "show_document_links_on_includes":
			if b, ok := firstBoolArg(n); ok {
				cfg.ShowDocumentLinksOnIncludes = b
			}
		case "emit_inactive_regions":
			if b, ok := firstBoolArg(n); ok {
				cfg.EmitInactiveRegions = b
			}
		case "include":
			cfg.Include = append(cfg.Include, collectStringArgs(n)...)
		case "exclude":
			cfg.Exclude = collectStringArgs(n)
		}
	}

	return nil
}

func nodeName(n *document.Node) string {
	if n == nil || n.Name == nil {
		return ""
	}
	return n.Name.NodeNameString()
}

func firstIntArg(n *document.Node) (int, bool) {
	if len(n.Arguments) == 0 {
		return 0, false
	}
	switch v := n.Arguments[0].Value.(type) {
	case int64:
		return int(v), true
	case float64:
		return int(v), true
	default:
		return 0, false
	}
}

func firstStringArg(n *document.Node) (string, bool) {
	if len(n.Arguments) == 0 {
		return "", false
	}
	s, ok := n.Arguments[0].Value.(string)
	return s, ok
}

func firstBoolArg(n *document.Node) (bool, bool) {
	if len(n.Arguments) == 0 {
		return false, false
	}
	b, ok := n.Arguments[0].Value.(bool)
	return b, ok
}

// collectStringArgs gathers string values from n's inline arguments, or, if
// there are none, from its children's node names (the block form:
// `exclude { "**/build/**" }`).
func collectStringArgs(n *document.Node) []string {
	if n == nil {
		return nil
	}
	out := make([]string, 0, len(n.Arguments))
	for _, a := range n.Arguments {
		if s, ok := a.Value.(string); ok {
			out = append(out, s)
		}
	}
	if len(out) == 0 && len(n.Children) > 0 {
		out = make([]string, 0, len(n.Children))
		for _, child := range n.Children {
			if s, ok := firstStringArg(child); ok {
				out = append(out, s)
			} else if child.Name != nil {
				if s, ok := child.Name.Value.(string); ok {
					out = append(out, s)
				}
			}
		}
	}
	return out
}

// Package analyze implements the six static analysis passes over a parsed
// Julia file: symbols, references, type definitions, scope trees, function
// signatures, and exports. Each pass is a pure function of the parsed item;
// the combined output is an index.AnalysisResult.
package analyze

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"unicode"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/jward/loupe/internal/index"
	"github.com/jward/loupe/internal/parser"
)

// ErrInternal wraps analyzer-internal failures (text extraction on
// malformed trees and similar). Callers drop the file's contribution and
// keep going.
var ErrInternal = errors.New("analyzer internal error")

// Analyze runs all six passes over item. A panic in any pass is converted
// to ErrInternal so one malformed file cannot abort workspace analysis.
func Analyze(item *parser.ParsedItem) (res *index.AnalysisResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			res = nil
			err = fmt.Errorf("%w: %s: %v", ErrInternal, item.Path, r)
		}
	}()

	fileModule := ModuleForPath(item.Path)

	// Scopes first: symbol ownership is expressed as scope ids, so the
	// symbol pass needs the tree the scope pass produced.
	scopes := Scopes(item)

	types, modules := Types(item, fileModule)
	res = &index.AnalysisResult{
		Symbols:    Symbols(item, scopes),
		References: References(item),
		Types:      types,
		Signatures: Signatures(item),
		Scopes:     scopes,
		Modules:    modules,
	}
	res.ExportsByModule = Exports(item, fileModule)
	for _, names := range res.ExportsByModule {
		res.Exports = append(res.Exports, names...)
	}
	return res, nil
}

// stdlibModules is the fixed set of standard-library module names used by
// signature module attribution when the file path carries no package
// segment.
var stdlibModules = map[string]bool{
	"Base": true, "Core": true, "LinearAlgebra": true, "Statistics": true,
	"Random": true, "Dates": true, "Printf": true, "Test": true,
	"Pkg": true, "REPL": true, "Markdown": true, "Sockets": true,
	"Distributed": true, "SharedArrays": true, "SparseArrays": true,
	"Unicode": true, "UUIDs": true, "Logging": true, "InteractiveUtils": true,
	"DelimitedFiles": true, "Serialization": true, "Mmap": true,
	"Base64": true, "CRC32c": true, "FileWatching": true, "Libdl": true,
	"LibGit2": true, "TOML": true, "Artifacts": true, "Downloads": true,
}

// IsStdlibModule reports whether name is a known standard-library module.
func IsStdlibModule(name string) bool {
	return stdlibModules[name]
}

// PackageName extracts the package name from a `packages/{Name}/...` path
// segment, or "" when the path is not inside a package tree. Registry
// layouts that version the package directory (`Name-1.2.3`) are reduced to
// the bare name.
func PackageName(path string) string {
	parts := strings.Split(filepath.ToSlash(path), "/")
	for i, part := range parts {
		if part == "packages" && i+1 < len(parts) {
			name := parts[i+1]
			if dash := strings.IndexByte(name, '-'); dash > 0 {
				name = name[:dash]
			}
			return name
		}
	}
	return ""
}

// ModuleForPath attributes a file to a module:
//  1. a `packages/{Name}/...` path segment names the package,
//  2. a standard-library file stem names the stdlib module,
//  3. otherwise the capitalized file stem.
func ModuleForPath(path string) string {
	if pkg := PackageName(path); pkg != "" {
		return pkg
	}
	stem := fileStem(path)
	if stdlibModules[stem] {
		return stem
	}
	return capitalize(stem)
}

// IsMainModuleFile reports whether path is the main module file of its
// package: the file stem matches the package name. Files outside a
// `packages/` tree are workspace files, never dependency files.
func IsMainModuleFile(path string) bool {
	pkg := PackageName(path)
	return pkg != "" && fileStem(path) == pkg
}

// IsPackageFile reports whether path lives inside a `packages/` tree.
func IsPackageFile(path string) bool {
	return PackageName(path) != ""
}

func fileStem(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	runes := []rune(s)
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}

// composeModule joins the file-attributed module with the declared module
// stack, collapsing the self-matching head: a module whose declared name
// equals the module inferred from the file path is not doubled.
func composeModule(fileModule string, stack []string) string {
	if len(stack) == 0 {
		return fileModule
	}
	parts := stack
	if stack[0] != fileModule && fileModule != "" {
		parts = append([]string{fileModule}, stack...)
	}
	return strings.Join(parts, ".")
}

// docFor returns the triple-quoted doc string immediately preceding node,
// stripped of its quotes, or "".
func docFor(node *sitter.Node, content []byte) string {
	prev := node.PrevNamedSibling()
	if prev == nil {
		return ""
	}
	if parser.Classify(prev.Type()) != parser.ClassString {
		return ""
	}
	text := prev.Content(content)
	if !strings.HasPrefix(text, `"""`) {
		return ""
	}
	text = strings.TrimPrefix(text, `"""`)
	text = strings.TrimSuffix(text, `"""`)
	return strings.TrimSpace(text)
}

// firstLine returns the first line of a node's text, trimmed. Used as the
// displayed signature text of function definitions.
func firstLine(node *sitter.Node, content []byte) string {
	text := node.Content(content)
	if i := strings.IndexByte(text, '\n'); i >= 0 {
		text = text[:i]
	}
	return strings.TrimSpace(text)
}

// walkModules traverses the tree depth-first with an explicit stack,
// invoking fn with each node's composed module context. fn returning
// false prunes the subtree (children of module nodes are still visited
// with the extended context).
func walkModules(item *parser.ParsedItem, fileModule string, fn func(node *sitter.Node, module string, stack []string) bool) {
	type frame struct {
		node  *sitter.Node
		stack []string
	}
	work := []frame{{node: item.Root(), stack: nil}}
	for len(work) > 0 {
		fr := work[len(work)-1]
		work = work[:len(work)-1]

		module := composeModule(fileModule, fr.stack)
		if !fn(fr.node, module, fr.stack) {
			continue
		}

		childStack := fr.stack
		if parser.Classify(fr.node.Type()) == parser.ClassModule {
			if name := parser.NameOf(fr.node, item.Content); name != "" {
				childStack = append(append([]string(nil), fr.stack...), name)
			}
		}
		for i := int(fr.node.ChildCount()) - 1; i >= 0; i-- {
			if child := fr.node.Child(i); child != nil {
				work = append(work, frame{node: child, stack: childStack})
			}
		}
	}
}

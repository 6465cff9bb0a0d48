// Copyright 2025 KrakLabs
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published
// by the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program. If not, see <https://www.gnu.org/licenses/>.
//
// For commercial licensing, contact: licensing@kraklabs.com
//
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package callextract walks a parsed source file's syntax tree and
// emits CallSite and InterfaceImplementation records. Python is the
// reference dialect; other languages are declared but currently
// return empty sequences.
package callextract

import (
	"context"
	"log/slog"
	"sync"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/python"

	"github.com/kraklabs/recall/pkg/callgraph"
)

// Result is the output of extracting a single source file.
type Result struct {
	Calls           []callgraph.CallSite
	Implementations []callgraph.InterfaceImplementation
}

// Extractor extracts calls and implementations from one source
// dialect. Extract must never return an error for a syntactically
// broken input — it logs and returns an empty Result instead.
type Extractor interface {
	Extract(filePath string, source []byte) Result
}

// Registry dispatches by language name. Dialects with no extraction
// support yet register as emptyExtractor.
type Registry struct {
	logger     *slog.Logger
	extractors map[string]Extractor
}

// NewRegistry builds a Registry with the Python dialect wired in and
// the remaining declared dialects as no-ops.
func NewRegistry(logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	r := &Registry{logger: logger, extractors: make(map[string]Extractor)}
	r.extractors["python"] = newPythonExtractor(logger)
	for _, lang := range []string{"go", "javascript", "typescript"} {
		r.extractors[lang] = emptyExtractor{}
	}
	return r
}

// Extract dispatches to the registered extractor for language, or
// returns an empty Result for an unregistered dialect.
func (r *Registry) Extract(language, filePath string, source []byte) Result {
	ext, ok := r.extractors[language]
	if !ok {
		r.logger.Debug("callextract.unsupported_language", "language", language, "path", filePath)
		return Result{}
	}
	return ext.Extract(filePath, source)
}

type emptyExtractor struct{}

func (emptyExtractor) Extract(string, []byte) Result { return Result{} }

type pythonExtractor struct {
	logger *slog.Logger
	pool   sync.Pool
}

func newPythonExtractor(logger *slog.Logger) *pythonExtractor {
	p := &pythonExtractor{logger: logger}
	p.pool.New = func() any {
		parser := sitter.NewParser()
		parser.SetLanguage(python.GetLanguage())
		return parser
	}
	return p
}

// Extract implements the Python dialect contract: walk the tree,
// emit one CallSite per call expression transitively inside each
// function/method body, and one InterfaceImplementation per base
// class expression of every class definition. A syntax error is
// logged and yields empty sequences rather than propagating.
func (p *pythonExtractor) Extract(filePath string, source []byte) Result {
	parserObj := p.pool.Get()
	parser, ok := parserObj.(*sitter.Parser)
	if !ok {
		p.logger.Warn("callextract.python.invalid_parser", "path", filePath)
		return Result{}
	}
	defer p.pool.Put(parser)

	tree, err := parser.ParseCtx(context.Background(), nil, source)
	if err != nil {
		p.logger.Warn("callextract.python.parse_failed", "path", filePath, "error", err)
		return Result{}
	}
	defer tree.Close()

	root := tree.RootNode()
	if root.HasError() {
		p.logger.Warn("callextract.python.syntax_errors", "path", filePath, "error_count", countErrorNodes(root))
		return Result{}
	}

	w := &pythonWalker{source: source, filePath: filePath}
	w.walkFunctions(root, "")
	w.walkClasses(root)

	return Result{Calls: w.calls, Implementations: w.impls}
}

func countErrorNodes(node *sitter.Node) int {
	count := 0
	if node.Type() == "ERROR" {
		count++
	}
	for i := 0; i < int(node.ChildCount()); i++ {
		count += countErrorNodes(node.Child(i))
	}
	return count
}

type pythonWalker struct {
	source   []byte
	filePath string
	calls    []callgraph.CallSite
	impls    []callgraph.InterfaceImplementation
}

func (w *pythonWalker) text(n *sitter.Node) string {
	return string(w.source[n.StartByte():n.EndByte()])
}

// walkFunctions recurses the tree threading the enclosing class name
// as a plain parameter: class scope is lexical, never a mutable
// field, so sibling classes never see each other's prefix.
func (w *pythonWalker) walkFunctions(node *sitter.Node, classPrefix string) {
	if node == nil {
		return
	}

	switch node.Type() {
	case "class_definition":
		body := node.ChildByFieldName("body")
		className := ""
		if nameNode := node.ChildByFieldName("name"); nameNode != nil {
			className = w.text(nameNode)
		}
		w.walkFunctions(body, className)
		return

	case "function_definition":
		nameNode := node.ChildByFieldName("name")
		if nameNode == nil {
			break
		}
		qualified := w.text(nameNode)
		if classPrefix != "" {
			qualified = classPrefix + "." + qualified
		}
		bodyNode := node.ChildByFieldName("body")
		w.walkCallExpressions(bodyNode, qualified)
	}

	if node.Type() != "class_definition" {
		for i := 0; i < int(node.ChildCount()); i++ {
			w.walkFunctions(node.Child(i), classPrefix)
		}
	}
}

func (w *pythonWalker) walkCallExpressions(node *sitter.Node, caller string) {
	if node == nil {
		return
	}

	// A nested def is its own walkFunctions call site; don't attribute
	// its calls to the enclosing function too.
	if node.Type() == "function_definition" {
		return
	}

	if node.Type() == "call" {
		if fn := node.ChildByFieldName("function"); fn != nil {
			callee, callType := w.resolveCallee(fn)
			if callee != "" {
				w.calls = append(w.calls, callgraph.CallSite{
					CallerFunction: caller,
					CallerFile:     w.filePath,
					CallerLine:     int(node.StartPoint().Row) + 1,
					CalleeFunction: callee,
					CalleeFile:     "",
					CallType:       callType,
				})
			}
		}
	}

	for i := 0; i < int(node.ChildCount()); i++ {
		w.walkCallExpressions(node.Child(i), caller)
	}
}

// resolveCallee implements the callee_function / call_type
// resolution table from the call extractor contract.
func (w *pythonWalker) resolveCallee(node *sitter.Node) (string, callgraph.CallType) {
	switch node.Type() {
	case "identifier":
		name := w.text(node)
		if isUpperFirst(name) {
			return name, callgraph.CallConstructor
		}
		return name, callgraph.CallDirect

	case "attribute":
		attrNode := node.ChildByFieldName("attribute")
		if attrNode == nil {
			return "", ""
		}
		attr := w.text(attrNode)
		if obj := node.ChildByFieldName("object"); obj != nil && obj.Type() == "identifier" {
			return w.text(obj) + "." + attr, callgraph.CallMethod
		}
		return attr, callgraph.CallMethod

	case "call":
		// Nested call target, e.g. f()() — recurse on the inner function expression.
		if inner := node.ChildByFieldName("function"); inner != nil {
			return w.resolveCallee(inner)
		}
		return "", ""

	case "lambda":
		return "<lambda>", callgraph.CallLambda

	default:
		return "", ""
	}
}

func isUpperFirst(s string) bool {
	if s == "" {
		return false
	}
	c := s[0]
	return c >= 'A' && c <= 'Z'
}

func (w *pythonWalker) walkClasses(node *sitter.Node) {
	if node == nil {
		return
	}
	if node.Type() == "class_definition" {
		w.extractImplementation(node)
	}
	for i := 0; i < int(node.ChildCount()); i++ {
		w.walkClasses(node.Child(i))
	}
}

func (w *pythonWalker) extractImplementation(node *sitter.Node) {
	nameNode := node.ChildByFieldName("name")
	if nameNode == nil {
		return
	}
	className := w.text(nameNode)

	bodyNode := node.ChildByFieldName("body")
	var methods []string
	if bodyNode != nil {
		for i := 0; i < int(bodyNode.ChildCount()); i++ {
			child := bodyNode.Child(i)
			if child.Type() == "function_definition" {
				if mn := child.ChildByFieldName("name"); mn != nil {
					methods = append(methods, w.text(mn))
				}
			}
		}
	}

	superclasses := node.ChildByFieldName("superclasses")
	if superclasses == nil {
		return
	}
	for i := 0; i < int(superclasses.ChildCount()); i++ {
		base := superclasses.Child(i)
		if base.Type() != "identifier" && base.Type() != "attribute" {
			continue
		}
		interfaceName := lastSegment(w.text(base))
		w.impls = append(w.impls, callgraph.InterfaceImplementation{
			InterfaceName:      interfaceName,
			ImplementationName: className,
			FilePath:           w.filePath,
			Language:           "python",
			Methods:            methods,
		})
	}
}

func lastSegment(expr string) string {
	last := expr
	for i := len(expr) - 1; i >= 0; i-- {
		if expr[i] == '.' {
			last = expr[i+1:]
			break
		}
	}
	return last
}

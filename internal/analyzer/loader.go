// # internal/analyzer/loader.go
package analyzer

import (
	"errors"
	"fmt"

	sitter "github.com/tree-sitter/go-tree-sitter"
	tree_sitter_javascript "github.com/tree-sitter/tree-sitter-javascript/bindings/go"
	tree_sitter_python "github.com/tree-sitter/tree-sitter-python/bindings/go"
	tree_sitter_typescript "github.com/tree-sitter/tree-sitter-typescript/bindings/go"
)

// loadGrammar returns the compiled tree-sitter grammar for a language.
// Go is absent on purpose: Go files go through the hand-written parser in
// internal/golang.
func loadGrammar(language string) (*sitter.Language, error) {
	switch language {
	case "python":
		return sitter.NewLanguage(tree_sitter_python.Language()), nil
	case "javascript":
		return sitter.NewLanguage(tree_sitter_javascript.Language()), nil
	case "typescript":
		return sitter.NewLanguage(tree_sitter_typescript.LanguageTypescript()), nil
	case "tsx":
		return sitter.NewLanguage(tree_sitter_typescript.LanguageTSX()), nil
	}
	return nil, fmt.Errorf("no grammar for language %q", language)
}

// parseTree parses src with the given grammar and returns the syntax tree.
// The caller must Close the returned tree.
func parseTree(lang *sitter.Language, src []byte) (*sitter.Tree, error) {
	parser := sitter.NewParser()
	defer parser.Close()
	parser.SetLanguage(lang)

	tree := parser.Parse(src, nil)
	if tree == nil {
		return nil, errors.New("parse failed")
	}
	return tree, nil
}

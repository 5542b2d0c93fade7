// # internal/analyzer/typescript.go
package analyzer

// TypeScript and TSX reuse the JavaScript extractor over their own
// grammars; type annotations on parameters and declarations feed the
// variable scope that identifier properties resolve through.

func newTypeScriptAnalyzer() (Analyzer, error) {
	return newScriptAnalyzer("typescript")
}

func newTSXAnalyzer() (Analyzer, error) {
	return newScriptAnalyzer("tsx")
}

package syntax

import (
	"sync"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/javascript"
	"github.com/smacker/go-tree-sitter/typescript/tsx"
	ts "github.com/smacker/go-tree-sitter/typescript/typescript"

	"github.com/maxleiko/oxcc/internal/source"
)

// Grammar names used as keys of the grammar table.
const (
	grammarTypeScript = "typescript"
	grammarTSX        = "tsx"
	grammarJavaScript = "javascript"
)

// The grammar table is built once and read-only afterwards, so parsers on
// different goroutines can share it.
var (
	grammars     map[string]*sitter.Language
	grammarsOnce sync.Once
)

func initGrammars() {
	grammarsOnce.Do(func() {
		grammars = map[string]*sitter.Language{
			grammarTypeScript: ts.GetLanguage(),
			grammarTSX:        tsx.GetLanguage(),
			grammarJavaScript: javascript.GetLanguage(),
		}
	})
}

// grammarName picks the grammar for st. TypeScript with JSX needs the tsx
// grammar because the plain one reads <T>x as a type assertion.
func grammarName(st source.Type) string {
	switch {
	case st.IsTypeScript() && st.IsJSX():
		return grammarTSX
	case st.IsTypeScript():
		return grammarTypeScript
	default:
		return grammarJavaScript
	}
}

// GrammarFor returns the tree-sitter language used to parse files of type st.
func GrammarFor(st source.Type) *sitter.Language {
	initGrammars()
	return grammars[grammarName(st)]
}

package lsp

import (
	"crypto/sha256"
	"errors"

	lru "github.com/hashicorp/golang-lru"

	"vba2py/lang"
	"vba2py/translator"
)

// Analysis is everything the server derives from one document text.
type Analysis struct {
	// Program is nil when the text has a syntax error.
	Program     *lang.Program
	Symbols     *SymbolIndex
	Code        string
	Diagnostics []lang.Diagnostic
	// Err is the syntax error or contract violation that blocks output.
	Err error
}

// analyzer memoises analyses by document content, so reopening a file or
// undoing an edit does not translate it again.
type analyzer struct {
	cache *lru.Cache
	opts  translator.Options
}

func newAnalyzer(size int, opts translator.Options) (*analyzer, error) {
	cache, err := lru.New(size)
	if err != nil {
		return nil, err
	}
	return &analyzer{cache: cache, opts: opts}, nil
}

func (a *analyzer) analyze(text string) *Analysis {
	text = lang.NormalizeNewlines(text)
	key := sha256.Sum256([]byte(text))
	if cached, ok := a.cache.Get(key); ok {
		return cached.(*Analysis)
	}

	res := &Analysis{}
	prog, err := lang.Parse(text)
	if err != nil {
		res.Err = err
		var syn *lang.SyntaxError
		if errors.As(err, &syn) {
			res.Diagnostics = []lang.Diagnostic{syn.Diagnostic()}
		}
	} else {
		res.Program = prog
		res.Symbols = indexSymbols(prog)
		res.Code, res.Diagnostics, res.Err = translator.Translate(prog, a.opts)
	}
	a.cache.Add(key, res)
	return res
}

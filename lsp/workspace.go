package lsp

import (
	"strings"
	"sync"
	"unicode/utf16"

	protocol "github.com/tliron/glsp/protocol_3_16"
)

// Document mirrors the state the server keeps for an open text document.
type Document struct {
	URI     protocol.DocumentUri
	Text    string
	Version protocol.Integer
}

// Workspace holds the open documents. It is safe for concurrent use.
type Workspace struct {
	mu   sync.Mutex
	docs map[protocol.DocumentUri]*Document
}

func NewWorkspace() *Workspace {
	return &Workspace{docs: map[protocol.DocumentUri]*Document{}}
}

func (w *Workspace) Open(doc Document) {
	w.mu.Lock()
	defer w.mu.Unlock()
	d := doc
	w.docs[doc.URI] = &d
}

// Update applies content changes in order and returns the new text.
func (w *Workspace) Update(uri protocol.DocumentUri, version protocol.Integer, changes []any) string {
	w.mu.Lock()
	defer w.mu.Unlock()
	doc, ok := w.docs[uri]
	if !ok {
		doc = &Document{URI: uri}
		w.docs[uri] = doc
	}
	text := doc.Text
	for _, change := range changes {
		text = applyChange(text, change)
	}
	doc.Text = text
	doc.Version = version
	return text
}

// Get returns a copy of an open document.
func (w *Workspace) Get(uri protocol.DocumentUri) (Document, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	doc, ok := w.docs[uri]
	if !ok {
		return Document{}, false
	}
	return *doc, true
}

func (w *Workspace) Close(uri protocol.DocumentUri) {
	w.mu.Lock()
	defer w.mu.Unlock()
	delete(w.docs, uri)
}

func applyChange(text string, change any) string {
	switch c := change.(type) {
	case protocol.TextDocumentContentChangeEventWhole:
		return c.Text
	case protocol.TextDocumentContentChangeEvent:
		if c.Range == nil {
			return c.Text
		}
		start := offsetAtPosition(text, c.Range.Start)
		end := offsetAtPosition(text, c.Range.End)
		if end < start {
			return text
		}
		var sb strings.Builder
		sb.WriteString(text[:start])
		sb.WriteString(c.Text)
		sb.WriteString(text[end:])
		return sb.String()
	}
	return text
}

// offsetAtPosition converts a zero-based LSP position into a byte offset
// within text. Characters are counted in UTF-16 code units; positions past
// the end of a line clamp to the line end.
func offsetAtPosition(text string, pos protocol.Position) int {
	line, col := protocol.UInteger(0), protocol.UInteger(0)
	for i, r := range text {
		if line == pos.Line && col >= pos.Character {
			return i
		}
		if r == '\n' {
			if line == pos.Line {
				return i
			}
			line++
			col = 0
			continue
		}
		col += protocol.UInteger(utf16.RuneLen(r))
	}
	return len(text)
}

// lineAt returns the text of a zero-based line without its newline.
func lineAt(text string, line protocol.UInteger) (string, bool) {
	lines := strings.Split(text, "\n")
	if int(line) >= len(lines) {
		return "", false
	}
	return strings.TrimSuffix(lines[line], "\r"), true
}

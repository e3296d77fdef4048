package lsp

import (
	"strings"

	protocol "github.com/tliron/glsp/protocol_3_16"

	"vba2py/runtime"
)

var vbaKeywords = []string{
	"And", "As", "Boolean", "ByRef", "ByVal", "Call", "Const", "Dim", "Do",
	"Double", "Each", "Else", "ElseIf", "End", "Exit", "False", "For",
	"Function", "GoTo", "If", "In", "Integer", "Is", "Long", "Loop", "Mod",
	"New", "Next", "Not", "Nothing", "Object", "On", "Optional", "Or",
	"ParamArray", "Preserve", "Private", "Public", "ReDim", "Resume", "Set",
	"Static", "Step", "String", "Sub", "Then", "To", "True", "Until",
	"Variant", "Wend", "While", "With",
}

const maxCompletionItems = 100

func completionItem(label string, kind protocol.CompletionItemKind, detail string) protocol.CompletionItem {
	insert := label
	return protocol.CompletionItem{
		Label:      label,
		Kind:       &kind,
		Detail:     &detail,
		InsertText: &insert,
	}
}

// complete offers document symbols visible at the line, then runtime
// helpers, then keywords, each filtered by a case-insensitive prefix.
func complete(a *Analysis, line protocol.UInteger, prefix string) []protocol.CompletionItem {
	lower := strings.ToLower(prefix)
	matches := func(name string) bool {
		return strings.HasPrefix(strings.ToLower(name), lower)
	}

	var items []protocol.CompletionItem
	seen := map[string]bool{}
	add := func(item protocol.CompletionItem) {
		key := strings.ToLower(item.Label)
		if seen[key] || !matches(item.Label) {
			return
		}
		seen[key] = true
		items = append(items, item)
	}

	if a != nil && a.Symbols != nil {
		for _, s := range a.Symbols.Visible(line) {
			add(completionItem(s.Name, symbolCompletionKind(s.Kind), s.Detail))
		}
	}
	for _, name := range runtime.Exports() {
		add(completionItem(name, protocol.CompletionItemKindFunction, "runtime"))
	}
	for _, kw := range vbaKeywords {
		add(completionItem(kw, protocol.CompletionItemKindKeyword, "keyword"))
	}

	if len(items) > maxCompletionItems {
		items = items[:maxCompletionItems]
	}
	return items
}

func symbolCompletionKind(k SymbolKind) protocol.CompletionItemKind {
	switch k {
	case SymbolConstant:
		return protocol.CompletionItemKindConstant
	case SymbolProcedure, SymbolExternal:
		return protocol.CompletionItemKindFunction
	}
	return protocol.CompletionItemKindVariable
}

func isWordChar(b byte) bool {
	return b == '_' || b >= '0' && b <= '9' || b >= 'a' && b <= 'z' || b >= 'A' && b <= 'Z' || b >= 0x80
}

// extractPrefix returns the identifier characters before the cursor.
func extractPrefix(text string, pos protocol.Position) string {
	line, ok := lineAt(text, pos.Line)
	if !ok {
		return ""
	}
	end := offsetAtPosition(line, protocol.Position{Character: pos.Character})
	start := end
	for start > 0 && isWordChar(line[start-1]) {
		start--
	}
	return line[start:end]
}

// extractWord returns the whole identifier under the cursor.
func extractWord(text string, pos protocol.Position) string {
	line, ok := lineAt(text, pos.Line)
	if !ok {
		return ""
	}
	at := offsetAtPosition(line, protocol.Position{Character: pos.Character})
	start, end := at, at
	for start > 0 && isWordChar(line[start-1]) {
		start--
	}
	for end < len(line) && isWordChar(line[end]) {
		end++
	}
	return line[start:end]
}

package lsp

import (
	"unicode/utf16"

	protocol "github.com/tliron/glsp/protocol_3_16"

	"vba2py/lang"
)

const diagnosticSource = "vba2py"

// diagnosticsFrom converts translator diagnostics into one-character LSP
// ranges at their reported positions. Diagnostic columns count runes, LSP
// characters count UTF-16 code units of the line in text.
func diagnosticsFrom(text string, diags []lang.Diagnostic) []protocol.Diagnostic {
	out := make([]protocol.Diagnostic, 0, len(diags))
	source := diagnosticSource
	for _, d := range diags {
		line := max0(d.Pos.Line - 1)
		start := protocol.Position{Line: line, Character: utf16Column(text, line, d.Pos.Column-1)}
		end := protocol.Position{Line: start.Line, Character: start.Character + 1}
		severity := protocol.DiagnosticSeverityError
		if d.Severity == lang.SeverityWarning {
			severity = protocol.DiagnosticSeverityWarning
		}
		out = append(out, protocol.Diagnostic{
			Range:    protocol.Range{Start: start, End: end},
			Severity: &severity,
			Code:     &protocol.IntegerOrString{Value: string(d.Code)},
			Source:   &source,
			Message:  d.Message,
		})
	}
	return out
}

// utf16Column converts a zero-based rune column of a line into UTF-16 code
// units. Columns past the end of the line count one unit per rune.
func utf16Column(text string, line protocol.UInteger, runes int) protocol.UInteger {
	if runes <= 0 {
		return 0
	}
	lineText, _ := lineAt(text, line)
	var col protocol.UInteger
	for _, r := range lineText {
		if runes == 0 {
			return col
		}
		col += protocol.UInteger(utf16.RuneLen(r))
		runes--
	}
	return col + protocol.UInteger(runes)
}

func max0(v int) protocol.UInteger {
	if v < 0 {
		return 0
	}
	return protocol.UInteger(v)
}

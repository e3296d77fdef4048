// Package lsp serves VBA modules to editors: it publishes parse and
// translation diagnostics, completes names and runs the translation of a
// file on request.
package lsp

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/tliron/commonlog"
	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"
	glspserver "github.com/tliron/glsp/server"

	"vba2py/config"

	_ "github.com/tliron/commonlog/simple"
)

const (
	lspName          = "vba2py-lsp"
	commandTranslate = "vba2py.translate"
	analysisCache    = 64
)

// Server is the vba2py language server.
type Server struct {
	cfg       *config.Config
	workspace *Workspace
	analyzer  *analyzer

	handler protocol.Handler
	server  *glspserver.Server
	version string
}

// NewServer creates a server translating with the settings of cfg.
func NewServer(cfg *config.Config, version string) (*Server, error) {
	a, err := newAnalyzer(analysisCache, cfg.TranslatorOptions())
	if err != nil {
		return nil, err
	}
	s := &Server{
		cfg:       cfg,
		workspace: NewWorkspace(),
		analyzer:  a,
		version:   version,
	}
	s.handler = protocol.Handler{
		Initialize:  s.initialize,
		Initialized: s.initialized,
		Shutdown:    s.shutdown,
		SetTrace:    s.setTrace,

		TextDocumentDidOpen:   s.textDocumentDidOpen,
		TextDocumentDidChange: s.textDocumentDidChange,
		TextDocumentDidClose:  s.textDocumentDidClose,

		TextDocumentCompletion:  s.textDocumentCompletion,
		TextDocumentHover:       s.textDocumentHover,
		WorkspaceExecuteCommand: s.workspaceExecuteCommand,
	}
	s.server = glspserver.NewServer(&s.handler, lspName, false)
	return s, nil
}

// Run serves on stdio until the client disconnects.
func (s *Server) Run() error {
	return s.server.RunStdio()
}

func log() commonlog.Logger {
	return commonlog.GetLogger("vba2py.lsp")
}

func (s *Server) initialize(ctx *glsp.Context, params *protocol.InitializeParams) (any, error) {
	log().Info("initializing")

	capabilities := s.handler.CreateServerCapabilities()
	syncKind := protocol.TextDocumentSyncKindIncremental
	openClose := true
	capabilities.TextDocumentSync = &protocol.TextDocumentSyncOptions{
		OpenClose: &openClose,
		Change:    &syncKind,
	}
	capabilities.CompletionProvider = &protocol.CompletionOptions{
		TriggerCharacters: []string{"."},
	}
	capabilities.HoverProvider = true
	capabilities.ExecuteCommandProvider = &protocol.ExecuteCommandOptions{
		Commands: []string{commandTranslate},
	}

	return protocol.InitializeResult{
		Capabilities: capabilities,
		ServerInfo: &protocol.InitializeResultServerInfo{
			Name:    lspName,
			Version: &s.version,
		},
	}, nil
}

func (s *Server) initialized(ctx *glsp.Context, params *protocol.InitializedParams) error {
	return nil
}

func (s *Server) shutdown(ctx *glsp.Context) error {
	protocol.SetTraceValue(protocol.TraceValueOff)
	return nil
}

func (s *Server) setTrace(ctx *glsp.Context, params *protocol.SetTraceParams) error {
	protocol.SetTraceValue(params.Value)
	return nil
}

func (s *Server) textDocumentDidOpen(ctx *glsp.Context, params *protocol.DidOpenTextDocumentParams) error {
	doc := params.TextDocument
	s.workspace.Open(Document{URI: doc.URI, Text: doc.Text, Version: doc.Version})
	s.publishDiagnostics(ctx, doc.URI, doc.Text)
	return nil
}

func (s *Server) textDocumentDidChange(ctx *glsp.Context, params *protocol.DidChangeTextDocumentParams) error {
	text := s.workspace.Update(params.TextDocument.URI, params.TextDocument.Version, params.ContentChanges)
	s.publishDiagnostics(ctx, params.TextDocument.URI, text)
	return nil
}

func (s *Server) textDocumentDidClose(ctx *glsp.Context, params *protocol.DidCloseTextDocumentParams) error {
	s.workspace.Close(params.TextDocument.URI)
	ctx.Notify(protocol.ServerTextDocumentPublishDiagnostics, protocol.PublishDiagnosticsParams{
		URI:         params.TextDocument.URI,
		Diagnostics: []protocol.Diagnostic{},
	})
	return nil
}

func (s *Server) publishDiagnostics(ctx *glsp.Context, uri protocol.DocumentUri, text string) {
	a := s.analyzer.analyze(text)
	log().Debugf("%s: %d diagnostics", uri, len(a.Diagnostics))
	ctx.Notify(protocol.ServerTextDocumentPublishDiagnostics, protocol.PublishDiagnosticsParams{
		URI:         uri,
		Diagnostics: diagnosticsFrom(text, a.Diagnostics),
	})
}

func (s *Server) textDocumentCompletion(ctx *glsp.Context, params *protocol.CompletionParams) (any, error) {
	doc, ok := s.workspace.Get(params.TextDocument.URI)
	if !ok {
		return nil, nil
	}
	prefix := extractPrefix(doc.Text, params.Position)
	if prefix == "" {
		return nil, nil
	}
	return complete(s.analyzer.analyze(doc.Text), params.Position.Line, prefix), nil
}

func (s *Server) textDocumentHover(ctx *glsp.Context, params *protocol.HoverParams) (*protocol.Hover, error) {
	doc, ok := s.workspace.Get(params.TextDocument.URI)
	if !ok {
		return nil, nil
	}
	word := extractWord(doc.Text, params.Position)
	if word == "" {
		return nil, nil
	}
	a := s.analyzer.analyze(doc.Text)
	if a.Symbols == nil {
		return nil, nil
	}
	sym, ok := a.Symbols.Lookup(word, params.Position.Line)
	if !ok {
		return nil, nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "```vb\n%s\n```\n\n", sym.Detail)
	if sym.Proc != "" {
		fmt.Fprintf(&b, "local to %s, declared on line %d", sym.Proc, sym.Pos.Line)
	} else {
		fmt.Fprintf(&b, "module level, declared on line %d", sym.Pos.Line)
	}
	return &protocol.Hover{
		Contents: protocol.MarkupContent{
			Kind:  protocol.MarkupKindMarkdown,
			Value: b.String(),
		},
	}, nil
}

func (s *Server) workspaceExecuteCommand(ctx *glsp.Context, params *protocol.ExecuteCommandParams) (any, error) {
	switch params.Command {
	case commandTranslate:
		if len(params.Arguments) == 0 {
			return nil, fmt.Errorf("%s: expected file URI argument", commandTranslate)
		}
		uri, ok := params.Arguments[0].(string)
		if !ok {
			return nil, fmt.Errorf("%s: argument must be a URI string", commandTranslate)
		}
		out, err := s.translateFile(protocol.DocumentUri(uri))
		if err != nil {
			return nil, err
		}
		return map[string]string{"status": "ok", "path": out}, nil
	}
	return nil, fmt.Errorf("unsupported command %q", params.Command)
}

// translateFile writes the Python translation next to the module. Open
// documents are translated from the editor buffer, others from disk.
func (s *Server) translateFile(uri protocol.DocumentUri) (string, error) {
	path := uriToPath(uri)
	if path == "" {
		return "", fmt.Errorf("could not resolve path for URI %s", uri)
	}
	var text string
	if doc, ok := s.workspace.Get(uri); ok {
		text = doc.Text
	} else {
		data, err := os.ReadFile(path)
		if err != nil {
			return "", err
		}
		if text, err = config.Decode(data, s.cfg.Source.Encoding); err != nil {
			return "", err
		}
	}

	a := s.analyzer.analyze(text)
	if a.Err != nil {
		return "", fmt.Errorf("translation blocked: %w", a.Err)
	}
	outPath := strings.TrimSuffix(path, filepath.Ext(path)) + ".py"
	if err := os.WriteFile(outPath, []byte(a.Code), 0o644); err != nil {
		return "", err
	}
	log().Infof("translated %s", outPath)
	return outPath, nil
}

func uriToPath(uri protocol.DocumentUri) string {
	u, err := url.Parse(string(uri))
	if err != nil {
		return ""
	}
	if u.Scheme == "" {
		return string(uri)
	}
	if u.Scheme != "file" {
		return ""
	}
	return filepath.FromSlash(u.Path)
}

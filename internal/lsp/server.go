// Package lsp provides a Language Server Protocol server that runs the
// incremental analysis pipeline on open BSL documents and publishes
// diagnostics on open, change, and save.
package lsp

import (
	"log/slog"
	"sync"

	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"
	"github.com/tliron/glsp/server"

	"github.com/Sumatoshi-tech/bslcheck/internal/workspace"
	"github.com/Sumatoshi-tech/bslcheck/pkg/diag"
	"github.com/Sumatoshi-tech/bslcheck/pkg/source"
	"github.com/Sumatoshi-tech/bslcheck/pkg/version"
)

const serverName = "bslcheck"

// DocumentStore is a thread-safe store for document contents keyed by URI.
// The session tracks trees; the store keeps the raw text for position
// resolution when publishing.
type DocumentStore struct {
	mu        sync.RWMutex
	documents map[string]string
}

// NewDocumentStore creates a new empty DocumentStore.
func NewDocumentStore() *DocumentStore {
	return &DocumentStore{documents: make(map[string]string)}
}

// Set stores document content for the given URI.
func (ds *DocumentStore) Set(uri, content string) {
	ds.mu.Lock()
	defer ds.mu.Unlock()

	ds.documents[uri] = content
}

// Get retrieves document content by URI.
func (ds *DocumentStore) Get(uri string) (string, bool) {
	ds.mu.RLock()
	defer ds.mu.RUnlock()

	content, ok := ds.documents[uri]

	return content, ok
}

// Delete removes document content by URI.
func (ds *DocumentStore) Delete(uri string) {
	ds.mu.Lock()
	defer ds.mu.Unlock()

	delete(ds.documents, uri)
}

// Server implements the BSL analysis LSP server.
type Server struct {
	session *workspace.Session
	store   *DocumentStore
	logger  *slog.Logger
	handler protocol.Handler
}

// NewServer creates the server around an analysis session.
func NewServer(session *workspace.Session, logger *slog.Logger) *Server {
	srv := &Server{
		session: session,
		store:   NewDocumentStore(),
		logger:  logger,
	}

	srv.handler = protocol.Handler{
		Initialize:            srv.initialize,
		Initialized:           srv.initialized,
		Shutdown:              srv.shutdown,
		SetTrace:              srv.setTrace,
		TextDocumentDidOpen:   srv.didOpen,
		TextDocumentDidChange: srv.didChange,
		TextDocumentDidSave:   srv.didSave,
		TextDocumentDidClose:  srv.didClose,
	}

	return srv
}

// Run starts the LSP server on stdio and blocks until the stream closes.
func (srv *Server) Run() error {
	lspServer := server.NewServer(&srv.handler, serverName, false)

	return lspServer.RunStdio()
}

func (srv *Server) initialize(_ *glsp.Context, _ *protocol.InitializeParams) (any, error) {
	capabilities := srv.handler.CreateServerCapabilities()
	capabilities.TextDocumentSync = protocol.TextDocumentSyncKindFull

	v := version.Version

	return protocol.InitializeResult{
		Capabilities: capabilities,
		ServerInfo: &protocol.InitializeResultServerInfo{
			Name:    serverName,
			Version: &v,
		},
	}, nil
}

func (srv *Server) initialized(_ *glsp.Context, _ *protocol.InitializedParams) error {
	return nil
}

func (srv *Server) shutdown(_ *glsp.Context) error {
	protocol.SetTraceValue(protocol.TraceValueOff)

	return nil
}

func (srv *Server) setTrace(_ *glsp.Context, params *protocol.SetTraceParams) error {
	protocol.SetTraceValue(params.Value)

	return nil
}

func (srv *Server) didOpen(ctx *glsp.Context, params *protocol.DidOpenTextDocumentParams) error {
	uri := params.TextDocument.URI
	text := params.TextDocument.Text

	srv.store.Set(uri, text)
	res := srv.session.Open(uri, text)

	srv.logger.Debug("opened", "uri", uri, "diagnostics", len(res.Diagnostics))
	srv.publish(ctx, uri, text, res.Diagnostics)

	return nil
}

func (srv *Server) didChange(ctx *glsp.Context, params *protocol.DidChangeTextDocumentParams) error {
	uri := params.TextDocument.URI

	text, ok := fullText(params.ContentChanges)
	if !ok {
		return nil
	}

	srv.store.Set(uri, text)

	res, err := srv.session.Update(uri, text)
	if err != nil {
		// The client changed a document it never opened; recover with a
		// full parse.
		res = srv.session.Open(uri, text)
	}

	srv.logger.Debug("changed", "uri", uri,
		"incremental", res.Incremental,
		"reason", string(res.Plan.Reason),
		"replaced", res.Rebuild.Replaced,
		"duration", res.Duration)
	srv.publish(ctx, uri, text, res.Diagnostics)

	return nil
}

// fullText extracts the whole-document text from a full-sync change set.
func fullText(changes []any) (string, bool) {
	for _, raw := range changes {
		switch change := raw.(type) {
		case protocol.TextDocumentContentChangeEventWhole:
			return change.Text, true
		case protocol.TextDocumentContentChangeEvent:
			if change.Range == nil {
				return change.Text, true
			}
		case map[string]any:
			if text, ok := change["text"].(string); ok {
				return text, true
			}
		}
	}

	return "", false
}

func (srv *Server) didSave(ctx *glsp.Context, params *protocol.DidSaveTextDocumentParams) error {
	uri := params.TextDocument.URI

	if text, ok := srv.store.Get(uri); ok {
		res, err := srv.session.Update(uri, text)
		if err == nil {
			srv.publish(ctx, uri, text, res.Diagnostics)
		}
	}

	return nil
}

func (srv *Server) didClose(ctx *glsp.Context, params *protocol.DidCloseTextDocumentParams) error {
	uri := params.TextDocument.URI

	srv.store.Delete(uri)
	srv.session.Close(uri)
	srv.publish(ctx, uri, "", nil)

	return nil
}

func (srv *Server) publish(ctx *glsp.Context, uri, text string, diags []diag.Diagnostic) {
	ctx.Notify("textDocument/publishDiagnostics", &protocol.PublishDiagnosticsParams{
		URI:         uri,
		Diagnostics: toProtocol(text, diags),
	})
}

func severityOf(s diag.Severity) protocol.DiagnosticSeverity {
	switch s {
	case diag.SeverityError:
		return protocol.DiagnosticSeverityError
	case diag.SeverityWarning:
		return protocol.DiagnosticSeverityWarning
	case diag.SeverityInfo:
		return protocol.DiagnosticSeverityInformation
	case diag.SeverityHint:
		return protocol.DiagnosticSeverityHint
	}

	return protocol.DiagnosticSeverityError
}

// toProtocol converts analyzer diagnostics into LSP diagnostics. Always
// returns a non-nil slice: publishing an empty list clears stale findings.
func toProtocol(text string, diags []diag.Diagnostic) []protocol.Diagnostic {
	out := make([]protocol.Diagnostic, 0, len(diags))
	index := source.NewLineIndex(text)
	src := serverName

	for _, d := range diags {
		span := source.NewSpan(uint32(d.Location.Offset), uint32(d.Location.Length))
		start, end := index.SpanPositions(span)

		severity := severityOf(d.Severity)
		code := protocol.IntegerOrString{Value: d.Code}

		out = append(out, protocol.Diagnostic{
			Range: protocol.Range{
				Start: protocol.Position{Line: uint32(start.Line), Character: uint32(start.Column)},
				End:   protocol.Position{Line: uint32(end.Line), Character: uint32(end.Column)},
			},
			Severity: &severity,
			Code:     &code,
			Source:   &src,
			Message:  d.Message,
		})
	}

	return out
}

// Package lsp implements a language server for Bril text files.
package lsp

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"

	"github.com/tliron/commonlog"
	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"
)

var log = commonlog.GetLogger("brilflow.lsp")

// BrilHandler implements the LSP server handlers for Bril
type BrilHandler struct {
	mu   sync.RWMutex
	docs map[string]*Document
}

// NewBrilHandler creates and returns a new BrilHandler instance
func NewBrilHandler() *BrilHandler {
	return &BrilHandler{
		docs: make(map[string]*Document),
	}
}

// Initialize responds to the LSP client's initialize request and advertises the server's capabilities
func (h *BrilHandler) Initialize(ctx *glsp.Context, params *protocol.InitializeParams) (any, error) {
	log.Info("LSP Initialize called")

	return &protocol.InitializeResult{
		Capabilities: protocol.ServerCapabilities{
			TextDocumentSync: &protocol.TextDocumentSyncOptions{
				OpenClose: ptrBool(true), // notify on open/close events
				Change:    ptrSyncKind(protocol.TextDocumentSyncKindFull),
			},
			HoverProvider:      true,
			DefinitionProvider: true,
			SemanticTokensProvider: &protocol.SemanticTokensOptions{
				Legend: protocol.SemanticTokensLegend{
					TokenTypes:     SemanticTokenTypes,
					TokenModifiers: SemanticTokenModifiers,
				},
				Full: ptrBool(true), // support full-document semantic token requests
			},
		},
	}, nil
}

// Initialized is called after the client receives the server's capabilities and completes initialization
func (h *BrilHandler) Initialized(ctx *glsp.Context, params *protocol.InitializedParams) error {
	log.Info("Bril LSP Initialized")
	return nil
}

// Shutdown handles the LSP shutdown request
func (h *BrilHandler) Shutdown(ctx *glsp.Context) error {
	log.Info("Bril LSP Shutdown")
	return nil
}

// SetTrace accepts trace level changes; logging is configured at startup
func (h *BrilHandler) SetTrace(ctx *glsp.Context, params *protocol.SetTraceParams) error {
	log.Debugf("trace level %s requested", params.Value)
	return nil
}

// TextDocumentDidOpen handles file open notifications from the editor
func (h *BrilHandler) TextDocumentDidOpen(ctx *glsp.Context, params *protocol.DidOpenTextDocumentParams) error {
	log.Infof("Opened file: %s", params.TextDocument.URI)

	doc, err := h.update(params.TextDocument.URI, params.TextDocument.Text)
	if err != nil {
		return err
	}
	sendDiagnosticNotification(ctx, doc.URI, doc.Diagnostics)
	return nil
}

// TextDocumentDidChange handles file change notifications from the editor.
// The server asks for full sync, so the last change holds the whole text.
func (h *BrilHandler) TextDocumentDidChange(ctx *glsp.Context, params *protocol.DidChangeTextDocumentParams) error {
	log.Debugf("Changed file: %s", params.TextDocument.URI)

	var text *string
	for _, change := range params.ContentChanges {
		if whole, ok := change.(protocol.TextDocumentContentChangeEventWhole); ok {
			text = &whole.Text
		}
	}
	if text == nil {
		return fmt.Errorf("no full-text change for %s", params.TextDocument.URI)
	}

	doc, err := h.update(params.TextDocument.URI, *text)
	if err != nil {
		return err
	}
	sendDiagnosticNotification(ctx, doc.URI, doc.Diagnostics)
	return nil
}

// TextDocumentDidClose handles file close notifications from the editor
func (h *BrilHandler) TextDocumentDidClose(ctx *glsp.Context, params *protocol.DidCloseTextDocumentParams) error {
	log.Infof("Closed file: %s", params.TextDocument.URI)

	path, err := uriToPath(params.TextDocument.URI)
	if err != nil {
		return err
	}

	h.mu.Lock()
	delete(h.docs, path)
	h.mu.Unlock()

	sendDiagnosticNotification(ctx, params.TextDocument.URI, []protocol.Diagnostic{})
	return nil
}

// TextDocumentHover shows liveness and dominance of the block under a label
func (h *BrilHandler) TextDocumentHover(ctx *glsp.Context, params *protocol.HoverParams) (*protocol.Hover, error) {
	doc, err := h.document(ctx, params.TextDocument.URI)
	if err != nil {
		return nil, err
	}
	return BlockHover(doc, params.Position), nil
}

// TextDocumentDefinition jumps from a label or function reference to its declaration
func (h *BrilHandler) TextDocumentDefinition(ctx *glsp.Context, params *protocol.DefinitionParams) (any, error) {
	doc, err := h.document(ctx, params.TextDocument.URI)
	if err != nil {
		return nil, err
	}
	if loc := Definition(doc, params.Position); loc != nil {
		return loc, nil
	}
	return nil, nil
}

// TextDocumentSemanticTokensFull handles semantic token requests for the entire document
func (h *BrilHandler) TextDocumentSemanticTokensFull(ctx *glsp.Context, params *protocol.SemanticTokensParams) (*protocol.SemanticTokens, error) {
	log.Debugf("TextDocumentSemanticTokensFull called for: %s", params.TextDocument.URI)

	doc, err := h.document(ctx, params.TextDocument.URI)
	if err != nil {
		return nil, err
	}

	tokens := collectSemanticTokens(doc.Path, doc.Text)
	return &protocol.SemanticTokens{
		Data: encodeSemanticTokens(tokens),
	}, nil
}

func (h *BrilHandler) update(rawURI protocol.DocumentUri, text string) (*Document, error) {
	path, err := uriToPath(rawURI)
	if err != nil {
		return nil, err
	}

	doc := NewDocument(rawURI, path, text)

	h.mu.Lock()
	h.docs[path] = doc
	h.mu.Unlock()

	return doc, nil
}

// document returns the open document, reading it from disk when the
// editor has not sent it yet.
func (h *BrilHandler) document(ctx *glsp.Context, rawURI protocol.DocumentUri) (*Document, error) {
	path, err := uriToPath(rawURI)
	if err != nil {
		return nil, err
	}

	h.mu.RLock()
	doc, ok := h.docs[path]
	h.mu.RUnlock()
	if ok {
		return doc, nil
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file %s: %w", path, err)
	}
	doc, err = h.update(rawURI, string(content))
	if err != nil {
		return nil, err
	}
	sendDiagnosticNotification(ctx, rawURI, doc.Diagnostics)
	return doc, nil
}

// Convert URI to platform-local file path
func uriToPath(rawURI string) (string, error) {
	u, err := url.Parse(rawURI)
	if err != nil {
		return "", fmt.Errorf("invalid URI %s: %w", rawURI, err)
	}

	path := u.Path

	// On Windows, remove leading slash (e.g., /C:/...) -> C:/...
	if runtime.GOOS == "windows" && strings.HasPrefix(path, "/") && len(path) > 3 && path[2] == ':' {
		path = path[1:]
	}

	// Normalize to platform-specific separators
	return filepath.FromSlash(path), nil
}

func sendDiagnosticNotification(ctx *glsp.Context, uri protocol.URI, diagnostics []protocol.Diagnostic) {
	if ctx == nil || ctx.Notify == nil {
		return
	}
	if diagnostics == nil {
		diagnostics = []protocol.Diagnostic{}
	}
	log.Debugf("Sending %d diagnostics for %s", len(diagnostics), uri)

	ctx.Notify(protocol.ServerTextDocumentPublishDiagnostics, &protocol.PublishDiagnosticsParams{
		URI:         uri,
		Diagnostics: diagnostics,
	})
}

func ptrBool(b bool) *bool {
	return &b
}

func ptrSyncKind(k protocol.TextDocumentSyncKind) *protocol.TextDocumentSyncKind {
	return &k
}

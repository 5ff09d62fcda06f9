// SPDX-License-Identifier: Apache-2.0
package main

import (
	"os"

	"github.com/tliron/commonlog"
	_ "github.com/tliron/commonlog/simple"
	protocol "github.com/tliron/glsp/protocol_3_16"
	"github.com/tliron/glsp/server"

	"brilflow/internal/config"
	"brilflow/internal/lsp"
)

const lsName = "brilflow" // Name identifier for the language server

var (
	version = "0.1.0"        // Server version
	handler protocol.Handler // Protocol handler instance (wired up below)
)

func main() {
	// Verbosity comes from brilflow.toml when there is one
	verbosity := 1
	if wd, err := os.Getwd(); err == nil {
		if cfg, err := config.Load(config.Find(wd)); err == nil && cfg.Verbosity > 0 {
			verbosity = cfg.Verbosity
		}
	}
	commonlog.Configure(verbosity, nil)
	log := commonlog.GetLogger("brilflow.lsp")

	brilHandler := lsp.NewBrilHandler()

	// Wire up the handler with specific LSP method implementations
	handler = protocol.Handler{
		Initialize:                     brilHandler.Initialize,
		Initialized:                    brilHandler.Initialized,
		Shutdown:                       brilHandler.Shutdown,
		SetTrace:                       brilHandler.SetTrace,
		TextDocumentDidOpen:            brilHandler.TextDocumentDidOpen,
		TextDocumentDidClose:           brilHandler.TextDocumentDidClose,
		TextDocumentDidChange:          brilHandler.TextDocumentDidChange,
		TextDocumentHover:              brilHandler.TextDocumentHover,
		TextDocumentDefinition:         brilHandler.TextDocumentDefinition,
		TextDocumentSemanticTokensFull: brilHandler.TextDocumentSemanticTokensFull,
	}

	// The last argument enables glsp's own debug logs
	s := server.NewServer(&handler, lsName, false)

	log.Infof("Starting Bril LSP server %s...", version)

	// Editors talk to the server over standard input/output
	if err := s.RunStdio(); err != nil {
		log.Errorf("Error starting Bril LSP server: %s", err)
		os.Exit(1)
	}
}

package server

import (
	"errors"
	"fmt"
	"net/url"
	"path/filepath"
	"strings"
	"sync"
	"unicode"

	"github.com/tliron/commonlog"
	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"
	glspserver "github.com/tliron/glsp/server"

	"github.com/wilc-lang/wilc/compiler"
	"github.com/wilc-lang/wilc/vm"
)

const lspName = "wilc-lsp"

var log = commonlog.GetLogger("wilc.server")

// LspServer provides editor features for wilc scripts: parse diagnostics,
// mnemonic and name completion, hover, label definitions and references.
type LspServer struct {
	libRoot string

	mu   sync.Mutex
	docs map[string]string // URI → full document content

	handler protocol.Handler
	server  *glspserver.Server
	version string
}

// NewLSP creates a new LSP server. Imports in open documents are resolved
// against libRoot.
func NewLSP(libRoot string) *LspServer {
	s := &LspServer{
		libRoot: libRoot,
		docs:    make(map[string]string),
		version: "0.1.0",
	}

	s.handler = protocol.Handler{
		Initialize:  s.initialize,
		Initialized: s.initialized,
		Shutdown:    s.shutdown,
		SetTrace:    s.setTrace,

		TextDocumentDidOpen:   s.textDocumentDidOpen,
		TextDocumentDidChange: s.textDocumentDidChange,
		TextDocumentDidClose:  s.textDocumentDidClose,

		TextDocumentCompletion: s.textDocumentCompletion,
		TextDocumentHover:      s.textDocumentHover,
		TextDocumentDefinition: s.textDocumentDefinition,
		TextDocumentReferences: s.textDocumentReferences,
	}

	s.server = glspserver.NewServer(&s.handler, lspName, false)

	return s
}

// Run starts the LSP server on stdio. Blocks until the client disconnects.
func (s *LspServer) Run() error {
	return s.server.RunStdio()
}

// --- LSP lifecycle handlers ---

func (s *LspServer) initialize(ctx *glsp.Context, params *protocol.InitializeParams) (any, error) {
	commonlog.NewInfoMessage(0, "wilc LSP initializing")

	capabilities := s.handler.CreateServerCapabilities()

	syncKind := protocol.TextDocumentSyncKindFull
	capabilities.TextDocumentSync = &protocol.TextDocumentSyncOptions{
		OpenClose: boolPtr(true),
		Change:    &syncKind,
	}

	capabilities.CompletionProvider = &protocol.CompletionOptions{
		TriggerCharacters: []string{":", "{"},
	}

	capabilities.HoverProvider = true
	capabilities.DefinitionProvider = true
	capabilities.ReferencesProvider = true

	return protocol.InitializeResult{
		Capabilities: capabilities,
		ServerInfo: &protocol.InitializeResultServerInfo{
			Name:    lspName,
			Version: &s.version,
		},
	}, nil
}

func (s *LspServer) initialized(ctx *glsp.Context, params *protocol.InitializedParams) error {
	return nil
}

func (s *LspServer) shutdown(ctx *glsp.Context) error {
	return nil
}

func (s *LspServer) setTrace(ctx *glsp.Context, params *protocol.SetTraceParams) error {
	return nil
}

// --- Document synchronization ---

func (s *LspServer) textDocumentDidOpen(ctx *glsp.Context, params *protocol.DidOpenTextDocumentParams) error {
	uri := params.TextDocument.URI
	text := params.TextDocument.Text

	s.mu.Lock()
	s.docs[string(uri)] = text
	s.mu.Unlock()

	s.publishDiagnostics(ctx, uri, text)
	return nil
}

func (s *LspServer) textDocumentDidChange(ctx *glsp.Context, params *protocol.DidChangeTextDocumentParams) error {
	uri := params.TextDocument.URI

	// With Full sync, the last change event contains the full text
	if len(params.ContentChanges) > 0 {
		last := params.ContentChanges[len(params.ContentChanges)-1]
		if whole, ok := last.(protocol.TextDocumentContentChangeEventWhole); ok {
			s.mu.Lock()
			s.docs[string(uri)] = whole.Text
			text := whole.Text
			s.mu.Unlock()

			s.publishDiagnostics(ctx, uri, text)
		}
	}
	return nil
}

func (s *LspServer) textDocumentDidClose(ctx *glsp.Context, params *protocol.DidCloseTextDocumentParams) error {
	uri := params.TextDocument.URI

	s.mu.Lock()
	delete(s.docs, string(uri))
	s.mu.Unlock()

	// Clear diagnostics for the closed document
	go ctx.Notify(protocol.ServerTextDocumentPublishDiagnostics, protocol.PublishDiagnosticsParams{
		URI:         uri,
		Diagnostics: []protocol.Diagnostic{},
	})
	return nil
}

func (s *LspServer) document(uri protocol.DocumentUri) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	text, ok := s.docs[string(uri)]
	return text, ok
}

// --- Language features ---

func (s *LspServer) textDocumentCompletion(ctx *glsp.Context, params *protocol.CompletionParams) (any, error) {
	text, ok := s.document(params.TextDocument.URI)
	if !ok {
		return nil, nil
	}

	prefix := extractPrefix(text, params.Position)
	if prefix == "" {
		return nil, nil
	}
	return complete(text, prefix), nil
}

func (s *LspServer) textDocumentHover(ctx *glsp.Context, params *protocol.HoverParams) (*protocol.Hover, error) {
	text, ok := s.document(params.TextDocument.URI)
	if !ok {
		return nil, nil
	}

	word := extractWord(text, params.Position)
	if word == "" {
		return nil, nil
	}
	return hover(text, word), nil
}

func (s *LspServer) textDocumentDefinition(ctx *glsp.Context, params *protocol.DefinitionParams) (any, error) {
	uri := params.TextDocument.URI
	text, ok := s.document(uri)
	if !ok {
		return nil, nil
	}

	// On an Import line, jump to the imported file.
	if target := s.importTarget(uri, text, params.Position); target != "" {
		return []protocol.Location{{
			URI:   protocol.DocumentUri("file://" + filepath.ToSlash(target)),
			Range: protocol.Range{},
		}}, nil
	}

	word := extractWord(text, params.Position)
	if word == "" {
		return nil, nil
	}
	locations := definition(uri, text, word)
	if len(locations) == 0 {
		return nil, nil
	}
	return locations, nil
}

func (s *LspServer) textDocumentReferences(ctx *glsp.Context, params *protocol.ReferenceParams) ([]protocol.Location, error) {
	uri := params.TextDocument.URI
	text, ok := s.document(uri)
	if !ok {
		return nil, nil
	}

	word := extractWord(text, params.Position)
	if word == "" {
		return nil, nil
	}
	return references(uri, text, word), nil
}

// --- Document-backed logic ---

func complete(text, prefix string) []protocol.CompletionItem {
	var items []protocol.CompletionItem
	lowerPrefix := strings.ToLower(prefix)

	// Mnemonics
	for _, name := range vm.AllMnemonics() {
		if strings.HasPrefix(strings.ToLower(name), lowerPrefix) {
			op, _ := vm.LookupMnemonic(name)
			kind := protocol.CompletionItemKindKeyword
			detail := op.Signature()
			nameCopy := name
			items = append(items, protocol.CompletionItem{
				Label:      name,
				Kind:       &kind,
				Detail:     &detail,
				InsertText: &nameCopy,
			})
		}
	}

	// Names bound somewhere in the document
	seen := make(map[string]bool)
	for _, b := range bindings(scanDocument(text)) {
		if seen[b.name] || !strings.HasPrefix(strings.ToLower(b.name), lowerPrefix) {
			continue
		}
		seen[b.name] = true
		kind := protocol.CompletionItemKindVariable
		detail := "name"
		if b.label {
			kind = protocol.CompletionItemKindReference
			detail = "label"
		}
		nameCopy := b.name
		items = append(items, protocol.CompletionItem{
			Label:      b.name,
			Kind:       &kind,
			Detail:     &detail,
			InsertText: &nameCopy,
		})
	}

	// Limit results
	const maxItems = 100
	if len(items) > maxItems {
		items = items[:maxItems]
	}

	return items
}

func hover(text, word string) *protocol.Hover {
	var b strings.Builder

	if op, ok := vm.LookupMnemonic(word); ok {
		fmt.Fprintf(&b, "**%s**\n\n", op)
		fmt.Fprintf(&b, "`%s`\n\n", op.Signature())
		fmt.Fprintf(&b, "%s instruction, %d arguments", op.Category(), op.Arity())
	} else {
		var writes []binding
		for _, bd := range bindings(scanDocument(text)) {
			if bd.name == word {
				writes = append(writes, bd)
			}
		}
		if len(writes) == 0 {
			return nil
		}
		fmt.Fprintf(&b, "**%s**\n\n", word)
		for _, w := range writes {
			if w.label {
				fmt.Fprintf(&b, "- label defined at line %d\n", w.line.line+1)
			} else {
				fmt.Fprintf(&b, "- written by %s at line %d\n", w.line.mnemonic, w.line.line+1)
			}
		}
	}

	return &protocol.Hover{
		Contents: protocol.MarkupContent{
			Kind:  protocol.MarkupKindMarkdown,
			Value: b.String(),
		},
	}
}

// definition returns the Label lines that define word, or failing that the
// first line that writes it.
func definition(uri protocol.DocumentUri, text, word string) []protocol.Location {
	var labels, writes []protocol.Location
	for _, b := range bindings(scanDocument(text)) {
		if b.name != word {
			continue
		}
		loc := protocol.Location{URI: uri, Range: argRange(b.line, b.arg)}
		if b.label {
			labels = append(labels, loc)
		} else if len(writes) == 0 {
			writes = append(writes, loc)
		}
	}
	if len(labels) > 0 {
		return labels
	}
	return writes
}

// references returns every argument token equal to word, plus every
// {word} placeholder inside string arguments.
func references(uri protocol.DocumentUri, text, word string) []protocol.Location {
	var locations []protocol.Location
	placeholder := "{" + word + "}"
	for _, dl := range scanDocument(text) {
		for _, arg := range dl.args {
			if arg.text == word {
				locations = append(locations, protocol.Location{URI: uri, Range: argRange(dl, arg)})
				continue
			}
			if !strings.HasPrefix(arg.text, `"`) {
				continue
			}
			for off := 0; ; {
				idx := strings.Index(arg.text[off:], placeholder)
				if idx < 0 {
					break
				}
				start := arg.column + off + idx + 1
				locations = append(locations, protocol.Location{
					URI: uri,
					Range: protocol.Range{
						Start: protocol.Position{Line: uint32(dl.line), Character: uint32(start)},
						End:   protocol.Position{Line: uint32(dl.line), Character: uint32(start + len(word))},
					},
				})
				off += idx + len(placeholder)
			}
		}
	}
	return locations
}

// importTarget resolves the Import line under the cursor, if any.
func (s *LspServer) importTarget(uri protocol.DocumentUri, text string, pos protocol.Position) string {
	for _, dl := range scanDocument(text) {
		if dl.line != int(pos.Line) || dl.mnemonic != vm.OpImport.String() || len(dl.args) != 1 {
			continue
		}
		arg := dl.args[0].text
		if len(arg) < 2 || arg[0] != '"' || arg[len(arg)-1] != '"' {
			return ""
		}
		resolved, ok := compiler.ResolveImport(arg[1:len(arg)-1], uriToPath(uri), s.libRoot)
		if !ok {
			return ""
		}
		if abs, err := filepath.Abs(resolved); err == nil {
			return abs
		}
		return resolved
	}
	return ""
}

func argRange(dl docLine, arg docArg) protocol.Range {
	return protocol.Range{
		Start: protocol.Position{Line: uint32(dl.line), Character: uint32(arg.column)},
		End:   protocol.Position{Line: uint32(dl.line), Character: uint32(arg.column + len(arg.text))},
	}
}

// --- Diagnostics ---

func (s *LspServer) publishDiagnostics(ctx *glsp.Context, uri protocol.DocumentUri, text string) {
	diagnostics := diagnose(uriToPath(uri), text, s.libRoot)

	go ctx.Notify(protocol.ServerTextDocumentPublishDiagnostics, protocol.PublishDiagnosticsParams{
		URI:         uri,
		Diagnostics: diagnostics,
	})
}

// diagnose assembles text and converts a parse failure into a diagnostic.
// Failures inside an imported file are reported on line 0 with the
// imported file's position in the message.
func diagnose(path, text, libRoot string) []protocol.Diagnostic {
	_, err := compiler.CompileSource(path, []byte(text), libRoot)
	if err == nil {
		return []protocol.Diagnostic{}
	}
	log.Debugf("diagnostics for %s: %s", path, err)

	severity := protocol.DiagnosticSeverityError
	source := lspName
	diag := protocol.Diagnostic{
		Severity: &severity,
		Source:   &source,
		Message:  err.Error(),
	}

	var perr *compiler.ParseError
	if errors.As(err, &perr) && sameFile(perr.Pos.File, path) {
		lines := strings.Split(text, "\n")
		end := perr.Pos.Column
		if perr.Pos.Line < len(lines) {
			end = len(strings.TrimSuffix(lines[perr.Pos.Line], "\r"))
		}
		diag.Range = protocol.Range{
			Start: protocol.Position{Line: uint32(perr.Pos.Line), Character: uint32(perr.Pos.Column)},
			End:   protocol.Position{Line: uint32(perr.Pos.Line), Character: uint32(end)},
		}
		if perr.Msg != "" {
			diag.Message = perr.Msg
		} else {
			diag.Message = perr.Err.Error()
		}
	}

	return []protocol.Diagnostic{diag}
}

func sameFile(a, b string) bool {
	return filepath.Clean(a) == filepath.Clean(b)
}

// uriToPath converts a file:// URI to a local path. Other URIs are used
// verbatim.
func uriToPath(uri protocol.DocumentUri) string {
	u, err := url.Parse(string(uri))
	if err != nil || u.Scheme != "file" {
		return string(uri)
	}
	return filepath.FromSlash(u.Path)
}

// --- Text extraction helpers ---

// extractPrefix returns the word fragment before the cursor for completion.
// Colons are kept so that "List::" completes to the list mnemonics.
func extractPrefix(text string, pos protocol.Position) string {
	lines := strings.Split(text, "\n")
	if int(pos.Line) >= len(lines) {
		return ""
	}
	line := lines[pos.Line]
	col := int(pos.Character)
	if col > len(line) {
		col = len(line)
	}

	// Walk backwards from cursor to find the start of the identifier
	start := col
	for start > 0 {
		ch := rune(line[start-1])
		if isWordChar(ch) || ch == ':' {
			start--
		} else {
			break
		}
	}

	if start == col {
		return ""
	}

	return line[start:col]
}

// extractWord returns the full identifier or mnemonic under the cursor.
func extractWord(text string, pos protocol.Position) string {
	lines := strings.Split(text, "\n")
	if int(pos.Line) >= len(lines) {
		return ""
	}
	line := strings.TrimSuffix(lines[pos.Line], "\r")
	col := int(pos.Character)
	if col > len(line) {
		col = len(line)
	}

	// Find start
	start := col
	for start > 0 {
		ch := rune(line[start-1])
		if isWordChar(ch) || ch == ':' {
			start--
		} else {
			break
		}
	}

	// Find end
	end := col
	for end < len(line) {
		ch := rune(line[end])
		if isWordChar(ch) || ch == ':' {
			end++
		} else {
			break
		}
	}

	if start == end {
		return ""
	}

	return line[start:end]
}

func isWordChar(ch rune) bool {
	return unicode.IsLetter(ch) || unicode.IsDigit(ch) || ch == '_'
}

func boolPtr(b bool) *bool {
	return &b
}

package tcp

import (
	"log/slog"
	"simplefilehost/internal/adapters/handlers/rawhttp"
	"simplefilehost/internal/core/domain"
	"simplefilehost/internal/core/port"
	"simplefilehost/internal/core/service/transfer"
)

// Factory wires a transfer engine, a request handler and a listener for each session
type Factory struct {
	mime   port.MimeResolver
	tokens port.TokenGenerator
	sink   port.EventSink
	logger *slog.Logger
}

func NewFactory(mime port.MimeResolver, tokens port.TokenGenerator, sink port.EventSink, logger *slog.Logger) *Factory {
	return &Factory{mime: mime, tokens: tokens, sink: sink, logger: logger}
}

func (f *Factory) NewServer(cfg domain.SessionConfig, signal port.CompletionSignal) port.FileServer {
	cfg = cfg.WithDefaults()
	logger := f.logger.With("session", cfg.ID.String())
	engine := transfer.NewEngine(transfer.OptionsFor(cfg), f.tokens, logger)
	handler := rawhttp.NewHandler(cfg, engine, f.mime, signal, f.sink, logger)
	return NewServer(cfg, handler, f.sink, logger)
}

// Package scriptmate embeds the kOS scripting assistant in a host
// application: a documentation retrieval index plus a bounded tool-calling
// loop over an OpenAI-compatible model service.
package scriptmate

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/kosworks/scriptmate/internal/domain/chat"
	"github.com/kosworks/scriptmate/internal/domain/docs"
	"github.com/kosworks/scriptmate/internal/repository/docindex"
	openaiTransport "github.com/kosworks/scriptmate/internal/transport/openai"
	"github.com/kosworks/scriptmate/internal/usecase/assistant"
	"github.com/kosworks/scriptmate/internal/usecase/doctool"
	"github.com/kosworks/scriptmate/internal/usecase/retrieval"
)

// Client is the scriptmate SDK entry point.
type Client struct {
	docsSvc *retrieval.Service
	asker   *assistant.Service
}

// New creates a scriptmate Client. The documentation index is not loaded
// until Initialize.
func New(opts ...Option) (*Client, error) {
	cfg := &clientConfig{
		model:       defaultModel,
		maxTokens:   defaultMaxTokens,
		temperature: defaultTemperature,
		timeout:     defaultTimeout,
	}
	for _, o := range opts {
		o(cfg)
	}

	if cfg.indexPath == "" {
		return nil, errors.New("scriptmate: doc index path required (use WithIndexPath)")
	}
	if cfg.apiKey == "" {
		return nil, errors.New("scriptmate: model API key required (use WithAPIKey)")
	}

	logger := cfg.logger
	if logger == nil {
		logger = zap.NewNop()
	}

	docsSvc := retrieval.New(docindex.NewLoader(cfg.indexPath), logger)
	tool := doctool.New(docsSvc, logger)
	responder := openaiTransport.NewResponder(&openaiTransport.Config{
		APIKey:  cfg.apiKey,
		BaseURL: cfg.baseURL,
		Timeout: cfg.timeout,
		Logger:  logger,
	})
	asker := assistant.New(responder, tool, docsSvc, chat.Options{
		Model:       cfg.model,
		Temperature: cfg.temperature,
		MaxTokens:   cfg.maxTokens,
	}, logger)

	return &Client{docsSvc: docsSvc, asker: asker}, nil
}

// Initialize loads the documentation index, blocking until the one-shot load
// settles or ctx is done. Safe to call more than once.
func (c *Client) Initialize(ctx context.Context) error {
	done := make(chan error, 1)
	c.docsSvc.Initialize(ctx, func(err error) { done <- err })
	select {
	case err := <-done:
		if err != nil {
			return fmt.Errorf("scriptmate: load doc index: %w", err)
		}
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Ready reports whether the documentation index is loaded.
func (c *Client) Ready() bool { return c.docsSvc.Ready() }

// Ask runs one user turn to a terminal state.
func (c *Client) Ask(ctx context.Context, req assistant.Request) assistant.Answer {
	return c.asker.Ask(ctx, req)
}

// SearchDocs runs a lexical search over the loaded index. Empty until Ready.
func (c *Client) SearchDocs(query string, limit int) []docs.Entry {
	return c.docsSvc.Search(query, limit)
}

// GetDoc resolves an entry by id or alias.
func (c *Client) GetDoc(key string) (docs.Entry, bool) {
	return c.docsSvc.GetByIDOrAlias(key)
}

package mcp

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"decko/internal/content"
	"decko/internal/llm"
	"decko/internal/storage"
)

const (
	Version         = "0.1.0"
	shutdownTimeout = 10 * time.Second
)

var ErrMissingModels = errors.New("model client is required")

// Deps are the services the MCP tools call. Loader and Images are optional.
type Deps struct {
	Models      llm.Studio
	Loader      *content.Loader
	Images      storage.ImageStore
	ImageConfig content.ImageConfig
}

type Server struct {
	deps   Deps
	server *mcp.Server
}

func NewServer(deps Deps) (*Server, error) {
	if deps.Models == nil {
		return nil, ErrMissingModels
	}
	if deps.Loader == nil {
		deps.Loader = content.NewLoader(nil)
	}
	if deps.ImageConfig.Validate() != nil {
		deps.ImageConfig = content.DefaultImageConfig()
	}

	impl := &mcp.Implementation{
		Name:    "decko",
		Version: Version,
	}

	s := &Server{
		deps:   deps,
		server: mcp.NewServer(impl, nil),
	}
	s.registerTools()

	return s, nil
}

// Run serves over stdio until ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	return s.server.Run(ctx, &mcp.StdioTransport{})
}

// RunHTTP serves the streamable HTTP transport on addr until ctx is cancelled.
func (s *Server) RunHTTP(ctx context.Context, addr string) error {
	handler := mcp.NewStreamableHTTPHandler(func(_ *http.Request) *mcp.Server {
		return s.server
	}, nil)

	httpServer := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		_ = httpServer.Shutdown(shutdownCtx)
	}()

	err := httpServer.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("serve mcp: %w", err)
	}
	return nil
}

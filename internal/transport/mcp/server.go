package mcp

import (
	"context"

	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/sandevgo/screenmate/internal/core"
	"github.com/sandevgo/screenmate/internal/service/memory"
	"github.com/sandevgo/screenmate/pkg/log"
)

// Server exposes the memory system over MCP stdio so assistant clients can
// query and feed it as a set of tools.
type Server struct {
	system *memory.System
	srv    *mcpserver.MCPServer
}

func NewServer(system *memory.System) *Server {
	s := &Server{
		system: system,
		srv:    mcpserver.NewMCPServer(core.MateName, core.MateVersion),
	}
	s.registerTools()
	return s
}

func (s *Server) Start(ctx context.Context) error {
	logger := log.FromCtx(ctx)
	logger.Info().Msg("starting mcp server on stdio")

	errCh := make(chan error, 1)
	go func() {
		errCh <- mcpserver.ServeStdio(s.srv)
	}()

	select {
	case <-ctx.Done():
		logger.Info().Msg("shutting down mcp server")
		return nil
	case err := <-errCh:
		return err
	}
}

func (s *Server) Shutdown(ctx context.Context) error {
	return nil
}

// Package mcp exposes listing intelligence as Model Context Protocol tools.
package mcp

import (
	"context"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/plotwise/plotwise/pkg/listings"
	"github.com/plotwise/plotwise/pkg/service"
	"github.com/plotwise/plotwise/pkg/tracker"
)

// Server serves the listing tools over an MCP transport.
type Server struct {
	svc     *service.Service
	catalog *listings.Catalog
	tracker tracker.Tracker
	mcp     *sdk.Server
}

// New creates a Server. t may be nil when the ledger is disabled.
func New(svc *service.Service, catalog *listings.Catalog, t tracker.Tracker, version string) *Server {
	s := &Server{
		svc:     svc,
		catalog: catalog,
		tracker: t,
		mcp: sdk.NewServer(&sdk.Implementation{
			Name:    "plotwise",
			Version: version,
		}, nil),
	}
	s.registerTools()
	return s
}

// Run serves until the transport closes or ctx is cancelled.
func (s *Server) Run(ctx context.Context, transport sdk.Transport) error {
	return s.mcp.Run(ctx, transport)
}

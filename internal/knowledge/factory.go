package knowledge

import (
	"context"
	"fmt"
	"strings"

	"github.com/mwiater/promptlab/internal/appconfig"
	"github.com/mwiater/promptlab/internal/knowledge/mcp"
)

// NewClient returns the Client selected by cfg.Client and a function releasing it.
func NewClient(ctx context.Context, cfg appconfig.KnowledgeConfig) (Client, func() error, error) {
	noop := func() error { return nil }
	switch strings.ToLower(strings.TrimSpace(cfg.Client)) {
	case "", appconfig.KnowledgeClientSimulated:
		return SimulatedClient{}, noop, nil
	case appconfig.KnowledgeClientNone:
		return NullClient{}, noop, nil
	case appconfig.KnowledgeClientMCP:
		c, err := mcp.Start(ctx, cfg)
		if err != nil {
			return nil, noop, err
		}
		return c, c.Close, nil
	default:
		return nil, noop, fmt.Errorf("unknown knowledge client %q", cfg.Client)
	}
}

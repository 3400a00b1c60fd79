package search

import (
	"fmt"
	"time"
)

const (
	BackendBleve         = "bleve"
	BackendElasticsearch = "elasticsearch"
	BackendMemory        = "memory"
	BackendNone          = "none"
)

// Options selects and configures a gateway backend.
type Options struct {
	Backend    string
	BlevePath  string
	Elastic    ElasticConfig
	Timeout    time.Duration
	MaxResults int
}

// New builds the gateway named by opts.Backend. An empty backend is "none".
func New(opts Options) (Gateway, error) {
	switch opts.Backend {
	case BackendBleve:
		return OpenBleve(opts.BlevePath, opts.MaxResults)
	case BackendElasticsearch:
		cfg := opts.Elastic
		if cfg.MaxResults == 0 {
			cfg.MaxResults = opts.MaxResults
		}
		return NewElastic(cfg)
	case BackendMemory:
		return NewMemoryGateway(), nil
	case BackendNone, "":
		return Disabled{}, nil
	default:
		return nil, fmt.Errorf("unknown search backend %q", opts.Backend)
	}
}

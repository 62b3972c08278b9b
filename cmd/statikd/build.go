package main

import (
	"fmt"
	"net/http"

	"github.com/statikd/statikd/compress"
	"github.com/statikd/statikd/config"
	"github.com/statikd/statikd/fspath"
	statikhttp "github.com/statikd/statikd/http"
	"github.com/statikd/statikd/mimematch"
	"github.com/statikd/statikd/rewrite"
)

// buildRouter assembles the full request pipeline from the loaded
// configuration. Every configuration error surfaces here, before the server
// starts listening.
func buildRouter(cfg *config.Config) (http.Handler, error) {
	resolver, err := fspath.NewResolver(cfg.Content.Root)
	if err != nil {
		return nil, fmt.Errorf("content root: %w", err)
	}

	precompressed, err := compress.ParseAlgorithms(cfg.Compression.Precompressed)
	if err != nil {
		return nil, fmt.Errorf("compression.precompressed: %w", err)
	}

	var compressTypes *mimematch.Matcher
	if len(cfg.Compression.Types) > 0 {
		compressTypes, err = mimematch.New(cfg.Compression.Types)
		if err != nil {
			return nil, fmt.Errorf("compression.types: %w", err)
		}
	}

	var charsetTypes *mimematch.Matcher
	if len(cfg.Content.CharsetTypes) > 0 {
		charsetTypes, err = mimematch.New(cfg.Content.CharsetTypes)
		if err != nil {
			return nil, fmt.Errorf("content.charset_types: %w", err)
		}
	}

	rules, err := cfg.Rewrites.LoadRules()
	if err != nil {
		return nil, err
	}
	var engine *rewrite.Engine
	if len(rules) > 0 {
		engine, err = rewrite.NewEngine(rules)
		if err != nil {
			return nil, fmt.Errorf("rewrites: %w", err)
		}
	}

	return statikhttp.NewRouter(statikhttp.RouterConfig{
		Rewrites: engine,
		CORS:     cfg.CORS,
		Static: statikhttp.StaticConfig{
			Resolver:           resolver,
			Precompressed:      precompressed,
			DynamicCompression: cfg.Compression.Dynamic,
			CompressionLevel:   cfg.Compression.Level,
			CompressTypes:      compressTypes,
			IndexFiles:         cfg.Content.IndexFiles,
			Page404:            cfg.Content.Page404,
			CanonicalizeURI:    cfg.Content.CanonicalizeURI,
			ChunkSize:          cfg.Content.ChunkSize,
			DeclareCharset:     cfg.Content.DeclareCharset,
			CharsetTypes:       charsetTypes,
		},
	}), nil
}

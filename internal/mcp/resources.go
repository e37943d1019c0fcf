package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

func registerResources(server *mcp.Server, predictions PredictionReaderWriter, topics TopicReader) {
	server.AddResource(&mcp.Resource{
		URI:         "oracle://known-symbols",
		Name:        "known-symbols",
		Description: "Canonical asset names the symbol alias table resolves to",
		MIMEType:    "application/json",
	}, func(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
		_ = ctx
		return jsonResource(req.Params.URI, knownSymbols())
	})

	server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: "topic://{symbol}",
		Name:        "topic-by-symbol",
		Description: "Current social snapshot for a specific asset",
		MIMEType:    "application/json",
	}, func(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
		if topics == nil {
			return nil, fmt.Errorf("topic service unavailable")
		}

		parsed, err := url.Parse(req.Params.URI)
		if err != nil || parsed.Scheme != "topic" {
			return nil, mcp.ResourceNotFoundError(req.Params.URI)
		}
		symbol, err := normalizeToolSymbol(parsed.Host + trimSymbolPath(parsed.Path))
		if err != nil {
			return nil, err
		}

		snap, err := topics.Topic(ctx, symbol)
		if err != nil {
			return nil, err
		}
		return jsonResource(req.Params.URI, topicGetOutput{Topic: snap})
	})

	server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: "predictions://latest{?symbol,limit}",
		Name:        "predictions-latest",
		Description: "Recent stored predictions with optional symbol/limit query params",
		MIMEType:    "application/json",
	}, func(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
		if predictions == nil {
			return nil, fmt.Errorf("prediction service unavailable")
		}

		parsed, err := url.Parse(req.Params.URI)
		if err != nil || parsed.Scheme != "predictions" || parsed.Host != "latest" {
			return nil, mcp.ResourceNotFoundError(req.Params.URI)
		}

		symbol := ""
		if rawSymbol := strings.TrimSpace(parsed.Query().Get("symbol")); rawSymbol != "" {
			symbol, err = normalizeToolSymbol(rawSymbol)
			if err != nil {
				return nil, err
			}
		}
		limit := defaultHistoryLimit
		if rawLimit := strings.TrimSpace(parsed.Query().Get("limit")); rawLimit != "" {
			n, err := strconv.Atoi(rawLimit)
			if err != nil {
				return nil, fmt.Errorf("invalid limit: %s", rawLimit)
			}
			limit = normalizeHistoryLimit(n)
		}

		records, err := predictions.History(ctx, symbol, limit)
		if err != nil {
			return nil, err
		}
		return jsonResource(req.Params.URI, predictionsListOutput{Count: len(records), Predictions: records})
	})
}

func jsonResource(uri string, payload any) (*mcp.ReadResourceResult, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(body),
		}},
	}, nil
}

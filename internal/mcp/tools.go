package mcp

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

func registerTools(server *mcp.Server, predictions PredictionReaderWriter, topics TopicReader) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "prediction_generate",
		Description: "Generate and persist a sentiment-driven price prediction for an asset",
	}, func(ctx context.Context, _ *mcp.CallToolRequest, in predictionGenerateInput) (*mcp.CallToolResult, predictionGenerateOutput, error) {
		if predictions == nil {
			return nil, predictionGenerateOutput{}, fmt.Errorf("prediction service unavailable")
		}
		symbol, err := normalizeToolSymbol(in.Symbol)
		if err != nil {
			return nil, predictionGenerateOutput{}, err
		}
		timeframe, err := normalizeTimeframe(in.TimeframeHours)
		if err != nil {
			return nil, predictionGenerateOutput{}, err
		}

		rec, err := predictions.Generate(ctx, symbol, timeframe)
		if err != nil {
			return nil, predictionGenerateOutput{}, err
		}
		return nil, predictionGenerateOutput{Prediction: rec}, nil
	})

	mcp.AddTool(server, &mcp.Tool{
		Name:        "predictions_list",
		Description: "List stored predictions, newest first, with optional symbol filter",
	}, func(ctx context.Context, _ *mcp.CallToolRequest, in predictionsListInput) (*mcp.CallToolResult, predictionsListOutput, error) {
		if predictions == nil {
			return nil, predictionsListOutput{}, fmt.Errorf("prediction service unavailable")
		}
		symbol := ""
		if in.Symbol != "" {
			normalized, err := normalizeToolSymbol(in.Symbol)
			if err != nil {
				return nil, predictionsListOutput{}, err
			}
			symbol = normalized
		}

		records, err := predictions.History(ctx, symbol, normalizeHistoryLimit(in.Limit))
		if err != nil {
			return nil, predictionsListOutput{}, err
		}
		return nil, predictionsListOutput{Count: len(records), Predictions: records}, nil
	})

	mcp.AddTool(server, &mcp.Tool{
		Name:        "topic_get",
		Description: "Get the current social snapshot (galaxy score, dominance, sentiment) for an asset",
	}, func(ctx context.Context, _ *mcp.CallToolRequest, in topicGetInput) (*mcp.CallToolResult, topicGetOutput, error) {
		if topics == nil {
			return nil, topicGetOutput{}, fmt.Errorf("topic service unavailable")
		}
		symbol, err := normalizeToolSymbol(in.Symbol)
		if err != nil {
			return nil, topicGetOutput{}, err
		}

		snap, err := topics.Topic(ctx, symbol)
		if err != nil {
			return nil, topicGetOutput{}, err
		}
		return nil, topicGetOutput{Topic: snap}, nil
	})
}

package bot

import (
	"context"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"lunar-oracle/internal/domain"

	tele "gopkg.in/telebot.v3"
)

type Predictor interface {
	Generate(ctx context.Context, symbol string, timeframeHours int) (*domain.PredictionRecord, error)
	History(ctx context.Context, symbol string, limit int) ([]domain.PredictionRecord, error)
}

type Agent interface {
	Respond(ctx context.Context, userID, message, symbolHint string) domain.AgentReply
}

func StartTelegramBot(predictor Predictor, agent Agent) {
	token := os.Getenv("TELEGRAM_BOT_TOKEN")
	if token == "" {
		log.Println("TELEGRAM_BOT_TOKEN not set, skipping Telegram bot startup")
		return
	}
	pref := tele.Settings{
		Token:  token,
		Poller: &tele.LongPoller{Timeout: 10 * time.Second},
	}
	b, err := tele.NewBot(pref)
	if err != nil {
		log.Fatalf("failed to create Telegram bot: %v", err)
	}

	b.Handle("/ping", func(c tele.Context) error {
		return c.Send("pong")
	})

	b.Handle("/predict", func(c tele.Context) error {
		if predictor == nil {
			return c.Send("Prediction service unavailable")
		}
		args := c.Args()
		if len(args) == 0 {
			return c.Send("Usage: /predict btc")
		}
		symbol := domain.NormalizeSymbol(args[0])
		if symbol == "" {
			return c.Send("Usage: /predict btc")
		}

		_ = c.Notify(tele.Typing)
		rec, err := predictor.Generate(context.Background(), symbol, 0)
		if err != nil {
			log.Printf("telegram prediction error for %s: %v", symbol, err)
			return c.Send(fmt.Sprintf("Could not generate a prediction for %s right now.", symbol))
		}
		return c.Send(formatPrediction(rec))
	})

	b.Handle("/history", func(c tele.Context) error {
		if predictor == nil {
			return c.Send("Prediction service unavailable")
		}
		args := c.Args()
		if len(args) == 0 {
			return c.Send("Usage: /history btc")
		}
		symbol := domain.NormalizeSymbol(args[0])

		records, err := predictor.History(context.Background(), symbol, 5)
		if err != nil {
			return c.Send(fmt.Sprintf("Error fetching history: %v", err))
		}
		if len(records) == 0 {
			return c.Send("No predictions recorded for " + symbol + " yet.")
		}

		lines := make([]string, 0, len(records)+1)
		lines = append(lines, "Recent predictions for "+symbol+":")
		for _, rec := range records {
			lines = append(lines, formatHistoryLine(rec))
		}
		return c.Send(strings.Join(lines, "\n"))
	})

	b.Handle(tele.OnText, func(c tele.Context) error {
		if agent == nil {
			return nil
		}
		text := strings.TrimSpace(c.Text())
		if text == "" {
			return nil
		}
		_ = c.Notify(tele.Typing)

		userID := "telegram"
		if chat := c.Chat(); chat != nil {
			userID = "telegram:" + strconv.FormatInt(chat.ID, 10)
		}
		reply := agent.Respond(context.Background(), userID, text, "")

		msg := reply.Message
		if len(msg) > 4000 {
			msg = msg[:4000] + "\n\n[truncated]"
		}
		return c.Send(msg)
	})

	log.Println("Telegram bot started")
	go b.Start()
}

func formatPrediction(rec *domain.PredictionRecord) string {
	return fmt.Sprintf(
		"%s: %s (%.0f%% confidence)\nTarget move: %+.1f%% over %dh\nGalaxy score: %.0f | Sentiment: %.0f\n%s",
		rec.Symbol,
		strings.ToUpper(string(rec.Direction)),
		rec.Confidence,
		rec.TargetChange,
		rec.TimeframeHours,
		rec.GalaxyScore,
		rec.Sentiment,
		rec.Reasoning,
	)
}

func formatHistoryLine(rec domain.PredictionRecord) string {
	line := fmt.Sprintf(
		"%s %s %.0f%%",
		rec.CreatedAt.UTC().Format("Jan 02 15:04"),
		strings.ToUpper(string(rec.Direction)),
		rec.Confidence,
	)
	if rec.AccuracyScore != nil {
		line += fmt.Sprintf(" (scored %.0f)", *rec.AccuracyScore)
	}
	return line
}

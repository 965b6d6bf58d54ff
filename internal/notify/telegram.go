package notify

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"sentiment-desk/internal/dashboard"
	"sentiment-desk/internal/pipeline"

	"github.com/charmbracelet/log"
	tele "gopkg.in/telebot.v3"
)

type sender interface {
	Send(to tele.Recipient, what interface{}, opts ...interface{}) (*tele.Message, error)
}

// TelegramNotifier posts a run summary to one chat after every pipeline run.
type TelegramNotifier struct {
	bot  sender
	chat tele.ChatID
}

// NewTelegramNotifier returns nil, nil when token or chat are unset.
func NewTelegramNotifier(token string, chatID int64) (*TelegramNotifier, error) {
	token = strings.TrimSpace(token)
	if token == "" || chatID == 0 {
		return nil, nil
	}
	b, err := tele.NewBot(tele.Settings{Token: token, Offline: true})
	if err != nil {
		return nil, fmt.Errorf("create telegram bot: %w", err)
	}
	return &TelegramNotifier{bot: b, chat: tele.ChatID(chatID)}, nil
}

func (n *TelegramNotifier) NotifyRun(ctx context.Context, res *pipeline.Result) error {
	if n == nil || res == nil {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := n.bot.Send(n.chat, FormatRunSummary(res))
	return err
}

// FormatRunSummary renders a run result as a short plain-text message.
func FormatRunSummary(res *pipeline.Result) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s sentiment run %s\n", res.Request.Ticker, res.StartedAt.UTC().Format("2006-01-02 15:04 MST"))

	if n := len(res.Prices); n > 0 {
		last := res.Prices[n-1]
		fmt.Fprintf(&b, "Close %s: $%s (%d days)\n", last.Day(), last.Close.StringFixed(2), n)
	} else {
		b.WriteString("Prices unavailable\n")
	}

	if len(res.Headlines) == 0 {
		b.WriteString("No headlines")
		if res.NewsErr != nil {
			b.WriteString(" (news source unavailable)")
		}
		return b.String()
	}
	fmt.Fprintf(&b, "Headlines: %d (%s)", len(res.Headlines), res.Summary.String())
	if label, count, ok := res.Summary.Dominant(); ok {
		fmt.Fprintf(&b, "\nDominant: %s (%d)", label, count)
	}
	return b.String()
}

// ViewLoader returns the dashboard view for a ticker.
type ViewLoader func(ctx context.Context, ticker string) (*dashboard.View, error)

// StartBot serves the /sentiment command from the latest artifacts. It returns
// after the poller has been started.
func StartBot(token string, load ViewLoader) (*tele.Bot, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		log.Info("TELEGRAM_BOT_TOKEN not set, skipping Telegram bot startup")
		return nil, nil
	}
	b, err := tele.NewBot(tele.Settings{
		Token:  token,
		Poller: &tele.LongPoller{Timeout: 10 * time.Second},
	})
	if err != nil {
		return nil, fmt.Errorf("create telegram bot: %w", err)
	}

	b.Handle("/ping", func(c tele.Context) error {
		return c.Send("pong")
	})
	b.Handle("/sentiment", func(c tele.Context) error {
		return c.Send(sentimentReply(context.Background(), load, c.Args()))
	})

	log.Info("telegram bot started")
	go b.Start()
	return b, nil
}

func sentimentReply(ctx context.Context, load ViewLoader, args []string) string {
	if len(args) == 0 {
		return "Usage: /sentiment AAPL"
	}
	ticker := strings.ToUpper(strings.TrimSpace(args[0]))
	v, err := load(ctx, ticker)
	if errors.Is(err, dashboard.ErrNotGenerated) {
		return fmt.Sprintf("No data for %s yet. Run the pipeline first.", ticker)
	}
	if err != nil {
		return fmt.Sprintf("Error loading %s: %v", ticker, err)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s\n", ticker)
	if v.LatestClose != nil {
		fmt.Fprintf(&b, "Latest close (%s): $%s\n", v.LatestDate, v.LatestClose.StringFixed(2))
	}
	fmt.Fprintf(&b, "Avg confidence: %.2f\n", v.MeanConfidence)
	if v.Dominant != "" {
		fmt.Fprintf(&b, "Dominant: %s (%d of %d)", v.Dominant, v.DominantCount, len(v.Headlines))
	} else {
		b.WriteString("No headlines")
	}
	return b.String()
}

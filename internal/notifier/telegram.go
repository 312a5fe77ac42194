package notifier

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/amishk599/gigradar/internal/model"
)

// DefaultTimeout bounds each notification request.
const DefaultTimeout = 10 * time.Second

// Ensure TelegramNotifier implements model.Notifier.
var _ model.Notifier = (*TelegramNotifier)(nil)

// TelegramNotifier sends alerts through the Telegram Bot API.
// The bot is created on first use so a Telegram outage at startup does not
// disable alerts for the life of the process.
type TelegramNotifier struct {
	token    string
	chatID   string
	endpoint string
	client   *http.Client
	logger   *slog.Logger

	mu  sync.Mutex
	bot *tgbotapi.BotAPI
}

// NewTelegramNotifier returns a notifier for chatID, which is either a numeric
// chat ID or a public channel username such as "@gigs".
// An empty endpoint selects the public Bot API.
func NewTelegramNotifier(token, chatID, endpoint string, client *http.Client, logger *slog.Logger) (*TelegramNotifier, error) {
	if token == "" || chatID == "" {
		return nil, errors.New("telegram bot token and chat id are required")
	}
	if endpoint == "" {
		endpoint = tgbotapi.APIEndpoint
	}
	if client == nil {
		client = &http.Client{Timeout: DefaultTimeout}
	}
	return &TelegramNotifier{
		token:    token,
		chatID:   chatID,
		endpoint: endpoint,
		client:   client,
		logger:   logger,
	}, nil
}

// Notify sends one Markdown alert with link previews disabled.
func (t *TelegramNotifier) Notify(ctx context.Context, job model.Job, c model.Classification) error {
	if err := t.send(ctx, FormatAlert(job, c)); err != nil {
		t.logger.Error("telegram notification failed", "job_id", job.ID, "error", err)
		return err
	}
	t.logger.Info("telegram message sent", "job_id", job.ID, "title", job.Title)
	return nil
}

func (t *TelegramNotifier) send(ctx context.Context, text string) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("telegram send: %w", err)
	}
	bot, err := t.botAPI()
	if err != nil {
		return err
	}

	var msg tgbotapi.MessageConfig
	if id, err := strconv.ParseInt(t.chatID, 10, 64); err == nil {
		msg = tgbotapi.NewMessage(id, text)
	} else {
		msg = tgbotapi.NewMessageToChannel(t.chatID, text)
	}
	msg.ParseMode = tgbotapi.ModeMarkdown
	msg.DisableWebPagePreview = true

	if _, err := bot.Send(msg); err != nil {
		return fmt.Errorf("telegram send: %w", err)
	}
	return nil
}

func (t *TelegramNotifier) botAPI() (*tgbotapi.BotAPI, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.bot != nil {
		return t.bot, nil
	}
	bot, err := tgbotapi.NewBotAPIWithClient(t.token, t.endpoint, t.client)
	if err != nil {
		// The library echoes the request URL, which embeds the token.
		return nil, fmt.Errorf("telegram init: %s", strings.ReplaceAll(err.Error(), t.token, "<token>"))
	}
	t.bot = bot
	return bot, nil
}

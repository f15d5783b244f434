package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	tele "gopkg.in/telebot.v4"

	"github.com/forgo/herald/internal/model"
)

// TelegramSender is the subset of *tele.Bot used for publishing
type TelegramSender interface {
	Send(to tele.Recipient, what interface{}, opts ...interface{}) (*tele.Message, error)
}

// TelegramPublisher posts to Telegram chats and channels through a bot.
// Page targets name a chat (numeric id or @channel); individual targets
// go to the default chat. The request credential is not used.
type TelegramPublisher struct {
	sender      TelegramSender
	defaultChat string
}

// TelegramPublisherConfig holds configuration for the Telegram publisher
type TelegramPublisherConfig struct {
	Token       string
	DefaultChat string
	// Sender replaces the bot built from Token when set.
	Sender TelegramSender
}

// NewTelegramPublisher creates a bot-backed publisher
func NewTelegramPublisher(cfg TelegramPublisherConfig) (*TelegramPublisher, error) {
	sender := cfg.Sender
	if sender == nil {
		if strings.TrimSpace(cfg.Token) == "" {
			return nil, errors.New("telegram token is empty")
		}
		bot, err := tele.NewBot(tele.Settings{Token: cfg.Token})
		if err != nil {
			return nil, fmt.Errorf("telegram: create bot: %w", err)
		}
		sender = bot
	}
	return &TelegramPublisher{
		sender:      sender,
		defaultChat: strings.TrimSpace(cfg.DefaultChat),
	}, nil
}

// Platform implements Publisher
func (p *TelegramPublisher) Platform() model.Platform {
	return model.PlatformTelegram
}

// RequiresCredential implements Publisher
func (p *TelegramPublisher) RequiresCredential() bool {
	return false
}

// chatRecipient addresses a chat by id or @username
type chatRecipient string

func (c chatRecipient) Recipient() string {
	return string(c)
}

func (p *TelegramPublisher) recipient(target model.Target) (tele.Recipient, error) {
	chat := p.defaultChat
	if target.IsPage() {
		chat = strings.TrimSpace(target.PageID)
	}
	if chat == "" {
		if target.IsPage() {
			return nil, ErrPageIDRequired
		}
		return nil, errors.New("telegram: no default chat configured")
	}
	if id, err := strconv.ParseInt(chat, 10, 64); err == nil {
		return &tele.Chat{ID: id}, nil
	}
	if !strings.HasPrefix(chat, "@") {
		chat = "@" + chat
	}
	return chatRecipient(chat), nil
}

// Publish implements Publisher
func (p *TelegramPublisher) Publish(ctx context.Context, _ string, content string, target model.Target) error {
	to, err := p.recipient(target)
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, err := p.sender.Send(to, content, &tele.SendOptions{DisableWebPagePreview: true}); err != nil {
		var apiErr *tele.Error
		if errors.As(err, &apiErr) && apiErr.Code != 0 {
			return &StatusError{Platform: model.PlatformTelegram, Op: "send", StatusCode: apiErr.Code, Body: apiErr.Error()}
		}
		return fmt.Errorf("telegram: send: %w", err)
	}
	return nil
}

package notifier

import (
	"context"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog/log"
)

// CommandHandler is called when a user command is received. args is the text
// after the command. A non-empty reply is sent back to the chat.
type CommandHandler func(ctx context.Context, command, args string) string

// StartPolling begins long-polling for Telegram commands. Blocks until ctx is cancelled.
// Messages from chats other than ChatID are ignored when ChatID is set.
func (t *TelegramNotifier) StartPolling(ctx context.Context, handler CommandHandler) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 30
	updates := t.bot.GetUpdatesChan(u)

	for {
		select {
		case <-ctx.Done():
			t.bot.StopReceivingUpdates()
			log.Info().Msg("telegram polling stopped")
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			t.dispatch(ctx, update, handler)
		}
	}
}

func (t *TelegramNotifier) dispatch(ctx context.Context, update tgbotapi.Update, handler CommandHandler) {
	msg := update.Message
	if msg == nil || msg.Text == "" {
		return
	}
	if t.ChatID != 0 && msg.Chat != nil && msg.Chat.ID != t.ChatID {
		log.Warn().Int64("chat_id", msg.Chat.ID).Msg("ignoring message from unknown chat")
		return
	}
	command, args := parseCommand(msg)
	if command == "" {
		return
	}
	log.Info().Str("command", command).Str("args", args).Msg("received command")
	reply := handler(ctx, command, args)
	if reply == "" {
		return
	}
	chatID := t.ChatID
	if msg.Chat != nil {
		chatID = msg.Chat.ID
	}
	if err := t.sendTo(ctx, chatID, reply); err != nil {
		log.Error().Err(err).Msg("send reply failed")
	}
}

func parseCommand(msg *tgbotapi.Message) (string, string) {
	if msg.IsCommand() {
		return "/" + msg.Command(), strings.TrimSpace(msg.CommandArguments())
	}
	text := strings.TrimSpace(msg.Text)
	if !strings.HasPrefix(text, "/") {
		return "", ""
	}
	command, args, _ := strings.Cut(text, " ")
	if i := strings.Index(command, "@"); i > 0 {
		command = command[:i]
	}
	return command, strings.TrimSpace(args)
}

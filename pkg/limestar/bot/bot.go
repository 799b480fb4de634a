package bot

import (
	"errors"
	"log"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/limestar/limestar/pkg/limestar/processor"
	"gorm.io/gorm"
)

// Bot is the Telegram transport for link submission and browsing
type Bot struct {
	api          *tgbotapi.BotAPI
	db           *gorm.DB
	proc         *processor.Processor
	allowedUsers map[int64]bool
}

// New creates a bot from a token and an optional user whitelist.
// An empty whitelist allows everyone.
func New(token string, allowedUsers []int64, db *gorm.DB, proc *processor.Processor) (*Bot, error) {
	if token == "" {
		return nil, errors.New("TELEGRAM_BOT_TOKEN not configured")
	}

	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, err
	}

	allowed := make(map[int64]bool, len(allowedUsers))
	for _, id := range allowedUsers {
		allowed[id] = true
	}

	return &Bot{
		api:          api,
		db:           db,
		proc:         proc,
		allowedUsers: allowed,
	}, nil
}

// Run starts long polling and blocks until the update channel closes
func (b *Bot) Run() {
	if len(b.allowedUsers) > 0 {
		log.Printf("白名单模式已启用，允许 %d 个用户", len(b.allowedUsers))
	} else {
		log.Println("警告: 未配置白名单，任何人都可以使用此 Bot")
	}

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 30
	u.AllowedUpdates = []string{"message", "callback_query"}

	for update := range b.api.GetUpdatesChan(u) {
		b.dispatch(update)
	}
}

// dispatch routes one update to its handler
func (b *Bot) dispatch(update tgbotapi.Update) {
	if update.CallbackQuery != nil {
		if !b.authorized(update.CallbackQuery.From.ID) {
			return
		}
		b.handleRebuildCallback(update.CallbackQuery)
		return
	}

	msg := update.Message
	if msg == nil {
		return
	}
	if !b.authorized(msg.From.ID) {
		b.reply(msg.Chat.ID, "无权限使用此 Bot")
		return
	}

	if msg.IsCommand() {
		switch msg.Command() {
		case "start":
			b.handleStart(msg)
		case "help":
			b.handleHelp(msg)
		case "list":
			b.handleList(msg)
		case "search":
			b.handleSearch(msg)
		case "rebuild_tags":
			b.handleRebuildTags(msg)
		case "rebuild_status":
			b.handleRebuildStatus(msg)
		}
		return
	}

	b.handleMessage(msg)
}

// authorized checks the whitelist; an empty whitelist allows everyone
func (b *Bot) authorized(userID int64) bool {
	return len(b.allowedUsers) == 0 || b.allowedUsers[userID]
}

func (b *Bot) reply(chatID int64, text string) {
	if _, err := b.api.Send(tgbotapi.NewMessage(chatID, text)); err != nil {
		log.Printf("Failed to send message: %v", err)
	}
}

func (b *Bot) replyHTML(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.DisableWebPagePreview = true
	if _, err := b.api.Send(msg); err != nil {
		log.Printf("Failed to send message: %v", err)
	}
}

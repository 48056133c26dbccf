package bot

import (
	"context"
	"io"

	"github.com/Seka35/visual-crm/internal/confirm"
	"github.com/Seka35/visual-crm/internal/crm"
	"github.com/Seka35/visual-crm/internal/logger"
	"github.com/Seka35/visual-crm/internal/orchestrator"
	"github.com/Seka35/visual-crm/internal/session"
	"github.com/Seka35/visual-crm/internal/telegram"
)

// API is the Bot API surface the handlers use. *telegram.Client satisfies
// it; tests substitute a fake.
type API interface {
	SendMessage(ctx context.Context, params telegram.SendMessageParams) (*telegram.Message, error)
	EditMessageText(ctx context.Context, params telegram.EditMessageTextParams) error
	AnswerCallbackQuery(ctx context.Context, callbackID string) error
	SendChatAction(ctx context.Context, chatID int64, action string) error
	GetFile(ctx context.Context, fileID string) (*telegram.File, error)
	DownloadFile(ctx context.Context, filePath string) (io.ReadCloser, error)
	SetMyCommands(ctx context.Context, commands []telegram.BotCommand) error
}

// Directory is the identity side of the CRM backend. *crm.Client satisfies
// it.
type Directory interface {
	UserByTelegramID(ctx context.Context, telegramID int64) (crm.Record, error)
	LinkTelegramUser(ctx context.Context, email string, telegramID int64) (crm.Record, error)
	UpdateUserTimezone(ctx context.Context, userID, timezone string) error
	Workflows(ctx context.Context, userID string) ([]crm.Record, error)
}

// Responder runs one conversational turn. *orchestrator.Orchestrator
// satisfies it.
type Responder interface {
	Respond(ctx context.Context, userText string, s *session.Session) (*orchestrator.Result, error)
}

// Transcriber converts a voice note stream to text.
type Transcriber interface {
	Transcribe(ctx context.Context, audio io.Reader, filename string) (string, error)
}

// Bot routes Telegram updates to the conversation pipeline.
type Bot struct {
	api      API
	sessions *session.Manager
	users    Directory
	orch     Responder
	gate     *confirm.Gate
	voice    Transcriber
	log      *logger.Logger
}

// New wires the bot together. voice may be nil; voice notes then get a
// polite failure reply.
func New(api API, sessions *session.Manager, users Directory, orch Responder, gate *confirm.Gate, voice Transcriber) *Bot {
	return &Bot{
		api:      api,
		sessions: sessions,
		users:    users,
		orch:     orch,
		gate:     gate,
		voice:    voice,
		log:      logger.Global().WithPrefix("bot"),
	}
}

// Commands is the menu published through setMyCommands at startup.
func Commands() []telegram.BotCommand {
	return []telegram.BotCommand{
		{Command: "start", Description: "Start the bot"},
		{Command: "login", Description: "Link your account"},
		{Command: "menu", Description: "Show dashboard"},
		{Command: "settings", Description: "Manage account & timezone"},
		{Command: "set_workflow", Description: "Switch workflow"},
		{Command: "help", Description: "Get help"},
	}
}

// RegisterCommands publishes the command menu.
func (b *Bot) RegisterCommands(ctx context.Context) error {
	return b.api.SetMyCommands(ctx, Commands())
}

// HandleUpdate processes one incoming update. It never returns an error:
// every failure degrades to a user-visible message or a log line.
func (b *Bot) HandleUpdate(ctx context.Context, update telegram.Update) {
	switch {
	case update.CallbackQuery != nil:
		b.handleCallback(ctx, update.CallbackQuery)
	case update.Message != nil:
		b.handleMessage(ctx, update.Message)
	}
}

func (b *Bot) handleMessage(ctx context.Context, msg *telegram.Message) {
	s := b.sessions.Get(msg.Chat.ID)
	s.LockTurn()
	defer s.UnlockTurn()
	defer b.sessions.Save(s)

	switch {
	case msg.Voice != nil:
		b.handleVoice(ctx, s, msg)
	case msg.Text != "":
		b.handleText(ctx, s, msg)
	}
}

// ensureLoggedIn restores identity from the backend when the in-memory
// session lost it (typically after a restart).
func (b *Bot) ensureLoggedIn(ctx context.Context, s *session.Session, telegramID int64) bool {
	if s.Authenticated() {
		return true
	}

	user, err := b.users.UserByTelegramID(ctx, telegramID)
	if err != nil {
		b.log.Warn("identity lookup for %d failed: %v", telegramID, err)
		return false
	}
	if user == nil {
		return false
	}

	timezone := user.String("timezone")
	if timezone == "" {
		timezone = "UTC"
	}
	s.SetUser(user.ID(), user.String("email"), timezone)
	b.log.Info("restored session for %s", user.String("email"))
	return true
}

func (b *Bot) send(ctx context.Context, chatID int64, text string, markup interface{}) {
	_, err := b.api.SendMessage(ctx, telegram.SendMessageParams{
		ChatID:      chatID,
		Text:        text,
		ParseMode:   "HTML",
		ReplyMarkup: markup,
	})
	if err != nil {
		b.log.Error("sendMessage to %d failed: %v", chatID, err)
	}
}

func (b *Bot) edit(ctx context.Context, chatID, messageID int64, text string, markup *telegram.InlineKeyboardMarkup) {
	err := b.api.EditMessageText(ctx, telegram.EditMessageTextParams{
		ChatID:      chatID,
		MessageID:   messageID,
		Text:        text,
		ParseMode:   "HTML",
		ReplyMarkup: markup,
	})
	if err != nil {
		b.log.Error("editMessageText in %d failed: %v", chatID, err)
	}
}

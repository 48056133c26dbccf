package bot

import (
	"context"
	"fmt"
	"strings"

	"github.com/Seka35/visual-crm/internal/session"
	"github.com/Seka35/visual-crm/internal/telegram"
)

const (
	loginFirstText   = "Log in first, idiot. /login <email>"
	whoAreYouText    = "Who are you? /login first."
	wentWrongText    = "Something went wrong. Fix your shit."
	cantHearText     = "I couldn't hear you. Speak up!"
	pickWorkflowText = "Pick a workflow or I'll pick one for you (and you won't like it):"
)

func (b *Bot) handleText(ctx context.Context, s *session.Session, msg *telegram.Message) {
	text := strings.TrimSpace(msg.Text)

	if text == "⚙️ Menu" {
		b.menuCommand(ctx, s, msg)
		return
	}

	if strings.HasPrefix(text, "/") {
		b.handleCommand(ctx, s, msg, text)
		return
	}

	if !b.ensureLoggedIn(ctx, s, senderID(msg)) {
		b.send(ctx, s.ChatID, whoAreYouText, mainMenuKeyboard())
		return
	}

	b.processTurn(ctx, s, text)
}

func (b *Bot) handleCommand(ctx context.Context, s *session.Session, msg *telegram.Message, text string) {
	cmd, arg := splitCommand(text)

	switch cmd {
	case "start":
		b.startCommand(ctx, s, msg)
	case "help":
		b.helpCommand(ctx, s)
	case "login":
		b.loginCommand(ctx, s, msg, arg)
	case "logout":
		b.logoutCommand(ctx, s)
	case "menu":
		b.menuCommand(ctx, s, msg)
	case "settings":
		b.settingsCommand(ctx, s, msg)
	case "set_workflow":
		b.setWorkflowCommand(ctx, s, msg)
	default:
		b.send(ctx, s.ChatID, "What the hell is that supposed to mean? Try /help.", mainMenuKeyboard())
	}
}

// splitCommand parses "/login ann@x.com" and "/start@crmbot" forms.
func splitCommand(text string) (cmd, arg string) {
	parts := strings.SplitN(strings.TrimPrefix(text, "/"), " ", 2)
	cmd = parts[0]
	if at := strings.Index(cmd, "@"); at >= 0 {
		cmd = cmd[:at]
	}
	if len(parts) > 1 {
		arg = strings.TrimSpace(parts[1])
	}
	return cmd, arg
}

func senderID(msg *telegram.Message) int64 {
	if msg.From != nil {
		return msg.From.ID
	}
	return msg.Chat.ID
}

func senderName(msg *telegram.Message) string {
	if msg.From != nil && msg.From.FirstName != "" {
		return msg.From.FirstName
	}
	return "you"
}

func (b *Bot) startCommand(ctx context.Context, s *session.Session, msg *telegram.Message) {
	name := senderName(msg)
	if b.ensureLoggedIn(ctx, s, senderID(msg)) {
		b.send(ctx, s.ChatID,
			fmt.Sprintf("Yo %s! Welcome back, <b>%s</b>.", name, s.Email),
			dashboardKeyboard())
		return
	}

	b.send(ctx, s.ChatID,
		fmt.Sprintf("Yo %s! Trevor Philips here.\n\n"+
			"I don't know who the fuck you are. You need to log in first.\n"+
			"Type <code>/login your_email@example.com</code> to link your account.", name),
		mainMenuKeyboard())
}

func (b *Bot) helpCommand(ctx context.Context, s *session.Session) {
	b.send(ctx, s.ChatID,
		"Commands:\n"+
			"/start - Start the bot\n"+
			"/login <email> - Link your account\n"+
			"/logout - Disconnect\n"+
			"/menu - Show dashboard\n"+
			"/settings - Manage account & timezone\n"+
			"/set_workflow - Choose your business\n"+
			"/help - Show this message",
		mainMenuKeyboard())
}

func (b *Bot) loginCommand(ctx context.Context, s *session.Session, msg *telegram.Message, email string) {
	if email == "" {
		b.send(ctx, s.ChatID, "You need to give me an email, genius. Usage: /login <email>", nil)
		return
	}

	user, err := b.users.LinkTelegramUser(ctx, email, senderID(msg))
	if err != nil {
		b.send(ctx, s.ChatID, fmt.Sprintf("❌ Login failed: %v", err), nil)
		return
	}

	timezone := user.String("timezone")
	if timezone == "" {
		timezone = "UTC"
	}
	s.SetUser(user.ID(), user.String("email"), timezone)

	b.send(ctx, s.ChatID,
		fmt.Sprintf("✅ You're in, <b>%s</b>. Now get to work!", s.Email),
		mainMenuKeyboard())
	b.menuCommand(ctx, s, msg)
}

func (b *Bot) logoutCommand(ctx context.Context, s *session.Session) {
	s.Logout()
	b.send(ctx, s.ChatID, "🚪 You're out. Don't let the door hit you.", mainMenuKeyboard())
}

func (b *Bot) menuCommand(ctx context.Context, s *session.Session, msg *telegram.Message) {
	if !b.ensureLoggedIn(ctx, s, senderID(msg)) {
		b.send(ctx, s.ChatID, loginFirstText, mainMenuKeyboard())
		return
	}
	b.send(ctx, s.ChatID,
		fmt.Sprintf("Yo %s! What's the plan?", senderName(msg)),
		dashboardKeyboard())
}

func settingsText(s *session.Session) string {
	workflow := s.WorkflowName
	if workflow == "" {
		workflow = "None"
	}
	timezone := s.Timezone
	if timezone == "" {
		timezone = "UTC"
	}
	return fmt.Sprintf(
		"⚙️ <b>SETTINGS</b>\n\n"+
			"👤 <b>User:</b> %s\n"+
			"🏢 <b>Workflow:</b> %s\n"+
			"🕒 <b>Timezone:</b> %s\n\n"+
			"What do you want to change?",
		s.Email, workflow, timezone)
}

func (b *Bot) settingsCommand(ctx context.Context, s *session.Session, msg *telegram.Message) {
	if !b.ensureLoggedIn(ctx, s, senderID(msg)) {
		b.send(ctx, s.ChatID, loginFirstText, mainMenuKeyboard())
		return
	}
	b.send(ctx, s.ChatID, settingsText(s), settingsKeyboard())
}

func (b *Bot) setWorkflowCommand(ctx context.Context, s *session.Session, msg *telegram.Message) {
	if !b.ensureLoggedIn(ctx, s, senderID(msg)) {
		b.send(ctx, s.ChatID, loginFirstText, mainMenuKeyboard())
		return
	}

	workflows, err := b.users.Workflows(ctx, s.UserID)
	if err != nil {
		b.log.Error("workflow list for %s failed: %v", s.UserID, err)
		b.send(ctx, s.ChatID, wentWrongText, mainMenuKeyboard())
		return
	}
	if len(workflows) == 0 {
		b.send(ctx, s.ChatID, "You don't have any workflows. Go create one in the app first.", mainMenuKeyboard())
		return
	}

	b.send(ctx, s.ChatID, pickWorkflowText, workflowKeyboard(workflows))
}

// processTurn runs one text utterance through the orchestrator and renders
// the outcome: either plain prose or a confirmation request with buttons.
func (b *Bot) processTurn(ctx context.Context, s *session.Session, text string) {
	if err := b.api.SendChatAction(ctx, s.ChatID, "typing"); err != nil {
		b.log.Debug("sendChatAction failed: %v", err)
	}

	res, err := b.orch.Respond(ctx, text, s)
	if err != nil {
		b.log.Error("turn failed for chat %d: %v", s.ChatID, err)
		b.send(ctx, s.ChatID, wentWrongText, mainMenuKeyboard())
		return
	}

	if res.ConfirmationNeeded {
		prompt := b.gate.Propose(s, FormatText(res.Text), res.Action, res.Args)
		b.send(ctx, s.ChatID, prompt, confirmationKeyboard())
		return
	}

	b.send(ctx, s.ChatID, FormatText(res.Text), mainMenuKeyboard())
}

func (b *Bot) handleVoice(ctx context.Context, s *session.Session, msg *telegram.Message) {
	if !b.ensureLoggedIn(ctx, s, senderID(msg)) {
		b.send(ctx, s.ChatID, whoAreYouText, mainMenuKeyboard())
		return
	}
	if b.voice == nil {
		b.send(ctx, s.ChatID, cantHearText, mainMenuKeyboard())
		return
	}

	if err := b.api.SendChatAction(ctx, s.ChatID, "typing"); err != nil {
		b.log.Debug("sendChatAction failed: %v", err)
	}

	text, err := b.transcribeVoice(ctx, msg.Voice)
	if err != nil || text == "" {
		b.log.Warn("voice turn for chat %d failed: %v", s.ChatID, err)
		b.send(ctx, s.ChatID, cantHearText, mainMenuKeyboard())
		return
	}

	b.send(ctx, s.ChatID, fmt.Sprintf("🎤 You said: \"%s\"", text), mainMenuKeyboard())
	b.processTurn(ctx, s, text)
}

func (b *Bot) transcribeVoice(ctx context.Context, voice *telegram.Voice) (string, error) {
	file, err := b.api.GetFile(ctx, voice.FileID)
	if err != nil {
		return "", fmt.Errorf("resolve voice file: %w", err)
	}

	body, err := b.api.DownloadFile(ctx, file.FilePath)
	if err != nil {
		return "", fmt.Errorf("download voice file: %w", err)
	}
	defer body.Close()

	return b.voice.Transcribe(ctx, body, "voice.ogg")
}

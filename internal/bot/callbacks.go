package bot

import (
	"context"
	"fmt"
	"strings"

	"github.com/Seka35/visual-crm/internal/session"
	"github.com/Seka35/visual-crm/internal/telegram"
)

func (b *Bot) handleCallback(ctx context.Context, query *telegram.CallbackQuery) {
	if err := b.api.AnswerCallbackQuery(ctx, query.ID); err != nil {
		b.log.Debug("answerCallbackQuery failed: %v", err)
	}
	if query.Message == nil {
		return
	}

	chatID := query.Message.Chat.ID
	messageID := query.Message.MessageID
	s := b.sessions.Get(chatID)
	s.LockTurn()
	defer s.UnlockTurn()
	defer b.sessions.Save(s)

	b.log.Debug("button %q pressed in chat %d", query.Data, chatID)

	if !b.ensureLoggedIn(ctx, s, query.From.ID) {
		b.edit(ctx, chatID, messageID, "Session expired. Please /login again.", nil)
		return
	}

	data := query.Data

	switch {
	case strings.HasPrefix(data, cbWorkflowPrefix):
		b.selectWorkflow(ctx, s, chatID, messageID, strings.TrimPrefix(data, cbWorkflowPrefix))
		return
	case strings.HasPrefix(data, cbTimezonePrefix):
		b.selectTimezone(ctx, s, chatID, messageID, strings.TrimPrefix(data, cbTimezonePrefix))
		return
	}

	switch data {
	case cbConfirmAction:
		res := b.gate.Confirm(ctx, s)
		b.edit(ctx, chatID, messageID, res.Text, nil)

	case cbCancelAction:
		res := b.gate.Cancel(s)
		b.edit(ctx, chatID, messageID, res.Text, nil)

	case cbModifyAction:
		res := b.gate.Modify(s)
		b.edit(ctx, chatID, messageID, res.Text, nil)

	case cbSettingsMenu, cbBackToSettings:
		b.edit(ctx, chatID, messageID, settingsText(s), settingsKeyboard())

	case cbMainMenu:
		b.edit(ctx, chatID, messageID, RandomGreeting(), dashboardKeyboard())

	case cbSetWorkflow:
		b.showWorkflowPicker(ctx, s, chatID, messageID)

	case cbSetTimezone:
		b.edit(ctx, chatID, messageID, "Pick a timezone:", timezoneKeyboard())

	case cbLogout:
		s.Logout()
		b.edit(ctx, chatID, messageID, "🚪 You're out. Don't let the door hit you.", nil)

	case cbGetTasks:
		b.processTurn(ctx, s, "Show me my tasks")
	case cbGetDeals:
		b.processTurn(ctx, s, "Show me my deals")
	case cbGetContacts:
		b.processTurn(ctx, s, "Show me my contacts")

	case cbAddContactPrompt:
		b.edit(ctx, chatID, messageID, "Fine. Send me the contact details (Name, Company, etc.).", nil)

	default:
		b.log.Warn("unknown callback %q in chat %d", data, chatID)
	}
}

// selectWorkflow parses "<id>_<name>" from the callback payload. The
// sentinel id selects the private partition.
func (b *Bot) selectWorkflow(ctx context.Context, s *session.Session, chatID, messageID int64, payload string) {
	id, name, found := strings.Cut(payload, "_")
	if !found {
		b.log.Warn("malformed workflow callback %q", payload)
		return
	}
	if id == privateWorkflowID {
		id = ""
	}

	s.SetWorkflow(id, name)
	b.edit(ctx, chatID, messageID, fmt.Sprintf("✅ Workflow set to: <b>%s</b>", name), nil)
}

func (b *Bot) selectTimezone(ctx context.Context, s *session.Session, chatID, messageID int64, timezone string) {
	if err := b.users.UpdateUserTimezone(ctx, s.UserID, timezone); err != nil {
		b.log.Error("timezone update for %s failed: %v", s.UserID, err)
		b.edit(ctx, chatID, messageID, wentWrongText, nil)
		return
	}
	s.SetTimezone(timezone)
	b.edit(ctx, chatID, messageID, fmt.Sprintf("✅ Timezone set to: <b>%s</b>", timezone), nil)
}

func (b *Bot) showWorkflowPicker(ctx context.Context, s *session.Session, chatID, messageID int64) {
	workflows, err := b.users.Workflows(ctx, s.UserID)
	if err != nil {
		b.log.Error("workflow list for %s failed: %v", s.UserID, err)
		b.edit(ctx, chatID, messageID, wentWrongText, nil)
		return
	}
	b.edit(ctx, chatID, messageID, pickWorkflowText, workflowKeyboard(workflows))
}

package bot

import (
	"fmt"

	"github.com/Seka35/visual-crm/internal/crm"
	"github.com/Seka35/visual-crm/internal/telegram"
)

// Callback data values routed by handleCallback.
const (
	cbConfirmAction    = "confirm_action"
	cbCancelAction     = "cancel_action"
	cbModifyAction     = "modify_action"
	cbSettingsMenu     = "settings_menu"
	cbBackToSettings   = "back_to_settings"
	cbMainMenu         = "main_menu"
	cbSetWorkflow      = "set_workflow"
	cbSetTimezone      = "set_timezone"
	cbLogout           = "logout_action"
	cbGetTasks         = "get_tasks"
	cbGetDeals         = "get_deals"
	cbGetContacts      = "get_contacts"
	cbAddContactPrompt = "add_contact_prompt"

	cbWorkflowPrefix = "select_workflow_"
	cbTimezonePrefix = "tz_"

	// Sentinel id in workflow callbacks for the private partition.
	privateWorkflowID = "None"
)

var timezoneChoices = []string{
	"UTC",
	"Europe/Paris",
	"America/New_York",
	"Asia/Tokyo",
	"Australia/Sydney",
}

// mainMenuKeyboard is the persistent reply keyboard below the input field.
func mainMenuKeyboard() *telegram.ReplyKeyboardMarkup {
	return &telegram.ReplyKeyboardMarkup{
		Keyboard: [][]telegram.KeyboardButton{
			{{Text: "⚙️ Menu"}},
		},
		ResizeKeyboard: true,
	}
}

// dashboardKeyboard is the inline dashboard with CRM shortcuts.
func dashboardKeyboard() *telegram.InlineKeyboardMarkup {
	return &telegram.InlineKeyboardMarkup{
		InlineKeyboard: [][]telegram.InlineKeyboardButton{
			{
				{Text: "📝 My Tasks", CallbackData: cbGetTasks},
				{Text: "💰 My Deals", CallbackData: cbGetDeals},
			},
			{
				{Text: "👥 Contacts", CallbackData: cbGetContacts},
				{Text: "➕ Add Contact", CallbackData: cbAddContactPrompt},
			},
			{
				{Text: "⚙️ Settings", CallbackData: cbSettingsMenu},
			},
		},
	}
}

// confirmationKeyboard offers confirm / cancel / modify for a staged
// mutation.
func confirmationKeyboard() *telegram.InlineKeyboardMarkup {
	return &telegram.InlineKeyboardMarkup{
		InlineKeyboard: [][]telegram.InlineKeyboardButton{
			{
				{Text: "✅ Confirm", CallbackData: cbConfirmAction},
				{Text: "❌ Cancel", CallbackData: cbCancelAction},
			},
			{
				{Text: "✏️ Modify", CallbackData: cbModifyAction},
			},
		},
	}
}

func settingsKeyboard() *telegram.InlineKeyboardMarkup {
	return &telegram.InlineKeyboardMarkup{
		InlineKeyboard: [][]telegram.InlineKeyboardButton{
			{{Text: "🔄 Switch Workflow", CallbackData: cbSetWorkflow}},
			{{Text: "🕒 Change Timezone", CallbackData: cbSetTimezone}},
			{{Text: "🔙 Back", CallbackData: cbMainMenu}},
			{{Text: "🚪 Logout", CallbackData: cbLogout}},
		},
	}
}

func timezoneKeyboard() *telegram.InlineKeyboardMarkup {
	rows := make([][]telegram.InlineKeyboardButton, 0, len(timezoneChoices)+1)
	for _, tz := range timezoneChoices {
		rows = append(rows, []telegram.InlineKeyboardButton{
			{Text: tz, CallbackData: cbTimezonePrefix + tz},
		})
	}
	rows = append(rows, []telegram.InlineKeyboardButton{
		{Text: "🔙 Back", CallbackData: cbBackToSettings},
	})
	return &telegram.InlineKeyboardMarkup{InlineKeyboard: rows}
}

// workflowKeyboard lists the private partition first, then every workflow
// the user belongs to.
func workflowKeyboard(workflows []crm.Record) *telegram.InlineKeyboardMarkup {
	rows := [][]telegram.InlineKeyboardButton{
		{{Text: "🏠 MY TURF (Private)", CallbackData: fmt.Sprintf("%s%s_MY TURF", cbWorkflowPrefix, privateWorkflowID)}},
	}
	for _, w := range workflows {
		name := w.String("name")
		rows = append(rows, []telegram.InlineKeyboardButton{
			{Text: name, CallbackData: fmt.Sprintf("%s%s_%s", cbWorkflowPrefix, w.ID(), name)},
		})
	}
	rows = append(rows, []telegram.InlineKeyboardButton{
		{Text: "🔙 Back", CallbackData: cbBackToSettings},
	})
	return &telegram.InlineKeyboardMarkup{InlineKeyboard: rows}
}

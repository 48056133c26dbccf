package tools

func stringProp(description string) map[string]interface{} {
	return map[string]interface{}{"type": "string", "description": description}
}

func objectProp(description string) map[string]interface{} {
	return map[string]interface{}{"type": "object", "description": description}
}

// catalog is the full tool surface offered to the model. Read tools list
// records; mutating tools are gated behind user confirmation.
var catalog = []Definition{
	// Contacts
	{
		Name:        "add_contact",
		Description: "Add a new contact to the CRM",
		Properties: map[string]interface{}{
			"name":    stringProp("Full name of the contact"),
			"company": stringProp("Company name"),
			"role":    stringProp("Job title or role"),
			"email":   stringProp("Email address"),
			"phone":   stringProp("Phone number"),
		},
		Required: []string{"name"},
		Mutating: true,
	},
	{
		Name:        "update_contact",
		Description: "Update an existing contact's information",
		Properties: map[string]interface{}{
			"contact_id": stringProp("The ID of the contact to update"),
			"updates":    objectProp("Dictionary of fields to update (e.g. {'email': 'new@example.com'})"),
		},
		Required: []string{"contact_id", "updates"},
		Mutating: true,
	},
	{
		Name:        "delete_contact",
		Description: "Delete a contact by ID",
		Properties: map[string]interface{}{
			"contact_id": stringProp("The ID of the contact to delete"),
		},
		Required: []string{"contact_id"},
		Mutating: true,
	},
	{
		Name:        "get_contacts",
		Description: "Get list of contacts",
		Properties:  map[string]interface{}{},
	},

	// Deals
	{
		Name:        "add_deal",
		Description: "Add a new deal to the CRM",
		Properties: map[string]interface{}{
			"title":      stringProp("Title of the deal"),
			"amount":     map[string]interface{}{"type": "number", "description": "Deal amount in dollars"},
			"status":     stringProp("Pipeline status (e.g. 'Lead', 'Negotiation', 'Closed Won')"),
			"contact_id": stringProp("Optional ID of the contact associated with the deal"),
		},
		Required: []string{"title"},
		Mutating: true,
	},
	{
		Name:        "update_deal",
		Description: "Update an existing deal's information",
		Properties: map[string]interface{}{
			"deal_id": stringProp("The ID of the deal to update"),
			"updates": objectProp("Dictionary of fields to update (e.g. {'status': 'Closed Won', 'amount': 15000})"),
		},
		Required: []string{"deal_id", "updates"},
		Mutating: true,
	},
	{
		Name:        "delete_deal",
		Description: "Delete a deal by ID",
		Properties: map[string]interface{}{
			"deal_id": stringProp("The ID of the deal to delete"),
		},
		Required: []string{"deal_id"},
		Mutating: true,
	},
	{
		Name:        "get_deals",
		Description: "Get list of deals",
		Properties:  map[string]interface{}{},
	},

	// Tasks
	{
		Name:        "add_task",
		Description: "Add a new task to the CRM",
		Properties: map[string]interface{}{
			"title":       stringProp("Title of the task"),
			"due_date":    stringProp("Due date and time of the task (YYYY-MM-DD HH:MM). If no time is specified, default to 09:00."),
			"contact_id":  stringProp("Optional ID of the contact associated with the task"),
			"description": stringProp("Detailed description of the task"),
		},
		Required: []string{"title"},
		Mutating: true,
	},
	{
		Name:        "update_task",
		Description: "Update a task (mark as done, change title, etc.)",
		Properties: map[string]interface{}{
			"task_id": stringProp("The ID of the task"),
			"updates": objectProp("Dictionary of fields to update (e.g. {'completed': true, 'title': 'New Title'})"),
		},
		Required: []string{"task_id", "updates"},
		Mutating: true,
	},
	{
		Name:        "delete_task",
		Description: "Delete a task by ID",
		Properties: map[string]interface{}{
			"task_id": stringProp("The ID of the task to delete"),
		},
		Required: []string{"task_id"},
		Mutating: true,
	},
	{
		Name:        "get_tasks",
		Description: "Get list of pending tasks (not completed)",
		Properties:  map[string]interface{}{},
	},

	// Debts
	{
		Name:        "add_debt",
		Description: "Record money lent to someone",
		Properties: map[string]interface{}{
			"borrower_name": stringProp("Who owes the money"),
			"amount_lent":   map[string]interface{}{"type": "number", "description": "Amount lent in dollars"},
			"due_date":      stringProp("When the debt is due (YYYY-MM-DD)"),
		},
		Required: []string{"borrower_name", "amount_lent"},
		Mutating: true,
	},
	{
		Name:        "update_debt",
		Description: "Update an existing debt's information",
		Properties: map[string]interface{}{
			"debt_id": stringProp("The ID of the debt to update"),
			"updates": objectProp("Dictionary of fields to update (e.g. {'amount_lent': 500, 'paid': true})"),
		},
		Required: []string{"debt_id", "updates"},
		Mutating: true,
	},
	{
		Name:        "delete_debt",
		Description: "Delete a debt",
		Properties: map[string]interface{}{
			"debt_id": stringProp("The ID of the debt to delete"),
		},
		Required: []string{"debt_id"},
		Mutating: true,
	},
	{
		Name:        "get_debts",
		Description: "Get list of debts",
		Properties:  map[string]interface{}{},
	},

	// Events
	{
		Name:        "add_event",
		Description: "Add a calendar event",
		Properties: map[string]interface{}{
			"title":      stringProp("Title of the event"),
			"start_time": stringProp("Start date and time (YYYY-MM-DD HH:MM)"),
			"end_time":   stringProp("End date and time (YYYY-MM-DD HH:MM)"),
			"location":   stringProp("Where the event takes place"),
		},
		Required: []string{"title", "start_time"},
		Mutating: true,
	},
	{
		Name:        "update_event",
		Description: "Update an existing event",
		Properties: map[string]interface{}{
			"event_id": stringProp("The ID of the event to update"),
			"updates":  objectProp("Dictionary of fields to update (e.g. {'start_time': '2026-09-01 10:00'})"),
		},
		Required: []string{"event_id", "updates"},
		Mutating: true,
	},
	{
		Name:        "delete_event",
		Description: "Delete an event by ID",
		Properties: map[string]interface{}{
			"event_id": stringProp("The ID of the event to delete"),
		},
		Required: []string{"event_id"},
		Mutating: true,
	},
	{
		Name:        "get_events",
		Description: "Get list of upcoming events",
		Properties:  map[string]interface{}{},
	},
}

package crm

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
)

// User linkage and workflow lookups live outside the generic collection
// contract: they operate on identity, not CRM records.

// UserByTelegramID fetches the CRM user linked to a Telegram chat, or nil
// when no user is linked.
func (c *Client) UserByTelegramID(ctx context.Context, telegramID int64) (Record, error) {
	query := url.Values{}
	query.Set("select", "*")
	query.Set("telegram_chat_id", "eq."+strconv.FormatInt(telegramID, 10))

	var users []Record
	if err := c.do(ctx, http.MethodGet, "users", query, nil, &users); err != nil {
		return nil, fmt.Errorf("lookup user by telegram id: %w", err)
	}
	if len(users) == 0 {
		return nil, nil
	}
	return users[0], nil
}

// ErrUserNotFound is returned when a login email does not match any CRM user.
var ErrUserNotFound = fmt.Errorf("no user found with this email")

// LinkTelegramUser attaches a Telegram chat id to the CRM user with the
// given email and returns that user.
func (c *Client) LinkTelegramUser(ctx context.Context, email string, telegramID int64) (Record, error) {
	query := url.Values{}
	query.Set("select", "*")
	query.Set("email", "eq."+email)

	var users []Record
	if err := c.do(ctx, http.MethodGet, "users", query, nil, &users); err != nil {
		return nil, fmt.Errorf("lookup user by email: %w", err)
	}
	if len(users) == 0 {
		return nil, ErrUserNotFound
	}

	user := users[0]
	update := url.Values{}
	update.Set("id", "eq."+user.ID())
	patch := Record{"telegram_chat_id": telegramID}
	if err := c.do(ctx, http.MethodPatch, "users", update, patch, nil); err != nil {
		return nil, fmt.Errorf("link telegram user: %w", err)
	}
	return user, nil
}

// UpdateUserTimezone stores a user's preferred timezone.
func (c *Client) UpdateUserTimezone(ctx context.Context, userID, timezone string) error {
	query := url.Values{}
	query.Set("id", "eq."+userID)
	patch := Record{"timezone": timezone}
	if err := c.do(ctx, http.MethodPatch, "users", query, patch, nil); err != nil {
		return fmt.Errorf("update timezone: %w", err)
	}
	return nil
}

// Workflows returns workflows the user created or is a member of,
// deduplicated by id.
func (c *Client) Workflows(ctx context.Context, userID string) ([]Record, error) {
	createdQuery := url.Values{}
	createdQuery.Set("select", "*")
	createdQuery.Set("creator_id", "eq."+userID)

	var created []Record
	if err := c.do(ctx, http.MethodGet, "workflows", createdQuery, nil, &created); err != nil {
		return nil, fmt.Errorf("list created workflows: %w", err)
	}

	memberQuery := url.Values{}
	memberQuery.Set("select", "workflow_id")
	memberQuery.Set("user_id", "eq."+userID)

	var memberships []Record
	if err := c.do(ctx, http.MethodGet, "workflow_members", memberQuery, nil, &memberships); err != nil {
		return nil, fmt.Errorf("list workflow memberships: %w", err)
	}

	workflows := created
	seen := make(map[string]bool, len(workflows))
	for _, w := range workflows {
		seen[w.ID()] = true
	}

	var memberIDs []string
	for _, m := range memberships {
		if id := m.String("workflow_id"); id != "" && !seen[id] {
			memberIDs = append(memberIDs, id)
		}
	}

	if len(memberIDs) > 0 {
		joinQuery := url.Values{}
		joinQuery.Set("select", "*")
		joinQuery.Set("id", "in.("+joinIDs(memberIDs)+")")

		var memberWorkflows []Record
		if err := c.do(ctx, http.MethodGet, "workflows", joinQuery, nil, &memberWorkflows); err != nil {
			return nil, fmt.Errorf("list member workflows: %w", err)
		}
		for _, w := range memberWorkflows {
			if !seen[w.ID()] {
				seen[w.ID()] = true
				workflows = append(workflows, w)
			}
		}
	}

	return workflows, nil
}

func joinIDs(ids []string) string {
	out := ""
	for i, id := range ids {
		if i > 0 {
			out += ","
		}
		out += id
	}
	return out
}

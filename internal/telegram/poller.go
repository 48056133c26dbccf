package telegram

import (
	"context"
	"errors"
	"time"

	"github.com/Seka35/visual-crm/internal/consts"
	"github.com/Seka35/visual-crm/internal/logger"
)

// Handler processes one update. Updates for different chats may be handled
// concurrently; updates within a chat arrive in order.
type Handler func(ctx context.Context, update Update)

// Poller drives the bot through getUpdates long polling.
type Poller struct {
	client  *Client
	handler Handler
	log     *logger.Logger
}

// NewPoller creates a poller dispatching to handler.
func NewPoller(client *Client, handler Handler) *Poller {
	return &Poller{
		client:  client,
		handler: handler,
		log:     logger.Global().WithPrefix("poller"),
	}
}

// Run polls until the context is cancelled. Transient API errors back off
// and retry; they never stop the loop.
func (p *Poller) Run(ctx context.Context) error {
	var offset int64
	for {
		updates, err := p.client.GetUpdates(ctx, offset, consts.LongPollSeconds)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, context.Canceled) {
				return ctx.Err()
			}
			p.log.Warn("getUpdates failed, retrying: %v", err)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(consts.Timeout5Seconds):
			}
			continue
		}

		for _, update := range updates {
			if update.UpdateID >= offset {
				offset = update.UpdateID + 1
			}
			p.handler(ctx, update)
		}
	}
}

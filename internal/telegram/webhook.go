package telegram

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/julienschmidt/httprouter"

	"github.com/Seka35/visual-crm/internal/logger"
)

// Webhook receives pushed updates when the bot runs in webhook mode
// instead of long polling.
type Webhook struct {
	handler Handler
	server  *http.Server
	log     *logger.Logger
}

// NewWebhook creates a webhook server listening on addr. The secret path
// segment keeps third parties from posting forged updates; use the bot
// token or a random string.
func NewWebhook(addr, secret string, handler Handler) *Webhook {
	w := &Webhook{
		handler: handler,
		log:     logger.Global().WithPrefix("webhook"),
	}

	router := httprouter.New()
	router.POST("/telegram/:secret", w.receive(secret))
	router.GET("/healthz", func(rw http.ResponseWriter, _ *http.Request, _ httprouter.Params) {
		rw.WriteHeader(http.StatusOK)
	})

	w.server = &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return w
}

func (w *Webhook) receive(secret string) httprouter.Handle {
	return func(rw http.ResponseWriter, req *http.Request, ps httprouter.Params) {
		if ps.ByName("secret") != secret {
			http.Error(rw, "not found", http.StatusNotFound)
			return
		}

		var update Update
		if err := json.NewDecoder(req.Body).Decode(&update); err != nil {
			w.log.Warn("discarding malformed update: %v", err)
			http.Error(rw, "bad request", http.StatusBadRequest)
			return
		}

		w.handler(req.Context(), update)
		rw.WriteHeader(http.StatusOK)
	}
}

// Handler exposes the underlying HTTP handler (for testing).
func (w *Webhook) Handler() http.Handler {
	return w.server.Handler
}

// ListenAndServe blocks serving updates until Shutdown.
func (w *Webhook) ListenAndServe() error {
	w.log.Info("webhook listening on %s", w.server.Addr)
	return w.server.ListenAndServe()
}

// Shutdown stops the server gracefully.
func (w *Webhook) Shutdown(ctx context.Context) error {
	return w.server.Shutdown(ctx)
}

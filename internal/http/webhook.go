package http

import (
	"context"
	"errors"
	"io"
	"net/http"

	applog "chatledger/internal/log"
	"chatledger/internal/telegram"
)

// handleWebhook processes one Telegram update. Only a storage failure makes
// it answer 500, so Telegram redelivers just that update; delivery failures
// of the reply are logged and acknowledged.
func (s *Server) handleWebhook(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := applog.FromContext(ctx).WithComponent(applog.ComponentWebhook)

	if !validSecret(r, s.deps.WebhookSecret) {
		logger.WarnContext(ctx, "Webhook secret mismatch",
			"error_type", applog.ErrorTypeAuth,
			applog.FieldClientIP, extractClientIP(r))
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxUpdateBytes))
	if err != nil {
		logger.WarnContext(ctx, "Failed to read update", applog.FieldError, err)
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}
	update, err := telegram.DecodeUpdate(body)
	if err != nil {
		logger.WarnContext(ctx, "Malformed update", applog.FieldError, err)
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}

	msg, ok := update.ChatMessage()
	if !ok {
		logger.DebugContext(ctx, "Update without message ignored", applog.FieldUpdateID, update.UpdateID)
		writeOK(w)
		return
	}

	logger = logger.With(applog.FieldChatID, msg.ChatID, applog.FieldUpdateID, update.UpdateID)
	ctx = applog.NewContext(ctx, logger)

	reply, err := s.deps.Handler.Handle(ctx, msg)
	if err != nil {
		logger.ErrorContext(ctx, "Failed to handle message",
			"error_type", applog.ErrorTypeDatabase,
			applog.FieldError, err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	if reply.Text != "" && s.deps.Sender != nil {
		// The reply goes out even if Telegram hangs up on the webhook call.
		sendCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), sendTimeout)
		err := s.deps.Sender.SendMessage(sendCtx, msg.ChatID, reply.Text, reply.Choices)
		cancel()
		if err != nil {
			errType := applog.ErrorTypeNetwork
			if !errors.Is(err, telegram.ErrTransport) {
				errType = "unknown"
			}
			logger.WarnContext(ctx, "Failed to send reply",
				applog.FieldOperation, applog.OpSend,
				"error_type", errType,
				applog.FieldError, err)
		}
	}

	writeOK(w)
}

func writeOK(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"ok":true}`))
}

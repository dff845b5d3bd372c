package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"scoregate/core"
	"scoregate/signature"
	"scoregate/token"
)

const (
	headerEvent    = "X-GitHub-Event"
	headerDelivery = "X-GitHub-Delivery"
)

func (a *api) handleIndex(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "message": "scoregate running"})
}

// handleWebhook verifies the raw body before decoding anything from it.
func (a *api) handleWebhook(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, a.opts.MaxWebhookBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "payload too large", nil)
			return
		}
		writeError(w, http.StatusBadRequest, "unreadable body", nil)
		return
	}

	eventType := r.Header.Get(headerEvent)
	if eventType == "" {
		eventType = "unknown"
	}
	deliveryID := r.Header.Get(headerDelivery)
	sig := r.Header.Get(signature.Header)

	if !a.verifier.Verify(body, sig) {
		a.logger.Warn("webhook signature rejected",
			"event", eventType, "delivery", deliveryID, "request_id", RequestID(r.Context()))
		a.svc.RejectWebhook(r.Context(), eventType, deliveryID)
		writeError(w, http.StatusUnauthorized, "invalid signature", nil)
		return
	}

	var payload any
	if err := json.Unmarshal(body, &payload); err != nil {
		payload = nil
	}
	a.svc.AcceptWebhook(r.Context(), core.WebhookEvent{
		EventType:       eventType,
		DeliveryID:      deliveryID,
		ContentType:     r.Header.Get("Content-Type"),
		SignatureHeader: sig,
		RawBody:         body,
		Payload:         payload,
	})
	a.logger.Info("webhook accepted", "event", eventType, "delivery", deliveryID, "bytes", len(body))
	w.WriteHeader(http.StatusNoContent)
}

func (a *api) handleJWT(w http.ResponseWriter, r *http.Request) {
	appID, err := token.ParseAppID(a.opts.AppID)
	if err != nil {
		reason := token.ErrMissingAppID
		if errors.Is(err, token.ErrInvalidAppID) {
			reason = token.ErrInvalidAppID
		}
		writeError(w, http.StatusBadRequest, reason.Error(), nil)
		return
	}
	cred, err := a.issuer.Issue(appID, a.opts.PrivateKeyPath)
	if err != nil {
		var keyErr *token.KeyError
		if errors.As(err, &keyErr) {
			a.logger.Warn("credential issuance failed", "reason", keyErr.Err.Error(), "path", keyErr.Path)
			writeError(w, http.StatusBadRequest, keyErr.Err.Error(), map[string]any{"path": keyErr.Path})
			return
		}
		a.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"jwt": cred.Token})
}

// handleSubmit requires a JSON object with both name and score keys. The
// values themselves are coerced, never rejected.
func (a *api) handleSubmit(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxSubmitBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid payload", nil)
		return
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil {
		writeError(w, http.StatusBadRequest, "invalid payload", nil)
		return
	}
	rawName, hasName := fields["name"]
	rawScore, hasScore := fields["score"]
	if !hasName || !hasScore {
		writeError(w, http.StatusBadRequest, "invalid payload", nil)
		return
	}

	entry := core.ScoreEntry{
		Name:  core.CoerceName(rawName, a.svc.NameLimit()),
		Score: core.CoerceScore(rawScore),
	}
	if err := a.svc.Submit(r.Context(), entry); err != nil {
		a.logger.Error("score submission failed", "error", err, "request_id", RequestID(r.Context()))
		writeError(w, http.StatusInternalServerError, "failed to save", nil)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"ok": true})
}

func (a *api) handleScores(w http.ResponseWriter, r *http.Request) {
	entries, err := a.svc.List(r.Context())
	if err != nil {
		a.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

// handleHealth verifies the backing store is reachable.
func (a *api) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := map[string]any{
		"status": "healthy",
		"checks": map[string]any{
			"storage":   "ok",
			"signature": a.verifierMode(),
		},
	}
	code := http.StatusOK
	if err := a.svc.Ping(r.Context()); err != nil {
		a.logger.Warn("health check failed", "error", err)
		code = http.StatusServiceUnavailable
		status["status"] = "unhealthy"
		status["checks"].(map[string]any)["storage"] = "failed"
	}
	writeJSON(w, code, status)
}

func (a *api) verifierMode() string {
	if a.verifier.Enabled() {
		return "enforced"
	}
	return "open"
}

func (a *api) handleStats(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, a.opts.Stats.Snapshot())
}

// writeServiceError maps the core error taxonomy onto HTTP statuses.
func (a *api) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, core.ErrAuthentication):
		writeError(w, http.StatusUnauthorized, "unauthorized", nil)
	case errors.Is(err, core.ErrValidation):
		writeError(w, http.StatusBadRequest, "invalid payload", nil)
	case errors.Is(err, core.ErrConfiguration):
		writeError(w, http.StatusBadRequest, "misconfigured", nil)
	default:
		a.logger.Error("request failed", "path", r.URL.Path, "error", err, "request_id", RequestID(r.Context()))
		writeError(w, http.StatusInternalServerError, "internal error", nil)
	}
}

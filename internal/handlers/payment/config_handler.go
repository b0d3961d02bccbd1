package payment

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/uzpos/payment-service/internal/domain"
	"github.com/uzpos/payment-service/internal/domain/ports"
)

// pathGateway parses the {gateway} path segment.
func (h *Handler) pathGateway(w http.ResponseWriter, r *http.Request) (domain.GatewayKind, bool) {
	kind, err := domain.ParseGatewayKind(chi.URLParam(r, "gateway"))
	if err != nil {
		writeError(w, err)
		return "", false
	}
	return kind, true
}

func (h *Handler) getConfig(w http.ResponseWriter, r *http.Request) {
	kind, ok := h.pathGateway(w, r)
	if !ok {
		return
	}

	items, err := h.configs.GetAll(r.Context(), kind)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"config": items})
}

type setConfigBody struct {
	Value       string `json:"value" validate:"required"`
	Description string `json:"description"`
	Encrypt     bool   `json:"encrypt"`
}

func (h *Handler) setConfig(w http.ResponseWriter, r *http.Request) {
	kind, ok := h.pathGateway(w, r)
	if !ok {
		return
	}
	key := chi.URLParam(r, "key")

	var body setConfigBody
	if !h.decode(w, r, &body) {
		return
	}

	if err := h.configs.Set(r.Context(), kind, key, body.Value, body.Description, body.Encrypt); err != nil {
		writeError(w, err)
		return
	}

	h.logger.Info("gateway config key set via admin API",
		ports.String("gateway", string(kind)),
		ports.String("key", key))
	writeJSON(w, http.StatusOK, map[string]string{"status": "updated"})
}

func (h *Handler) validateConfig(w http.ResponseWriter, r *http.Request) {
	kind, ok := h.pathGateway(w, r)
	if !ok {
		return
	}

	result, err := h.configs.Validate(r.Context(), kind)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *Handler) resetConfig(w http.ResponseWriter, r *http.Request) {
	kind, ok := h.pathGateway(w, r)
	if !ok {
		return
	}

	if err := h.configs.ResetToDefaults(r.Context(), kind); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "reset"})
}

func (h *Handler) reloadConfig(w http.ResponseWriter, r *http.Request) {
	kind, ok := h.pathGateway(w, r)
	if !ok {
		return
	}

	h.configs.Reload(kind)
	writeJSON(w, http.StatusOK, map[string]string{"status": "reloaded"})
}

func (h *Handler) testGateway(w http.ResponseWriter, r *http.Request) {
	kind, ok := h.pathGateway(w, r)
	if !ok {
		return
	}

	if err := h.payments.TestGateway(r.Context(), kind); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "reachable"})
}

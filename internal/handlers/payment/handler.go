// Package payment exposes the orchestrator and credential admin over HTTP.
// This layer is a thin shim for the POS frontend: decode, validate, call the
// service, encode. All business rules live below it.
package payment

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/uzpos/payment-service/internal/domain"
	"github.com/uzpos/payment-service/internal/domain/ports"
	"github.com/uzpos/payment-service/internal/services/payment"
	"github.com/uzpos/payment-service/pkg/timeutil"
)

// Handler serves the payment and credential-admin HTTP surface.
type Handler struct {
	payments *payment.Service
	configs  ports.ConfigStore
	validate *validator.Validate
	logger   ports.Logger
}

// NewHandler creates the HTTP handler.
func NewHandler(payments *payment.Service, configs ports.ConfigStore, logger ports.Logger) *Handler {
	return &Handler{
		payments: payments,
		configs:  configs,
		validate: validator.New(),
		logger:   logger,
	}
}

// Routes returns the router for the /api/v1 surface.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Route("/payments", func(r chi.Router) {
		r.Post("/", h.createPayment)
		r.Get("/", h.listTransactions)
		// Reversal is keyed by the merchant order id, the reference the POS
		// keeps for reconciliation; everything else uses the internal id.
		r.Route("/order/{orderID}", func(r chi.Router) {
			r.Get("/", h.getByOrderID)
			r.Post("/reverse", h.reversePayment)
		})
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", h.getTransaction)
			r.Get("/status", h.checkStatus)
			r.Post("/fiscalize", h.submitFiscalization)
			r.Post("/sale", h.linkSale)
		})
	})

	r.Route("/gateways/{gateway}", func(r chi.Router) {
		r.Get("/config", h.getConfig)
		r.Put("/config/{key}", h.setConfig)
		r.Post("/config/validate", h.validateConfig)
		r.Post("/config/reset", h.resetConfig)
		r.Post("/config/reload", h.reloadConfig)
		r.Post("/test", h.testGateway)
	})

	return r
}

// transactionView is the outbound transaction shape. Raw payloads and auth
// material stay server-side.
type transactionView struct {
	ID               string            `json:"id"`
	OrderID          string            `json:"order_id"`
	Gateway          string            `json:"gateway"`
	GatewayPaymentID string            `json:"gateway_payment_id,omitempty"`
	AmountMinor      int64             `json:"amount_minor"`
	Amount           string            `json:"amount"`
	Status           string            `json:"status"`
	Success          bool              `json:"success"`
	ErrorCode        string            `json:"error_code,omitempty"`
	ErrorMessage     string            `json:"error_message,omitempty"`
	RetryCount       int               `json:"retry_count"`
	TimeoutOccurred  bool              `json:"timeout_occurred"`
	EmployeeID       string            `json:"employee_id"`
	TerminalID       string            `json:"terminal_id,omitempty"`
	SaleID           *int64            `json:"sale_id,omitempty"`
	Metadata         map[string]string `json:"metadata,omitempty"`
	InitiatedAt      time.Time         `json:"initiated_at"`
	CompletedAt      *time.Time        `json:"completed_at,omitempty"`
}

func toView(t *domain.Transaction) transactionView {
	return transactionView{
		ID:               t.ID.String(),
		OrderID:          t.OrderID,
		Gateway:          string(t.Gateway),
		GatewayPaymentID: t.GatewayPaymentID,
		AmountMinor:      t.AmountMinor,
		Amount:           t.AmountMajor.StringFixed(2),
		Status:           string(t.Status),
		Success:          t.Status == domain.StatusSuccess,
		ErrorCode:        t.ErrorCode,
		ErrorMessage:     t.ErrorMessage,
		RetryCount:       t.RetryCount,
		TimeoutOccurred:  t.TimeoutOccurred,
		EmployeeID:       t.EmployeeID,
		TerminalID:       t.TerminalID,
		SaleID:           t.SaleID,
		Metadata:         t.Metadata,
		InitiatedAt:      t.InitiatedAt,
		CompletedAt:      t.CompletedAt,
	}
}

type createPaymentBody struct {
	Gateway    string `json:"gateway" validate:"required,oneof=fastpay clickpass paymeqr"`
	ScanCode   string `json:"scan_code" validate:"required"`
	Amount     string `json:"amount" validate:"required"`
	EmployeeID string `json:"employee_id" validate:"required"`
	TerminalID string `json:"terminal_id"`
}

func (h *Handler) createPayment(w http.ResponseWriter, r *http.Request) {
	var body createPaymentBody
	if !h.decode(w, r, &body) {
		return
	}

	amount, err := decimal.NewFromString(body.Amount)
	if err != nil {
		writeError(w, domain.NewDomainError(domain.ErrorCodeValidationAmountInvalid,
			"amount is not a valid decimal"))
		return
	}

	txn, err := h.payments.CreatePayment(r.Context(), payment.CreatePaymentRequest{
		Gateway:    body.Gateway,
		ScanCode:   body.ScanCode,
		Amount:     amount,
		EmployeeID: body.EmployeeID,
		TerminalID: body.TerminalID,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	// Declines and timeouts are outcomes, not HTTP errors: the POS shows the
	// operator what happened from the body.
	writeJSON(w, http.StatusOK, toView(txn))
}

type reversalBody struct {
	Reason      string `json:"reason" validate:"required"`
	RequestedBy string `json:"requested_by" validate:"required"`
	Amount      string `json:"amount"`
}

func (h *Handler) reversePayment(w http.ResponseWriter, r *http.Request) {
	var body reversalBody
	if !h.decode(w, r, &body) {
		return
	}

	req := payment.ReversalRequest{
		OrderID:     chi.URLParam(r, "orderID"),
		Reason:      body.Reason,
		RequestedBy: body.RequestedBy,
	}
	if body.Amount != "" {
		amount, err := decimal.NewFromString(body.Amount)
		if err != nil {
			writeError(w, domain.NewDomainError(domain.ErrorCodeValidationAmountInvalid,
				"amount is not a valid decimal"))
			return
		}
		req.Amount = &amount
	}

	rev, err := h.payments.ReversePayment(r.Context(), req)
	if err != nil && rev == nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"reversal_id":   rev.ID.String(),
		"status":        string(rev.Status),
		"error_code":    rev.ErrorCode,
		"error_message": rev.ErrorMessage,
	})
}

type fiscalizationBody struct {
	FiscalURL string `json:"fiscal_url" validate:"required,url"`
}

func (h *Handler) submitFiscalization(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}

	var body fiscalizationBody
	if !h.decode(w, r, &body) {
		return
	}

	fisc, err := h.payments.SubmitFiscalization(r.Context(), payment.FiscalizationRequest{
		TransactionID: id,
		FiscalURL:     body.FiscalURL,
	})
	if err != nil && fisc == nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"fiscalization_id": fisc.ID.String(),
		"status":           string(fisc.Status),
		"error_code":       fisc.ErrorCode,
		"error_message":    fisc.ErrorMessage,
	})
}

func (h *Handler) checkStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}

	result, err := h.payments.CheckStatus(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"gateway_code":       result.Code,
		"gateway_message":    result.Message,
		"gateway_payment_id": result.PaymentID,
		"success":            result.Success,
		"metadata":           result.Metadata,
	})
}

func (h *Handler) getTransaction(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}

	txn, err := h.payments.GetTransaction(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toView(txn))
}

func (h *Handler) getByOrderID(w http.ResponseWriter, r *http.Request) {
	txn, err := h.payments.GetTransactionByOrderID(r.Context(), chi.URLParam(r, "orderID"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toView(txn))
}

func (h *Handler) listTransactions(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	f := domain.TransactionFilter{
		Gateway:    domain.GatewayKind(q.Get("gateway")),
		Status:     domain.TransactionStatus(q.Get("status")),
		EmployeeID: q.Get("employee_id"),
		TerminalID: q.Get("terminal_id"),
	}
	if v := q.Get("from"); v != "" {
		t, err := parseRangeBound(v, false)
		if err != nil {
			writeError(w, domain.NewDomainError(domain.ErrorCodeValidationFailed,
				"from is not an RFC3339 time or a date"))
			return
		}
		f.From = t
	}
	if v := q.Get("to"); v != "" {
		t, err := parseRangeBound(v, true)
		if err != nil {
			writeError(w, domain.NewDomainError(domain.ErrorCodeValidationFailed,
				"to is not an RFC3339 time or a date"))
			return
		}
		f.To = t
	}
	if v := q.Get("limit"); v != "" {
		n, err := strconv.ParseInt(v, 10, 32)
		if err != nil {
			writeError(w, domain.NewDomainError(domain.ErrorCodeValidationFailed, "limit is not an integer"))
			return
		}
		f.Limit = int32(n)
	}
	if v := q.Get("offset"); v != "" {
		n, err := strconv.ParseInt(v, 10, 32)
		if err != nil {
			writeError(w, domain.NewDomainError(domain.ErrorCodeValidationFailed, "offset is not an integer"))
			return
		}
		f.Offset = int32(n)
	}

	txns, err := h.payments.ListTransactions(r.Context(), f)
	if err != nil {
		writeError(w, err)
		return
	}

	views := make([]transactionView, len(txns))
	for i, t := range txns {
		views[i] = toView(t)
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"transactions": views})
}

type linkSaleBody struct {
	SaleID int64 `json:"sale_id" validate:"required,gt=0"`
}

func (h *Handler) linkSale(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}

	var body linkSaleBody
	if !h.decode(w, r, &body) {
		return
	}

	if err := h.payments.LinkSale(r.Context(), id, body.SaleID); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "linked"})
}

// parseRangeBound accepts either an RFC3339 instant or a bare date for the
// list date filters. Instants are normalized to UTC, the zone transactions
// are stored in; a bare date covers the whole day, so a "from" bound snaps to
// midnight and a "to" bound to the end of the day.
func parseRangeBound(v string, end bool) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, v); err == nil {
		return timeutil.ToUTC(t), nil
	}
	t, err := time.Parse("2006-01-02", v)
	if err != nil {
		return time.Time{}, err
	}
	if end {
		return timeutil.EndOfDay(t), nil
	}
	return timeutil.StartOfDay(t), nil
}

// decode unmarshals and validates a JSON body, writing the error response
// itself on failure.
func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, domain.NewDomainError(domain.ErrorCodeValidationFailed, "malformed JSON body"))
		return false
	}
	if err := h.validate.Struct(dst); err != nil {
		writeError(w, domain.WrapError(domain.ErrorCodeValidationFailed, "request validation failed", err))
		return false
	}
	return true
}

func (h *Handler) pathID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, domain.NewDomainError(domain.ErrorCodeValidationFailed, "id is not a UUID"))
		return uuid.Nil, false
	}
	return id, true
}

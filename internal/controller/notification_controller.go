// internal/controller/notification_controller.go
package controller

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	appErrors "github.com/unclebandit/agency-notifier/internal/errors"
	"github.com/unclebandit/agency-notifier/internal/service"
)

type Scanner interface {
	Run(ctx context.Context, test bool) (*service.Result, error)
}

type PaymentNotifier interface {
	Notify(ctx context.Context, paymentID string, test bool) (*service.Result, error)
}

type StatusNotifier interface {
	Notify(ctx context.Context, ch service.OrderStatusChange) (*service.Result, error)
}

// NotificationController exposes the detectors as HTTP triggers.
type NotificationController struct {
	DeliveryDelay Scanner
	PaymentDelay  Scanner
	NewPayment    PaymentNotifier
	OrderStatus   StatusNotifier
	Log           zerolog.Logger
}

// Routes registers the trigger endpoints under /notifications.
func (c *NotificationController) Routes(r chi.Router) {
	r.Post("/delivery-delay", c.DeliveryDelayCheck)
	r.Post("/payment-delay", c.PaymentDelayCheck)
	r.Post("/new-payment", c.NewPaymentNotify)
	r.Post("/order-status", c.OrderStatusNotify)
}

type testBody struct {
	Test bool `json:"test"`
}

func (c *NotificationController) DeliveryDelayCheck(w http.ResponseWriter, r *http.Request) {
	var body testBody
	if !c.decode(w, r, &body) {
		return
	}
	res, err := c.DeliveryDelay.Run(r.Context(), body.Test)
	c.respond(w, "delivery-delay", res, err)
}

func (c *NotificationController) PaymentDelayCheck(w http.ResponseWriter, r *http.Request) {
	var body testBody
	if !c.decode(w, r, &body) {
		return
	}
	res, err := c.PaymentDelay.Run(r.Context(), body.Test)
	c.respond(w, "payment-delay", res, err)
}

func (c *NotificationController) NewPaymentNotify(w http.ResponseWriter, r *http.Request) {
	var body struct {
		PaymentID string `json:"payment_id"`
		Test      bool   `json:"test"`
	}
	if !c.decode(w, r, &body) {
		return
	}
	res, err := c.NewPayment.Notify(r.Context(), body.PaymentID, body.Test)
	c.respond(w, "new-payment", res, err)
}

func (c *NotificationController) OrderStatusNotify(w http.ResponseWriter, r *http.Request) {
	var body struct {
		OrderID   string  `json:"order_id"`
		NewStatus string  `json:"new_status"`
		OldStatus *string `json:"old_status"`
	}
	if !c.decode(w, r, &body) {
		return
	}
	res, err := c.OrderStatus.Notify(r.Context(), service.OrderStatusChange{
		OrderID:   body.OrderID,
		NewStatus: body.NewStatus,
		OldStatus: body.OldStatus,
	})
	c.respond(w, "order-status", res, err)
}

// decode accepts an empty body as the zero value.
func (c *NotificationController) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	err := json.NewDecoder(r.Body).Decode(v)
	if err == nil || errors.Is(err, io.EOF) {
		return true
	}
	writeJSON(w, http.StatusBadRequest, map[string]any{"success": false, "error": "invalid body: " + err.Error()})
	return false
}

func (c *NotificationController) respond(w http.ResponseWriter, route string, res *service.Result, err error) {
	if err != nil {
		status := StatusFor(err)
		ev := c.Log.Warn()
		if status == http.StatusInternalServerError {
			ev = c.Log.Error()
		}
		ev.Err(err).Str("route", route).Int("status", status).Msg("❌ notification request failed")
		writeJSON(w, status, map[string]any{"success": false, "error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// StatusFor maps service errors onto HTTP status codes.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, appErrors.ErrInvalidInput):
		return http.StatusBadRequest
	case appErrors.IsNotFound(err):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

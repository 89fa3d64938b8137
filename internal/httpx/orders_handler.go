package httpx

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/annvahak/marketplace/internal/auth"
	kafkax "github.com/annvahak/marketplace/internal/kafka"
	"github.com/annvahak/marketplace/internal/orders"
	"github.com/annvahak/marketplace/internal/redisx"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	kafkago "github.com/segmentio/kafka-go"
)

type OrdersHandler struct {
	Service        *orders.Service
	PlacedProducer *kafkax.Producer
	StatusProducer *kafkax.Producer
	Redis          *redis.Client
	ServiceName    string
}

type PlaceOrderReq struct {
	Items           []orders.CartLine `json:"items"`
	DeliveryAddress string            `json:"delivery_address"`
	ContactNumber   string            `json:"contact_number"`
}

type PlaceOrderResp struct {
	Order orders.Order       `json:"order"`
	Items []orders.OrderItem `json:"items"`
}

type SetItemStatusReq struct {
	Status string `json:"status"`
}

type SetItemStatusResp struct {
	Item  orders.OrderItem `json:"item"`
	Order orders.Order     `json:"order"`
}

func (h *OrdersHandler) Register(r *chi.Mux, jwtSvc *auth.JWTService) {
	r.Group(func(r chi.Router) {
		r.Use(Authenticate(jwtSvc))

		r.With(RequireRole(auth.RoleBuyer)).Post("/orders", h.placeOrder)
		r.With(RequireRole(auth.RoleBuyer)).Get("/orders/buyer", h.listBuyerOrders)
		r.With(RequireRole(auth.RoleProducer)).Get("/orders/producer", h.listProducerItems)
		r.With(RequireRole(auth.RoleAdmin)).Get("/orders", h.listAllOrders)
		r.With(RequireRole(auth.RoleProducer, auth.RoleAdmin)).Put("/orders/items/{id}/status", h.setItemStatus)
		r.Get("/orders/{id}", h.getOrder)
	})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// writeErr maps the order core's error taxonomy onto HTTP status codes.
func writeErr(w http.ResponseWriter, err error) {
	code := http.StatusInternalServerError
	msg := err.Error()
	switch {
	case errors.Is(err, orders.ErrValidation):
		code = http.StatusBadRequest
	case errors.Is(err, orders.ErrNotFound):
		code = http.StatusNotFound
	case errors.Is(err, orders.ErrInsufficientStock):
		code = http.StatusBadRequest
	case errors.Is(err, orders.ErrConflict):
		code = http.StatusConflict
	case errors.Is(err, orders.ErrPermission):
		code = http.StatusForbidden
	case errors.Is(err, orders.ErrStorage):
		// internals stay out of responses
		slog.Error("storage failure", "err", err)
		msg = "internal error"
	}
	writeJSON(w, code, map[string]string{"error": msg})
}

func (h *OrdersHandler) placeOrder(w http.ResponseWriter, r *http.Request) {
	actor, _ := ActorFromContext(r.Context())

	var req PlaceOrderReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	order, items, err := h.Service.PlaceOrder(ctx, actor.ID, req.Items, req.DeliveryAddress, req.ContactNumber)
	if err != nil {
		writeErr(w, err)
		return
	}

	statusKey := fmt.Sprintf(redisx.KeyOrderStatus, order.ID)
	_ = h.Redis.Set(ctx, statusKey, kafkax.MustMarshal(map[string]any{
		"status": order.Status, "order_number": order.OrderNumber,
	}), redisx.TTLStatusCache).Err()

	h.publishPlaced(order, items, r.Header.Get("X-Request-Id"))

	writeJSON(w, http.StatusCreated, PlaceOrderResp{Order: order, Items: items})
}

func (h *OrdersHandler) setItemStatus(w http.ResponseWriter, r *http.Request) {
	actor, _ := ActorFromContext(r.Context())

	itemID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid item id"})
		return
	}
	var req SetItemStatusReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	order, item, err := h.Service.SetItemStatus(ctx, actor, itemID, orders.Status(req.Status))
	if err != nil {
		writeErr(w, err)
		return
	}

	statusKey := fmt.Sprintf(redisx.KeyOrderStatus, order.ID)
	_ = h.Redis.Set(ctx, statusKey, kafkax.MustMarshal(map[string]any{
		"status": order.Status, "order_number": order.OrderNumber,
	}), redisx.TTLStatusCache).Err()

	h.publishStatusChanged(order, item, r.Header.Get("X-Request-Id"))

	writeJSON(w, http.StatusOK, SetItemStatusResp{Item: item, Order: order})
}

func (h *OrdersHandler) getOrder(w http.ResponseWriter, r *http.Request) {
	actor, _ := ActorFromContext(r.Context())

	orderID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid order id"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	order, items, err := h.Service.GetOrder(ctx, actor, orderID)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, PlaceOrderResp{Order: order, Items: items})
}

func (h *OrdersHandler) listBuyerOrders(w http.ResponseWriter, r *http.Request) {
	actor, _ := ActorFromContext(r.Context())

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	out, err := h.Service.ListBuyerOrders(ctx, actor.ID)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"orders": out})
}

func (h *OrdersHandler) listProducerItems(w http.ResponseWriter, r *http.Request) {
	actor, _ := ActorFromContext(r.Context())

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	out, err := h.Service.ListProducerItems(ctx, actor.ID)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": out})
}

func (h *OrdersHandler) listAllOrders(w http.ResponseWriter, r *http.Request) {
	actor, _ := ActorFromContext(r.Context())

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	out, err := h.Service.ListAllOrders(ctx, actor)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"orders": out})
}

func (h *OrdersHandler) publishPlaced(order orders.Order, items []orders.OrderItem, traceID string) {
	placed := make([]orders.PlacedItem, 0, len(items))
	for _, it := range items {
		placed = append(placed, orders.PlacedItem{
			ItemID: it.ID, ListingID: it.ListingID, ProducerID: it.ProducerID,
			Quantity: it.Quantity, UnitPrice: it.UnitPrice,
		})
	}
	ev := orders.Envelope{
		EventID:       uuid.NewString(),
		EventType:     orders.EventOrderPlaced,
		EventVersion:  1,
		OccurredAt:    time.Now().UTC(),
		Producer:      h.ServiceName,
		TraceID:       traceID,
		CorrelationID: strconv.FormatInt(order.ID, 10),
		Payload: kafkax.MustMarshal(orders.OrderPlacedPayload{
			OrderID: order.ID, OrderNumber: order.OrderNumber, BuyerID: order.BuyerID,
			TotalAmount: order.TotalAmount, Items: placed,
		}),
	}
	h.PlacedProducer.Publish(orders.PartitionKey(order.ID), kafkax.MustMarshal(ev),
		kafkago.Header{Key: "x-event-type", Value: []byte(orders.EventOrderPlaced)},
		kafkago.Header{Key: "x-event-version", Value: []byte("1")},
	)
}

func (h *OrdersHandler) publishStatusChanged(order orders.Order, item orders.OrderItem, traceID string) {
	ev := orders.Envelope{
		EventID:       uuid.NewString(),
		EventType:     orders.EventItemStatusChanged,
		EventVersion:  1,
		OccurredAt:    time.Now().UTC(),
		Producer:      h.ServiceName,
		TraceID:       traceID,
		CorrelationID: strconv.FormatInt(order.ID, 10),
		Payload: kafkax.MustMarshal(orders.ItemStatusChangedPayload{
			OrderID: order.ID, ItemID: item.ID, BuyerID: order.BuyerID,
			ProducerID: item.ProducerID, ItemStatus: item.Status, OrderStatus: order.Status,
		}),
	}
	h.StatusProducer.Publish(orders.PartitionKey(order.ID), kafkax.MustMarshal(ev),
		kafkago.Header{Key: "x-event-type", Value: []byte(orders.EventItemStatusChanged)},
		kafkago.Header{Key: "x-event-version", Value: []byte("1")},
	)
}

package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"

	"tycoon-exchange/internal/engine"
	"tycoon-exchange/pkg/utils"
)

// defaultTradeLimit caps the recent-trades query when the client gives none.
const defaultTradeLimit = 100

type Handler struct {
	engine *engine.MatchingEngine
}

func NewHandler(e *engine.MatchingEngine) *Handler {
	return &Handler{engine: e}
}

func (h *Handler) SetupRoutes(r *mux.Router) {
	r.HandleFunc("/api/health", h.healthCheck).Methods("GET")
	r.HandleFunc("/api/order", h.createOrder).Methods("POST")
	r.HandleFunc("/api/order/{id}", h.cancelOrder).Methods("DELETE")
	r.HandleFunc("/api/orderbook", h.orderBook).Methods("GET")
	r.HandleFunc("/api/trades", h.recentTrades).Methods("GET")
}

func (h *Handler) healthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) createOrder(w http.ResponseWriter, r *http.Request) {
	var orderReq struct {
		Side       string `json:"side"`
		MarketType string `json:"market_type"`
		CompanyID  string `json:"company_id"`
		ProductID  string `json:"product_id"`
		Price      string `json:"price"`
		Quantity   int64  `json:"quantity"`
		Owner      string `json:"owner"`
	}

	if err := json.NewDecoder(r.Body).Decode(&orderReq); err != nil {
		utils.Logger.WithField("error", err.Error()).Error("Failed to decode request")
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	price, err := decimal.NewFromString(orderReq.Price)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid price")
		return
	}

	order, trades, err := h.engine.SubmitOrder(r.Context(), engine.SubmitRequest{
		Side: engine.Side(orderReq.Side),
		Market: engine.MarketKey{
			Type:      engine.MarketType(orderReq.MarketType),
			CompanyID: orderReq.CompanyID,
			ProductID: orderReq.ProductID,
		},
		Price:    price,
		Quantity: orderReq.Quantity,
		Owner:    orderReq.Owner,
	})
	if err != nil {
		writeEngineError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"order":  order,
		"trades": trades,
	})
}

func (h *Handler) cancelOrder(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	order, err := h.engine.CancelOrder(r.Context(), id)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"order": order})
}

func (h *Handler) orderBook(w http.ResponseWriter, r *http.Request) {
	key, ok := marketKeyFromQuery(w, r)
	if !ok {
		return
	}
	orders, err := h.engine.OpenOrders(r.Context(), key)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"orders": orders})
}

func (h *Handler) recentTrades(w http.ResponseWriter, r *http.Request) {
	key, ok := marketKeyFromQuery(w, r)
	if !ok {
		return
	}
	limit := defaultTradeLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = n
	}
	trades, err := h.engine.RecentTrades(r.Context(), key, limit)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"trades": trades})
}

func marketKeyFromQuery(w http.ResponseWriter, r *http.Request) (engine.MarketKey, bool) {
	q := r.URL.Query()
	key := engine.MarketKey{
		Type:      engine.MarketType(q.Get("type")),
		CompanyID: q.Get("company"),
		ProductID: q.Get("product"),
	}
	if key.Type != engine.Stock && key.Type != engine.Commodity {
		writeError(w, http.StatusBadRequest, "type must be stock or commodity")
		return engine.MarketKey{}, false
	}
	if key.CompanyID == "" {
		writeError(w, http.StatusBadRequest, "company is required")
		return engine.MarketKey{}, false
	}
	if key.Type == engine.Commodity && key.ProductID == "" {
		writeError(w, http.StatusBadRequest, "product is required for commodity markets")
		return engine.MarketKey{}, false
	}
	return key, true
}

func writeEngineError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, engine.ErrInvalidOrder):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, engine.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, engine.ErrAlreadyTerminal):
		writeError(w, http.StatusConflict, err.Error())
	default:
		utils.LogError(err)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]interface{}{"success": false, "error": msg})
}

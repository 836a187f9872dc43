package main

import (
	"encoding/json"
	"log"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/kitchenprojects/mj-checkout-go/pkg/idempotency"
	"github.com/kitchenprojects/mj-checkout-go/pkg/logging"
)

// Dev stub for the external collaborators: the Order API and the
// distance service. Lets the checkout-service and CLI run end to end
// without the hosted backend.
func main() {
	port := getenv("PORT", "9090")

	s := &stub{
		orders: make(map[string]string),
		byIdem: make(map[string]string),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"status": "ok"})
	})
	mux.HandleFunc("/orders", s.handleCreateOrder)
	mux.HandleFunc("/orders/", s.handlePayment)
	mux.HandleFunc("/shipping/distance", s.handleDistance)

	srv := &http.Server{Addr: ":" + port, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	log.Printf("stub-backend listening on :%s", port)
	log.Fatal(srv.ListenAndServe())
}

type stub struct {
	mu     sync.Mutex
	orders map[string]string // order_id -> payment status
	byIdem map[string]string // idempotency key -> order_id
}

func (s *stub) handleCreateOrder(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]any{"error": "method not allowed"})
		return
	}
	var req struct {
		AddressID string `json:"address_id"`
		Items     []any  `json:"items"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "invalid json"})
		return
	}
	if len(req.Items) == 0 {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "items is required"})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	orderID := ""
	if key := idempotency.Key(r); key != "" {
		if existing, ok := s.byIdem[key]; ok {
			orderID = existing
		} else {
			orderID = uuid.NewString()
			s.byIdem[key] = orderID
		}
	} else {
		orderID = uuid.NewString()
	}
	if _, ok := s.orders[orderID]; !ok {
		s.orders[orderID] = "Unpaid"
	}

	logging.Log(logging.Fields{Service: "stub-backend", OrderID: orderID, Step: "create_order", Status: "created"})
	writeJSON(w, http.StatusOK, map[string]any{
		"order_id":       orderID,
		"payment_handle": "snap-" + uuid.NewString(),
	})
}

func (s *stub) handlePayment(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPut || !strings.HasSuffix(r.URL.Path, "/payment") {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]any{"error": "method not allowed"})
		return
	}
	orderID := strings.TrimSuffix(strings.TrimPrefix(r.URL.Path, "/orders/"), "/payment")
	var req struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "invalid json"})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.orders[orderID]; !ok {
		writeJSON(w, http.StatusNotFound, map[string]any{"error": "order not found"})
		return
	}
	s.orders[orderID] = req.Status

	logging.Log(logging.Fields{Service: "stub-backend", OrderID: orderID, Step: "payment_writeback", Status: req.Status})
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok"})
}

func (s *stub) handleDistance(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]any{"error": "method not allowed"})
		return
	}
	dest := strings.TrimSpace(r.URL.Query().Get("destination"))
	if dest == "" {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "destination is required"})
		return
	}
	if strings.Contains(strings.ToLower(dest), "unknown") {
		writeJSON(w, http.StatusNotFound, map[string]any{"error": "address not found"})
		return
	}

	// Deterministic fake distance so repeated quotes agree.
	km := float64(3+len(dest)%25) + 0.5
	writeJSON(w, http.StatusOK, map[string]any{
		"distance_km":   km,
		"duration_text": "25 mins",
	})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func getenv(k, def string) string {
	v := strings.TrimSpace(os.Getenv(k))
	if v == "" {
		return def
	}
	return v
}

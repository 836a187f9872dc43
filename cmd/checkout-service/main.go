package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/kitchenprojects/mj-checkout-go/internal/cart"
	"github.com/kitchenprojects/mj-checkout-go/internal/checkout"
	"github.com/kitchenprojects/mj-checkout-go/internal/shipping"
	"github.com/kitchenprojects/mj-checkout-go/internal/storage"
	"github.com/kitchenprojects/mj-checkout-go/pkg/distance"
	"github.com/kitchenprojects/mj-checkout-go/pkg/kafka"
	"github.com/kitchenprojects/mj-checkout-go/pkg/metrics"
	"github.com/kitchenprojects/mj-checkout-go/pkg/orderapi"
)

type cfg struct {
	Port            string
	CartBackend     string // memory | pebble | postgres
	CartDir         string
	DatabaseURL     string
	CartName        string
	ShippingPolicy  string // tier | distance
	DistanceBaseURL string
	OrderAPIBaseURL string
	RatePerKm       int64
	FreeThreshold   int64
	KafkaBrokers    string
	KafkaTopic      string
	RequestTimeout  time.Duration
}

func readCfg() (cfg, error) {
	backend := strings.ToLower(getenv("CART_BACKEND", "memory"))
	switch backend {
	case "memory", "pebble", "postgres":
	default:
		return cfg{}, fmt.Errorf("unknown CART_BACKEND %q", backend)
	}
	if backend == "postgres" && strings.TrimSpace(os.Getenv("DATABASE_URL")) == "" {
		return cfg{}, errors.New("DATABASE_URL is required for CART_BACKEND=postgres")
	}

	policy := strings.ToLower(getenv("SHIPPING_POLICY", "tier"))
	switch policy {
	case "tier", "distance":
	default:
		return cfg{}, fmt.Errorf("unknown SHIPPING_POLICY %q", policy)
	}
	if policy == "distance" && strings.TrimSpace(os.Getenv("DISTANCE_BASE_URL")) == "" {
		return cfg{}, errors.New("DISTANCE_BASE_URL is required for SHIPPING_POLICY=distance")
	}

	orderAPI := strings.TrimRight(strings.TrimSpace(os.Getenv("ORDER_API_BASE_URL")), "/")
	if orderAPI == "" {
		return cfg{}, errors.New("ORDER_API_BASE_URL is required")
	}

	ratePerKm, _ := strconv.ParseInt(getenv("RATE_PER_KM", "3000"), 10, 64)
	freeThreshold, _ := strconv.ParseInt(getenv("FREE_SHIPPING_THRESHOLD", "500000"), 10, 64)
	toutMS, _ := strconv.Atoi(getenv("REQUEST_TIMEOUT_MS", "2500"))

	return cfg{
		Port:            getenv("PORT", "8080"),
		CartBackend:     backend,
		CartDir:         getenv("CART_DIR", "./cart-data"),
		DatabaseURL:     strings.TrimSpace(os.Getenv("DATABASE_URL")),
		CartName:        getenv("CART_NAME", "mj-kitchen-cart"),
		ShippingPolicy:  policy,
		DistanceBaseURL: strings.TrimRight(getenv("DISTANCE_BASE_URL", ""), "/"),
		OrderAPIBaseURL: orderAPI,
		RatePerKm:       ratePerKm,
		FreeThreshold:   freeThreshold,
		KafkaBrokers:    getenv("KAFKA_BROKERS", ""),
		KafkaTopic:      getenv("KAFKA_TOPIC", "storefront.events"),
		RequestTimeout:  time.Duration(toutMS) * time.Millisecond,
	}, nil
}

func main() {
	cfg, err := readCfg()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	adapter, err := openCartBackend(cfg)
	if err != nil {
		log.Fatalf("cart backend error: %v", err)
	}
	defer func() { _ = adapter.Close() }()

	store, err := cart.NewStore(cfg.CartName, adapter)
	if err != nil {
		log.Fatalf("cart load error: %v", err)
	}

	var policy shipping.Policy
	if cfg.ShippingPolicy == "distance" {
		p := shipping.NewDistancePolicy(distance.NewClient(cfg.DistanceBaseURL, cfg.RequestTimeout))
		p.RatePerKm = cfg.RatePerKm
		p.FreeThreshold = cfg.FreeThreshold
		policy = p
	} else {
		policy = shipping.TierPolicy{}
	}

	orders := orderapi.NewClient(cfg.OrderAPIBaseURL, cfg.RequestTimeout)

	var sink checkout.EventSink = checkout.NopSink{}
	kafkaClient := kafka.NewClient(cfg.KafkaBrokers)
	if kafkaClient.Enabled() {
		pub, err := kafkaClient.NewPublisher(cfg.KafkaTopic)
		if err != nil {
			log.Fatalf("kafka publisher error: %v", err)
		}
		defer func() { _ = pub.Close() }()
		sink = pub
	}

	orch := checkout.NewOrchestrator("checkout-service", store, orders, sink)

	srvMetrics := metrics.NewServerMetrics("checkout_service")
	coMetrics := metrics.NewCheckoutMetrics("checkout_service")
	api := &server{
		cart:   store,
		policy: policy,
		orch:   orch,
		srv:    srvMetrics,
		co:     coMetrics,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/health", api.handleHealth)
	mux.Handle("/metrics", metrics.Handler())
	mux.HandleFunc("/cart", api.handleCart)
	mux.HandleFunc("/cart/items", api.handleAddItem)
	mux.HandleFunc("/cart/items/", api.handleLine)
	mux.HandleFunc("/shipping/quote", api.handleQuote)
	mux.HandleFunc("/checkout", api.handleCheckout)
	mux.HandleFunc("/checkout/reset", api.handleReset)
	mux.HandleFunc("/payment/callback", api.handlePaymentCallback)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	log.Printf("checkout-service listening on :%s (CART_BACKEND=%s, SHIPPING_POLICY=%s)",
		cfg.Port, cfg.CartBackend, cfg.ShippingPolicy)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatalf("http server error: %v", err)
	}
}

func openCartBackend(cfg cfg) (storage.Adapter, error) {
	switch cfg.CartBackend {
	case "pebble":
		return storage.NewPebbleStore(cfg.CartDir)
	case "postgres":
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return storage.NewPostgresStore(ctx, cfg.DatabaseURL)
	default:
		return storage.NewInMemory(), nil
	}
}

type server struct {
	cart   *cart.Store
	policy shipping.Policy
	orch   *checkout.Orchestrator
	srv    *metrics.ServerMetrics
	co     *metrics.CheckoutMetrics
}

func (s *server) handleHealth(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok"})
	s.observe("health", "200", start)
}

func (s *server) handleCart(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]any{"error": "method not allowed"})
		s.observe("cart", "405", start)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"lines":      s.cart.Lines(),
		"total":      s.cart.Total(),
		"item_count": s.cart.ItemCount(),
	})
	s.observe("cart", "200", start)
}

type addItemRequest struct {
	Item     cart.MenuItem `json:"item"`
	Quantity int           `json:"quantity"`
	Notes    string        `json:"notes"`
	AddOns   []cart.AddOn  `json:"addons"`
}

func (s *server) handleAddItem(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]any{"error": "method not allowed"})
		s.observe("cart_add", "405", start)
		return
	}
	var req addItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "invalid json"})
		s.observe("cart_add", "400", start)
		return
	}

	line, err := s.cart.AddItem(req.Item, req.Quantity, req.Notes, req.AddOns)
	if err != nil {
		var verr *cart.ValidationError
		if errors.As(err, &verr) {
			writeJSON(w, http.StatusBadRequest, map[string]any{"error": verr.Error()})
			s.observe("cart_add", "400", start)
			return
		}
		writeJSON(w, http.StatusInternalServerError, map[string]any{"error": err.Error()})
		s.observe("cart_add", "500", start)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"line": line, "total": s.cart.Total()})
	s.observe("cart_add", "200", start)
}

type updateLineRequest struct {
	Quantity *int    `json:"quantity,omitempty"`
	Notes    *string `json:"notes,omitempty"`
}

func (s *server) handleLine(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	key := cart.ItemKey(strings.TrimPrefix(r.URL.Path, "/cart/items/"))
	if key == "" {
		writeJSON(w, http.StatusNotFound, map[string]any{"error": "missing item key"})
		s.observe("cart_line", "404", start)
		return
	}

	switch r.Method {
	case http.MethodPut:
		var req updateLineRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]any{"error": "invalid json"})
			s.observe("cart_line", "400", start)
			return
		}
		if req.Quantity == nil && req.Notes == nil {
			writeJSON(w, http.StatusBadRequest, map[string]any{"error": "quantity or notes is required"})
			s.observe("cart_line", "400", start)
			return
		}
		if req.Quantity != nil {
			if err := s.cart.UpdateQuantity(key, *req.Quantity); err != nil {
				var verr *cart.ValidationError
				if errors.As(err, &verr) {
					writeJSON(w, http.StatusBadRequest, map[string]any{"error": verr.Error()})
					s.observe("cart_line", "400", start)
					return
				}
				writeJSON(w, http.StatusInternalServerError, map[string]any{"error": err.Error()})
				s.observe("cart_line", "500", start)
				return
			}
		}
		if req.Notes != nil {
			if err := s.cart.UpdateNotes(key, *req.Notes); err != nil {
				writeJSON(w, http.StatusInternalServerError, map[string]any{"error": err.Error()})
				s.observe("cart_line", "500", start)
				return
			}
		}
	case http.MethodDelete:
		if err := s.cart.RemoveItem(key); err != nil {
			writeJSON(w, http.StatusInternalServerError, map[string]any{"error": err.Error()})
			s.observe("cart_line", "500", start)
			return
		}
	default:
		writeJSON(w, http.StatusMethodNotAllowed, map[string]any{"error": "method not allowed"})
		s.observe("cart_line", "405", start)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"lines":      s.cart.Lines(),
		"total":      s.cart.Total(),
		"item_count": s.cart.ItemCount(),
	})
	s.observe("cart_line", "200", start)
}

type quoteRequest struct {
	Destination string `json:"destination"`
}

func (s *server) handleQuote(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]any{"error": "method not allowed"})
		s.observe("shipping_quote", "405", start)
		return
	}
	var req quoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "invalid json"})
		s.observe("shipping_quote", "400", start)
		return
	}

	in := shipping.Input{
		ItemCount:   s.cart.ItemCount(),
		Subtotal:    s.cart.Total(),
		Destination: req.Destination,
	}
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	quote, err := s.policy.Quote(ctx, in)
	s.co.QuoteLatencyMS.WithLabelValues(s.policy.Name()).Observe(float64(time.Since(start).Milliseconds()))
	if err != nil {
		s.co.ShippingQuotes.WithLabelValues(s.policy.Name(), "error").Inc()
		code := http.StatusBadGateway
		var invalidInput *shipping.InvalidInputError
		var invalidAddr *shipping.InvalidAddressError
		var notFound *shipping.AddressNotFoundError
		switch {
		case errors.As(err, &invalidInput), errors.As(err, &invalidAddr):
			code = http.StatusBadRequest
		case errors.As(err, &notFound):
			code = http.StatusUnprocessableEntity
		}
		writeJSON(w, code, map[string]any{"error": err.Error()})
		s.observe("shipping_quote", strconv.Itoa(code), start)
		return
	}
	s.co.ShippingQuotes.WithLabelValues(s.policy.Name(), "ok").Inc()

	// Install the quote for the upcoming checkout. Both calls bind the
	// quote to the exact cart/destination it was computed against.
	s.orch.SetDestination(req.Destination)
	if err := s.orch.SetQuote(quote); err != nil {
		// The cart changed while the quote was being computed.
		writeJSON(w, http.StatusConflict, map[string]any{"error": err.Error()})
		s.observe("shipping_quote", "409", start)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"quote":         quote,
		"display_fee":   shipping.FormatFee(quote.Cost),
		"free_shipping": quote.Free,
	})
	s.observe("shipping_quote", "200", start)
}

type checkoutRequest struct {
	AddressID string `json:"address_id"`
}

func (s *server) handleCheckout(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]any{"error": "method not allowed"})
		s.observe("checkout", "405", start)
		return
	}
	var req checkoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "invalid json"})
		s.observe("checkout", "400", start)
		return
	}
	if strings.TrimSpace(req.AddressID) != "" {
		s.orch.SetAddressID(req.AddressID)
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	session, err := s.orch.Submit(ctx)
	if err != nil {
		var verr *checkout.ValidationError
		if errors.As(err, &verr) {
			s.co.Submissions.WithLabelValues("rejected").Inc()
			writeJSON(w, http.StatusBadRequest, map[string]any{"error": verr.Error()})
			s.observe("checkout", "400", start)
			return
		}
		s.co.Submissions.WithLabelValues("failed").Inc()
		writeJSON(w, http.StatusBadGateway, map[string]any{"error": err.Error()})
		s.observe("checkout", "502", start)
		return
	}

	s.co.Submissions.WithLabelValues("accepted").Inc()
	writeJSON(w, http.StatusOK, session)
	s.observe("checkout", "200", start)
}

func (s *server) handlePaymentCallback(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]any{"error": "method not allowed"})
		s.observe("payment_callback", "405", start)
		return
	}
	var ev checkout.PaymentEvent
	if err := json.NewDecoder(r.Body).Decode(&ev); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "invalid json"})
		s.observe("payment_callback", "400", start)
		return
	}

	before := s.orch.Session().Status
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	status, err := s.orch.HandlePaymentEvent(ctx, ev)
	if err != nil {
		s.co.PaymentEvents.WithLabelValues(string(ev.Kind), "invalid").Inc()
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": err.Error()})
		s.observe("payment_callback", "400", start)
		return
	}

	disposition := "applied"
	if before == status || before.Terminal() {
		disposition = "ignored"
	}
	s.co.PaymentEvents.WithLabelValues(string(ev.Kind), disposition).Inc()
	writeJSON(w, http.StatusOK, map[string]any{"status": status, "disposition": disposition})
	s.observe("payment_callback", "200", start)
}

func (s *server) handleReset(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]any{"error": "method not allowed"})
		s.observe("checkout_reset", "405", start)
		return
	}
	if err := s.orch.Reset(); err != nil {
		writeJSON(w, http.StatusConflict, map[string]any{"error": err.Error()})
		s.observe("checkout_reset", "409", start)
		return
	}
	writeJSON(w, http.StatusOK, s.orch.Session())
	s.observe("checkout_reset", "200", start)
}

func (s *server) observe(handler, status string, start time.Time) {
	s.srv.Requests.WithLabelValues(handler, status).Inc()
	s.srv.LatencyMS.WithLabelValues(handler).Observe(float64(time.Since(start).Milliseconds()))
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

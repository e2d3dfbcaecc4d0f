package web

import (
	"encoding/json"
	"errors"
	"net/http"
	"runtime"
	"strconv"
	"time"

	sdkmath "cosmossdk.io/math"
	"github.com/gorilla/mux"

	"github.com/vaultgraph/mvl/internal/coordinator"
	"github.com/vaultgraph/mvl/internal/logger"
	"github.com/vaultgraph/mvl/internal/state"
	"github.com/vaultgraph/mvl/internal/types"
)

var webLogger = logger.GetForComponent("web_server")

// WebServer exposes the ledger's read-only surface: pool state, previews,
// prices, creation quotes, and the settlement feed. Mutations never enter
// through HTTP.
type WebServer struct {
	router *mux.Router
	port   string
	coord  *coordinator.Coordinator
}

// NewWebServer creates a new web server instance
func NewWebServer(port string, coord *coordinator.Coordinator) *WebServer {
	if port == "" {
		port = "8080"
	}

	server := &WebServer{
		router: mux.NewRouter(),
		port:   port,
		coord:  coord,
	}

	server.setupRoutes()
	return server
}

// setupRoutes configures all HTTP routes
func (ws *WebServer) setupRoutes() {
	// Health endpoint (direct route)
	ws.router.HandleFunc("/health", ws.handleHealth).Methods("GET")

	// API endpoints
	api := ws.router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/health", ws.handleHealth).Methods("GET")
	api.HandleFunc("/pools", ws.handleListPools).Methods("GET")
	api.HandleFunc("/pools/{id}", ws.handleGetPool).Methods("GET")
	api.HandleFunc("/pools/{id}/price", ws.handleGetPrice).Methods("GET")
	api.HandleFunc("/pools/{id}/preview/deposit", ws.handlePreviewDeposit).Methods("GET")
	api.HandleFunc("/pools/{id}/preview/redeem", ws.handlePreviewRedeem).Methods("GET")
	api.HandleFunc("/quote/{kind}", ws.handleQuoteCreation).Methods("GET")
	api.HandleFunc("/settlements", ws.handleGetSettlements).Methods("GET")

	// Add CORS middleware
	ws.router.Use(ws.corsMiddleware)
	ws.router.Use(ws.loggingMiddleware)
}

// Start starts the web server
func (ws *WebServer) Start() error {
	webLogger.Info().Str("port", ws.port).Msg("Starting web server")

	server := &http.Server{
		Addr:         ":" + ws.port,
		Handler:      ws.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return server.ListenAndServe()
}

// handleHealth returns server health status
func (ws *WebServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	response := map[string]interface{}{
		"status":    "OK",
		"timestamp": time.Now().UTC().Format(time.RFC3339Nano),
		"system": map[string]interface{}{
			"version":            runtime.Version(),
			"goroutines_count":   runtime.NumGoroutine(),
			"heap_objects_count": memStats.HeapObjects,
			"alloc_bytes":        memStats.Alloc,
			"gc_cycles":          memStats.NumGC,
		},
		"component": map[string]interface{}{
			"name":    "mvl-multi-vault-ledger",
			"version": "1.0.0",
		},
		"pool_count": len(ws.coord.Ledger().PoolIDs()),
	}

	ws.writeJSONResponse(w, http.StatusOK, response)
}

// handleListPools returns every known pool identifier
func (ws *WebServer) handleListPools(w http.ResponseWriter, r *http.Request) {
	ids := ws.coord.Ledger().PoolIDs()
	ws.writeJSONResponse(w, http.StatusOK, map[string]interface{}{
		"pool_ids": ids,
		"count":    len(ids),
	})
}

// handleGetPool returns one pool's accounting state
func (ws *WebServer) handleGetPool(w http.ResponseWriter, r *http.Request) {
	id, ok := ws.poolID(w, r)
	if !ok {
		return
	}
	pool, exists := ws.coord.Ledger().Pool(id)
	if !exists {
		ws.writeErrorResponse(w, http.StatusNotFound, "Pool not found")
		return
	}
	response := map[string]interface{}{
		"id":           pool.ID,
		"kind":         pool.Kind.String(),
		"total_value":  pool.TotalValue.String(),
		"total_shares": pool.TotalShares.String(),
		"curve_name":   pool.CurveName,
		"holders":      len(pool.Balances),
	}
	if refs, ok := ws.coord.Ledger().TripleRefs(id); ok {
		response["triple_refs"] = refs
	}
	ws.writeJSONResponse(w, http.StatusOK, response)
}

// handleGetPrice returns the pool's current marginal share price
func (ws *WebServer) handleGetPrice(w http.ResponseWriter, r *http.Request) {
	id, ok := ws.poolID(w, r)
	if !ok {
		return
	}
	price, err := ws.coord.CurrentSharePrice(id)
	if err != nil {
		ws.writeLedgerError(w, err)
		return
	}
	ws.writeJSONResponse(w, http.StatusOK, map[string]interface{}{
		"pool_id": id,
		"price":   price.String(),
	})
}

// handlePreviewDeposit quotes shares for a gross deposit amount
func (ws *WebServer) handlePreviewDeposit(w http.ResponseWriter, r *http.Request) {
	id, ok := ws.poolID(w, r)
	if !ok {
		return
	}
	assets, ok := ws.decQuery(w, r, "assets")
	if !ok {
		return
	}
	shares, err := ws.coord.PreviewDeposit(id, assets)
	if err != nil {
		ws.writeLedgerError(w, err)
		return
	}
	ws.writeJSONResponse(w, http.StatusOK, map[string]interface{}{
		"pool_id": id,
		"assets":  assets.String(),
		"shares":  shares.String(),
	})
}

// handlePreviewRedeem quotes the net payout for a share amount
func (ws *WebServer) handlePreviewRedeem(w http.ResponseWriter, r *http.Request) {
	id, ok := ws.poolID(w, r)
	if !ok {
		return
	}
	shares, ok := ws.decQuery(w, r, "shares")
	if !ok {
		return
	}
	assets, err := ws.coord.PreviewRedeem(id, shares)
	if err != nil {
		ws.writeLedgerError(w, err)
		return
	}
	ws.writeJSONResponse(w, http.StatusOK, map[string]interface{}{
		"pool_id": id,
		"shares":  shares.String(),
		"assets":  assets.String(),
	})
}

// handleQuoteCreation returns the fixed cost of creating an atom or triple
func (ws *WebServer) handleQuoteCreation(w http.ResponseWriter, r *http.Request) {
	kindName := mux.Vars(r)["kind"]
	var kind types.PoolKind
	switch kindName {
	case "atom":
		kind = types.KindAtom
	case "triple":
		kind = types.KindTriple
	default:
		ws.writeErrorResponse(w, http.StatusBadRequest, "Unknown pool kind")
		return
	}
	cost, err := ws.coord.QuoteCreationCost(kind)
	if err != nil {
		ws.writeLedgerError(w, err)
		return
	}
	ws.writeJSONResponse(w, http.StatusOK, map[string]interface{}{
		"kind": kindName,
		"cost": cost.String(),
	})
}

// handleGetSettlements returns recent settlement records
func (ws *WebServer) handleGetSettlements(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if parsedLimit, err := strconv.Atoi(limitStr); err == nil && parsedLimit > 0 && parsedLimit <= 1000 {
			limit = parsedLimit
		}
	}

	settlements, err := state.ListSettlements(limit)
	if err != nil {
		webLogger.Error().Err(err).Msg("Failed to get settlements")
		ws.writeErrorResponse(w, http.StatusInternalServerError, "Failed to retrieve settlements")
		return
	}

	ws.writeJSONResponse(w, http.StatusOK, map[string]interface{}{
		"settlements": settlements,
		"count":       len(settlements),
		"limit":       limit,
	})
}

func (ws *WebServer) poolID(w http.ResponseWriter, r *http.Request) (types.PoolID, bool) {
	raw := mux.Vars(r)["id"]
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		ws.writeErrorResponse(w, http.StatusBadRequest, "Invalid pool id")
		return 0, false
	}
	return types.PoolID(id), true
}

func (ws *WebServer) decQuery(w http.ResponseWriter, r *http.Request, key string) (sdkmath.LegacyDec, bool) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		ws.writeErrorResponse(w, http.StatusBadRequest, "Missing query parameter: "+key)
		return sdkmath.LegacyDec{}, false
	}
	dec, err := sdkmath.LegacyNewDecFromStr(raw)
	if err != nil {
		ws.writeErrorResponse(w, http.StatusBadRequest, "Invalid decimal for "+key)
		return sdkmath.LegacyDec{}, false
	}
	return dec, true
}

// writeLedgerError maps the core error taxonomy onto HTTP status codes
func (ws *WebServer) writeLedgerError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, types.ErrUnknownPool):
		status = http.StatusNotFound
	case errors.Is(err, types.ErrInvalidAmount),
		errors.Is(err, types.ErrBelowMinimum),
		errors.Is(err, types.ErrInsufficientBalance),
		errors.Is(err, types.ErrInsufficientSupply),
		errors.Is(err, types.ErrWouldUnderflowMinShare),
		errors.Is(err, types.ErrOverflow):
		status = http.StatusUnprocessableEntity
	}
	ws.writeErrorResponse(w, status, err.Error())
}

// writeJSONResponse writes a JSON response
func (ws *WebServer) writeJSONResponse(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		webLogger.Error().Err(err).Msg("Failed to encode JSON response")
	}
}

// writeErrorResponse writes an error response
func (ws *WebServer) writeErrorResponse(w http.ResponseWriter, statusCode int, message string) {
	response := map[string]interface{}{
		"error":     true,
		"message":   message,
		"timestamp": time.Now().UTC(),
	}

	ws.writeJSONResponse(w, statusCode, response)
}

// corsMiddleware adds CORS headers
func (ws *WebServer) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// loggingMiddleware logs HTTP requests
func (ws *WebServer) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		// Create a response writer wrapper to capture status code
		wrapper := &responseWriterWrapper{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(wrapper, r)

		duration := time.Since(start)

		webLogger.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Str("remote_addr", r.RemoteAddr).
			Int("status", wrapper.statusCode).
			Dur("duration", duration).
			Msg("HTTP request")
	})
}

// responseWriterWrapper wraps http.ResponseWriter to capture status code
type responseWriterWrapper struct {
	http.ResponseWriter
	statusCode int
}

func (w *responseWriterWrapper) WriteHeader(statusCode int) {
	w.statusCode = statusCode
	w.ResponseWriter.WriteHeader(statusCode)
}

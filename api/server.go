package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/rs/cors"
	"go.uber.org/zap"

	"flashmatch/gateway"
	"flashmatch/service"
)

// Server is the REST and WebSocket surface. It is a thin transport
// adapter: order submissions go through the gateway's enqueue capability,
// reads come from the service read-model, and the engine itself is never
// touched from a request handler.
type Server struct {
	gw     *gateway.Gateway
	svc    *service.OrderService
	router *mux.Router
	log    *zap.Logger

	allowedOrigins []string
}

func NewServer(gw *gateway.Gateway, svc *service.OrderService, allowedOrigins []string, log *zap.Logger) *Server {
	s := &Server{
		gw:             gw,
		svc:            svc,
		router:         mux.NewRouter(),
		log:            log,
		allowedOrigins: allowedOrigins,
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	api := s.router.PathPrefix("/api/v1").Subrouter()

	api.HandleFunc("/orders", s.handleSubmitOrder).Methods("POST")
	api.HandleFunc("/markets", s.handleListMarkets).Methods("GET")
	api.HandleFunc("/markets/{symbol}/orderbook", s.handleGetOrderbook).Methods("GET")

	s.router.HandleFunc("/ws", s.handleWebSocket)
	s.router.HandleFunc("/health", s.handleHealth).Methods("GET")
}

// Handler returns the fully wired HTTP handler, CORS included.
func (s *Server) Handler() http.Handler {
	c := cors.New(cors.Options{
		AllowedOrigins: s.allowedOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type"},
	})
	return c.Handler(s.router)
}

// Start blocks serving HTTP on addr.
func (s *Server) Start(addr string) error {
	s.log.Info("api server starting", zap.String("addr", addr))
	return http.ListenAndServe(addr, s.Handler())
}

func (s *Server) handleSubmitOrder(w http.ResponseWriter, r *http.Request) {
	var req gateway.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON body"})
		return
	}

	seq, err := s.gw.Accept(req)
	switch {
	case errors.Is(err, gateway.ErrQueueFull):
		writeJSON(w, http.StatusServiceUnavailable, Ack{OK: false, Reason: "queue full"})
	case err != nil:
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
	default:
		writeJSON(w, http.StatusAccepted, Ack{OK: true, SeqID: seq})
	}
}

func (s *Server) handleListMarkets(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.svc.Symbols())
}

func (s *Server) handleGetOrderbook(w http.ResponseWriter, r *http.Request) {
	symbol := mux.Vars(r)["symbol"]
	depth, ok := s.svc.Depth(symbol)
	if !ok {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "unknown symbol"})
		return
	}
	writeJSON(w, http.StatusOK, depth)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

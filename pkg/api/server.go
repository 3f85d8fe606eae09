package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/cors"
	"go.uber.org/zap"

	"github.com/stockfolio/stockfolio/params"
	"github.com/stockfolio/stockfolio/pkg/auth"
	"github.com/stockfolio/stockfolio/pkg/portfolio"
)

// PositionLister serves the read-only positions dataset.
type PositionLister interface {
	ListPositions() ([]*portfolio.Position, error)
}

// Server exposes the portfolio backend over REST/JSON plus a WebSocket
// feed of holdings updates.
type Server struct {
	proc      *portfolio.Processor
	positions PositionLister
	auth      *auth.Manager
	cfg       params.Config

	router *mux.Router
	hub    *Hub
	log    *zap.SugaredLogger
}

// NewServer wires the HTTP surface to its collaborators. The processor's
// OnOrder hook is claimed here to drive the WebSocket feed.
func NewServer(proc *portfolio.Processor, positions PositionLister, authMgr *auth.Manager, cfg params.Config, log *zap.SugaredLogger) *Server {
	s := &Server{
		proc:      proc,
		positions: positions,
		auth:      authMgr,
		cfg:       cfg,
		router:    mux.NewRouter(),
		hub:       NewHub(log),
		log:       log,
	}
	s.setupRoutes()

	proc.OnOrder = func(o *portfolio.Order) {
		holdings, err := proc.AllHoldings()
		if err != nil {
			log.Warnw("holdings_broadcast_skipped", "err", err)
			return
		}
		s.hub.Broadcast(HoldingsUpdate{
			Type:      "holdings",
			Order:     o,
			Holdings:  holdings,
			Timestamp: time.Now().UnixMilli(),
		})
	}

	return s
}

func (s *Server) setupRoutes() {
	// Portfolio endpoints
	s.router.HandleFunc("/newOrder", s.handleNewOrder).Methods("POST")
	s.router.HandleFunc("/allHoldings", s.handleAllHoldings).Methods("GET")
	s.router.HandleFunc("/allPositions", s.handleAllPositions).Methods("GET")
	s.router.HandleFunc("/orders", s.handleOrders).Methods("GET")
	s.router.HandleFunc("/deleteHolding/{id}", s.handleDeleteHolding).Methods("DELETE")

	// Auth endpoints
	s.router.HandleFunc("/signup", s.handleSignup).Methods("POST")
	s.router.HandleFunc("/login", s.handleLogin).Methods("POST")
	s.router.HandleFunc("/logout", s.handleLogout).Methods("POST")
	s.router.HandleFunc("/currentUser", s.handleCurrentUser).Methods("GET")

	// Dashboard summary (demo values, see SummaryResponse)
	s.router.HandleFunc("/api/summary", s.handleSummary).Methods("GET")

	// WebSocket feed
	s.router.HandleFunc("/ws", s.handleWebSocket)

	// Health check
	s.router.HandleFunc("/health", s.handleHealth).Methods("GET")
}

// Handler returns the full middleware-wrapped handler (used by tests).
func (s *Server) Handler() http.Handler {
	c := cors.New(cors.Options{
		AllowedOrigins:   s.cfg.HTTP.AllowedOrigins,
		AllowedMethods:   []string{"GET", "HEAD", "PUT", "PATCH", "POST", "DELETE"},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
	})
	return c.Handler(s.router)
}

// Start runs the hub and blocks serving HTTP on addr.
func (s *Server) Start(addr string) error {
	go s.hub.Run()
	s.log.Infow("api_server_starting", "addr", addr)
	return http.ListenAndServe(addr, s.Handler())
}

// ==============================
// Portfolio handlers
// ==============================

func (s *Server) handleNewOrder(w http.ResponseWriter, r *http.Request) {
	var req NewOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	mode, err := portfolio.ParseSide(req.Mode)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid order", err.Error())
		return
	}

	receipt, err := s.proc.PlaceOrder(req.Name, req.Qty, req.Price, mode)
	if err != nil {
		s.respondMapped(w, "error placing order", err)
		return
	}

	s.log.Infow("order_placed",
		"order_id", receipt.OrderID,
		"name", req.Name,
		"qty", req.Qty,
		"price", req.Price,
		"mode", mode)

	respondJSON(w, OrderReceipt{
		Message:   receipt.Message,
		OrderID:   receipt.OrderID,
		Timestamp: receipt.Timestamp,
	})
}

func (s *Server) handleAllHoldings(w http.ResponseWriter, r *http.Request) {
	holdings, err := s.proc.AllHoldings()
	if err != nil {
		s.respondMapped(w, "error fetching holdings", err)
		return
	}
	respondJSON(w, holdings)
}

func (s *Server) handleAllPositions(w http.ResponseWriter, r *http.Request) {
	positions, err := s.positions.ListPositions()
	if err != nil {
		s.respondMapped(w, "error fetching positions", err)
		return
	}
	respondJSON(w, positions)
}

func (s *Server) handleOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := s.proc.Orders()
	if err != nil {
		s.respondMapped(w, "error fetching orders", err)
		return
	}
	respondJSON(w, orders)
}

func (s *Server) handleDeleteHolding(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if err := s.proc.DeleteHoldingByID(id); err != nil {
		s.respondMapped(w, "error deleting holding", err)
		return
	}
	respondJSON(w, MessageResponse{Message: "Holding deleted successfully"})
}

// ==============================
// Auth handlers
// ==============================

func (s *Server) handleSignup(w http.ResponseWriter, r *http.Request) {
	var req SignupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	user, sess, err := s.auth.Signup(req.Name, req.Email, req.Password)
	if err != nil {
		s.respondMapped(w, "signup failed", err)
		return
	}

	s.setSessionCookie(w, sess)
	s.log.Infow("user_signed_up", "email", user.Email)
	respondJSON(w, AuthResponse{
		Message: "Signup successful",
		User:    UserInfo{Name: user.Name, Email: user.Email},
	})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	user, sess, err := s.auth.Login(req.Email, req.Password)
	if err != nil {
		s.respondMapped(w, "login failed", err)
		return
	}

	s.setSessionCookie(w, sess)
	s.log.Infow("user_logged_in", "email", user.Email)
	respondJSON(w, AuthResponse{
		Message: "Login successful",
		User:    UserInfo{Name: user.Name, Email: user.Email},
	})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if err := s.auth.Logout(s.sessionID(r)); err != nil {
		s.respondMapped(w, "logout failed", err)
		return
	}
	s.clearSessionCookie(w)
	respondJSON(w, MessageResponse{Message: "Logout successful"})
}

func (s *Server) handleCurrentUser(w http.ResponseWriter, r *http.Request) {
	user, err := s.auth.Current(s.sessionID(r))
	if err != nil {
		s.respondMapped(w, "not authenticated", err)
		return
	}
	respondJSON(w, CurrentUserResponse{
		User: UserInfo{Name: user.Name, Email: user.Email},
	})
}

// ==============================
// Summary (demo placeholder)
// ==============================

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	username := "demo"
	if user, err := s.auth.Current(s.sessionID(r)); err == nil {
		username = user.Name
	}

	respondJSON(w, SummaryResponse{
		Username:         username,
		MarginAvailable:  3.74,
		MarginsUsed:      0,
		OpeningBalance:   3.74,
		HoldingsCount:    13,
		ProfitLoss:       1.55,
		ProfitPercentage: 5.2,
		CurrentValue:     31.43,
		Investment:       29.88,
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, map[string]string{"status": "ok"})
}

// ==============================
// Session cookie helpers
// ==============================

func (s *Server) sessionID(r *http.Request) string {
	c, err := r.Cookie(auth.SessionCookie)
	if err != nil {
		return ""
	}
	return c.Value
}

func (s *Server) setSessionCookie(w http.ResponseWriter, sess *auth.Session) {
	sameSite := http.SameSiteLaxMode
	if s.cfg.Session.Secure {
		// Cross-site cookies need SameSite=None, which browsers only
		// accept together with Secure.
		sameSite = http.SameSiteNoneMode
	}
	http.SetCookie(w, &http.Cookie{
		Name:     auth.SessionCookie,
		Value:    sess.ID,
		Path:     "/",
		HttpOnly: true,
		Secure:   s.cfg.Session.Secure,
		SameSite: sameSite,
		MaxAge:   int(s.auth.TTL().Seconds()),
	})
}

func (s *Server) clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     auth.SessionCookie,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		MaxAge:   -1,
	})
}

// ==============================
// Response helpers
// ==============================

// respondMapped translates domain errors to HTTP statuses: precondition
// violations 400, auth failures 401, missing targets 404, everything
// else (persistence) 500.
func (s *Server) respondMapped(w http.ResponseWriter, label string, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, portfolio.ErrInvalidOrder),
		errors.Is(err, auth.ErrMissingFields),
		errors.Is(err, auth.ErrEmailTaken):
		status = http.StatusBadRequest
	case errors.Is(err, auth.ErrUserNotFound),
		errors.Is(err, auth.ErrBadCredentials),
		errors.Is(err, auth.ErrNoSession):
		status = http.StatusUnauthorized
	case errors.Is(err, portfolio.ErrNotFound):
		status = http.StatusNotFound
	}

	if status == http.StatusInternalServerError {
		s.log.Errorw("request_failed", "label", label, "err", err)
	}
	respondError(w, status, label, err.Error())
}

func respondJSON(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, label string, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(ErrorResponse{
		Error:   label,
		Message: message,
	})
}

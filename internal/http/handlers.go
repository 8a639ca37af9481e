package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/example/ride-customer/internal/models"
	"github.com/example/ride-customer/internal/storage"
)

const maxBodySize = 1 << 20

type Server struct {
	Store storage.RideStore
	Hub   *Hub

	users  []models.User
	byID   map[string]models.User
	logger *slog.Logger
	mux    *mux.Router
	now    func() time.Time
}

func NewServer(store storage.RideStore, users []models.User, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		Store:  store,
		Hub:    NewHub(logger),
		users:  users,
		byID:   make(map[string]models.User, len(users)),
		logger: logger,
		mux:    mux.NewRouter(),
		now:    time.Now,
	}
	for _, u := range users {
		s.byID[u.ID] = u
	}
	s.registerMiddleware()
	s.routes()
	return s
}

func (s *Server) routes() {
	s.mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200); w.Write([]byte("ok")) }).Methods("GET")
	s.mux.Handle("/metrics", promhttp.Handler())

	api := s.mux.NewRoute().Subrouter()
	api.Use(s.authMiddleware)
	api.HandleFunc("/users", s.handleListUsers).Methods("GET")
	api.HandleFunc("/profile", s.handleProfile).Methods("GET")
	api.HandleFunc("/rides", s.handleCreateRide).Methods("POST")
	api.HandleFunc("/rides", s.handleListRides).Methods("GET")
	api.HandleFunc("/rides/{id}", s.handleGetRide).Methods("GET")
	api.HandleFunc("/rides/{id}", s.handleUpdateStatus).Methods("PATCH")
	api.HandleFunc("/ws/rides/{id}", s.handleWS).Methods("GET")
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) { s.mux.ServeHTTP(w, r) }

func (s *Server) handleListUsers(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.users)
}

func (s *Server) handleProfile(w http.ResponseWriter, r *http.Request) {
	u, ok := s.byID[callerFrom(r.Context())]
	if !ok {
		writeError(w, http.StatusNotFound, "User not found")
		return
	}
	writeJSON(w, http.StatusOK, u)
}

func (s *Server) handleCreateRide(w http.ResponseWriter, r *http.Request) {
	var req models.RideRequest
	if !s.decode(w, r, "ride request", &req) {
		return
	}
	if d, ok := s.byID[req.DriverID]; !ok || d.Role != models.RoleDriver {
		writeError(w, http.StatusBadRequest, "Driver not found")
		return
	}
	ride := storage.NewRide(callerFrom(r.Context()), req, s.now())
	if err := s.Store.CreateRide(r.Context(), ride); err != nil {
		s.internalError(w, r, "create ride", err)
		return
	}
	s.logger.Info("ride created", "ride_id", ride.ID, "driver_id", req.DriverID, "customer_id", callerFrom(r.Context()))
	writeJSON(w, http.StatusCreated, s.expand(*ride))
}

func (s *Server) handleListRides(w http.ResponseWriter, r *http.Request) {
	rides, err := s.Store.ListRidesByCustomer(r.Context(), callerFrom(r.Context()))
	if err != nil {
		s.internalError(w, r, "list rides", err)
		return
	}
	out := make([]models.Ride, 0, len(rides))
	for _, ride := range rides {
		out = append(out, s.expand(ride))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleGetRide(w http.ResponseWriter, r *http.Request) {
	ride, ok := s.rideFor(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, s.expand(*ride))
}

func (s *Server) handleUpdateStatus(w http.ResponseWriter, r *http.Request) {
	ride, ok := s.rideFor(w, r)
	if !ok {
		return
	}
	var upd models.StatusUpdate
	if !s.decode(w, r, "status update", &upd) {
		return
	}
	updated, err := s.Store.UpdateRideStatus(r.Context(), ride.ID, upd.Status)
	if err != nil {
		s.internalError(w, r, "update ride status", err)
		return
	}
	n := s.Hub.Broadcast(models.StatusEvent{
		Type:    "ride_status",
		RideID:  updated.ID,
		Status:  updated.Status,
		Message: fmt.Sprintf("Ride %s", updated.Status),
	})
	s.logger.Info("ride status updated", "ride_id", updated.ID, "from", ride.Status, "to", updated.Status, "subscribers", n)
	writeJSON(w, http.StatusOK, s.expand(*updated))
}

var upgrader = websocket.Upgrader{}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	ride, ok := s.rideFor(w, r)
	if !ok {
		return
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", "ride_id", ride.ID, "error", err)
		return
	}
	sub := s.Hub.Add(ride.ID, conn)
	defer s.Hub.Remove(ride.ID, sub)
	// Reads only drain control frames; the feed is one-way.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

// rideFor loads the ride named in the path when the caller is its customer
// or driver, answering 404 otherwise.
func (s *Server) rideFor(w http.ResponseWriter, r *http.Request) (*models.Ride, bool) {
	id := mux.Vars(r)["id"]
	ride, err := s.Store.GetRide(r.Context(), id)
	if errors.Is(err, storage.ErrNotFound) {
		writeError(w, http.StatusNotFound, "Ride not found")
		return nil, false
	}
	if err != nil {
		s.internalError(w, r, "get ride", err)
		return nil, false
	}
	caller := callerFrom(r.Context())
	if (ride.Customer == nil || ride.Customer.ID != caller) && (ride.Driver == nil || ride.Driver.ID != caller) {
		writeError(w, http.StatusNotFound, "Ride not found")
		return nil, false
	}
	return ride, true
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request, typ string, v any) bool {
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodySize)).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON body")
		return false
	}
	if err := models.Validate(typ, v); err != nil {
		var derr *models.DecodeError
		if errors.As(err, &derr) && derr.Field != "" {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("Invalid %s", derr.Field))
			return false
		}
		writeError(w, http.StatusBadRequest, err.Error())
		return false
	}
	return true
}

// expand replaces bare driver and customer ids with their user records.
func (s *Server) expand(r models.Ride) models.Ride {
	r.Driver = s.party(r.Driver)
	r.Customer = s.party(r.Customer)
	return r
}

func (s *Server) party(p *models.Party) *models.Party {
	if p == nil {
		return nil
	}
	u, ok := s.byID[p.ID]
	if !ok {
		return p
	}
	return &models.Party{ID: u.ID, FirstName: u.FirstName, LastName: u.LastName, PhoneNumber: u.PhoneNumber, Email: u.Email}
}

func (s *Server) internalError(w http.ResponseWriter, r *http.Request, op string, err error) {
	s.logger.Error(op, "error", err, "request_id", requestIDFromContext(r.Context()))
	writeError(w, http.StatusInternalServerError, "Internal server error")
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"message": msg})
}

package gateway

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/zazapalm3012/ito-gameweb/internal/lobby"
	"github.com/zazapalm3012/ito-gameweb/internal/room"
	"github.com/zazapalm3012/ito-gameweb/ito"
)

// HTTPHandler serves the lobby REST surface used before a websocket is
// attached: listing, creating and joining games, plus the host-only
// start and next-round controls.
type HTTPHandler struct {
	lobby   *lobby.Lobby
	gateway *Gateway
}

type createGameRequest struct {
	GameName string `json:"gameName"`
	HostID   string `json:"hostId"`
	HostName string `json:"hostName"`
}

type joinGameRequest struct {
	PlayerID   string `json:"playerId"`
	PlayerName string `json:"playerName"`
}

type requesterRequest struct {
	RequesterID string `json:"requesterId"`
}

type gameListResponse struct {
	Games []room.Summary `json:"games"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func NewHTTPHandler(lby *lobby.Lobby, gw *Gateway) *HTTPHandler {
	return &HTTPHandler{lobby: lby, gateway: gw}
}

func (h *HTTPHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/api/games", h.handleGames)
	mux.HandleFunc("/api/games/", h.handleGameByID)
}

func (h *HTTPHandler) handleGames(w http.ResponseWriter, r *http.Request) {
	if handlePreflight(w, r) {
		return
	}
	switch r.Method {
	case http.MethodGet:
		writeJSON(w, http.StatusOK, gameListResponse{Games: h.lobby.List()})
	case http.MethodPost:
		h.handleCreate(w, r)
	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (h *HTTPHandler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req createGameRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	rm, err := h.lobby.Create(req.GameName, req.HostID, req.HostName, h.gateway.SendToPlayer)
	if err != nil {
		writeGameError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, rm.Summary())
}

// handleGameByID dispatches /api/games/{id} and /api/games/{id}/{action}.
func (h *HTTPHandler) handleGameByID(w http.ResponseWriter, r *http.Request) {
	if handlePreflight(w, r) {
		return
	}

	rest := strings.TrimPrefix(r.URL.Path, "/api/games/")
	id, action, _ := strings.Cut(rest, "/")
	if id == "" {
		writeError(w, http.StatusNotFound, "game not found")
		return
	}

	rm := h.lobby.Get(id)
	if rm == nil {
		writeError(w, http.StatusNotFound, "game not found")
		return
	}

	switch action {
	case "":
		if r.Method != http.MethodGet {
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		writeJSON(w, http.StatusOK, rm.Summary())
	case "join":
		h.handleJoin(w, r, rm)
	case "start":
		h.handleHostAction(w, r, rm, room.EventStartGame)
	case "next-round":
		h.handleHostAction(w, r, rm, room.EventNextRound)
	default:
		writeError(w, http.StatusNotFound, "unknown action")
	}
}

func (h *HTTPHandler) handleJoin(w http.ResponseWriter, r *http.Request, rm *room.Room) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req joinGameRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.PlayerID) == "" {
		writeError(w, http.StatusBadRequest, "playerId is required")
		return
	}

	if err := rm.SubmitEvent(room.Event{
		Type:     room.EventJoin,
		PlayerID: req.PlayerID,
		Name:     req.PlayerName,
	}); err != nil {
		writeGameError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rm.Summary())
}

func (h *HTTPHandler) handleHostAction(w http.ResponseWriter, r *http.Request, rm *room.Room, eventType room.EventType) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req requesterRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.RequesterID) == "" {
		writeError(w, http.StatusBadRequest, "requesterId is required")
		return
	}

	if err := rm.SubmitEvent(room.Event{
		Type:     eventType,
		PlayerID: req.RequesterID,
	}); err != nil {
		writeGameError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rm.Summary())
}

// writeGameError maps engine errors onto HTTP statuses.
func writeGameError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ito.ErrNotHost):
		writeError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, ito.ErrGameFull), errors.Is(err, ito.ErrInvalidState):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, ito.ErrTopicRequired),
		errors.Is(err, ito.ErrNotEnoughPlayers),
		errors.Is(err, ito.ErrNotMember),
		errors.Is(err, ito.ErrCardNotInHand),
		errors.Is(err, lobby.ErrNameRequired),
		errors.Is(err, lobby.ErrHostRequired):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, room.ErrRoomClosed):
		writeError(w, http.StatusGone, err.Error())
	default:
		log.Printf("[Gateway] Unexpected game error: %v", err)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

// handlePreflight answers CORS preflights and stamps the shared headers.
// The browser frontend runs on a different origin in development.
func handlePreflight(w http.ResponseWriter, r *http.Request) bool {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusNoContent)
		return true
	}
	return false
}

func decodeJSON(r *http.Request, dst any) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	return decoder.Decode(dst)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

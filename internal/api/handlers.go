package api

import (
	"encoding/json"
	"io"
	"log"
	"net/http"

	"github.com/larsks/relayrpc/internal/commands"
)

// maxRequestSize bounds the body of a single RPC call.
const maxRequestSize = 64 << 10

func (s *Server) sendJSON(w http.ResponseWriter, v any, httpCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(httpCode)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("failed to encode response: %v", err)
	}
}

// rpcHandler serves one JSON-RPC request. Protocol errors are reported in the
// JSON-RPC error object with HTTP status 200, as the envelope carries them.
func (s *Server) rpcHandler(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxRequestSize))
	if err != nil {
		http.Error(w, "request body too large", http.StatusRequestEntityTooLarge)
		return
	}

	out := s.dispatcher.Call(r.Context(), body)
	if out == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write(out) //nolint:errcheck
}

func (s *Server) stateHandler(w http.ResponseWriter, r *http.Request) {
	s.sendJSON(w, commands.NewStateResult(s.relay.State()), http.StatusOK)
}

func (s *Server) methodsHandler(w http.ResponseWriter, r *http.Request) {
	s.sendJSON(w, map[string][]string{"methods": s.dispatcher.Methods()}, http.StatusOK)
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	s.sendJSON(w, map[string]string{"status": "ok"}, http.StatusOK)
}

package control

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/vegalabs/syncagent/internal/secrets"
)

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	resp := map[string]any{
		"state":     s.agent.State().String(),
		"logged_in": false,
	}
	id, err := s.store.Identity()
	switch {
	case err == nil:
		resp["logged_in"] = true
		resp["user_id"] = id.UserID
	case errors.Is(err, secrets.ErrNotLoggedIn):
		// leave logged_in false
	default:
		jsonError(w, "read identity: "+err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleConnect(w http.ResponseWriter, r *http.Request) {
	if err := s.agent.Connect(r.Context()); err != nil {
		jsonError(w, err.Error(), http.StatusBadGateway)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"state": s.agent.State().String()})
}

func (s *Server) handleDisconnect(w http.ResponseWriter, r *http.Request) {
	s.agent.Disconnect()
	writeJSON(w, http.StatusOK, map[string]any{"state": s.agent.State().String()})
}

func (s *Server) handleCrawl(w http.ResponseWriter, r *http.Request) {
	if err := s.agent.MakeCrawlRequest(r.Context()); err != nil {
		jsonError(w, err.Error(), http.StatusBadGateway)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]any{"state": s.agent.State().String()})
}

func (s *Server) handleGetSync(w http.ResponseWriter, r *http.Request) {
	folders, err := s.store.SyncedFolderPaths()
	if err != nil {
		jsonError(w, "read synced folders: "+err.Error(), http.StatusInternalServerError)
		return
	}
	files, err := s.store.SyncedFilePaths()
	if err != nil {
		jsonError(w, "read synced files: "+err.Error(), http.StatusInternalServerError)
		return
	}
	if folders == nil {
		folders = []string{}
	}
	if files == nil {
		files = []string{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"folders": folders, "files": files})
}

func (s *Server) handlePutSync(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Folders []string `json:"folders"`
		Files   []string `json:"files"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}
	if err := s.store.SetSyncedFolderPaths(req.Folders); err != nil {
		jsonError(w, "store synced folders: "+err.Error(), http.StatusInternalServerError)
		return
	}
	if err := s.store.SetSyncedFilePaths(req.Files); err != nil {
		jsonError(w, "store synced files: "+err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"folders": req.Folders, "files": req.Files})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	writeJSON(w, code, map[string]string{"error": msg})
}

package http

import (
	"net/http"

	"fintrack/internal/log"
)

type settingValue struct {
	Value string `json:"value"`
}

func (s *Server) handleListSettings(w http.ResponseWriter, r *http.Request) {
	settings, err := s.svc.Settings.ListSettings(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(settings))
}

func (s *Server) handleGetSetting(w http.ResponseWriter, r *http.Request) {
	setting, err := s.svc.Settings.GetSetting(r.Context(), r.PathValue("key"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, setting)
}

func (s *Server) handlePutSetting(w http.ResponseWriter, r *http.Request) {
	var in settingValue
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	setting, err := s.svc.Settings.PutSetting(r.Context(), r.PathValue("key"), in.Value)
	if err != nil {
		writeError(w, r, err)
		return
	}
	log.FromContext(r.Context()).InfoContext(r.Context(), "Setting saved", "key", setting.Key)
	writeJSON(w, http.StatusOK, setting)
}

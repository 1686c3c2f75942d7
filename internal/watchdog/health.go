package watchdog

import (
	"encoding/json"
	"net/http"
)

type healthResponse struct {
	Status  string      `json:"status"`
	Targets []StateInfo `json:"targets,omitempty"`
}

// HealthzHandler reports process liveness only; targets affect readiness.
func HealthzHandler(p StateProvider) http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		writeHealth(rw, http.StatusOK, healthResponse{Status: "ok"})
	}
}

// ReadyzHandler answers 503 while any critical target is not up.
func ReadyzHandler(p StateProvider) http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		resp := healthResponse{Targets: p.GetAllStates()}
		code := http.StatusOK
		if p.IsReady() {
			resp.Status = "ready"
		} else {
			resp.Status = "not_ready"
			code = http.StatusServiceUnavailable
		}
		writeHealth(rw, code, resp)
	}
}

func writeHealth(rw http.ResponseWriter, code int, resp healthResponse) {
	rw.Header().Set("Content-Type", "application/json")
	rw.WriteHeader(code)
	json.NewEncoder(rw).Encode(resp)
}

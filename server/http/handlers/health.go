package handlers

import (
	"encoding/json"
	"net/http"
	"time"
)

var started = time.Now()

// Version проставляется при сборке: -ldflags "-X csv-sniffer/server/http/handlers.Version=..."
var Version = "dev"

type health struct {
	Status  string `json:"status"`
	Version string `json:"version"`
	Uptime  string `json:"uptime"`
}

func Health(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	_ = json.NewEncoder(w).Encode(health{
		Status:  "ok",
		Version: Version,
		Uptime:  time.Since(started).Truncate(time.Second).String(),
	})
}

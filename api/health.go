package handler

import (
	"fmt"
	"net/http"
)

// Health answers uptime probes.
func (a *App) Health(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	fmt.Fprint(w, "Bot is running!")
}

package health

import (
	"encoding/json"
	"net/http"

	"github.com/jusunglee/romanji/internal/romanji"
)

// probe is romanized on every health check to prove the tables are loaded.
const probe = "か"

// Handler reports ok while conv can romanize a known kana.
func Handler(conv *romanji.Converter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if conv.Convert(probe, nil) == "" {
			w.WriteHeader(http.StatusServiceUnavailable)
			json.NewEncoder(w).Encode(map[string]string{"status": "tables not loaded"})
			return
		}
		json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	}
}

package httpapi

import (
	"encoding/json"
	"net/http"
	"time"
)

// Envelope de respuesta de la API móvil:
// - error:   {success:false, status, code, reason, timeStamp, path}
// - success: {success:true, status, timeStamp, path, ...payload}
// El cliente depende de este formato, no cambiarlo a la ligera.

// Error escribe una respuesta de error con el envelope estándar.
// reason es texto para humanos; code es estable para el cliente.
func Error(w http.ResponseWriter, r *http.Request, status int, code, reason string) {
	body := map[string]any{
		"success":   false,
		"status":    status,
		"code":      code,
		"reason":    reason,
		"timeStamp": time.Now().UTC().Format(time.RFC3339),
		"path":      r.URL.Path,
	}
	write(w, status, body)
}

// OK escribe una respuesta exitosa; las claves de payload van al tope
// del JSON, junto a success/status/timeStamp/path.
func OK(w http.ResponseWriter, r *http.Request, status int, payload map[string]any) {
	body := map[string]any{
		"success":   true,
		"status":    status,
		"timeStamp": time.Now().UTC().Format(time.RFC3339),
		"path":      r.URL.Path,
	}
	for k, v := range payload {
		if k == "" {
			continue
		}
		body[k] = v
	}
	write(w, status, body)
}

func write(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	qrcode "github.com/skip2/go-qrcode"
)

var qrViews = map[string]string{
	"scoreboard": "/scoreboard",
	"zones":      "/zones",
	"records":    "/records",
}

// GET /qr/{view}.png
// Encodes the view's URL so staff can open it on a phone by scanning the
// screen.
func QR(w http.ResponseWriter, r *http.Request) {
	view := chi.URLParam(r, "view")
	path, ok := qrViews[view]
	if !ok {
		http.NotFound(w, r)
		return
	}

	url := "http://" + r.Host + path

	png, err := qrcode.Encode(url, qrcode.Medium, 256)
	if err != nil {
		http.Error(w, "failed to generate qr", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(png)
}

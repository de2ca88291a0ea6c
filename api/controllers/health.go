package controllers

import (
	"net/http"
	"time"

	"github.com/olashile-studio/gallery-backend/api/responses"
)

func Health() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		responses.WriteJSON(w, http.StatusOK, map[string]string{
			"status":    "OK",
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		})
	}
}

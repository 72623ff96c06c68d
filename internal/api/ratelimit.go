package api

import (
	"net/http"
	"time"

	"github.com/go-chi/httprate"
)

func limitLogin() func(http.Handler) http.Handler {
	return limitByIP(10, 5*time.Minute)
}

func limitSignup() func(http.Handler) http.Handler {
	return limitByIP(5, time.Hour)
}

func limitPasswordReset() func(http.Handler) http.Handler {
	return limitByIP(5, 15*time.Minute)
}

func limitChat() func(http.Handler) http.Handler {
	return limitByIP(30, time.Minute)
}

func limitByIP(limit int, window time.Duration) func(http.Handler) http.Handler {
	return httprate.LimitByIP(limit, window)
}

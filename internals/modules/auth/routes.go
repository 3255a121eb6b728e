package auth

import "github.com/go-chi/chi/v5"

func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()

	r.Post("/login", h.LogIn)

	return r
}

/*
- POST: /auth/login -> operator login
	req auth : false
	body : LogInRequest
	resp : LogInResponse
*/

package handlers

import (
	"net/http"

	"github.com/Iros-07/PhoneKrisha/internal/middleware"

	"github.com/gorilla/mux"
)

// NewRouter wires every API route onto a mux router.
func NewRouter(h *Handler) http.Handler {
	r := mux.NewRouter()

	// --- Auth ---
	r.HandleFunc("/register", h.Register).Methods("POST")
	r.HandleFunc("/login", h.Login).Methods("POST")

	// --- Users ---
	r.HandleFunc("/user/{user_id:[0-9]+}", h.GetUser).Methods("GET")
	r.HandleFunc("/user/{user_id:[0-9]+}", h.UpdateUser).Methods("PUT")

	// --- Ads ---
	r.HandleFunc("/ads", h.GetAds).Methods("GET")
	r.HandleFunc("/ads/add", h.AddAd).Methods("POST")
	r.HandleFunc("/ads/update/{ad_id:[0-9]+}", h.UpdateAd).Methods("PUT")
	r.HandleFunc("/ads/delete/{ad_id:[0-9]+}", h.DeleteAd).Methods("DELETE")
	r.HandleFunc("/ads/{ad_id:[0-9]+}", h.GetAd).Methods("GET")

	// --- Favorites ---
	r.HandleFunc("/favorites/add", h.AddFavorite).Methods("POST")
	r.HandleFunc("/favorites/remove", h.RemoveFavorite).Methods("POST")
	r.HandleFunc("/favorites/{user_id:[0-9]+}", h.GetFavorites).Methods("GET")

	// --- Messages ---
	r.HandleFunc("/messages/send", h.SendMessage).Methods("POST")
	r.HandleFunc("/messages/{from_id:[0-9]+}/{to_id:[0-9]+}", h.GetMessages).Methods("GET")
	r.HandleFunc("/chats/{user_id:[0-9]+}", h.GetChats).Methods("GET")

	// --- Media ---
	r.HandleFunc("/upload_photo", h.UploadPhoto).Methods("POST")
	r.PathPrefix(photoURLPrefix).HandlerFunc(h.ServePhoto).Methods("GET")

	// --- Live events ---
	r.HandleFunc("/ws", h.ServeWS)

	return middleware.CORS(middleware.Logging(r))
}

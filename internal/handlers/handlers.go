package handlers

import (
	"database/sql"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/Iros-07/PhoneKrisha/internal/models"
	"github.com/Iros-07/PhoneKrisha/internal/repos"
	"github.com/Iros-07/PhoneKrisha/internal/utils"

	"github.com/gorilla/mux"
)

type Handler struct {
	db    *sql.DB
	hub   *Hub
	repos *repos.Repos

	photosDir    string
	maxPhotoSize int
}

func NewHandler(db *sql.DB, photosDir string, maxPhotoSize int) *Handler {
	h := &Handler{
		db:           db,
		hub:          NewHub(),
		repos:        repos.New(db),
		photosDir:    photosDir,
		maxPhotoSize: maxPhotoSize,
	}
	// start hub run loop for safe broadcasting
	go h.hub.Run()
	return h
}

// ServeWS proxies WebSocket requests to the hub
func (h *Handler) ServeWS(w http.ResponseWriter, r *http.Request) {
	h.hub.ServeWS(w, r)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func writeOK(w http.ResponseWriter) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func pathID(r *http.Request, name string) (int, bool) {
	id, err := strconv.Atoi(mux.Vars(r)[name])
	return id, err == nil
}

//
// ===================== AUTH =====================
//

// POST /register
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req struct {
		FIO      string `json:"fio"`
		Phone    string `json:"phone"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid body")
		return
	}

	if ok, msg := utils.ValidateRegisterData(req.FIO, req.Phone, req.Email); !ok {
		writeError(w, http.StatusBadRequest, msg)
		return
	}
	if err := utils.ValidatePassword(req.Password); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if ok, _ := h.emailExists(req.Email); ok {
		writeError(w, http.StatusBadRequest, "email already registered")
		return
	}

	hash, err := utils.HashPassword(req.Password)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	id, err := h.repos.Users.Create(req.FIO, req.Phone, req.Email, hash)
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to create user")
		return
	}

	writeJSON(w, http.StatusOK, models.User{
		ID:    id,
		FIO:   req.FIO,
		Phone: req.Phone,
		Email: req.Email,
	})
}

func (h *Handler) emailExists(email string) (bool, error) {
	_, _, err := h.repos.Users.GetByEmail(email)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// POST /login
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid body")
		return
	}

	user, hash, err := h.repos.Users.GetByEmail(req.Email)
	if err != nil || utils.VerifyPassword(hash, req.Password) != nil {
		writeError(w, http.StatusUnauthorized, "Invalid credentials")
		return
	}

	writeJSON(w, http.StatusOK, user)
}

//
// ===================== USERS =====================
//

// GET /user/{user_id}
func (h *Handler) GetUser(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "user_id")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid user id")
		return
	}

	user, err := h.repos.Users.GetByID(id)
	if err != nil {
		writeError(w, http.StatusNotFound, "User not found")
		return
	}

	writeJSON(w, http.StatusOK, user)
}

// PUT /user/{user_id}
func (h *Handler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "user_id")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid user id")
		return
	}

	var req struct {
		FIO      string `json:"fio"`
		Phone    string `json:"phone"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid body")
		return
	}

	if ok, msg := utils.ValidateRegisterData(req.FIO, req.Phone, req.Email); !ok {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	if _, err := h.repos.Users.GetByID(id); err != nil {
		writeError(w, http.StatusNotFound, "User not found")
		return
	}

	// пароль меняется только если он передан
	newHash := ""
	if req.Password != "" {
		if err := utils.ValidatePassword(req.Password); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		var err error
		newHash, err = utils.HashPassword(req.Password)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
	}

	if err := h.repos.Users.Update(id, req.FIO, req.Phone, req.Email, newHash); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to update user")
		return
	}

	writeOK(w)
}

//
// ===================== ADS =====================
//

// GET /ads
func (h *Handler) GetAds(w http.ResponseWriter, r *http.Request) {
	filter, err := parseAdFilter(r.URL.Query())
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	ads, err := h.repos.Ads.List(filter)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load ads")
		return
	}

	for i := range ads {
		ads[i].Photos = h.photoURLs(r, ads[i].Photos)
	}
	if ads == nil {
		ads = []models.Ad{}
	}

	writeJSON(w, http.StatusOK, ads)
}

// GET /ads/{ad_id}
func (h *Handler) GetAd(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "ad_id")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid ad id")
		return
	}

	ad, err := h.repos.Ads.GetByID(id)
	if err != nil {
		writeError(w, http.StatusNotFound, "Ad not found")
		return
	}

	ad.Photos = h.photoURLs(r, ad.Photos)
	writeJSON(w, http.StatusOK, ad)
}

// POST /ads/add
func (h *Handler) AddAd(w http.ResponseWriter, r *http.Request) {
	var ad models.Ad
	if err := json.NewDecoder(r.Body).Decode(&ad); err != nil {
		writeError(w, http.StatusBadRequest, "invalid body")
		return
	}

	if ok, msg := utils.ValidateAdData(&ad); !ok {
		writeError(w, http.StatusBadRequest, msg)
		return
	}
	if _, err := h.repos.Users.GetByID(ad.UserID); err != nil {
		writeError(w, http.StatusBadRequest, "unknown user")
		return
	}

	stripPhotoURLs(&ad)

	id, err := h.repos.Ads.Insert(&ad)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to create ad")
		return
	}

	if created, err := h.repos.Ads.GetByID(id); err == nil {
		h.hub.Broadcast(WSMessage{"type": "ad_created", "ad": created})
	}

	writeOK(w)
}

// PUT /ads/update/{ad_id}
func (h *Handler) UpdateAd(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "ad_id")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid ad id")
		return
	}

	var ad models.Ad
	if err := json.NewDecoder(r.Body).Decode(&ad); err != nil {
		writeError(w, http.StatusBadRequest, "invalid body")
		return
	}

	if ok, msg := utils.ValidateAdData(&ad); !ok {
		writeError(w, http.StatusBadRequest, msg)
		return
	}
	if _, err := h.repos.Ads.GetByID(id); err != nil {
		writeError(w, http.StatusNotFound, "Ad not found")
		return
	}

	stripPhotoURLs(&ad)

	if err := h.repos.Ads.Update(id, &ad); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to update ad")
		return
	}

	writeOK(w)
}

// DELETE /ads/delete/{ad_id}
func (h *Handler) DeleteAd(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "ad_id")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid ad id")
		return
	}

	if err := h.repos.Ads.Delete(id); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to delete ad")
		return
	}

	writeOK(w)
}

//
// ===================== FAVORITES =====================
//

// GET /favorites/{user_id}
func (h *Handler) GetFavorites(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "user_id")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid user id")
		return
	}

	ads, err := h.repos.Favorites.List(id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load favorites")
		return
	}

	for i := range ads {
		ads[i].Photos = h.photoURLs(r, ads[i].Photos)
	}
	if ads == nil {
		ads = []models.Ad{}
	}

	writeJSON(w, http.StatusOK, ads)
}

// POST /favorites/add
func (h *Handler) AddFavorite(w http.ResponseWriter, r *http.Request) {
	var req struct {
		UserID int `json:"user_id"`
		AdID   int `json:"ad_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid body")
		return
	}

	if _, err := h.repos.Ads.GetByID(req.AdID); err != nil {
		writeError(w, http.StatusNotFound, "Ad not found")
		return
	}

	if err := h.repos.Favorites.Add(req.UserID, req.AdID); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to add favorite")
		return
	}

	writeOK(w)
}

// POST /favorites/remove
func (h *Handler) RemoveFavorite(w http.ResponseWriter, r *http.Request) {
	var req struct {
		UserID int `json:"user_id"`
		AdID   int `json:"ad_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid body")
		return
	}

	if err := h.repos.Favorites.Remove(req.UserID, req.AdID); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to remove favorite")
		return
	}

	writeOK(w)
}

//
// ===================== MESSAGES =====================
//

// GET /messages/{from_id}/{to_id}
func (h *Handler) GetMessages(w http.ResponseWriter, r *http.Request) {
	fromID, ok1 := pathID(r, "from_id")
	toID, ok2 := pathID(r, "to_id")
	if !ok1 || !ok2 {
		writeError(w, http.StatusBadRequest, "invalid user id")
		return
	}

	msgs, err := h.repos.Messages.GetBetween(fromID, toID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load messages")
		return
	}
	if msgs == nil {
		msgs = []models.Message{}
	}

	writeJSON(w, http.StatusOK, msgs)
}

// POST /messages/send
func (h *Handler) SendMessage(w http.ResponseWriter, r *http.Request) {
	var req struct {
		FromUserID int    `json:"from_user_id"`
		ToUserID   int    `json:"to_user_id"`
		Text       string `json:"message"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid body")
		return
	}

	if ok, msg := utils.ValidateMessageText(req.Text); !ok {
		writeError(w, http.StatusBadRequest, msg)
		return
	}
	if _, err := h.repos.Users.GetByID(req.ToUserID); err != nil {
		writeError(w, http.StatusNotFound, "Recipient not found")
		return
	}

	id, createdAt, err := h.repos.Messages.Insert(req.FromUserID, req.ToUserID, req.Text)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to save message")
		return
	}

	h.hub.Broadcast(WSMessage{
		"type":         "message",
		"id":           id,
		"from_user_id": req.FromUserID,
		"to_user_id":   req.ToUserID,
		"message":      req.Text,
		"timestamp":    createdAt,
	})

	writeOK(w)
}

// GET /chats/{user_id}
func (h *Handler) GetChats(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "user_id")
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid user id")
		return
	}

	partners, err := h.repos.Messages.ListPartners(id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load chats")
		return
	}
	if partners == nil {
		partners = []models.ChatPartner{}
	}

	writeJSON(w, http.StatusOK, partners)
}

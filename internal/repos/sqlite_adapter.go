package repos

import (
	"database/sql"

	"github.com/Iros-07/PhoneKrisha/internal/database"
	"github.com/Iros-07/PhoneKrisha/internal/models"
)

// New wires SQLite-backed adapters behind every repository interface.
func New(db *sql.DB) *Repos {
	return &Repos{
		Users:     &userAdapter{db},
		Ads:       &adAdapter{db},
		Favorites: &favoriteAdapter{db},
		Messages:  &messageAdapter{db},
	}
}

type userAdapter struct {
	db *sql.DB
}

func (s *userAdapter) GetByID(id int) (*models.User, error) {
	return database.GetUserByID(s.db, id)
}

func (s *userAdapter) GetByEmail(email string) (*models.User, string, error) {
	return database.GetUserByEmail(s.db, email)
}

func (s *userAdapter) Create(fio, phone, email, passwordHash string) (int, error) {
	return database.CreateUser(s.db, fio, phone, email, passwordHash)
}

func (s *userAdapter) Update(id int, fio, phone, email, newPasswordHash string) error {
	return database.UpdateUser(s.db, id, fio, phone, email, newPasswordHash)
}

type adAdapter struct {
	db *sql.DB
}

func (s *adAdapter) List(filter *models.AdFilter) ([]models.Ad, error) {
	return database.ListAds(s.db, filter)
}

func (s *adAdapter) GetByID(id int) (*models.Ad, error) {
	return database.GetAdByID(s.db, id)
}

func (s *adAdapter) Insert(ad *models.Ad) (int, error) {
	return database.InsertAd(s.db, ad)
}

func (s *adAdapter) Update(id int, ad *models.Ad) error {
	return database.UpdateAd(s.db, id, ad)
}

func (s *adAdapter) Delete(id int) error {
	return database.DeleteAd(s.db, id)
}

type favoriteAdapter struct {
	db *sql.DB
}

func (s *favoriteAdapter) List(userID int) ([]models.Ad, error) {
	return database.ListFavorites(s.db, userID)
}

func (s *favoriteAdapter) Add(userID, adID int) error {
	return database.AddFavorite(s.db, userID, adID)
}

func (s *favoriteAdapter) Remove(userID, adID int) error {
	return database.RemoveFavorite(s.db, userID, adID)
}

type messageAdapter struct {
	db *sql.DB
}

func (s *messageAdapter) Insert(from, to int, text string) (int, string, error) {
	return database.InsertMessage(s.db, from, to, text)
}

func (s *messageAdapter) GetBetween(a, b int) ([]models.Message, error) {
	return database.GetMessagesBetween(s.db, a, b)
}

func (s *messageAdapter) ListPartners(userID int) ([]models.ChatPartner, error) {
	return database.ListChatPartners(s.db, userID)
}

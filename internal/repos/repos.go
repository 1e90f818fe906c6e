package repos

import (
	"github.com/Iros-07/PhoneKrisha/internal/models"
)

// UserRepo defines methods to access users
type UserRepo interface {
	GetByID(id int) (*models.User, error)
	GetByEmail(email string) (*models.User, string, error)
	Create(fio, phone, email, passwordHash string) (int, error)
	Update(id int, fio, phone, email, newPasswordHash string) error
}

// AdRepo defines methods to access listings
type AdRepo interface {
	List(filter *models.AdFilter) ([]models.Ad, error)
	GetByID(id int) (*models.Ad, error)
	Insert(ad *models.Ad) (int, error)
	Update(id int, ad *models.Ad) error
	Delete(id int) error
}

// FavoriteRepo defines methods to access the user/ad favorite relation
type FavoriteRepo interface {
	List(userID int) ([]models.Ad, error)
	Add(userID, adID int) error
	Remove(userID, adID int) error
}

// MessageRepo defines methods to access private messages
type MessageRepo interface {
	Insert(from, to int, text string) (int, string, error)
	GetBetween(a, b int) ([]models.Message, error)
	ListPartners(userID int) ([]models.ChatPartner, error)
}

// Repos groups repository interfaces for convenience
type Repos struct {
	Users     UserRepo
	Ads       AdRepo
	Favorites FavoriteRepo
	Messages  MessageRepo
}

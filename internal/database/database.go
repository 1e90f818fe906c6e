package database

import (
	"database/sql"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/Iros-07/PhoneKrisha/internal/models"

	_ "github.com/mattn/go-sqlite3"
)

// InitDB opens the SQLite database, creating the parent directory when needed.
func InitDB(dbPath string) (*sql.DB, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create data directory: %v", err)
		}
	}

	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %v", err)
	}

	log.Printf("Using database file: %s", dbPath)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to connect to database: %v", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		return nil, fmt.Errorf("failed to enable foreign keys: %v", err)
	}

	return db, nil
}

// RunMigrations executes all database migrations
func RunMigrations(db *sql.DB) error {
	migrations := []string{
		createUsersTable,
		createAdsTable,
		createFavoritesTable,
		createMessagesTable,
		createIndexes,
	}

	for _, migration := range migrations {
		if _, err := db.Exec(migration); err != nil {
			return fmt.Errorf("migration failed: %v", err)
		}
	}

	return nil
}

const createUsersTable = `
CREATE TABLE IF NOT EXISTS users (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    fio TEXT NOT NULL,
    phone TEXT NOT NULL,
    email TEXT NOT NULL UNIQUE,
    password_hash TEXT NOT NULL,
    created_at DATETIME DEFAULT CURRENT_TIMESTAMP
);
`

const createAdsTable = `
CREATE TABLE IF NOT EXISTS ads (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    user_id INTEGER NOT NULL,
    title TEXT NOT NULL,
    description TEXT,
    rooms INTEGER NOT NULL DEFAULT 0,
    city TEXT NOT NULL,
    address TEXT,
    lat REAL,
    lon REAL,
    photos TEXT NOT NULL DEFAULT '[]',
    price INTEGER NOT NULL DEFAULT 0,
    ad_type TEXT NOT NULL DEFAULT '',
    house_type TEXT NOT NULL DEFAULT '',
    floor INTEGER NOT NULL DEFAULT 0,
    floors_in_house INTEGER NOT NULL DEFAULT 0,
    year_built INTEGER NOT NULL DEFAULT 0,
    area REAL NOT NULL DEFAULT 0,
    complex TEXT,
    created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
    FOREIGN KEY (user_id) REFERENCES users (id)
);
`

const createFavoritesTable = `
CREATE TABLE IF NOT EXISTS favorites (
    user_id INTEGER NOT NULL,
    ad_id INTEGER NOT NULL,
    created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
    PRIMARY KEY (user_id, ad_id),
    FOREIGN KEY (user_id) REFERENCES users (id),
    FOREIGN KEY (ad_id) REFERENCES ads (id) ON DELETE CASCADE
);
`

const createMessagesTable = `
CREATE TABLE IF NOT EXISTS messages (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    from_user_id INTEGER NOT NULL,
    to_user_id INTEGER NOT NULL,
    message TEXT NOT NULL,
    timestamp DATETIME DEFAULT CURRENT_TIMESTAMP,
    FOREIGN KEY (from_user_id) REFERENCES users (id),
    FOREIGN KEY (to_user_id) REFERENCES users (id)
);
`

const createIndexes = `
CREATE INDEX IF NOT EXISTS idx_users_email_lower ON users (LOWER(email));
CREATE INDEX IF NOT EXISTS idx_ads_city_lower ON ads (LOWER(city));
CREATE INDEX IF NOT EXISTS idx_messages_pair ON messages (from_user_id, to_user_id);
`

// sqliteTimeLayout is how sqlite's datetime('now') renders timestamps.
const sqliteTimeLayout = "2006-01-02 15:04:05"

func toRFC3339(raw string) string {
	if t, err := time.Parse(sqliteTimeLayout, raw); err == nil {
		return t.UTC().Format(time.RFC3339)
	}
	return raw
}

//
// ===================== USERS =====================
//

// CreateUser inserts a new user and returns its id.
func CreateUser(db *sql.DB, fio, phone, email, passwordHash string) (int, error) {
	res, err := db.Exec(
		"INSERT INTO users (fio, phone, email, password_hash) VALUES (?, ?, ?, ?)",
		fio, phone, email, passwordHash,
	)
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return int(id), nil
}

// GetUserByID retrieves a user by ID
func GetUserByID(db *sql.DB, userID int) (*models.User, error) {
	var user models.User
	err := db.QueryRow(
		"SELECT id, fio, phone, email FROM users WHERE id = ?", userID,
	).Scan(&user.ID, &user.FIO, &user.Phone, &user.Email)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// GetUserByEmail retrieves a user plus password hash for login checks.
func GetUserByEmail(db *sql.DB, email string) (*models.User, string, error) {
	var user models.User
	var hash string
	err := db.QueryRow(
		"SELECT id, fio, phone, email, password_hash FROM users WHERE LOWER(email) = LOWER(?)",
		email,
	).Scan(&user.ID, &user.FIO, &user.Phone, &user.Email, &hash)
	if err != nil {
		return nil, "", err
	}
	return &user, hash, nil
}

func EmailExists(db *sql.DB, email string) (bool, error) {
	var count int
	err := db.QueryRow(
		"SELECT COUNT(*) FROM users WHERE LOWER(email) = LOWER(?)",
		email,
	).Scan(&count)
	return count > 0, err
}

// UpdateUser updates profile fields; the password is changed only when
// newPasswordHash is non-empty.
func UpdateUser(db *sql.DB, userID int, fio, phone, email, newPasswordHash string) error {
	query := "UPDATE users SET fio = ?, phone = ?, email = ?"
	args := []interface{}{fio, phone, email}
	if newPasswordHash != "" {
		query += ", password_hash = ?"
		args = append(args, newPasswordHash)
	}
	query += " WHERE id = ?"
	args = append(args, userID)

	_, err := db.Exec(query, args...)
	return err
}

//
// ===================== ADS =====================
//

// InsertAd creates a new listing and returns its id. Photos must already
// be bare file names, not URLs.
func InsertAd(db *sql.DB, ad *models.Ad) (int, error) {
	res, err := db.Exec(`
		INSERT INTO ads (user_id, title, description, rooms, city, address, lat, lon,
		                 photos, price, ad_type, house_type, floor, floors_in_house,
		                 year_built, area, complex)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		ad.UserID, ad.Title, ad.Description, ad.Rooms, ad.City, ad.Address,
		ad.Lat, ad.Lon, encodePhotos(ad.Photos), ad.Price, ad.AdType, ad.HouseType,
		ad.Floor, ad.FloorsInHouse, ad.YearBuilt, ad.Area, ad.Complex,
	)
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return int(id), nil
}

// UpdateAd rewrites every mutable field of a listing.
func UpdateAd(db *sql.DB, adID int, ad *models.Ad) error {
	_, err := db.Exec(`
		UPDATE ads
		SET title = ?, description = ?, rooms = ?, city = ?, address = ?,
		    lat = ?, lon = ?, photos = ?, price = ?, ad_type = ?, house_type = ?,
		    floor = ?, floors_in_house = ?, year_built = ?, area = ?, complex = ?
		WHERE id = ?`,
		ad.Title, ad.Description, ad.Rooms, ad.City, ad.Address,
		ad.Lat, ad.Lon, encodePhotos(ad.Photos), ad.Price, ad.AdType, ad.HouseType,
		ad.Floor, ad.FloorsInHouse, ad.YearBuilt, ad.Area, ad.Complex,
		adID,
	)
	return err
}

func DeleteAd(db *sql.DB, adID int) error {
	_, err := db.Exec("DELETE FROM ads WHERE id = ?", adID)
	return err
}

const adSelectColumns = `
	a.id, a.user_id, a.title, a.description, a.rooms, a.city, a.address,
	a.lat, a.lon, a.photos, a.price, a.ad_type, a.house_type, a.floor,
	a.floors_in_house, a.year_built, a.area, a.complex,
	u.fio AS user_fio, u.phone AS user_phone
`

// GetAdByID retrieves a single listing joined with its owner.
func GetAdByID(db *sql.DB, adID int) (*models.Ad, error) {
	row := db.QueryRow(`
		SELECT `+adSelectColumns+`
		FROM ads a
		JOIN users u ON a.user_id = u.id
		WHERE a.id = ?`, adID)

	ad, err := scanAdRow(row)
	if err != nil {
		return nil, err
	}
	return ad, nil
}

// ListAds returns listings matching the filter, newest first. A nil or
// zero filter returns everything.
func ListAds(db *sql.DB, filter *models.AdFilter) ([]models.Ad, error) {
	var where []string
	var args []interface{}

	if filter != nil {
		if filter.Title != "" {
			where = append(where, "a.title LIKE ?")
			args = append(args, "%"+filter.Title+"%")
		}
		if filter.City != "" {
			where = append(where, "LOWER(a.city) = LOWER(?)")
			args = append(args, filter.City)
		}
		if filter.Rooms != nil {
			where = append(where, "a.rooms = ?")
			args = append(args, *filter.Rooms)
		}
		if filter.PriceMin != nil {
			where = append(where, "a.price >= ?")
			args = append(args, *filter.PriceMin)
		}
		if filter.PriceMax != nil {
			where = append(where, "a.price <= ?")
			args = append(args, *filter.PriceMax)
		}
		if filter.AdType != "" {
			where = append(where, "LOWER(a.ad_type) = LOWER(?)")
			args = append(args, filter.AdType)
		}
		if filter.HouseType != "" {
			where = append(where, "LOWER(a.house_type) = LOWER(?)")
			args = append(args, filter.HouseType)
		}
		if filter.FloorMin != nil {
			where = append(where, "a.floor >= ?")
			args = append(args, *filter.FloorMin)
		}
		if filter.FloorMax != nil {
			where = append(where, "a.floor <= ?")
			args = append(args, *filter.FloorMax)
		}
		if filter.YearBuiltMin != nil {
			where = append(where, "a.year_built >= ?")
			args = append(args, *filter.YearBuiltMin)
		}
		if filter.YearBuiltMax != nil {
			where = append(where, "a.year_built <= ?")
			args = append(args, *filter.YearBuiltMax)
		}
		if filter.AreaMin != nil {
			where = append(where, "a.area >= ?")
			args = append(args, *filter.AreaMin)
		}
		if filter.AreaMax != nil {
			where = append(where, "a.area <= ?")
			args = append(args, *filter.AreaMax)
		}
		if filter.Complex != "" {
			where = append(where, "a.complex LIKE ?")
			args = append(args, "%"+filter.Complex+"%")
		}
	}

	query := `
		SELECT ` + adSelectColumns + `
		FROM ads a
		JOIN users u ON a.user_id = u.id
	`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY a.id DESC"

	rows, err := db.Query(query, args...)
	if err != nil {
		return nil, err
	}

	return ScanAds(rows)
}

//
// ===================== FAVORITES =====================
//

// AddFavorite is idempotent: re-adding an existing favorite is a no-op.
func AddFavorite(db *sql.DB, userID, adID int) error {
	_, err := db.Exec(
		"INSERT OR IGNORE INTO favorites (user_id, ad_id) VALUES (?, ?)",
		userID, adID,
	)
	return err
}

func RemoveFavorite(db *sql.DB, userID, adID int) error {
	_, err := db.Exec(
		"DELETE FROM favorites WHERE user_id = ? AND ad_id = ?",
		userID, adID,
	)
	return err
}

// ListFavorites returns the user's favorite listings, newest first.
func ListFavorites(db *sql.DB, userID int) ([]models.Ad, error) {
	rows, err := db.Query(`
		SELECT `+adSelectColumns+`
		FROM ads a
		JOIN users u ON a.user_id = u.id
		WHERE a.id IN (SELECT ad_id FROM favorites WHERE user_id = ?)
		ORDER BY a.id DESC`, userID)
	if err != nil {
		return nil, err
	}

	return ScanAds(rows)
}

//
// ===================== MESSAGES =====================
//

// InsertMessage stores a new private message and returns the new message
// id and its RFC3339 timestamp.
func InsertMessage(db *sql.DB, fromUser, toUser int, text string) (int, string, error) {
	res, err := db.Exec(
		"INSERT INTO messages (from_user_id, to_user_id, message, timestamp) VALUES (?, ?, ?, datetime('now'))",
		fromUser, toUser, text,
	)
	if err != nil {
		return 0, "", err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, "", err
	}

	var createdAt string
	err = db.QueryRow("SELECT timestamp FROM messages WHERE id = ?", id).Scan(&createdAt)
	if err != nil {
		return int(id), "", err
	}
	return int(id), toRFC3339(createdAt), nil
}

// GetMessagesBetween returns the conversation between two users in both
// directions, oldest first.
func GetMessagesBetween(db *sql.DB, userA, userB int) ([]models.Message, error) {
	rows, err := db.Query(`
		SELECT id, from_user_id, to_user_id, message, timestamp
		FROM messages
		WHERE (from_user_id = ? AND to_user_id = ?) OR (from_user_id = ? AND to_user_id = ?)
		ORDER BY datetime(timestamp) ASC, id ASC`,
		userA, userB, userB, userA)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var msgs []models.Message
	for rows.Next() {
		var m models.Message
		var raw string
		if err := rows.Scan(&m.ID, &m.FromUserID, &m.ToUserID, &m.Text, &raw); err != nil {
			return nil, err
		}
		m.Timestamp = toRFC3339(raw)
		msgs = append(msgs, m)
	}
	return msgs, rows.Err()
}

// ListChatPartners returns one row per conversation partner with the
// latest exchanged message, most recent conversation first.
func ListChatPartners(db *sql.DB, userID int) ([]models.ChatPartner, error) {
	rows, err := db.Query(`
		SELECT sub.partner_id,
		       COALESCE(u.fio, '') AS partner_name,
		       sub.message,
		       sub.timestamp
		FROM (
			SELECT CASE WHEN from_user_id = ? THEN to_user_id ELSE from_user_id END AS partner_id,
			       message, timestamp,
			       ROW_NUMBER() OVER (
			           PARTITION BY CASE WHEN from_user_id = ? THEN to_user_id ELSE from_user_id END
			           ORDER BY datetime(timestamp) DESC, id DESC
			       ) AS rn
			FROM messages
			WHERE from_user_id = ? OR to_user_id = ?
		) sub
		LEFT JOIN users u ON u.id = sub.partner_id
		WHERE sub.rn = 1
		ORDER BY datetime(sub.timestamp) DESC`,
		userID, userID, userID, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.ChatPartner
	for rows.Next() {
		var p models.ChatPartner
		var raw string
		if err := rows.Scan(&p.PartnerID, &p.PartnerName, &p.LastMessage, &raw); err != nil {
			return nil, err
		}
		p.Timestamp = toRFC3339(raw)
		out = append(out, p)
	}
	return out, rows.Err()
}

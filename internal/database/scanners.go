package database

import (
	"database/sql"
	"encoding/json"
	"log"

	"github.com/Iros-07/PhoneKrisha/internal/models"
)

// rowScanner covers both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...interface{}) error
}

// scanAdRow scans one listing row in adSelectColumns order.
func scanAdRow(row rowScanner) (*models.Ad, error) {
	var ad models.Ad
	var description, address, complexName sql.NullString
	var lat, lon sql.NullFloat64
	var photosRaw string

	err := row.Scan(
		&ad.ID, &ad.UserID, &ad.Title, &description, &ad.Rooms, &ad.City, &address,
		&lat, &lon, &photosRaw, &ad.Price, &ad.AdType, &ad.HouseType, &ad.Floor,
		&ad.FloorsInHouse, &ad.YearBuilt, &ad.Area, &complexName,
		&ad.UserFIO, &ad.UserPhone,
	)
	if err != nil {
		return nil, err
	}

	ad.Description = description.String
	ad.Address = address.String
	ad.Complex = complexName.String
	if lat.Valid {
		v := lat.Float64
		ad.Lat = &v
	}
	if lon.Valid {
		v := lon.Float64
		ad.Lon = &v
	}
	ad.Photos = decodePhotos(photosRaw)

	return &ad, nil
}

// ScanAds scans rows into []models.Ad given a query returning
// adSelectColumns (order used in current queries)
func ScanAds(rows *sql.Rows) ([]models.Ad, error) {
	defer rows.Close()
	var ads []models.Ad
	for rows.Next() {
		ad, err := scanAdRow(rows)
		if err != nil {
			log.Printf("ScanAds error: %v", err)
			return nil, err
		}
		ads = append(ads, *ad)
	}
	return ads, rows.Err()
}

// encodePhotos serializes photo file names for the photos column.
func encodePhotos(photos []string) string {
	if photos == nil {
		photos = []string{}
	}
	data, err := json.Marshal(photos)
	if err != nil {
		return "[]"
	}
	return string(data)
}

// decodePhotos tolerates malformed stored values and yields an empty list.
func decodePhotos(raw string) []string {
	if raw == "" {
		return []string{}
	}
	var photos []string
	if err := json.Unmarshal([]byte(raw), &photos); err != nil {
		return []string{}
	}
	if photos == nil {
		photos = []string{}
	}
	return photos
}

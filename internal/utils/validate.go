package utils

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/Iros-07/PhoneKrisha/internal/models"
)

func IsValidEmail(email string) bool {
	re := regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)
	return re.MatchString(email)
}

// IsValidPhone accepts digits with optional leading +, spaces, dashes
// and parentheses, 5 to 20 characters of actual digits.
func IsValidPhone(phone string) bool {
	digits := 0
	for i, r := range phone {
		switch {
		case r >= '0' && r <= '9':
			digits++
		case r == '+' && i == 0:
		case r == ' ' || r == '-' || r == '(' || r == ')':
		default:
			return false
		}
	}
	return digits >= 5 && digits <= 20
}

// ValidateRegisterData validates registration fields.
func ValidateRegisterData(fio, phone, email string) (bool, string) {
	if strings.TrimSpace(fio) == "" {
		return false, "Full name cannot be empty"
	}
	if !IsValidPhone(phone) {
		return false, "Invalid phone number"
	}
	if !IsValidEmail(email) {
		return false, "Invalid email address"
	}
	return true, ""
}

// ValidateAdData validates listing data for validity
func ValidateAdData(ad *models.Ad) (bool, string) {
	title := strings.TrimSpace(ad.Title)
	city := strings.TrimSpace(ad.City)

	if title == "" {
		return false, "Title cannot be empty"
	}
	if utf8.RuneCountInString(title) < 3 {
		return false, "Title must contain at least 3 characters"
	}
	if utf8.RuneCountInString(title) > 120 {
		return false, "Title cannot exceed 120 characters"
	}

	if city == "" {
		return false, "City cannot be empty"
	}

	if ad.Price < 0 {
		return false, "Price cannot be negative"
	}
	if ad.Rooms < 0 {
		return false, "Rooms cannot be negative"
	}
	if ad.Area < 0 {
		return false, "Area cannot be negative"
	}
	if ad.FloorsInHouse > 0 && ad.Floor > ad.FloorsInHouse {
		return false, "Floor cannot be above the building height"
	}

	if utf8.RuneCountInString(ad.Description) > 5000 {
		return false, "Description cannot exceed 5000 characters"
	}

	return true, ""
}

// ValidateMessageText validates chat message content.
func ValidateMessageText(text string) (bool, string) {
	text = strings.TrimSpace(text)

	if text == "" {
		return false, "Message cannot be empty"
	}

	if utf8.RuneCountInString(text) > 1000 {
		return false, "Message cannot exceed 1000 characters"
	}

	return true, ""
}

// StripPhotoPrefix reduces an absolute photo URL back to the stored
// file name, mirroring what the backend keeps in the photos column.
func StripPhotoPrefix(photo string) string {
	if idx := strings.Index(photo, "/static/photos/"); idx >= 0 {
		return photo[idx+len("/static/photos/"):]
	}
	return photo
}

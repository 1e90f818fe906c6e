package handlers

import (
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/Iros-07/PhoneKrisha/internal/models"
	"github.com/Iros-07/PhoneKrisha/internal/utils"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"
)

const photoURLPrefix = "/static/photos/"

// requestBaseURL reconstructs the externally visible base URL so that
// photo links work from any device on the network.
func requestBaseURL(r *http.Request) string {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	return scheme + "://" + r.Host
}

// photoURLs turns stored file names into absolute URLs for responses.
func (h *Handler) photoURLs(r *http.Request, names []string) []string {
	base := requestBaseURL(r) + photoURLPrefix
	urls := make([]string, 0, len(names))
	for _, name := range names {
		urls = append(urls, base+utils.StripPhotoPrefix(name))
	}
	return urls
}

// stripPhotoURLs reduces incoming photo URLs to bare file names before
// the listing is stored.
func stripPhotoURLs(ad *models.Ad) {
	for i, p := range ad.Photos {
		ad.Photos[i] = utils.StripPhotoPrefix(p)
	}
}

// POST /upload_photo
//
// Multipart form with a "photo" part. The image is re-encoded and, when
// its longest side exceeds the configured limit, downscaled before being
// stored under a random name.
func (h *Handler) UploadPhoto(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}

	file, header, err := r.FormFile("photo")
	if err != nil {
		writeError(w, http.StatusBadRequest, "No photo part")
		return
	}
	defer file.Close()

	img, err := imaging.Decode(file, imaging.AutoOrientation(true))
	if err != nil {
		writeError(w, http.StatusBadRequest, "unsupported image format")
		return
	}

	if h.maxPhotoSize > 0 {
		bounds := img.Bounds()
		if bounds.Dx() > h.maxPhotoSize || bounds.Dy() > h.maxPhotoSize {
			img = imaging.Fit(img, h.maxPhotoSize, h.maxPhotoSize, imaging.Lanczos)
		}
	}

	ext := strings.ToLower(filepath.Ext(header.Filename))
	switch ext {
	case ".jpg", ".jpeg", ".png", ".gif", ".bmp", ".tif", ".tiff":
	default:
		ext = ".jpg"
	}
	name := uuid.New().String() + ext

	if err := os.MkdirAll(h.photosDir, 0755); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to store photo")
		return
	}
	path := filepath.Join(h.photosDir, name)
	if err := imaging.Save(img, path, imaging.JPEGQuality(85)); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to store photo")
		return
	}

	url := requestBaseURL(r) + photoURLPrefix + name
	log.Printf("Фото загружено: %s → %s", name, url)

	writeJSON(w, http.StatusOK, map[string]string{"url": url})
}

// ServePhoto handles GET /static/photos/{name}.
func (h *Handler) ServePhoto(w http.ResponseWriter, r *http.Request) {
	name := filepath.Base(strings.TrimPrefix(r.URL.Path, photoURLPrefix))
	if name == "." || name == "/" {
		http.NotFound(w, r)
		return
	}
	http.ServeFile(w, r, filepath.Join(h.photosDir, name))
}

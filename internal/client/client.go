// Package client is the typed HTTP client for the Krisha backend. It
// holds no state beyond the configured base URL and is safe to share
// process-wide. Every operation is a single attempt with fixed
// timeouts; retries are the caller's decision.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/Iros-07/PhoneKrisha/internal/models"
)

const (
	defaultConnectTimeout = 10 * time.Second
	defaultRequestTimeout = 25 * time.Second
)

type Client struct {
	baseURL string
	http    *http.Client
}

// New creates a client for the given base URL with default timeouts.
func New(baseURL string) *Client {
	transport := &http.Transport{
		DialContext: (&net.Dialer{
			Timeout: defaultConnectTimeout,
		}).DialContext,
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http: &http.Client{
			Timeout:   defaultRequestTimeout,
			Transport: transport,
		},
	}
}

// NewWithHTTPClient creates a client with a caller-supplied http.Client,
// mainly for tests that want short timeouts.
func NewWithHTTPClient(baseURL string, hc *http.Client) *Client {
	return &Client{baseURL: strings.TrimRight(baseURL, "/"), http: hc}
}

//
// ===================== AUTH =====================
//

func (c *Client) Register(ctx context.Context, fio, phone, email, password string) (*models.User, error) {
	body := map[string]string{"fio": fio, "phone": phone, "email": email, "password": password}
	var user models.User
	if err := c.call(ctx, http.MethodPost, "/register", nil, body, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

func (c *Client) Login(ctx context.Context, email, password string) (*models.User, error) {
	body := map[string]string{"email": email, "password": password}
	var user models.User
	if err := c.call(ctx, http.MethodPost, "/login", nil, body, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

//
// ===================== USERS =====================
//

func (c *Client) GetUser(ctx context.Context, userID int) (*models.User, error) {
	var user models.User
	if err := c.call(ctx, http.MethodGet, fmt.Sprintf("/user/%d", userID), nil, nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// UpdateUserRequest carries profile updates; Password is optional.
type UpdateUserRequest struct {
	FIO      string `json:"fio"`
	Phone    string `json:"phone"`
	Email    string `json:"email"`
	Password string `json:"password,omitempty"`
}

func (c *Client) UpdateUser(ctx context.Context, userID int, req UpdateUserRequest) error {
	return c.call(ctx, http.MethodPut, fmt.Sprintf("/user/%d", userID), nil, req, nil)
}

//
// ===================== ADS =====================
//

func (c *Client) ListAds(ctx context.Context, filter *models.AdFilter) ([]models.Ad, error) {
	var ads []models.Ad
	if err := c.call(ctx, http.MethodGet, "/ads", filterQuery(filter), nil, &ads); err != nil {
		return nil, err
	}
	return ads, nil
}

func (c *Client) GetAd(ctx context.Context, adID int) (*models.Ad, error) {
	var ad models.Ad
	if err := c.call(ctx, http.MethodGet, fmt.Sprintf("/ads/%d", adID), nil, nil, &ad); err != nil {
		return nil, err
	}
	return &ad, nil
}

func (c *Client) CreateAd(ctx context.Context, ad *models.Ad) error {
	return c.call(ctx, http.MethodPost, "/ads/add", nil, ad, nil)
}

func (c *Client) UpdateAd(ctx context.Context, adID int, ad *models.Ad) error {
	return c.call(ctx, http.MethodPut, fmt.Sprintf("/ads/update/%d", adID), nil, ad, nil)
}

func (c *Client) DeleteAd(ctx context.Context, adID int) error {
	return c.call(ctx, http.MethodDelete, fmt.Sprintf("/ads/delete/%d", adID), nil, nil, nil)
}

//
// ===================== FAVORITES =====================
//

func (c *Client) ListFavorites(ctx context.Context, userID int) ([]models.Ad, error) {
	var ads []models.Ad
	if err := c.call(ctx, http.MethodGet, fmt.Sprintf("/favorites/%d", userID), nil, nil, &ads); err != nil {
		return nil, err
	}
	return ads, nil
}

func (c *Client) AddFavorite(ctx context.Context, userID, adID int) error {
	body := map[string]int{"user_id": userID, "ad_id": adID}
	return c.call(ctx, http.MethodPost, "/favorites/add", nil, body, nil)
}

func (c *Client) RemoveFavorite(ctx context.Context, userID, adID int) error {
	body := map[string]int{"user_id": userID, "ad_id": adID}
	return c.call(ctx, http.MethodPost, "/favorites/remove", nil, body, nil)
}

//
// ===================== MESSAGES =====================
//

func (c *Client) ListMessages(ctx context.Context, userID, peerID int) ([]models.Message, error) {
	var msgs []models.Message
	path := fmt.Sprintf("/messages/%d/%d", userID, peerID)
	if err := c.call(ctx, http.MethodGet, path, nil, nil, &msgs); err != nil {
		return nil, err
	}
	return msgs, nil
}

func (c *Client) SendMessage(ctx context.Context, fromID, toID int, text string) error {
	body := map[string]interface{}{
		"from_user_id": fromID,
		"to_user_id":   toID,
		"message":      text,
	}
	return c.call(ctx, http.MethodPost, "/messages/send", nil, body, nil)
}

func (c *Client) ListConversations(ctx context.Context, userID int) ([]models.ChatPartner, error) {
	var partners []models.ChatPartner
	if err := c.call(ctx, http.MethodGet, fmt.Sprintf("/chats/%d", userID), nil, nil, &partners); err != nil {
		return nil, err
	}
	return partners, nil
}

//
// ===================== MEDIA =====================
//

// UploadPhoto sends the photo bytes as a multipart form and returns the
// URL the server stored it under.
func (c *Client) UploadPhoto(ctx context.Context, filename string, photo io.Reader) (string, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("photo", filename)
	if err != nil {
		return "", fmt.Errorf("build multipart form: %w", err)
	}
	if _, err := io.Copy(part, photo); err != nil {
		return "", fmt.Errorf("build multipart form: %w", err)
	}
	if err := mw.Close(); err != nil {
		return "", fmt.Errorf("build multipart form: %w", err)
	}

	fullURL := c.baseURL + "/upload_photo"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, fullURL, &buf)
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	var out struct {
		URL string `json:"url"`
	}
	if err := c.send(req, &out); err != nil {
		return "", err
	}
	return out.URL, nil
}

//
// ===================== TRANSPORT =====================
//

// call performs one round trip: JSON in, JSON out, no retries.
func (c *Client) call(ctx context.Context, method, path string, query url.Values, body, out interface{}) error {
	fullURL := c.baseURL + path
	if len(query) > 0 {
		fullURL += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request body: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, fullURL, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	return c.send(req, out)
}

func (c *Client) send(req *http.Request, out interface{}) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return &NetworkError{URL: req.URL.String(), Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &APIError{StatusCode: resp.StatusCode, Message: readErrorMessage(resp.Body)}
	}

	if out == nil {
		io.Copy(io.Discard, resp.Body)
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &DecodeError{URL: req.URL.String(), Err: err}
	}
	return nil
}

// readErrorMessage extracts {"error": ...} bodies, falling back to the
// raw text for servers that answer with plain strings.
func readErrorMessage(body io.Reader) string {
	data, err := io.ReadAll(io.LimitReader(body, 4096))
	if err != nil {
		return ""
	}
	var decoded struct {
		Error string `json:"error"`
	}
	if json.Unmarshal(data, &decoded) == nil && decoded.Error != "" {
		return decoded.Error
	}
	return strings.TrimSpace(string(data))
}

// filterQuery encodes only the predicates the filter actually sets.
func filterQuery(f *models.AdFilter) url.Values {
	q := url.Values{}
	if f == nil {
		return q
	}

	setStr := func(name, v string) {
		if v != "" {
			q.Set(name, v)
		}
	}
	setInt := func(name string, v *int) {
		if v != nil {
			q.Set(name, strconv.Itoa(*v))
		}
	}

	setStr("title", f.Title)
	setStr("city", f.City)
	setStr("ad_type", f.AdType)
	setStr("house_type", f.HouseType)
	setStr("complex", f.Complex)

	setInt("rooms", f.Rooms)
	setInt("floor_min", f.FloorMin)
	setInt("floor_max", f.FloorMax)
	setInt("year_built_min", f.YearBuiltMin)
	setInt("year_built_max", f.YearBuiltMax)

	if f.PriceMin != nil {
		q.Set("price_min", strconv.FormatInt(*f.PriceMin, 10))
	}
	if f.PriceMax != nil {
		q.Set("price_max", strconv.FormatInt(*f.PriceMax, 10))
	}
	if f.AreaMin != nil {
		q.Set("area_min", strconv.FormatFloat(*f.AreaMin, 'f', -1, 64))
	}
	if f.AreaMax != nil {
		q.Set("area_max", strconv.FormatFloat(*f.AreaMax, 'f', -1, 64))
	}

	return q
}

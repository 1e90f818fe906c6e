package handlers

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/Iros-07/PhoneKrisha/internal/client"
	"github.com/Iros-07/PhoneKrisha/internal/database"
	"github.com/Iros-07/PhoneKrisha/internal/models"

	"github.com/gorilla/websocket"
	_ "github.com/mattn/go-sqlite3"
)

// newTestServer wires the full stack: in-memory sqlite, real router, real
// middleware, driven through the typed client.
func newTestServer(t *testing.T) (*Handler, *httptest.Server, *client.Client) {
	t.Helper()

	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		t.Fatal(err)
	}
	if err := database.RunMigrations(db); err != nil {
		t.Fatalf("migrations: %v", err)
	}

	h := NewHandler(db, t.TempDir(), 64)
	srv := httptest.NewServer(NewRouter(h))
	t.Cleanup(srv.Close)

	return h, srv, client.New(srv.URL)
}

func mustRegister(t *testing.T, c *client.Client, fio, email string) *models.User {
	t.Helper()
	user, err := c.Register(context.Background(), fio, "+77001234567", email, "secret123")
	if err != nil {
		t.Fatalf("register %s: %v", email, err)
	}
	return user
}

func TestRegisterAndLogin(t *testing.T) {
	_, _, c := newTestServer(t)
	ctx := context.Background()

	user := mustRegister(t, c, "Иванов Иван", "ivan@example.com")
	if user.ID == 0 || user.FIO != "Иванов Иван" {
		t.Errorf("register returned %+v", user)
	}

	// повторная регистрация на тот же email
	_, err := c.Register(ctx, "Другой", "+77007654321", "ivan@example.com", "secret123")
	var apiErr *client.APIError
	if !errors.As(err, &apiErr) || apiErr.StatusCode != http.StatusBadRequest {
		t.Errorf("duplicate email: got %v", err)
	}

	logged, err := c.Login(ctx, "ivan@example.com", "secret123")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if logged.ID != user.ID {
		t.Errorf("login returned id %d, want %d", logged.ID, user.ID)
	}

	_, err = c.Login(ctx, "ivan@example.com", "wrongpass")
	if !errors.As(err, &apiErr) || apiErr.StatusCode != http.StatusUnauthorized {
		t.Errorf("wrong password: got %v", err)
	}
	if apiErr.Message != "Invalid credentials" {
		t.Errorf("message = %q", apiErr.Message)
	}
}

func TestGetAndUpdateUser(t *testing.T) {
	_, _, c := newTestServer(t)
	ctx := context.Background()

	user := mustRegister(t, c, "Old Name", "u@example.com")

	got, err := c.GetUser(ctx, user.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Email != "u@example.com" {
		t.Errorf("got %+v", got)
	}

	_, err = c.GetUser(ctx, 9999)
	var apiErr *client.APIError
	if !errors.As(err, &apiErr) || apiErr.StatusCode != http.StatusNotFound {
		t.Errorf("missing user: got %v", err)
	}

	err = c.UpdateUser(ctx, user.ID, client.UpdateUserRequest{
		FIO: "New Name", Phone: "+77009998877", Email: "u@example.com",
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}

	got, _ = c.GetUser(ctx, user.ID)
	if got.FIO != "New Name" {
		t.Errorf("fio = %q", got.FIO)
	}

	// пароль не передавали, старый должен работать
	if _, err := c.Login(ctx, "u@example.com", "secret123"); err != nil {
		t.Errorf("old password stopped working: %v", err)
	}
}

func TestAdsLifecycle(t *testing.T) {
	_, _, c := newTestServer(t)
	ctx := context.Background()

	user := mustRegister(t, c, "Продавец", "seller@example.com")

	err := c.CreateAd(ctx, &models.Ad{
		UserID: user.ID, Title: "2-комнатная в центре", City: "Алматы",
		Rooms: 2, Price: 25000000, AdType: "Продажа", HouseType: "Квартира",
		Floor: 3, FloorsInHouse: 9, YearBuilt: 2015, Area: 54.5,
	})
	if err != nil {
		t.Fatalf("create ad: %v", err)
	}
	err = c.CreateAd(ctx, &models.Ad{
		UserID: user.ID, Title: "Дом с участком", City: "Астана",
		Rooms: 5, Price: 90000000, AdType: "Продажа", HouseType: "Дом", Area: 160,
	})
	if err != nil {
		t.Fatal(err)
	}

	ads, err := c.ListAds(ctx, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(ads) != 2 {
		t.Fatalf("expected 2 ads, got %d", len(ads))
	}
	if ads[0].Title != "Дом с участком" {
		t.Errorf("expected newest first, got %q", ads[0].Title)
	}

	filtered, err := c.ListAds(ctx, &models.AdFilter{City: "алматы"})
	if err != nil {
		t.Fatal(err)
	}
	if len(filtered) != 1 || filtered[0].Title != "2-комнатная в центре" {
		t.Errorf("city filter returned %+v", filtered)
	}

	detail, err := c.GetAd(ctx, filtered[0].ID)
	if err != nil {
		t.Fatal(err)
	}
	if detail.UserFIO != "Продавец" {
		t.Errorf("owner not joined: %+v", detail)
	}

	detail.Title = "2-комнатная, торг"
	if err := c.UpdateAd(ctx, detail.ID, detail); err != nil {
		t.Fatalf("update ad: %v", err)
	}
	updated, _ := c.GetAd(ctx, detail.ID)
	if updated.Title != "2-комнатная, торг" {
		t.Errorf("title = %q", updated.Title)
	}

	if err := c.DeleteAd(ctx, detail.ID); err != nil {
		t.Fatalf("delete ad: %v", err)
	}
	_, err = c.GetAd(ctx, detail.ID)
	var apiErr *client.APIError
	if !errors.As(err, &apiErr) || apiErr.StatusCode != http.StatusNotFound {
		t.Errorf("deleted ad lookup: got %v", err)
	}
	if apiErr.Message != "Ad not found" {
		t.Errorf("message = %q", apiErr.Message)
	}
}

func TestAdValidationRejected(t *testing.T) {
	_, _, c := newTestServer(t)
	user := mustRegister(t, c, "U", "u@example.com")

	err := c.CreateAd(context.Background(), &models.Ad{UserID: user.ID, Title: "ab", City: "Алматы"})
	var apiErr *client.APIError
	if !errors.As(err, &apiErr) || apiErr.StatusCode != http.StatusBadRequest {
		t.Errorf("short title: got %v", err)
	}
}

func TestBadFilterParamRejected(t *testing.T) {
	_, srv, _ := newTestServer(t)

	resp, err := http.Get(srv.URL + "/ads?price_min=abc")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.StatusCode)
	}
}

func TestFavorites(t *testing.T) {
	_, _, c := newTestServer(t)
	ctx := context.Background()

	owner := mustRegister(t, c, "Owner", "owner@example.com")
	buyer := mustRegister(t, c, "Buyer", "buyer@example.com")

	if err := c.CreateAd(ctx, &models.Ad{UserID: owner.ID, Title: "Квартира", City: "Алматы"}); err != nil {
		t.Fatal(err)
	}
	ads, _ := c.ListAds(ctx, nil)
	adID := ads[0].ID

	if err := c.AddFavorite(ctx, buyer.ID, adID); err != nil {
		t.Fatalf("add favorite: %v", err)
	}

	var apiErr *client.APIError
	err := c.AddFavorite(ctx, buyer.ID, 9999)
	if !errors.As(err, &apiErr) || apiErr.StatusCode != http.StatusNotFound {
		t.Errorf("favorite for missing ad: got %v", err)
	}

	favs, err := c.ListFavorites(ctx, buyer.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(favs) != 1 || favs[0].ID != adID {
		t.Errorf("favorites = %+v", favs)
	}

	if err := c.RemoveFavorite(ctx, buyer.ID, adID); err != nil {
		t.Fatal(err)
	}
	favs, _ = c.ListFavorites(ctx, buyer.ID)
	if len(favs) != 0 {
		t.Errorf("favorites after removal = %+v", favs)
	}
}

func TestSendAndListMessages(t *testing.T) {
	_, _, c := newTestServer(t)
	ctx := context.Background()

	alice := mustRegister(t, c, "Alice", "alice@example.com")
	bob := mustRegister(t, c, "Bob", "bob@example.com")

	before := time.Now().UTC().Add(-2 * time.Second)
	if err := c.SendMessage(ctx, alice.ID, bob.ID, "hi"); err != nil {
		t.Fatalf("send: %v", err)
	}

	msgs, err := c.ListMessages(ctx, alice.ID, bob.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(msgs) != 1 {
		t.Fatalf("expected 1 message, got %d", len(msgs))
	}
	if msgs[0].Text != "hi" || msgs[0].FromUserID != alice.ID || msgs[0].ToUserID != bob.ID {
		t.Errorf("message = %+v", msgs[0])
	}

	ts, err := time.Parse(time.RFC3339, msgs[0].Timestamp)
	if err != nil {
		t.Fatalf("timestamp %q not RFC3339: %v", msgs[0].Timestamp, err)
	}
	if ts.Before(before) {
		t.Errorf("timestamp %v predates the send call", ts)
	}

	// получатель видит ту же переписку
	mirror, err := c.ListMessages(ctx, bob.ID, alice.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(mirror) != 1 {
		t.Errorf("mirror view has %d messages", len(mirror))
	}

	var apiErr *client.APIError
	err = c.SendMessage(ctx, alice.ID, 9999, "в никуда")
	if !errors.As(err, &apiErr) || apiErr.StatusCode != http.StatusNotFound {
		t.Errorf("missing recipient: got %v", err)
	}

	err = c.SendMessage(ctx, alice.ID, bob.ID, "   ")
	if !errors.As(err, &apiErr) || apiErr.StatusCode != http.StatusBadRequest {
		t.Errorf("blank message: got %v", err)
	}
}

func TestConversationList(t *testing.T) {
	_, _, c := newTestServer(t)
	ctx := context.Background()

	alice := mustRegister(t, c, "Alice", "alice@example.com")
	bob := mustRegister(t, c, "Bob", "bob@example.com")

	if err := c.SendMessage(ctx, alice.ID, bob.ID, "первое"); err != nil {
		t.Fatal(err)
	}
	if err := c.SendMessage(ctx, bob.ID, alice.ID, "последнее"); err != nil {
		t.Fatal(err)
	}

	partners, err := c.ListConversations(ctx, alice.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(partners) != 1 {
		t.Fatalf("expected 1 partner, got %d", len(partners))
	}
	p := partners[0]
	if p.PartnerID != bob.ID || p.PartnerName != "Bob" || p.LastMessage != "последнее" {
		t.Errorf("partner row = %+v", p)
	}
}

func testPNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 100, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func TestUploadAndServePhoto(t *testing.T) {
	_, srv, c := newTestServer(t)
	ctx := context.Background()

	url, err := c.UploadPhoto(ctx, "room.png", bytes.NewReader(testPNG(t, 200, 100)))
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	if !strings.Contains(url, "/static/photos/") {
		t.Fatalf("unexpected photo url %q", url)
	}
	if !strings.HasPrefix(url, srv.URL) {
		t.Errorf("url %q not absolute against %q", url, srv.URL)
	}

	resp, err := http.Get(url)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("serving uploaded photo: status %d", resp.StatusCode)
	}
}

func TestAdPhotosStoredAsNamesServedAsURLs(t *testing.T) {
	_, srv, c := newTestServer(t)
	ctx := context.Background()

	user := mustRegister(t, c, "U", "u@example.com")
	url, err := c.UploadPhoto(ctx, "room.png", bytes.NewReader(testPNG(t, 50, 50)))
	if err != nil {
		t.Fatal(err)
	}

	err = c.CreateAd(ctx, &models.Ad{
		UserID: user.ID, Title: "С фотографией", City: "Алматы",
		Photos: []string{url},
	})
	if err != nil {
		t.Fatal(err)
	}

	ads, err := c.ListAds(ctx, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(ads) != 1 || len(ads[0].Photos) != 1 {
		t.Fatalf("ads = %+v", ads)
	}
	if got := ads[0].Photos[0]; !strings.HasPrefix(got, srv.URL+"/static/photos/") {
		t.Errorf("photo url = %q", got)
	}
}

func TestUploadRejectsNonImage(t *testing.T) {
	_, _, c := newTestServer(t)

	_, err := c.UploadPhoto(context.Background(), "notes.txt", strings.NewReader("just text"))
	var apiErr *client.APIError
	if !errors.As(err, &apiErr) || apiErr.StatusCode != http.StatusBadRequest {
		t.Errorf("non-image upload: got %v", err)
	}
}

func TestWebSocketReceivesMessageEvents(t *testing.T) {
	h, srv, c := newTestServer(t)
	ctx := context.Background()

	alice := mustRegister(t, c, "Alice", "alice@example.com")
	bob := mustRegister(t, c, "Bob", "bob@example.com")

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial ws: %v", err)
	}
	defer conn.Close()

	// регистрация в хабе происходит после рукопожатия
	for i := 0; i < 100 && h.hub.ClientCount() == 0; i++ {
		time.Sleep(10 * time.Millisecond)
	}
	if h.hub.ClientCount() == 0 {
		t.Fatal("websocket client never registered")
	}

	if err := c.SendMessage(ctx, alice.ID, bob.ID, "событие"); err != nil {
		t.Fatal(err)
	}

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var event map[string]interface{}
	if err := conn.ReadJSON(&event); err != nil {
		t.Fatalf("read ws event: %v", err)
	}
	if event["type"] != "message" || event["message"] != "событие" {
		t.Errorf("event = %+v", event)
	}
}

func TestEmptyListsAreJSONArrays(t *testing.T) {
	_, srv, _ := newTestServer(t)

	for _, path := range []string{"/ads", "/favorites/1", "/messages/1/2", "/chats/1"} {
		resp, err := http.Get(srv.URL + path)
		if err != nil {
			t.Fatal(err)
		}
		var buf bytes.Buffer
		buf.ReadFrom(resp.Body)
		resp.Body.Close()

		if body := strings.TrimSpace(buf.String()); body != "[]" {
			t.Errorf("GET %s = %q, want []", path, body)
		}
	}
}

// Package testutil provides shared fixtures for backend tests.
package testutil

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"

	"shelfswap/internal/models"
	"shelfswap/internal/repository"
)

// TB is the subset of testing.TB the fixtures need.
type TB interface {
	Helper()
	Fatalf(string, ...any)
}

// TinyPNG returns an in-memory PNG byte slice with the requested dimensions.
func TinyPNG(t TB, w, h int) []byte {
	t.Helper()
	buf := bytes.NewBuffer(nil)
	if err := png.Encode(buf, solid(w, h)); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

// TinyJPEG returns an in-memory JPEG byte slice with the requested dimensions.
func TinyJPEG(t TB, w, h int) []byte {
	t.Helper()
	buf := bytes.NewBuffer(nil)
	if err := jpeg.Encode(buf, solid(w, h), &jpeg.Options{Quality: 80}); err != nil {
		t.Fatalf("encode jpeg: %v", err)
	}
	return buf.Bytes()
}

func solid(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: 220, G: 120, B: 160, A: 255})
		}
	}
	return img
}

// CreateUser inserts a user with a placeholder password hash.
func CreateUser(t TB, store *repository.Store, username string) *models.User {
	t.Helper()
	u := &models.User{
		Username:    username,
		Email:       username + "@example.com",
		Password:    "x",
		DisplayName: username,
	}
	if err := store.Users.Create(context.Background(), u); err != nil {
		t.Fatalf("create user %s: %v", username, err)
	}
	return u
}

// CreateCollectible inserts a collectible owned by userID.
func CreateCollectible(t TB, store *repository.Store, userID uint, name, series string, forTrade bool) *models.Collectible {
	t.Helper()
	c := &models.Collectible{
		UserID:   userID,
		Name:     name,
		Series:   series,
		Variant:  "Regular",
		Rarity:   models.RarityCommon,
		ForTrade: forTrade,
	}
	if err := store.Collectibles.Create(context.Background(), c); err != nil {
		t.Fatalf("create collectible %s: %v", name, err)
	}
	return c
}

// CreateTrade inserts a pending trade between two owned collectibles.
func CreateTrade(t TB, store *repository.Store, proposer, receiver *models.User, offered, requested *models.Collectible) *models.Trade {
	t.Helper()
	tr := &models.Trade{
		ProposerID:            proposer.ID,
		ReceiverID:            receiver.ID,
		ProposerCollectibleID: offered.ID,
		ReceiverCollectibleID: requested.ID,
	}
	if err := store.Trades.Create(context.Background(), tr); err != nil {
		t.Fatalf("create trade: %v", err)
	}
	return tr
}

// CreatePost inserts a text post.
func CreatePost(t TB, store *repository.Store, userID uint, content string) *models.Post {
	t.Helper()
	p := &models.Post{UserID: userID, Content: content}
	if err := store.Posts.Create(context.Background(), p); err != nil {
		t.Fatalf("create post: %v", err)
	}
	return p
}

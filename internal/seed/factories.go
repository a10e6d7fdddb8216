// Package seed creates demo and synthetic data through the entity store.
// These helpers are intended for development and testing only.
package seed

import (
	"context"
	"fmt"
	"strings"

	"shelfswap/internal/models"
	"shelfswap/internal/repository"

	"github.com/brianvoe/gofakeit/v6"
	"golang.org/x/crypto/bcrypt"
)

// FakePassword is the password of every generated account.
const FakePassword = "Collect0r-Pass"

var (
	seriesNames = []string{
		"Dimoo", "Skullpanda", "Molly", "Labubu", "Hirono", "Crybaby",
		"Pucky", "Kubo", "Zsiga", "Hacipupu",
	}
	variantWords = []string{
		"Dream", "Explorer", "Guardian", "Voyager", "Candy", "Night",
		"Garden", "Cosmic", "Ocean", "Forest", "Carnival", "Secret",
	}
	rarities = []models.Rarity{
		models.RarityCommon, models.RarityCommon, models.RarityCommon,
		models.RarityRare, models.RarityRare, models.RarityUltraRare, models.RarityLimited,
	}
)

// Factory builds domain entities with gofakeit and persists them through
// the store. A fixed Seed makes the generated content reproducible.
type Factory struct {
	store  *repository.Store
	faker  *gofakeit.Faker
	hashed string
}

// NewFactory creates a Factory. seed 0 picks a random seed.
func NewFactory(store *repository.Store, seed int64) (*Factory, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(FakePassword), bcrypt.MinCost)
	if err != nil {
		return nil, err
	}
	return &Factory{store: store, faker: gofakeit.New(seed), hashed: string(hashed)}, nil
}

// BuildUser returns an unsaved user with a unique-looking username.
func (f *Factory) BuildUser() *models.User {
	first := f.faker.FirstName()
	last := f.faker.LastName()
	username := strings.ToLower(fmt.Sprintf("%s_%s%d", first, last, f.faker.Number(10, 9999)))
	if len(username) > 30 {
		username = username[:30]
	}
	return &models.User{
		Username:    username,
		Email:       username + "@" + f.faker.DomainName(),
		Password:    f.hashed,
		DisplayName: first + " " + last,
		Bio:         f.faker.Sentence(8),
	}
}

// BuildCollectible returns an unsaved collectible owned by userID.
func (f *Factory) BuildCollectible(userID uint) *models.Collectible {
	series := seriesNames[f.faker.Number(0, len(seriesNames)-1)]
	variant := capitalize(f.faker.Adjective()) + " " + variantWords[f.faker.Number(0, len(variantWords)-1)]
	return &models.Collectible{
		UserID:      userID,
		Name:        series + " " + f.faker.Noun() + " Series",
		Series:      series,
		Variant:     variant,
		Rarity:      rarities[f.faker.Number(0, len(rarities)-1)],
		Image:       fmt.Sprintf("https://picsum.photos/seed/%s/600/600", f.faker.UUID()),
		Description: f.faker.Sentence(10),
		ForTrade:    f.faker.Bool(),
	}
}

// BuildPost returns an unsaved post with up to two images.
func (f *Factory) BuildPost(userID uint) *models.Post {
	post := &models.Post{
		UserID:  userID,
		Content: f.faker.Paragraph(1, 2, 12, " "),
	}
	for i := f.faker.Number(0, 2); i > 0; i-- {
		post.Images = append(post.Images, fmt.Sprintf("https://picsum.photos/seed/%s/800/800", f.faker.UUID()))
	}
	return post
}

// CreateUser persists a generated user. Overrides run before insert.
func (f *Factory) CreateUser(ctx context.Context, overrides ...func(*models.User)) (*models.User, error) {
	user := f.BuildUser()
	for _, o := range overrides {
		o(user)
	}
	if err := f.store.Users.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

func (f *Factory) CreateCollectible(ctx context.Context, owner *models.User, overrides ...func(*models.Collectible)) (*models.Collectible, error) {
	item := f.BuildCollectible(owner.ID)
	for _, o := range overrides {
		o(item)
	}
	if err := f.store.Collectibles.Create(ctx, item); err != nil {
		return nil, err
	}
	return item, nil
}

func (f *Factory) CreatePost(ctx context.Context, author *models.User, overrides ...func(*models.Post)) (*models.Post, error) {
	post := f.BuildPost(author.ID)
	for _, o := range overrides {
		o(post)
	}
	if err := f.store.Posts.Create(ctx, post); err != nil {
		return nil, err
	}
	return post, nil
}

func (f *Factory) CreateComment(ctx context.Context, author *models.User, post *models.Post) (*models.Comment, error) {
	comment := &models.Comment{
		UserID:  author.ID,
		PostID:  post.ID,
		Content: f.faker.Sentence(f.faker.Number(3, 12)),
	}
	if err := f.store.Comments.Create(ctx, comment); err != nil {
		return nil, err
	}
	return comment, nil
}

// CreateLike reports false when the like already existed.
func (f *Factory) CreateLike(ctx context.Context, user *models.User, post *models.Post) (bool, error) {
	return f.store.Posts.Like(ctx, user.ID, post.ID)
}

// CreateFollow reports false when the pair already existed.
func (f *Factory) CreateFollow(ctx context.Context, follower, following *models.User) (bool, error) {
	err := f.store.Follows.Create(ctx, &models.Follow{FollowerID: follower.ID, FollowingID: following.ID})
	if models.IsCode(err, models.CodeConflict) {
		return false, nil
	}
	return err == nil, err
}

// Intn exposes the factory's deterministic source to seed presets.
func (f *Factory) Intn(n int) int {
	if n <= 0 {
		return 0
	}
	return f.faker.Number(0, n-1)
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

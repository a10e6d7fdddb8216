package seed

import (
	"context"
	_ "embed"
	"fmt"
	"log/slog"

	"shelfswap/internal/models"
	"shelfswap/internal/repository"

	"golang.org/x/crypto/bcrypt"
	"gopkg.in/yaml.v3"
)

//go:embed catalog.yml
var catalogYAML []byte

// Catalog is the demo data shipped with the binary.
type Catalog struct {
	Users []CatalogUser `yaml:"users"`
}

type CatalogUser struct {
	Username     string               `yaml:"username"`
	Email        string               `yaml:"email"`
	Password     string               `yaml:"password"`
	DisplayName  string               `yaml:"display_name"`
	Bio          string               `yaml:"bio"`
	ProfileImage string               `yaml:"profile_image"`
	Collectibles []CatalogCollectible `yaml:"collectibles"`
	Posts        []CatalogPost        `yaml:"posts"`
}

type CatalogCollectible struct {
	Name        string `yaml:"name"`
	Series      string `yaml:"series"`
	Variant     string `yaml:"variant"`
	Rarity      string `yaml:"rarity"`
	Image       string `yaml:"image"`
	Description string `yaml:"description"`
	ForTrade    bool   `yaml:"for_trade"`
}

type CatalogPost struct {
	Content string   `yaml:"content"`
	Images  []string `yaml:"images"`
}

// LoadCatalog parses the embedded demo catalog.
func LoadCatalog() (*Catalog, error) {
	return ParseCatalog(catalogYAML)
}

// ParseCatalog decodes and checks a catalog document.
func ParseCatalog(raw []byte) (*Catalog, error) {
	var cat Catalog
	if err := yaml.Unmarshal(raw, &cat); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}
	for _, u := range cat.Users {
		if u.Username == "" || u.Email == "" || u.Password == "" {
			return nil, fmt.Errorf("catalog user %q: username, email and password are required", u.Username)
		}
		for _, c := range u.Collectibles {
			if !models.Rarity(c.Rarity).Valid() {
				return nil, fmt.Errorf("catalog collectible %q: unknown rarity %q", c.Name, c.Rarity)
			}
		}
	}
	return &cat, nil
}

// Demo inserts the catalog. Users that already exist are left untouched
// along with their shelves, so running it twice is safe.
func Demo(ctx context.Context, store *repository.Store, cat *Catalog) (int, error) {
	created := 0
	for _, cu := range cat.Users {
		_, err := store.Users.GetByUsername(ctx, cu.Username)
		if err == nil {
			continue
		}
		if !models.IsCode(err, models.CodeNotFound) {
			return created, err
		}

		hashed, err := bcrypt.GenerateFromPassword([]byte(cu.Password), bcrypt.DefaultCost)
		if err != nil {
			return created, err
		}
		user := &models.User{
			Username:     cu.Username,
			Email:        cu.Email,
			Password:     string(hashed),
			DisplayName:  cu.DisplayName,
			Bio:          cu.Bio,
			ProfileImage: cu.ProfileImage,
		}
		if user.DisplayName == "" {
			user.DisplayName = user.Username
		}
		if err := store.Users.Create(ctx, user); err != nil {
			return created, fmt.Errorf("create demo user %s: %w", cu.Username, err)
		}

		for _, cc := range cu.Collectibles {
			item := &models.Collectible{
				UserID:      user.ID,
				Name:        cc.Name,
				Series:      cc.Series,
				Variant:     cc.Variant,
				Rarity:      models.Rarity(cc.Rarity),
				Image:       cc.Image,
				Description: cc.Description,
				ForTrade:    cc.ForTrade,
			}
			if err := store.Collectibles.Create(ctx, item); err != nil {
				return created, fmt.Errorf("create demo collectible %s: %w", cc.Name, err)
			}
		}
		for _, cp := range cu.Posts {
			post := &models.Post{UserID: user.ID, Content: cp.Content, Images: cp.Images}
			if err := store.Posts.Create(ctx, post); err != nil {
				return created, fmt.Errorf("create demo post: %w", err)
			}
		}

		created++
		slog.InfoContext(ctx, "demo user seeded",
			slog.String("username", user.Username),
			slog.Int("collectibles", len(cu.Collectibles)))
	}
	return created, nil
}

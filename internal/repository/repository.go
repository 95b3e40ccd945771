package repository

import (
	"log/slog"
	"net/url"
	"time"

	"tinyrisks_admin/internal/domain/models"
	"tinyrisks_admin/internal/storage/apiclient"
)

const (
	snippetsPath        = "/api/snippets"
	buildPath           = "/api/build"
	communityImagesPath = "/api/community-images"
	textPostsPath       = "/api/text-posts"
	logoutPath          = "/api/logout"
)

type Repository struct {
	api      *apiclient.Client
	Gallery  GalleryRepository
	TextPost TextPostRepository
	Snippet  SnippetRepository
	Site     SiteRepository
}

func NewRepository(log *slog.Logger, baseURL string, timeout time.Duration, opts ...apiclient.Option) (*Repository, error) {
	api, err := apiclient.New(log, baseURL, timeout, opts...)
	if err != nil {
		return nil, err
	}

	return &Repository{
		api:      api,
		Gallery:  NewGalleryRepo(api),
		TextPost: NewTextPostRepo(api),
		Snippet:  NewSnippetRepo(api),
		Site:     NewSiteRepo(api),
	}, nil
}

// API exposes the underlying client, e.g. for resolving absolute URLs.
func (r *Repository) API() *apiclient.Client {
	return r.api
}

func itemPath(collection string, id models.ID) string {
	return collection + "/" + url.PathEscape(id.String())
}

package admin

import (
	"log/slog"

	"tinyrisks_admin/internal/repository"
	"tinyrisks_admin/internal/services/auth"
	blogservice "tinyrisks_admin/internal/services/blog_service"
	galleryservice "tinyrisks_admin/internal/services/gallery_service"
	mediaservice "tinyrisks_admin/internal/services/media_service"
	snippetservice "tinyrisks_admin/internal/services/snippet_service"

	"github.com/go-playground/validator/v10"
)

// NewServices wires every service onto one repository set.
func NewServices(log *slog.Logger, repo *repository.Repository, validate *validator.Validate) Services {
	if validate == nil {
		validate = validator.New()
	}

	return Services{
		Gallery:  galleryservice.NewGalleryService(log, repo.Gallery, validate),
		Blog:     blogservice.NewBlogService(log, repo.TextPost, validate),
		Snippets: snippetservice.NewSnippetService(log, repo.Snippet, repo.Site, validate),
		Media:    mediaservice.NewMediaService(log, repo.Site, validate),
		Auth:     auth.New(log, repo.Site),
		Validate: validate,
	}
}

package repository

import (
	"context"

	"tinyrisks_admin/internal/domain/models"
	"tinyrisks_admin/internal/transport/http/dto"
)

type GalleryRepository interface {
	ListGalleryItems(ctx context.Context) ([]models.GalleryItem, error)
	GetGalleryItem(ctx context.Context, id models.ID) (models.GalleryItem, error)
	CreateGalleryItem(ctx context.Context, form dto.GalleryForm) (models.MutationResult, error)
	UpdateGalleryItem(ctx context.Context, id models.ID, form dto.GalleryForm) (models.MutationResult, error)
	DeleteGalleryItem(ctx context.Context, id models.ID) error
}

type TextPostRepository interface {
	ListTextPosts(ctx context.Context) ([]models.TextPost, error)
	GetTextPost(ctx context.Context, id models.ID) (models.TextPost, error)
	CreateTextPost(ctx context.Context, req dto.TextPostRequest) (models.MutationResult, error)
	UpdateTextPost(ctx context.Context, id models.ID, req dto.TextPostRequest) (models.MutationResult, error)
	DeleteTextPost(ctx context.Context, id models.ID) error
}

type SnippetRepository interface {
	ListSnippets(ctx context.Context) ([]models.Snippet, error)
	CreateSnippet(ctx context.Context, req dto.SnippetRequest) (models.MutationResult, error)
	DeleteSnippet(ctx context.Context, id models.ID) error
}

type SiteRepository interface {
	Build(ctx context.Context) error
	Logout(ctx context.Context) error
	Upload(ctx context.Context, form dto.UploadForm) (models.MutationResult, error)
}

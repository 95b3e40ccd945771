package repository

import (
	"context"
	"fmt"
	"net/http"

	"tinyrisks_admin/internal/domain/models"
	"tinyrisks_admin/internal/storage/apiclient"
	"tinyrisks_admin/internal/transport/http/dto"
)

// imagesField is the multipart field the API reads gallery files from.
const imagesField = "images"

type GalleryRepo struct {
	api *apiclient.Client
}

func NewGalleryRepo(api *apiclient.Client) *GalleryRepo {
	return &GalleryRepo{
		api: api,
	}
}

// ListGalleryItems returns every gallery item, newest first as the API orders them.
func (r *GalleryRepo) ListGalleryItems(ctx context.Context) ([]models.GalleryItem, error) {
	const op = "repository.GalleryRepo.ListGalleryItems"

	items := make([]models.GalleryItem, 0)
	if err := r.api.GetJSON(ctx, communityImagesPath, &items); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return items, nil
}

func (r *GalleryRepo) GetGalleryItem(ctx context.Context, id models.ID) (models.GalleryItem, error) {
	const op = "repository.GalleryRepo.GetGalleryItem"

	var item models.GalleryItem
	if err := r.api.GetJSON(ctx, itemPath(communityImagesPath, id), &item); err != nil {
		return models.GalleryItem{}, fmt.Errorf("%s: %w", op, err)
	}

	return item, nil
}

// CreateGalleryItem posts the form with its files as multipart.
func (r *GalleryRepo) CreateGalleryItem(ctx context.Context, form dto.GalleryForm) (models.MutationResult, error) {
	const op = "repository.GalleryRepo.CreateGalleryItem"

	var res models.MutationResult
	if err := r.api.SendMultipart(ctx, http.MethodPost, communityImagesPath, galleryMultipart(form), &res); err != nil {
		return models.MutationResult{}, fmt.Errorf("%s: %w", op, err)
	}

	return res, nil
}

// UpdateGalleryItem resubmits the form; with no files attached the API keeps
// the existing images.
func (r *GalleryRepo) UpdateGalleryItem(ctx context.Context, id models.ID, form dto.GalleryForm) (models.MutationResult, error) {
	const op = "repository.GalleryRepo.UpdateGalleryItem"

	var res models.MutationResult
	if err := r.api.SendMultipart(ctx, http.MethodPut, itemPath(communityImagesPath, id), galleryMultipart(form), &res); err != nil {
		return models.MutationResult{}, fmt.Errorf("%s: %w", op, err)
	}

	return res, nil
}

func (r *GalleryRepo) DeleteGalleryItem(ctx context.Context, id models.ID) error {
	const op = "repository.GalleryRepo.DeleteGalleryItem"

	if err := r.api.SendJSON(ctx, http.MethodDelete, itemPath(communityImagesPath, id), nil, nil); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func galleryMultipart(form dto.GalleryForm) apiclient.Multipart {
	m := apiclient.Multipart{
		Fields: []apiclient.Field{
			{Name: "title", Value: form.Title},
			{Name: "caption", Value: form.Caption},
			{Name: "description", Value: form.Description},
		},
		Progress: form.Progress,
	}

	for _, f := range form.Images {
		m.Files = append(m.Files, apiclient.FilePart{Field: imagesField, File: f})
	}

	return m
}

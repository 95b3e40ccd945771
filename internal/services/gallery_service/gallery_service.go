package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"tinyrisks_admin/internal/domain/models"
	"tinyrisks_admin/internal/lib/logger/sl"
	"tinyrisks_admin/internal/repository"
	"tinyrisks_admin/internal/transport/http/dto"

	"github.com/go-playground/validator/v10"
)

var ErrImagesRequired = errors.New("at least one image is required")

type GalleryService struct {
	log      *slog.Logger
	repo     repository.GalleryRepository
	validate *validator.Validate
}

func NewGalleryService(log *slog.Logger, repo repository.GalleryRepository, validate *validator.Validate) *GalleryService {
	return &GalleryService{
		log:      log,
		repo:     repo,
		validate: validate,
	}
}

// ListGalleryItems returns the gallery as the API orders it.
func (s *GalleryService) ListGalleryItems(ctx context.Context) ([]models.GalleryItem, error) {
	const op = "service.GalleryService.ListGalleryItems"
	log := s.log.With(slog.String("op", op))

	items, err := s.repo.ListGalleryItems(ctx)
	if err != nil {
		log.Error("failed to list gallery", sl.Err(err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	log.Debug("gallery listed", slog.Int("count", len(items)))
	return items, nil
}

func (s *GalleryService) GetGalleryItem(ctx context.Context, id models.ID) (models.GalleryItem, error) {
	const op = "service.GalleryService.GetGalleryItem"
	log := s.log.With(
		slog.String("op", op),
		slog.String("gallery_id", id.String()),
	)

	item, err := s.repo.GetGalleryItem(ctx, id)
	if err != nil {
		log.Error("failed to get gallery item", sl.Err(err))
		return models.GalleryItem{}, fmt.Errorf("%s: %w", op, err)
	}

	return item, nil
}

// CreateGalleryItem validates the form and uploads it with its images.
func (s *GalleryService) CreateGalleryItem(ctx context.Context, form dto.GalleryForm) (models.MutationResult, error) {
	const op = "service.GalleryService.CreateGalleryItem"
	log := s.log.With(
		slog.String("op", op),
		slog.String("title", form.Title),
	)

	log.Info("creating gallery item")

	form = normalizeGalleryForm(form)
	if err := s.validate.Struct(form); err != nil {
		log.Warn("invalid gallery form", sl.Err(err))
		return models.MutationResult{}, fmt.Errorf("%s: %w", op, err)
	}
	if len(form.Images) == 0 {
		return models.MutationResult{}, fmt.Errorf("%s: %w", op, ErrImagesRequired)
	}

	res, err := s.repo.CreateGalleryItem(ctx, form)
	if err != nil {
		log.Error("failed to create gallery item", sl.Err(err))
		return models.MutationResult{}, fmt.Errorf("%s: %w", op, err)
	}

	log.Info("gallery item created", slog.String("id", res.ID.String()), slog.Int("images", len(res.Images)))
	return res, nil
}

// UpdateGalleryItem resubmits the form. Images are optional; none keeps the
// stored ones.
func (s *GalleryService) UpdateGalleryItem(ctx context.Context, id models.ID, form dto.GalleryForm) (models.MutationResult, error) {
	const op = "service.GalleryService.UpdateGalleryItem"
	log := s.log.With(
		slog.String("op", op),
		slog.String("gallery_id", id.String()),
	)

	log.Info("updating gallery item")

	if id.IsZero() {
		return models.MutationResult{}, fmt.Errorf("%s: empty id", op)
	}

	form = normalizeGalleryForm(form)
	if err := s.validate.Struct(form); err != nil {
		log.Warn("invalid gallery form", sl.Err(err))
		return models.MutationResult{}, fmt.Errorf("%s: %w", op, err)
	}

	res, err := s.repo.UpdateGalleryItem(ctx, id, form)
	if err != nil {
		log.Error("failed to update gallery item", sl.Err(err))
		return models.MutationResult{}, fmt.Errorf("%s: %w", op, err)
	}

	log.Info("gallery item updated")
	return res, nil
}

func (s *GalleryService) DeleteGalleryItem(ctx context.Context, id models.ID) error {
	const op = "service.GalleryService.DeleteGalleryItem"
	log := s.log.With(
		slog.String("op", op),
		slog.String("gallery_id", id.String()),
	)

	log.Info("deleting gallery item")

	if err := s.repo.DeleteGalleryItem(ctx, id); err != nil {
		log.Error("failed to delete gallery item", sl.Err(err))
		return fmt.Errorf("%s: %w", op, err)
	}

	log.Info("gallery item deleted")
	return nil
}

func normalizeGalleryForm(form dto.GalleryForm) dto.GalleryForm {
	form.Title = strings.TrimSpace(form.Title)
	form.Caption = strings.TrimSpace(form.Caption)

	return form
}

package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"tinyrisks_admin/internal/domain/models"
	"tinyrisks_admin/internal/lib/logger/sl"
	"tinyrisks_admin/internal/repository"
	"tinyrisks_admin/internal/transport/http/dto"

	"github.com/go-playground/validator/v10"
)

var ErrNoFile = errors.New("please select a file")

// MediaService posts single drop-zone uploads (world building assets,
// covers) to the action of the form they were dropped on.
type MediaService struct {
	log      *slog.Logger
	repo     repository.SiteRepository
	validate *validator.Validate
}

func NewMediaService(log *slog.Logger, repo repository.SiteRepository, validate *validator.Validate) *MediaService {
	return &MediaService{
		log:      log,
		repo:     repo,
		validate: validate,
	}
}

func (s *MediaService) UploadMedia(ctx context.Context, form dto.UploadForm) (models.MutationResult, error) {
	const op = "media_service.UploadMedia"

	log := s.log.With(
		slog.String("op", op),
		slog.String("action", form.Action),
		slog.String("file", form.File.Name),
		slog.String("media_type", string(form.File.MediaType())),
	)

	if form.File.Name == "" && form.File.Open == nil {
		return models.MutationResult{}, fmt.Errorf("%s: %w", op, ErrNoFile)
	}

	if err := s.validate.Struct(form); err != nil {
		log.Warn("invalid upload form", sl.Err(err))
		return models.MutationResult{}, fmt.Errorf("%s: %w", op, err)
	}

	if err := form.File.Validate(); err != nil {
		log.Error("media validation failed", sl.Err(err))
		return models.MutationResult{}, fmt.Errorf("%s: %w", op, err)
	}

	log.Info("upload media", slog.Int64("size", form.File.Size))

	res, err := s.repo.Upload(ctx, form)
	if err != nil {
		log.Error("failed to upload media", sl.Err(err))
		return models.MutationResult{}, fmt.Errorf("%s: %w", op, err)
	}

	log.Info("media uploaded", slog.String("stored_as", res.File))
	return res, nil
}

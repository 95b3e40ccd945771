package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"tinyrisks_admin/internal/domain/models"
	"tinyrisks_admin/internal/lib/logger/sl"
	"tinyrisks_admin/internal/repository"
	"tinyrisks_admin/internal/transport/http/dto"

	"github.com/go-playground/validator/v10"
)

// SnippetService backs the snippets panel, including its build button.
type SnippetService struct {
	log      *slog.Logger
	repo     repository.SnippetRepository
	site     repository.SiteRepository
	validate *validator.Validate
}

func NewSnippetService(
	log *slog.Logger,
	repo repository.SnippetRepository,
	site repository.SiteRepository,
	validate *validator.Validate,
) *SnippetService {
	return &SnippetService{
		log:      log,
		repo:     repo,
		site:     site,
		validate: validate,
	}
}

func (s *SnippetService) ListSnippets(ctx context.Context) ([]models.Snippet, error) {
	const op = "service.SnippetService.ListSnippets"
	log := s.log.With(slog.String("op", op))

	snippets, err := s.repo.ListSnippets(ctx)
	if err != nil {
		log.Error("failed to list snippets", sl.Err(err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return snippets, nil
}

func (s *SnippetService) CreateSnippet(ctx context.Context, req dto.SnippetRequest) (models.MutationResult, error) {
	const op = "service.SnippetService.CreateSnippet"
	log := s.log.With(slog.String("op", op))

	req.Title = strings.TrimSpace(req.Title)
	if req.Tags == nil {
		req.Tags = []string{}
	}

	if err := s.validate.Struct(req); err != nil {
		log.Warn("invalid snippet", sl.Err(err))
		return models.MutationResult{}, fmt.Errorf("%s: %w", op, err)
	}

	res, err := s.repo.CreateSnippet(ctx, req)
	if err != nil {
		log.Error("failed to create snippet", sl.Err(err))
		return models.MutationResult{}, fmt.Errorf("%s: %w", op, err)
	}

	log.Info("snippet created", slog.String("id", res.ID.String()))
	return res, nil
}

func (s *SnippetService) DeleteSnippet(ctx context.Context, id models.ID) error {
	const op = "service.SnippetService.DeleteSnippet"
	log := s.log.With(
		slog.String("op", op),
		slog.String("snippet_id", id.String()),
	)

	if err := s.repo.DeleteSnippet(ctx, id); err != nil {
		log.Error("failed to delete snippet", sl.Err(err))
		return fmt.Errorf("%s: %w", op, err)
	}

	log.Info("snippet deleted")
	return nil
}

// Build regenerates the static site.
func (s *SnippetService) Build(ctx context.Context) error {
	const op = "service.SnippetService.Build"
	log := s.log.With(slog.String("op", op))

	log.Info("building site")

	if err := s.site.Build(ctx); err != nil {
		log.Error("site build failed", sl.Err(err))
		return fmt.Errorf("%s: %w", op, err)
	}

	log.Info("site built")
	return nil
}

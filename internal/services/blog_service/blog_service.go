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

// BlogService manages the text posts shown in the writing section.
type BlogService struct {
	log      *slog.Logger
	repo     repository.TextPostRepository
	validate *validator.Validate
}

func NewBlogService(log *slog.Logger, repo repository.TextPostRepository, validate *validator.Validate) *BlogService {
	return &BlogService{log: log, repo: repo, validate: validate}
}

func (s *BlogService) ListPosts(ctx context.Context) ([]models.TextPost, error) {
	const op = "blog_service.ListPosts"
	log := s.log.With(slog.String("op", op))

	posts, err := s.repo.ListTextPosts(ctx)
	if err != nil {
		log.Error("failed to list posts", sl.Err(err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return posts, nil
}

func (s *BlogService) GetPost(ctx context.Context, id models.ID) (models.TextPost, error) {
	const op = "blog_service.GetPost"
	log := s.log.With(
		slog.String("op", op),
		slog.String("post_id", id.String()),
	)

	post, err := s.repo.GetTextPost(ctx, id)
	if err != nil {
		log.Error("failed to get post", sl.Err(err))
		return models.TextPost{}, fmt.Errorf("%s: %w", op, err)
	}

	return post, nil
}

// CreatePost validates and creates a post.
func (s *BlogService) CreatePost(ctx context.Context, req dto.TextPostRequest) (models.MutationResult, error) {
	const op = "blog_service.CreatePost"
	log := s.log.With(slog.String("op", op))

	req = normalizePostRequest(req)
	log.Info("creating new post", slog.String("title", req.Title))

	if err := s.validate.Struct(req); err != nil {
		log.Warn("invalid post", sl.Err(err))
		return models.MutationResult{}, fmt.Errorf("%s: %w", op, err)
	}

	res, err := s.repo.CreateTextPost(ctx, req)
	if err != nil {
		log.Error("failed to create post", sl.Err(err))
		return models.MutationResult{}, fmt.Errorf("%s: %w", op, err)
	}

	log.Info("post created", slog.String("id", res.ID.String()))
	return res, nil
}

func (s *BlogService) UpdatePost(ctx context.Context, id models.ID, req dto.TextPostRequest) (models.MutationResult, error) {
	const op = "blog_service.UpdatePost"
	log := s.log.With(
		slog.String("op", op),
		slog.String("post_id", id.String()),
	)

	req = normalizePostRequest(req)
	if err := s.validate.Struct(req); err != nil {
		log.Warn("invalid post", sl.Err(err))
		return models.MutationResult{}, fmt.Errorf("%s: %w", op, err)
	}

	res, err := s.repo.UpdateTextPost(ctx, id, req)
	if err != nil {
		log.Error("failed to update post", sl.Err(err))
		return models.MutationResult{}, fmt.Errorf("%s: %w", op, err)
	}

	log.Info("post updated")
	return res, nil
}

// SetPublished flips the published flag of a stored post, keeping every
// other field as it is.
func (s *BlogService) SetPublished(ctx context.Context, id models.ID, published bool) error {
	const op = "blog_service.SetPublished"
	log := s.log.With(
		slog.String("op", op),
		slog.String("post_id", id.String()),
		slog.Bool("published", published),
	)

	post, err := s.repo.GetTextPost(ctx, id)
	if err != nil {
		log.Error("failed to get post", sl.Err(err))
		return fmt.Errorf("%s: %w", op, err)
	}

	req := RequestFromPost(post)
	req.Published = published

	if _, err := s.repo.UpdateTextPost(ctx, id, req); err != nil {
		log.Error("failed to update post", sl.Err(err))
		return fmt.Errorf("%s: %w", op, err)
	}

	log.Info("post publication changed")
	return nil
}

func (s *BlogService) DeletePost(ctx context.Context, id models.ID) error {
	const op = "blog_service.DeletePost"
	log := s.log.With(
		slog.String("op", op),
		slog.String("post_id", id.String()),
	)

	if err := s.repo.DeleteTextPost(ctx, id); err != nil {
		log.Error("failed to delete post", sl.Err(err))
		return fmt.Errorf("%s: %w", op, err)
	}

	log.Info("post deleted")
	return nil
}

// RequestFromPost maps a stored post back onto an update request.
func RequestFromPost(post models.TextPost) dto.TextPostRequest {
	return dto.TextPostRequest{
		Title:       post.Title,
		Subtitle:    post.Subtitle,
		Category:    post.Category,
		Tags:        post.Tags,
		ReadingTime: post.ReadingTime,
		Content:     post.Content,
		Published:   bool(post.Published),
	}
}

func normalizePostRequest(req dto.TextPostRequest) dto.TextPostRequest {
	req.Title = strings.TrimSpace(req.Title)
	req.Subtitle = strings.TrimSpace(req.Subtitle)
	req.Category = strings.TrimSpace(req.Category)
	if req.Tags == nil {
		req.Tags = []string{}
	}
	if req.ReadingTime < 0 {
		req.ReadingTime = 0
	}

	return req
}

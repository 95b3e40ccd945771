package repository

import (
	"context"
	"fmt"
	"net/http"

	"tinyrisks_admin/internal/domain/models"
	"tinyrisks_admin/internal/storage/apiclient"
	"tinyrisks_admin/internal/transport/http/dto"
)

type TextPostRepo struct {
	api *apiclient.Client
}

func NewTextPostRepo(api *apiclient.Client) *TextPostRepo {
	return &TextPostRepo{
		api: api,
	}
}

func (r *TextPostRepo) ListTextPosts(ctx context.Context) ([]models.TextPost, error) {
	const op = "repository.TextPostRepo.ListTextPosts"

	posts := make([]models.TextPost, 0)
	if err := r.api.GetJSON(ctx, textPostsPath, &posts); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return posts, nil
}

func (r *TextPostRepo) GetTextPost(ctx context.Context, id models.ID) (models.TextPost, error) {
	const op = "repository.TextPostRepo.GetTextPost"

	var post models.TextPost
	if err := r.api.GetJSON(ctx, itemPath(textPostsPath, id), &post); err != nil {
		return models.TextPost{}, fmt.Errorf("%s: %w", op, err)
	}

	return post, nil
}

func (r *TextPostRepo) CreateTextPost(ctx context.Context, req dto.TextPostRequest) (models.MutationResult, error) {
	const op = "repository.TextPostRepo.CreateTextPost"

	var res models.MutationResult
	if err := r.api.SendJSON(ctx, http.MethodPost, textPostsPath, normalizePost(req), &res); err != nil {
		return models.MutationResult{}, fmt.Errorf("%s: %w", op, err)
	}

	return res, nil
}

func (r *TextPostRepo) UpdateTextPost(ctx context.Context, id models.ID, req dto.TextPostRequest) (models.MutationResult, error) {
	const op = "repository.TextPostRepo.UpdateTextPost"

	var res models.MutationResult
	if err := r.api.SendJSON(ctx, http.MethodPut, itemPath(textPostsPath, id), normalizePost(req), &res); err != nil {
		return models.MutationResult{}, fmt.Errorf("%s: %w", op, err)
	}

	return res, nil
}

func (r *TextPostRepo) DeleteTextPost(ctx context.Context, id models.ID) error {
	const op = "repository.TextPostRepo.DeleteTextPost"

	if err := r.api.SendJSON(ctx, http.MethodDelete, itemPath(textPostsPath, id), nil, nil); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// normalizePost makes sure tags serialize as [] rather than null; the API
// rejects a non-list tags value.
func normalizePost(req dto.TextPostRequest) dto.TextPostRequest {
	if req.Tags == nil {
		req.Tags = []string{}
	}
	if req.ReadingTime < 0 {
		req.ReadingTime = 0
	}

	return req
}

package repository

import (
	"context"
	"fmt"
	"net/http"

	"tinyrisks_admin/internal/domain/models"
	"tinyrisks_admin/internal/storage/apiclient"
	"tinyrisks_admin/internal/transport/http/dto"
)

type SnippetRepo struct {
	api *apiclient.Client
}

func NewSnippetRepo(api *apiclient.Client) *SnippetRepo {
	return &SnippetRepo{
		api: api,
	}
}

func (r *SnippetRepo) ListSnippets(ctx context.Context) ([]models.Snippet, error) {
	const op = "repository.SnippetRepo.ListSnippets"

	snippets := make([]models.Snippet, 0)
	if err := r.api.GetJSON(ctx, snippetsPath, &snippets); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return snippets, nil
}

func (r *SnippetRepo) CreateSnippet(ctx context.Context, req dto.SnippetRequest) (models.MutationResult, error) {
	const op = "repository.SnippetRepo.CreateSnippet"

	if req.Tags == nil {
		req.Tags = []string{}
	}

	var res models.MutationResult
	if err := r.api.SendJSON(ctx, http.MethodPost, snippetsPath, req, &res); err != nil {
		return models.MutationResult{}, fmt.Errorf("%s: %w", op, err)
	}

	return res, nil
}

func (r *SnippetRepo) DeleteSnippet(ctx context.Context, id models.ID) error {
	const op = "repository.SnippetRepo.DeleteSnippet"

	if err := r.api.SendJSON(ctx, http.MethodDelete, itemPath(snippetsPath, id), nil, nil); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

package repository

import (
	"context"
	"fmt"
	"net/http"
	"sort"

	"tinyrisks_admin/internal/domain/models"
	"tinyrisks_admin/internal/storage/apiclient"
	"tinyrisks_admin/internal/transport/http/dto"
)

// SiteRepo covers the site-wide endpoints: build, logout and drop-zone uploads.
type SiteRepo struct {
	api *apiclient.Client
}

func NewSiteRepo(api *apiclient.Client) *SiteRepo {
	return &SiteRepo{
		api: api,
	}
}

// Build asks the API to regenerate the static site.
func (r *SiteRepo) Build(ctx context.Context) error {
	const op = "repository.SiteRepo.Build"

	if err := r.api.SendJSON(ctx, http.MethodPost, buildPath, nil, nil); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// Logout ends the admin session on the API side.
func (r *SiteRepo) Logout(ctx context.Context) error {
	const op = "repository.SiteRepo.Logout"

	if err := r.api.SendJSON(ctx, http.MethodPost, logoutPath, nil, nil); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// Upload posts one drop-zone file to the form's action.
func (r *SiteRepo) Upload(ctx context.Context, form dto.UploadForm) (models.MutationResult, error) {
	const op = "repository.SiteRepo.Upload"

	m := apiclient.Multipart{
		Files:    []apiclient.FilePart{{Field: form.Field, File: form.File}},
		Progress: form.Progress,
	}

	keys := make([]string, 0, len(form.Extra))
	for k := range form.Extra {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		m.Fields = append(m.Fields, apiclient.Field{Name: k, Value: form.Extra[k]})
	}

	var res models.MutationResult
	if err := r.api.SendMultipart(ctx, http.MethodPost, form.Action, m, &res); err != nil {
		return models.MutationResult{}, fmt.Errorf("%s: %w", op, err)
	}

	return res, nil
}

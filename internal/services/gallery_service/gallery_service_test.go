package services

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"tinyrisks_admin/internal/domain/models"
	"tinyrisks_admin/internal/transport/http/dto"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type MockGalleryRepository struct {
	mock.Mock
}

func (m *MockGalleryRepository) ListGalleryItems(ctx context.Context) ([]models.GalleryItem, error) {
	args := m.Called(ctx)
	return args.Get(0).([]models.GalleryItem), args.Error(1)
}

func (m *MockGalleryRepository) GetGalleryItem(ctx context.Context, id models.ID) (models.GalleryItem, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(models.GalleryItem), args.Error(1)
}

func (m *MockGalleryRepository) CreateGalleryItem(ctx context.Context, form dto.GalleryForm) (models.MutationResult, error) {
	args := m.Called(ctx, form.Title, len(form.Images))
	return args.Get(0).(models.MutationResult), args.Error(1)
}

func (m *MockGalleryRepository) UpdateGalleryItem(ctx context.Context, id models.ID, form dto.GalleryForm) (models.MutationResult, error) {
	args := m.Called(ctx, id, form.Title, len(form.Images))
	return args.Get(0).(models.MutationResult), args.Error(1)
}

func (m *MockGalleryRepository) DeleteGalleryItem(ctx context.Context, id models.ID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func testImage() models.File {
	return models.File{
		Name: "a.png",
		Size: 3,
		Open: func() (io.ReadCloser, error) { return io.NopCloser(strings.NewReader("png")), nil },
	}
}

func TestGalleryService_CreateGalleryItem(t *testing.T) {
	ctx := context.Background()
	mockRepo := new(MockGalleryRepository)
	service := NewGalleryService(slog.Default(), mockRepo, validator.New())

	tests := []struct {
		name        string
		form        dto.GalleryForm
		mockSetup   func()
		wantError   bool
		expectedErr string
	}{
		{
			name: "successful creation",
			form: dto.GalleryForm{Title: "  Test  ", Images: []models.File{testImage()}},
			mockSetup: func() {
				mockRepo.On("CreateGalleryItem", ctx, "Test", 1).
					Return(models.MutationResult{Success: true, ID: "1"}, nil).Once()
			},
		},
		{
			name:        "missing title",
			form:        dto.GalleryForm{Images: []models.File{testImage()}},
			mockSetup:   func() {},
			wantError:   true,
			expectedErr: "Title",
		},
		{
			name:        "missing images",
			form:        dto.GalleryForm{Title: "Test"},
			mockSetup:   func() {},
			wantError:   true,
			expectedErr: ErrImagesRequired.Error(),
		},
		{
			name: "too many images",
			form: dto.GalleryForm{Title: "Test", Images: []models.File{
				testImage(), testImage(), testImage(), testImage(), testImage(),
				testImage(), testImage(), testImage(), testImage(), testImage(),
			}},
			mockSetup:   func() {},
			wantError:   true,
			expectedErr: "Images",
		},
		{
			name: "repository error",
			form: dto.GalleryForm{Title: "Broken", Images: []models.File{testImage()}},
			mockSetup: func() {
				mockRepo.On("CreateGalleryItem", ctx, "Broken", 1).
					Return(models.MutationResult{}, errors.New("repository error")).Once()
			},
			wantError:   true,
			expectedErr: "repository error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.mockSetup()

			res, err := service.CreateGalleryItem(ctx, tt.form)

			if tt.wantError {
				assert.Error(t, err)
				assert.Contains(t, err.Error(), tt.expectedErr)
				assert.True(t, res.ID.IsZero())
			} else {
				assert.NoError(t, err)
				assert.Equal(t, models.ID("1"), res.ID)
			}
		})
	}

	mockRepo.AssertExpectations(t)
}

func TestGalleryService_UpdateGalleryItem(t *testing.T) {
	ctx := context.Background()
	mockRepo := new(MockGalleryRepository)
	service := NewGalleryService(slog.Default(), mockRepo, validator.New())

	mockRepo.On("UpdateGalleryItem", ctx, models.ID("7"), "Renamed", 0).
		Return(models.MutationResult{Success: true, ID: "7"}, nil).Once()

	res, err := service.UpdateGalleryItem(ctx, "7", dto.GalleryForm{Title: "Renamed"})
	assert.NoError(t, err)
	assert.True(t, res.Success)

	_, err = service.UpdateGalleryItem(ctx, "", dto.GalleryForm{Title: "Renamed"})
	assert.Error(t, err)

	mockRepo.AssertExpectations(t)
}

func TestGalleryService_ListAndDelete(t *testing.T) {
	ctx := context.Background()
	mockRepo := new(MockGalleryRepository)
	service := NewGalleryService(slog.Default(), mockRepo, validator.New())

	items := []models.GalleryItem{{ID: "1", Title: "One"}}
	mockRepo.On("ListGalleryItems", ctx).Return(items, nil).Once()
	mockRepo.On("DeleteGalleryItem", ctx, models.ID("1")).Return(nil).Once()
	mockRepo.On("DeleteGalleryItem", ctx, models.ID("2")).Return(errors.New("gone")).Once()

	got, err := service.ListGalleryItems(ctx)
	assert.NoError(t, err)
	assert.Equal(t, items, got)

	assert.NoError(t, service.DeleteGalleryItem(ctx, "1"))
	assert.ErrorContains(t, service.DeleteGalleryItem(ctx, "2"), "gone")

	mockRepo.AssertExpectations(t)
}

package models

import (
	"encoding/json"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTextPost_DecodesPublishedEitherWay(t *testing.T) {
	tests := []struct {
		name string
		body string
		want bool
	}{
		{"integer one", `{"id": 3, "published": 1}`, true},
		{"integer zero", `{"id": 3, "published": 0}`, false},
		{"boolean true", `{"id": "3", "published": true}`, true},
		{"boolean false", `{"id": "3", "published": false}`, false},
		{"missing", `{"id": "3"}`, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var post TextPost
			require.NoError(t, json.Unmarshal([]byte(tt.body), &post))

			assert.Equal(t, tt.want, bool(post.Published))
			assert.Equal(t, ID("3"), post.ID)
		})
	}
}

func TestID_IsZero(t *testing.T) {
	assert.True(t, ID("").IsZero())
	assert.True(t, ID("  ").IsZero())
	assert.False(t, ID("12").IsZero())

	var id ID
	require.NoError(t, json.Unmarshal([]byte("null"), &id))
	assert.True(t, id.IsZero())
}

func TestTime_AcceptsSQLiteTimestamps(t *testing.T) {
	var item GalleryItem
	require.NoError(t, json.Unmarshal([]byte(`{"id":1,"title":"A","created_at":"2025-03-07 10:11:12"}`), &item))

	assert.Equal(t, 2025, item.CreatedAt.Year())
	assert.Equal(t, 7, item.CreatedAt.Day())
}

func TestGuessMediaType(t *testing.T) {
	assert.Equal(t, MediaTypeImage, GuessMediaType("image/*"))
	assert.Equal(t, MediaTypeVideo, GuessMediaType("video/mp4,.mov"))
	assert.Equal(t, MediaTypeAudio, GuessMediaType("audio/*"))
	assert.Equal(t, MediaTypeFile, GuessMediaType(""))
	assert.Equal(t, MediaTypeFile, GuessMediaType(".pdf"))
	assert.Equal(t, "🎬", MediaTypeVideo.Icon())
}

func TestFile_Validate(t *testing.T) {
	ok := File{
		Name: "a.png",
		Size: 3,
		Open: func() (io.ReadCloser, error) { return io.NopCloser(strings.NewReader("abc")), nil },
	}
	assert.NoError(t, ok.Validate())

	err := File{}.Validate()
	require.Error(t, err)
	assert.True(t, IsFileValidationError(err))
	assert.Contains(t, err.Error(), "file name is required")
}

func TestImageURL(t *testing.T) {
	assert.Equal(t, "/static/uploads/img-1.png", ImageURL("img-1.png"))
	assert.Equal(t, "", ImageURL(""))
	assert.Equal(t, "", GalleryItem{}.Cover())
}

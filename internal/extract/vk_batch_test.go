package extract

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/lueurxax/postmeta/internal/core/domain"
	apperrors "github.com/lueurxax/postmeta/internal/core/errors"
	"github.com/lueurxax/postmeta/internal/core/ports/mocks"
	"github.com/lueurxax/postmeta/internal/core/vk"
)

func TestResolveWall(t *testing.T) {
	tests := []struct {
		name          string
		url           string
		defaultDomain string
		want          vk.WallQuery
		wantErr       bool
	}{
		{name: "wall owner", url: "https://vk.com/wall-123", want: vk.WallQuery{OwnerID: -123, HasOwner: true}},
		{name: "wall post keeps owner", url: "https://vk.com/wall-5_77", want: vk.WallQuery{OwnerID: -5, HasOwner: true}},
		{name: "public", url: "https://vk.com/public42", want: vk.WallQuery{OwnerID: -42, HasOwner: true}},
		{name: "club", url: "https://m.vk.com/club7?from=groups", want: vk.WallQuery{OwnerID: -7, HasOwner: true}},
		{name: "screen name", url: "https://vk.com/school_23", want: vk.WallQuery{Domain: "school_23"}},
		{name: "dotted screen name", url: "https://vk.com/sch.ool", want: vk.WallQuery{Domain: "sch.ool"}},
		{name: "empty uses default", url: "", defaultDomain: "slp23", want: vk.WallQuery{Domain: "slp23"}},
		{name: "foreign host uses default", url: "https://example.com/x", defaultDomain: "slp23", want: vk.WallQuery{Domain: "slp23"}},
		{name: "no owner no default", url: "https://vk.com/", wantErr: true},
		{name: "reserved path", url: "https://vk.com/feed", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := newTestPipeline(mocks.NewPageFetcher(), mocks.NewVKClient(), Options{VKDefaultDomain: tt.defaultDomain})

			got, err := p.resolveWall(tt.url)
			if tt.wantErr {
				require.True(t, errors.Is(err, apperrors.ErrInvalidInput))
				return
			}

			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestClampCount(t *testing.T) {
	tests := []struct {
		count int
		want  int
	}{
		{count: 0, want: DefaultBatchCount},
		{count: -5, want: 1},
		{count: 1, want: 1},
		{count: 50, want: 50},
		{count: 100, want: 100},
		{count: 1000, want: 100},
	}

	for _, tt := range tests {
		require.Equal(t, tt.want, clampCount(tt.count, DefaultBatchMaxCount), "count=%d", tt.count)
	}
}

func TestRunVKBatch(t *testing.T) {
	vkClient := mocks.NewVKClient()
	vkClient.AddPost(vk.Post{
		ID:      10,
		OwnerID: -42,
		Date:    1700000000,
		Text:    "Выпускной вечер\n" + strings.Repeat("т", 200),
		Attachments: []vk.Attachment{
			{Type: "photo", Photo: &vk.Photo{Sizes: []vk.PhotoSize{{URL: "https://sun1-1.userapi.com/p.jpg", Width: 10, Height: 10}}}},
		},
	})
	vkClient.AddPost(vk.Post{
		ID:      11,
		OwnerID: -42,
		Attachments: []vk.Attachment{
			{Type: "video", Video: &vk.Video{ID: 1, OwnerID: -42, Image: []vk.VideoImage{{URL: "https://sun1-1.userapi.com/thumb.jpg", Width: 800}}}},
		},
	})

	p := newTestPipeline(mocks.NewPageFetcher(), vkClient, Options{})

	result, err := p.RunVKBatch(context.Background(), BatchRequest{URL: "https://vk.com/public42"})
	require.NoError(t, err)
	require.Equal(t, 2, result.TotalCount)
	require.Len(t, result.Items, 2)

	first := result.Items[0]
	require.Equal(t, "10", first.SourceID)
	require.Equal(t, "https://vk.com/wall-42_10", first.SourceURL)
	require.Equal(t, "Выпускной вечер", first.Title)
	require.Equal(t, 163, len([]rune(first.Excerpt)))
	require.True(t, strings.HasSuffix(first.Excerpt, domain.Ellipsis))
	require.True(t, strings.HasSuffix(first.Content, "\n\nИсточник: https://vk.com/wall-42_10"))
	require.NotNil(t, first.ImageURL)
	require.Equal(t, "https://sun1-1.userapi.com/p.jpg", *first.ImageURL)
	require.Equal(t, time.Unix(1700000000, 0).UTC(), first.PublishedAt)
	require.Equal(t, domain.SourceVK, first.Source)

	second := result.Items[1]
	require.Equal(t, "Новости VK", second.Title)
	require.Equal(t, "", second.Excerpt)
	require.Equal(t, "Источник: https://vk.com/wall-42_11", second.Content)
	require.NotNil(t, second.ImageURL)
	require.Equal(t, "https://sun1-1.userapi.com/thumb.jpg", *second.ImageURL)
	require.Equal(t, []domain.MediaItem{{URL: "https://vk.com/video-42_1", Type: domain.MediaVideo}}, second.MediaList)
	require.False(t, second.PublishedAt.IsZero())
}

func TestRunVKBatch_NoCoverIsNull(t *testing.T) {
	vkClient := mocks.NewVKClient()
	vkClient.AddPost(vk.Post{ID: 12, OwnerID: -42, Date: 1700000000, Text: "Объявление без фото"})

	p := newTestPipeline(mocks.NewPageFetcher(), vkClient, Options{})

	result, err := p.RunVKBatch(context.Background(), BatchRequest{URL: "https://vk.com/public42"})
	require.NoError(t, err)
	require.Len(t, result.Items, 1)
	require.Nil(t, result.Items[0].ImageURL)

	encoded, err := json.Marshal(result.Items[0])
	require.NoError(t, err)
	require.Contains(t, string(encoded), `"image_url":null`)
}

func TestRunVKBatch_PassesPaging(t *testing.T) {
	var got vk.WallQuery

	vkClient := mocks.NewVKClient()
	vkClient.WallGetFn = func(_ context.Context, q vk.WallQuery) (*vk.WallResult, error) {
		got = q
		return &vk.WallResult{}, nil
	}

	p := newTestPipeline(mocks.NewPageFetcher(), vkClient, Options{VKBatchMaxCount: 20})

	result, err := p.RunVKBatch(context.Background(), BatchRequest{URL: "https://vk.com/school", Count: 500, Offset: 40})
	require.NoError(t, err)
	require.NotNil(t, result.Items)
	require.Equal(t, vk.WallQuery{Domain: "school", Count: 20, Offset: 40}, got)
}

func TestRunVKBatch_Errors(t *testing.T) {
	p := newTestPipeline(mocks.NewPageFetcher(), mocks.NewVKClient(), Options{})

	_, err := p.RunVKBatch(context.Background(), BatchRequest{URL: "https://vk.com/wall-1", Offset: -1})
	require.True(t, errors.Is(err, apperrors.ErrInvalidInput))

	vkClient := mocks.NewVKClient()
	vkClient.WallGetFn = func(context.Context, vk.WallQuery) (*vk.WallResult, error) {
		return nil, &vk.APIError{Code: 15, Message: "Access denied"}
	}

	_, err = newTestPipeline(mocks.NewPageFetcher(), vkClient, Options{}).
		RunVKBatch(context.Background(), BatchRequest{URL: "https://vk.com/wall-1"})

	var apiErr *vk.APIError
	require.True(t, errors.As(err, &apiErr))
}

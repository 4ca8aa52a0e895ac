package extract

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/lueurxax/postmeta/internal/core/domain"
	apperrors "github.com/lueurxax/postmeta/internal/core/errors"
	"github.com/lueurxax/postmeta/internal/core/links"
	"github.com/lueurxax/postmeta/internal/core/ports/mocks"
	"github.com/lueurxax/postmeta/internal/core/vk"
)

const vkPostURL = "https://vk.com/wall-1_2"

func newTestPipeline(fetcher *mocks.PageFetcher, vkClient *mocks.VKClient, opts Options) *Pipeline {
	logger := zerolog.Nop()
	extractor := NewExtractor(fetcher, vkClient, nil, opts.Limits, &logger)

	return New(extractor, opts, &logger)
}

func TestRun_InvalidURL(t *testing.T) {
	p := newTestPipeline(mocks.NewPageFetcher(), mocks.NewVKClient(), Options{})

	for _, raw := range []string{"", "not a url", "ftp://example.com/x"} {
		_, err := p.Run(context.Background(), raw)
		require.True(t, errors.Is(err, apperrors.ErrInvalidURL), raw)
	}
}

func TestRun_VKFromAPI(t *testing.T) {
	vkClient := mocks.NewVKClient()
	vkClient.AddPost(vk.Post{
		ID:      2,
		OwnerID: -1,
		Date:    1700000000,
		Text:    "Заголовок\nПодробности",
		Attachments: []vk.Attachment{
			{Type: "photo", Photo: &vk.Photo{Photo604: "http://sun9-1.userapi.com/p.jpg"}},
			{Type: "video", Video: &vk.Video{ID: 3, OwnerID: -1}},
		},
	})

	fetcher := mocks.NewPageFetcher()
	p := newTestPipeline(fetcher, vkClient, Options{})

	post, err := p.Run(context.Background(), vkPostURL)
	require.NoError(t, err)

	require.Equal(t, "Заголовок", post.Title)
	require.Equal(t, "Заголовок\nПодробности", post.Description)
	require.Equal(t, "Заголовок\nПодробности", post.Content)
	require.Equal(t, domain.SourceVK, post.Source)
	require.Equal(t, "https://sun9-1.userapi.com/p.jpg", post.Image)
	require.Equal(t, []domain.MediaItem{
		{URL: "https://sun9-1.userapi.com/p.jpg", Type: domain.MediaImage},
		{URL: "https://vk.com/video-1_3", Type: domain.MediaVideo},
	}, post.MediaList)
	require.Equal(t, time.Unix(1700000000, 0).UTC(), *post.PublishedAt)
	require.Empty(t, fetcher.Calls(), "page tier must be skipped when the api succeeds")
}

func TestRun_VKTextWithAngleBrackets(t *testing.T) {
	const text = "Приём детей от 6 < 7 лет и взносы > 100 руб"

	vkClient := mocks.NewVKClient()
	vkClient.AddPost(vk.Post{ID: 2, OwnerID: -1, Text: text})

	post, err := newTestPipeline(mocks.NewPageFetcher(), vkClient, Options{}).Run(context.Background(), vkPostURL)
	require.NoError(t, err)

	require.Equal(t, text, post.Content)
	require.Equal(t, text, post.Description)
	require.Equal(t, text, post.Title)
}

func TestExtractVK_NonWallURLFallsThrough(t *testing.T) {
	var buf bytes.Buffer

	logger := zerolog.New(&buf).Level(zerolog.DebugLevel)
	fetcher := mocks.NewPageFetcher()
	extractor := NewExtractor(fetcher, mocks.NewVKClient(), nil, domain.Limits{}, &logger)

	post, err := extractor.ExtractVK(context.Background(), "https://vk.com/club1")
	require.NoError(t, err)
	require.Nil(t, post)
	require.Contains(t, buf.String(), apperrors.ErrNotWallPost.Error())
	require.Empty(t, fetcher.Calls())
}

func TestRun_VKFallsBackToPage(t *testing.T) {
	vkClient := mocks.NewVKClient()
	vkClient.GetByIDFn = func(context.Context, int64, int64) ([]vk.Post, error) {
		return nil, errors.New("dial tcp: connection refused")
	}

	fetcher := mocks.NewPageFetcher()
	fetcher.SetHTML(vkPostURL, `<html><head>
<meta property="og:title" content="Запись на стене">
<meta property="og:description" content="Школа &amp; родители: собрание в пятницу">
<meta property="og:image" content="https://sun9-5.userapi.com/cover.jpg">
</head><body><img src="https://sun9-5.userapi.com/impg/one.jpg?size=604x403&amp;quality=96"></body></html>`)

	p := newTestPipeline(fetcher, vkClient, Options{})

	post, err := p.Run(context.Background(), vkPostURL)
	require.NoError(t, err)

	require.Equal(t, domain.SourceVK, post.Source)
	require.Equal(t, "Школа & родители: собрание в пятницу", post.Title)
	require.Equal(t, "Школа & родители: собрание в пятницу", post.Description)
	require.Equal(t, "https://sun9-5.userapi.com/cover.jpg", post.Image)
	require.Equal(t, []domain.MediaItem{
		{URL: "https://sun9-5.userapi.com/cover.jpg", Type: domain.MediaImage},
		{URL: "https://sun9-5.userapi.com/impg/one.jpg?size=604x403&quality=96", Type: domain.MediaImage},
	}, post.MediaList)
}

func TestRun_VKEmptyAPIResultFallsBackToPage(t *testing.T) {
	vkClient := mocks.NewVKClient()
	vkClient.GetByIDFn = func(context.Context, int64, int64) ([]vk.Post, error) {
		return []vk.Post{}, nil
	}

	fetcher := mocks.NewPageFetcher()
	fetcher.SetHTML(vkPostURL, `<meta property="og:description" content="Текст поста">`)

	post, err := newTestPipeline(fetcher, vkClient, Options{}).Run(context.Background(), vkPostURL)
	require.NoError(t, err)
	require.Equal(t, "Текст поста", post.Content)
}

func TestRun_VKNonWallURLUsesGeneric(t *testing.T) {
	fetcher := mocks.NewPageFetcher()
	fetcher.SetHTML("https://vk.com/school", `<html><head><title>Школа №1</title>
<meta property="og:description" content="Официальная группа"></head><body></body></html>`)

	vkClient := mocks.NewVKClient()
	vkClient.GetByIDFn = func(context.Context, int64, int64) ([]vk.Post, error) {
		t.Fatal("api must not be called for non-wall urls")
		return nil, nil
	}

	post, err := newTestPipeline(fetcher, vkClient, Options{}).Run(context.Background(), "https://vk.com/school")
	require.NoError(t, err)
	require.Equal(t, "Школа №1", post.Title)
	require.Equal(t, domain.SourceWeb, post.Source)
}

func TestRun_AllFetchesFail(t *testing.T) {
	p := newTestPipeline(mocks.NewPageFetcher(), mocks.NewVKClient(), Options{})

	_, err := p.Run(context.Background(), vkPostURL)
	require.Error(t, err)
	require.True(t, errors.Is(err, apperrors.ErrExtractionFailed))
	require.True(t, errors.Is(err, apperrors.ErrHTTPStatusNotOK))
}

func TestRun_TelegramFallsBackToOGDescription(t *testing.T) {
	fetcher := mocks.NewPageFetcher()
	fetcher.SetHTML("https://t.me/channel/5?embed=1", `<html><head>
<meta property="og:title" content="School Channel">
<meta property="og:description" content="Test post">
</head><body></body></html>`)

	p := newTestPipeline(fetcher, mocks.NewVKClient(), Options{})

	post, err := p.Run(context.Background(), "https://t.me/channel/5?single")
	require.NoError(t, err)

	require.Equal(t, "Test post", post.Title)
	require.Equal(t, "Test post", post.Description)
	require.Equal(t, "Test post", post.Content)
	require.Equal(t, domain.SourceTelegram, post.Source)
	require.Equal(t, []string{"https://t.me/channel/5?embed=1"}, fetcher.Calls())
}

func TestRun_TelegramMessageText(t *testing.T) {
	fetcher := mocks.NewPageFetcher()
	fetcher.SetHTML("https://t.me/news/10?embed=1", `<html><head>
<meta property="og:title" content="Telegram Widget">
<meta property="og:image" content="http://cdn4.telesco.pe/file/cover.jpg">
</head><body><div class="tgme_widget_message_bubble">
<div class="tgme_widget_message_text js-message_text">Концерт &amp; ярмарка<br/>Приходите <b>всей</b> семьёй</div>
<a class="tgme_widget_message_photo_wrap" style="background-image:url('https://cdn4.telesco.pe/file/photo.jpg')"></a>
<div class="tgme_widget_message_footer"><a class="tgme_widget_message_date"><time datetime="2024-05-01T09:30:00+00:00">May 1</time></a></div>
</div></body></html>`)

	post, err := newTestPipeline(fetcher, mocks.NewVKClient(), Options{}).Run(context.Background(), "https://t.me/news/10")
	require.NoError(t, err)

	require.Equal(t, "Концерт & ярмарка", post.Title)
	require.Equal(t, "Концерт & ярмарка\nПриходите всей семьёй", post.Content)
	require.Equal(t, "https://cdn4.telesco.pe/file/cover.jpg", post.Image)
	require.Equal(t, "https://cdn4.telesco.pe/file/cover.jpg", post.MediaList[0].URL)
	require.Contains(t, post.MediaList, domain.MediaItem{URL: "https://cdn4.telesco.pe/file/photo.jpg", Type: domain.MediaImage})
	require.Equal(t, time.Date(2024, 5, 1, 9, 30, 0, 0, time.UTC), *post.PublishedAt)
}

func TestRun_TelegramFetchErrorSurfaces(t *testing.T) {
	_, err := newTestPipeline(mocks.NewPageFetcher(), mocks.NewVKClient(), Options{}).Run(context.Background(), "https://t.me/c/1")
	require.True(t, errors.Is(err, apperrors.ErrExtractionFailed))
}

func TestRun_GenericPage(t *testing.T) {
	body := strings.Repeat("Подробный текст статьи о школьной олимпиаде по математике. ", 12)

	fetcher := mocks.NewPageFetcher()
	fetcher.SetHTML("https://news.example.com/a", `<html><head>
<title>Site title</title>
<meta property="og:title" content="Олимпиада по математике">
<meta property="og:description" content="Итоги олимпиады">
<meta property="og:image" content="/img/olymp.jpg">
<meta property="article:published_time" content="2024-03-05T10:00:00Z">
</head><body><article><h1>Олимпиада</h1><p>`+body+`</p><p>`+body+`</p></article></body></html>`)

	post, err := newTestPipeline(fetcher, mocks.NewVKClient(), Options{}).Run(context.Background(), "https://news.example.com/a")
	require.NoError(t, err)

	require.Equal(t, "Олимпиада по математике", post.Title)
	require.Equal(t, "Итоги олимпиады", post.Description)
	require.Contains(t, post.Content, "Подробный текст статьи")
	require.Equal(t, "https://news.example.com/img/olymp.jpg", post.Image)
	require.Equal(t, domain.SourceWeb, post.Source)
	require.Equal(t, time.Date(2024, 3, 5, 10, 0, 0, 0, time.UTC), *post.PublishedAt)
}

func TestRun_GenericRelativeImages(t *testing.T) {
	fetcher := mocks.NewPageFetcher()
	fetcher.SetHTML("https://school.example.ru/news/42", `<html><head>
<title>Выпускной вечер</title>
</head><body>
<img src="/upload/photo1.jpg">
<img src="photo2.jpg">
<img src="data:image/gif;base64,R0lGODlhAQABAAAAACw=">
</body></html>`)

	post, err := newTestPipeline(fetcher, mocks.NewVKClient(), Options{}).Run(context.Background(), "https://school.example.ru/news/42")
	require.NoError(t, err)

	require.Equal(t, "https://school.example.ru/upload/photo1.jpg", post.Image)
	require.Equal(t, []domain.MediaItem{
		{URL: "https://school.example.ru/upload/photo1.jpg", Type: domain.MediaImage},
		{URL: "https://school.example.ru/news/photo2.jpg", Type: domain.MediaImage},
	}, post.MediaList)
}

func TestRun_GenericWindows1251Page(t *testing.T) {
	fetcher := mocks.NewPageFetcher()
	fetcher.SetPage("https://old.example.ru/", &links.Page{
		URL:         "https://old.example.ru/",
		ContentType: "text/html",
		// <title>Новости</title> in Windows-1251
		Body: []byte("<title>\xcd\xee\xe2\xee\xf1\xf2\xe8 \xf8\xea\xee\xeb\xfb</title>"),
	})

	post, err := newTestPipeline(fetcher, mocks.NewVKClient(), Options{}).Run(context.Background(), "https://old.example.ru/")
	require.NoError(t, err)
	require.Equal(t, "Новости школы", post.Title)
}

func TestRun_GenericFeed(t *testing.T) {
	fetcher := mocks.NewPageFetcher()
	fetcher.SetPage("https://example.com/rss", &links.Page{
		URL:         "https://example.com/rss",
		ContentType: "application/rss+xml",
		Body: []byte(`<?xml version="1.0"?><rss version="2.0"><channel><title>Feed</title>
<item><title>Первая новость</title><description>&lt;p&gt;Кратко&lt;/p&gt;</description>
<enclosure url="https://example.com/n1.jpg" type="image/jpeg" length="1"/>
<pubDate>Tue, 05 Mar 2024 10:00:00 GMT</pubDate></item></channel></rss>`),
	})

	post, err := newTestPipeline(fetcher, mocks.NewVKClient(), Options{}).Run(context.Background(), "https://example.com/rss")
	require.NoError(t, err)

	require.Equal(t, "Первая новость", post.Title)
	require.Equal(t, "Кратко", post.Description)
	require.Equal(t, "https://example.com/n1.jpg", post.Image)
	require.Equal(t, time.Date(2024, 3, 5, 10, 0, 0, 0, time.UTC), *post.PublishedAt)
}

func TestRun_DefaultTitleAndIdempotence(t *testing.T) {
	fetcher := mocks.NewPageFetcher()
	fetcher.SetHTML("https://example.com/empty", `<html><head><title>ВКонтакте</title></head><body></body></html>`)

	p := newTestPipeline(fetcher, mocks.NewVKClient(), Options{Limits: domain.Limits{DefaultTitle: "Новости школы"}})

	first, err := p.Run(context.Background(), "https://example.com/empty")
	require.NoError(t, err)
	require.Equal(t, "Новости школы", first.Title)
	require.NotNil(t, first.MediaList)

	second, err := p.Run(context.Background(), "https://example.com/empty")
	require.NoError(t, err)
	require.Equal(t, first, second)
}

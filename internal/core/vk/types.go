package vk

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/lueurxax/postmeta/internal/core/domain"
	"github.com/lueurxax/postmeta/internal/platform/htmlutils"
)

const (
	attachmentPhoto = "photo"
	attachmentVideo = "video"
	vkBaseURL       = "https://vk.com"
)

var wallIDRe = regexp.MustCompile(`wall(-?\d+)_(\d+)`)

// APIError is the error object VK returns in place of a response.
type APIError struct {
	Code    int    `json:"error_code"`
	Message string `json:"error_msg"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("vk api error %d: %s", e.Code, e.Message)
}

type PhotoSize struct {
	Type   string `json:"type"`
	URL    string `json:"url"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

type Photo struct {
	ID        int64       `json:"id"`
	OwnerID   int64       `json:"owner_id"`
	Sizes     []PhotoSize `json:"sizes"`
	Photo1280 string      `json:"photo_1280"`
	Photo807  string      `json:"photo_807"`
	Photo604  string      `json:"photo_604"`
}

// BestURL picks the largest size variant, falling back to the legacy fixed-width fields.
func (p Photo) BestURL() string {
	best := ""
	bestArea := -1

	for _, s := range p.Sizes {
		if s.URL == "" {
			continue
		}

		// sizes are listed smallest first, so ">=" keeps the last entry when dimensions are missing
		if area := s.Width * s.Height; area >= bestArea {
			best, bestArea = s.URL, area
		}
	}

	return domain.UpgradeScheme(firstNonEmpty(best, p.Photo1280, p.Photo807, p.Photo604))
}

type VideoImage struct {
	URL    string `json:"url"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

type Video struct {
	ID      int64        `json:"id"`
	OwnerID int64        `json:"owner_id"`
	Title   string       `json:"title"`
	Player  string       `json:"player"`
	Image   []VideoImage `json:"image"`
}

// URL returns the embeddable player link or the canonical video page.
func (v Video) URL() string {
	if v.Player != "" {
		return domain.UpgradeScheme(v.Player)
	}

	return fmt.Sprintf("%s/video%d_%d", vkBaseURL, v.OwnerID, v.ID)
}

// Thumbnail returns the widest preview frame.
func (v Video) Thumbnail() string {
	best := ""
	bestWidth := -1

	for _, img := range v.Image {
		if img.URL != "" && img.Width >= bestWidth {
			best, bestWidth = img.URL, img.Width
		}
	}

	return domain.UpgradeScheme(best)
}

type Attachment struct {
	Type  string `json:"type"`
	Photo *Photo `json:"photo,omitempty"`
	Video *Video `json:"video,omitempty"`
}

type Post struct {
	ID          int64        `json:"id"`
	OwnerID     int64        `json:"owner_id"`
	FromID      int64        `json:"from_id"`
	Date        int64        `json:"date"`
	Text        string       `json:"text"`
	Attachments []Attachment `json:"attachments"`
	CopyHistory []Post       `json:"copy_history"`
}

// PlainText is the post text with entities decoded and lines tidied; a
// repost with no text of its own yields the first reposted text.
func (p Post) PlainText() string {
	text := htmlutils.PlainText(p.Text)
	if text == "" && len(p.CopyHistory) > 0 {
		text = htmlutils.PlainText(p.CopyHistory[0].Text)
	}

	return text
}

// PhotoURLs lists the post's photos followed by photos of reposted posts.
func (p Post) PhotoURLs() []string {
	seen := make(map[string]bool)

	var out []string

	add := func(post Post) {
		for _, a := range post.Attachments {
			if a.Type != attachmentPhoto || a.Photo == nil {
				continue
			}

			if u := a.Photo.BestURL(); u != "" && !seen[u] {
				seen[u] = true
				out = append(out, u)
			}
		}
	}

	add(p)

	for _, repost := range p.CopyHistory {
		add(repost)
	}

	return out
}

// Videos lists the video attachments of the post itself.
func (p Post) Videos() []Video {
	var out []Video

	for _, a := range p.Attachments {
		if a.Type == attachmentVideo && a.Video != nil {
			out = append(out, *a.Video)
		}
	}

	return out
}

// PublishedAt converts the unix date; zero dates yield nil.
func (p Post) PublishedAt() *time.Time {
	if p.Date <= 0 {
		return nil
	}

	t := time.Unix(p.Date, 0).UTC()

	return &t
}

// URL is the canonical wall link of the post.
func (p Post) URL() string {
	return PostURL(p.OwnerID, p.ID)
}

func PostURL(ownerID, postID int64) string {
	return fmt.Sprintf("%s/wall%d_%d", vkBaseURL, ownerID, postID)
}

// ParseWallID finds a wall<owner>_<post> reference anywhere in rawURL,
// including the ?w= form used by community pages.
func ParseWallID(rawURL string) (ownerID, postID int64, ok bool) {
	m := wallIDRe.FindStringSubmatch(rawURL)
	if m == nil {
		return 0, 0, false
	}

	owner, err := strconv.ParseInt(m[1], 10, 64)
	if err != nil {
		return 0, 0, false
	}

	post, err := strconv.ParseInt(m[2], 10, 64)
	if err != nil {
		return 0, 0, false
	}

	return owner, post, true
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}

	return ""
}

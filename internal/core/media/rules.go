package media

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/lueurxax/postmeta/internal/core/domain"
)

const caseInsensitive = "(?i)"

// Rules is the pattern table driving media classification. Every entry is a
// regular expression matched case-insensitively.
type Rules struct {
	GarbagePatterns []string `yaml:"garbage_patterns"`
	VideoPatterns   []string `yaml:"video_patterns"`
	VideoLinkHosts  []string `yaml:"video_link_hosts"`
	CDNPatterns     []string `yaml:"cdn_patterns"`
	GenericTitles   []string `yaml:"generic_titles"`
}

// DefaultRules returns the built-in table.
func DefaultRules() Rules {
	return Rules{
		GarbagePatterns: []string{
			`emoji`, `icon`, `favicon`, `avatar`, `logo`, `pixel`, `1x1`, `\bads\b`,
			`banner`, `loading`, `spinner`, `marker`, `sprite`, `placeholder`,
		},
		VideoPatterns: []string{
			`youtube\.com/watch`, `youtube\.com/shorts/`, `youtu\.be/`, `vimeo\.com/`,
			`vk\.com/video`, `vk\.com/clip`, `t\.me/[^/]+/\d+\?video=1`,
			`\.mp4(\?.*)?$`, `\.webm(\?.*)?$`,
		},
		VideoLinkHosts: []string{
			`^https?://(?:www\.|m\.)?youtube\.com/`,
			`^https?://youtu\.be/`,
			`^https?://(?:www\.)?vimeo\.com/`,
			`^https?://(?:www\.|m\.)?vk\.com/(?:video|clip)`,
		},
		CDNPatterns: []string{
			`https://telegra\.ph/file/[^\s"'<>()]+`,
			`https?://sun\d+-\d+\.userapi\.com/[^\s"'<>()]+`,
		},
		GenericTitles: []string{
			`telegram\s*widget`, `telegram\s*:\s*contact`, `vkontakte`, `вконтакте`,
			`wall\s*post`, `запись\s*на\s*стене`,
		},
	}
}

// LoadRules reads a YAML override file. Non-empty lists in the file replace
// the matching default list; an empty path yields the defaults.
func LoadRules(path string) (Rules, error) {
	rules := DefaultRules()
	if strings.TrimSpace(path) == "" {
		return rules, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Rules{}, fmt.Errorf("read media rules %s: %w", path, err)
	}

	var override Rules
	if err := yaml.Unmarshal(data, &override); err != nil {
		return Rules{}, fmt.Errorf("parse media rules %s: %w", path, err)
	}

	return rules.merge(override), nil
}

func (r Rules) merge(o Rules) Rules {
	pick := func(base, over []string) []string {
		if len(over) > 0 {
			return over
		}

		return base
	}

	return Rules{
		GarbagePatterns: pick(r.GarbagePatterns, o.GarbagePatterns),
		VideoPatterns:   pick(r.VideoPatterns, o.VideoPatterns),
		VideoLinkHosts:  pick(r.VideoLinkHosts, o.VideoLinkHosts),
		CDNPatterns:     pick(r.CDNPatterns, o.CDNPatterns),
		GenericTitles:   pick(r.GenericTitles, o.GenericTitles),
	}
}

// Matcher is a compiled Rules table. It is safe for concurrent use.
type Matcher struct {
	garbage       []*regexp.Regexp
	video         []*regexp.Regexp
	videoLinks    []*regexp.Regexp
	cdn           []*regexp.Regexp
	genericTitles []*regexp.Regexp
}

// Compile builds a Matcher, reporting every pattern that fails to compile.
func Compile(r Rules) (*Matcher, error) {
	var errs []error

	compile := func(group string, patterns []string) []*regexp.Regexp {
		out := make([]*regexp.Regexp, 0, len(patterns))

		for _, p := range patterns {
			re, err := regexp.Compile(caseInsensitive + p)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s pattern %q: %w", group, p, err))
				continue
			}

			out = append(out, re)
		}

		return out
	}

	m := &Matcher{
		garbage:       compile("garbage_patterns", r.GarbagePatterns),
		video:         compile("video_patterns", r.VideoPatterns),
		videoLinks:    compile("video_link_hosts", r.VideoLinkHosts),
		cdn:           compile("cdn_patterns", r.CDNPatterns),
		genericTitles: compile("generic_titles", r.GenericTitles),
	}

	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}

	return m, nil
}

// DefaultMatcher compiles DefaultRules.
func DefaultMatcher() *Matcher {
	m, err := Compile(DefaultRules())
	if err != nil {
		panic(err)
	}

	return m
}

// IsGarbage reports whether url looks like decoration rather than content.
func (m *Matcher) IsGarbage(url string) bool {
	return matchAny(m.garbage, url)
}

// IsVideoLink reports whether an anchor target points at a video host.
func (m *Matcher) IsVideoLink(url string) bool {
	return matchAny(m.videoLinks, url)
}

// IsGenericTitle reports whether title is platform boilerplate.
func (m *Matcher) IsGenericTitle(title string) bool {
	return matchAny(m.genericTitles, strings.TrimSpace(title))
}

// TypeOf classifies a media URL.
func (m *Matcher) TypeOf(url string) domain.MediaType {
	if matchAny(m.video, url) {
		return domain.MediaVideo
	}

	return domain.MediaImage
}

// FindCDN returns every CDN URL in markup, grouped by pattern.
func (m *Matcher) FindCDN(markup string) []string {
	var out []string

	for _, re := range m.cdn {
		out = append(out, re.FindAllString(markup, -1)...)
	}

	return out
}

func matchAny(patterns []*regexp.Regexp, s string) bool {
	for _, re := range patterns {
		if re.MatchString(s) {
			return true
		}
	}

	return false
}

package extract

// Log field constants
const (
	logKeyURL      = "url"
	logKeySource   = "source"
	logKeyTier     = "tier"
	logKeyOwner    = "owner"
	logKeyCount    = "count"
	logKeyOffset   = "offset"
	logKeyDuration = "duration"
	logKeyMedia    = "media"
)

// VK extraction tiers
const (
	tierAPI  = "api"
	tierPage = "page"
)

// Batch defaults
const (
	DefaultBatchCount    = 10
	DefaultBatchMaxCount = 100
	batchExcerptMaxChars = 160
	batchDefaultTitle    = "Новости VK"
	batchSourcePrefix    = "Источник: "
)

// Telegram widget selectors, most specific first.
var telegramTextSelectors = []string{
	".tgme_widget_message_bubble > .tgme_widget_message_text",
	".tgme_widget_message_text",
}

package config

import "time"

// DiscordConfig holds Discord gateway settings.
type DiscordConfig struct {
	Token string `env:"DISCORD_TOKEN"`
	// GuildID registers application commands to a single guild instead of globally.
	GuildID string `env:"DISCORD_GUILD_ID" envDefault:""`
}

// FetchConfig holds upstream HTTP fetch settings.
type FetchConfig struct {
	RPS       float64       `env:"FETCH_RPS" envDefault:"4"`
	Timeout   time.Duration `env:"FETCH_TIMEOUT" envDefault:"15s"`
	UserAgent string        `env:"FETCH_USER_AGENT" envDefault:"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"`
}

// PreviewConfig holds preview rendering and scraper settings.
type PreviewConfig struct {
	PageCacheTTL        time.Duration `env:"PAGE_CACHE_TTL" envDefault:"24h"`
	PageCacheMaxEntries int           `env:"PAGE_CACHE_MAX_ENTRIES" envDefault:"1024"`
	JMComicImageProxy   string        `env:"JMCOMIC_IMAGE_PROXY" envDefault:"https://enderdaniel.work/pic/transform?url="`
	JumpSelectMinPages  int           `env:"JUMP_SELECT_MIN_PAGES" envDefault:"10"`
	// EnabledSources limits the registered previewers; empty enables all.
	EnabledSources []string `env:"ENABLED_SOURCES" envSeparator:","`
}

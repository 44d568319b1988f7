package config

import (
	"log"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	defaultTimezone   = "Europe/Kyiv"
	fallbackTimezone  = "UTC"
	configPathEnv     = "FOOTBALL_NEWS_CONFIG"
	databaseDSNEnv    = "DATABASE_DSN"
	storageDriverEnv  = "STORAGE_DRIVER"
	redisAddrEnv      = "REDIS_ADDR"
	chatGPTAPIKeyEnv  = "CHATGPT_API_KEY"
	chatGPTModelEnv   = "CHATGPT_MODEL"
	telegramTokenEnv  = "TELEGRAM_BOT_TOKEN"
	telegramChatIDEnv = "TELEGRAM_CHAT_ID"
	logLevelEnv       = "LOG_LEVEL"
	httpAddrEnv       = "HTTP_ADDR"
)

// Config holds high-level settings required across the application.
type Config struct {
	Logging       LoggingConfig      `yaml:"logging"`
	Database      DatabaseConfig     `yaml:"database"`
	Scheduler     SchedulerConfig    `yaml:"scheduler"`
	Scraper       ScraperConfig      `yaml:"scraper"`
	Dedup         DedupConfig        `yaml:"dedup"`
	Notifications NotificationConfig `yaml:"notifications"`
	ML            MLConfig           `yaml:"ml"`
	ChatGPT       ChatGPTConfig      `yaml:"chatgpt"`
	HTTP          HTTPConfig         `yaml:"http"`
}

// LoggingConfig controls slog output.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// DatabaseConfig selects the posted-news log backend: postgres, sqlite or redis.
type DatabaseConfig struct {
	Driver    string `yaml:"driver"`
	DSN       string `yaml:"dsn"`
	RedisAddr string `yaml:"redisAddr"`
	RedisDB   int    `yaml:"redisDb"`
}

// SchedulerConfig defines when the pipeline runs and how far back it looks.
type SchedulerConfig struct {
	CronExpression string         `yaml:"cronExpression"`
	Timezone       string         `yaml:"timezone"`
	WorkStartHour  int            `yaml:"workStartHour"`
	WorkEndHour    int            `yaml:"workEndHour"`
	PollWindow     time.Duration  `yaml:"pollWindow"`
	CatchUpWindow  time.Duration  `yaml:"catchUpWindow"`
	location       *time.Location `yaml:"-"`
}

// Location resolves the scheduler timezone string to a time.Location.
func (s SchedulerConfig) Location() *time.Location {
	if s.location != nil {
		return s.location
	}
	loc, err := time.LoadLocation(defaultTimezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// ScraperConfig carries defaults shared by every source plus the source list.
type ScraperConfig struct {
	Timeout      time.Duration  `yaml:"timeout"`
	Delay        time.Duration  `yaml:"delay"`
	OldThreshold int            `yaml:"oldThreshold"`
	Sources      []SourceConfig `yaml:"sources"`
}

// SourceConfig enables a built-in source by name or declares a new one.
// Non-empty fields override the built-in rule table.
type SourceConfig struct {
	Name              string            `yaml:"name"`
	Disabled          bool              `yaml:"disabled"`
	BaseURL           string            `yaml:"baseUrl"`
	ListingURL        string            `yaml:"listingUrl"`
	FeedURL           string            `yaml:"feedUrl"`
	SectionHeaders    []string          `yaml:"sectionHeaders"`
	FallbackSelectors []string          `yaml:"fallbackSelectors"`
	AllowPatterns     []string          `yaml:"allowPatterns"`
	DenyPatterns      []string          `yaml:"denyPatterns"`
	TimeSelectors     []string          `yaml:"timeSelectors"`
	ContentSelectors  []string          `yaml:"contentSelectors"`
	DenyPhrases       []string          `yaml:"denyPhrases"`
	ImageSelectors    []string          `yaml:"imageSelectors"`
	Locales           []string          `yaml:"locales"`
	MinTitleLength    int               `yaml:"minTitleLength"`
	MaxCandidates     int               `yaml:"maxCandidates"`
	MaxContentLength  int               `yaml:"maxContentLength"`
	MinWords          int               `yaml:"minWords"`
	MaxWords          int               `yaml:"maxWords"`
	OldThreshold      int               `yaml:"oldThreshold"`
	Delay             time.Duration     `yaml:"delay"`
	Timeout           time.Duration     `yaml:"timeout"`
	Headers           map[string]string `yaml:"headers"`
}

// DedupConfig tunes the similarity check against recently posted news.
type DedupConfig struct {
	Window     time.Duration `yaml:"window"`
	Similarity float64       `yaml:"similarity"`
}

// NotificationConfig encapsulates outbound channels (Telegram, etc.).
type NotificationConfig struct {
	Telegram TelegramConfig `yaml:"telegram"`
}

// TelegramConfig wires all data required to send messages.
type TelegramConfig struct {
	BotToken string `yaml:"botToken"`
	ChatID   string `yaml:"chatId"`
	APIURL   string `yaml:"apiUrl"`
}

// MLConfig describes the optional external summarization service.
type MLConfig struct {
	InferenceURL string `yaml:"inferenceUrl"`
	APIKey       string `yaml:"apiKey"`
}

// ChatGPTConfig defines how to contact the ChatGPT API for translation.
type ChatGPTConfig struct {
	Endpoint       string `yaml:"endpoint"`
	Model          string `yaml:"model"`
	APIKey         string `yaml:"apiKey"`
	SystemPrompt   string `yaml:"systemPrompt"`
	TargetLanguage string `yaml:"targetLanguage"`
}

// HTTPConfig configures the operations API; an empty address disables it.
type HTTPConfig struct {
	Addr string `yaml:"addr"`
}

// Load reads YAML configuration (if present) and applies environment overrides.
func Load() Config {
	cfg := defaultConfig()

	if path := os.Getenv(configPathEnv); path != "" {
		if raw, err := os.ReadFile(path); err != nil {
			log.Printf("config: cannot read %s: %v (falling back to defaults)", path, err)
		} else if fileCfg, err := Parse(raw); err != nil {
			log.Printf("config: cannot parse %s: %v (falling back to defaults)", path, err)
		} else {
			cfg = mergeConfig(cfg, fileCfg)
		}
	}

	cfg.applyEnvOverrides()
	cfg.bindTimezone()

	if len(cfg.Scraper.Sources) == 0 {
		cfg.Scraper.Sources = defaultConfig().Scraper.Sources
	}

	return cfg
}

// Parse decodes a YAML document without applying defaults.
func Parse(raw []byte) (Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// EnabledSources returns the sources that are not disabled, in file order.
func (c Config) EnabledSources() []SourceConfig {
	out := make([]SourceConfig, 0, len(c.Scraper.Sources))
	for _, src := range c.Scraper.Sources {
		if src.Disabled || strings.TrimSpace(src.Name) == "" {
			continue
		}
		out = append(out, src)
	}
	return out
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv(databaseDSNEnv); v != "" {
		c.Database.DSN = v
	}
	if v := os.Getenv(storageDriverEnv); v != "" {
		c.Database.Driver = v
	}
	if v := os.Getenv(redisAddrEnv); v != "" {
		c.Database.RedisAddr = v
	}

	if v := os.Getenv(telegramTokenEnv); v != "" {
		c.Notifications.Telegram.BotToken = v
	}
	if v := os.Getenv(telegramChatIDEnv); v != "" {
		c.Notifications.Telegram.ChatID = v
	}

	if v := os.Getenv(chatGPTAPIKeyEnv); v != "" {
		c.ChatGPT.APIKey = v
	}
	if v := os.Getenv(chatGPTModelEnv); v != "" {
		c.ChatGPT.Model = v
	}

	if v := os.Getenv(logLevelEnv); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv(httpAddrEnv); v != "" {
		c.HTTP.Addr = v
	}
}

func (c *Config) bindTimezone() {
	tz := c.Scheduler.Timezone
	if tz == "" {
		tz = defaultTimezone
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		log.Printf("config: unknown timezone %s, reverting to %s", tz, fallbackTimezone)
		tz = fallbackTimezone
		loc = time.UTC
	}
	c.Scheduler.Timezone = tz
	c.Scheduler.location = loc
}

func mergeConfig(base, override Config) Config {
	if override.Logging.Level != "" {
		base.Logging.Level = override.Logging.Level
	}
	if override.Logging.Format != "" {
		base.Logging.Format = override.Logging.Format
	}

	if override.Database.Driver != "" {
		base.Database.Driver = override.Database.Driver
	}
	if override.Database.DSN != "" {
		base.Database.DSN = override.Database.DSN
	}
	if override.Database.RedisAddr != "" {
		base.Database.RedisAddr = override.Database.RedisAddr
	}
	if override.Database.RedisDB != 0 {
		base.Database.RedisDB = override.Database.RedisDB
	}

	if override.Scheduler.CronExpression != "" {
		base.Scheduler.CronExpression = override.Scheduler.CronExpression
	}
	if override.Scheduler.Timezone != "" {
		base.Scheduler.Timezone = override.Scheduler.Timezone
	}
	if override.Scheduler.WorkStartHour != 0 {
		base.Scheduler.WorkStartHour = override.Scheduler.WorkStartHour
	}
	if override.Scheduler.WorkEndHour != 0 {
		base.Scheduler.WorkEndHour = override.Scheduler.WorkEndHour
	}
	if override.Scheduler.PollWindow != 0 {
		base.Scheduler.PollWindow = override.Scheduler.PollWindow
	}
	if override.Scheduler.CatchUpWindow != 0 {
		base.Scheduler.CatchUpWindow = override.Scheduler.CatchUpWindow
	}

	if override.Scraper.Timeout != 0 {
		base.Scraper.Timeout = override.Scraper.Timeout
	}
	if override.Scraper.Delay != 0 {
		base.Scraper.Delay = override.Scraper.Delay
	}
	if override.Scraper.OldThreshold != 0 {
		base.Scraper.OldThreshold = override.Scraper.OldThreshold
	}
	if len(override.Scraper.Sources) > 0 {
		base.Scraper.Sources = override.Scraper.Sources
	}

	if override.Dedup.Window != 0 {
		base.Dedup.Window = override.Dedup.Window
	}
	if override.Dedup.Similarity != 0 {
		base.Dedup.Similarity = override.Dedup.Similarity
	}

	if override.Notifications.Telegram.BotToken != "" {
		base.Notifications.Telegram.BotToken = override.Notifications.Telegram.BotToken
	}
	if override.Notifications.Telegram.ChatID != "" {
		base.Notifications.Telegram.ChatID = override.Notifications.Telegram.ChatID
	}
	if override.Notifications.Telegram.APIURL != "" {
		base.Notifications.Telegram.APIURL = override.Notifications.Telegram.APIURL
	}

	if override.ML.InferenceURL != "" {
		base.ML.InferenceURL = override.ML.InferenceURL
	}
	if override.ML.APIKey != "" {
		base.ML.APIKey = override.ML.APIKey
	}

	if override.ChatGPT.Endpoint != "" {
		base.ChatGPT.Endpoint = override.ChatGPT.Endpoint
	}
	if override.ChatGPT.Model != "" {
		base.ChatGPT.Model = override.ChatGPT.Model
	}
	if override.ChatGPT.APIKey != "" {
		base.ChatGPT.APIKey = override.ChatGPT.APIKey
	}
	if override.ChatGPT.SystemPrompt != "" {
		base.ChatGPT.SystemPrompt = override.ChatGPT.SystemPrompt
	}
	if override.ChatGPT.TargetLanguage != "" {
		base.ChatGPT.TargetLanguage = override.ChatGPT.TargetLanguage
	}

	if override.HTTP.Addr != "" {
		base.HTTP.Addr = override.HTTP.Addr
	}

	return base
}

func defaultConfig() Config {
	return Config{
		Logging:  LoggingConfig{Level: "info", Format: "text"},
		Database: DatabaseConfig{Driver: "sqlite", DSN: "file:footballnews.db?_pragma=busy_timeout(5000)"},
		Scheduler: SchedulerConfig{
			CronExpression: "*/20 * * * *",
			Timezone:       defaultTimezone,
			WorkStartHour:  8,
			WorkEndHour:    23,
			PollWindow:     20 * time.Minute,
			CatchUpWindow:  5 * time.Hour,
		},
		Scraper: ScraperConfig{
			Timeout:      15 * time.Second,
			Delay:        2 * time.Second,
			OldThreshold: 2,
			Sources: []SourceConfig{
				{Name: "footballua"},
				{Name: "sportua"},
				{Name: "uafootball"},
				{Name: "tribuna"},
			},
		},
		Dedup: DedupConfig{Window: 72 * time.Hour, Similarity: 0.7},
		Notifications: NotificationConfig{
			Telegram: TelegramConfig{APIURL: "https://api.telegram.org"},
		},
		ChatGPT: ChatGPTConfig{
			Endpoint:       "https://api.openai.com/v1/chat/completions",
			Model:          "gpt-4o-mini",
			SystemPrompt:   "You translate football news for a Telegram channel. Keep names of players and clubs, keep the tone neutral and return only the translated text.",
			TargetLanguage: "Ukrainian",
		},
	}
}

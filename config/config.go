package config

import (
	"log"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/spf13/viper"
)

// Config holds all configuration values.
type Config struct {
	AppPort           string `mapstructure:"APP_PORT"`
	Env               string `mapstructure:"ENV"`
	LogLevel          string `mapstructure:"LOG_LEVEL"`
	MaxRequestsPerMin int    `mapstructure:"MAX_REQUESTS_PER_MIN"`
	MaxMessagesPerMin int    `mapstructure:"MAX_MESSAGES_PER_MIN"`

	// Booking behaviour.
	BusinessTimezone   string        `mapstructure:"BUSINESS_TIMEZONE"`
	DefaultHour        int           `mapstructure:"DEFAULT_HOUR"`
	UnparsedDatePolicy string        `mapstructure:"UNPARSED_DATE_POLICY"`
	FallbackHour       int           `mapstructure:"FALLBACK_HOUR"`
	AffirmativeTokens  []string      `mapstructure:"AFFIRMATIVE_TOKENS"`
	PendingTTL         time.Duration `mapstructure:"PENDING_TTL"`
	MaxTurns           int           `mapstructure:"MAX_TURNS"`

	// Deadlines.
	RequestDeadline     time.Duration `mapstructure:"REQUEST_DEADLINE"`
	CollaboratorTimeout time.Duration `mapstructure:"COLLABORATOR_TIMEOUT"`

	// Conversation store.
	StoreBackend    string        `mapstructure:"STORE_BACKEND"`
	ConversationTTL time.Duration `mapstructure:"CONVERSATION_TTL"`

	// Redis configuration.
	RedisAddr            string `mapstructure:"REDIS_ADDR"`
	RedisPassword        string `mapstructure:"REDIS_PASSWORD"`
	RedisConversationDB  int    `mapstructure:"REDIS_CONVERSATION_DB"`
	RedisReminderQueueDB int    `mapstructure:"REDIS_REMINDER_QUEUE_DB"`

	// Language model.
	LLMProvider   string `mapstructure:"LLM_PROVIDER"`
	OpenAIAPIKey  string `mapstructure:"OPENAI_API_KEY"`
	OpenAIModel   string `mapstructure:"OPENAI_MODEL"`
	OpenAIBaseURL string `mapstructure:"OPENAI_BASE_URL"`
	GeminiAPIKey  string `mapstructure:"GEMINI_API_KEY"`
	GeminiModel   string `mapstructure:"GEMINI_MODEL"`

	// Messenger.
	VerifyToken     string `mapstructure:"VERIFY_TOKEN"`
	PageAccessToken string `mapstructure:"PAGE_ACCESS_TOKEN"`
	AppSecret       string `mapstructure:"APP_SECRET"`
	GraphAPIURL     string `mapstructure:"GRAPH_API_URL"`

	// Google Sheets and Calendar.
	GoogleCredentialsJSON string `mapstructure:"GOOGLE_CREDENTIALS_JSON"`
	GoogleSheetID         string `mapstructure:"GOOGLE_SHEET_ID"`
	GoogleCalendarID      string `mapstructure:"GOOGLE_CALENDAR_ID"`
	ServicesRange         string `mapstructure:"SERVICES_RANGE"`
	BarbersRange          string `mapstructure:"BARBERS_RANGE"`
	ClientsRange          string `mapstructure:"CLIENTS_RANGE"`
	HistoryRange          string `mapstructure:"HISTORY_RANGE"`

	// MongoDB booking records; empty URL disables the mirror.
	DatabaseURL  string `mapstructure:"DATABASE_URL"`
	DatabaseName string `mapstructure:"DATABASE_NAME"`

	// Appointment reminders.
	RemindersEnabled bool          `mapstructure:"REMINDERS_ENABLED"`
	ReminderLead     time.Duration `mapstructure:"REMINDER_LEAD"`
}

var AppConfig Config

func LoadConfig() {
	// Look for a config file named "config.yaml" in the current and "config" directory.
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")
	// Automatically use environment variables where available.
	viper.AutomaticEnv()

	setDefaults(viper.GetViper())

	if err := viper.ReadInConfig(); err != nil {
		log.Println("No config file found, using environment variables only")
	}

	if err := viper.Unmarshal(&AppConfig); err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	AppConfig.AffirmativeTokens = splitTokens(AppConfig.AffirmativeTokens)
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("APP_PORT", "8080")
	v.SetDefault("ENV", "development")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("MAX_REQUESTS_PER_MIN", 600)
	v.SetDefault("MAX_MESSAGES_PER_MIN", 20)

	v.SetDefault("BUSINESS_TIMEZONE", "Europe/Oslo")
	v.SetDefault("DEFAULT_HOUR", 12)
	v.SetDefault("UNPARSED_DATE_POLICY", "clarify")
	v.SetDefault("FALLBACK_HOUR", 13)
	v.SetDefault("AFFIRMATIVE_TOKENS", []string{
		"yes", "y", "ok", "okay", "sure", "confirm",
		"да", "добре", "ок", "потвърждавам",
		"ja", "jepp", "greit",
	})
	v.SetDefault("PENDING_TTL", 30*time.Minute)
	v.SetDefault("MAX_TURNS", 20)

	v.SetDefault("REQUEST_DEADLINE", 25*time.Second)
	v.SetDefault("COLLABORATOR_TIMEOUT", 10*time.Second)

	v.SetDefault("STORE_BACKEND", "memory")
	v.SetDefault("CONVERSATION_TTL", 24*time.Hour)
	v.SetDefault("REDIS_ADDR", "localhost:6379")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_CONVERSATION_DB", 0)
	v.SetDefault("REDIS_REMINDER_QUEUE_DB", 3)

	v.SetDefault("LLM_PROVIDER", "openai")
	v.SetDefault("OPENAI_MODEL", "gpt-4o")
	v.SetDefault("OPENAI_BASE_URL", "")
	v.SetDefault("GEMINI_MODEL", "models/gemini-1.5-pro")

	v.SetDefault("VERIFY_TOKEN", "barberbot_verify_token")
	v.SetDefault("GRAPH_API_URL", "https://graph.facebook.com/v19.0")

	v.SetDefault("SERVICES_RANGE", "Services!A2:C")
	v.SetDefault("BARBERS_RANGE", "Barbers!A2:E")
	v.SetDefault("CLIENTS_RANGE", "Clients!A:F")
	v.SetDefault("HISTORY_RANGE", "History!A:F")

	v.SetDefault("DATABASE_URL", "")
	v.SetDefault("DATABASE_NAME", "barberbot")

	v.SetDefault("REMINDERS_ENABLED", false)
	v.SetDefault("REMINDER_LEAD", 2*time.Hour)
}

// splitTokens accepts both a YAML list and a comma separated env value.
func splitTokens(raw []string) []string {
	var tokens []string
	for _, entry := range raw {
		for _, tok := range strings.Split(entry, ",") {
			tok = strings.ToLower(strings.TrimSpace(tok))
			if tok != "" {
				tokens = append(tokens, tok)
			}
		}
	}
	return tokens
}

func GetEnv() string {
	return AppConfig.Env
}

func IsProduction() bool {
	return GetEnv() == "production"
}

// Location loads the business timezone, falling back to UTC.
func Location() *time.Location {
	loc, err := time.LoadLocation(AppConfig.BusinessTimezone)
	if err != nil {
		log.Printf("Unknown BUSINESS_TIMEZONE %q, using UTC", AppConfig.BusinessTimezone)
		return time.UTC
	}
	return loc
}

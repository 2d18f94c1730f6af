package config

import (
	"errors"
	"io/fs"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Config struct {
	Server      ServerConfig
	OpenAI      OpenAIConfig
	RedisConfig RedisConfig
	Playback    PlaybackConfig
	Reader      ReaderConfig
	CacheEnable bool `env:"CACHE_ENABLE"`
}

type RedisConfig struct {
	Addr     string        `env:"REDIS_ADDR" envDefault:"redis:6379"`
	Password string        `env:"REDIS_PASSWORD"`
	DB       int           `env:"REDIS_DB" envDefault:"0"`
	TTL      time.Duration `env:"REDIS_TTL" envDefault:"30m"`
}

type ServerConfig struct {
	Port            string        `env:"SERVER_PORT" envDefault:"8080"`
	Timeout         time.Duration `env:"SERVER_TIMEOUT" envDefault:"6m"`
	ShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" envDefault:"10s"`
	ThrottleLimit   int           `env:"SERVER_THROTTLE_LIMIT" envDefault:"20"`

	// WSAllowedOrigins are extra browser origins allowed on the websocket route.
	WSAllowedOrigins []string `env:"SERVER_WS_ALLOWED_ORIGINS" envSeparator:","`
}

type OpenAIConfig struct {
	APIKey  string        `env:"OPENAI_API_KEY"`
	BaseURL string        `env:"OPENAI_BASE_URL" envDefault:"https://dashscope.aliyuncs.com/compatible-mode/v1"`
	Model   string        `env:"OPENAI_MODEL" envDefault:"qwen3-omni-flash"`
	Timeout time.Duration `env:"OPENAI_TIMEOUT" envDefault:"5m"`
}

type PlaybackConfig struct {
	// PlayerCommand is run with the wav path appended.
	PlayerCommand []string `env:"PLAYBACK_PLAYER_COMMAND" envSeparator:" " envDefault:"aplay -q"`
	TempDir       string   `env:"PLAYBACK_TEMP_DIR"`

	SpeechBackend string   `env:"PLAYBACK_SPEECH_BACKEND" envDefault:"exec"`
	SpeechCommand []string `env:"PLAYBACK_SPEECH_COMMAND" envSeparator:" " envDefault:"espeak-ng"`
	SpeechRate    float64  `env:"PLAYBACK_SPEECH_RATE" envDefault:"0.8"`
	SpeechPitch   float64  `env:"PLAYBACK_SPEECH_PITCH" envDefault:"1.0"`

	SpeechModel string `env:"PLAYBACK_SPEECH_MODEL" envDefault:"tts-1"`
	SpeechVoice string `env:"PLAYBACK_SPEECH_VOICE" envDefault:"alloy"`
}

type ReaderConfig struct {
	DefaultLanguage string  `env:"READER_DEFAULT_LANGUAGE" envDefault:"zh"`
	PDFDPI          float64 `env:"READER_PDF_DPI" envDefault:"150"`
}

// Load reads an optional .env file and then the process environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, err
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

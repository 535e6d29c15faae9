package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/pion/webrtc/v4"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

type Config struct {
	Mode       string        `mapstructure:"mode"`
	Port       int           `mapstructure:"port"`
	StaticPath string        `mapstructure:"static_path"`
	AudioPath  string        `mapstructure:"audio_path"`
	ReadLimit  int64         `mapstructure:"read_limit"`
	PingPeriod time.Duration `mapstructure:"ping_period"`
	Secret     string        `mapstructure:"secret"`
	SendBuffer int           `mapstructure:"send_buffer"`

	RingTimeout      time.Duration `mapstructure:"ring_timeout"`
	InitiateLimit    int           `mapstructure:"initiate_limit"`
	InitiateInterval time.Duration `mapstructure:"initiate_interval"`

	ICEServers []ICEServer `mapstructure:"ice_servers"`

	Stream Stream `mapstructure:"stream"`
	Speech Speech `mapstructure:"speech"`
	NATS   NATS   `mapstructure:"nats"`
}

type ICEServer struct {
	URLs       []string `mapstructure:"urls"`
	Username   string   `mapstructure:"username"`
	Credential string   `mapstructure:"credential"`
}

// Stream is the external video/chat platform holding the user directory.
type Stream struct {
	APIKey    string        `mapstructure:"api_key"`
	APISecret string        `mapstructure:"api_secret"`
	BaseURL   string        `mapstructure:"base_url"`
	TokenTTL  time.Duration `mapstructure:"token_ttl"`
}

type Speech struct {
	APIKey       string `mapstructure:"api_key"`
	BaseURL      string `mapstructure:"base_url"`
	Model        string `mapstructure:"model"`
	Voice        string `mapstructure:"voice"`
	Instructions string `mapstructure:"instructions"`
}

// NATS mirrors presence and call changes when URL is set.
type NATS struct {
	URL           string `mapstructure:"url"`
	SubjectPrefix string `mapstructure:"subject_prefix"`
}

// WebRTCICEServers converts the configured servers for clients.
func (c *Config) WebRTCICEServers() []webrtc.ICEServer {
	out := make([]webrtc.ICEServer, 0, len(c.ICEServers))
	for _, s := range c.ICEServers {
		srv := webrtc.ICEServer{URLs: s.URLs, Username: s.Username}
		if s.Credential != "" {
			srv.Credential = s.Credential
			srv.CredentialType = webrtc.ICECredentialTypePassword
		}
		out = append(out, srv)
	}
	return out
}

// LoadWith reads the config into v, so callers can bind flags first.
// The file is config/config.<CONFIG_ENV>.yaml unless CONFIG_FILE is set;
// TELECALL_<KEY> environment variables override it.
func LoadWith(v *viper.Viper) (*Config, error) {
	v.SetConfigType("yaml")

	env := os.Getenv("CONFIG_ENV")
	if env == "" {
		env = "dev"
	}
	fileName := os.Getenv("CONFIG_FILE")
	if fileName == "" {
		fileName = fmt.Sprintf("config/config.%s.yaml", env)
	}

	v.SetConfigFile(fileName)
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	v.SetDefault("mode", "release")
	v.SetDefault("port", 3000)
	v.SetDefault("static_path", "./web")
	v.SetDefault("audio_path", "./audio")
	v.SetDefault("read_limit", 32768)
	v.SetDefault("ping_period", "54s")
	v.SetDefault("secret", "telecall-dev-secret")
	v.SetDefault("send_buffer", 32)
	v.SetDefault("ring_timeout", "0s")
	v.SetDefault("initiate_limit", 10)
	v.SetDefault("initiate_interval", "1m")
	v.SetDefault("ice_servers", []map[string]any{
		{"urls": []string{"stun:stun.l.google.com:19302"}},
	})
	v.SetDefault("stream.api_key", "")
	v.SetDefault("stream.api_secret", "")
	v.SetDefault("stream.base_url", "https://video.stream-io-api.com")
	v.SetDefault("stream.token_ttl", "0s")
	v.SetDefault("speech.api_key", "")
	v.SetDefault("speech.base_url", "https://api.openai.com")
	v.SetDefault("speech.model", "gpt-4o-mini-tts")
	v.SetDefault("speech.voice", "alloy")
	v.SetDefault("speech.instructions", "")
	v.SetDefault("nats.url", "")
	v.SetDefault("nats.subject_prefix", "telecall")

	v.SetEnvPrefix("TELECALL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	// Unprefixed names kept for existing deployments.
	_ = v.BindEnv("port", "TELECALL_PORT", "PORT")
	_ = v.BindEnv("stream.api_key", "TELECALL_STREAM_API_KEY", "STREAM_API_KEY")
	_ = v.BindEnv("stream.api_secret", "TELECALL_STREAM_API_SECRET", "STREAM_API_SECRET")
	_ = v.BindEnv("speech.api_key", "TELECALL_SPEECH_API_KEY", "OPENAI_API_KEY")

	if err := v.ReadInConfig(); err != nil {
		log.Warn().Str("module", "config").Str("file", fileName).Msg("config file not found, using defaults")
	} else {
		log.Info().Str("module", "config").Str("file", fileName).Msg("loaded config")
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if cfg.SendBuffer <= 0 {
		return nil, fmt.Errorf("send_buffer must be positive, got %d", cfg.SendBuffer)
	}
	if cfg.PingPeriod <= 0 {
		return nil, fmt.Errorf("ping_period must be positive, got %s", cfg.PingPeriod)
	}
	if cfg.InitiateLimit > 0 && cfg.InitiateInterval <= 0 {
		return nil, fmt.Errorf("initiate_interval must be positive when initiate_limit is set, got %s", cfg.InitiateInterval)
	}
	log.Info().Str("module", "config").Str("mode", cfg.Mode).Int("port", cfg.Port).Str("static", cfg.StaticPath).Msg("config ready")
	return &cfg, nil
}

package config

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Mode       string `mapstructure:"mode"`
	Port       int    `mapstructure:"port"`
	StaticPath string `mapstructure:"static_path"`
	ReadLimit  int64  `mapstructure:"read_limit"`
	Secret     string `mapstructure:"secret"`

	DefaultRoom string        `mapstructure:"default_room"`
	GateMargin  time.Duration `mapstructure:"gate_margin"`

	// Azure Cognitive Services credentials. The relay core never reads
	// these; they only feed the adapter constructors in main.
	SpeechKey          string `mapstructure:"speech_key"`
	SpeechRegion       string `mapstructure:"speech_region"`
	TranslatorKey      string `mapstructure:"translator_key"`
	TranslatorRegion   string `mapstructure:"translator_region"`
	TranslatorEndpoint string `mapstructure:"translator_endpoint"`
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")

	env := os.Getenv("CONFIG_ENV")
	if env == "" {
		env = "dev"
	}
	fileName := fmt.Sprintf("config/config.%s.yaml", env)

	v.SetConfigFile(fileName)
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	v.SetDefault("mode", "release")
	v.SetDefault("port", 8080)
	v.SetDefault("static_path", "./web")
	v.SetDefault("read_limit", 32768)
	v.SetDefault("default_room", "default-room")
	v.SetDefault("gate_margin", "200ms")
	v.SetDefault("speech_region", "centralindia")
	v.SetDefault("translator_region", "centralindia")
	v.SetDefault("translator_endpoint", "https://api.cognitive.microsofttranslator.com")

	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		fmt.Printf("⚠️ Config file not found (%s), using defaults\n", fileName)
	} else {
		fmt.Printf("✅ Loaded config: %s\n", fileName)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	fmt.Printf("🧩 Mode: %s | Port: %d | Default room: %s\n", cfg.Mode, cfg.Port, cfg.DefaultRoom)
	return &cfg, nil
}

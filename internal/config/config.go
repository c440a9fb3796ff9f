package config

import (
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
)

const (
	DefaultSocketPath   = "/tmp/lyricpip.sock"
	DefaultPollInterval = 500 * time.Millisecond
	DefaultMprisService = "org.mpris.MediaPlayer2.spotify"
)

func getDefaultCacheDir() string {
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, "lyricpip")
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "lyricpip_cache"
	}
	return filepath.Join(homeDir, ".cache", "lyricpip")
}

// TomlConfig mirrors the on-disk config file layout.
type TomlConfig struct {
	App struct {
		SocketPath   string `toml:"socket_path"`
		PollInterval string `toml:"poll_interval"`
		CacheDir     string `toml:"cache_dir"`
		OffsetFile   string `toml:"offset_file"`
	} `toml:"app"`

	Player struct {
		Backend      string `toml:"backend"`
		MprisService string `toml:"mpris_service"`
	} `toml:"player"`

	Providers struct {
		LrclibURL      string `toml:"lrclib_url"`
		GeniusToken    string `toml:"genius_token"`
		NeteaseDisable bool   `toml:"netease_disable"`
	} `toml:"providers"`

	Redis struct {
		Enable   bool   `toml:"enable"`
		Addr     string `toml:"addr"`
		Password string `toml:"password"`
		DB       int    `toml:"db"`
	} `toml:"redis"`
}

type AppConfig struct {
	SocketPath   string
	PollInterval time.Duration
	CacheDir     string
	OffsetFile   string
}

type PlayerConfig struct {
	Backend      string
	MprisService string
}

type ProvidersConfig struct {
	LrclibURL     string
	GeniusToken   string
	NeteaseEnable bool
}

type RedisConfig struct {
	Enable   bool
	Addr     string
	Password string
	DB       int
}

type Config struct {
	App       AppConfig
	Player    PlayerConfig
	Providers ProvidersConfig
	Redis     RedisConfig
}

func getConfigPath() string {
	if configHome := os.Getenv("XDG_CONFIG_HOME"); configHome != "" {
		return filepath.Join(configHome, "lyricpip", "config.toml")
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		log.Printf("WARN: Cannot get user home directory: %v", err)
		return "config.toml"
	}
	return filepath.Join(homeDir, ".config", "lyricpip", "config.toml")
}

func loadTomlConfig() (*TomlConfig, error) {
	configPath := getConfigPath()

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		log.Printf("INFO: Config file not found at %s, using defaults", configPath)
		return &TomlConfig{}, nil
	}

	var config TomlConfig
	if _, err := toml.DecodeFile(configPath, &config); err != nil {
		return nil, err
	}
	log.Printf("INFO: Loaded config from %s", configPath)
	return &config, nil
}

// Load reads the config file, falling back to defaults for anything
// unset or when the file is missing entirely.
func Load() *Config {
	tomlConfig, err := loadTomlConfig()
	if err != nil {
		log.Printf("ERROR: Failed to load config file: %v", err)
		log.Printf("INFO: Using default configuration")
		tomlConfig = &TomlConfig{}
	}

	cacheDir := getDefaultCacheDir()
	config := &Config{
		App: AppConfig{
			SocketPath:   DefaultSocketPath,
			PollInterval: DefaultPollInterval,
			CacheDir:     cacheDir,
			OffsetFile:   filepath.Join(cacheDir, "offsets.json"),
		},
		Player: PlayerConfig{
			Backend:      "mpris",
			MprisService: DefaultMprisService,
		},
		Providers: ProvidersConfig{
			NeteaseEnable: true,
		},
		Redis: RedisConfig{
			Addr: "localhost:6379",
		},
	}

	if tomlConfig.App.SocketPath != "" {
		config.App.SocketPath = tomlConfig.App.SocketPath
	}
	if tomlConfig.App.PollInterval != "" {
		if duration, err := time.ParseDuration(tomlConfig.App.PollInterval); err == nil {
			config.App.PollInterval = duration
		} else {
			log.Printf("WARN: Invalid poll_interval format '%s', using default", tomlConfig.App.PollInterval)
		}
	}
	if tomlConfig.App.CacheDir != "" {
		config.App.CacheDir = tomlConfig.App.CacheDir
		config.App.OffsetFile = filepath.Join(tomlConfig.App.CacheDir, "offsets.json")
	}
	if tomlConfig.App.OffsetFile != "" {
		config.App.OffsetFile = tomlConfig.App.OffsetFile
	}

	if tomlConfig.Player.Backend != "" {
		config.Player.Backend = tomlConfig.Player.Backend
	}
	if tomlConfig.Player.MprisService != "" {
		config.Player.MprisService = tomlConfig.Player.MprisService
	}

	config.Providers.LrclibURL = tomlConfig.Providers.LrclibURL
	if tomlConfig.Providers.GeniusToken != "" {
		config.Providers.GeniusToken = tomlConfig.Providers.GeniusToken
	}
	config.Providers.NeteaseEnable = !tomlConfig.Providers.NeteaseDisable

	config.Redis.Enable = tomlConfig.Redis.Enable
	if tomlConfig.Redis.Addr != "" {
		config.Redis.Addr = tomlConfig.Redis.Addr
	}
	if tomlConfig.Redis.Password != "" {
		config.Redis.Password = tomlConfig.Redis.Password
	}
	if tomlConfig.Redis.DB != 0 {
		config.Redis.DB = tomlConfig.Redis.DB
	}

	return config
}

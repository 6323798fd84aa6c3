package config

import (
	"errors"
	"strings"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// DirectoryConfig holds browse settings that may change without a restart.
type DirectoryConfig struct {
	ServiceCategories []string `mapstructure:"serviceCategories"`
	LogoConcurrency   int      `mapstructure:"logoConcurrency"`
}

func DefaultDirectoryConfig() DirectoryConfig {
	return DirectoryConfig{
		ServiceCategories: []string{
			"Medical Coding",
			"Medical Billing",
			"Revenue Cycle Management",
			"Claims Processing",
			"Healthcare IT",
			"Clinical Documentation",
			"Medical Transcription",
			"Prior Authorization",
			"Patient Support Services",
		},
		LogoConcurrency: 8,
	}
}

type DirectoryConfigHolder struct {
	current atomic.Value // holds DirectoryConfig
}

// NewStaticDirectoryConfigHolder returns a holder that never reloads.
func NewStaticDirectoryConfigHolder(cfg DirectoryConfig) *DirectoryConfigHolder {
	holder := &DirectoryConfigHolder{}
	holder.current.Store(cfg)
	return holder
}

func NewDirectoryConfigHolder(log *zap.Logger) (*DirectoryConfigHolder, error) {
	v := viper.New()

	v.SetConfigName("directory")
	v.SetConfigType("yml")
	v.AddConfigPath("/etc/bpo-directory")
	v.AddConfigPath(".")

	v.SetEnvPrefix("DIRECTORY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	defaults := DefaultDirectoryConfig()
	v.SetDefault("directory.serviceCategories", defaults.ServiceCategories)
	v.SetDefault("directory.logoConcurrency", defaults.LogoConcurrency)

	fileLoaded := true
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
		fileLoaded = false
	}

	var cfg DirectoryConfig
	if err := v.UnmarshalKey("directory", &cfg); err != nil {
		return nil, err
	}
	if err := validateDirectoryConfig(cfg); err != nil {
		return nil, err
	}

	holder := NewStaticDirectoryConfigHolder(cfg)
	if !fileLoaded {
		return holder, nil
	}

	v.WatchConfig()
	v.OnConfigChange(func(e fsnotify.Event) {
		var updated DirectoryConfig
		if err := v.UnmarshalKey("directory", &updated); err != nil {
			log.Warn("directory config reload failed", zap.Error(err))
			return
		}
		if err := validateDirectoryConfig(updated); err != nil {
			log.Warn("invalid directory config ignored", zap.Error(err))
			return
		}
		holder.current.Store(updated)
		log.Info("directory config reloaded", zap.String("file", e.Name))
	})

	return holder, nil
}

func (h *DirectoryConfigHolder) Get() DirectoryConfig {
	if h == nil {
		return DefaultDirectoryConfig()
	}
	cfg, ok := h.current.Load().(DirectoryConfig)
	if !ok {
		return DefaultDirectoryConfig()
	}
	return cfg
}

func validateDirectoryConfig(cfg DirectoryConfig) error {
	if len(cfg.ServiceCategories) == 0 {
		return errors.New("directory.serviceCategories cannot be empty")
	}
	for _, category := range cfg.ServiceCategories {
		if strings.TrimSpace(category) == "" {
			return errors.New("directory.serviceCategories cannot contain blank entries")
		}
	}
	if cfg.LogoConcurrency <= 0 {
		return errors.New("directory.logoConcurrency must be positive")
	}
	return nil
}

package config

import (
	"strings"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"

	"wishlist/crypto"
)

const placeholderKey = "CHANGE_ME_IN_PRODUCTION"

type Config struct {
	AppName        string `mapstructure:"app_name"`
	ListenIP       string `mapstructure:"listen_ip"`
	ListenPort     int    `mapstructure:"listen_port"`
	SessionKey     string `mapstructure:"session_key"`
	DatabaseURL    string `mapstructure:"database_url"`
	UploadDir      string `mapstructure:"upload_dir"`
	MaxUploadBytes int64  `mapstructure:"max_upload_bytes"`
	LogLevel       string `mapstructure:"log_level"`
	SecureCookies  bool   `mapstructure:"secure_cookies"`
	SignupCaptcha  bool   `mapstructure:"signup_captcha"`
	MetricsEnabled bool   `mapstructure:"metrics_enabled"`
}

var AppConfig Config

// legacyEnv lists the unprefixed variable names the app historically read.
var legacyEnv = map[string]string{
	"session_key":  "SECRET_KEY",
	"listen_port":  "PORT",
	"database_url": "DATABASE_URL",
}

// LoadConfig fills AppConfig from defaults, the optional JSON file at path and
// the environment, in increasing order of precedence.
func LoadConfig(path string) error {
	v := viper.New()

	v.SetDefault("app_name", "Wishlist")
	v.SetDefault("listen_ip", "0.0.0.0")
	v.SetDefault("listen_port", 3000)
	v.SetDefault("session_key", "")
	v.SetDefault("database_url", "./wishlist.db")
	v.SetDefault("upload_dir", "uploads")
	v.SetDefault("max_upload_bytes", 5*1024*1024)
	v.SetDefault("log_level", "info")
	v.SetDefault("secure_cookies", false)
	v.SetDefault("signup_captcha", false)
	v.SetDefault("metrics_enabled", true)

	v.SetEnvPrefix("WISHLIST")
	v.AutomaticEnv()
	for key, legacy := range legacyEnv {
		if err := v.BindEnv(key, "WISHLIST_"+strings.ToUpper(key), legacy); err != nil {
			return errors.Wrapf(err, "bind env %s", key)
		}
	}

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("json")
		if err := v.ReadInConfig(); err != nil {
			return errors.Wrap(err, "read config file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return errors.Wrap(err, "decode config")
	}

	if cfg.ListenPort <= 0 || cfg.ListenPort > 65535 {
		return errors.Errorf("listen port out of range: %d", cfg.ListenPort)
	}
	if cfg.MaxUploadBytes <= 0 {
		return errors.Errorf("max upload bytes must be positive: %d", cfg.MaxUploadBytes)
	}

	if cfg.SessionKey == "" || cfg.SessionKey == placeholderKey {
		logrus.Warn("No session key configured. Generating a random key. Sessions will be invalidated on restart.")
		key, err := crypto.GenerateSecret()
		if err != nil {
			return errors.Wrap(err, "generate session key")
		}
		cfg.SessionKey = key
	}

	AppConfig = cfg
	return nil
}

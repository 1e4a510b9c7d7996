// Package config loads the charge point's bootstrap settings from
// config.yml/environment, grounded on the teacher's own singleton
// cleanenv loader. The teacher only ever needed listener settings for
// the server it ran; a charge point instead dials out, so Listen
// becomes the local diagnostics endpoint's bind address and the
// websocket destination, TLS material, Mongo URI, and Telegram alert
// token are new top-level sections this type never had a reason to
// carry on the Central System side.
package config

import (
	"log"
	"sync"

	"github.com/ilyakaznacheev/cleanenv"
)

type Config struct {
	IsDebug *bool `yaml:"is_debug"`

	Listen struct {
		BindIP string `yaml:"bind_ip" env-default:"0.0.0.0"`
		Port   string `yaml:"port" env-default:"8080"`
	} `yaml:"listen"`

	ChargePoint struct {
		Identity        string `yaml:"identity" env:"CP_IDENTITY"`
		Vendor          string `yaml:"vendor" env-default:"Generic"`
		Model           string `yaml:"model" env-default:"Generic"`
		SerialNumber    string `yaml:"serial_number"`
		FirmwareVersion string `yaml:"firmware_version"`
		Connectors      int    `yaml:"connectors" env-default:"1"`
	} `yaml:"charge_point"`

	CentralSystem struct {
		Endpoint        string `yaml:"endpoint" env:"CS_ENDPOINT"`
		BasicAuthUser   string `yaml:"basic_auth_user"`
		BasicAuthPass   string `yaml:"basic_auth_pass" env:"CS_BASIC_AUTH_PASS"`
		SecurityProfile int    `yaml:"security_profile" env-default:"0"`
		FallbackProfile int    `yaml:"fallback_profile" env-default:"0"`
		ClientCertFile  string `yaml:"client_cert_file"`
		ClientKeyFile   string `yaml:"client_key_file"`
	} `yaml:"central_system"`

	Mongo struct {
		URI      string `yaml:"uri" env:"MONGO_URI" env-default:"mongodb://localhost:27017"`
		Database string `yaml:"database" env-default:"chargepoint"`
	} `yaml:"mongo"`

	Telegram struct {
		BotToken string `yaml:"bot_token" env:"TELEGRAM_BOT_TOKEN"`
	} `yaml:"telegram"`

	Metrics struct {
		Enabled bool   `yaml:"enabled" env-default:"false"`
		BindIP  string `yaml:"bind_ip" env-default:"0.0.0.0"`
		Port    string `yaml:"port" env-default:"9090"`
	} `yaml:"metrics"`
}

var instance *Config
var once sync.Once

func GetConfig() (*Config, error) {
	var err error
	once.Do(func() {
		log.Println("reading config")
		instance = &Config{}
		if err = cleanenv.ReadConfig("config.yml", instance); err != nil {
			desc, _ := cleanenv.GetDescription(instance, nil)
			log.Println(desc)
			log.Println(err)
			instance = nil
		}
	})
	return instance, err
}

package config

import (
	"github.com/knadh/koanf/providers/confmap"
)

func DefaultConfig() map[string]interface{} {
	return map[string]interface{}{
		"telegram": map[string]interface{}{
			"bot_token":    "",
			"api_url":      "https://api.telegram.org",
			"poll_timeout": 30,
		},
		"storage": map[string]interface{}{
			"backend":     BackendJSON,
			"dir":         "~/.promemoria",
			"sqlite_path": "~/.promemoria/promemoria.db",
		},
		"scheduler": map[string]interface{}{
			"enabled":       true,
			"interval":      30, // seconds
			"initial_delay": 10, // seconds
		},
		"http": map[string]interface{}{
			"enabled": true,
			"addr":    ":5000",
		},
		"log": map[string]interface{}{
			"level":       "info",
			"development": false,
		},
		"timezone": "", // empty means process local time
		"console": map[string]interface{}{
			"user_id":        1,
			"first_name":     "",
			"colored_output": true,
		},
	}
}

func NewDefaultProvider() *confmap.Confmap {
	return confmap.Provider(DefaultConfig(), ".")
}

func GetDefaultConfigPath() string {
	return "~/.promemoria/config.yaml"
}

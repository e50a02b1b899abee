package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

type ServerConfig struct {
	HTTPAddr        string
	DataRoot        string
	Profile         string
	Locale          string
	FuzzyEnabled    bool
	MQTTBrokerURL   string
	MQTTClientID    string
	MQTTUsername    string
	MQTTPassword    string
	MQTTTopicPrefix string
	CallTimeout     time.Duration
	VerifySettle    time.Duration
	EntityStaleTTL  time.Duration
}

func LoadServerConfig() (ServerConfig, error) {
	cfg := ServerConfig{
		HTTPAddr:        getenvDefault("AURA_HTTP_ADDR", ":9020"),
		DataRoot:        os.Getenv("AURA_DATA_ROOT"),
		Profile:         getenvDefault("AURA_PROFILE", "default"),
		Locale:          getenvDefault("AURA_LOCALE", "en"),
		FuzzyEnabled:    getenvBoolDefault("AURA_FUZZY_MATCH", true),
		MQTTBrokerURL:   getenvDefault("MQTT_BROKER_URL", "tcp://localhost:1883"),
		MQTTClientID:    getenvDefault("AURA_MQTT_CLIENT_ID", "aura-server"),
		MQTTUsername:    os.Getenv("MQTT_USERNAME"),
		MQTTPassword:    os.Getenv("MQTT_PASSWORD"),
		MQTTTopicPrefix: getenvDefault("MQTT_TOPIC_PREFIX", "aura"),
		CallTimeout:     time.Duration(getenvIntDefault("AURA_CALL_TIMEOUT_SECONDS", 10)) * time.Second,
		VerifySettle:    time.Duration(getenvIntDefault("AURA_VERIFY_SETTLE_SECONDS", 2)) * time.Second,
		EntityStaleTTL:  time.Duration(getenvIntDefault("AURA_ENTITY_STALE_TTL_SECONDS", 300)) * time.Second,
	}

	if cfg.DataRoot == "" {
		return ServerConfig{}, fmt.Errorf("AURA_DATA_ROOT is required")
	}

	return cfg, nil
}

func getenvDefault(key, val string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return val
}

func getenvIntDefault(key string, val int) int {
	v := os.Getenv(key)
	if v == "" {
		return val
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return val
	}
	return n
}

func getenvBoolDefault(key string, val bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return val
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return val
	}
	return b
}

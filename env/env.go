package env

import (
	"fmt"
	"os"
)

type Args struct {
	Test    *bool
	Verbose *bool
	Atmon   *bool
	Luxon   *bool
	Rainon  *bool
	Bus     *string
	Led     *string
	Listen  *string

	// metres above sea level, for the WOW pressure reduction
	Altitude *float64
}

// Config holds the settings read from the environment.
type Config struct {
	BrokerURL   string
	ClientID    string
	Username    string
	Password    string
	DatabaseURL string
	SendProm    bool
	WOWSiteID   string
	WOWPin      string
}

// LoadConfig reads MQTT_BROKER, MQTT_CLIENT_ID, MQTT_USERNAME, MQTT_PASSWORD,
// DATABASE_URL, SENDPROMDATA, WOWSITEID and WOWPIN. The broker URL is required unless testMode is set.
func LoadConfig(testMode bool) (Config, error) {
	c := Config{
		ClientID: "envnode",
	}
	url, ok := os.LookupEnv("MQTT_BROKER")
	if !ok && !testMode {
		return c, fmt.Errorf("MQTT_BROKER must be set")
	}
	c.BrokerURL = url
	if id, ok := os.LookupEnv("MQTT_CLIENT_ID"); ok && id != "" {
		c.ClientID = id
	}
	c.Username = os.Getenv("MQTT_USERNAME")
	c.Password = os.Getenv("MQTT_PASSWORD")
	c.DatabaseURL = os.Getenv("DATABASE_URL")
	sendData, ok := os.LookupEnv("SENDPROMDATA")
	c.SendProm = ok && sendData == "true"

	wowsiteid, idok := os.LookupEnv("WOWSITEID")
	wowpin, pinok := os.LookupEnv("WOWPIN")
	if idok != pinok {
		return c, fmt.Errorf("WOWSITEID and WOWPIN must be set together")
	}
	c.WOWSiteID = wowsiteid
	c.WOWPin = wowpin
	return c, nil
}

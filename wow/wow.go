// Package wow uploads observations to the Met Office Weather Observations Website.
package wow

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"time"

	"github.com/google/go-querystring/query"
	"github.com/gr-butler/envnode/env"
	"github.com/gr-butler/envnode/sensors"
	logger "github.com/sirupsen/logrus"
)

const Rd = 287.1
const g = 9.807 // gravity
const kelvin = 273.1

/*

https://wow.metoffice.gov.uk/support/dataformats

All uploads must contain siteid, siteAuthenticationKey, dateutc and softwaretype
plus at least 1 piece of weather data. dateutc is YYYY-mm-DD HH:mm:ss in UTC.

baromin 	Barometric Pressure (sea level)		Inch of Mercury
dewptf 		Outdoor Dewpoint 					Fahrenheit
humidity 	Outdoor Humidity 					0-100 %
tempf 		Outdoor Temperature 				Fahrenheit

*/

const BaseURL = "http://wow.metoffice.gov.uk/automaticreading?"

type weatherData struct {
	SiteId       string  `url:"siteid,omitempty"`
	AuthKey      string  `url:"siteAuthenticationKey,omitempty"`
	DateString   string  `url:"dateutc,omitempty"`
	SoftwareType string  `url:"softwaretype,omitempty"`
	PressureIn   float64 `url:"baromin,omitempty"`
	Humidity     float64 `url:"humidity,omitempty"`
	TempF        float64 `url:"tempf,omitempty"`
	DewPointF    float64 `url:"dewptf,omitempty"`
}

type Reporter struct {
	siteID   string
	pin      string
	software string
	altitude float64
	baseURL  string
	client   *http.Client
}

// NewReporter uploads for the given site. altitude is the height of the
// pressure sensor above sea level in metres.
func NewReporter(siteID, pin, software string, altitude float64) *Reporter {
	return &Reporter{
		siteID:   siteID,
		pin:      pin,
		software: software,
		altitude: altitude,
		baseURL:  BaseURL,
		client:   &http.Client{Timeout: time.Second * 30},
	}
}

// Record sends r on the quarter hour and ignores it otherwise.
func (w *Reporter) Record(ctx context.Context, r sensors.Reading) error {
	if r.Time.Minute()%env.ReportFreqMin != 0 {
		return nil
	}
	vals, err := w.values(r)
	if err != nil {
		return err
	}
	if vals == nil {
		logger.Info("No atmospheric data for met office this cycle")
		return nil
	}

	logger.Info("Sending data to met office")
	// Metoffice accepts a GET
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, w.baseURL+vals.Encode(), nil)
	if err != nil {
		return err
	}
	resp, err := w.client.Do(req)
	if err != nil {
		return fmt.Errorf("met office upload: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("met office upload HTTP [%v]", resp.Status)
	}
	return nil
}

// values builds the query, nil if r has no atmospheric data.
func (w *Reporter) values(r sensors.Reading) (url.Values, error) {
	if !r.IsValid(sensors.MetricAtmosphere) {
		return nil, nil
	}
	tempC := r.Temperature.Float64()
	humidity := r.Humidity.Float64()

	wd := weatherData{
		SiteId:       w.siteID,
		AuthKey:      w.pin,
		DateString:   r.Time.UTC().Format("2006-01-02 15:04:05"),
		SoftwareType: w.software,
		PressureIn:   seaLevel(r.Pressure.Float64(), tempC, w.altitude) * env.HPaToInHg,
		Humidity:     humidity,
		TempF:        ctof(tempC),
		DewPointF:    ctof(dewPoint(tempC, humidity)),
	}
	return query.Values(wd)
}

// seaLevel reduces station pressure p (hPa) observed at z0 metres using the
// scale height H = Rd*T/g.
func seaLevel(p, tempC, z0 float64) float64 {
	H := (Rd * (tempC + kelvin)) / g
	return p * math.Exp(z0/H)
}

// Td = T - ((100 - RH)/5)
func dewPoint(tempC, rh float64) float64 {
	return tempC - ((100 - rh) / 5.0)
}

func ctof(c float64) float64 {
	//(0°C × 9/5) + 32 = 32°F
	return ((c * 9 / 5) + 32)
}

package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gr-butler/envnode/broker"
	"github.com/gr-butler/envnode/connectivity"
	"github.com/gr-butler/envnode/data"
	"github.com/gr-butler/envnode/db/postgres"
	"github.com/gr-butler/envnode/env"
	"github.com/gr-butler/envnode/led"
	"github.com/gr-butler/envnode/sensors"
	"github.com/gr-butler/envnode/station"
	"github.com/gr-butler/envnode/watchdog"
	"github.com/gr-butler/envnode/wow"
	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/host/v3"

	logger "github.com/sirupsen/logrus"
)

const version = "GRB-EnvNode-1.0.0"

type envnode struct {
	latest *data.Latest
}

func main() {
	logger.Infof("Starting environment node [%v]", version)

	args := env.Args{
		Test:     flag.Bool("test", false, "test mode, logs publishes instead of sending them to a broker"),
		Verbose:  flag.Bool("verbose", false, "log every reading"),
		Atmon:    flag.Bool("atm", true, "enable the BME280"),
		Luxon:    flag.Bool("lux", true, "enable the BH1750"),
		Rainon:   flag.Bool("rain", true, "enable the rain sensor ADC"),
		Bus:      flag.String("bus", "", "I²C bus name, empty for the first one found"),
		Led:      flag.String("led", env.HeartbeatLed, "heartbeat LED GPIO pin"),
		Listen:   flag.String("listen", ":8080", "web service address"),
		Altitude: flag.Float64("altitude", 0, "station height above sea level in metres"),
	}
	flag.Parse()

	if *args.Verbose {
		logger.SetLevel(logger.DebugLevel)
	}
	if *args.Test {
		logger.Info("TEST MODE")
	}

	cfg, err := env.LoadConfig(*args.Test)
	if err != nil {
		logger.Fatalf("Bad configuration [%v]", err)
	}

	if _, err := host.Init(); err != nil {
		logger.Fatalf("Failed to initialize periph [%v]", err)
	}
	bus, err := i2creg.Open(*args.Bus)
	if err != nil {
		logger.Fatalf("Failed to open I²C bus [%v]", err)
	}
	defer bus.Close()

	s := sensors.InitSensors(bus, args)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var b station.Broker
	if *args.Test {
		b = broker.NewLoopback()
	} else {
		c := broker.NewClient(cfg)
		defer c.Disconnect()
		b = c
	}

	clock := clockwork.NewRealClock()
	monitor := connectivity.NewMonitor(env.NetworkPoll)
	dog := watchdog.New(env.WatchdogTimeout, clock)
	st := station.New(monitor, b, s, dog, clock)

	n := envnode{latest: data.NewLatest()}
	st.Store = n.latest

	if l := led.NewLED("heartbeat", *args.Led); l != nil {
		defer l.Close()
		st.LED = l
	}

	if cfg.DatabaseURL != "" {
		archive, err := postgres.Open(ctx, cfg.DatabaseURL)
		if err != nil {
			logger.Errorf("Failed to open archive, continuing without it [%v]", err)
		} else {
			defer archive.Close()
			st.Outputs = append(st.Outputs, archive)
		}
	}

	if cfg.WOWSiteID != "" && !*args.Test {
		st.Outputs = append(st.Outputs, wow.NewReporter(cfg.WOWSiteID, cfg.WOWPin, version, *args.Altitude))
	}

	// start web service
	mux := http.NewServeMux()
	mux.HandleFunc("/", n.handler)
	if cfg.SendProm && !*args.Test {
		logger.Info("Serving prometheus metrics")
		mux.Handle("/metrics", promhttp.Handler())
	}
	srv := &http.Server{Addr: *args.Listen, Handler: mux}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return monitor.Run(ctx) })
	g.Go(func() error { return dog.Run(ctx) })
	g.Go(func() error { return st.Run(ctx) })
	g.Go(func() error { return serve(ctx, srv) })

	if err := g.Wait(); err != nil {
		// exit non-zero so the supervisor restarts us
		logger.Fatalf("Stopped with error [%v]", err)
	}
	logger.Info("Exiting...")
}

// serve runs srv until ctx is done. A listen failure is returned at once.
func serve(ctx context.Context, srv *http.Server) error {
	logger.Infof("Starting webservice [%v]", srv.Addr)
	failed := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			failed <- err
		}
		close(failed)
	}()
	select {
	case err := <-failed:
		return err
	case <-ctx.Done():
		return srv.Shutdown(context.Background())
	}
}

func (n *envnode) handler(rw http.ResponseWriter, r *http.Request) {
	rw.Header().Set("Content-Type", "application/json")
	reading, ok := n.latest.Get()
	if !ok {
		http.Error(rw, "no reading yet", http.StatusServiceUnavailable)
		return
	}

	js, err := json.Marshal(data.NewWebData(reading))
	if err != nil {
		logger.Errorf("JSON error [%v]", err)
		http.Error(rw, err.Error(), http.StatusInternalServerError)
		return
	}

	logger.Debugf("Web read: \n[%v]", string(js))
	_, _ = rw.Write(js) // not much we can do if this fails
}

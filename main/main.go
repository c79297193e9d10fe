package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/takama/daemon"

	"github.com/b3nn0/linkdecoder/common"
	"github.com/b3nn0/linkdecoder/decoder"
)

const (
	// name of the service
	name        = "linkdecoder"
	description = "ADS-B, UAT, GDL-90 and NMEA receiver link decoder"
)

// Service has embedded daemon
type Service struct {
	daemon.Daemon
}

// flagValues holds the command line overrides. Only flags that were set on
// the command line replace configuration file values.
type flagValues struct {
	configFile  string
	transport   string
	device      string
	baud        int
	tcpAddress  string
	udpListen   string
	replayFile  string
	replaySpeed float64
	altimeter   float64
	logDir      string
	verbose     bool
	metrics     string
	ui          string
	datalog     string
	natsURL     string
	natsSubject string
}

func (fv *flagValues) apply(cmd *cobra.Command, cfg *Config) {
	set := cmd.Flags().Changed
	if set("transport") {
		cfg.Transport = TransportType(fv.transport)
	}
	if set("device") {
		cfg.Serial.Device = fv.device
	}
	if set("baud") {
		cfg.Serial.Baud = fv.baud
	}
	if set("tcp") {
		cfg.TCP.Address = fv.tcpAddress
	}
	if set("udp") {
		cfg.UDP.Listen = fv.udpListen
	}
	if set("replay") {
		cfg.Replay.File = fv.replayFile
	}
	if set("speed") {
		cfg.Replay.Speed = fv.replaySpeed
	}
	if set("altimeter") {
		cfg.AltimeterInHg = fv.altimeter
	}
	if set("log-dir") {
		cfg.Log.Dir = fv.logDir
	}
	if set("verbose") {
		cfg.Log.Debug = fv.verbose
	}
	if set("metrics") {
		cfg.Metrics.Listen = fv.metrics
	}
	if set("ui") {
		cfg.UI.Listen = fv.ui
	}
	if set("datalog") {
		cfg.Datalog.File = fv.datalog
	}
	if set("nats") {
		cfg.NATS.URL = fv.natsURL
	}
	if set("nats-subject") {
		cfg.NATS.Subject = fv.natsSubject
	}
}

// loadConfig builds the effective configuration: defaults, then the file if
// there is one, then flags.
func (fv *flagValues) loadConfig(cmd *cobra.Command) (*Config, error) {
	cfg := DefaultConfig()
	if fv.configFile != "" {
		fileCfg, err := LoadConfig(fv.configFile)
		if err != nil {
			if cmd.Flags().Changed("config") || !errors.Is(err, os.ErrNotExist) {
				return nil, err
			}
		} else {
			cfg = *fileCfg
		}
	}
	fv.apply(cmd, &cfg)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

func newRootCommand(fv *flagValues) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   name,
		Short: "Receiver link decoder",
		Long: `Decodes the byte stream of an ADS-B/UAT receiver link carrying any mix of
dump1090 AVR frames, dump978 frames, GDL-90 and NMEA, and publishes traffic,
own-ship, AHRS and FIS-B weather to the log, Prometheus, websocket clients,
a sqlite datalog and NATS.

Example usage:
  linkdecoder --transport tcp --tcp 192.168.10.1:30002 --ui :8080
  linkdecoder --transport replay --replay trace.txt.gz --speed 4`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := fv.loadConfig(cmd)
			if err != nil {
				return err
			}
			return run(cmd.Context(), cfg)
		},
	}

	defaults := DefaultConfig()
	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&fv.configFile, "config", "c", defaultConfigLocation, "Configuration file")
	flags.StringVarP(&fv.transport, "transport", "t", string(defaults.Transport), "Receiver transport: serial, tcp, udp or replay")
	flags.StringVarP(&fv.device, "device", "d", defaults.Serial.Device, "Serial device")
	flags.IntVarP(&fv.baud, "baud", "b", defaults.Serial.Baud, "Serial baud rate")
	flags.StringVar(&fv.tcpAddress, "tcp", "", "Receiver host:port to connect to")
	flags.StringVar(&fv.udpListen, "udp", "", "Address to receive UDP datagrams on")
	flags.StringVar(&fv.replayFile, "replay", "", "Trace or raw capture file to replay")
	flags.Float64Var(&fv.replaySpeed, "speed", defaults.Replay.Speed, "Replay speed multiplier")
	flags.Float64Var(&fv.altimeter, "altimeter", defaults.AltimeterInHg, "Altimeter setting (inHg)")
	flags.StringVarP(&fv.logDir, "log-dir", "l", defaults.Log.Dir, "Log directory, empty for stdout only")
	flags.BoolVarP(&fv.verbose, "verbose", "v", false, "Verbose logging")
	flags.StringVar(&fv.metrics, "metrics", "", "Address to serve /metrics on")
	flags.StringVar(&fv.ui, "ui", "", "Address to serve the /traffic websocket on")
	flags.StringVar(&fv.datalog, "datalog", "", "sqlite file to log decoded data to")
	flags.StringVar(&fv.natsURL, "nats", "", "NATS server URL to publish events to")
	flags.StringVar(&fv.natsSubject, "nats-subject", defaults.NATS.Subject, "NATS subject prefix")

	for _, sub := range serviceCommands(fv) {
		rootCmd.AddCommand(sub)
	}
	return rootCmd
}

// serviceCommands manage the system service: install | remove | start | stop | status.
func serviceCommands(fv *flagValues) []*cobra.Command {
	manage := func(use, short string, action func(*Service) (string, error)) *cobra.Command {
		return &cobra.Command{
			Use:   use,
			Short: short,
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				if !common.IsRunningAsRoot() {
					return fmt.Errorf("%s %s must run as root", name, use)
				}
				srv, err := daemon.New(name, description, daemon.SystemDaemon)
				if err != nil {
					return err
				}
				status, err := action(&Service{srv})
				if err != nil {
					return fmt.Errorf("%s: %w", status, err)
				}
				fmt.Println(status)
				return nil
			},
		}
	}
	return []*cobra.Command{
		manage("install", "Install as a system service", func(s *Service) (string, error) {
			return s.Install("--config", fv.configFile)
		}),
		manage("remove", "Remove the system service", func(s *Service) (string, error) {
			return s.Remove()
		}),
		manage("start", "Start the system service", func(s *Service) (string, error) {
			return s.Start()
		}),
		manage("stop", "Stop the system service", func(s *Service) (string, error) {
			return s.Stop()
		}),
		manage("status", "Show the system service status", func(s *Service) (string, error) {
			return s.Status()
		}),
	}
}

// run wires the sinks to a decoder and reads the receiver until SIGINT or
// SIGTERM.
func run(parent context.Context, cfg *Config) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger := newLogger(cfg.Log.Debug)
	lf, err := initLogging(logger, cfg.Log.Dir)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	if lf != nil {
		defer lf.Close()
		lf.redirectStderr()
		go lf.watch(ctx.Done())
	}
	logger.WithFields(logrus.Fields{
		"transport": cfg.Transport,
		"altimeter": cfg.AltimeterInHg,
	}).Info("starting " + name)

	fan := newFanout(cfg.AltimeterInHg, newLogSink(logger))
	servers := newServerSet()

	var metrics *metricsSink
	if cfg.Metrics.Listen != "" {
		reg := prometheus.NewRegistry()
		metrics = newMetricsSink(reg)
		fan.add(metrics)
		servers.handle(cfg.Metrics.Listen, "/metrics", metricsHandler(reg))
	}

	if cfg.UI.Listen != "" {
		ui := NewUIBroadcaster()
		defer ui.Close()
		fan.add(newUISink(ui, logger))
		servers.handle(cfg.UI.Listen, "/traffic", ui.Handler())
	}

	if cfg.Datalog.File != "" {
		dl, err := openDataLog(cfg.Datalog.File, logger)
		if err != nil {
			return err
		}
		defer dl.Close()
		fan.add(dl)
	}

	if cfg.NATS.URL != "" {
		nc, err := connectNATS(cfg.NATS.URL, logger)
		if err != nil {
			return err
		}
		defer nc.Drain()
		fan.add(newNATSSink(nc, cfg.NATS.Subject, logger))
	}

	servers.start(logger)
	defer servers.shutdown()

	opts := []decoder.Option{}
	if valid := cfg.locationValidator(); valid != nil {
		opts = append(opts, decoder.WithLocationValidator(valid))
	}
	var clock *traceClock
	if cfg.Transport == TransportReplay {
		clock = &traceClock{}
		opts = append(opts, decoder.WithClock(clock.Now))
	}

	var tracker statusTracker
	l := &link{
		cfg:    cfg,
		dec:    decoder.New(fan, opts...),
		logger: logger,
		clock:  clock,
		onStats: func(s decoder.Stats) {
			if metrics != nil {
				metrics.updateStats(s)
			}
			logger.Info(tracker.update(s, time.Now()))
		},
	}
	err = l.run(ctx)
	logger.Info(statusLine(l.dec.Stats()))
	return err
}

// serverSet runs one HTTP server per distinct listen address.
type serverSet struct {
	muxes   map[string]*http.ServeMux
	servers []*http.Server
}

func newServerSet() *serverSet {
	return &serverSet{muxes: make(map[string]*http.ServeMux)}
}

func (s *serverSet) handle(addr, pattern string, h http.Handler) {
	mux, ok := s.muxes[addr]
	if !ok {
		mux = http.NewServeMux()
		s.muxes[addr] = mux
	}
	mux.Handle(pattern, h)
}

func (s *serverSet) start(logger *logrus.Logger) {
	for addr, mux := range s.muxes {
		srv := &http.Server{Addr: addr, Handler: mux}
		s.servers = append(s.servers, srv)
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.WithError(err).WithField("addr", srv.Addr).Error("http server failed")
			}
		}()
	}
}

func (s *serverSet) shutdown() {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	for _, srv := range s.servers {
		srv.Shutdown(ctx)
	}
}

func main() {
	if err := newRootCommand(&flagValues{}).Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

/*
 * Spswitch - A Shortest Path Switching Controller
 *
 * Copyright (C) 2015-2019 Samjung Data Service, Inc. All rights reserved.
 * Kitae Kim <superkkt@sds.co.kr>
 *
 * This program is free software; you can redistribute it and/or modify
 * it under the terms of the GNU General Public License as published by
 * the Free Software Foundation; either version 2 of the License, or
 * any later version.
 *
 * This program is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
 * GNU General Public License for more details.
 *
 * You should have received a copy of the GNU General Public License along
 * with this program; if not, write to the Free Software Foundation, Inc.,
 * 51 Franklin Street, Fifth Floor, Boston, MA 02110-1301 USA.
 */

package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/superkkt/spswitch/api"
	"github.com/superkkt/spswitch/api/core"
	"github.com/superkkt/spswitch/emulator"
	"github.com/superkkt/spswitch/log"
	"github.com/superkkt/spswitch/metrics"
	"github.com/superkkt/spswitch/network"
	"github.com/superkkt/spswitch/scenario"

	"github.com/fsnotify/fsnotify"
	"github.com/op/go-logging"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/viper"
)

const (
	programName    = "spswitch"
	programVersion = "0.1.0"
)

var (
	logger        = logging.MustGetLogger("main")
	loggerLeveled logging.LeveledBackend

	showHelp          = flag.Bool("help", false, "show this help and exit")
	showVersion       = flag.Bool("version", false, "show program version and exit")
	defaultConfigFile = flag.String("config", fmt.Sprintf("/usr/local/etc/%v.yaml", programName), "absolute path of the configuration file")
)

func main() {
	runtime.GOMAXPROCS(runtime.NumCPU())
	parseCmdLines()
	initConfig()
	initLog()

	ctx, cancel := context.WithCancel(context.Background())
	registry := metrics.DefaultRegistry()
	initMetricsServer(registry)

	conf, err := controllerConfig(registry)
	if err != nil {
		logger.Fatalf("invalid controller configuration: %v", err)
	}
	if addr := viper.GetString("gui.address"); addr != "" {
		notifier := network.NewNotifier(network.NotifierConfig{
			Address: addr,
			Timeout: viper.GetDuration("gui.timeout"),
			Metrics: registry,
		})
		go notifier.Run(ctx)
		conf.Listener = notifier
	}
	controller := network.NewController(conf)

	fabric := emulator.NewFabric()
	if path := viper.GetString("default.scenario"); path != "" {
		if err := replayScenario(path, fabric, controller); err != nil {
			logger.Fatalf("failed to replay the scenario: %v", err)
		}
	}

	initAPIServer(controller)
	waitSignal(controller, fabric, cancel)
}

// Handle the command-line arguments.
func parseCmdLines() {
	flag.Parse()
	if *showHelp {
		flag.Usage()
		os.Exit(0)
	}
	if *showVersion {
		fmt.Printf("%v v%v\n", programName, programVersion)
		os.Exit(0)
	}
}

func initConfig() {
	viper.SetConfigFile(*defaultConfigFile)
	setDefaults()

	// Read the config file.
	if err := viper.ReadInConfig(); err != nil {
		logger.Fatalf("failed to read the config file: %v", err)
	}

	// Watching and re-reading config file whenever it changes.
	viper.OnConfigChange(func(e fsnotify.Event) {
		// Ignore all the fsnotify operations except WRITE to avoid reading empty config.
		if e.Op != fsnotify.Write {
			return
		}
		logger.Infof("config file changed: %v", e.Name)
		if loggerLeveled != nil {
			// Set log level for all modules
			loggerLeveled.SetLevel(getLogLevel(), "")
		}
	})
	viper.WatchConfig()

	if err := validateConfig(); err != nil {
		logger.Fatalf("invalid configuration: %v", err)
	}
}

func setDefaults() {
	viper.SetDefault("default.log_level", "info")
	viper.SetDefault("default.log_backend", "stderr")
	viper.SetDefault("flow.match", "address")
	viper.SetDefault("flow.priority", 30)
	viper.SetDefault("flow.idle_timeout", 0)
	viper.SetDefault("flow.hard_timeout", 0)
	viper.SetDefault("topology.path_cache_size", 1024)
	viper.SetDefault("arp.learn_hosts", false)
	viper.SetDefault("rest.port", 7070)
	viper.SetDefault("metrics.port", 0)
	viper.SetDefault("gui.timeout", "3s")
}

// validateConfig validates essential configurations.
func validateConfig() error {
	if _, err := log.ParseLevel(viper.GetString("default.log_level")); err != nil {
		return errors.Wrap(err, "invalid default.log_level")
	}
	switch viper.GetString("default.log_backend") {
	case "stderr", "syslog":
	default:
		return errors.New("invalid default.log_backend")
	}
	if _, err := network.ParseMatchPolicy(viper.GetString("flow.match")); err != nil {
		return errors.Wrap(err, "invalid flow.match")
	}
	for _, key := range []string{"flow.priority", "flow.idle_timeout", "flow.hard_timeout"} {
		if v := viper.GetInt(key); v < 0 || v > 0xFFFF {
			return fmt.Errorf("invalid %v", key)
		}
	}
	if viper.GetInt("topology.path_cache_size") < 0 {
		return errors.New("invalid topology.path_cache_size")
	}
	if port := viper.GetInt("rest.port"); port <= 0 || port > 0xFFFF {
		return errors.New("invalid rest.port")
	}
	if viper.GetBool("rest.tls") {
		if viper.GetString("rest.cert_file") == "" || viper.GetString("rest.key_file") == "" {
			return errors.New("rest.cert_file and rest.key_file are required for rest.tls")
		}
	}
	// Zero disables the metrics listener.
	if port := viper.GetInt("metrics.port"); port < 0 || port > 0xFFFF {
		return errors.New("invalid metrics.port")
	}
	if viper.GetDuration("gui.timeout") < 0 {
		return errors.New("invalid gui.timeout")
	}

	return nil
}

func initLog() {
	backend, err := log.NewBackend(viper.GetString("default.log_backend"), programName)
	if err != nil {
		logger.Fatalf("failed to init log: %v", err)
	}
	loggerLeveled = log.Init(backend, getLogLevel())
}

func getLogLevel() logging.Level {
	level, err := log.ParseLevel(viper.GetString("default.log_level"))
	if err != nil {
		logger.Errorf("%v, defaulting to %v..", err, log.DefaultLevel)
	}

	return level
}

func controllerConfig(registry *metrics.Registry) (network.Config, error) {
	policy, err := network.ParseMatchPolicy(viper.GetString("flow.match"))
	if err != nil {
		return network.Config{}, err
	}

	return network.Config{
		MatchPolicy:   policy,
		Priority:      uint16(viper.GetInt("flow.priority")),
		IdleTimeout:   uint16(viper.GetInt("flow.idle_timeout")),
		HardTimeout:   uint16(viper.GetInt("flow.hard_timeout")),
		PathCacheSize: viper.GetInt("topology.path_cache_size"),
		LearnHosts:    viper.GetBool("arp.learn_hosts"),
		Metrics:       registry,
	}, nil
}

func replayScenario(path string, fabric *emulator.Fabric, controller *network.Controller) error {
	s, err := scenario.Load(path)
	if err != nil {
		return err
	}
	if err := s.Replay(fabric, controller); err != nil {
		return err
	}
	logger.Infof("replayed the scenario: %v (%v switches, %v links, %v hosts, %v paths)", path, len(s.Switches), len(s.Links), len(s.Hosts), len(s.Paths))

	return nil
}

func initMetricsServer(registry *metrics.Registry) {
	port := viper.GetInt("metrics.port")
	if port == 0 {
		return
	}

	go func() {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(registry.GetPrometheusRegistry(), promhttp.HandlerOpts{}))
		if err := http.ListenAndServe(fmt.Sprintf(":%v", port), mux); err != nil {
			logger.Fatalf("failed to run the metrics server: %v", err)
		}
	}()
}

func initAPIServer(controller *network.Controller) {
	go func() {
		s := api.Server{}
		s.Port = uint16(viper.GetInt("rest.port"))
		if viper.GetBool("rest.tls") == true {
			s.TLS.Cert = viper.GetString("rest.cert_file")
			s.TLS.Key = viper.GetString("rest.key_file")
		}
		s.Controller = controller

		srv := &core.API{Server: s}
		if err := srv.Serve(); err != nil {
			logger.Fatalf("failed to run the API server: %v", err)
		}
	}()
}

func waitSignal(controller *network.Controller, fabric *emulator.Fabric, cancel context.CancelFunc) {
	c := make(chan os.Signal, 5)
	signal.Notify(c, syscall.SIGTERM, syscall.SIGINT, syscall.SIGHUP)

	// Infinite loop.
	for {
		s := <-c
		if s == syscall.SIGTERM || s == syscall.SIGINT {
			// Graceful shutdown
			logger.Warning("Shutting down...")
			cancel()
			// Timeout for cancelation
			time.Sleep(1 * time.Second)
			logger.Infof("%v (version %v) shutdown complete!", programName, programVersion)
			os.Exit(0)
		} else if s == syscall.SIGHUP {
			fmt.Println("* Controller status:")
			fmt.Println(controller.String())
			fmt.Printf("\n* Emulated fabric:\n")
			fmt.Println(fabric.String())
			for _, sw := range fabric.Switches() {
				fmt.Println(sw.String())
			}
		}
	}
}

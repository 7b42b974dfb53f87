package main

import (
	"context"
	"flag"
	"os"
	"os/signal"

	"github.com/sirupsen/logrus"

	"justapengu.in/ghostrace/internal/race"
	"justapengu.in/ghostrace/internal/race/plugins"
	"justapengu.in/ghostrace/internal/raceserver"
	"justapengu.in/ghostrace/internal/store"
)

var configPath string

func init() {
	flag.StringVar(&configPath, "c", "./config.yml", "config path")
	flag.Parse()
}

func main() {
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})

	config, err := readConfig(logger)

	if err != nil {
		logger.WithError(err).Fatalf("Could not read config at %s", configPath)
	}

	level, err := logrus.ParseLevel(config.Server.LogLevel)

	if err != nil {
		logger.WithError(err).Warnf("Unknown log level %q, using info", config.Server.LogLevel)
		level = logrus.InfoLevel
	}

	logger.SetLevel(level)

	recordings, err := store.NewBoltStore(config.Server.StorePath)

	if err != nil {
		logger.WithError(err).Fatal("Could not open recordings store")
	}

	defer recordings.Close()

	var (
		listeners []race.Listener
		udpPlugin *plugins.UDPPlugin
	)

	if config.Server.UDPPluginLocalPort > 0 && config.Server.UDPPluginAddress != "" {
		udpPlugin, err = plugins.NewUDPPlugin(config.Server.UDPPluginLocalPort, config.Server.UDPPluginAddress)

		if err != nil {
			logger.WithError(err).Fatal("Could not initialise UDP plugin")
		}

		listeners = append(listeners, udpPlugin)
	}

	server, err := raceserver.NewServer(context.Background(), config, recordings, logger, listeners...)

	if err != nil {
		logger.WithError(err).Fatal("Could not initialise server")
	}

	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt)

	go func() {
		for range c {
			if err := server.Stop(); err != nil {
				logger.WithError(err).Error("Could not stop server cleanly")
			}
		}
	}()

	if err := server.Run(); err != nil {
		logger.WithError(err).Fatal("Could not run server")
	}

	if udpPlugin != nil {
		if err := udpPlugin.Shutdown(); err != nil {
			logger.WithError(err).Error("Could not shut down UDP plugin")
		}
	}

	logger.Infof("Server stopped. Exiting")
}

// readConfig falls back to the defaults when no config file exists.
func readConfig(logger logrus.FieldLogger) (*raceserver.Config, error) {
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		logger.Warnf("No config found at %s, using defaults", configPath)

		return raceserver.DefaultConfig(), nil
	}

	return raceserver.ReadConfig(configPath)
}

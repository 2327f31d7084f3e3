package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"duckdns6/config"
	"duckdns6/log"
	"duckdns6/schedule"
	"duckdns6/updater"

	flag "github.com/spf13/pflag"
	"go.uber.org/zap"
)

var (
	configPath = flag.StringP("config", "c", "config.toml", "path to config file")
	debug      = flag.Bool("debug", false, "enable debug output")
	once       = flag.Bool("once", false, "run a single update cycle and exit")
	help       = flag.BoolP("help", "h", false, "Print help message")
)

var buildDate string

func init() {
	flag.Parse()
	if *help {
		fmt.Println(flag.CommandLine.FlagUsages())
		os.Exit(0)
	}
}

func getInitLogger() context.Context {
	var err error
	var logger *zap.Logger

	if *debug {
		logger, err = zap.NewDevelopment()
	} else {
		logger, err = zap.NewProduction()
	}

	if err != nil {
		fmt.Printf("Failed creating logger: %v\n", err)
		os.Exit(1)
	}

	return log.WithLogger(context.Background(), logger)
}

func getLogger(ctx context.Context, conf config.Log) context.Context {
	var logOption zap.Config
	if *debug {
		logOption = zap.NewDevelopmentConfig()
	} else {
		logOption = zap.NewProductionConfig()
	}

	if conf.Level != nil {
		logOption.Level.SetLevel(*conf.Level)
	}

	if conf.Encoding != nil {
		logOption.Encoding = *conf.Encoding
	}

	if conf.InfoPath != nil {
		logOption.OutputPaths = *conf.InfoPath
	}

	if conf.ErrorPath != nil {
		logOption.ErrorOutputPaths = *conf.ErrorPath
	}

	logger, err := logOption.Build()
	if err != nil {
		log.S(ctx).Fatalw("cannot build real logger", zap.Error(err))
	}

	return log.WithLogger(context.Background(), logger)
}

func main() {
	ctx := getInitLogger()

	if buildDate != "" {
		log.S(ctx).Infow("duckdns6 starting", "variant", "release", "build_date", buildDate)
	} else {
		log.S(ctx).Infow("duckdns6 starting", "variant", "debug")
	}

	conf, err := config.Load(ctx, *configPath)
	if err != nil {
		log.S(ctx).Fatalw("failed loading config", zap.Error(err))
	}

	ctx = getLogger(ctx, conf.Log)

	sched, err := schedule.New(conf.Cron)
	if err != nil {
		log.S(ctx).Fatalw("cannot parse cron expression", "cron", conf.Cron, zap.Error(err))
	}

	up, err := updater.New(ctx, conf)
	if err != nil {
		log.S(ctx).Fatalw("cannot init updater", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log.S(ctx).Infow("scheduler ready", "cron", sched.String(), "domain", conf.Domain)

	for {
		outcome := up.Run(ctx)

		if *once {
			if outcome.Success() {
				os.Exit(0)
			}
			os.Exit(1)
		}

		next := sched.Next()
		log.S(ctx).Infow("next update scheduled", "at", next)

		timer := time.NewTimer(time.Until(next))
		select {
		case <-ctx.Done():
			timer.Stop()
			log.S(ctx).Infow("shutting down")
			return
		case <-timer.C:
		}
	}
}

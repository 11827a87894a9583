package main

import (
	"context"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v3"

	"github.com/djeday123/culaunch"
)

var version = "dev"

func main() {
	var logLevel string

	app := &cli.Command{
		Name:  "culaunch-probe",
		Usage: "Probe CUDA devices and launch precompiled kernels",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "log-level",
				Usage:       "logging level (debug, info, warn, error)",
				Value:       "info",
				Destination: &logLevel,
			},
		},
		Before: func(ctx context.Context, cmd *cli.Command) (context.Context, error) {
			cfg := loadConfig()
			if cfg.LogLevel != "" && !cmd.IsSet("log-level") {
				logLevel = cfg.LogLevel
			}
			lvl, err := logrus.ParseLevel(logLevel)
			if err != nil {
				lvl = logrus.InfoLevel
			}
			logrus.SetLevel(lvl)
			return ctx, nil
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return cli.ShowAppHelp(cmd)
		},
		Commands: []*cli.Command{
			devicesCmd(),
			launchCmd(),
			smokeCmd(),
			versionCmd(),
		},
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func versionCmd() *cli.Command {
	return &cli.Command{
		Name:  "version",
		Usage: "Print probe and driver versions",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			fmt.Printf("culaunch-probe %s\n", version)
			maj, min, err := culaunch.DriverVersion()
			if err != nil {
				fmt.Println("driver: unavailable")
				logrus.Debugf("driver version: %v", err)
				return nil
			}
			fmt.Printf("driver: CUDA %d.%d\n", maj, min)
			return nil
		},
	}
}

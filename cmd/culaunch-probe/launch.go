package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v3"

	"github.com/djeday123/culaunch"
)

func launchCmd() *cli.Command {
	var (
		device     int64
		modulePath string
		kernelName string
		grid       string
		cluster    string
		warps      int64
		ctas       int64
		shared     int64
		rawArgs    []string
	)

	return &cli.Command{
		Name:  "launch",
		Usage: "Load a compiled kernel image and launch one kernel",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "device", Usage: "device index", Destination: &device},
			&cli.StringFlag{Name: "module", Usage: "path to cubin or PTX file", Destination: &modulePath, Required: true},
			&cli.StringFlag{Name: "kernel", Usage: "kernel entry point name", Destination: &kernelName, Required: true},
			&cli.StringFlag{Name: "grid", Usage: "grid dimensions x,y,z", Value: "1,1,1", Destination: &grid},
			&cli.StringFlag{Name: "cluster", Usage: "cluster dimensions x,y,z (with --ctas > 1)", Value: "1,1,1", Destination: &cluster},
			&cli.IntFlag{Name: "warps", Usage: "warps per block", Value: 4, Destination: &warps},
			&cli.IntFlag{Name: "ctas", Usage: "CTAs per cluster", Value: 1, Destination: &ctas},
			&cli.IntFlag{Name: "shared", Usage: "dynamic shared memory bytes", Destination: &shared},
			&cli.StringSliceFlag{Name: "arg", Usage: "kernel argument as uint64 (decimal or 0x hex), repeatable", Destination: &rawArgs},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			cfg := loadConfig()
			if !cmd.IsSet("device") {
				device = int64(cfg.Device)
			}
			device, warps, ctas, shared := int(device), int(warps), int(ctas), int(shared)

			gx, gy, gz, err := parseDims(grid)
			if err != nil {
				return fmt.Errorf("--grid: %w", err)
			}
			cx, cy, cz, err := parseDims(cluster)
			if err != nil {
				return fmt.Errorf("--cluster: %w", err)
			}

			args := make([]uint64, len(rawArgs))
			for i, s := range rawArgs {
				v, err := strconv.ParseUint(strings.TrimPrefix(s, "0x"), base(s), 64)
				if err != nil {
					return fmt.Errorf("--arg %q: %w", s, err)
				}
				args[i] = v
			}

			image, err := os.ReadFile(modulePath)
			if err != nil {
				return err
			}

			ctxHandle, err := culaunch.CreateContext(device)
			if err != nil {
				return err
			}
			defer culaunch.DestroyContext(ctxHandle)

			stream, err := culaunch.CreateStream()
			if err != nil {
				return err
			}
			defer culaunch.DestroyStream(stream)

			mod, err := culaunch.LoadModule(image)
			if err != nil {
				return err
			}
			defer mod.Unload()

			k, err := mod.Function(kernelName)
			if err != nil {
				return err
			}
			logrus.Debugf("kernel %s: %d regs, %d spills", kernelName, k.NumRegs, k.NumSpills)

			req := &culaunch.LaunchRequest{
				GridX: gx, GridY: gy, GridZ: gz,
				NumWarps: warps, NumCTAs: ctas,
				ClusterDimX: cx, ClusterDimY: cy, ClusterDimZ: cz,
				SharedMemBytes: shared,
				Stream:         stream,
				Function:       k.Handle,
				Args:           args,
			}
			enter := func(r *culaunch.LaunchRequest) error {
				logrus.Debugf("launching %s grid=(%d,%d,%d) block=(%d,1,1) args=%d",
					kernelName, r.GridX, r.GridY, r.GridZ, 32*r.NumWarps, len(r.Args))
				return nil
			}
			if err := culaunch.Launch(req, enter, nil); err != nil {
				return err
			}
			if err := culaunch.SyncStream(stream); err != nil {
				return err
			}

			fmt.Printf("launched %s on device %d\n", kernelName, device)
			return nil
		},
	}
}

func parseDims(s string) (int, int, int, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 3 {
		return 0, 0, 0, fmt.Errorf("want x,y,z, got %q", s)
	}
	dims := [3]int{}
	for i, p := range parts {
		v, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return 0, 0, 0, err
		}
		if v < 0 {
			return 0, 0, 0, fmt.Errorf("dimension %d is negative", v)
		}
		dims[i] = v
	}
	return dims[0], dims[1], dims[2], nil
}

func base(s string) int {
	if strings.HasPrefix(s, "0x") {
		return 16
	}
	return 10
}

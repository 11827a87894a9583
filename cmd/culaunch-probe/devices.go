package main

import (
	"context"
	"fmt"

	"github.com/goccy/go-json"
	"github.com/urfave/cli/v3"

	"github.com/djeday123/culaunch"
)

func devicesCmd() *cli.Command {
	var asJSON bool

	return &cli.Command{
		Name:  "devices",
		Usage: "List CUDA devices visible to the driver",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "json", Usage: "emit machine-readable output", Destination: &asJSON},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			n, err := culaunch.DeviceCount()
			if err != nil {
				return err
			}

			infos := make([]*culaunch.DeviceInfo, 0, n)
			for i := 0; i < n; i++ {
				info, err := culaunch.QueryDevice(i)
				if err != nil {
					return fmt.Errorf("device %d: %w", i, err)
				}
				infos = append(infos, info)
			}

			if asJSON {
				out, err := json.MarshalIndent(infos, "", "  ")
				if err != nil {
					return err
				}
				fmt.Println(string(out))
				return nil
			}

			if n == 0 {
				fmt.Println("no CUDA devices found")
				return nil
			}
			for _, info := range infos {
				fmt.Printf("[%d] %s\n", info.Index, info)
			}
			return nil
		},
	}
}

package main

import (
	"context"
	"encoding/binary"
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v3"

	"github.com/djeday123/culaunch"
)

// Built-in smoke-test kernel: buf[i] += 1 for i < n.
// 128 threads/block (4 warps), loaded from PTX at runtime.
const smokePTX = `
.version 7.0
.target sm_80
.address_size 64

.visible .entry add_one_u64(
    .param .u64 p_buf,
    .param .u32 p_n
) {
    .reg .u32 %tidx, %bidx, %idx, %n;
    .reg .u64 %buf, %off, %val;
    .reg .pred %p;

    ld.param.u64 %buf, [p_buf];
    ld.param.u32 %n, [p_n];

    mov.u32 %tidx, %tid.x;
    mov.u32 %bidx, %ctaid.x;
    mad.lo.u32 %idx, %bidx, 128, %tidx;
    setp.ge.u32 %p, %idx, %n;
    @%p bra $L_done;

    mul.wide.u32 %off, %idx, 8;
    add.u64 %off, %buf, %off;
    ld.global.u64 %val, [%off];
    add.u64 %val, %val, 1;
    st.global.u64 [%off], %val;
$L_done:
    ret;
}
`

const smokeBlockSize = 128

func smokeCmd() *cli.Command {
	var (
		device int64
		n      int64
	)

	return &cli.Command{
		Name:  "smoke",
		Usage: "Round-trip test: launch a built-in kernel and verify the result",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "device", Usage: "device index", Destination: &device},
			&cli.IntFlag{Name: "n", Usage: "element count", Value: 4096, Destination: &n},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			cfg := loadConfig()
			if !cmd.IsSet("device") {
				device = int64(cfg.Device)
			}
			device, n := int(device), int(n)

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

			mod, err := culaunch.LoadModule([]byte(smokePTX))
			if err != nil {
				return err
			}
			defer mod.Unload()

			k, err := mod.Function("add_one_u64")
			if err != nil {
				return err
			}

			size := n * 8
			dbuf, err := culaunch.MemAlloc(size)
			if err != nil {
				return err
			}
			defer culaunch.MemFree(dbuf)

			host := make([]byte, size)
			for i := 0; i < n; i++ {
				binary.LittleEndian.PutUint64(host[i*8:], uint64(i))
			}
			if err := culaunch.CopyToDevice(dbuf, host); err != nil {
				return err
			}

			args, err := culaunch.PackArgs(dbuf, uint32(n))
			if err != nil {
				return err
			}
			req := &culaunch.LaunchRequest{
				GridX:    (n + smokeBlockSize - 1) / smokeBlockSize,
				GridY:    1,
				GridZ:    1,
				NumWarps: smokeBlockSize / 32,
				NumCTAs:  1,
				Stream:   stream,
				Function: k.Handle,
				Args:     args,
			}
			if err := culaunch.Launch(req, nil, nil); err != nil {
				return err
			}
			if err := culaunch.SyncStream(stream); err != nil {
				return err
			}

			if err := culaunch.CopyFromDevice(host, dbuf); err != nil {
				return err
			}
			for i := 0; i < n; i++ {
				got := binary.LittleEndian.Uint64(host[i*8:])
				if got != uint64(i)+1 {
					return fmt.Errorf("element %d = %d, want %d", i, got, i+1)
				}
			}

			logrus.Debugf("verified %d elements", n)
			fmt.Printf("smoke test passed on device %d (%d elements)\n", device, n)
			return nil
		},
	}
}

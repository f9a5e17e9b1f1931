package server

import (
	"bufio"
	"bytes"
	"context"
	stdErrors "errors"
	"fmt"
	"io"
	"net"
	"os"
	"sync"
)

// MaxLineBytes caps one request line on any transport. Longer lines end
// the stream with bufio.ErrTooLong.
const MaxLineBytes = 1 << 20

// ServeStdio serves requests from stdin and writes responses to stdout
// until EOF. Stdout carries nothing but response lines; all logging goes
// to stderr.
func (d *Dispatcher) ServeStdio(ctx context.Context) error {
	d.logger.Info("server started on stdio")
	return d.ServeStream(ctx, os.Stdin, os.Stdout)
}

// ServeStream runs the request loop over one line stream: read a line,
// dispatch, write exactly one response line. Blank lines are skipped.
func (d *Dispatcher) ServeStream(ctx context.Context, r io.Reader, w io.Writer) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), MaxLineBytes)

	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		resp := d.HandleLine(ctx, line)
		if _, err := w.Write(append(resp, '\n')); err != nil {
			return fmt.Errorf("write response: %w", err)
		}
	}
	return scanner.Err()
}

// ServeTCP listens on addr and accepts connections until ctx is cancelled.
func (d *Dispatcher) ServeTCP(ctx context.Context, addr string) error {
	var lc net.ListenConfig
	listener, err := lc.Listen(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", addr, err)
	}
	return d.Serve(ctx, listener)
}

// Serve accepts connections from listener until ctx is cancelled, running
// one request loop per connection. Connections are independent: requests
// on distinct connections execute concurrently, and responses within one
// connection come back in request order.
func (d *Dispatcher) Serve(ctx context.Context, listener net.Listener) error {
	d.logger.Info("server listening", "addr", listener.Addr().String())

	stop := context.AfterFunc(ctx, func() {
		listener.Close()
	})
	defer stop()

	var wg sync.WaitGroup
	for {
		conn, err := listener.Accept()
		if err != nil {
			if ctx.Err() != nil || stdErrors.Is(err, net.ErrClosed) {
				wg.Wait()
				return nil
			}
			return fmt.Errorf("accept: %w", err)
		}
		d.logger.Info("connection accepted", "remote", conn.RemoteAddr().String())

		wg.Add(1)
		go func() {
			defer wg.Done()
			defer conn.Close()
			unhook := context.AfterFunc(ctx, func() {
				conn.Close()
			})
			defer unhook()

			if err := d.ServeStream(ctx, conn, conn); err != nil && ctx.Err() == nil {
				d.logger.Warn("connection ended with error",
					"remote", conn.RemoteAddr().String(), "error", err)
			}
		}()
	}
}

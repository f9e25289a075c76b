//go:build unix

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"runtime"

	"golang.org/x/sys/unix"
)

// Returns a context cancelled on SIGINT, SIGTERM or SIGHUP.
// SIGUSR1 dumps all goroutine stacks to stdout.
func SignalContext() (context.Context, context.CancelFunc) {
	ch := make(chan os.Signal, 10)
	signal.Notify(ch, unix.SIGUSR1)

	go func() {
		for range ch {
			buf := make([]byte, 1<<16)
			len := runtime.Stack(buf, true)
			fmt.Printf("%s\n", buf[:len])
		}
	}()

	return signal.NotifyContext(context.Background(), unix.SIGINT, unix.SIGTERM, unix.SIGHUP)
}

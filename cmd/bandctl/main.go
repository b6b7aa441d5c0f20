package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/okian/bandboard/internal/bandctl"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	code := bandctl.ExecuteContext(ctx)
	stop()
	os.Exit(code)
}

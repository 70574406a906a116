package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
)

var errUsage = errors.New("usage")

func Execute() int {
	root := newRootCmd(newFxServices)
	root.SetOut(os.Stdout)
	root.SetErr(os.Stderr)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := root.ExecuteContext(ctx); err != nil {
		if errors.Is(err, errUsage) {
			return 2
		}
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return 0
}

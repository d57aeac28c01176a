// Command celldb imports, inspects and reduces sparse measurement datasets
// stored in a local directory, S3 or MinIO.
//
// Configuration is read from flags, CELLDB_* environment variables and an
// optional celldb.{yaml,toml,json} file in the working directory or
// ~/.config/celldb.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	if err := mainImpl(); err != nil && !errors.Is(err, context.Canceled) {
		fmt.Fprintf(os.Stderr, "celldb: %v\n", err)
		os.Exit(1)
	}
}

func mainImpl() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return newRootCmd(os.Stdout, os.Stderr).ExecuteContext(ctx)
}

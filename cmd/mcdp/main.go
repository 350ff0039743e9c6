// Command mcdp solves monotone co-design problems described in YAML.
//
//	mcdp solve drone.yaml drone 3
//	mcdp solve-r drone.yaml battery 8
//	mcdp batch models/*.yaml
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/gitrdm/gomcdp/pkg/dp"
)

// Exit codes.
const (
	exitOK       = 0
	exitModel    = 1
	exitInternal = 2
)

func main() {
	os.Exit(execute(context.Background(), os.Args[1:], os.Stdout, os.Stderr))
}

// execute runs the command line args and returns the exit code.
func execute(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	cmd := newRootCmd(stdout)
	cmd.SetArgs(args)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	return report(cmd.ExecuteContext(ctx), stderr)
}

// report prints err and maps it to an exit code.
func report(err error, stderr io.Writer) int {
	if err == nil {
		return exitOK
	}
	var ie *dp.InternalError
	if errors.As(err, &ie) {
		fmt.Fprintln(stderr, "mcdp:", ie.Detail())
		return exitInternal
	}
	fmt.Fprintln(stderr, "mcdp:", err)
	return exitModel
}

// zigzag loads records into a store and runs joins over its indexes.
//
// Usage:
//
//	zigzag -c zigzag.yaml load animals.yaml
//	zigzag -c zigzag.yaml list animals -n 20 --index color -r
//	zigzag -c zigzag.yaml query animals --where color=spots --where legs=4 --algo merge
//	zigzag -c zigzag.yaml query animals --where color_name=^:[spots] --where legs_name=^:[4]
//	zigzag -c zigzag.yaml search animals name ca
//	zigzag --load animals.yaml query animals --where color=spots
//	zigzag -c zigzag.yaml view animals
//
// View mode:
//
//	j/↓    scroll down
//	k/↑    scroll up
//	g      jump to first
//	G      jump to last
//	/      seek to key
//	q/Esc  quit
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err := newRootCommand(os.Stdin, os.Stdout, os.Stderr).ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

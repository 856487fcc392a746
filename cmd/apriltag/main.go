package main

import (
	"fmt"
	"os"

	"github.com/aprilgo/apriltag/cmd/apriltag/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

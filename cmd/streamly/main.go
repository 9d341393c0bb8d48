package main

import (
	"fmt"
	"os"

	"github.com/eshaffer321/streamly-go/pkg/streamly"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", streamly.FriendlyMessage(err))
		os.Exit(1)
	}
}

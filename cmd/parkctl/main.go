package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spec-kit/parking-service/internal/console"
)

func main() {
	err := Execute()
	switch {
	case err == nil:
	case errors.Is(err, console.ErrSessionCancelled):
		fmt.Fprintln(os.Stderr, "Parking cancelled.")
		os.Exit(1)
	case errors.Is(err, io.EOF):
	default:
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

package main

import (
	"errors"
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd(nil).Execute(); err != nil {
		var se *statusError
		if !errors.As(err, &se) {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(1)
	}
}

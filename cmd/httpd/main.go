package main

import (
	"fmt"
	"os"

	"github.com/jonesrussell/storefront-admin/internal/bootstrap"
)

func main() {
	if err := bootstrap.Start(); err != nil {
		fmt.Fprintf(os.Stderr, "storefront-admin: %v\n", err)
		os.Exit(1)
	}
}

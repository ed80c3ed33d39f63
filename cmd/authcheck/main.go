package main

import (
	"fmt"
	"os"

	"github.com/momentum-app/momentum-backend/internal/tools/authcheck"
)

func main() {
	if err := authcheck.NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

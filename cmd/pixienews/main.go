// pixienews is the operator CLI for the PixieNews aggregation engine.
//
// Usage:
//
//	pixienews countries               # configured regions
//	pixienews news US -n 5            # latest news for a region
//	pixienews search "openai" -n 10   # search across regions
//	pixienews diagnose JP             # run each source of a region once
//	pixienews validate-config         # check environment and region file
//	pixienews token --role admin      # issue an admin API token
package main

import (
	"os"
)

var version = "dev"

func main() {
	if err := newRootCmd(defaultCLI()).Execute(); err != nil {
		os.Exit(1)
	}
}

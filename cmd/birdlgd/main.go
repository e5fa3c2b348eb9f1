// birdlgd is the BIRD looking-glass proxy daemon.
//
// It answers looking-glass queries by running birdc and traceroute on the
// router, and exposes the query log and Prometheus metrics over HTTP.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/psaab/birdlg/pkg/config"
	"github.com/psaab/birdlg/pkg/daemon"
)

func main() {
	configFile := flag.String("config", config.DefaultPath, "configuration file path")
	listen := flag.String("listen", "", "HTTP listen address (overrides config)")
	debug := flag.Bool("debug", false, "enable debug logging")
	flag.Parse()

	d := daemon.New(daemon.Options{
		ConfigFile: *configFile,
		Listen:     *listen,
		Debug:      *debug,
	})

	if err := d.Run(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "birdlgd: %v\n", err)
		os.Exit(1)
	}
}

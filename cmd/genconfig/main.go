// Command genconfig prints a YAML configuration file built from the defaults,
// or from the current environment with -env. Secrets are never printed.
package main

import (
	"flag"
	"os"

	"github.com/helloiwashere/guestbook-backend/config"
	"github.com/helloiwashere/guestbook-backend/logger"
)

func main() {
	fromEnv := flag.Bool("env", false, "Resolve environment variables and CONFIG_FILE before printing")
	flag.Parse()

	logger.InitLogger()
	defer logger.Close()
	log := logger.GetLogger()

	load := config.Defaults
	if *fromEnv {
		load = config.LoadConfig
	}
	cfg, err := load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if err := config.WriteExample(os.Stdout, cfg); err != nil {
		log.Fatalf("Failed to write config: %v", err)
	}
}

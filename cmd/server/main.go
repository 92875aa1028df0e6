// Package main is the entry point for the chordkeys API server
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/james-see/chordkeys/pkg/api"
	"github.com/james-see/chordkeys/pkg/config"
	"github.com/james-see/chordkeys/pkg/engine"
)

func main() {
	port := flag.Int("port", 0, "Server port (default server.port from config, 8080)")
	configPath := flag.String("config", "", "YAML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
		os.Exit(1)
	}
	logger, err := cfg.Log.NewLogger(os.Stderr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
		os.Exit(1)
	}

	*port = listenPort(flag.CommandLine, *port, cfg)

	fmt.Printf("Starting chordkeys API server on port %d...\n", *port)
	fmt.Printf("Swagger docs available at http://localhost:%d/swagger/index.html\n", *port)

	err = api.StartServer(*port, api.Options{
		Style:          cfg.Style(),
		MaxSessions:    cfg.Server.MaxSessions,
		AllowedOrigins: cfg.Server.AllowedOrigins,
		Guard:          func(v engine.Voice) engine.Voice { return cfg.Guard(v) },
		Logger:         logger,
	})
	if err != nil {
		logger.Error("server stopped", "err", err)
		os.Exit(1)
	}
}

// listenPort prefers an explicit -port over server.port from the config
func listenPort(fs *flag.FlagSet, port int, cfg config.Config) int {
	set := false
	fs.Visit(func(f *flag.Flag) {
		if f.Name == "port" {
			set = true
		}
	})
	if set {
		return port
	}
	return cfg.Server.Port
}

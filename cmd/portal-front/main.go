package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/communication-ltd/portal-front/internal/api"
	"github.com/communication-ltd/portal-front/internal/config"
	"github.com/communication-ltd/portal-front/internal/log"
	"github.com/communication-ltd/portal-front/internal/shell"
)

var BuildVersion = "dev"

func main() {
	envPath := flag.String("env", ".env", "path to dotenv file (missing file is fine)")
	version := flag.Bool("version", false, "print version and exit")
	help := flag.Bool("help", false, "print help and exit")
	flag.Parse()
	if *help {
		flag.Usage()
		return
	}
	if *version {
		fmt.Println(BuildVersion)
		return
	}

	cfg, err := config.Load(*envPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	if cfg.LogLevel != "" {
		if err := log.SetLogLevel(cfg.LogLevel); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	}

	client, err := api.NewClient(cfg.APIBaseURL, cfg.RequestTimeout)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: invalid API base URL: %v\n", err)
		os.Exit(1)
	}

	log.LogInfoWithFields("main", "Starting portal-front", map[string]any{
		"version": BuildVersion,
		"api":     cfg.APIBaseURL,
	})

	sh := shell.New(cfg, client, os.Stdin, os.Stdout)
	if err := sh.Run(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

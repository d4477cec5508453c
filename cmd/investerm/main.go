package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"net/url"
	"os"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/investerm/investerm/internal/app"
	"github.com/investerm/investerm/internal/client"
	"github.com/investerm/investerm/internal/config"
	"github.com/investerm/investerm/internal/session"
)

func main() {
	configPath := flag.String("config", "", "Path to a YAML config file")
	server := flag.String("server", "", "Backend base URL (overrides config)")
	logFile := flag.String("log", "", "Write debug logs to this file (overrides config)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
	if *server != "" {
		cfg.Server.BaseURL = strings.TrimRight(*server, "/")
		cfg.Server.WSURL = deriveWSBase(cfg.Server.BaseURL)
	}
	if *logFile != "" {
		cfg.Log.File = *logFile
	}
	setupLogging(cfg.Log.File)

	if err := os.MkdirAll(cfg.State.Dir, 0o755); err != nil {
		fmt.Fprintf(os.Stderr, "Error creating state dir: %v\n", err)
		os.Exit(1)
	}

	sessions := session.NewStore(cfg.State.Dir)
	restored, err := sessions.Load()
	if err != nil {
		log.Printf("restoring session: %v", err)
	}

	token := ""
	if restored != nil {
		token = restored.Token
	}
	httpClient := client.NewHTTPClient(cfg.Server.BaseURL, token)

	m := app.New(*cfg, httpClient, sessions, restored)
	p := tea.NewProgram(m, tea.WithAltScreen())

	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// setupLogging routes the standard logger to a file, or discards it so
// log lines never bleed into the alt screen.
func setupLogging(path string) {
	if path == "" {
		log.SetOutput(io.Discard)
		return
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		log.SetOutput(io.Discard)
		return
	}
	log.SetOutput(f)
}

// deriveWSBase converts http://host:port → ws://host:port
func deriveWSBase(baseURL string) string {
	u, err := url.Parse(baseURL)
	if err != nil {
		return "ws://127.0.0.1:8002"
	}
	scheme := "ws"
	if u.Scheme == "https" {
		scheme = "wss"
	}
	return fmt.Sprintf("%s://%s", scheme, u.Host)
}

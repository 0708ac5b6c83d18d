package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"skland/core"
	"skland/routes"
	utils "skland/utils"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	log "github.com/sirupsen/logrus"
)

const DefaultPort = 2323

func main() {
	var (
		configPath string
		serve      bool
		port       int
		debug      bool
	)

	// Args
	flag.StringVar(&configPath, "config", "", "path to an optional YAML config file")
	flag.BoolVar(&serve, "serve", false, "run the HTTP task API instead of signing the configured accounts")
	flag.IntVar(&port, "port", DefaultPort, "task API port")
	flag.BoolVar(&debug, "debug", false, "enable debug logging")
	flag.Parse()

	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	if debug {
		log.SetLevel(log.DebugLevel)
	}

	if serve {
		runServer(port)
		return
	}

	cfg, err := utils.LoadConfig(configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if !runAccounts(cfg) {
		os.Exit(1)
	}
}

func runServer(port int) {
	e := echo.New()

	// Debug Setting
	e.Logger.SetOutput(io.Discard)
	e.HideBanner = true
	e.Debug = false

	// Middleware
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{"*"},
		AllowHeaders: []string{"*"},
	}))

	// Attendance
	e.POST("/createTask", routes.CreateTaskRoute)
	e.POST("/getTask", routes.GetTaskRoute)
	e.GET("/getGames", routes.GetGamesRoute)

	// Decrypt Endpoints
	e.POST("/decryptPayload", routes.DecryptPayloadRoute)

	log.Infof("Server is running on PORT: %d", port)
	if err := e.Start(fmt.Sprintf(":%d", port)); err != nil {
		log.Fatalf("Server failed to start: %v", err)
	}
}

// runAccounts signs every configured account in turn and reports through the webhook.
// It returns false when any account had a failure.
func runAccounts(cfg utils.Config) bool {
	if len(cfg.Tokens) == 0 {
		log.Error("No tokens configured: set SKYLAND_TOKENS or tokens in the config file")
		return false
	}

	games := cfg.Games()
	if len(games) == 0 {
		log.Warn("All games are disabled, nothing to do")
		return true
	}

	allSuccess := true
	var report []string

	for i, token := range cfg.Tokens {
		logger := log.WithFields(log.Fields{
			"account": i + 1,
			"token":   utils.MaskToken(token),
		})
		logger.Info("Signing account")
		report = append(report, fmt.Sprintf("Account %d (%s):", i+1, utils.MaskToken(token)))

		client, err := utils.NewHttpClient(cfg.Proxy)
		if err != nil {
			logger.Errorf("Failed to create http client: %v", err)
			report = append(report, fmt.Sprintf("Login/Init Error: %v", err))
			allSuccess = false
			continue
		}

		session, err := core.NewSkylandClient(client)
		if err != nil {
			var cryptoErr *core.CryptoError
			if errors.As(err, &cryptoErr) {
				logger.WithField("op", cryptoErr.Op).Error("Fingerprint constants are broken, every account will fail")
			}
			logger.Errorf("Failed to initialise session: %v", err)
			report = append(report, fmt.Sprintf("Login/Init Error: %v", err))
			allSuccess = false
			continue
		}

		ok, logs := session.RunSign(token, games)
		for _, line := range logs {
			logger.Info(line)
		}
		report = append(report, logs...)

		if !ok {
			allSuccess = false
		}
	}

	if cfg.WebhookURL != "" {
		client, err := utils.NewHttpClient(cfg.Proxy)
		if err == nil {
			err = utils.SendWebhook(client, cfg.WebhookURL, strings.Join(report, "\n"))
		}
		if err != nil {
			log.Warnf("Failed to send webhook: %v", err)
		}
	}

	return allSuccess
}

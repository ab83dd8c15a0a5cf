// Package main is the entry point for the PancyGuard Go application.
// It initializes all systems and starts the Discord bot.
package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/PancyStudios/PancyGuardGo/internal/commands"
	"github.com/PancyStudios/PancyGuardGo/internal/events"
	"github.com/PancyStudios/PancyGuardGo/internal/moderation"
	"github.com/PancyStudios/PancyGuardGo/pkg/config"
	"github.com/PancyStudios/PancyGuardGo/pkg/database"
	"github.com/PancyStudios/PancyGuardGo/pkg/discord"
	"github.com/PancyStudios/PancyGuardGo/pkg/errors"
	"github.com/PancyStudios/PancyGuardGo/pkg/logger"
	"github.com/PancyStudios/PancyGuardGo/pkg/mqtt"
	"github.com/PancyStudios/PancyGuardGo/pkg/web"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Error loading configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log := logger.Init(cfg.ErrorWebhook, cfg.LogsWebhook)
	defer log.Close()

	logger.System("Iniciando PancyGuard Go...", "Main")
	logger.Info(fmt.Sprintf("Directorio de trabajo: %s", getCurrentDir()), "Main")

	// Initialize error handler
	var discordClient *discord.ExtendedClient
	var modService *moderation.Service
	errors.Init(cfg.ErrorWebhook, func() {
		if modService != nil {
			modService.Stop()
		}
		if discordClient != nil {
			err := discordClient.Stop()
			if err != nil {
				return
			}
		}
	})

	// Initialize database
	db, err := database.Init(cfg.MongoDBURL, cfg.DBName)
	if err != nil {
		logger.Error(fmt.Sprintf("Error connecting to database: %v", err), "Main")
		logger.Debug(fmt.Sprintf("Error connecting to database: %v", cfg.MongoDBURL), "Main")
		// Continue without database- it will attempt to reconnect
	}
	defer func() {
		if db != nil {
			err := db.Disconnect()
			if err != nil {
				return
			}
		}
	}()

	// Initialize global DataManagers and the stores built on them
	if db != nil {
		database.InitGlobalDataManagers(db)

		if _, err := database.InitLedgerService(); err != nil {
			logger.Warn(fmt.Sprintf("Error inicializando el servicio de historial: %v", err), "Main")
		}
		if _, err := database.InitBanStore(); err != nil {
			logger.Warn(fmt.Sprintf("Error inicializando el almacén de baneos: %v", err), "Main")
		}
	}

	// Initialize MQTT
	mqttClientID := "pancyguard"
	if !cfg.IsProd() {
		mqttClientID = "pancyguard_canary"
	}

	mqttClient := mqtt.Init(
		cfg.MQTTHost,
		cfg.MQTTPort,
		cfg.MQTTUser,
		cfg.MQTTPassword,
		mqttClientID,
		cfg.Environment,
	)
	defer mqttClient.Destroy()

	// Initialize web server with the live mod-log feed
	webServer := web.Init(cfg.LogsWebServerHook)
	web.SetupAPIRoutes(webServer)
	modLogFeed := web.InitModLogFeed()
	web.SetupModLogFeed(webServer, modLogFeed)
	webServer.StartAsync(cfg.Port)

	// Initialize Discord client. The moderation service needs the session
	// for its platform adapter, so it gets attached right after.
	discordClient, err = discord.Init(cfg.BotToken, nil)
	if err != nil {
		logger.Critical(fmt.Sprintf("Error creating Discord client: %v", err), "Main")
		os.Exit(1)
	}

	modService = moderation.NewService(moderation.ServiceOptions{
		Platform: moderation.NewDiscordPlatform(discordClient.Session),
		Ledger:   database.GetLedgerService(),
		Config:   moderation.NewMongoConfigProvider(database.GlobalGuildSettingsDM),
		BanStore: database.GetBanStore(),
		Notify: func(evt moderation.Event) {
			modLogFeed.Notify(evt)
			go func() {
				if mqttClient.IsConnected() {
					if err := mqttClient.PublishModerationEvent(evt); err != nil {
						logger.Warn(fmt.Sprintf("No se pudo publicar el evento de moderación: %v", err), "Main")
					}
				}
			}()
		},
		ScanInterval: cfg.BanScanInterval,
		SpamTimeout:  time.Duration(cfg.SpamTimeoutMins) * time.Minute,
	})
	discordClient.Moderation = modService

	// Answer stats requests over MQTT
	mqttClient.On("moderation/stats", func(payload map[string]interface{}) (interface{}, error) {
		return modService.Stats().Snapshot(), nil
	})

	// Register commands using the commands package
	commands.RegisterAll(discordClient)

	// Register events using the events package
	events.RegisterAll(discordClient)

	// Start the bot
	if err := discordClient.Start(); err != nil {
		logger.Critical(fmt.Sprintf("Error starting Discord client: %v", err), "Main")
		os.Exit(1)
	}
	defer func(discordClient *discord.ExtendedClient) {
		err := discordClient.Stop()
		if err != nil {
			return
		}
	}(discordClient)

	// Start the temp-ban expiry scheduler once Discord is connected
	modService.Start()
	defer modService.Stop()

	logger.Success("PancyGuard Go iniciado correctamente!", "Main")

	// Wait for interrupt signal
	sc := make(chan os.Signal, 1)
	signal.Notify(sc, syscall.SIGINT, syscall.SIGTERM, os.Interrupt)
	<-sc

	logger.System("Apagando PancyGuard Go...", "Main")
}

// getCurrentDir returns the current working directory
func getCurrentDir() string {
	dir, err := os.Getwd()
	if err != nil {
		return "unknown"
	}
	return dir
}

package main

import (
	"fmt"
	"log"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	redis "github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"github.com/virajpatidar10/tiktok-ads-creative-flow/pkg/adform"
	"github.com/virajpatidar10/tiktok-ads-creative-flow/pkg/config"
	"github.com/virajpatidar10/tiktok-ads-creative-flow/pkg/demo"
	"github.com/virajpatidar10/tiktok-ads-creative-flow/pkg/music"
	"github.com/virajpatidar10/tiktok-ads-creative-flow/pkg/nonce"
	"github.com/virajpatidar10/tiktok-ads-creative-flow/pkg/session"
	"github.com/virajpatidar10/tiktok-ads-creative-flow/pkg/storage"
	"github.com/virajpatidar10/tiktok-ads-creative-flow/pkg/tiktok/ads"
	"github.com/virajpatidar10/tiktok-ads-creative-flow/pkg/tiktok/oauth"
	"github.com/virajpatidar10/tiktok-ads-creative-flow/pkg/web"
)

var configPath string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the adsflow server",
	Run: func(cmd *cobra.Command, args []string) {
		godotenv.Load()

		var cfg *config.Config
		var err error
		if configPath != "" {
			cfg, err = config.LoadConfigFile(configPath)
			if err != nil {
				log.Fatal(err)
			}
		} else {
			cfg = config.FromEnv()
		}

		if err := serve(cfg); err != nil {
			log.Fatal(err)
		}
	},
}

func init() {
	serveCmd.Flags().StringVarP(&configPath, "config", "c", "", "path to config file")
	rootCmd.AddCommand(serveCmd)
}

type CustomValidator struct {
	validator *validator.Validate
}

func (cv *CustomValidator) Validate(i interface{}) error {
	if err := cv.validator.Struct(i); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return nil
}

func buildStore(cfg config.StorageConfig) (storage.Store, error) {
	switch cfg.Type {
	case "file":
		return storage.NewFileStore(cfg.Path)
	case "redis":
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		return storage.NewRedisStore(client, cfg.RedisPrefix), nil
	default:
		return storage.NewMemoryStore(), nil
	}
}

func serve(cfg *config.Config) error {
	store, err := buildStore(cfg.Storage)
	if err != nil {
		return fmt.Errorf("build store: %w", err)
	}

	oauthClient := oauth.NewClient(cfg.OAuth, store)
	adsClient := ads.NewClient(cfg.OAuth.BaseURL, oauthClient)
	musicService := music.NewService(adsClient)

	var demoService *demo.Service
	if cfg.DemoMode {
		demoService, err = demo.NewService()
		if err != nil {
			return fmt.Errorf("init demo mode: %w", err)
		}
	}

	var demoVerifier session.DemoVerifier
	if demoService != nil {
		demoVerifier = demoService
	}
	sessions := session.NewManager(oauthClient, demoVerifier)

	tickets, err := nonce.NewService()
	if err != nil {
		return fmt.Errorf("init upload tickets: %w", err)
	}

	server := web.NewServer(
		web.Config{FrontendRedirectURI: cfg.FrontendRedirectURI},
		oauthClient,
		adsClient,
		musicService,
		sessions,
		adform.New(),
		demoService,
		tickets,
	)

	root := echo.New()
	root.Validator = &CustomValidator{validator: validator.New()}
	root.Use(middleware.Recover())
	server.Mount(root)

	return root.Start(cfg.Address)
}

package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v5"
	"github.com/labstack/echo/v5/middleware"
	"github.com/urfave/cli/v3"

	"github.com/samcharles93/dscript/internal/api"
	"github.com/samcharles93/dscript/internal/logger"
	"github.com/samcharles93/dscript/pkg/platform"
)

func serveCmd() *cli.Command {
	var (
		addr        string
		readTimeout time.Duration
		maxUpload   int64
		maxPlain    int64
		rateLimit   float64
		rateBurst   int64
	)

	return &cli.Command{
		Name:  "serve",
		Usage: "Serve the container inspection REST API",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "addr",
				Usage:       "listen address",
				Value:       "127.0.0.1:8080",
				Destination: &addr,
			},
			&cli.DurationFlag{
				Name:        "read-timeout",
				Usage:       "read timeout",
				Value:       30 * time.Second,
				Destination: &readTimeout,
			},
			&cli.Int64Flag{
				Name:        "max-upload-bytes",
				Usage:       "largest accepted container upload",
				Value:       api.DefaultMaxUploadBytes,
				Destination: &maxUpload,
			},
			&cli.Int64Flag{
				Name:        "max-container-bytes",
				Usage:       "largest container accepted after zstd decompression",
				Value:       api.DefaultMaxContainerBytes,
				Destination: &maxPlain,
			},
			&cli.Float64Flag{
				Name:        "rate-limit",
				Usage:       "requests per second per client (0 disables)",
				Value:       20,
				Destination: &rateLimit,
			},
			&cli.Int64Flag{
				Name:        "rate-burst",
				Usage:       "request burst per client",
				Value:       40,
				Destination: &rateBurst,
			},
			&cli.StringFlag{
				Name:        "platform",
				Aliases:     []string{"p"},
				Usage:       "default package platform for requests without ?platform=",
				Value:       "ps2",
				Destination: &platformName,
			},
			&cli.Int64Flag{
				Name:        "version",
				Usage:       "default package version for requests without ?version=",
				Destination: &packageVersion,
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			log := logger.FromContext(ctx)
			applyServeConfig(cmd, cfg, serveSettings{&addr, &maxUpload, &maxPlain, &rateLimit, &rateBurst})

			plat, err := platform.ParseType(platformName)
			if err != nil {
				return cli.Exit(fmt.Sprintf("error: %v", err), 1)
			}

			server := api.NewServer(api.NewContainerStore(), api.Options{
				Platform:          plat,
				Version:           int(packageVersion),
				MaxUploadBytes:    maxUpload,
				MaxContainerBytes: maxPlain,
				Logger:            log,
			})
			limiter := api.NewRateLimiter(rateLimit, int(rateBurst))

			e := echo.New()
			e.Use(middleware.RequestLogger())
			e.Use(middleware.Recover())
			e.Use(limiter.Middleware())
			server.Register(e)
			log.Info("starting server",
				"address", addr,
				"platform", plat.String(),
				"version", packageVersion,
				"rate_limit", rateLimit,
			)
			sc := echo.StartConfig{
				Address: addr,
				BeforeServeFunc: func(srv *http.Server) error {
					srv.ReadHeaderTimeout = readTimeout
					return nil
				},
			}
			return sc.Start(ctx, e)
		},
	}
}

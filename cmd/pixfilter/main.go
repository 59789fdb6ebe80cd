package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/maax3v3/pixfilter/internal/buffer"
	params "github.com/maax3v3/pixfilter/internal/cli"
	"github.com/maax3v3/pixfilter/internal/imaging"
	"github.com/maax3v3/pixfilter/internal/pipeline"
	"github.com/maax3v3/pixfilter/internal/renderer"
	"github.com/maax3v3/pixfilter/internal/server"
	"github.com/maax3v3/pixfilter/internal/session"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newApp().RunContext(ctx, os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:    "pixfilter",
		Usage:   "Apply bitmap filters and inspect brightness histograms",
		Version: "1.0.0",
		Commands: []*cli.Command{
			applyCommand(),
			histogramCommand(),
			serveCommand(),
		},
	}
}

func chartFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "bar-color", Usage: "Histogram bar color as #rgb or #rrggbb"},
		&cli.StringFlag{Name: "background", Usage: "Histogram background color as #rgb or #rrggbb"},
	}
}

func applyCommand() *cli.Command {
	return &cli.Command{
		Name:  "apply",
		Usage: "Apply one filter to an image file",
		Flags: append([]cli.Flag{
			&cli.StringFlag{Name: "in", Usage: "Path to input image (png, jpg, gif, bmp, webp)", Required: true},
			&cli.StringFlag{Name: "out", Usage: "Path to output image (png, jpg, bmp)", Required: true},
			&cli.StringFlag{
				Name:     "filter",
				Aliases:  []string{"f"},
				Usage:    "Filter to apply: " + strings.Join(params.Actions, ", "),
				Required: true,
			},
			&cli.StringFlag{Name: "amount", Usage: "Threshold, brightness delta or contrast factor"},
			&cli.StringFlag{Name: "histogram", Usage: "Optional .png path for a histogram chart of the output"},
		}, chartFlags()...),
		Action: func(c *cli.Context) error {
			cfg, err := params.NewConfig(
				c.String("in"),
				c.String("out"),
				c.String("filter"),
				c.String("amount"),
				c.String("histogram"),
			)
			if err != nil {
				return err
			}
			if cfg.Chart, err = params.ChartConfig(c.String("bar-color"), c.String("background")); err != nil {
				return err
			}
			return pipeline.Run(c.Context, cfg, renderer.NewFaceFont(nil), os.Stdout)
		},
	}
}

func histogramCommand() *cli.Command {
	return &cli.Command{
		Name:  "histogram",
		Usage: "Render the brightness histogram of an image as a PNG chart",
		Flags: append([]cli.Flag{
			&cli.StringFlag{Name: "in", Usage: "Path to input image", Required: true},
			&cli.StringFlag{Name: "out", Usage: "Path to the .png chart", Required: true},
		}, chartFlags()...),
		Action: func(c *cli.Context) error {
			if err := params.ValidateChartPath(c.String("out")); err != nil {
				return err
			}
			chart, err := params.ChartConfig(c.String("bar-color"), c.String("background"))
			if err != nil {
				return err
			}
			img, err := imaging.Load(c.String("in"))
			if err != nil {
				return fmt.Errorf("loading image: %w", err)
			}
			s := session.New()
			if err := s.Load(buffer.FromImage(img)); err != nil {
				return err
			}
			return pipeline.SaveHistogram(s, c.String("out"), renderer.NewFaceFont(nil), chart, os.Stdout)
		},
	}
}

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Serve an interactive filtering session over HTTP",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "addr",
				Usage:   "Listen address",
				Value:   ":8080",
				EnvVars: []string{"PIXFILTER_ADDR"},
			},
			&cli.StringFlag{Name: "image", Usage: "Optional image to load at startup"},
		},
		Action: func(c *cli.Context) error {
			logger := log.New(os.Stderr, "pixfilter: ", log.LstdFlags)

			s := session.New()
			if path := c.String("image"); path != "" {
				img, err := imaging.Load(path)
				if err != nil {
					return fmt.Errorf("loading image: %w", err)
				}
				if err := s.Load(buffer.FromImage(img)); err != nil {
					return err
				}
				logger.Printf("loaded %s", path)
			}

			srv := server.New(c.Context, s, renderer.NewFaceFont(nil), logger)
			httpServer := &http.Server{
				Addr:              c.String("addr"),
				Handler:           srv.Routes(),
				ReadHeaderTimeout: 10 * time.Second,
			}

			errc := make(chan error, 1)
			go func() {
				logger.Printf("listening on %s", httpServer.Addr)
				errc <- httpServer.ListenAndServe()
			}()

			select {
			case err := <-errc:
				return err
			case <-c.Context.Done():
			}

			logger.Printf("shutting down")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := httpServer.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		},
	}
}

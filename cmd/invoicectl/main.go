// Command invoicectl inspects and exports the stored invoice without running
// the server. It reads the same environment as cmd/server.
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/seafreight/backend/internal/config"
	"github.com/seafreight/backend/internal/logging"
	"github.com/seafreight/backend/internal/repository"
	"github.com/seafreight/backend/internal/service"
	"github.com/seafreight/backend/pkg/gemini"
)

func main() {
	logging.Setup()

	var (
		backend *repository.Backend
		ctl     *controller
		cfg     *config.Config
	)

	app := &cli.App{
		Name:  "invoicectl",
		Usage: "inspect and export the stored sea-freight invoice",
		Before: func(c *cli.Context) error {
			var err error
			cfg, err = config.Load()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			backend, err = repository.OpenBackend(c.Context, cfg)
			if err != nil {
				return fmt.Errorf("open storage: %w", err)
			}
			ctl = newController(repository.NewSlotInvoiceStore(backend.Slot, nil), os.Stdout, time.Now)
			return nil
		},
		After: func(c *cli.Context) error {
			if backend != nil {
				backend.Close()
			}
			return nil
		},
		Commands: []*cli.Command{
			{
				Name:  "show",
				Usage: "print the stored record as JSON",
				Action: func(c *cli.Context) error {
					return ctl.show(c.Context)
				},
			},
			{
				Name:  "totals",
				Usage: "print subtotal, total CBM and total",
				Action: func(c *cli.Context) error {
					return ctl.totals(c.Context)
				},
			},
			{
				Name:      "pdf",
				Usage:     "render the invoice as PDF",
				ArgsUsage: "[file]",
				Action: func(c *cli.Context) error {
					return ctl.pdf(c.Context, c.Args().First())
				},
			},
			{
				Name:      "html",
				Usage:     "render the printable HTML preview",
				ArgsUsage: "[file]",
				Action: func(c *cli.Context) error {
					return ctl.html(c.Context, c.Args().First())
				},
			},
			{
				Name:  "next-number",
				Usage: "print the successor of the stored invoice number",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "write", Aliases: []string{"w"}, Usage: "store the new number"},
					&cli.BoolFlag{Name: "offline", Usage: "never call Gemini"},
				},
				Action: func(c *cli.Context) error {
					assistant := service.Assistant(offlineAssistant{})
					if !c.Bool("offline") && cfg.AssistConfigured() {
						client, err := gemini.NewClient(c.Context, gemini.Config{
							APIKey:   cfg.GeminiAPIKey,
							Backend:  cfg.GeminiBackend,
							Model:    cfg.GeminiModel,
							Project:  cfg.GoogleCloudProject,
							Location: cfg.GoogleCloudLocation,
						})
						if err != nil {
							return fmt.Errorf("gemini: %w", err)
						}
						assistant = service.NewGeminiAssistant(client, time.Now)
					}
					return ctl.nextNumber(c.Context, assistant, c.Bool("write"))
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "invoicectl:", err)
		os.Exit(1)
	}
}

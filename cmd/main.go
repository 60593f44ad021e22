// cmd/main.go

// @title Invoice Studio API
// @version 1.0
// @description Edit, preview and export a single invoice with plan-gated features.
// @BasePath /
package main

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/invoice-studio/pkg/config"
	"github.com/invoice-studio/pkg/entitlement"
	ierr "github.com/invoice-studio/pkg/errors"
	"github.com/invoice-studio/pkg/gate"
	"github.com/invoice-studio/pkg/kvstore"
	"github.com/invoice-studio/pkg/logger"
	"github.com/invoice-studio/pkg/logo"
	"github.com/invoice-studio/pkg/metrics"
	"github.com/invoice-studio/pkg/render"
	"github.com/invoice-studio/pkg/server"
	"github.com/invoice-studio/pkg/session"
	"github.com/invoice-studio/pkg/templates"
	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"
)

func main() {
	// .env is optional
	_ = godotenv.Load()

	app := &cli.App{
		Name:  "invoice-studio",
		Usage: "edit, preview and export invoices",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Aliases: []string{"c"}, Usage: "config file (default: ./config.yaml)"},
		},
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "run the HTTP preview server",
				Action: serveCmd,
			},
			{
				Name:  "render",
				Usage: "render an invoice draft to html, png or pdf",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "input", Aliases: []string{"i"}, Required: true, Usage: "draft file (yaml or json)"},
					&cli.StringFlag{Name: "format", Aliases: []string{"f"}, Value: "pdf", Usage: "html, png or pdf"},
					&cli.StringFlag{Name: "out", Aliases: []string{"o"}, Usage: "output file (default: invoice.<format>)"},
				},
				Action: renderCmd,
			},
			{
				Name:  "plan",
				Usage: "inspect or change the stored plan",
				Subcommands: []*cli.Command{
					{Name: "show", Usage: "print tier and template preference", Action: planShowCmd},
					{Name: "unlock", Usage: "confirm a completed purchase", Action: planUnlockCmd},
					{
						Name:  "override",
						Usage: "force a tier (debug builds only)",
						Flags: []cli.Flag{
							&cli.StringFlag{Name: "tier", Required: true, Usage: "free or unlocked"},
						},
						Action: planOverrideCmd,
					},
				},
			},
		},
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := app.RunContext(ctx, os.Args); err != nil {
		logger.L.Errorw("command failed", "error", err, "notice", ierr.Notice(err))
		os.Exit(1)
	}
}

// deps is everything a command may need, built from one configuration.
type deps struct {
	cfg     *config.Configuration
	log     *logger.Logger
	store   kvstore.Store
	ent     *entitlement.Manager
	gate    *gate.Gate
	metrics *metrics.Metrics
	logos   *logo.Store
	session *session.Session
}

func bootstrap(c *cli.Context) (*deps, error) {
	cfg, err := config.NewConfig(c.String("config"))
	if err != nil {
		return nil, err
	}

	log, err := logger.NewLogger(cfg.Logging.Level)
	if err != nil {
		return nil, err
	}
	logger.L = log

	ctx := c.Context
	store, err := kvstore.New(ctx, cfg.Store)
	if err != nil {
		return nil, err
	}

	ent, err := entitlement.NewManager(ctx, store, log)
	if err != nil {
		store.Close()
		return nil, err
	}

	var objects logo.ObjectAPI
	if cfg.S3.Enabled {
		client, err := logo.NewS3Client(ctx, cfg.S3)
		if err != nil {
			store.Close()
			return nil, err
		}
		objects = client
	}

	catalog := templates.DefaultCatalog()
	g := gate.New(catalog, cfg.Entitlement.PurchaseURL)
	m := metrics.New(nil)
	renderer := render.New(
		render.Config{QRSize: cfg.Render.QRSize, ExportScale: cfg.Render.ExportScale},
		render.QRCodeGenerator{},
		render.CanvasCapturer{},
		render.PDFPrinter{},
		log,
	)

	logos := logo.New(objects, cfg.S3, log)
	sess := session.New(session.Params{
		Entitlement:   ent,
		Catalog:       catalog,
		Gate:          g,
		Renderer:      renderer,
		Logos:         logos,
		Metrics:       m,
		Logger:        log,
		AllowOverride: cfg.Entitlement.DebugOverride,
	})

	return &deps{cfg: cfg, log: log, store: store, ent: ent, gate: g, metrics: m, logos: logos, session: sess}, nil
}

func serveCmd(c *cli.Context) error {
	d, err := bootstrap(c)
	if err != nil {
		return err
	}
	defer d.store.Close()

	srv := server.New(d.cfg, d.session, d.ent, d.gate, d.metrics, d.log)
	return srv.Run(c.Context)
}

func renderCmd(c *cli.Context) error {
	d, err := bootstrap(c)
	if err != nil {
		return err
	}
	defer d.store.Close()

	format := strings.ToLower(c.String("format"))
	out := c.String("out")
	if out == "" {
		out = "invoice." + format
	}

	draft, err := session.ReadDraft(c.String("input"))
	if err != nil {
		return err
	}
	// the draft comes from the operator, so its logoRef may be a local path
	d.logos.AllowLocal = true
	res, err := d.session.Load(c.Context, draft)
	if err != nil {
		return err
	}
	if res.Notice != "" {
		fmt.Fprintln(os.Stderr, res.Notice)
	}

	var buf bytes.Buffer
	switch format {
	case "html":
		err = render.WriteHTML(&buf, res.View)
	case "png":
		var img []byte
		img, err = d.session.ExportImage(c.Context)
		buf.Write(img)
	case "pdf":
		err = d.session.Print(c.Context, &buf)
	default:
		return ierr.NewErrorf("unknown format %q", format).
			WithHint("format must be html, png or pdf").
			Mark(ierr.ErrValidation)
	}
	if err != nil {
		return err
	}

	if err := os.WriteFile(out, buf.Bytes(), 0o644); err != nil {
		return ierr.WithError(err).WithHintf("Could not write %s", out).Mark(ierr.ErrSystem)
	}
	d.log.Infow("invoice rendered", "format", format, "out", out, "total", res.View.Preview.Totals.Total.Amount)
	return nil
}

func planShowCmd(c *cli.Context) error {
	d, err := bootstrap(c)
	if err != nil {
		return err
	}
	defer d.store.Close()

	st := d.ent.State()
	fmt.Printf("tier: %s\n", st.Tier)
	fmt.Printf("template: %s\n", d.session.View().Preview.Template.ID)
	if !st.Unlocked() {
		fmt.Printf("upgrade: %s\n", d.gate.PurchaseURL())
	}
	return nil
}

func planUnlockCmd(c *cli.Context) error {
	d, err := bootstrap(c)
	if err != nil {
		return err
	}
	defer d.store.Close()

	res, err := d.session.Dispatch(c.Context, session.ConfirmPurchase{})
	if err != nil {
		return err
	}
	fmt.Println(res.Notice)
	return nil
}

func planOverrideCmd(c *cli.Context) error {
	d, err := bootstrap(c)
	if err != nil {
		return err
	}
	defer d.store.Close()

	tier := entitlement.Tier(strings.ToLower(c.String("tier")))
	if _, err := d.session.Dispatch(c.Context, session.OverrideTier{Tier: tier}); err != nil {
		return err
	}
	fmt.Printf("tier: %s\n", d.ent.Tier())
	return nil
}

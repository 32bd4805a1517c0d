package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/shopspring/decimal"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"github.com/inesloren/ticket/internal/platform/observability"
	"github.com/inesloren/ticket/internal/platform/textutil"
	"github.com/inesloren/ticket/internal/services"
	"github.com/inesloren/ticket/internal/ticketdoc"
)

const stdinPath = "-"

type runtime struct {
	logger  *zap.Logger
	tickets services.TicketService
	names   *textutil.NameNormalizer
}

func newApp(stdin io.Reader, stdout, stderr io.Writer) *cli.App {
	rt := &runtime{names: textutil.NewNameNormalizer()}

	fileFlag := &cli.StringFlag{
		Name:     "file",
		Aliases:  []string{"f"},
		Usage:    "ticket document (.json, .yaml or .yml); - reads JSON from stdin",
		Required: true,
	}
	formatFlag := &cli.StringFlag{
		Name:  "format",
		Usage: "output format: json or yaml",
		Value: string(ticketdoc.FormatJSON),
	}

	return &cli.App{
		Name:      "ticketcalc",
		Usage:     "price purchase tickets with Spanish VAT categories",
		Reader:    stdin,
		Writer:    stdout,
		ErrWriter: stderr,
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "verbose", Aliases: []string{"v"}, Usage: "log calculator events to stderr"},
			&cli.IntFlag{Name: "max-lines", Usage: "reject tickets with more lines than this", Value: 500},
		},
		Before: func(cCtx *cli.Context) error {
			return rt.init(cCtx)
		},
		After: func(*cli.Context) error {
			if rt.logger != nil {
				_ = rt.logger.Sync()
			}
			return nil
		},
		// Exit codes are resolved in main.
		ExitErrHandler: func(*cli.Context, error) {},
		Commands: []*cli.Command{
			{
				Name:  "compute",
				Usage: "compute the final ticket",
				Flags: []cli.Flag{fileFlag, formatFlag},
				Action: func(cCtx *cli.Context) error {
					cmd, err := rt.readTicket(cCtx)
					if err != nil {
						return err
					}
					receipt, err := rt.tickets.Compute(cCtx.Context, cmd)
					if err != nil {
						return exitError(err)
					}
					return write(cCtx, ticketdoc.NewReceiptView(receipt))
				},
			},
			{
				Name:  "total",
				Usage: "compute ticket totals",
				Flags: []cli.Flag{fileFlag, formatFlag},
				Action: func(cCtx *cli.Context) error {
					cmd, err := rt.readTicket(cCtx)
					if err != nil {
						return err
					}
					total, err := rt.tickets.Total(cCtx.Context, cmd)
					if err != nil {
						return exitError(err)
					}
					return write(cCtx, ticketdoc.NewTotalView(total))
				},
			},
			{
				Name:  "breakdown",
				Usage: "compute tax collected per category",
				Flags: []cli.Flag{fileFlag, formatFlag},
				Action: func(cCtx *cli.Context) error {
					cmd, err := rt.readTicket(cCtx)
					if err != nil {
						return err
					}
					entries, err := rt.tickets.Breakdown(cCtx.Context, cmd)
					if err != nil {
						return exitError(err)
					}
					return write(cCtx, ticketdoc.NewBreakdownViews(entries))
				},
			},
			{
				Name:  "price",
				Usage: "apply a tax category to a single price",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "price", Aliases: []string{"p"}, Usage: "net price", Required: true},
					&cli.StringFlag{Name: "category", Aliases: []string{"c"}, Usage: "tax category", Value: "general"},
					formatFlag,
				},
				Action: func(cCtx *cli.Context) error {
					price, err := decimal.NewFromString(cCtx.String("price"))
					if err != nil {
						return cli.Exit(fmt.Sprintf("invalid price %q", cCtx.String("price")), 2)
					}
					cmd, err := ticketdoc.PriceDocument{Price: &price, TaxCategory: cCtx.String("category")}.Command()
					if err != nil {
						return exitError(err)
					}
					taxed, err := rt.tickets.Price(cCtx.Context, cmd)
					if err != nil {
						return exitError(err)
					}
					return write(cCtx, map[string]any{
						"priceWithTax": taxed.InexactFloat64(),
						"taxCategory":  cmd.TaxCategory.String(),
					})
				},
			},
		},
	}
}

func (rt *runtime) init(cCtx *cli.Context) error {
	level := "warn"
	if cCtx.Bool("verbose") {
		level = "debug"
	}
	logger, err := observability.NewLogger(
		observability.WithLevel(level),
		observability.WithConsoleEncoding(),
		observability.WithOutputPaths("stderr"),
	)
	if err != nil {
		return cli.Exit(fmt.Sprintf("failed to initialise logger: %v", err), 2)
	}
	rt.logger = logger.Named("ticketcalc")

	tickets, err := services.NewTicketService(services.TicketServiceDeps{
		Calculator: services.NewVATCalculator(),
		MaxLines:   cCtx.Int("max-lines"),
		Logger:     observability.EventLogger(rt.logger),
	})
	if err != nil {
		return cli.Exit(err.Error(), 2)
	}
	rt.tickets = tickets
	return nil
}

func (rt *runtime) readTicket(cCtx *cli.Context) (services.ComputeTicketCommand, error) {
	path := cCtx.String("file")

	var reader io.Reader
	if path == stdinPath {
		reader = cCtx.App.Reader
	} else {
		file, err := os.Open(path)
		if err != nil {
			return services.ComputeTicketCommand{}, cli.Exit(fmt.Sprintf("open ticket: %v", err), 2)
		}
		defer file.Close()
		reader = file
	}

	var doc ticketdoc.Document
	if err := ticketdoc.Decode(reader, ticketdoc.FormatForPath(path), &doc); err != nil {
		return services.ComputeTicketCommand{}, cli.Exit(err.Error(), 2)
	}
	lines, err := doc.TicketLines(rt.names.Normalize)
	if err != nil {
		return services.ComputeTicketCommand{}, exitError(err)
	}
	return services.ComputeTicketCommand{Lines: lines}, nil
}

func write(cCtx *cli.Context, v any) error {
	format, err := ticketdoc.ParseFormat(cCtx.String("format"))
	if err != nil {
		return cli.Exit(err.Error(), 2)
	}
	return ticketdoc.Encode(cCtx.App.Writer, format, v)
}

// exitError prints calculator failures as their fixed message with status 1.
func exitError(err error) error {
	var ticketErr *services.TicketError
	if errors.As(err, &ticketErr) {
		return cli.Exit(ticketErr.Error(), 1)
	}
	if errors.Is(err, context.Canceled) {
		return cli.Exit("cancelled", 130)
	}
	return cli.Exit(err.Error(), 1)
}

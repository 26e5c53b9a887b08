package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/seafreight/backend/internal/model"
	"github.com/seafreight/backend/internal/render"
	"github.com/seafreight/backend/internal/repository"
	"github.com/seafreight/backend/internal/service"
)

// controller runs the subcommands against one InvoiceStore.
type controller struct {
	store repository.InvoiceStore
	out   io.Writer
	now   func() time.Time
}

func newController(store repository.InvoiceStore, out io.Writer, now func() time.Time) *controller {
	return &controller{store: store, out: out, now: now}
}

// load returns the stored record, or the default template when nothing usable
// is stored.
func (c *controller) load(ctx context.Context) (*model.InvoiceRecord, error) {
	rec, err := c.store.Load(ctx)
	if errors.Is(err, repository.ErrNotFound) {
		slog.Info("nothing stored, using the default template")
		return model.DefaultInvoice(c.now()), nil
	}
	return rec, err
}

func (c *controller) show(ctx context.Context) error {
	rec, err := c.load(ctx)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(c.out)
	enc.SetIndent("", "  ")
	return enc.Encode(rec)
}

func (c *controller) totals(ctx context.Context) error {
	rec, err := c.load(ctx)
	if err != nil {
		return err
	}
	t := model.ComputeTotals(rec.Items)
	symbol := model.CurrencySymbol(rec.Currency)
	_, err = fmt.Fprintf(c.out, "items      %d\nsubtotal   %s%s\ntotal cbm  %s\ntotal      %s%s\n",
		len(rec.Items),
		symbol, model.FormatMoney(t.Subtotal),
		model.FormatCBM(t.TotalCBM),
		symbol, model.FormatMoney(t.Total),
	)
	return err
}

// pdf writes the PDF to path. An empty path uses the invoice's file name;
// "-" writes to the controller's output.
func (c *controller) pdf(ctx context.Context, path string) error {
	rec, err := c.load(ctx)
	if err != nil {
		return err
	}
	if path == "" {
		path = render.PDFFilename(rec)
	}
	return c.writeTo(path, func(w io.Writer) error {
		return render.NewPDFRenderer().RenderPDF(rec, w)
	})
}

// html writes the printable preview to path, or to the output when path is
// empty or "-".
func (c *controller) html(ctx context.Context, path string) error {
	rec, err := c.load(ctx)
	if err != nil {
		return err
	}
	doc, err := render.NewHTMLRenderer().RenderHTML(rec)
	if err != nil {
		return err
	}
	if path == "" {
		path = "-"
	}
	return c.writeTo(path, func(w io.Writer) error {
		_, err := io.WriteString(w, doc)
		return err
	})
}

type nextNumberer interface {
	NextInvoiceNumber(ctx context.Context, current string) string
}

func (c *controller) nextNumber(ctx context.Context, assistant nextNumberer, write bool) error {
	rec, err := c.load(ctx)
	if err != nil {
		return err
	}
	if rec.InvoiceNumber == "" {
		return errors.New("the invoice has no number")
	}
	next := assistant.NextInvoiceNumber(ctx, rec.InvoiceNumber)
	if write && next != rec.InvoiceNumber {
		rec.InvoiceNumber = next
		if err := c.store.Save(ctx, rec); err != nil {
			return fmt.Errorf("save: %w", err)
		}
	}
	_, err = fmt.Fprintln(c.out, next)
	return err
}

func (c *controller) writeTo(path string, fn func(io.Writer) error) error {
	if path == "-" {
		return fn(c.out)
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := fn(f); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	slog.Info("written", "path", path)
	return nil
}

// offlineAssistant never calls out.
type offlineAssistant struct{}

func (offlineAssistant) Enabled() bool { return false }

func (offlineAssistant) RefineDescription(_ context.Context, text string) string { return text }

func (offlineAssistant) NextInvoiceNumber(_ context.Context, current string) string {
	return service.NextInvoiceNumberOffline(current)
}

package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"sort"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jessevdk/go-flags"
	"github.com/sourcegraph/conc"

	"sellwatch/internal/config"
	"sellwatch/internal/models"
)

type options struct {
	Categories string        `long:"categories" env:"CATEGORIES_FILE" default:"categories.yaml" description:"YAML file listing categories"`
	API        string        `long:"api" env:"API_BASE" default:"http://localhost:8080" description:"Status API base URL"`
	Timeout    time.Duration `long:"timeout" default:"10s" description:"Per-request timeout"`
}

// report is one category's line in the output.
type report struct {
	Category string
	Status   *models.BatchStatus
	Err      error
}

func main() {
	var opts options
	if _, err := flags.Parse(&opts); err != nil {
		var flagsErr *flags.Error
		if errors.As(err, &flagsErr) && flagsErr.Type == flags.ErrHelp {
			return
		}
		os.Exit(2)
	}

	if err := run(context.Background(), opts, nil, os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// run loads the categories, fetches every batch status concurrently and
// writes a summary to out. If client is nil, a default HTTP client is used.
func run(ctx context.Context, opts options, client *http.Client, out io.Writer) error {
	cats, err := config.LoadCategories(opts.Categories)
	if err != nil {
		return err
	}
	baseURL, err := url.Parse(opts.API)
	if err != nil {
		return err
	}
	if baseURL.Scheme == "" || baseURL.Host == "" {
		return fmt.Errorf("invalid api base %q", opts.API)
	}
	if client == nil {
		client = &http.Client{Timeout: opts.Timeout}
	}

	reports := make([]report, len(cats.Categories))
	var wg conc.WaitGroup
	for i, cat := range cats.Categories {
		wg.Go(func() {
			status, err := fetchStatus(ctx, client, baseURL, cat.Name)
			reports[i] = report{Category: cat.Name, Status: status, Err: err}
		})
	}
	wg.Wait()

	writeReport(out, reports)
	return nil
}

var errNoBatch = errors.New("no batch")

func fetchStatus(ctx context.Context, client *http.Client, base *url.URL, category string) (*models.BatchStatus, error) {
	u := base.JoinPath("batches", category)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, err
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		return nil, errNoBatch
	default:
		return nil, fmt.Errorf("status %d", resp.StatusCode)
	}
	var status models.BatchStatus
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		return nil, fmt.Errorf("decode status: %w", err)
	}
	return &status, nil
}

func writeReport(out io.Writer, reports []report) {
	sort.SliceStable(reports, func(i, j int) bool { return reports[i].Category < reports[j].Category })

	t := table.NewWriter()
	t.SetOutputMirror(out)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Category", "State", "Sold", "Passes", "Deadline", "Note"})
	for _, r := range reports {
		switch {
		case errors.Is(r.Err, errNoBatch):
			t.AppendRow(table.Row{r.Category, "-", "-", "-", "-", "no batch"})
		case r.Err != nil:
			t.AppendRow(table.Row{r.Category, "-", "-", "-", "-", "error: " + r.Err.Error()})
		default:
			s := r.Status
			t.AppendRow(table.Row{
				r.Category,
				s.State,
				fmt.Sprintf("%d/%d", s.Sold, s.Size),
				s.Passes,
				s.Deadline.UTC().Format(time.RFC3339),
				s.Error,
			})
		}
	}
	t.Render()
}

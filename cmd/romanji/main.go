package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/charmbracelet/lipgloss"
	"github.com/joho/godotenv"
	"github.com/jusunglee/romanji/internal/cache"
	"github.com/jusunglee/romanji/internal/db"
	"github.com/jusunglee/romanji/internal/db/dbconn"
	"github.com/jusunglee/romanji/internal/logger"
	"github.com/jusunglee/romanji/internal/romanji"
	"github.com/jusunglee/romanji/internal/romanji/tables"
	"github.com/peterbourgon/ff/v4"
	"github.com/peterbourgon/ff/v4/ffhelp"
	"golang.org/x/sync/errgroup"
)

func main() {
	if err := mainE(); err != nil {
		slog.Error("fatal", "error", err)
		os.Exit(1)
	}
}

func mainE() error {
	_ = godotenv.Load()

	fs := ff.NewFlagSet("romanji")
	var (
		inputPath   = fs.StringLong("input", "", "Input file (default stdin), one kana[\\tpart_of_speech[\\tpronunciation]] per line")
		tablesPath  = fs.StringLong("tables", "", "JSON tables file (default built-in Hepburn)")
		workers     = fs.Int64Long("workers", 4, "Number of concurrent conversions")
		databaseURL = fs.StringLong("database-url", "", "Optional cache database (sqlite:// path or PostgreSQL URL)")
		pretty      = fs.BoolLong("pretty", "Print styled kana → romanji pairs")
		checkTables = fs.BoolLong("check-tables", "Validate the tables and exit")
	)

	if err := ff.Parse(fs, os.Args[1:], ff.WithEnvVars()); err != nil {
		fmt.Printf("%s\n", ffhelp.Flags(fs))
		return fmt.Errorf("parsing flags: %w", err)
	}
	if *workers < 1 {
		return errors.New("workers must be at least 1")
	}

	log := logger.New()

	t, err := loadTables(*tablesPath)
	if err != nil {
		return err
	}
	if *checkTables {
		if err := t.Validate(); err != nil {
			return err
		}
		log.Info("tables are consistent", "conversions", len(t.Conversions), "max_key_width", t.MaxKeyWidth())
		return nil
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var repo db.Repository
	if *databaseURL != "" {
		repo, err = dbconn.Open(ctx, *databaseURL)
		if err != nil {
			return err
		}
		defer repo.Close()
	}

	in := io.Reader(os.Stdin)
	if *inputPath != "" {
		f, err := os.Open(*inputPath)
		if err != nil {
			return fmt.Errorf("opening input: %w", err)
		}
		defer f.Close()
		in = f
	}

	lines, err := readLines(in)
	if err != nil {
		return err
	}

	romanizer := cache.New(romanji.New(t), repo, log)
	results, err := convertAll(ctx, romanizer, lines, int(*workers))
	if err != nil {
		return err
	}

	w := bufio.NewWriter(os.Stdout)
	defer w.Flush()
	for i, res := range results {
		if *pretty {
			fmt.Fprintln(w, render(lines[i].text, res))
			continue
		}
		fmt.Fprintln(w, res)
	}
	return nil
}

func loadTables(path string) (tables.Tables, error) {
	if path == "" {
		return tables.Hepburn(), nil
	}
	return tables.Load(path)
}

type line struct {
	text string
	word romanji.Meta
}

// parseLine splits kana[\tpart_of_speech[\tpronunciation]].
func parseLine(s string) line {
	fields := strings.SplitN(s, "\t", 3)
	l := line{text: strings.TrimSpace(fields[0])}
	if len(fields) > 1 {
		l.word.POS = strings.TrimSpace(fields[1])
	}
	if len(fields) > 2 {
		l.word.Pronunciation = strings.TrimSpace(fields[2])
	}
	return l
}

func readLines(r io.Reader) ([]line, error) {
	var lines []line
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		lines = append(lines, parseLine(scanner.Text()))
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading input: %w", err)
	}
	return lines, nil
}

// convertAll romanizes lines concurrently and returns results in input order.
func convertAll(ctx context.Context, romanizer *cache.Romanizer, lines []line, workers int) ([]string, error) {
	results := make([]string, len(lines))

	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(workers)
	for i, l := range lines {
		if l.text == "" {
			continue
		}
		eg.Go(func() error {
			out, err := romanizer.Romanize(ctx, l.text, l.word)
			if err != nil {
				return fmt.Errorf("line %d: %w", i+1, err)
			}
			results[i] = out.Romanji
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, fmt.Errorf("converting input: %w", err)
	}
	return results, nil
}

var (
	kanaStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	arrowStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	romanjiStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("86"))
)

func render(kana, out string) string {
	return kanaStyle.Render(kana) + arrowStyle.Render(" → ") + romanjiStyle.Render(out)
}

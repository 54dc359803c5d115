// boardctl operates on a stored board from the command line: export it
// to JSON, CSV, Markdown or PDF, or seed it with AI-generated notes.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/collabboard/collabboard/internal/config"
	"github.com/collabboard/collabboard/pkg/ai"
	"github.com/collabboard/collabboard/pkg/board"
	"github.com/collabboard/collabboard/pkg/export"
	"github.com/collabboard/collabboard/pkg/models"
	"github.com/collabboard/collabboard/pkg/store"
	filestore "github.com/collabboard/collabboard/pkg/store/file"
	sqlitestore "github.com/collabboard/collabboard/pkg/store/sqlite"
)

func main() {
	cfg := config.Load()

	var (
		boardPath = flag.String("board", cfg.BoardPath, "path to the board file or database")
		backend   = flag.String("store", "file", "storage backend: file or sqlite")
		format    = flag.String("format", "", "export format: json, csv, md or pdf")
		out       = flag.String("out", "", "output file (defaults to stdout for text formats)")
		prompt    = flag.String("generate", "", "generate notes from this prompt via the AI service")
		count     = flag.Int("count", 3, "number of notes to generate")
		theme     = flag.String("theme", "", "theme for generated notes")
	)
	flag.Parse()

	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()

	st, err := openStore(*backend, *boardPath)
	if err != nil {
		log.Fatal().Err(err).Msg("opening store")
	}

	b := board.New(st, board.WithLogger(log))
	b.Load()

	if *prompt != "" {
		if err := generate(b, cfg, *prompt, *count, *theme); err != nil {
			if errors.Is(err, ai.ErrNotConfigured) {
				log.Fatal().Msg("set ANTHROPIC_API_KEY to use note generation")
			}
			log.Fatal().Err(err).Msg("note generation failed")
		}
	}

	if *format != "" {
		data, err := render(b.Snapshot(), *format)
		if err != nil {
			log.Fatal().Err(err).Msg("export failed")
		}
		if err := write(data, *out); err != nil {
			log.Fatal().Err(err).Msg("writing output")
		}
	}
}

func openStore(backend, path string) (store.Store, error) {
	switch backend {
	case "file":
		return filestore.New(path)
	case "sqlite":
		return sqlitestore.Open(path)
	default:
		return nil, fmt.Errorf("unknown store backend %q", backend)
	}
}

func generate(b *board.Board, cfg *config.Config, prompt string, count int, theme string) error {
	var opts []ai.Option
	if cfg.AIModel != "" {
		opts = append(opts, ai.WithModel(cfg.AIModel))
	}
	client := ai.NewClient(cfg.AnthropicAPIKey, opts...)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	texts, err := client.GenerateNotes(ctx, prompt, count, theme)
	if err != nil {
		return err
	}

	noteTheme := theme
	if noteTheme == "" {
		noteTheme = "Ideas"
	}
	for i, text := range texts {
		pos := models.Position{X: float64(100 + i*40), Y: float64(100 + i*40)}
		b.CreateNote(text, pos, "#FFEAA7", noteTheme, models.AuthorAI, "AI Assistant")
	}
	return nil
}

func render(snap models.Snapshot, format string) ([]byte, error) {
	now := time.Now()
	switch strings.ToLower(format) {
	case "json":
		return export.JSON(snap, now)
	case "csv":
		return export.CSV(snap.Notes)
	case "md", "markdown":
		return export.Markdown(snap, now), nil
	case "pdf":
		return export.PDF(snap, now)
	default:
		return nil, fmt.Errorf("unknown export format %q", format)
	}
}

func write(data []byte, out string) error {
	if out == "" {
		_, err := os.Stdout.Write(data)
		return err
	}
	return os.WriteFile(out, data, 0o644)
}

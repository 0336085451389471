package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/kailas-cloud/booksearch/internal/domain/book"
	bookrepo "github.com/kailas-cloud/booksearch/internal/repository/book"
)

func newSeedCmd(opts *rootOptions) *cobra.Command {
	var (
		file     string
		recreate bool
	)
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Create the book index and load sample books",
		Long: `seed creates the book index when missing and bulk-indexes books.
Without --file the built-in sample catalogue is used. The file is a YAML
(or JSON) list of books with title, authors, summary, publisher,
num_reviews and publish_date.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := opts.load()
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			books := book.Samples()
			if file != "" {
				if books, err = loadBooks(file); err != nil {
					return err
				}
			}

			eng, err := openEngine(cmd, cfg.Engine, logger)
			if err != nil {
				return err
			}
			defer eng.store.Close()

			repo := bookrepo.New(eng.store, cfg.Engine.Index)
			if recreate {
				dropped, err := repo.DropIndex(cmd.Context())
				if err != nil {
					return fmt.Errorf("drop index: %w", err)
				}
				logger.Info("Dropped index", zap.String("index", repo.Index()), zap.Bool("existed", dropped))
			}
			if _, err := repo.EnsureIndex(cmd.Context(), cfg.Engine.Shards, cfg.Engine.Replicas); err != nil {
				return fmt.Errorf("ensure index: %w", err)
			}
			ids, err := repo.Seed(cmd.Context(), books)
			if err != nil {
				return fmt.Errorf("seed: %w", err)
			}

			logger.Info("Seeded books", zap.String("index", repo.Index()), zap.Int("count", len(ids)))
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "indexed %d books into %s\n", len(ids), repo.Index())
			return err
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "YAML or JSON file with a list of books")
	cmd.Flags().BoolVar(&recreate, "recreate", false, "drop the index before seeding")
	return cmd
}

// loadBooks reads a list of books. Each book is validated before anything is sent to the engine.
func loadBooks(path string) ([]book.Book, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("read books file: %w", err)
	}
	var books []book.Book
	if err := yaml.Unmarshal(data, &books); err != nil {
		return nil, fmt.Errorf("parse books file %s: %w", path, err)
	}
	if len(books) == 0 {
		return nil, fmt.Errorf("books file %s is empty", path)
	}
	for i := range books {
		if err := books[i].Validate(); err != nil {
			return nil, fmt.Errorf("book %d: %w", i, err)
		}
	}
	return books, nil
}

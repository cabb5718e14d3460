package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/nikhilbhutani/wordcount/internal/occurrence"
	"github.com/nikhilbhutani/wordcount/pkg/textextract"
)

func countCmd(g *globalFlags) *cobra.Command {
	var (
		text        string
		file        string
		word        string
		parallelism int
		asJSON      bool
	)

	cmd := &cobra.Command{
		Use:   "count",
		Short: "Count exact occurrences of a word in a text or document",
		Example: `  wordcount count --word sono --text "e sono un informatico e sono nato"
  wordcount count --word Napoli --file notes.pdf --parallelism 4`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if (text == "") == (file == "") {
				return errors.New("exactly one of --text or --file is required")
			}
			if file != "" {
				var err error
				if text, err = readDocument(file); err != nil {
					return err
				}
			}

			cfg, logger, err := g.setup()
			if err != nil {
				return err
			}
			defer logger.Sync()

			if parallelism == 0 {
				parallelism = cfg.Counter.Parallelism
			}
			counter := occurrence.NewCounter(
				occurrence.WithParallelism(parallelism),
				occurrence.WithLogger(logger),
			)

			res, err := counter.Count(text, word)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(struct {
					Word string `json:"word"`
					occurrence.Result
				}{word, res})
			}
			fmt.Fprintf(out, "%s: %d\n", word, res.Count)
			return nil
		},
	}

	cmd.Flags().StringVar(&text, "text", "", "Text to search")
	cmd.Flags().StringVarP(&file, "file", "f", "", "Document to search (.pdf, .docx, .txt)")
	cmd.Flags().StringVarP(&word, "word", "w", "", "Word to count")
	cmd.Flags().IntVarP(&parallelism, "parallelism", "p", 0, "Worker count hint (default: available CPUs)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the full result as JSON")
	_ = cmd.MarkFlagRequired("word")

	return cmd
}

func readDocument(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read document: %w", err)
	}
	doc, err := textextract.Extract(bytes.NewReader(data), int64(len(data)), filepath.Ext(path))
	if err != nil {
		return "", fmt.Errorf("extract %s: %w", filepath.Base(path), err)
	}
	return doc.Content, nil
}

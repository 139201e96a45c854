package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
)

var (
	ingestSource string
	ingestMeta   []string
)

var ingestCmd = &cobra.Command{
	Use:   "ingest [file]",
	Short: "Ingest a document into the owner's collection",
	Long: `Reads a document, splits it into overlapping chunks, embeds each
chunk and stores them in the owner's collection. Pass "-" to read from
standard input. Re-ingesting adds chunks; it never replaces earlier ones.`,
	Args: cobra.ExactArgs(1),
	RunE: runIngest,
}

func init() {
	ingestCmd.Flags().StringVarP(&ingestSource, "source", "s", "", "source label stored with each chunk (default: file name)")
	ingestCmd.Flags().StringArrayVarP(&ingestMeta, "meta", "m", nil, "extra metadata as key=value (repeatable)")
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	if retrievalService == nil {
		return errors.New("retrieval service not configured")
	}

	path := args[0]
	text, source, err := readDocument(cmd, path)
	if err != nil {
		return err
	}
	if ingestSource != "" {
		source = ingestSource
	}

	metadata, err := parseMetadata(ingestMeta)
	if err != nil {
		return err
	}

	count, err := retrievalService.Ingest(context.Background(), ownerID, text, source, metadata)
	if err != nil {
		return fmt.Errorf("ingest failed: %w", err)
	}

	cmd.Printf("Ingested %d chunks from %s into collection %q.\n", count, source, ownerID)
	return nil
}

// readDocument loads the document from path, or stdin when path is "-".
func readDocument(cmd *cobra.Command, path string) (text, source string, err error) {
	if path == "-" {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return "", "", fmt.Errorf("failed to read stdin: %w", err)
		}
		return string(data), "stdin", nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", "", fmt.Errorf("failed to read %s: %w", path, err)
	}
	return string(data), filepath.Base(path), nil
}

// parseMetadata converts repeated key=value flags into a map.
func parseMetadata(pairs []string) (map[string]string, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	metadata := make(map[string]string, len(pairs))
	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid metadata %q, expected key=value", pair)
		}
		metadata[key] = value
	}
	return metadata, nil
}

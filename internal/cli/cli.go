// Package cli implements ragctl, a terminal front end to the indexing and
// answering pipeline.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"pdfchat/internal/app"
)

type Indexer interface {
	Index(ctx context.Context, path string) (int, error)
}

type Answerer interface {
	Answer(ctx context.Context, query string, topK int) *app.AnswerStream
	AnswerOnce(ctx context.Context, query string, topK int) string
}

// Runtime is what the commands operate on. Close may be nil.
type Runtime struct {
	Indexer  Indexer
	Answerer Answerer
	TopK     int
	Close    func() error
}

// Opener builds the runtime lazily so --help works without credentials.
type Opener func(ctx context.Context) (*Runtime, error)

func NewRootCommand(open Opener) *cobra.Command {
	root := &cobra.Command{
		Use:           "ragctl",
		Short:         "Index PDFs and ask questions about them",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newIndexCommand(open), newAskCommand(open))
	return root
}

func newIndexCommand(open Opener) *cobra.Command {
	return &cobra.Command{
		Use:   "index <file.pdf>",
		Short: "Replace the collection with the chunks of one PDF",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRuntime(cmd.Context(), open, func(rt *Runtime) error {
				n, err := rt.Indexer.Index(cmd.Context(), args[0])
				if err != nil {
					return fmt.Errorf("index %s failed: %w", args[0], err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "indexed %d chunks from %s\n", n, args[0])
				return nil
			})
		},
	}
}

func newAskCommand(open Opener) *cobra.Command {
	var (
		noStream bool
		topK     int
	)
	cmd := &cobra.Command{
		Use:   "ask <query...>",
		Short: "Answer a question from the indexed document",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			query := strings.TrimSpace(strings.Join(args, " "))
			if query == "" {
				return errors.New("query must not be empty")
			}
			return withRuntime(cmd.Context(), open, func(rt *Runtime) error {
				k := topK
				if k <= 0 {
					k = rt.TopK
				}
				out := cmd.OutOrStdout()
				if noStream {
					fmt.Fprintln(out, rt.Answerer.AnswerOnce(cmd.Context(), query, k))
					return nil
				}
				return streamAnswer(out, rt.Answerer.Answer(cmd.Context(), query, k))
			})
		},
	}
	cmd.Flags().BoolVar(&noStream, "no-stream", false, "wait for the full answer instead of streaming")
	cmd.Flags().IntVar(&topK, "top-k", 0, "number of chunks to retrieve (default from config)")
	return cmd
}

func streamAnswer(w io.Writer, stream *app.AnswerStream) error {
	defer stream.Close()
	for {
		frag, ok := stream.Next()
		if !ok {
			break
		}
		if _, err := io.WriteString(w, frag); err != nil {
			return err
		}
	}
	_, err := io.WriteString(w, "\n")
	return err
}

func withRuntime(ctx context.Context, open Opener, fn func(*Runtime) error) error {
	if ctx == nil {
		ctx = context.Background()
	}
	rt, err := open(ctx)
	if err != nil {
		return err
	}
	if rt.Close != nil {
		defer rt.Close()
	}
	return fn(rt)
}

package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/pep299/comment-sentiment-analyzer/internal/config"
	"github.com/pep299/comment-sentiment-analyzer/internal/handlers"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// run returns the process exit code so deferred cleanup always executes
func run(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("cli", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var (
		maxComments  = fs.Int("max", 0, "maximum number of comments to analyse (default from DEFAULT_MAX_COMMENTS)")
		primary      = fs.Bool("primary", true, "include top-level comments")
		replies      = fs.Bool("replies", true, "include replies")
		instructions = fs.String("instructions", "", "custom analysis instructions")
		notify       = fs.Bool("slack", false, "post the run summary to Slack")
	)
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "Usage: %s [flags] <video-url>\n", os.Args[0])
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return 2
	}

	if fs.NArg() != 1 {
		fs.Usage()
		return 2
	}

	cfg, err := config.Load()
	if err != nil {
		log.Printf("Failed to load configuration: %v", err)
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	server, err := handlers.NewServer(ctx, cfg)
	if err != nil {
		log.Printf("Failed to create server: %v", err)
		return 1
	}
	defer server.Close()

	result, err := server.Analyze(ctx, handlers.AnalyzeRequest{
		VideoURL:       fs.Arg(0),
		MaxComments:    *maxComments,
		IncludePrimary: primary,
		IncludeReplies: replies,
		Instructions:   *instructions,
		NotifySlack:    *notify,
	})
	if result != nil {
		for _, reason := range result.Report.Reasons {
			log.Printf("note: %s", reason)
		}
	}
	if err != nil {
		log.Printf("Analysis failed: %v", err)
		return 1
	}

	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(result); err != nil {
		log.Printf("Failed to write run: %v", err)
		return 1
	}
	return 0
}

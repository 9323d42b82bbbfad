// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/poiesic/ruleforge"
	"github.com/poiesic/ruleforge/ai"
	"github.com/poiesic/ruleforge/core"
	"github.com/poiesic/ruleforge/pipeline"
	"github.com/poiesic/ruleforge/storage"
	"github.com/poiesic/ruleforge/storage/badger"
	"github.com/urfave/cli/v2"
)

func main() {
	dbFlag := &cli.StringFlag{
		Name:     "db",
		Aliases:  []string{"d"},
		Usage:    "Path to BadgerDB database directory",
		Required: true,
	}

	aiFlags := []cli.Flag{
		&cli.StringFlag{
			Name:  "host",
			Usage: "OpenAI-compatible service host URL",
			Value: "http://localhost:11434/v1",
		},
		&cli.StringFlag{
			Name:  "summary-model",
			Usage: "Model name for summarization",
			Value: "qwen2.5:3b",
		},
		&cli.StringFlag{
			Name:  "rule-model",
			Usage: "Model name for rule extraction",
			Value: "qwen2.5:3b",
		},
		&cli.IntFlag{
			Name:  "max-summary-words",
			Usage: "Maximum number of words in a summary",
			Value: 200,
		},
		&cli.Float64Flag{
			Name:  "min-confidence",
			Usage: "Minimum confidence for extracted rules (0-1)",
			Value: 0.5,
		},
	}

	app := &cli.App{
		Name:  "ruleforge",
		Usage: "Document pipeline for contract summarization and rule extraction",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
			},
		},
		Before: setupLogger,
		Commands: []*cli.Command{
			{
				Name:      "upload",
				Usage:     "Upload a document and run it through the pipeline",
				ArgsUsage: "<file>",
				Action:    uploadCommand,
				Flags: append([]cli.Flag{
					dbFlag,
					&cli.StringFlag{
						Name:  "media-type",
						Usage: "Media type of the document (inferred from the file extension when omitted)",
					},
					&cli.StringFlag{
						Name:  "type",
						Usage: "Document type (contract, policy)",
						Value: string(core.DocumentTypeContract),
					},
				}, aiFlags...),
			},
			{
				Name:      "submit",
				Usage:     "Queue an already-uploaded document and wait for it to finish",
				ArgsUsage: "<id>",
				Action:    submitCommand,
				Flags:     append([]cli.Flag{dbFlag}, aiFlags...),
			},
			{
				Name:      "process",
				Usage:     "Run a pending or retrying document through the pipeline",
				ArgsUsage: "<id>",
				Action:    processCommand,
				Flags:     append([]cli.Flag{dbFlag}, aiFlags...),
			},
			{
				Name:      "resubmit",
				Usage:     "Restart a document's pipeline from extraction",
				ArgsUsage: "<id>",
				Action:    resubmitCommand,
				Flags:     append([]cli.Flag{dbFlag}, aiFlags...),
			},
			{
				Name:      "cancel",
				Usage:     "Cancel a document's pipeline",
				ArgsUsage: "<id>",
				Action:    cancelCommand,
				Flags:     []cli.Flag{dbFlag},
			},
			{
				Name:      "status",
				Usage:     "Show a document's pipeline status",
				ArgsUsage: "<id>",
				Action:    statusCommand,
				Flags:     []cli.Flag{dbFlag},
			},
			{
				Name:   "list",
				Usage:  "List documents",
				Action: listCommand,
				Flags: []cli.Flag{
					dbFlag,
					&cli.IntFlag{
						Name:  "limit",
						Usage: "Maximum number of documents to list (0 for all)",
						Value: 0,
					},
				},
			},
			{
				Name:      "summary",
				Usage:     "Print a document's current summary",
				ArgsUsage: "<id>",
				Action:    summaryCommand,
				Flags:     []cli.Flag{dbFlag},
			},
			{
				Name:      "rules",
				Usage:     "Print a document's current rule set",
				ArgsUsage: "<id>",
				Action:    rulesCommand,
				Flags:     []cli.Flag{dbFlag},
			},
			{
				Name:      "runs",
				Usage:     "Print a document's run ledger",
				ArgsUsage: "<id>",
				Action:    runsCommand,
				Flags: []cli.Flag{
					dbFlag,
					&cli.StringFlag{
						Name:  "stage",
						Usage: "Filter by stage (extract, summarize, rules)",
					},
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func setupLogger(c *cli.Context) error {
	levelStr := strings.ToLower(c.String("log-level"))

	var level slog.Level
	switch levelStr {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return fmt.Errorf("invalid log level %q: must be one of debug, info, warn, error", levelStr)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	return nil
}

// newService builds the full pipeline service from the command's flags.
func newService(c *cli.Context) (*ruleforge.Service, error) {
	aiConfig := ai.NewConfig(
		ai.WithHost(c.String("host")),
		ai.WithSummarizerModel(c.String("summary-model")),
		ai.WithRuleModel(c.String("rule-model")),
		ai.WithMaxSummaryWords(c.Int("max-summary-words")),
		ai.WithMinConfidence(c.Float64("min-confidence")),
	)
	if err := aiConfig.Validate(); err != nil {
		return nil, fmt.Errorf("invalid AI configuration: %w", err)
	}

	return ruleforge.NewService(c.String("db"), ruleforge.WithAIConfig(aiConfig))
}

// openStore opens the database for inspection commands that need no AI
// providers or worker pool.
func openStore(c *cli.Context) (*badger.Backend, storage.PipelineStore, error) {
	backend, err := badger.OpenBackend(c.String("db"), false)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open database: %w", err)
	}

	store, err := badger.NewPipelineStore(backend)
	if err != nil {
		backend.Close()
		return nil, nil, fmt.Errorf("failed to open pipeline store: %w", err)
	}

	return backend, store, nil
}

func documentID(c *cli.Context) (core.ID, error) {
	if c.NArg() != 1 {
		return 0, fmt.Errorf("expected exactly one document ID argument")
	}

	id, err := strconv.ParseUint(c.Args().First(), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid document ID %q: %w", c.Args().First(), err)
	}

	return core.ID(id), nil
}

// inferMediaType maps common document file extensions to their media type.
func inferMediaType(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".txt":
		return "text/plain"
	case ".md":
		return "text/markdown"
	case ".pdf":
		return "application/pdf"
	case ".docx":
		return "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	default:
		return ""
	}
}

func uploadCommand(c *cli.Context) error {
	ctx := context.Background()

	if c.NArg() != 1 {
		return fmt.Errorf("expected exactly one file argument")
	}
	path := c.Args().First()

	mediaType := c.String("media-type")
	if mediaType == "" {
		mediaType = inferMediaType(path)
	}
	if mediaType == "" {
		return fmt.Errorf("cannot infer media type for %q: pass --media-type", path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read file: %w", err)
	}

	svc, err := newService(c)
	if err != nil {
		return err
	}
	defer svc.Close()

	doc, err := svc.Upload(ctx, ruleforge.UploadRequest{
		Filename:  filepath.Base(path),
		MediaType: mediaType,
		Type:      core.DocumentType(c.String("type")),
		Data:      data,
	})
	if errors.Is(err, storage.ErrDuplicateKey) {
		fmt.Fprintf(os.Stderr, "Document already uploaded as ID %d\n", doc.Id)
	} else if err != nil {
		return fmt.Errorf("upload failed: %w", err)
	}

	fmt.Fprintf(os.Stderr, "Uploaded document %d (%s, %d bytes)\n", doc.Id, doc.MediaType, doc.ByteSize)

	doc, err = svc.ProcessDocument(ctx, doc.Id)
	if err != nil {
		return fmt.Errorf("processing failed: %w", err)
	}

	printDocument(doc)
	return nil
}

func submitCommand(c *cli.Context) error {
	ctx := context.Background()

	id, err := documentID(c)
	if err != nil {
		return err
	}

	svc, err := newService(c)
	if err != nil {
		return err
	}
	defer svc.Close()

	outcome, doc, err := svc.Submit(ctx, id)
	if err != nil {
		return fmt.Errorf("submit failed: %w", err)
	}
	fmt.Fprintf(os.Stderr, "Submit: %s\n", outcome)

	if outcome == pipeline.SubmitAlreadyCompleted {
		printDocument(doc)
		return nil
	}

	doc, err = svc.ProcessDocument(ctx, id)
	if err != nil {
		return fmt.Errorf("processing failed: %w", err)
	}

	printDocument(doc)
	return nil
}

func processCommand(c *cli.Context) error {
	ctx := context.Background()

	id, err := documentID(c)
	if err != nil {
		return err
	}

	svc, err := newService(c)
	if err != nil {
		return err
	}
	defer svc.Close()

	doc, err := svc.ProcessDocument(ctx, id)
	if err != nil {
		return fmt.Errorf("processing failed: %w", err)
	}

	printDocument(doc)
	return nil
}

func resubmitCommand(c *cli.Context) error {
	ctx := context.Background()

	id, err := documentID(c)
	if err != nil {
		return err
	}

	svc, err := newService(c)
	if err != nil {
		return err
	}
	defer svc.Close()

	doc, err := svc.Resubmit(ctx, id)
	if err != nil {
		return fmt.Errorf("resubmit failed: %w", err)
	}
	fmt.Fprintf(os.Stderr, "Resubmitted document %d as sequence %d\n", doc.Id, doc.Sequence)

	doc, err = svc.ProcessDocument(ctx, id)
	if err != nil {
		return fmt.Errorf("processing failed: %w", err)
	}

	printDocument(doc)
	return nil
}

func cancelCommand(c *cli.Context) error {
	ctx := context.Background()

	id, err := documentID(c)
	if err != nil {
		return err
	}

	backend, store, err := openStore(c)
	if err != nil {
		return err
	}
	defer backend.Close()
	defer store.Close()

	doc, err := store.CancelDocument(ctx, id)
	if errors.Is(err, storage.ErrStaleCommit) {
		return fmt.Errorf("document %d is already terminal", id)
	}
	if err != nil {
		return fmt.Errorf("cancel failed: %w", err)
	}

	printDocument(doc)
	return nil
}

func statusCommand(c *cli.Context) error {
	ctx := context.Background()

	id, err := documentID(c)
	if err != nil {
		return err
	}

	backend, store, err := openStore(c)
	if err != nil {
		return err
	}
	defer backend.Close()
	defer store.Close()

	doc, err := store.GetDocument(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to load document: %w", err)
	}

	printDocument(doc)
	return nil
}

func listCommand(c *cli.Context) error {
	ctx := context.Background()

	backend, store, err := openStore(c)
	if err != nil {
		return err
	}
	defer backend.Close()
	defer store.Close()

	docs, err := store.ListDocuments(ctx, c.Int("limit"))
	if err != nil {
		return fmt.Errorf("failed to list documents: %w", err)
	}

	for _, doc := range docs {
		fmt.Printf("%d\t%s\t%s\tseq=%d\t%s\n", doc.Id, doc.Status, doc.Filename, doc.Sequence, doc.MediaType)
	}

	return nil
}

func summaryCommand(c *cli.Context) error {
	ctx := context.Background()

	id, err := documentID(c)
	if err != nil {
		return err
	}

	backend, store, err := openStore(c)
	if err != nil {
		return err
	}
	defer backend.Close()
	defer store.Close()

	summary, err := store.GetCurrentSummary(ctx, id)
	if errors.Is(err, storage.ErrNotFound) {
		if _, docErr := store.GetDocument(ctx, id); docErr != nil {
			return fmt.Errorf("document %d not found", id)
		}
		return fmt.Errorf("document %d has no summary yet", id)
	}
	if err != nil {
		return fmt.Errorf("failed to load summary: %w", err)
	}

	fmt.Fprintf(os.Stderr, "Summary for document %d (sequence %d, provider %s):\n", summary.DocumentId, summary.Sequence, summary.Provider)
	fmt.Println(summary.Text)
	return nil
}

func rulesCommand(c *cli.Context) error {
	ctx := context.Background()

	id, err := documentID(c)
	if err != nil {
		return err
	}

	backend, store, err := openStore(c)
	if err != nil {
		return err
	}
	defer backend.Close()
	defer store.Close()

	rules, err := store.GetCurrentRuleSet(ctx, id)
	if errors.Is(err, storage.ErrNotFound) {
		if _, docErr := store.GetDocument(ctx, id); docErr != nil {
			return fmt.Errorf("document %d not found", id)
		}
		return fmt.Errorf("document %d has no rule set yet", id)
	}
	if err != nil {
		return fmt.Errorf("failed to load rule set: %w", err)
	}

	fmt.Fprintf(os.Stderr, "Rules for document %d (sequence %d, provider %s):\n", rules.DocumentId, rules.Sequence, rules.Provider)
	for _, rule := range rules.Rules {
		fmt.Printf("[%s] (%.2f) %s\n", rule.Category, rule.Confidence, rule.Text)
	}
	return nil
}

func runsCommand(c *cli.Context) error {
	ctx := context.Background()

	id, err := documentID(c)
	if err != nil {
		return err
	}

	var stage core.Stage
	switch strings.ToLower(c.String("stage")) {
	case "":
		// all stages
	case "extract":
		stage = core.StageExtract
	case "summarize":
		stage = core.StageSummarize
	case "rules":
		stage = core.StageRules
	default:
		return fmt.Errorf("invalid stage %q: must be one of extract, summarize, rules", c.String("stage"))
	}

	backend, store, err := openStore(c)
	if err != nil {
		return err
	}
	defer backend.Close()
	defer store.Close()

	runs, err := store.ListRuns(ctx, id, stage)
	if err != nil {
		return fmt.Errorf("failed to list runs: %w", err)
	}

	for _, run := range runs {
		line := fmt.Sprintf("seq=%d\t%s\tattempt=%d\t%s", run.Sequence, run.Stage, run.Attempt, run.Outcome)
		if run.Error != "" {
			line += "\t" + run.Error
		}
		fmt.Println(line)
	}
	return nil
}

func printDocument(doc *core.Document) {
	fmt.Printf("ID:        %d\n", doc.Id)
	fmt.Printf("Filename:  %s\n", doc.Filename)
	fmt.Printf("Type:      %s (%s)\n", doc.Type, doc.MediaType)
	fmt.Printf("Status:    %s\n", doc.Status)
	fmt.Printf("Sequence:  %d\n", doc.Sequence)
	if doc.LastError != "" {
		fmt.Printf("LastError: %s\n", doc.LastError)
	}
}

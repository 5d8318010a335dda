// Command chiron runs the adaptive learning workflow: subject management,
// curriculum design, research, assessment, and lessons, with an optional
// websocket tool endpoint.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"strings"

	chiron "github.com/chiron-labs/go-chiron"
	"github.com/chiron-labs/go-chiron/src/config"
	"github.com/chiron-labs/go-chiron/src/embed"
	"github.com/chiron-labs/go-chiron/src/models"
	"github.com/chiron-labs/go-chiron/src/orchestrator"
	"github.com/chiron-labs/go-chiron/src/storage"
	"github.com/chiron-labs/go-chiron/src/tools"
	"github.com/chiron-labs/go-chiron/src/toolserver"
)

func main() {
	serve := flag.Bool("serve", false, "also expose the tool registry over websocket")
	verbose := flag.Bool("verbose", false, "debug logging")
	flag.Parse()

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	if err := cfg.EnsureDirectories(); err != nil {
		log.Fatalf("prepare data dir: %v", err)
	}

	ctx := context.Background()

	stores, cleanup, err := openStores(ctx, cfg)
	if err != nil {
		log.Fatalf("open stores: %v", err)
	}
	defer cleanup()

	registry := chiron.NewRegistry()
	if err := tools.RegisterAll(registry); err != nil {
		log.Fatalf("register tools: %v", err)
	}

	model, err := models.NewProvider(ctx, cfg.Provider)
	if err != nil {
		log.Fatalf("create model client: %v", err)
	}

	o, err := orchestrator.New(orchestrator.Options{
		Model:      model,
		Registry:   registry,
		Stores:     stores,
		ModelName:  cfg.Model,
		MaxTokens:  cfg.MaxTokens,
		MaxWorkers: cfg.MaxWorkers,
		Logger:     logger,
	})
	if err != nil {
		log.Fatalf("create orchestrator: %v", err)
	}

	if *serve {
		executor := chiron.NewExecutor(registry, stores)
		srv := toolserver.New(executor, logger)
		go func() {
			if err := srv.ListenAndServe(ctx, cfg.ServerAddr); err != nil {
				logger.Error("tool endpoint failed", "error", err)
			}
		}()
	}

	repl(ctx, o)
}

// openStores picks the backing stores from configuration: Postgres plus
// pgvector when a DSN is set, Mongo for vectors when a URI is set, otherwise
// everything in memory.
func openStores(ctx context.Context, cfg *config.Config) (*chiron.Stores, func(), error) {
	embedder := embed.FromEnv()

	if cfg.PostgresDSN != "" {
		db, err := storage.NewPostgres(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, nil, err
		}
		if err := db.CreateSchema(ctx, ""); err != nil {
			db.Close()
			return nil, nil, err
		}
		vectors := storage.NewPgVectorFromPool(db.DB, embedder)
		if err := vectors.CreateSchema(ctx); err != nil {
			db.Close()
			return nil, nil, err
		}
		return &chiron.Stores{DB: db, Vectors: vectors}, func() { db.Close() }, nil
	}

	db := storage.NewMemDB()
	if cfg.MongoURI != "" {
		vectors, err := storage.NewMongoVector(ctx, cfg.MongoURI, cfg.MongoDB, cfg.MongoColl, embedder)
		if err != nil {
			return nil, nil, err
		}
		return &chiron.Stores{DB: db, Vectors: vectors}, func() { _ = vectors.Close() }, nil
	}
	return &chiron.Stores{DB: db, Vectors: storage.NewMemVector(embedder)}, func() {}, nil
}

const usage = `Commands:
  init <subject> <purpose...>   create a learning goal and make it active
  subjects                      list subjects
  use <subject>                 switch the active subject
  delete <subject>              delete a subject and all of its data
  curriculum                    start curriculum design for the active subject
  research <topic> [topic...]   research topics (parallel, one session each)
  lesson                        start a pre-lesson assessment
  generate                      generate a lesson from the assessment
  state                         show the workflow state
  quit`

func repl(ctx context.Context, o *orchestrator.Orchestrator) {
	fmt.Println("chiron ready. Type 'help' for commands.")
	scanner := bufio.NewScanner(os.Stdin)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	assessing := false

	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			return
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		fields := strings.Fields(line)
		cmd, args := fields[0], fields[1:]

		var out string
		var err error
		switch cmd {
		case "help":
			fmt.Println(usage)
			continue
		case "quit", "exit":
			return
		case "state":
			fmt.Println(o.State())
			continue
		case "init":
			if len(args) < 2 {
				fmt.Println("usage: init <subject> <purpose...>")
				continue
			}
			_, err = o.InitializeSubject(ctx, args[0], strings.Join(args[1:], " "))
			out = "subject initialized: " + args[0]
		case "subjects":
			goals, listErr := o.ListSubjects(ctx)
			if listErr != nil {
				err = listErr
				break
			}
			for _, g := range goals {
				fmt.Printf("  %s (%s) - %s\n", g.SubjectID, g.Status, g.PurposeStatement)
			}
			continue
		case "use":
			if len(args) != 1 {
				fmt.Println("usage: use <subject>")
				continue
			}
			err = o.SetActiveSubject(ctx, args[0])
			out = "active subject: " + args[0]
		case "delete":
			if len(args) != 1 {
				fmt.Println("usage: delete <subject>")
				continue
			}
			existed, delErr := o.DeleteSubject(ctx, args[0])
			if delErr != nil {
				err = delErr
				break
			}
			if !existed {
				fmt.Println("no such subject: " + args[0])
				continue
			}
			out = "subject deleted: " + args[0]
		case "curriculum":
			out, err = o.StartCurriculumDesign(ctx)
		case "research":
			if len(args) == 0 {
				fmt.Println("usage: research <topic> [topic...]")
				continue
			}
			subject, subErr := o.ActiveSubject(ctx)
			if subErr != nil || subject == "" {
				fmt.Println("no active subject")
				continue
			}
			results, resErr := o.ResearchTopics(ctx, subject, args)
			if resErr != nil {
				err = resErr
				break
			}
			for _, r := range results {
				if r.Err != nil {
					fmt.Printf("  %s: failed: %v\n", r.TopicPath, r.Err)
					continue
				}
				fmt.Printf("  %s:\n%s\n", r.TopicPath, r.Report)
			}
			continue
		case "lesson":
			out, err = o.StartLesson(ctx)
			assessing = err == nil
		case "generate":
			out, err = o.GenerateLesson(ctx)
			assessing = false
		default:
			// During an assessment, free text is the learner's answer;
			// during curriculum design it is feedback.
			if assessing {
				out, err = o.ContinueAssessment(ctx, line)
			} else {
				out, err = o.ContinueCurriculumDesign(ctx, line)
			}
		}

		if err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			continue
		}
		if out != "" {
			fmt.Println(out)
		}
	}
}

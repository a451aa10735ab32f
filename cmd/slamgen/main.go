package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/goliatone/go-slamgen"
	"github.com/goliatone/go-slamgen/internal/config"
	"github.com/goliatone/go-slamgen/internal/prompt"
	"github.com/goliatone/go-slamgen/internal/server"
	"github.com/goliatone/go-slamgen/pkg/orchestrator"
)

func main() {
	configPath := flag.String("config", "", "sample definition file or directory (JSON or YAML)")
	engine := flag.String("engine", "", "template engine (native, pongo2); overrides the definition file")
	outDir := flag.String("o", "", "output directory (default <sample>-frames)")
	stdout := flag.Bool("stdout", false, "print scripts instead of writing files")
	interactive := flag.Bool("interactive", false, "prompt for a sample definition")
	serve := flag.String("serve", "", "listen address for the HTTP API, e.g. :8080")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	gen := orchestrator.New()

	switch {
	case *serve != "":
		runServer(ctx, gen, *serve)
	case *interactive:
		answers, err := prompt.Ask(ctx, prompt.NewSurveyDriver(), gen.Engines())
		if errors.Is(err, prompt.ErrAborted) {
			log.Println("aborted")
			return
		}
		if err != nil {
			log.Fatalf("Failed to read sample: %v", err)
		}
		name := *engine
		if name == "" {
			name = answers.Engine
		}
		emit(ctx, gen, answers.Sample, name, *outDir, *stdout)
	case *configPath != "":
		files, err := loadDefinitions(*configPath)
		if err != nil {
			log.Fatalf("Failed to load definitions: %v", err)
		}
		for _, file := range files {
			name := *engine
			if name == "" {
				name = file.Engine
			}
			dir := *outDir
			if dir == "" {
				dir = file.OutputDir
			}
			for _, opts := range file.SampleList() {
				emit(ctx, gen, opts, name, dir, *stdout)
			}
		}
	default:
		flag.Usage()
		os.Exit(2)
	}
}

func loadDefinitions(path string) ([]config.File, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if info.IsDir() {
		return config.LoadFS(os.DirFS(path))
	}
	file, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	return []config.File{file}, nil
}

func emit(ctx context.Context, gen *orchestrator.Orchestrator, opts slamgen.SampleOptions, engine, dir string, toStdout bool) {
	if toStdout {
		out, err := gen.Generate(ctx, orchestrator.Request{Sample: &opts, Engine: engine})
		if err != nil {
			log.Fatalf("Failed to generate script for %s: %v", opts.Name, err)
		}
		fmt.Print(string(out))
		return
	}

	path, err := slamgen.WriteScript(ctx, dir, opts, engine, orchestrator.WithRegistry(gen.Registry()))
	if err != nil {
		log.Fatalf("Failed to write script for %s: %v", opts.Name, err)
	}
	fmt.Printf("Script written to %s\n", path)
}

func runServer(ctx context.Context, gen *orchestrator.Orchestrator, addr string) {
	srv := &http.Server{
		Addr:              addr,
		Handler:           server.New(gen, log.Default()).Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	log.Printf("slamgen listening on %s (engines: %v)", addr, gen.Engines())
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatalf("Server failed: %v", err)
	}
}

// llm-cli runs one generation against the configured LLM provider without
// a database. Useful for tuning prompts and document types.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"lisa/internal/config"
	"lisa/internal/doctypes"
	"lisa/internal/domain/models"
	"lisa/internal/domain/services"
	"lisa/internal/drive"
	serviceLLM "lisa/internal/service/llm"
)

// ANSI color codes
const (
	colorReset  = "\033[0m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorCyan   = "\033[36m"
)

type folderList []string

func (f *folderList) String() string     { return strings.Join(*f, ",") }
func (f *folderList) Set(v string) error { *f = append(*f, v); return nil }

func main() {
	var folders folderList
	docType := flag.String("type", "", "Document type id (see catalog)")
	promptFile := flag.String("prompt-file", "", "File holding the combined prompt (optional)")
	verbose := flag.Bool("v", false, "Debug logging")
	flag.Var(&folders, "folder", "Google Drive folder id (repeatable)")
	flag.Parse()

	_ = godotenv.Load()
	cfg := config.Load()

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	catalog, err := doctypes.NewCatalog()
	if err != nil {
		log.Fatalf("Failed to load catalog: %v", err)
	}
	if *docType == "" {
		fmt.Println("Available document types:")
		for _, t := range catalog.List() {
			fmt.Printf("  %s%-20s%s %s\n", colorCyan, t.ID, colorReset, t.DisplayName)
		}
		return
	}
	dt, err := catalog.Get(models.DocumentType(*docType))
	if err != nil {
		log.Fatalf("%v", err)
	}

	var prompt string
	if *promptFile != "" {
		data, err := os.ReadFile(*promptFile)
		if err != nil {
			log.Fatalf("Failed to read prompt file: %v", err)
		}
		prompt = string(data)
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.GenerationTimeout)
	defer cancel()

	var fetcher services.SourceFetcher = drive.ReferenceFetcher{}
	if cfg.GoogleCredentialsFile != "" {
		gateway, err := drive.New(ctx, cfg.GoogleCredentialsFile, drive.Options{
			Concurrency: cfg.SourceFetchConcurrency,
		}, logger)
		if err != nil {
			log.Fatalf("Failed to create Drive gateway: %v", err)
		}
		fetcher = gateway
	}

	refs := make([]models.SourceRef, len(folders))
	for i, id := range folders {
		refs[i] = models.SourceRef{Kind: models.SourceKindDriveFolder, FolderID: id, Position: i}
	}
	sources, err := fetcher.FetchSources(ctx, refs)
	if err != nil {
		log.Fatalf("Failed to fetch sources: %v", err)
	}

	provider, err := serviceLLM.NewProviderFactory(cfg).Configured()
	if err != nil {
		log.Fatalf("Failed to set up LLM provider: %v", err)
	}
	backend := serviceLLM.NewBackend(provider, cfg.LLMModel, logger)

	req := &services.GenerationRequest{
		DocumentType: dt.ID,
		Prompt:       prompt,
		Instruction:  dt.Instruction,
		Sources:      sources,
		Model:        dt.Model,
		MaxTokens:    dt.MaxTokens,
	}

	fmt.Printf("%sGenerating %s with %s...%s\n", colorYellow, dt.DisplayName, provider.Name().String(), colorReset)
	start := time.Now()
	result, err := backend.Generate(ctx, req)
	if err != nil {
		log.Fatalf("Generation failed: %v", err)
	}

	fmt.Println(result.Content)
	fmt.Printf("\n%smodel=%s input_tokens=%d output_tokens=%d elapsed=%s%s\n",
		colorGreen, result.Model, result.InputTokens, result.OutputTokens,
		time.Since(start).Round(time.Millisecond), colorReset)
}

package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"log/slog"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"

	"lisa/internal/config"
	"lisa/internal/doctypes"
	"lisa/internal/domain"
	"lisa/internal/domain/models"
	"lisa/internal/domain/services"
	"lisa/internal/repository/postgres"
	"lisa/internal/service"
	serviceAuth "lisa/internal/service/auth"
)

func main() {
	dropTables := flag.Bool("drop-tables", false, "Drop all tables before seeding (fresh start)")
	schemaOnly := flag.Bool("schema-only", false, "Only set up schema, don't seed data")
	clearData := flag.Bool("clear-data", false, "Delete all generated documents (keep groups, projects, prompts)")
	folderID := flag.String("drive-folder", "demo-folder", "Google Drive folder id for the demo project")
	flag.Parse()

	_ = godotenv.Load()
	cfg := config.Load()

	// SAFETY: Prevent destructive operations in production
	if cfg.Environment == "prod" && (*dropTables || *clearData) {
		log.Fatalf("BLOCKED: cannot run --drop-tables or --clear-data in prod")
	}
	if cfg.DatabaseURL == "" {
		log.Fatalf("DATABASE_URL is required")
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

	ctx := context.Background()
	pool, err := postgres.CreateConnectionPool(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer pool.Close()

	tables := postgres.NewTableNames(cfg.TablePrefix)

	if *dropTables {
		log.Printf("Dropping all tables (prefix %q)...", cfg.TablePrefix)
		if err := postgres.DropAll(ctx, pool, tables); err != nil {
			log.Fatalf("Failed to drop tables: %v", err)
		}
	}

	log.Println("Ensuring database schema is up to date...")
	if err := postgres.EnsureSchema(ctx, pool, tables); err != nil {
		log.Fatalf("Failed to run schema: %v", err)
	}
	if *schemaOnly {
		log.Println("Schema setup complete (schema-only mode)")
		return
	}

	if *clearData {
		if err := clearDocuments(ctx, pool, tables); err != nil {
			log.Fatalf("Failed to clear documents: %v", err)
		}
		log.Println("Documents cleared")
		return
	}

	if err := seed(ctx, pool, tables, *folderID, logger); err != nil {
		log.Fatalf("Seeding failed: %v", err)
	}
	log.Println("Seeding complete")
}

// seed creates a demo group, its prompts and one project through the
// service layer so validation runs exactly as it does for API calls
func seed(ctx context.Context, pool *pgxpool.Pool, tables *postgres.TableNames, folderID string, logger *slog.Logger) error {
	repoConfig := &postgres.RepositoryConfig{Pool: pool, Tables: tables, Logger: logger}
	groupRepo := postgres.NewGroupRepository(repoConfig)
	projectRepo := postgres.NewProjectRepository(repoConfig)
	promptRepo := postgres.NewPromptRepository(repoConfig)
	txManager := postgres.NewTransactionManager(pool, logger)

	catalog, err := doctypes.NewCatalog()
	if err != nil {
		return err
	}

	authorizer := serviceAuth.NewGroupAdminAuthorizer(groupRepo)
	groupService := service.NewGroupService(groupRepo, txManager, authorizer, logger)
	projectService := service.NewProjectService(projectRepo, groupRepo, txManager, authorizer, logger)
	promptService := service.NewPromptService(promptRepo, groupRepo, catalog, authorizer, logger)

	session := &models.Session{UserID: "seed", IsSystemAdmin: true}

	description := "Demo sales group"
	group, err := groupService.CreateGroup(ctx, session, &services.CreateGroupRequest{
		Name:        "Demo Sales",
		Description: &description,
		Admins:      []string{session.UserID},
	})
	var conflict *domain.ConflictError
	switch {
	case errors.As(err, &conflict):
		log.Printf("Group already exists (%s), reusing it", conflict.ResourceID)
		if group, err = groupService.GetGroup(ctx, conflict.ResourceID); err != nil {
			return err
		}
	case err != nil:
		return err
	default:
		log.Printf("Created group %s", group.ID)
	}

	if _, err := promptService.PutL0(ctx, session, seedL0Prompt); err != nil {
		return err
	}
	if _, err := promptService.PutL1(ctx, session, group.ID, seedL1Prompt); err != nil {
		return err
	}
	for _, t := range catalog.List() {
		content := "Follow the " + t.DisplayName + " template used by the demo sales group."
		if _, err := promptService.PutL2(ctx, session, group.ID, t.ID, content); err != nil {
			return err
		}
	}
	log.Printf("Prompts saved (L0, L1, %d x L2)", len(catalog.List()))

	project, err := projectService.CreateProject(ctx, session, &services.CreateProjectRequest{
		GroupID:        group.ID,
		Name:           "Demo Project",
		Tags:           []string{"demo"},
		DriveFolderIDs: []string{folderID},
	})
	if err != nil {
		return err
	}
	log.Printf("Created project %s (folder %s)", project.ID, folderID)
	return nil
}

func clearDocuments(ctx context.Context, pool *pgxpool.Pool, tables *postgres.TableNames) error {
	_, err := pool.Exec(ctx, "DELETE FROM "+tables.Documents)
	return err
}

const seedL0Prompt = `You write business documents for our company.
Use a professional tone and never invent figures that are not in the sources.`

const seedL1Prompt = `The sales group works with mid-size B2B clients.
Highlight timelines and deliverables.`

// Command-line tool to clean the database by dropping every application table or collection.
package main

import (
	"bufio"
	"context"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"SeniorJunior-backend/internal/config"
	"SeniorJunior-backend/internal/database"
	"SeniorJunior-backend/internal/store/mongostore"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	fmt.Printf("⚠️ WARNING: This command will DROP ALL users, projects and applications in the %s database.\n", cfg.DBDriver)
	fmt.Println("This action is irreversible. Do you want to continue? (yes/no): ")

	reader := bufio.NewReader(os.Stdin)
	input, err := reader.ReadString('\n')
	if err != nil {
		log.Fatalf("Failed to read input: %v", err)
	}
	if strings.TrimSpace(strings.ToLower(input)) != "yes" {
		fmt.Println("Operation cancelled.")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	switch cfg.DBDriver {
	case config.DriverMongo:
		st, err := mongostore.Connect(ctx, cfg.MongoURI, cfg.MongoDatabase, nil)
		if err != nil {
			log.Fatalf("Database failed to initialize: %v", err)
		}
		defer func() {
			_ = st.Close()
		}()
		if err := st.DropAll(ctx); err != nil {
			log.Fatalf("failed to drop collections: %v", err)
		}
	default:
		db, err := database.NewDBInstance(&database.DBConfig{
			Host:      cfg.DBHost,
			Port:      cfg.DBPort,
			User:      cfg.DBUsername,
			Password:  cfg.DBPassword,
			DBName:    cfg.DBDatabase,
			Constr:    cfg.DBConnectionStr,
			UseConstr: cfg.UseConnectionStr,
		}, nil)
		if err != nil {
			log.Fatalf("Database failed to initialize: %v", err)
		}
		defer func() {
			_ = db.Close()
		}()
		if err := db.DropAll(); err != nil {
			log.Fatalf("failed to drop tables: %v", err)
		}
	}

	fmt.Println("✅ All tables dropped successfully.")
}

// Command create-senior bootstraps a verified senior account from stdin prompts.
package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"SeniorJunior-backend/internal/config"
	"SeniorJunior-backend/internal/database"
	"SeniorJunior-backend/internal/model"
	"SeniorJunior-backend/internal/service"
	"SeniorJunior-backend/internal/store"
	"SeniorJunior-backend/internal/store/mongostore"
	"SeniorJunior-backend/internal/store/pgstore"
	"SeniorJunior-backend/internal/utilities"
)

func prompt(reader *bufio.Reader, label string) string {
	fmt.Print(label)
	s, _ := reader.ReadString('\n')
	return strings.TrimSpace(s)
}

func openStore(ctx context.Context, cfg *config.Config) (store.Store, error) {
	if cfg.DBDriver == config.DriverMongo {
		return mongostore.Connect(ctx, cfg.MongoURI, cfg.MongoDatabase, nil)
	}
	inst, err := database.NewDBInstance(&database.DBConfig{
		Host:      cfg.DBHost,
		Port:      cfg.DBPort,
		User:      cfg.DBUsername,
		Password:  cfg.DBPassword,
		DBName:    cfg.DBDatabase,
		Constr:    cfg.DBConnectionStr,
		UseConstr: cfg.UseConnectionStr,
	}, nil)
	if err != nil {
		return nil, err
	}
	return pgstore.New(inst), nil
}

func main() {
	fmt.Println("Generating senior account")
	reader := bufio.NewReader(os.Stdin)

	name := prompt(reader, "Enter name: ")
	email := service.NormalizeEmail(prompt(reader, "Enter email: "))
	skills := service.SplitSkills(prompt(reader, "Enter skills (comma separated): "))
	completed, err := strconv.Atoi(prompt(reader, fmt.Sprintf("Completed projects (at least %d): ", model.MinSeniorProjects)))
	if err != nil || completed < model.MinSeniorProjects {
		fmt.Printf("A senior needs at least %d completed projects.\n", model.MinSeniorProjects)
		os.Exit(1)
	}
	password1 := prompt(reader, "Enter password: ")
	password2 := prompt(reader, "Confirm password: ")
	if name == "" || email == "" || password1 == "" {
		fmt.Println("Name, email and password are required.")
		os.Exit(1)
	}
	if password1 != password2 {
		fmt.Println("Passwords do not match.")
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	st, err := openStore(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer func() {
		_ = st.Close()
	}()

	if _, err := st.GetUserByEmail(ctx, email); err == nil {
		fmt.Println("Email already taken")
		os.Exit(1)
	} else if !errors.Is(err, store.ErrNotFound) {
		log.Fatalf("Failed to look up email: %v", err)
	}

	hashed, err := utilities.HashPassword(password1)
	if err != nil {
		log.Fatalf("failed to hash password: %v", err)
	}
	senior := model.User{
		ID:                uuid.New(),
		Name:              name,
		Email:             email,
		Password:          hashed,
		Role:              model.RoleSenior,
		Skills:            skills,
		ProjectsCompleted: completed,
		IsVerified:        true,
	}
	if err := st.CreateUser(ctx, &senior); err != nil {
		log.Fatalf("failed to create senior: %v", err)
	}

	fmt.Println("Senior account created successfully!")
	fmt.Println("======================================")
	fmt.Printf("ID:    %s\n", senior.ID)
	fmt.Printf("Email: %s\n", senior.Email)
	fmt.Println("======================================")
}

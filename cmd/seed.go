package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/vibast-solutions/ms-go-commerce/app/entity"
	"github.com/vibast-solutions/ms-go-commerce/app/repository"
	"github.com/vibast-solutions/ms-go-commerce/config"

	"github.com/spf13/cobra"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"golang.org/x/crypto/bcrypt"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Create the initial administrator account",
	Long:  `Create the administrator account from ADMIN_NAME, ADMIN_EMAIL and ADMIN_PASSWORD if it does not exist yet.`,
	RunE: func(_ *cobra.Command, _ []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}

		adminName := os.Getenv("ADMIN_NAME")
		adminEmail := os.Getenv("ADMIN_EMAIL")
		adminPassword := os.Getenv("ADMIN_PASSWORD")
		if adminEmail == "" || adminPassword == "" {
			return errors.New("ADMIN_EMAIL and ADMIN_PASSWORD environment variables are required")
		}
		if adminName == "" {
			adminName = "Administrator"
		}

		client, err := mongo.Connect(options.Client().ApplyURI(cfg.MongoURI))
		if err != nil {
			return err
		}
		defer func() { _ = client.Disconnect(context.Background()) }()

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		userRepo := repository.NewUserRepository(client.Database(cfg.MongoDatabase))
		if err = userRepo.EnsureIndexes(ctx); err != nil {
			return err
		}

		exists, err := userRepo.EmailExists(ctx, adminEmail)
		if err != nil {
			return err
		}
		if exists {
			fmt.Printf("admin account %s already exists\n", adminEmail)
			return nil
		}

		hashedPassword, err := bcrypt.GenerateFromPassword([]byte(adminPassword), bcrypt.DefaultCost)
		if err != nil {
			return err
		}

		now := time.Now()
		admin := &entity.User{
			Name:         adminName,
			Email:        adminEmail,
			PasswordHash: string(hashedPassword),
			IsAdmin:      true,
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		if err = userRepo.Create(ctx, admin); err != nil {
			return err
		}

		fmt.Printf("admin account created\n")
		fmt.Printf("email: %s\n", adminEmail)
		fmt.Printf("id: %s\n", admin.ID.Hex())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(seedCmd)
}

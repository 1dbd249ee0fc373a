package cmd

import (
	"fmt"
	"log"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed the database with sample data",
	Long:  `Seed the database with sample data for development and testing purposes.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig(".")
		if err != nil {
			log.Fatalf("failed to load config: %v", err)
		}

		db, err := initDB(cfg.Database)
		if err != nil {
			log.Fatalf("failed to init db: %v", err)
		}
		defer db.Close()

		if clearData {
			for _, table := range []string{"transaction_likes", "coin_transactions", "audit_logs", "monthly_summaries", "employees", "settings"} {
				if _, err := db.Exec("DELETE FROM " + table); err != nil {
					log.Fatalf("failed to clear %s: %v", table, err)
				}
			}
			fmt.Println("Cleared existing data")
		}

		password := "password"
		hash, _ := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)

		seedEmployees := []struct {
			Name       string
			Email      string
			Department string
			Role       string
			SlackID    string
		}{
			{"Ayu Admin", "ayu@corp.example", "People Ops", "admin", "U0AYU00AD"},
			{"Budi Santoso", "budi@corp.example", "Engineering", "user", "U0BUD0001"},
			{"Citra Lestari", "citra@corp.example", "Engineering", "user", "U0CIT0002"},
			{"Dewi Anggraini", "dewi@corp.example", "Design", "user", "U0DEW0003"},
		}

		for _, e := range seedEmployees {
			var exists int
			row := db.QueryRow("SELECT 1 FROM employees WHERE email = $1", e.Email)
			if err := row.Scan(&exists); err == nil {
				fmt.Printf("employee %s already exists, skipping\n", e.Email)
				continue
			}

			_, err := db.Exec(
				`INSERT INTO employees (id, name, email, password_hash, department, role, slack_id, bonus_coins, is_active, created_at, updated_at)
				 VALUES ($1, $2, $3, $4, $5, $6, $7, 0, true, now(), now())`,
				uuid.New().String(), e.Name, e.Email, string(hash), e.Department, e.Role, e.SlackID)
			if err != nil {
				log.Fatalf("failed to insert employee %s: %v", e.Email, err)
			}
			fmt.Printf("Seeded employee: %s (%s)\n", e.Email, e.Role)
		}

		defaults := map[string]string{
			"default_weekly_coins": "250",
			"max_transfer_coins":   "100",
		}
		for key, value := range defaults {
			_, err := db.Exec(
				`INSERT INTO settings (key, value, updated_at) VALUES ($1, $2, now())
				 ON CONFLICT (key) DO NOTHING`, key, value)
			if err != nil {
				log.Fatalf("failed to seed setting %s: %v", key, err)
			}
		}
		fmt.Println("Seeded default policy settings")
	},
}

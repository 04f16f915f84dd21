package main

import (
	"database/sql"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/alexedwards/argon2id"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on environment variables")
	}

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		log.Fatal("DATABASE_URL is not set")
	}

	db, err := sql.Open("postgres", dbURL)
	if err != nil {
		log.Fatalf("Failed to open DB: %v", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		log.Fatalf("Failed to ping DB: %v", err)
	}

	seedUsers(db)
	seedItems(db)

	log.Println("Seeding completed successfully!")
}

func seedUsers(db *sql.DB) {
	now := time.Now()
	users := []struct {
		Name         string
		Email        string
		Category     string
		RegisteredAt time.Time
	}{
		{"Evelyn Employee", "evelyn@billing.dev", "EMPLOYEE", now.AddDate(-1, 0, 0)},
		{"Aaron Affiliate", "aaron@billing.dev", "AFFILIATE", now.AddDate(0, -6, 0)},
		{"Lina Loyal", "lina@billing.dev", "REGULAR", now.AddDate(-3, 0, 0)},
		{"Nora Newcomer", "nora@billing.dev", "REGULAR", now.AddDate(0, -1, 0)},
	}

	fmt.Println("Seeding Users...")
	hash, err := argon2id.CreateHash("password123", argon2id.DefaultParams)
	if err != nil {
		log.Fatalf("Failed to hash seed password: %v", err)
	}
	for _, u := range users {
		_, err := db.Exec(`
			INSERT INTO users (name, email, password_hash, category, registered_at)
			VALUES ($1, $2, $3, $4, $5)
			ON CONFLICT (email) DO NOTHING;
		`, u.Name, u.Email, hash, u.Category, u.RegisteredAt)
		if err != nil {
			log.Printf("Failed to seed user %s: %v", u.Email, err)
		}
	}
}

func seedItems(db *sql.DB) {
	var count int
	if err := db.QueryRow("SELECT count(*) FROM items").Scan(&count); err != nil {
		log.Fatalf("Failed to count items: %v", err)
	}
	if count > 0 {
		log.Printf("Items table already has %d rows, skipping item seed", count)
		return
	}

	// Prices are in minor currency units (cents).
	items := []struct {
		Name    string
		Price   int64
		Grocery bool
	}{
		{"Milk 1L", 250, true},
		{"Bread", 180, true},
		{"Rice 5kg", 1200, true},
		{"Eggs (dozen)", 320, true},
		{"Olive Oil 500ml", 850, true},
		{"Wireless Keyboard", 4500, false},
		{"USB-C Cable", 1200, false},
		{"Desk Lamp", 3800, false},
		{"Noise Cancelling Headphones", 19900, false},
		{"Mechanical Pencil Set", 950, false},
		{"Water Bottle 750ml", 1500, false},
		{"Notebook A5", 600, false},
	}

	fmt.Println("Seeding Items...")
	for _, it := range items {
		_, err := db.Exec(`
			INSERT INTO items (name, price, grocery)
			VALUES ($1, $2, $3);
		`, it.Name, it.Price, it.Grocery)
		if err != nil {
			log.Printf("Failed to seed item %s: %v", it.Name, err)
		}
	}
}

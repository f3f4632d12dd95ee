package main

import (
	"fmt"
	"os"

	"rugged-weave-auth/config"
	"rugged-weave-auth/database"
)

func main() {
	fmt.Println("🚀 Running database migrations...")

	cfg := config.Load()
	if _, err := database.InitDB(cfg); err != nil {
		fmt.Printf("❌ Migration failed: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("✅ Migration completed successfully!")
}

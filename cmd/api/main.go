package main

import (
	"os"

	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load(
		".env",
		".env.local",
		"../.env",
		"../.env.local",
	)
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// Command hash-admin-key turns a plaintext admin key into the bcrypt hash
// expected in ADMIN_KEY_HASH. The cost comes from security.bcrypt_cost so the
// generated hash matches what the server will verify against.
package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"golang.org/x/crypto/bcrypt"

	"github.com/spuriolabs/spurio/internal/config"
)

func main() {
	if err := godotenv.Load(); err != nil {
		fmt.Printf("Warning: could not load .env file: %v\n", err)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	key := ""
	if len(os.Args) > 1 {
		key = os.Args[1]
	} else {
		fmt.Print("Admin key: ")
		reader := bufio.NewReader(os.Stdin)
		line, err := reader.ReadString('\n')
		if err != nil {
			fmt.Printf("Failed to read key: %v\n", err)
			os.Exit(1)
		}
		key = strings.TrimSpace(line)
	}
	if key == "" {
		fmt.Println("No key given. Usage: hash-admin-key <key>")
		os.Exit(1)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(key), cfg.Security.BcryptCost)
	if err != nil {
		fmt.Printf("Failed to hash key: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("Set this in your environment:")
	fmt.Printf("ADMIN_KEY_HASH=%s\n", string(hash))
}

package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/bytedance/sonic"
	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"

	"taskboard-api/auth"
)

func main() {
	var (
		count  = flag.Int("count", 1, "number of tokens to generate")
		start  = flag.Int64("start", 1, "first user id when count > 1")
		ttl    = flag.Duration("ttl", time.Hour, "token lifetime")
		output = flag.String("output", "", "file to write generated tokens as a JSON array")
	)
	flag.Parse()

	_ = godotenv.Load()

	if *count < 1 {
		log.Fatal("count must be at least 1")
	}
	if *start < 1 {
		log.Fatal("start id must be at least 1")
	}

	args := flag.Args()
	if len(args) > 0 && *count > 1 {
		log.Fatal("explicit user id cannot be provided when generating multiple tokens")
	}

	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		log.Fatal("JWT_SECRET must be set")
	}
	issuer, err := auth.NewTokens([]byte(secret), *ttl)
	if err != nil {
		log.Fatalf("tokens: %v", err)
	}

	tokens, err := generateTokens(issuer, *count, *start, args)
	if err != nil {
		log.Fatalf("generate token: %v", err)
	}

	if *output != "" {
		if err := writeTokens(*output, tokens); err != nil {
			log.Fatalf("write tokens: %v", err)
		}
	}

	fmt.Print(tokens[0])
}

func generateTokens(issuer *auth.Tokens, count int, start int64, args []string) ([]string, error) {
	tokens := make([]string, count)

	for i := 0; i < count; i++ {
		userID := start + int64(i)
		if len(args) > 0 {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil || id < 1 {
				return nil, errors.New("user id must be a positive integer")
			}
			userID = id
		}

		tok, err := issuer.Issue(userID)
		if err != nil {
			return nil, err
		}
		tokens[i] = tok
	}

	return tokens, nil
}

func writeTokens(path string, tokens []string) error {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}

	data, err := sonic.Marshal(tokens)
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(data, '\n'), 0o600)
}

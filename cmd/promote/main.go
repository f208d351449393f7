// Command promote bootstraps an administrator profile. An existing profile
// with the email is promoted; otherwise a new admin profile is created.
// With --token it also prints a signed access token for that profile.
//
// Usage:
//
//	promote --email=admin@example.com --name="Clinic Admin" [--token]
//
// Requires DATABASE_DSN; --token also requires AUTH_JWT_SECRET.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/heartmarshall/memorycare-backend/internal/auth"
	"github.com/heartmarshall/memorycare-backend/internal/domain"
)

const upsertAdminSQL = `
INSERT INTO users (id, name, email, role)
VALUES ($1, $2, $3, 'admin')
ON CONFLICT (email) DO UPDATE SET role = 'admin'
RETURNING id, (xmax = 0) AS inserted`

func main() {
	email := flag.String("email", "", "email of the administrator")
	name := flag.String("name", "Administrator", "display name used when the profile is created")
	printToken := flag.Bool("token", false, "print an access token for the administrator")
	ttl := flag.Duration("ttl", time.Hour, "lifetime of the printed token")
	flag.Parse()

	addr := strings.ToLower(strings.TrimSpace(*email))
	if addr == "" {
		fmt.Fprintln(os.Stderr, "Usage: promote --email=admin@example.com [--name=...] [--token]")
		os.Exit(1)
	}

	dsn := os.Getenv("DATABASE_DSN")
	if dsn == "" {
		log.Fatal("DATABASE_DSN environment variable is required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		log.Fatalf("connect to database: %v", err)
	}
	defer pool.Close()

	var (
		id       uuid.UUID
		inserted bool
	)
	if err := pool.QueryRow(ctx, upsertAdminSQL, uuid.New(), strings.TrimSpace(*name), addr).Scan(&id, &inserted); err != nil {
		log.Fatalf("upsert admin: %v", err)
	}

	if inserted {
		fmt.Printf("Admin profile %s created for %q.\n", id, addr)
	} else {
		fmt.Printf("Profile %s (%q) promoted to admin.\n", id, addr)
	}

	if !*printToken {
		return
	}

	secret := os.Getenv("AUTH_JWT_SECRET")
	if secret == "" {
		log.Fatal("AUTH_JWT_SECRET environment variable is required for --token")
	}
	issuer := os.Getenv("AUTH_JWT_ISSUER")
	if issuer == "" {
		issuer = "memorycare"
	}

	token, err := auth.NewJWTManager(secret, issuer, *ttl).GenerateAccessToken(id, domain.RoleAdmin)
	if err != nil {
		log.Fatalf("generate token: %v", err)
	}
	fmt.Println(token)
}

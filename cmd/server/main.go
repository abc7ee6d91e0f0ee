package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/sqlgate/sqlgate"
	"github.com/sqlgate/sqlgate/remote"
)

// Version is set at build time via -ldflags
var Version = "dev"

func main() {
	port := flag.Int("port", 4044, "TCP port to listen on")
	seedFrom := flag.String("seedFrom", "", "URL to fetch a database file from before serving (s3://, http://, file://)")
	seedTo := flag.String("seedTo", "", "Local path the seeded database file is written to")
	publishTo := flag.String("publishTo", "", "URL to publish the database file to on shutdown (s3://, file://)")
	publishFrom := flag.String("publishFrom", "", "Local path of the database file to publish")
	requireAuth := flag.Bool("requireAuth", false, "Require JWT authentication (secret from SQLGATE_JWT_SECRET)")
	issuer := flag.String("issuer", "", "Expected JWT issuer claim")
	audience := flag.String("audience", "", "Expected JWT audience claim")
	showVersion := flag.Bool("version", false, "Show version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Printf("sqlgate server v%s\n", Version)
		return
	}

	if *seedFrom != "" {
		if *seedTo == "" {
			log.Fatal("-seedFrom requires -seedTo")
		}
		log.Printf("Seeding database file from %s", *seedFrom)
		if err := remote.Fetch(*seedFrom, *seedTo, remote.ConfigFromEnv()); err != nil {
			log.Fatalf("Failed to seed database: %v", err)
		}
	}

	var authConfig *AuthConfig
	if *requireAuth {
		secret := os.Getenv("SQLGATE_JWT_SECRET")
		if secret == "" {
			log.Fatal("Authentication requires SQLGATE_JWT_SECRET")
		}
		authConfig = &AuthConfig{
			Enabled:   true,
			JWTSecret: secret,
			Issuer:    *issuer,
			Audience:  *audience,
		}
	}

	instance := sqlgate.OpenDefault()
	server := NewServer(instance, authConfig)
	addr := fmt.Sprintf(":%d", *port)

	if err := server.Start(addr); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}

	fmt.Println()
	fmt.Printf("sqlgate bridge server v%s\n", Version)
	fmt.Printf("Listening on port %d\n", *port)
	fmt.Println("Send one JSON request per line, 'quit' to disconnect")
	fmt.Println()

	// Wait for shutdown signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	log.Println("Shutting down...")
	server.Stop()
	instance.Close()

	if *publishTo != "" {
		if *publishFrom == "" {
			log.Printf("-publishTo set without -publishFrom, skipping publish")
		} else {
			log.Printf("Publishing database file to %s", *publishTo)
			if err := remote.Publish(*publishFrom, *publishTo, remote.ConfigFromEnv()); err != nil {
				log.Printf("Failed to publish database: %v", err)
			}
		}
	}

	log.Println("Server stopped")
}

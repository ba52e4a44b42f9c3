package main

import (
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/jaywhisker/hdb-spatial-placement/pkg/server"
)

func main() {
	address := flag.String("address", ":8080", "Server address to listen on")
	flag.Parse()

	config := server.Config{
		Address: *address,
	}

	srv := server.New(config)
	if err := srv.Start(); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}

	log.Printf("composition server started")
	log.Printf("Address: %s", config.Address)

	// Wait for interrupt signal or internal shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		log.Printf("Shutting down server (received signal: %v)...", sig)
	case <-srv.StopChan():
		log.Println("Shutting down server (internal)...")
	}

	srv.Stop()
	log.Println("Server stopped.")
}

package main

import (
	"fmt"
	"log"
	"os"

	"github.com/scholarsmate/omega-edit/internal/server"
)

func main() {
	addr := os.Getenv("OMEGA_EDIT_ADDR")
	if addr == "" {
		addr = ":8080"
	}
	srv := server.NewHTTPServer(addr)
	fmt.Println("Listening on " + addr)
	log.Fatal(srv.ListenAndServe())
}

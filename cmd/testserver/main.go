// Command testserver runs a configurable HTTP target for load tests.
//
// Usage:
//
//	testserver [flags]
//
// Flags:
//
//	-port   Port to listen on (default: 8080)
//	-host   Host to bind to (default: localhost)
//	-polls  Status polls before an assistant run completes (default: 3)
//	-fail   Make every assistant run end failed
package main

import (
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"stampede/testserver"
)

func main() {
	port := flag.Int("port", 8080, "port to listen on")
	host := flag.String("host", "localhost", "host to bind to")
	polls := flag.Int("polls", 3, "status polls before an assistant run completes")
	fail := flag.Bool("fail", false, "make every assistant run end failed")
	flag.Parse()

	server := testserver.NewServer()
	server.PollsUntilDone = *polls
	server.FailRuns = *fail
	addr := fmt.Sprintf("%s:%d", *host, *port)

	fmt.Println("Stampede Test Server")
	fmt.Println("======================")
	fmt.Printf("Listening on http://%s\n\n", addr)
	fmt.Println("Endpoints:")
	fmt.Println("  GET  /health                           - Health check")
	fmt.Println("  GET  /status/{code}                    - Return specific status code")
	fmt.Println("  GET  /delay/{ms}                       - Delay response by milliseconds")
	fmt.Println("  GET  /fail-rate?rate=10                - Fail percentage of requests")
	fmt.Println("  GET  /private                          - Requires a session cookie")
	fmt.Println("  POST /v1/threads                       - Create an assistant thread")
	fmt.Println("  POST /v1/threads/{tid}/runs            - Start a run")
	fmt.Println("  GET  /v1/threads/{tid}/runs/{rid}      - Poll run status")
	fmt.Println()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigCh
		fmt.Println("\nShutting down...")
		os.Exit(0)
	}()

	log.Fatal(http.ListenAndServe(addr, server.Handler()))
}

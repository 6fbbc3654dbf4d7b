// Package server assembles the background context of the extension.
//
// The background owns the Gemini client and answers runtime messages sent
// by popup contexts. It is exposed over HTTP so a popup running in another
// process can reach it through a remote runtime.
//
// Server Lifecycle:
//  1. Load configuration from the environment
//  2. Build the metrics registry
//  3. Build the Gemini client and the message listener
//  4. Setup HTTP routes and middleware
//  5. Serve until a signal arrives
//  6. Drain claimed messages on shutdown
//
// Example Usage:
//
//	cfg := config.LoadOrDefault()
//	srv, err := server.New(cfg, logger)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	go srv.Run()
package server

package main

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/lemonberrylabs/shunting-yard/pkg/api"
	grpcapi "github.com/lemonberrylabs/shunting-yard/pkg/api/grpc"
	"github.com/lemonberrylabs/shunting-yard/pkg/expr"
	"github.com/lemonberrylabs/shunting-yard/pkg/runtime"
	"github.com/lemonberrylabs/shunting-yard/pkg/store"
	"github.com/lemonberrylabs/shunting-yard/web"
	"github.com/spf13/cobra"
)

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the translator over HTTP, gRPC and a web UI",
		Args:  cobra.NoArgs,
		RunE:  runServe,
	}

	cmd.Flags().Int("port", 0, "HTTP server port (default 8787, env PORT)")
	cmd.Flags().Int("grpc-port", 0, "gRPC server port (default 8788, env GRPC_PORT)")
	cmd.Flags().String("host", "", "Bind address (default 0.0.0.0, env HOST)")
	cmd.Flags().String("suites-dir", "", "Directory of suite YAML/JSON files to run at startup (env SUITES_DIR)")
	cmd.Flags().Int("max-depth", 0, "Operator stack depth limit (default 1000, env MAX_DEPTH)")
	cmd.Flags().Bool("access-log", false, "Log every HTTP request to stderr (env ACCESS_LOG=true)")
	return cmd
}

func runServe(cmd *cobra.Command, args []string) error {
	port := envOrDefault("PORT", "8787")
	if v, _ := cmd.Flags().GetInt("port"); v != 0 {
		port = fmt.Sprintf("%d", v)
	}

	grpcPort := envOrDefault("GRPC_PORT", "8788")
	if v, _ := cmd.Flags().GetInt("grpc-port"); v != 0 {
		grpcPort = fmt.Sprintf("%d", v)
	}

	host := envOrDefault("HOST", "0.0.0.0")
	if v, _ := cmd.Flags().GetString("host"); v != "" {
		host = v
	}

	suitesDir := os.Getenv("SUITES_DIR")
	if v, _ := cmd.Flags().GetString("suites-dir"); v != "" {
		suitesDir = v
	}

	depth, err := maxDepth(cmd)
	if err != nil {
		return err
	}

	addr := fmt.Sprintf("%s:%s", host, port)
	grpcAddr := fmt.Sprintf("%s:%s", host, grpcPort)

	var apiOpts []api.Option
	accessLog, _ := cmd.Flags().GetBool("access-log")
	if accessLog || envOrDefault("ACCESS_LOG", "") == "true" {
		apiOpts = append(apiOpts, api.WithAccessLog(cmd.ErrOrStderr()))
	}

	engine := runtime.NewEngine(store.New(), expr.WithMaxDepth(depth))
	server := api.New(engine, apiOpts...)

	if suitesDir != "" {
		log.Printf("Running suites from directory: %s", suitesDir)
		if err := server.LoadSuites(suitesDir); err != nil {
			log.Printf("Warning: failed to load suites directory: %v", err)
		}
	}

	// Register the web UI (non-fatal if template parsing fails)
	func() {
		defer func() {
			if r := recover(); r != nil {
				log.Printf("Warning: web UI disabled due to template error: %v", r)
			}
		}()
		ui := web.New(engine)
		ui.Register(server.App())
	}()

	grpcServer := grpcapi.New(engine)
	go func() {
		log.Printf("gRPC server listening on %s", grpcAddr)
		if err := grpcServer.Serve(grpcAddr); err != nil {
			log.Fatalf("gRPC server error: %v", err)
		}
	}()

	// Graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Println("Shutting down...")
		grpcServer.GracefulStop()
		if err := server.Shutdown(); err != nil {
			log.Printf("Error during shutdown: %v", err)
		}
	}()

	log.Printf("yard listening on %s (max depth %d)", addr, engine.Translator().MaxDepth())
	return server.Listen(addr)
}

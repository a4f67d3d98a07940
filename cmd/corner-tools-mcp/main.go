package main

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"

	"github.com/ironsheep/corner-tools-mcp/internal/server"
)

// Version information - set by ldflags during build
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	// Handle --version and -v flags
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "--version", "-v", "version":
			fmt.Printf("corner-tools-mcp %s\n", Version)
			fmt.Printf("  Build time: %s\n", BuildTime)
			fmt.Printf("  Git commit: %s\n", GitCommit)
			return
		case "--help", "-h", "help":
			fmt.Println("corner-tools-mcp - MCP server for corner detection")
			fmt.Println()
			fmt.Println("Usage: corner-tools-mcp [options]")
			fmt.Println()
			fmt.Println("Options:")
			fmt.Println("  --version, -v    Print version information")
			fmt.Println("  --help, -h       Print this help message")
			fmt.Println()
			fmt.Println("Environment variables:")
			fmt.Println("  CORNER_MCP_LOG_LEVEL=debug        Log level (trace, debug, info, warn, error)")
			fmt.Println("  CORNER_MCP_MAX_DIMENSION=2048     Downscale larger images before detection (0 disables)")
			fmt.Println("  CORNER_MCP_QUEUE_CAPACITY=1000    Corner slots preallocated per detector")
			fmt.Println()
			fmt.Println("This server communicates via MCP protocol over stdin/stdout.")
			fmt.Println("Configure it in your MCP client (e.g., Claude Desktop).")
			return
		}
	}

	logger := logrus.New()
	cfg := server.ConfigFromEnv(logger)
	initLogger(logger, cfg.LogLevel)

	logger.WithFields(logrus.Fields{
		"version":        Version,
		"build_time":     BuildTime,
		"commit":         GitCommit,
		"max_dimension":  cfg.MaxDimension,
		"queue_capacity": cfg.QueueCapacity,
	}).Info("corner tools server starting")

	srv := server.New(cfg, logger)
	if err := srv.Run(); err != nil {
		logger.WithError(err).Fatal("server error")
	}
}

// initLogger sends logs to stderr (stdout is for MCP protocol). Debug and
// trace levels get readable text, everything else JSON.
func initLogger(logger *logrus.Logger, level logrus.Level) {
	logger.SetOutput(os.Stderr)
	logger.SetLevel(level)

	if level >= logrus.DebugLevel {
		logger.SetFormatter(&logrus.TextFormatter{
			FullTimestamp: true,
		})
		logger.Debug("debug logging enabled")
	} else {
		logger.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: "2006-01-02 15:04:05",
		})
	}
}

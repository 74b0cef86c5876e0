package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/exec"
	"os/signal"
	"strings"
	"syscall"

	"github.com/2beens/abtracker/internal"
	"github.com/2beens/abtracker/internal/config"
	"github.com/2beens/abtracker/internal/logging"
	"github.com/2beens/abtracker/internal/middleware"
	"github.com/2beens/abtracker/pkg"

	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
)

func main() {
	fmt.Println("starting ...")

	env := flag.String("env", "development", "environment [prod | production | dev | development]")
	configPath := flag.String("config", "./config.toml", "path for the TOML config file")
	envFile := flag.String("envfile", ".env", "optional file with secrets, loaded into env vars")
	newToken := flag.Bool("new-token", false, "generate a new write token and its hash, then exit")
	flag.Parse()

	if *newToken {
		if err := printNewToken(); err != nil {
			fmt.Fprintf(os.Stderr, "generate token: %s\n", err)
			os.Exit(1)
		}
		return
	}

	if exists, _ := pkg.PathExists(*envFile, false); exists {
		if err := godotenv.Load(*envFile); err != nil {
			log.Errorf("load env file [%s]: %s", *envFile, err)
		}
	}

	log.Warnf("---->> running in [%s] environment", *env)

	cfg, err := config.Load(*env, *configPath)
	if err != nil {
		panic(err)
	}

	sentryDSN := os.Getenv("SENTRY_DSN")
	if err := logging.Setup(logging.Params{
		LogFilePath:      cfg.LogsPath,
		LogToStdout:      cfg.LogToStdout,
		LogLevel:         cfg.LogLevel,
		LogFormatJSON:    cfg.LogFormatJSON,
		Environment:      cfg.Environment,
		SentryEnabled:    cfg.SentryEnabled,
		SentryDSN:        sentryDSN,
		SentryServerName: "abtracker-service",
	}); err != nil {
		log.Fatalf("logging setup: %s", err)
	}

	log.Debugf("using port: %d", cfg.Port)
	log.Debugf("using server logs path: [%s]", cfg.LogsPath)
	log.Debugf("using log store: [%s]", cfg.LogStore)

	versionInfo, err := tryGetLastCommitHash()
	if err != nil {
		log.Tracef("failed to get last commit hash / version info: %s", err)
		versionInfo = "unknown"
	} else {
		log.Tracef("running version: %s", versionInfo)
	}

	writeTokenHash := os.Getenv("ABTRACKER_WRITE_TOKEN_HASH")
	if writeTokenHash == "" {
		log.Errorf("write token hash not set. use ABTRACKER_WRITE_TOKEN_HASH (see -new-token)")
	}

	redisPassword := os.Getenv("ABTRACKER_REDIS_PASS")
	if redisPassword == "" {
		log.Warnln("redis password not set. use ABTRACKER_REDIS_PASS")
	}

	honeycombEnabled := os.Getenv("HONEYCOMB_ENABLED") == "true"
	if honeycombEnabled {
		if honeycombApiKey := os.Getenv("HONEYCOMB_API_KEY"); honeycombApiKey == "" {
			log.Warnln("HONEYCOMB_API_KEY env var not set")
		}
	} else {
		log.Debugln("honeycomb tracing disabled")
	}

	chOsInterrupt := make(chan os.Signal, 1)
	signal.Notify(chOsInterrupt, os.Interrupt, syscall.SIGTERM)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	server, err := internal.NewServer(
		ctx,
		internal.NewServerParams{
			Config:                  cfg,
			VersionInfo:             versionInfo,
			WriteTokenHash:          writeTokenHash,
			PostgresUser:            os.Getenv("ABTRACKER_POSTGRES_USER"),
			PostgresPassword:        os.Getenv("ABTRACKER_POSTGRES_PASS"),
			RedisPassword:           redisPassword,
			HoneycombTracingEnabled: honeycombEnabled,
		},
	)
	if err != nil {
		log.Fatalf("new server: %s", err)
	}

	server.Serve(cfg.Host, cfg.Port)

	receivedSig := <-chOsInterrupt
	log.Warnf("signal [%s] received, killing everything ...", receivedSig)
	cancel()

	if err := server.GracefulShutdown(); err != nil {
		log.Errorf("graceful shutdown: %s", err)
	}
}

func printNewToken() error {
	token, err := pkg.GenerateToken(32)
	if err != nil {
		return err
	}
	hash, err := pkg.HashToken(token)
	if err != nil {
		return err
	}
	fmt.Printf("token (send as %s header): %s\n", middleware.TokenHeader, token)
	fmt.Printf("ABTRACKER_WRITE_TOKEN_HASH=%s\n", hash)
	return nil
}

// tryGetLastCommitHash will try to get the last commit hash
// assumes that the built main executable is in project root
func tryGetLastCommitHash() (string, error) {
	cmd := exec.Command("/usr/bin/git", "rev-parse", "HEAD")
	stdout, err := cmd.Output()
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(pkg.BytesToString(stdout)), nil
}

package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/hrygo/loconomy/ai/observability/logging"
	"github.com/hrygo/loconomy/internal/profile"
	"github.com/hrygo/loconomy/internal/version"
	"github.com/hrygo/loconomy/server"
)

var (
	rootCmd = &cobra.Command{
		Use:   "loconomy",
		Short: `Loconomy concierge: find, book and manage local services through chat and slash commands.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// systemd units supply the environment themselves.
			if !isRunningAsSystemdService() {
				_ = godotenv.Load()
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			instanceProfile, err := loadProfile()
			if err != nil {
				return err
			}

			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()

			a, err := newApp(ctx, instanceProfile)
			if err != nil {
				return err
			}

			s, err := server.NewServer(ctx, instanceProfile, a.store, a.agent, a.exporter)
			if err != nil {
				a.Close(ctx)
				_ = a.store.Close()
				return err
			}
			s.OnShutdown(func(ctx context.Context) error {
				a.Close(ctx)
				return nil
			})

			c := make(chan os.Signal, 1)
			// SIGTERM is the graceful shutdown signal for most process managers.
			signal.Notify(c, terminationSignals...)

			if err := s.Start(ctx); err != nil {
				s.Shutdown(ctx)
				return err
			}

			printGreetings(instanceProfile)

			go func() {
				<-c
				s.Shutdown(context.WithoutCancel(ctx))
				cancel()
			}()

			<-ctx.Done()
			return nil
		},
	}
)

func init() {
	viper.SetDefault("mode", "dev")
	viper.SetDefault("driver", "sqlite")
	viper.SetDefault("port", 28090)

	rootCmd.PersistentFlags().String("mode", "dev", `mode of server, can be "prod" or "dev" or "demo"`)
	rootCmd.PersistentFlags().String("addr", "", "address of server")
	rootCmd.PersistentFlags().Int("port", 28090, "port of server")
	rootCmd.PersistentFlags().String("data", "", "data directory")
	rootCmd.PersistentFlags().String("driver", "sqlite", "database driver (sqlite, postgres)")
	rootCmd.PersistentFlags().String("dsn", "", "database source name(aka. DSN)")

	for _, name := range []string{"mode", "addr", "port", "data", "driver", "dsn"} {
		if err := viper.BindPFlag(name, rootCmd.PersistentFlags().Lookup(name)); err != nil {
			panic(err)
		}
	}

	viper.SetEnvPrefix("loconomy")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()

	rootCmd.AddCommand(chatCmd, seedCmd)
}

// loadProfile merges flags, LOCONOMY_* variables and defaults.
func loadProfile() (*profile.Profile, error) {
	p := &profile.Profile{
		Mode:    viper.GetString("mode"),
		Addr:    viper.GetString("addr"),
		Port:    viper.GetInt("port"),
		Data:    viper.GetString("data"),
		Driver:  viper.GetString("driver"),
		DSN:     viper.GetString("dsn"),
		Version: version.Version,
	}
	p.FromEnv()
	logging.Setup(logging.Config{Level: p.LogLevel, Format: p.LogFormat})
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

func printGreetings(profile *profile.Profile) {
	fmt.Printf("Loconomy %s started successfully!\n", profile.Version)

	if profile.IsDev() {
		fmt.Fprint(os.Stderr, "Development mode is enabled\n")
		if profile.DSN != "" {
			fmt.Fprintf(os.Stderr, "Database: %s\n", profile.DSN)
		}
	}

	fmt.Printf("Data directory: %s\n", profile.Data)
	fmt.Printf("Database driver: %s\n", profile.Driver)
	fmt.Printf("Memory backend: %s\n", profile.MemoryBackend)
	fmt.Printf("Mode: %s\n", profile.Mode)

	host := profile.Addr
	if host == "" {
		host = "localhost"
	}
	fmt.Printf("Concierge running at: http://%s:%d\n", host, profile.Port)
	fmt.Printf("Metrics: http://%s:%d/metrics\n", host, profile.Port)
}

func isRunningAsSystemdService() bool {
	return os.Getenv("INVOCATION_ID") != "" || os.Getenv("WATCHDOG_USEC") != ""
}

// printDatabaseError explains the common connection failures.
func printDatabaseError(err error, profile *profile.Profile) {
	fmt.Fprintln(os.Stderr, "\nDatabase connection failed")

	errMsg := err.Error()
	switch {
	case strings.Contains(errMsg, "connection refused") || strings.Contains(errMsg, "no such host"):
		fmt.Fprintln(os.Stderr, "  PostgreSQL is not reachable.")
		fmt.Fprintln(os.Stderr, "  Or use SQLite for development: LOCONOMY_DRIVER=sqlite")
	case strings.Contains(errMsg, "sslmode") || strings.Contains(errMsg, "SSL is not enabled"):
		fmt.Fprintln(os.Stderr, "  Add ?sslmode=disable to your DSN.")
	case strings.Contains(errMsg, "password authentication failed"):
		fmt.Fprintln(os.Stderr, "  Check the credentials in your DSN or .env file.")
	case strings.Contains(errMsg, "dsn required"):
		fmt.Fprintf(os.Stderr, "  The %s driver needs --dsn or LOCONOMY_DSN.\n", profile.Driver)
	default:
		fmt.Fprintln(os.Stderr, "  Error:", errMsg)
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		slog.Error("loconomy exited", "error", err)
		os.Exit(1)
	}
}

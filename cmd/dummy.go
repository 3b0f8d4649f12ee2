package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"stampede/internal/dummy"
)

var dummyCmd = &cobra.Command{
	Use:   "dummy",
	Short: "Run the built-in target server",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		port, _ := cmd.Flags().GetInt("port")
		return serveDummy(dummy.ServerConfig{Port: port})
	},
}

func serveDummy(cfg dummy.ServerConfig) error {
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sig)

	srv, errc := dummy.Start(cfg)
	select {
	case err := <-errc:
		return fmt.Errorf("dummy server: %w", err)
	case <-sig:
		return srv.Close()
	}
}

func init() {
	dummyCmd.Flags().IntP("port", "p", 8080, "Port to run dummy server on")
}

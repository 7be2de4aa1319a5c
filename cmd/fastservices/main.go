// Package main is the entry point for the FastServices command line client.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/FacuTaborra/FastServices2.0-sub000/internal/api"
)

var verbose bool

var rootCmd = &cobra.Command{
	Use:           "fastservices",
	Short:         "FastServices command line client",
	Long:          `Publish service requests, run bidding countdowns, submit proposals and track services on FastServices.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, api.UserMessage(err))
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log requests and state changes to stderr")

	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(logoutCmd)
	rootCmd.AddCommand(requestsCmd)
	rootCmd.AddCommand(proposalsCmd)
	rootCmd.AddCommand(servicesCmd)
	rootCmd.AddCommand(attachmentsCmd)
}

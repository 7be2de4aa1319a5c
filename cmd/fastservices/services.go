package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/FacuTaborra/FastServices2.0-sub000/internal/provider"
	"github.com/FacuTaborra/FastServices2.0-sub000/shared/models"
)

// servicesCmd is the parent command for provider service operations
var servicesCmd = &cobra.Command{
	Use:   "services",
	Short: "Track the services you provide",
}

func init() {
	servicesCmd.AddCommand(servicesListCmd)
	servicesCmd.AddCommand(servicesTimelineCmd)
	servicesCmd.AddCommand(newMarkCmd("on-route", "Mark a service as on the way", (*provider.Service).MarkOnRoute))
	servicesCmd.AddCommand(newMarkCmd("in-progress", "Mark a service as started", (*provider.Service).MarkInProgress))
	servicesCmd.AddCommand(newMarkCmd("complete", "Mark a service as completed", (*provider.Service).MarkCompleted))
}

var errServiceNotFound = errors.New("service not found")

// findService loads the app and the provider service named by args[0].
func findService(ctx context.Context, args []string) (*app, models.ProviderService, error) {
	id, err := parseID(args[0])
	if err != nil {
		return nil, models.ProviderService{}, err
	}
	a, err := newApp(ctx)
	if err != nil {
		return nil, models.ProviderService{}, err
	}
	list, err := a.client.ListMyServices(ctx)
	if err != nil {
		a.Close()
		return nil, models.ProviderService{}, err
	}
	for _, svc := range list {
		if svc.ID == id {
			return a, svc, nil
		}
	}
	a.Close()
	return nil, models.ProviderService{}, errServiceNotFound
}

var servicesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List your services, most recent activity first",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		list, err := a.client.ListMyServices(cmd.Context())
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if len(list) == 0 {
			fmt.Fprintln(out, "No services.")
			return nil
		}
		for _, svc := range provider.SortByRecentActivity(list) {
			printServiceRow(out, svc)
		}
		return nil
	},
}

var servicesTimelineCmd = &cobra.Command{
	Use:   "timeline [id]",
	Short: "Show the status timeline of a service",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, svc, err := findService(cmd.Context(), args)
		if err != nil {
			return err
		}
		defer a.Close()

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "=== Service #%d (request #%d) ===\n", svc.ID, svc.RequestID)
		printTimeline(out, provider.BuildTimelineEntries(svc.Status, svc.StatusHistory, svc.Review != nil))
		return nil
	},
}

type markFunc func(*provider.Service, context.Context, models.ProviderService) (models.ProviderService, error)

func newMarkCmd(use, short string, mark markFunc) *cobra.Command {
	return &cobra.Command{
		Use:   use + " [id]",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, svc, err := findService(cmd.Context(), args)
			if err != nil {
				return err
			}
			defer a.Close()

			updated, err := mark(a.providers, cmd.Context(), svc)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Service #%d is now %s.\n", updated.ID, updated.Status)
			return nil
		},
	}
}

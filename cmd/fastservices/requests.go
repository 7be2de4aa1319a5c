package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/FacuTaborra/FastServices2.0-sub000/internal/attachments"
	"github.com/FacuTaborra/FastServices2.0-sub000/internal/bidding"
	"github.com/FacuTaborra/FastServices2.0-sub000/internal/requests"
	"github.com/FacuTaborra/FastServices2.0-sub000/shared/models"
	"github.com/FacuTaborra/FastServices2.0-sub000/shared/validation"
)

// requestsCmd is the parent command for client request operations
var requestsCmd = &cobra.Command{
	Use:     "requests",
	Aliases: []string{"req"},
	Short:   "Manage your service requests",
}

func init() {
	requestsCmd.AddCommand(requestsListCmd)
	requestsCmd.AddCommand(requestsShowCmd)
	requestsCmd.AddCommand(requestsCreateCmd)
	requestsCmd.AddCommand(requestsCloseCmd)
	requestsCmd.AddCommand(requestsCancelCmd)
	requestsCmd.AddCommand(requestsCountdownCmd)
	requestsCmd.AddCommand(requestsWinnerCmd)
}

// fetchRequest loads the app and the request named by args[0].
func fetchRequest(ctx context.Context, args []string) (*app, models.ServiceRequest, error) {
	id, err := parseID(args[0])
	if err != nil {
		return nil, models.ServiceRequest{}, err
	}
	a, err := newApp(ctx)
	if err != nil {
		return nil, models.ServiceRequest{}, err
	}
	req, err := a.client.GetServiceRequest(ctx, id)
	if err != nil {
		a.Close()
		return nil, models.ServiceRequest{}, err
	}
	return a, req, nil
}

var requestsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List active requests",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		list, err := a.client.ListActiveRequests(cmd.Context())
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if len(list) == 0 {
			fmt.Fprintln(out, "No active requests.")
			return nil
		}
		now := time.Now()
		for _, req := range list {
			printRequestRow(out, req, now)
		}
		return nil
	},
}

var requestsShowCmd = &cobra.Command{
	Use:   "show [id]",
	Short: "Show a request and its proposals",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, req, err := fetchRequest(cmd.Context(), args)
		if err != nil {
			return err
		}
		defer a.Close()

		printRequest(cmd.OutOrStdout(), req, time.Now())
		return nil
	},
}

var (
	createTitle       string
	createDescription string
	createType        string
	createAddress     int64
	createStart       string
	createEnd         string
	createDeadline    string
	createImages      []string
)

var requestsCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Publish a new service request",
	Long:  `Publish a service request. Images given with --image are resized and uploaded before the request is created.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		out := cmd.OutOrStdout()

		in := models.CreateServiceRequest{
			Title:       strings.TrimSpace(createTitle),
			Description: strings.TrimSpace(createDescription),
			RequestType: models.RequestType(strings.ToUpper(createType)),
			AddressID:   createAddress,
		}
		var err error
		if in.PreferredStartAt, err = parseTime(createStart); err != nil {
			return err
		}
		if in.PreferredEndAt, err = parseTime(createEnd); err != nil {
			return err
		}
		if in.BiddingDeadline, err = parseTime(createDeadline); err != nil {
			return err
		}
		if in.RequestType == models.RequestTypeLicitacion && in.BiddingDeadline == nil {
			return errors.New("--deadline is required for LICITACION requests")
		}
		if err := validation.Check(in); err != nil {
			return err
		}

		a, err := newApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close()

		if len(createImages) > 0 {
			pipe, err := a.pipeline(ctx)
			if err != nil {
				return err
			}
			if err := uploadAll(ctx, pipe, createImages, out); err != nil {
				return err
			}
			in.Attachments = pipe.ToPayload()
		}

		created, err := a.client.CreateServiceRequest(ctx, in)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "Created request #%d (%s)\n", created.ID, created.Status)
		return nil
	},
}

// uploadAll adds every path to pipe, waits for the uploads and reports
// failures. Failed images block submission.
func uploadAll(ctx context.Context, pipe *attachments.Pipeline, paths []string, out io.Writer) error {
	for _, p := range paths {
		if _, err := pipe.Add(ctx, attachments.Asset{URI: p}); err != nil {
			return err
		}
	}
	pipe.Wait()

	var failed int
	for _, item := range pipe.Items() {
		if item.Failed() {
			failed++
			fmt.Fprintf(out, "  failed  %s: %s\n", item.FileName, *item.UploadError)
			continue
		}
		if item.Uploaded() {
			fmt.Fprintf(out, "  ok      %s -> %s\n", item.FileName, *item.PublicURL)
		}
	}
	if !pipe.CanSubmit() {
		return fmt.Errorf("%d image(s) failed to upload", failed)
	}
	return nil
}

var requestsCloseCmd = &cobra.Command{
	Use:   "close [id]",
	Short: "Close bidding early",
	Long:  fmt.Sprintf(`Close a LICITACION before its deadline. At least %d proposals are needed.`, requests.MinProposalsToClose),
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, req, err := fetchRequest(cmd.Context(), args)
		if err != nil {
			return err
		}
		defer a.Close()

		closed, err := a.requests.Close(cmd.Context(), req, requests.CloseManual)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		fmt.Fprintln(out, bidding.NoticeClosed.Message())
		printProposals(out, closed)
		return nil
	},
}

var requestsCancelCmd = &cobra.Command{
	Use:   "cancel [id]",
	Short: "Cancel a request",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, req, err := fetchRequest(cmd.Context(), args)
		if err != nil {
			return err
		}
		defer a.Close()

		if _, err := a.requests.Cancel(cmd.Context(), req); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), bidding.NoticeCancelled.Message())
		return nil
	},
}

var countdownWatch bool

var requestsCountdownCmd = &cobra.Command{
	Use:   "countdown [id]",
	Short: "Show the bidding countdown",
	Long: `Show the remaining bidding time of a LICITACION. When the deadline has passed
the request is closed automatically. With --watch the countdown refreshes
until bidding ends.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, req, err := fetchRequest(ctx, args)
		if err != nil {
			return err
		}
		defer a.Close()

		ctl, err := bidding.NewController(req, a.requests,
			bidding.WithInterval(a.cfg.CountdownInterval),
			bidding.WithLogger(a.logger),
		)
		if err != nil {
			return err
		}
		return runCountdown(ctx, a, ctl, cmd)
	},
}

func runCountdown(ctx context.Context, a *app, ctl *bidding.Controller, cmd *cobra.Command) error {
	out := cmd.OutOrStdout()
	ticker := time.NewTicker(a.cfg.CountdownInterval)
	defer ticker.Stop()

	for {
		ctl.Tick(ctx)
		ctl.Wait()
		printView(out, ctl.View())
		if n := ctl.TakeNotice(); n != bidding.NoticeNone {
			fmt.Fprintln(out, n.Message())
		}
		if ctl.Done() || !countdownWatch {
			return nil
		}

		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}

		fresh, err := a.client.GetServiceRequest(ctx, ctl.RequestID())
		if err != nil {
			a.logger.Warnw("failed to refresh request", "request_id", ctl.RequestID(), "error", err)
			continue
		}
		if err := ctl.Refresh(fresh); err != nil {
			return err
		}
	}
}

var requestsWinnerCmd = &cobra.Command{
	Use:   "winner [id]",
	Short: "Show the winning proposal of a closed bidding",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, req, err := fetchRequest(cmd.Context(), args)
		if err != nil {
			return err
		}
		defer a.Close()

		out := cmd.OutOrStdout()
		w, ok := requests.Winner(req)
		if !ok {
			fmt.Fprintln(out, "No winner yet.")
			return nil
		}
		printProposalRow(out, w)
		return nil
	},
}

func init() {
	f := requestsCreateCmd.Flags()
	f.StringVar(&createTitle, "title", "", "Request title")
	f.StringVar(&createDescription, "description", "", "What needs to be done")
	f.StringVar(&createType, "type", string(models.RequestTypeFast), "FAST, FAST_MATCH, LICITACION or BUDGET")
	f.Int64Var(&createAddress, "address", 0, "Address id")
	f.StringVar(&createStart, "start", "", "Preferred start time")
	f.StringVar(&createEnd, "end", "", "Preferred end time")
	f.StringVar(&createDeadline, "deadline", "", "Bidding deadline (LICITACION only)")
	f.StringArrayVar(&createImages, "image", nil, "Image to attach (repeatable)")

	requestsCountdownCmd.Flags().BoolVarP(&countdownWatch, "watch", "w", false, "Keep refreshing until bidding ends")
}

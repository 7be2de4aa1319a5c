package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/FacuTaborra/FastServices2.0-sub000/internal/checkout"
	"github.com/FacuTaborra/FastServices2.0-sub000/internal/proposals"
	"github.com/FacuTaborra/FastServices2.0-sub000/shared/models"
)

// proposalsCmd is the parent command for proposal operations
var proposalsCmd = &cobra.Command{
	Use:   "proposals",
	Short: "Submit and decide on proposals",
}

func init() {
	proposalsCmd.AddCommand(proposalsSubmitCmd)
	proposalsCmd.AddCommand(proposalsMineCmd)
	proposalsCmd.AddCommand(proposalsAcceptCmd)
	proposalsCmd.AddCommand(proposalsRejectCmd)
	proposalsCmd.AddCommand(proposalsPayCmd)
}

var errRequestNotMatching = errors.New("request is not among your matching requests")

// matchingRequest finds a request the provider can quote on.
func matchingRequest(ctx context.Context, a *app, id int64) (models.ServiceRequest, error) {
	list, err := a.client.ListMatchingRequests(ctx)
	if err != nil {
		return models.ServiceRequest{}, err
	}
	for _, req := range list {
		if req.ID == id {
			return req, nil
		}
	}
	return models.ServiceRequest{}, errRequestNotMatching
}

var (
	submitPrice      string
	submitCurrency   string
	submitNotes      string
	submitStart      string
	submitEnd        string
	submitValidUntil string
)

var proposalsSubmitCmd = &cobra.Command{
	Use:   "submit [request-id]",
	Short: "Quote on a matching request",
	Long: `Submit a proposal for a request matching your provider profile. Scheduling
flags are ignored for FAST and FAST_MATCH requests.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		id, err := parseID(args[0])
		if err != nil {
			return err
		}

		in := proposals.Input{Price: submitPrice, Currency: submitCurrency, Notes: submitNotes}
		if in.ProposedStartAt, err = parseTime(submitStart); err != nil {
			return err
		}
		if in.ProposedEndAt, err = parseTime(submitEnd); err != nil {
			return err
		}
		if in.ValidUntil, err = parseTime(submitValidUntil); err != nil {
			return err
		}

		a, err := newApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close()

		if in.Request, err = matchingRequest(ctx, a, id); err != nil {
			return err
		}
		created, err := a.proposals.Submit(ctx, in)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Submitted proposal #%d for %s\n",
			created.ID, proposals.FormatPrice(created.QuotedPrice, created.Currency))
		return nil
	},
}

var proposalsMineCmd = &cobra.Command{
	Use:   "mine",
	Short: "List your proposals",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		mine, err := a.client.ListMyProposals(cmd.Context())
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if len(mine) == 0 {
			fmt.Fprintln(out, "No proposals.")
			return nil
		}
		for _, p := range mine {
			printProposalRow(out, p)
		}
		return nil
	},
}

// decisionArgs parses "[request-id] [proposal-id]" and loads the request.
func decisionArgs(ctx context.Context, args []string) (*app, models.ServiceRequest, int64, error) {
	proposalID, err := parseID(args[1])
	if err != nil {
		return nil, models.ServiceRequest{}, 0, err
	}
	a, req, err := fetchRequest(ctx, args[:1])
	if err != nil {
		return nil, models.ServiceRequest{}, 0, err
	}
	return a, req, proposalID, nil
}

var proposalsAcceptCmd = &cobra.Command{
	Use:   "accept [request-id] [proposal-id]",
	Short: "Accept a proposal without paying through checkout",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, req, proposalID, err := decisionArgs(cmd.Context(), args)
		if err != nil {
			return err
		}
		defer a.Close()

		updated, err := a.requests.AcceptProposal(cmd.Context(), req, proposalID, models.AcceptProposal{})
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Accepted proposal #%d. Request is now %s.\n", proposalID, updated.Status)
		return nil
	},
}

var proposalsRejectCmd = &cobra.Command{
	Use:   "reject [request-id] [proposal-id]",
	Short: "Reject a proposal",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, req, proposalID, err := decisionArgs(cmd.Context(), args)
		if err != nil {
			return err
		}
		defer a.Close()

		if _, err := a.requests.RejectProposal(cmd.Context(), req, proposalID); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Rejected proposal #%d.\n", proposalID)
		return nil
	},
}

var (
	payEmail        string
	payCardToken    string
	payMethod       string
	payInstallments int
)

var proposalsPayCmd = &cobra.Command{
	Use:   "pay [request-id] [proposal-id]",
	Short: "Pay for a proposal and accept it",
	Long:  `Charge the quoted price through Mercado Pago and accept the proposal with the payment reference.`,
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, req, proposalID, err := decisionArgs(ctx, args)
		if err != nil {
			return err
		}
		defer a.Close()

		svc, err := a.checkout()
		if err != nil {
			return err
		}
		updated, payment, err := svc.PayAndAccept(ctx, req, proposalID, checkout.PayerDetails{
			Email:           payEmail,
			CardToken:       payCardToken,
			PaymentMethodID: payMethod,
			Installments:    payInstallments,
		})
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Payment %s %s. Accepted proposal #%d; request is now %s.\n",
			payment.ID, payment.Status, proposalID, updated.Status)
		return nil
	},
}

func init() {
	f := proposalsSubmitCmd.Flags()
	f.StringVar(&submitPrice, "price", "", "Quoted price, e.g. 1500 or 1.500,50")
	f.StringVar(&submitCurrency, "currency", proposals.DefaultCurrency, "ISO 4217 currency code")
	f.StringVar(&submitNotes, "notes", "", "Notes for the client")
	f.StringVar(&submitStart, "start", "", "Proposed start time")
	f.StringVar(&submitEnd, "end", "", "Proposed end time")
	f.StringVar(&submitValidUntil, "valid-until", "", "Offer expiry")
	_ = proposalsSubmitCmd.MarkFlagRequired("price")

	p := proposalsPayCmd.Flags()
	p.StringVar(&payEmail, "email", "", "Payer email")
	p.StringVar(&payCardToken, "card-token", "", "Card token from Mercado Pago checkout")
	p.StringVar(&payMethod, "method", "", "Payment method id, e.g. visa")
	p.IntVar(&payInstallments, "installments", 1, "Number of installments")
}

package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/FacuTaborra/FastServices2.0-sub000/internal/bidding"
	"github.com/FacuTaborra/FastServices2.0-sub000/internal/proposals"
	"github.com/FacuTaborra/FastServices2.0-sub000/internal/provider"
	"github.com/FacuTaborra/FastServices2.0-sub000/internal/requests"
	"github.com/FacuTaborra/FastServices2.0-sub000/shared/models"
)

const timeLayout = "2006-01-02 15:04"

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimPrefix(s, "#"), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q", s)
	}
	return id, nil
}

// parseTime accepts RFC 3339 or "2006-01-02 15:04" in local time. An empty
// string yields nil.
func parseTime(s string) (*time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return &t, nil
	}
	t, err := time.ParseInLocation(timeLayout, s, time.Local)
	if err != nil {
		return nil, fmt.Errorf("invalid time %q (use RFC 3339 or %q)", s, timeLayout)
	}
	return &t, nil
}

func formatTime(t *time.Time) string {
	if t == nil || t.IsZero() {
		return "-"
	}
	return t.Local().Format(timeLayout)
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}

func printRequestRow(w io.Writer, req models.ServiceRequest, now time.Time) {
	extra := ""
	if req.IsLicitacion() && req.BiddingDeadline != nil {
		extra = bidding.Label(req.Status, bidding.ComputeRemaining(*req.BiddingDeadline, now))
	}
	fmt.Fprintf(w, "#%-6d %-11s %-11s %3d  %-40s %s\n",
		req.ID, req.RequestType, req.Status, req.ProposalCount, truncate(req.Title, 40), extra)
}

func printRequest(w io.Writer, req models.ServiceRequest, now time.Time) {
	fmt.Fprintf(w, "=== Request #%d ===\n", req.ID)
	fmt.Fprintf(w, "Title:     %s\n", req.Title)
	fmt.Fprintf(w, "Type:      %s\n", req.RequestType)
	fmt.Fprintf(w, "Status:    %s\n", req.Status)
	if req.Description != "" {
		fmt.Fprintf(w, "Details:   %s\n", req.Description)
	}
	if req.PreferredStartAt != nil || req.PreferredEndAt != nil {
		fmt.Fprintf(w, "Window:    %s to %s\n", formatTime(req.PreferredStartAt), formatTime(req.PreferredEndAt))
	}
	if req.IsLicitacion() && req.BiddingDeadline != nil {
		remaining := bidding.ComputeRemaining(*req.BiddingDeadline, now)
		fmt.Fprintf(w, "Deadline:  %s (%s)\n", formatTime(req.BiddingDeadline), bidding.Label(req.Status, remaining))
	}
	fmt.Fprintf(w, "Created:   %s\n", formatTime(&req.CreatedAt))

	if len(req.Attachments) > 0 {
		fmt.Fprintf(w, "\nAttachments:\n")
		for _, att := range req.Attachments {
			fmt.Fprintf(w, "  %d. %s\n", att.SortOrder+1, att.PublicURL)
		}
	}

	fmt.Fprintf(w, "\nProposals: %d\n", req.ProposalCount)
	printProposals(w, req)
}

// printProposals lists proposals cheapest first. Prices of an open
// LICITACION stay hidden.
func printProposals(w io.Writer, req models.ServiceRequest) {
	if len(req.Proposals) == 0 {
		fmt.Fprintln(w, "  (no proposals yet)")
		return
	}
	visible := requests.PricesVisible(req)
	for _, p := range requests.SortProposals(req.Proposals) {
		price := "(hidden until bidding closes)"
		if visible {
			price = proposals.FormatPrice(p.QuotedPrice, p.Currency)
		}
		fmt.Fprintf(w, "  #%-6d %-10s %s\n", p.ID, p.Status, price)
		if p.Notes != "" {
			fmt.Fprintf(w, "          %s\n", truncate(p.Notes, 80))
		}
	}
}

func printView(w io.Writer, v bidding.View) {
	fmt.Fprintf(w, "#%d %s  %s  proposals: %d", v.RequestID, v.Status, v.Label, v.ProposalCount)
	if v.Mutating {
		fmt.Fprint(w, "  (updating...)")
	}
	if v.LastError != nil {
		fmt.Fprintf(w, "  last error: %v", v.LastError)
	}
	fmt.Fprintln(w)
}

func printProposalRow(w io.Writer, p models.Proposal) {
	fmt.Fprintf(w, "#%-6d request #%-6d %-10s %s\n",
		p.ID, p.RequestID, p.Status, proposals.FormatPrice(p.QuotedPrice, p.Currency))
}

func printServiceRow(w io.Writer, svc models.ProviderService) {
	next := "-"
	if to, ok := provider.NextAction(svc); ok {
		next = string(to)
	}
	fmt.Fprintf(w, "#%-6d request #%-6d %-12s next: %-12s starts: %s\n",
		svc.ID, svc.RequestID, svc.Status, next, formatTime(svc.ScheduledStartAt))
}

func printTimeline(w io.Writer, entries []provider.TimelineEntry) {
	for _, e := range entries {
		mark := " "
		switch e.State {
		case provider.StepDone:
			mark = "x"
		case provider.StepActive:
			mark = ">"
		case provider.StepCanceled:
			mark = "!"
		}
		fmt.Fprintf(w, "[%s] %-12s %s\n", mark, e.Label, formatTime(e.ChangedAt))
	}
}

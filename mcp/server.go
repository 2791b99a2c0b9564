// Package mcp exposes the donation-matching ledger as MCP (Model Context
// Protocol) server tools, so agents can offer, rescind, donate and inspect
// commitments over any MCP transport.
package mcp

import (
	"context"
	"fmt"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	matchfund "github.com/matchfund/matchfund/go"
	"github.com/matchfund/matchfund/go/amount"
)

// offerArgs are the arguments of offer_matching_funds and donate.
type offerArgs struct {
	Account   string `json:"account" jsonschema:"the acting account"`
	Recipient string `json:"recipient" jsonschema:"the recipient account"`
	Amount    string `json:"amount" jsonschema:"token amount, e.g. 0.3"`
}

type queryArgs struct {
	Recipient string `json:"recipient" jsonschema:"the recipient account"`
}

type commitmentsOut struct {
	Commitments map[string]string `json:"commitments"`
}

type messageOut struct {
	Message string `json:"message"`
}

type donateOut struct {
	TransferID              string            `json:"transferId"`
	TotalForwardedBaseUnits string            `json:"totalForwardedBaseUnits"`
	Remaining               map[string]string `json:"remainingCommitments"`
}

// NewServer builds an MCP server exposing the ledger tools. The caller
// connects it to a transport of its choosing.
func NewServer(coordinator *matchfund.Coordinator, version string) *mcpsdk.Server {
	server := mcpsdk.NewServer(&mcpsdk.Implementation{Name: "matchfund", Version: version}, nil)
	query := matchfund.NewQueryService(coordinator.Ledger())

	mcpsdk.AddTool(server, &mcpsdk.Tool{
		Name:        "offer_matching_funds",
		Description: "Pledge capped matching funds toward a recipient. Offers accumulate.",
	}, func(ctx context.Context, _ *mcpsdk.CallToolRequest, in offerArgs) (*mcpsdk.CallToolResult, messageOut, error) {
		amt, err := amount.Parse(in.Amount)
		if err != nil {
			return nil, messageOut{}, err
		}
		result, err := coordinator.Offer(ctx, matchfund.AccountID(in.Account), matchfund.AccountID(in.Recipient), amt)
		if err != nil {
			return nil, messageOut{}, err
		}
		return nil, messageOut{Message: result.Message}, nil
	})

	mcpsdk.AddTool(server, &mcpsdk.Tool{
		Name:        "rescind_matching_funds",
		Description: "Reclaim part or all of an unused pledge. Requests above the committed amount are clamped.",
	}, func(ctx context.Context, _ *mcpsdk.CallToolRequest, in offerArgs) (*mcpsdk.CallToolResult, messageOut, error) {
		amt, err := amount.Parse(in.Amount)
		if err != nil {
			return nil, messageOut{}, err
		}
		result, err := coordinator.Rescind(ctx, matchfund.AccountID(in.Account), matchfund.AccountID(in.Recipient), amt)
		if err != nil {
			return nil, messageOut{}, err
		}
		return nil, messageOut{Message: result.Message}, nil
	})

	mcpsdk.AddTool(server, &mcpsdk.Tool{
		Name:        "donate",
		Description: "Send a donation; every matcher's pledge contributes up to the donation amount and the aggregate is forwarded to the recipient.",
	}, func(ctx context.Context, _ *mcpsdk.CallToolRequest, in offerArgs) (*mcpsdk.CallToolResult, donateOut, error) {
		amt, err := amount.Parse(in.Amount)
		if err != nil {
			return nil, donateOut{}, err
		}
		result, err := coordinator.Donate(ctx, matchfund.AccountID(in.Account), matchfund.AccountID(in.Recipient), amt)
		if err != nil {
			return nil, donateOut{}, err
		}
		remaining := make(map[string]string, len(result.Matches))
		for _, m := range result.Matches {
			remaining[string(m.Matcher)] = m.Remaining.String()
		}
		return nil, donateOut{
			TransferID:              string(result.TransferID),
			TotalForwardedBaseUnits: result.TotalForwarded.String(),
			Remaining:               remaining,
		}, nil
	})

	mcpsdk.AddTool(server, &mcpsdk.Tool{
		Name:        "get_commitments",
		Description: "List the matchers committed to a recipient with their remaining pledges, in base units.",
	}, func(_ context.Context, _ *mcpsdk.CallToolRequest, in queryArgs) (*mcpsdk.CallToolResult, commitmentsOut, error) {
		commitments, err := query.CommitmentMap(matchfund.AccountID(in.Recipient))
		if err != nil {
			return nil, commitmentsOut{}, err
		}
		return nil, commitmentsOut{Commitments: commitments}, nil
	})

	mcpsdk.AddTool(server, &mcpsdk.Tool{
		Name:        "delete_all_matches_for_recipient",
		Description: "Remove every commitment for a recipient and report what was removed.",
	}, func(ctx context.Context, _ *mcpsdk.CallToolRequest, in queryArgs) (*mcpsdk.CallToolResult, commitmentsOut, error) {
		removed, err := coordinator.DeleteAllMatches(ctx, matchfund.AccountID(in.Recipient))
		if err != nil {
			return nil, commitmentsOut{}, err
		}
		out := make(map[string]string, len(removed))
		for matcher, amt := range removed {
			out[string(matcher)] = amt.String()
		}
		return &mcpsdk.CallToolResult{
			Content: []mcpsdk.Content{&mcpsdk.TextContent{
				Text: fmt.Sprintf("removed %d commitments for %s", len(out), in.Recipient),
			}},
		}, commitmentsOut{Commitments: out}, nil
	})

	return server
}

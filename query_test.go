package matchfund

import (
	"context"
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/matchfund/matchfund/go/amount"
	"github.com/matchfund/matchfund/go/transfer/banktest"
)

func TestListCommitmentsSortedByMatcher(t *testing.T) {
	c, _ := newTestCoordinator(banktest.Succeed)
	ctx := context.Background()
	for _, matcher := range []AccountID{"zoe", "alice", "bob"} {
		if _, err := c.Offer(ctx, matcher, "fundraiser", amount.MustParse("0.5")); err != nil {
			t.Fatal(err)
		}
	}

	views, err := NewQueryService(c.Ledger()).ListCommitments("fundraiser")
	if err != nil {
		t.Fatal(err)
	}
	if len(views) != 3 {
		t.Fatalf("got %d views, want 3", len(views))
	}
	for i, want := range []AccountID{"alice", "bob", "zoe"} {
		if views[i].Matcher != want {
			t.Errorf("views[%d] = %s, want %s", i, views[i].Matcher, want)
		}
	}
}

func TestListCommitmentsUnknownRecipientIsEmpty(t *testing.T) {
	c, _ := newTestCoordinator(banktest.Succeed)
	views, err := NewQueryService(c.Ledger()).ListCommitments("nobody")
	if err != nil {
		t.Fatal(err)
	}
	if len(views) != 0 {
		t.Fatalf("got %d views, want none", len(views))
	}
}

func TestCommitmentMap(t *testing.T) {
	c, _ := newTestCoordinator(banktest.Succeed)
	if _, err := c.Offer(context.Background(), "alice", "fundraiser", amount.MustParse("0.3")); err != nil {
		t.Fatal(err)
	}

	m, err := NewQueryService(c.Ledger()).CommitmentMap("fundraiser")
	if err != nil {
		t.Fatal(err)
	}
	if m["alice"] != "300000000000000000000000" {
		t.Fatalf("map[alice] = %s", m["alice"])
	}
}

func TestReportGolden(t *testing.T) {
	c, _ := newTestCoordinator(banktest.Succeed)
	ctx := context.Background()
	if _, err := c.Offer(ctx, "alice", "fundraiser", amount.MustParse("0.3")); err != nil {
		t.Fatal(err)
	}
	if _, err := c.Offer(ctx, "bob", "fundraiser", amount.MustParse("1")); err != nil {
		t.Fatal(err)
	}

	report, err := NewQueryService(c.Ledger()).Report("fundraiser")
	if err != nil {
		t.Fatal(err)
	}

	g := goldie.New(t)
	g.Assert(t, "commitment_report", []byte(report))
}

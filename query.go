package matchfund

import (
	"fmt"
	"strings"

	"github.com/matchfund/matchfund/go/amount"
)

// QueryService is the read-only projection of the ledger used for reporting
// and serialization. It never mutates state; calling it twice without an
// intervening mutation returns identical results.
type QueryService struct {
	ledger *Ledger
}

// NewQueryService creates a query service over the given ledger.
func NewQueryService(ledger *Ledger) *QueryService {
	return &QueryService{ledger: ledger}
}

// ListCommitments returns the recipient's commitments sorted by matcher. A
// recipient with no commitments yields an empty list, not an error: with
// empty buckets deleted eagerly, "never pledged to" and "all pledges spent"
// are indistinguishable here.
func (q *QueryService) ListCommitments(recipient AccountID) ([]CommitmentView, error) {
	bucket, ok, err := q.ledger.Bucket(recipient)
	if err != nil {
		return nil, err
	}
	if !ok {
		return []CommitmentView{}, nil
	}
	views := make([]CommitmentView, 0, len(bucket))
	for _, matcher := range sortedMatchers(bucket) {
		views = append(views, CommitmentView{Matcher: matcher, Amount: bucket[matcher]})
	}
	return views, nil
}

// CommitmentMap returns the commitments as matcher → base-unit amount
// strings, the structured serialization form.
func (q *QueryService) CommitmentMap(recipient AccountID) (map[string]string, error) {
	views, err := q.ListCommitments(recipient)
	if err != nil {
		return nil, err
	}
	out := make(map[string]string, len(views))
	for _, v := range views {
		out[string(v.Matcher)] = v.Amount.String()
	}
	return out, nil
}

// Report renders the human-readable commitment listing for a recipient.
func (q *QueryService) Report(recipient AccountID) (string, error) {
	views, err := q.ListCommitments(recipient)
	if err != nil {
		return "", err
	}
	lines := make([]string, 0, len(views))
	for _, v := range views {
		lines = append(lines, fmt.Sprintf("%s: %s,", v.Matcher, amount.ToHuman(v.Amount)))
	}
	return fmt.Sprintf(
		"These matchers are committed to match donations to %s up to a maximum of the following amounts:\n%s",
		recipient, strings.Join(lines, "\n")), nil
}

// Package gin exposes the donation-matching ledger over HTTP using the Gin
// framework. Request bodies are validated against JSON schemas before the
// coordinator is touched, so malformed input never reaches the ledger.
package gin

import (
	"encoding/json"
	"math/big"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/xeipuuv/gojsonschema"

	matchfund "github.com/matchfund/matchfund/go"
	"github.com/matchfund/matchfund/go/amount"
)

const mutationSchema = `{
	"type": "object",
	"required": ["account", "recipient", "amount"],
	"properties": {
		"account":   {"type": "string", "minLength": 1},
		"recipient": {"type": "string", "minLength": 1},
		"amount":    {"type": "string", "minLength": 1},
		"amountBaseUnits": {"type": "string"}
	},
	"additionalProperties": false
}`

// mutationRequest is the shared body shape of offer, rescind and donate.
// Amount is a human-readable token decimal; AmountBaseUnits, when present,
// takes precedence and is an exact base-unit integer.
type mutationRequest struct {
	Account         string `json:"account"`
	Recipient       string `json:"recipient"`
	Amount          string `json:"amount"`
	AmountBaseUnits string `json:"amountBaseUnits,omitempty"`
}

// Service wires the coordinator and query service into Gin routes.
type Service struct {
	coordinator *matchfund.Coordinator
	query       *matchfund.QueryService
	schema      *gojsonschema.Schema
}

// NewService creates the HTTP service.
func NewService(coordinator *matchfund.Coordinator) (*Service, error) {
	schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(mutationSchema))
	if err != nil {
		return nil, err
	}
	return &Service{
		coordinator: coordinator,
		query:       matchfund.NewQueryService(coordinator.Ledger()),
		schema:      schema,
	}, nil
}

// Register attaches the ledger routes to a router group.
func (s *Service) Register(r gin.IRouter) {
	r.POST("/offer", s.handleOffer)
	r.POST("/rescind", s.handleRescind)
	r.POST("/donate", s.handleDonate)
	r.GET("/commitments/:recipient", s.handleGetCommitments)
	r.DELETE("/commitments/:recipient", s.handleDeleteCommitments)
}

// decodeMutation validates and parses a mutation body. A nil return means a
// response has already been written.
func (s *Service) decodeMutation(c *gin.Context) (*mutationRequest, *big.Int) {
	body, err := c.GetRawData()
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "unreadable body"})
		return nil, nil
	}

	result, err := s.schema.Validate(gojsonschema.NewBytesLoader(body))
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "malformed JSON"})
		return nil, nil
	}
	if !result.Valid() {
		errs := make([]string, 0, len(result.Errors()))
		for _, re := range result.Errors() {
			errs = append(errs, re.String())
		}
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid request", "details": errs})
		return nil, nil
	}

	var req mutationRequest
	if err := json.Unmarshal(body, &req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "malformed JSON"})
		return nil, nil
	}

	var amt *big.Int
	if req.AmountBaseUnits != "" {
		amt, err = amount.FromBaseUnits(req.AmountBaseUnits)
	} else {
		amt, err = amount.Parse(req.Amount)
	}
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return nil, nil
	}
	return &req, amt
}

func (s *Service) handleOffer(c *gin.Context) {
	req, amt := s.decodeMutation(c)
	if req == nil {
		return
	}
	result, err := s.coordinator.Offer(c.Request.Context(),
		matchfund.AccountID(req.Account), matchfund.AccountID(req.Recipient), amt)
	if err != nil {
		writeLedgerError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message":        result.Message,
		"matcher":        result.Matcher,
		"recipient":      result.Recipient,
		"totalBaseUnits": result.Total.String(),
	})
}

func (s *Service) handleRescind(c *gin.Context) {
	req, amt := s.decodeMutation(c)
	if req == nil {
		return
	}
	result, err := s.coordinator.Rescind(c.Request.Context(),
		matchfund.AccountID(req.Account), matchfund.AccountID(req.Recipient), amt)
	if err != nil {
		writeLedgerError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message":            result.Message,
		"transferId":         result.TransferID,
		"rescindedBaseUnits": result.Rescinded.String(),
		"remainingBaseUnits": result.Remaining.String(),
	})
}

func (s *Service) handleDonate(c *gin.Context) {
	req, amt := s.decodeMutation(c)
	if req == nil {
		return
	}
	result, err := s.coordinator.Donate(c.Request.Context(),
		matchfund.AccountID(req.Account), matchfund.AccountID(req.Recipient), amt)
	if err != nil {
		writeLedgerError(c, err)
		return
	}
	matches := make([]gin.H, 0, len(result.Matches))
	for _, m := range result.Matches {
		matches = append(matches, gin.H{
			"matcher":            m.Matcher,
			"matchedBaseUnits":   m.Matched.String(),
			"remainingBaseUnits": m.Remaining.String(),
		})
	}
	c.JSON(http.StatusOK, gin.H{
		"transferId":              result.TransferID,
		"totalForwardedBaseUnits": result.TotalForwarded.String(),
		"matches":                 matches,
	})
}

func (s *Service) handleGetCommitments(c *gin.Context) {
	commitments, err := s.query.CommitmentMap(matchfund.AccountID(c.Param("recipient")))
	if err != nil {
		writeLedgerError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"commitments": commitments})
}

func (s *Service) handleDeleteCommitments(c *gin.Context) {
	removed, err := s.coordinator.DeleteAllMatches(c.Request.Context(),
		matchfund.AccountID(c.Param("recipient")))
	if err != nil {
		writeLedgerError(c, err)
		return
	}
	out := make(map[string]string, len(removed))
	for matcher, amt := range removed {
		out[string(matcher)] = amt.String()
	}
	c.JSON(http.StatusOK, gin.H{"removed": out})
}

func writeLedgerError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch matchfund.ErrorCode(err) {
	case matchfund.ErrCodeValidationFailed:
		status = http.StatusBadRequest
	case matchfund.ErrCodeNoSuchRecipient, matchfund.ErrCodeNoSuchMatcher, matchfund.ErrCodeUnknownTransfer:
		status = http.StatusNotFound
	case matchfund.ErrCodeTransferFailed:
		status = http.StatusBadGateway
	}
	c.AbortWithStatusJSON(status, gin.H{"error": err.Error()})
}

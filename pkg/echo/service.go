// Package echo exposes the donation-matching ledger over HTTP using the
// Echo framework, mirroring the Gin binding for deployments already on Echo.
package echo

import (
	"math/big"
	"net/http"

	"github.com/labstack/echo/v4"

	matchfund "github.com/matchfund/matchfund/go"
	"github.com/matchfund/matchfund/go/amount"
)

type mutationRequest struct {
	Account         string `json:"account"`
	Recipient       string `json:"recipient"`
	Amount          string `json:"amount"`
	AmountBaseUnits string `json:"amountBaseUnits,omitempty"`
}

// Service wires the coordinator and query service into Echo routes.
type Service struct {
	coordinator *matchfund.Coordinator
	query       *matchfund.QueryService
}

// NewService creates the HTTP service.
func NewService(coordinator *matchfund.Coordinator) *Service {
	return &Service{
		coordinator: coordinator,
		query:       matchfund.NewQueryService(coordinator.Ledger()),
	}
}

// Register attaches the ledger routes.
func (s *Service) Register(e *echo.Echo) {
	e.POST("/offer", s.handleOffer)
	e.POST("/rescind", s.handleRescind)
	e.POST("/donate", s.handleDonate)
	e.GET("/commitments/:recipient", s.handleGetCommitments)
	e.DELETE("/commitments/:recipient", s.handleDeleteCommitments)
}

func (s *Service) decodeMutation(c echo.Context) (*mutationRequest, *big.Int, error) {
	var req mutationRequest
	if err := c.Bind(&req); err != nil {
		return nil, nil, echo.NewHTTPError(http.StatusBadRequest, "malformed JSON")
	}
	if req.Account == "" || req.Recipient == "" || (req.Amount == "" && req.AmountBaseUnits == "") {
		return nil, nil, echo.NewHTTPError(http.StatusBadRequest, "account, recipient and amount are required")
	}

	var (
		amt *big.Int
		err error
	)
	if req.AmountBaseUnits != "" {
		amt, err = amount.FromBaseUnits(req.AmountBaseUnits)
	} else {
		amt, err = amount.Parse(req.Amount)
	}
	if err != nil {
		return nil, nil, echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return &req, amt, nil
}

func (s *Service) handleOffer(c echo.Context) error {
	req, amt, err := s.decodeMutation(c)
	if err != nil {
		return err
	}
	result, err := s.coordinator.Offer(c.Request().Context(),
		matchfund.AccountID(req.Account), matchfund.AccountID(req.Recipient), amt)
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"message":        result.Message,
		"matcher":        result.Matcher,
		"recipient":      result.Recipient,
		"totalBaseUnits": result.Total.String(),
	})
}

func (s *Service) handleRescind(c echo.Context) error {
	req, amt, err := s.decodeMutation(c)
	if err != nil {
		return err
	}
	result, err := s.coordinator.Rescind(c.Request().Context(),
		matchfund.AccountID(req.Account), matchfund.AccountID(req.Recipient), amt)
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"message":            result.Message,
		"transferId":         result.TransferID,
		"rescindedBaseUnits": result.Rescinded.String(),
		"remainingBaseUnits": result.Remaining.String(),
	})
}

func (s *Service) handleDonate(c echo.Context) error {
	req, amt, err := s.decodeMutation(c)
	if err != nil {
		return err
	}
	result, err := s.coordinator.Donate(c.Request().Context(),
		matchfund.AccountID(req.Account), matchfund.AccountID(req.Recipient), amt)
	if err != nil {
		return toHTTPError(err)
	}
	matches := make([]map[string]string, 0, len(result.Matches))
	for _, m := range result.Matches {
		matches = append(matches, map[string]string{
			"matcher":            string(m.Matcher),
			"matchedBaseUnits":   m.Matched.String(),
			"remainingBaseUnits": m.Remaining.String(),
		})
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"transferId":              result.TransferID,
		"totalForwardedBaseUnits": result.TotalForwarded.String(),
		"matches":                 matches,
	})
}

func (s *Service) handleGetCommitments(c echo.Context) error {
	commitments, err := s.query.CommitmentMap(matchfund.AccountID(c.Param("recipient")))
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"commitments": commitments})
}

func (s *Service) handleDeleteCommitments(c echo.Context) error {
	removed, err := s.coordinator.DeleteAllMatches(c.Request().Context(),
		matchfund.AccountID(c.Param("recipient")))
	if err != nil {
		return toHTTPError(err)
	}
	out := make(map[string]string, len(removed))
	for matcher, amt := range removed {
		out[string(matcher)] = amt.String()
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"removed": out})
}

func toHTTPError(err error) error {
	status := http.StatusInternalServerError
	switch matchfund.ErrorCode(err) {
	case matchfund.ErrCodeValidationFailed:
		status = http.StatusBadRequest
	case matchfund.ErrCodeNoSuchRecipient, matchfund.ErrCodeNoSuchMatcher, matchfund.ErrCodeUnknownTransfer:
		status = http.StatusNotFound
	case matchfund.ErrCodeTransferFailed:
		status = http.StatusBadGateway
	}
	return echo.NewHTTPError(status, err.Error())
}

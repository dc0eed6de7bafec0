package server

import (
	"math"
	"net/http"
	"strconv"
	"strings"

	"github.com/iwvelando/brrrr-analyzer/internal/brrrr"
	"github.com/iwvelando/brrrr-analyzer/internal/extraction"
	"github.com/iwvelando/brrrr-analyzer/internal/heloc"
	"github.com/iwvelando/brrrr-analyzer/internal/optimizer"
	"github.com/iwvelando/brrrr-analyzer/internal/sensitivity"
	"github.com/iwvelando/brrrr-analyzer/internal/timeline"
	"github.com/iwvelando/brrrr-analyzer/pkg/rules"
	"github.com/iwvelando/brrrr-analyzer/pkg/transfertax"
	"github.com/iwvelando/brrrr-analyzer/pkg/validation"
	"go.uber.org/zap"
)

func (h *handler) handleCalculate(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleCalculate"
	var in validation.PropertyFinancials
	if status, err := h.readBody(w, r, &in); err != nil {
		h.respondDecodeError(w, r, status, err, op)
		return
	}

	snapshot := h.engine.Rules()
	h.cached(w, r, "calculate", snapshot.Version(), in, func() (any, error) {
		return h.engine.AnalyzeWith(in, snapshot)
	})
}

func (h *handler) handleQuickMetrics(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleQuickMetrics"
	var in brrrr.QuickInput
	if status, err := h.readBody(w, r, &in); err != nil {
		h.respondDecodeError(w, r, status, err, op)
		return
	}

	metrics, err := h.engine.QuickMetrics(in)
	if err != nil {
		h.respondFailure(w, r, err, op)
		return
	}
	h.writeJSON(w, http.StatusOK, metrics)
}

type sensitivityRequest struct {
	Property validation.PropertyFinancials `json:"property" yaml:"property"`
	Var1     sensitivity.Axis              `json:"var1" yaml:"var1"`
	Var2     sensitivity.Axis              `json:"var2" yaml:"var2"`
}

func (h *handler) handleSensitivity(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleSensitivity"
	var req sensitivityRequest
	if status, err := h.readBody(w, r, &req); err != nil {
		h.respondDecodeError(w, r, status, err, op)
		return
	}

	snapshot := h.engine.Rules()
	h.cached(w, r, "sensitivity", snapshot.Version(), req, func() (any, error) {
		return h.matrices.GenerateWith(r.Context(), req.Property, req.Var1, req.Var2, snapshot)
	})
}

type timelineRequest struct {
	Property      validation.PropertyFinancials `json:"property" yaml:"property"`
	HorizonMonths int                           `json:"horizonMonths,omitempty" yaml:"horizonMonths,omitempty"`
	StartDate     string                        `json:"startDate,omitempty" yaml:"startDate,omitempty"`
}

type timelineResponse struct {
	Result   brrrr.Result      `json:"result"`
	Timeline timeline.Timeline `json:"timeline"`
}

func (h *handler) handleTimeline(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleTimeline"
	var req timelineRequest
	if status, err := h.readBody(w, r, &req); err != nil {
		h.respondDecodeError(w, r, status, err, op)
		return
	}
	if req.HorizonMonths == 0 {
		req.HorizonMonths = h.horizon
	}

	snapshot := h.engine.Rules()
	h.cached(w, r, "timeline", snapshot.Version(), req, func() (any, error) {
		result, err := h.engine.AnalyzeWith(req.Property, snapshot)
		if err != nil {
			return nil, err
		}
		tl, err := timeline.Build(h.logger, result, req.HorizonMonths)
		if err != nil {
			return nil, err
		}
		if req.StartDate != "" {
			if tl, err = tl.WithCalendar(req.StartDate); err != nil {
				return nil, err
			}
		}
		return timelineResponse{Result: result, Timeline: tl}, nil
	})
}

func (h *handler) handleOptimize(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleOptimize"
	var req optimizer.Request
	if status, err := h.readBody(w, r, &req); err != nil {
		h.respondDecodeError(w, r, status, err, op)
		return
	}
	req.Normalize()

	snapshot := h.engine.Rules()
	h.cached(w, r, "optimize", snapshot.Version(), req, func() (any, error) {
		return h.solver.RunWith(r.Context(), req, snapshot)
	})
}

func (h *handler) handleHelocCapacity(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleHelocCapacity"
	var in heloc.Input
	if status, err := h.readBody(w, r, &in); err != nil {
		h.respondDecodeError(w, r, status, err, op)
		return
	}

	result, err := heloc.Capacity(in, h.engine.Rules())
	if err != nil {
		h.respondFailure(w, r, err, op)
		return
	}
	h.writeJSON(w, http.StatusOK, result)
}

type scheduleRequest struct {
	Principal         *float64 `json:"principal" yaml:"principal" shape:"required,finite,gte=0"`
	Rate              *float64 `json:"rate" yaml:"rate" shape:"required,finite,gte=0"`
	AmortizationYears *int     `json:"amortizationYears" yaml:"amortizationYears" shape:"required,gt=0"`
	Months            int      `json:"months,omitempty" yaml:"months,omitempty" shape:"gte=0"`
}

func (h *handler) handleSchedule(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleSchedule"
	var req scheduleRequest
	if status, err := h.readBody(w, r, &req); err != nil {
		h.respondDecodeError(w, r, status, err, op)
		return
	}
	if err := validation.CheckShape(req); err != nil {
		h.respondFailure(w, r, err, op)
		return
	}

	schedule, err := h.schedules.Generate(*req.Principal, *req.Rate, *req.AmortizationYears, req.Months)
	if err != nil {
		h.respondFailure(w, r, err, op)
		return
	}
	h.writeJSON(w, http.StatusOK, schedule)
}

func (h *handler) handleTransferTax(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleTransferTax"
	query := r.URL.Query()

	price, err := strconv.ParseFloat(strings.TrimSpace(query.Get("price")), 64)
	if err != nil || math.IsNaN(price) || math.IsInf(price, 0) || price < 0 {
		h.respondFailure(w, r, &validation.MalformedInputError{Field: "price", Reason: "must be a non-negative number"}, op)
		return
	}

	municipality := h.engine.Assumptions().Municipality
	if raw := strings.TrimSpace(query.Get("municipality")); raw != "" {
		municipality = transfertax.Municipality(strings.ToUpper(raw))
		if !transfertax.IsKnown(municipality) {
			h.respondFailure(w, r, &validation.MalformedInputError{Field: "municipality", Reason: "unknown municipality " + raw}, op)
			return
		}
	}

	h.writeJSON(w, http.StatusOK, transfertax.CalculateBreakdown(price, municipality))
}

type municipalityResponse struct {
	PostalCode   string                   `json:"postalCode"`
	Municipality transfertax.Municipality `json:"municipality"`
	Name         string                   `json:"name"`
}

func (h *handler) handleMunicipality(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleMunicipality"
	postalCode := strings.TrimSpace(r.URL.Query().Get("postalCode"))
	if postalCode == "" {
		h.respondFailure(w, r, &validation.MalformedInputError{Field: "postalCode", Reason: "is required"}, op)
		return
	}

	m := transfertax.MunicipalityFromPostalCode(postalCode)
	table, _ := transfertax.Lookup(m)
	h.writeJSON(w, http.StatusOK, municipalityResponse{
		PostalCode:   postalCode,
		Municipality: m,
		Name:         table.Name,
	})
}

type bsifResponse struct {
	HelocRotatingMaxLTV float64 `json:"helocRotatingMaxLtv"`
	RefinanceMaxLTV     float64 `json:"refinanceMaxLtv"`
	RefinanceMinLTV     float64 `json:"refinanceMinLtv"`
	StressTestBuffer    float64 `json:"stressTestBuffer"`
	StressTestFloor     float64 `json:"stressTestFloor"`
	MinCommercialDSCR   float64 `json:"minCommercialDscr"`
	Source              string  `json:"source"`
	LastUpdated         string  `json:"lastUpdated"`
	Version             string  `json:"version"`
}

func (h *handler) handleRulesBSIF(w http.ResponseWriter, r *http.Request) {
	current := h.engine.Rules()
	h.writeJSON(w, http.StatusOK, bsifResponse{
		HelocRotatingMaxLTV: current.HelocRotatingMaxLTV,
		RefinanceMaxLTV:     current.RefinanceMaxLTV,
		RefinanceMinLTV:     current.RefinanceMinLTV,
		StressTestBuffer:    current.StressTestBuffer,
		StressTestFloor:     current.StressTestFloor,
		MinCommercialDSCR:   current.MinCommercialDSCR,
		Source:              current.Source,
		LastUpdated:         current.LastUpdated,
		Version:             current.Version(),
	})
}

type mliSelectRules struct {
	MinUnits             int     `json:"minUnits"`
	MaxAmortizationYears int     `json:"maxAmortizationYears"`
	MaxLTV               float64 `json:"maxLtv"`
}

type cmhcResponse struct {
	InsuranceThresholdPercent   float64          `json:"insuranceThresholdPercent"`
	MinDownPaymentPercent       float64          `json:"minDownPaymentPercent"`
	Tiers                       []rules.CMHCTier `json:"tiers"`
	PremiumSalesTaxRate         float64          `json:"premiumSalesTaxRate"`
	MaxInsurablePrice           float64          `json:"maxInsurablePrice"`
	MaxInsurableUnits           int              `json:"maxInsurableUnits"`
	MaxInsuredAmortizationYears int              `json:"maxInsuredAmortizationYears"`
	MLISelect                   mliSelectRules   `json:"mliSelect"`
	Version                     string           `json:"version"`
}

func (h *handler) handleRulesCMHC(w http.ResponseWriter, r *http.Request) {
	current := h.engine.Rules()
	h.writeJSON(w, http.StatusOK, cmhcResponse{
		InsuranceThresholdPercent:   current.InsuranceThresholdPercent,
		MinDownPaymentPercent:       current.MinDownPaymentPercent,
		Tiers:                       current.CMHCTiers,
		PremiumSalesTaxRate:         current.PremiumSalesTaxRate,
		MaxInsurablePrice:           current.MaxInsurablePrice,
		MaxInsurableUnits:           current.MaxInsurableUnits,
		MaxInsuredAmortizationYears: current.MaxInsuredAmortizationYears,
		MLISelect: mliSelectRules{
			MinUnits:             current.MLISelectMinUnits,
			MaxAmortizationYears: current.MLISelectMaxAmortizationYears,
			MaxLTV:               current.MLISelectMaxLTV,
		},
		Version: current.Version(),
	})
}

type extractionRequest struct {
	Data      extraction.ExtractedPropertyData `json:"data" yaml:"data"`
	Overrides validation.PropertyFinancials    `json:"overrides" yaml:"overrides"`
}

type extractionResponse struct {
	extraction.Mapping
	Complete bool `json:"complete"`
}

func (h *handler) handleExtractionMap(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleExtractionMap"
	var req extractionRequest
	if status, err := h.readBody(w, r, &req); err != nil {
		h.respondDecodeError(w, r, status, err, op)
		return
	}

	mapping, err := extraction.Map(req.Data, req.Overrides)
	if err != nil {
		h.respondFailure(w, r, err, op)
		return
	}
	h.logger.Debug("extraction mapped",
		zap.String("op", op),
		zap.String("source", string(req.Data.Source)),
		zap.Strings("missing", mapping.Missing),
	)
	h.writeJSON(w, http.StatusOK, extractionResponse{Mapping: mapping, Complete: mapping.Complete()})
}

type healthResponse struct {
	Status       string `json:"status"`
	Version      string `json:"version"`
	RulesVersion string `json:"rulesVersion"`
}

func (h *handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, healthResponse{
		Status:       "ok",
		Version:      h.version,
		RulesVersion: h.engine.Rules().Version(),
	})
}

// respondDecodeError reports a body that could not be read or decoded.
func (h *handler) respondDecodeError(w http.ResponseWriter, r *http.Request, status int, err error, op string) {
	if status == http.StatusBadRequest {
		h.respondFailure(w, r, err, op)
		return
	}
	h.respondErrorWithOp(w, r, status, err.Error(), op)
}

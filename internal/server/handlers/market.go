package handlers

import (
	"net/http"
	"strings"

	apperrors "github.com/stockhub-kr/stockhub/internal/errors"
)

// maxSymbolsPerRequest caps a market-data fan-out.
const maxSymbolsPerRequest = 20

// MarketData handles GET /api/market-data?symbols=AAPL,MSFT via Finnhub.
// Failed symbols come back as placeholder rows, never an error.
func (a *API) MarketData(w http.ResponseWriter, r *http.Request) {
	if a.Finnhub == nil {
		respondUnavailable(w, r, "market data provider")
		return
	}

	raw := strings.TrimSpace(r.URL.Query().Get("symbols"))
	if raw == "" {
		respondWithError(w, r, apperrors.NewInvalidInputError("symbols query parameter is required"))
		return
	}

	symbols := []string{}
	for _, s := range strings.Split(raw, ",") {
		if s = strings.TrimSpace(s); s != "" {
			symbols = append(symbols, s)
		}
	}
	if len(symbols) == 0 {
		respondWithError(w, r, apperrors.NewInvalidInputError("symbols query parameter is required"))
		return
	}
	if len(symbols) > maxSymbolsPerRequest {
		symbols = symbols[:maxSymbolsPerRequest]
	}

	writeJSON(w, http.StatusOK, a.Finnhub.Quotes(r.Context(), symbols))
}

// StockPrice handles GET /api/stock-price?ticker= via the Yahoo chart API.
func (a *API) StockPrice(w http.ResponseWriter, r *http.Request) {
	if a.Yahoo == nil {
		respondUnavailable(w, r, "price provider")
		return
	}

	ticker := strings.TrimSpace(r.URL.Query().Get("ticker"))
	if ticker == "" {
		respondWithError(w, r, apperrors.NewInvalidInputError("ticker query parameter is required"))
		return
	}

	quote, err := a.Yahoo.Quote(r.Context(), ticker)
	if err != nil {
		respondWithError(w, r, apperrors.WrapExternalService(r.Context(), err, "price lookup failed"))
		return
	}
	if quote == nil {
		respondWithError(w, r, apperrors.NewNotFoundError("no price data for ticker"))
		return
	}
	writeJSON(w, http.StatusOK, quote)
}

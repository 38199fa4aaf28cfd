package handler

import (
	"encoding/json"
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/dandoingdev/ledger/internal/adapter/http/dto"
	"github.com/dandoingdev/ledger/internal/infrastructure/metrics"
	"github.com/dandoingdev/ledger/internal/usecase"
)

// AccountHandler handles account directory requests.
type AccountHandler struct {
	accountUC *usecase.AccountUseCase
	ledgerUC  *usecase.LedgerUseCase
	metrics   *metrics.Metrics
}

// NewAccountHandler creates a new AccountHandler. m may be nil.
func NewAccountHandler(accountUC *usecase.AccountUseCase, ledgerUC *usecase.LedgerUseCase, m *metrics.Metrics) *AccountHandler {
	return &AccountHandler{accountUC: accountUC, ledgerUC: ledgerUC, metrics: m}
}

// Register registers an accountable entity.
func (h *AccountHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req dto.RegisterAccountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	account, err := h.accountUC.RegisterAccount(r.Context(), usecase.RegisterAccountInput{
		Type:     req.Type,
		ID:       req.ID,
		Name:     req.Name,
		Currency: req.Currency,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}

	if h.metrics != nil {
		h.metrics.AccountsRegistered.Inc()
	}

	writeJSON(w, http.StatusCreated, dto.AccountFromDomain(account, decimal.Zero))
}

// Get returns an account with its derived balance.
func (h *AccountHandler) Get(w http.ResponseWriter, r *http.Request) {
	ref, ok := refFromRequest(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "missing account type or id", "")
		return
	}

	account, err := h.accountUC.GetAccount(r.Context(), ref)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	balance, err := h.ledgerUC.Balance(r.Context(), ref)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.AccountFromDomain(account, balance))
}

// List lists registered accounts.
func (h *AccountHandler) List(w http.ResponseWriter, r *http.Request) {
	accounts, err := h.accountUC.ListAccounts(r.Context(), usecase.ListAccountsInput{
		Limit:  parseIntQuery(r, "limit", 0),
		Offset: parseIntQuery(r, "offset", 0),
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}

	result := make([]*dto.AccountResponse, 0, len(accounts))

	for _, account := range accounts {
		balance, err := h.ledgerUC.Balance(r.Context(), account.AccountRef)
		if err != nil {
			writeDomainError(w, err)
			return
		}

		result = append(result, dto.AccountFromDomain(account, balance))
	}

	writeJSON(w, http.StatusOK, result)
}

package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/dandoingdev/ledger/internal/adapter/http/dto"
	"github.com/dandoingdev/ledger/internal/domain"
	"github.com/dandoingdev/ledger/internal/infrastructure/metrics"
	"github.com/dandoingdev/ledger/internal/usecase"
)

// LedgerHandler handles ledger write operations and balance reads.
type LedgerHandler struct {
	ledgerUC *usecase.LedgerUseCase
	metrics  *metrics.Metrics
}

// NewLedgerHandler creates a new LedgerHandler. m may be nil.
func NewLedgerHandler(ledgerUC *usecase.LedgerUseCase, m *metrics.Metrics) *LedgerHandler {
	return &LedgerHandler{ledgerUC: ledgerUC, metrics: m}
}

// Credit credits the account in the URL.
func (h *LedgerHandler) Credit(w http.ResponseWriter, r *http.Request) {
	ref, ok := refFromRequest(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "missing account type or id", "")
		return
	}

	var req dto.CreditRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	start := time.Now()

	entry, err := h.ledgerUC.Credit(r.Context(), usecase.CreditInput{
		To:        ref,
		FromLabel: req.From,
		Amount:    req.Amount,
		Currency:  req.Currency,
		Reason:    req.Reason,
	})

	h.record("credit", start, err)

	if err != nil {
		writeDomainError(w, err)
		return
	}

	h.written(entry)

	writeJSON(w, http.StatusCreated, dto.EntryFromDomain(entry))
}

// Debit debits the account in the URL.
func (h *LedgerHandler) Debit(w http.ResponseWriter, r *http.Request) {
	ref, ok := refFromRequest(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "missing account type or id", "")
		return
	}

	var req dto.DebitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	start := time.Now()

	entry, err := h.ledgerUC.Debit(r.Context(), usecase.DebitInput{
		From:     ref,
		ToLabel:  req.To,
		Amount:   req.Amount,
		Currency: req.Currency,
		Reason:   req.Reason,
	})

	h.record("debit", start, err)

	if err != nil {
		writeDomainError(w, err)
		return
	}

	h.written(entry)

	writeJSON(w, http.StatusCreated, dto.EntryFromDomain(entry))
}

// TopUp credits the account in the URL with no originating counterparty.
func (h *LedgerHandler) TopUp(w http.ResponseWriter, r *http.Request) {
	ref, ok := refFromRequest(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "missing account type or id", "")
		return
	}

	var req dto.TopUpRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	start := time.Now()

	entry, err := h.ledgerUC.TopUp(r.Context(), usecase.TopUpInput{
		To:       ref,
		Amount:   req.Amount,
		Currency: req.Currency,
		Reason:   req.Reason,
	})

	h.record("topup", start, err)

	if err != nil {
		writeDomainError(w, err)
		return
	}

	h.written(entry)

	writeJSON(w, http.StatusCreated, dto.EntryFromDomain(entry))
}

// Transfer moves funds from one account to one or more recipients. The
// response shape follows the request: a single recipient yields one receipt,
// an array yields an array.
func (h *LedgerHandler) Transfer(w http.ResponseWriter, r *http.Request) {
	ref, ok := refFromRequest(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "missing account type or id", "")
		return
	}

	var req dto.TransferRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	start := time.Now()

	receipts, err := h.ledgerUC.TransferMany(r.Context(), usecase.MultiTransferInput{
		From:     ref,
		To:       req.To.ToDomain(),
		Amount:   req.Amount,
		Currency: req.Currency,
		Reason:   req.Reason,
	})

	h.record("transfer", start, err)

	if err != nil {
		writeDomainError(w, err)
		return
	}

	h.written(receipts...)

	if req.To.Single {
		writeJSON(w, http.StatusCreated, dto.EntryFromDomain(receipts[0]))
		return
	}

	writeJSON(w, http.StatusCreated, dto.EntriesFromDomain(receipts))
}

// Balance returns the derived balance of the account in the URL.
func (h *LedgerHandler) Balance(w http.ResponseWriter, r *http.Request) {
	ref, ok := refFromRequest(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "missing account type or id", "")
		return
	}

	balance, err := h.ledgerUC.Balance(r.Context(), ref)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	if h.metrics != nil {
		h.metrics.BalanceReads.Inc()
	}

	writeJSON(w, http.StatusOK, dto.BalanceResponse{
		Owner:   dto.AccountRefDTO{Type: ref.Type, ID: ref.ID},
		Balance: balance,
	})
}

// Audit verifies the account's derived balance against the snapshot on its
// newest entry.
func (h *LedgerHandler) Audit(w http.ResponseWriter, r *http.Request) {
	ref, ok := refFromRequest(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "missing account type or id", "")
		return
	}

	result, err := h.ledgerUC.Audit(r.Context(), ref)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	if h.metrics != nil {
		h.metrics.AuditChecks.Inc()
		if !result.Consistent {
			h.metrics.AuditFailures.Inc()
		}
	}

	writeJSON(w, http.StatusOK, dto.AuditResponse{
		Owner:           dto.AccountRefDTO{Type: ref.Type, ID: ref.ID},
		Consistent:      result.Consistent,
		DerivedBalance:  result.DerivedBalance,
		SnapshotBalance: result.SnapshotBalance,
		LastEntryID:     result.LastEntryID,
		CheckedAt:       result.CheckedAt,
	})
}

func (h *LedgerHandler) written(entries ...*domain.Entry) {
	if h.metrics == nil {
		return
	}

	for _, entry := range entries {
		h.metrics.EntriesWritten.WithLabelValues(string(entry.Direction)).Inc()
		amount, _ := entry.Amount.Float64()
		h.metrics.EntryAmount.Observe(amount)
	}
}

func (h *LedgerHandler) record(op string, start time.Time, err error) {
	if h.metrics == nil {
		return
	}

	h.metrics.OperationDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())

	if err != nil {
		h.metrics.OperationErrors.WithLabelValues(op, errorKind(err)).Inc()
	}
}

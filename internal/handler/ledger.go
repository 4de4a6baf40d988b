package handler

import (
	"log"
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/jshauns81/daily-bread/internal/ledger"
	"github.com/jshauns81/daily-bread/internal/store"
)

type LedgerHandler struct {
	ledger     *store.LedgerStore
	profiles   *store.ProfileStore
	reconciler *ledger.Reconciler
}

func NewLedgerHandler(ls *store.LedgerStore, ps *store.ProfileStore, rec *ledger.Reconciler) *LedgerHandler {
	return &LedgerHandler{ledger: ls, profiles: ps, reconciler: rec}
}

type createAccountRequest struct {
	Name      string `json:"name"`
	IsDefault bool   `json:"is_default"`
}

func (h *LedgerHandler) CreateAccount(w http.ResponseWriter, r *http.Request) {
	profileID, err := parseIDParam(r)
	if err != nil {
		writeErr(w, http.StatusBadRequest, "invalid profile id")
		return
	}
	p, err := h.profiles.GetByID(profileID)
	if err != nil {
		log.Printf("failed to get profile: %v", err)
		writeErr(w, http.StatusInternalServerError, "failed to get profile")
		return
	}
	if p == nil {
		writeErr(w, http.StatusNotFound, "profile not found")
		return
	}

	var req createAccountRequest
	if err := decodeJSON(r, &req); err != nil {
		writeErr(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Name == "" {
		writeErr(w, http.StatusBadRequest, "name is required")
		return
	}
	a, err := h.ledger.CreateAccount(profileID, req.Name, req.IsDefault)
	if err != nil {
		log.Printf("failed to create account: %v", err)
		writeErr(w, http.StatusInternalServerError, "failed to create account")
		return
	}
	writeJSON(w, http.StatusCreated, a)
}

func (h *LedgerHandler) ListAccounts(w http.ResponseWriter, r *http.Request) {
	profileID, err := parseIDParam(r)
	if err != nil {
		writeErr(w, http.StatusBadRequest, "invalid profile id")
		return
	}
	accounts, err := h.ledger.ListAccountsByProfile(profileID)
	if err != nil {
		log.Printf("failed to list accounts: %v", err)
		writeErr(w, http.StatusInternalServerError, "failed to list accounts")
		return
	}
	writeJSON(w, http.StatusOK, accounts)
}

func (h *LedgerHandler) DeactivateAccount(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeErr(w, http.StatusBadRequest, "invalid account id")
		return
	}
	if err := h.ledger.DeactivateAccount(id); err != nil {
		log.Printf("failed to deactivate account: %v", err)
		writeErr(w, http.StatusInternalServerError, "failed to deactivate account")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *LedgerHandler) Balance(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeErr(w, http.StatusBadRequest, "invalid account id")
		return
	}
	a, err := h.ledger.GetAccountByID(id)
	if err != nil {
		log.Printf("failed to get account: %v", err)
		writeErr(w, http.StatusInternalServerError, "failed to get account")
		return
	}
	if a == nil {
		writeErr(w, http.StatusNotFound, "account not found")
		return
	}
	balance, err := h.ledger.Balance(id)
	if err != nil {
		log.Printf("failed to compute balance: %v", err)
		writeErr(w, http.StatusInternalServerError, "failed to compute balance")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"account_id": id,
		"balance":    balance,
	})
}

func (h *LedgerHandler) ListTransactions(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeErr(w, http.StatusBadRequest, "invalid account id")
		return
	}
	txs, err := h.ledger.ListTransactionsByAccount(id)
	if err != nil {
		log.Printf("failed to list transactions: %v", err)
		writeErr(w, http.StatusInternalServerError, "failed to list transactions")
		return
	}
	writeJSON(w, http.StatusOK, txs)
}

type transferRequest struct {
	FromAccountID int64           `json:"from_account_id"`
	ToAccountID   int64           `json:"to_account_id"`
	Amount        decimal.Decimal `json:"amount"`
	Reason        string          `json:"reason"`
}

func (h *LedgerHandler) Transfer(w http.ResponseWriter, r *http.Request) {
	var req transferRequest
	if err := decodeJSON(r, &req); err != nil {
		writeErr(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.reconciler.Transfer(req.FromAccountID, req.ToAccountID, req.Amount, req.Reason); err != nil {
		writeDomainErr(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type payoutRequest struct {
	AccountID int64           `json:"account_id"`
	Amount    decimal.Decimal `json:"amount"`
	Reason    string          `json:"reason"`
}

func (h *LedgerHandler) Payout(w http.ResponseWriter, r *http.Request) {
	var req payoutRequest
	if err := decodeJSON(r, &req); err != nil {
		writeErr(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.reconciler.Payout(req.AccountID, req.Amount, req.Reason); err != nil {
		writeDomainErr(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *LedgerHandler) Adjust(w http.ResponseWriter, r *http.Request) {
	var req payoutRequest
	if err := decodeJSON(r, &req); err != nil {
		writeErr(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.reconciler.Adjust(req.AccountID, req.Amount, req.Reason); err != nil {
		writeDomainErr(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

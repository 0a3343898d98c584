package api

import (
	"encoding/json"
	"github.com/Gish2003/mock-bank-app/internal/domain/models"
	"github.com/Gish2003/mock-bank-app/internal/lib/apperr"
	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"
	"net/http"
	"strconv"
	"time"
)

const msgInvalidBody = "Invalid request body"

func decodeBody(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return apperr.Validation(msgInvalidBody)
	}
	return nil
}

func (s *APIServer) notFoundHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusNotFound, Response{Message: "Endpoint not found"})
}

func (s *APIServer) indexHandler() func(http.ResponseWriter, *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		writeOK(w, http.StatusOK, "Mock Banking API Server", map[string]any{
			"version": version,
			"endpoints": map[string]any{
				"auth": map[string]string{
					"register": "POST /api/auth/register",
					"login":    "POST /api/auth/login",
				},
				"account": map[string]string{
					"details": "GET /api/account/details",
					"balance": "GET /api/account/balance",
				},
				"transactions": map[string]string{
					"send":    "POST /api/transactions/send",
					"history": "GET /api/transactions/history",
					"detail":  "GET /api/transactions/:transactionId",
				},
			},
		})
	}
}

func (s *APIServer) healthHandler() func(http.ResponseWriter, *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		writeOK(w, http.StatusOK, "", map[string]string{
			"status":    "OK",
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		})
	}
}

// ========================================================
// Auth
// ========================================================

type RegisterRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
	FullName string `json:"full_name"`
}

type RegisterResponse struct {
	UserID        int64  `json:"userId"`
	Username      string `json:"username"`
	Email         string `json:"email"`
	FullName      string `json:"full_name"`
	AccountNumber string `json:"accountNumber"`
	Token         string `json:"token"`
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type LoginResponse struct {
	UserID        int64       `json:"userId"`
	Username      string      `json:"username"`
	Email         string      `json:"email"`
	FullName      string      `json:"full_name"`
	AccountNumber string      `json:"accountNumber"`
	Balance       json.Number `json:"balance"`
	Token         string      `json:"token"`
}

func (s *APIServer) registerHandler() func(http.ResponseWriter, *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		var req RegisterRequest
		if err := decodeBody(r, &req); err != nil {
			s.writeError(w, r, err)
			return
		}

		session, err := s.auth.Register(r.Context(), req.Username, req.Email, req.Password, req.FullName)
		if err != nil {
			s.writeError(w, r, err)
			return
		}

		writeOK(w, http.StatusCreated, "User registered successfully", RegisterResponse{
			UserID:        session.User.ID,
			Username:      session.User.Username,
			Email:         session.User.Email,
			FullName:      session.User.FullName,
			AccountNumber: session.Account.Number,
			Token:         session.Token,
		})
	}
}

func (s *APIServer) loginHandler() func(http.ResponseWriter, *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		var req LoginRequest
		if err := decodeBody(r, &req); err != nil {
			s.writeError(w, r, err)
			return
		}

		session, err := s.auth.Login(r.Context(), req.Username, req.Password)
		if err != nil {
			s.writeError(w, r, err)
			return
		}

		writeOK(w, http.StatusOK, "Login successful", LoginResponse{
			UserID:        session.User.ID,
			Username:      session.User.Username,
			Email:         session.User.Email,
			FullName:      session.User.FullName,
			AccountNumber: session.Account.Number,
			Balance:       money(session.Account.Balance),
			Token:         session.Token,
		})
	}
}

// ========================================================
// Account
// ========================================================

type AccountDetailsResponse struct {
	AccountNumber string      `json:"accountNumber"`
	Balance       json.Number `json:"balance"`
	AccountType   string      `json:"accountType"`
	Username      string      `json:"username"`
	Email         string      `json:"email"`
	FullName      string      `json:"fullName"`
	CreatedAt     time.Time   `json:"createdAt"`
}

type BalanceResponse struct {
	AccountNumber string      `json:"accountNumber"`
	Balance       json.Number `json:"balance"`
}

func (s *APIServer) accountDetailsHandler() func(http.ResponseWriter, *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		details, err := s.accounts.Details(r.Context(), identityFrom(r))
		if err != nil {
			s.writeError(w, r, err)
			return
		}

		writeOK(w, http.StatusOK, "", AccountDetailsResponse{
			AccountNumber: details.Number,
			Balance:       money(details.Balance),
			AccountType:   details.Type,
			Username:      details.Username,
			Email:         details.Email,
			FullName:      details.FullName,
			CreatedAt:     details.CreatedAt,
		})
	}
}

func (s *APIServer) balanceHandler() func(http.ResponseWriter, *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		account, err := s.accounts.Balance(r.Context(), identityFrom(r))
		if err != nil {
			s.writeError(w, r, err)
			return
		}

		writeOK(w, http.StatusOK, "", BalanceResponse{
			AccountNumber: account.Number,
			Balance:       money(account.Balance),
		})
	}
}

// ========================================================
// Transactions
// ========================================================

type SendRequest struct {
	ToAccountNumber string           `json:"toAccountNumber"`
	Amount          *decimal.Decimal `json:"amount"`
	Description     string           `json:"description"`
}

type SendResponse struct {
	TransactionID int64       `json:"transactionId"`
	FromAccount   string      `json:"fromAccount"`
	ToAccount     string      `json:"toAccount"`
	Amount        json.Number `json:"amount"`
	NewBalance    json.Number `json:"newBalance"`
	Description   string      `json:"description"`
	Timestamp     time.Time   `json:"timestamp"`
}

type TransactionResponse struct {
	TransactionID int64       `json:"transactionId"`
	Type          string      `json:"type"`
	FromAccount   string      `json:"fromAccount"`
	ToAccount     string      `json:"toAccount"`
	Amount        json.Number `json:"amount"`
	Description   string      `json:"description"`
	Status        string      `json:"status"`
	Timestamp     time.Time   `json:"timestamp"`
}

type HistoryResponse struct {
	AccountNumber     string                `json:"accountNumber"`
	Transactions      []TransactionResponse `json:"transactions"`
	TotalTransactions int                   `json:"totalTransactions"`
}

func newTransactionResponse(e models.LedgerEntry) TransactionResponse {
	return TransactionResponse{
		TransactionID: e.ID,
		Type:          e.Direction,
		FromAccount:   e.FromAccount,
		ToAccount:     e.ToAccount,
		Amount:        money(e.Amount),
		Description:   e.Description,
		Status:        e.Status,
		Timestamp:     e.CreatedAt,
	}
}

func (s *APIServer) sendHandler() func(http.ResponseWriter, *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		var req SendRequest
		if err := decodeBody(r, &req); err != nil {
			s.writeError(w, r, err)
			return
		}

		receipt, err := s.transfers.Send(r.Context(), identityFrom(r), req.ToAccountNumber, req.Amount, req.Description)
		if err != nil {
			s.writeError(w, r, err)
			return
		}

		t := receipt.Transaction
		writeOK(w, http.StatusOK, "Money sent successfully", SendResponse{
			TransactionID: t.ID,
			FromAccount:   t.FromAccount,
			ToAccount:     t.ToAccount,
			Amount:        money(t.Amount),
			NewBalance:    money(receipt.NewBalance),
			Description:   t.Description,
			Timestamp:     t.CreatedAt,
		})
	}
}

func (s *APIServer) historyHandler() func(http.ResponseWriter, *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		history, err := s.transfers.History(r.Context(), identityFrom(r))
		if err != nil {
			s.writeError(w, r, err)
			return
		}

		transactions := make([]TransactionResponse, 0, len(history.Entries))
		for _, e := range history.Entries {
			transactions = append(transactions, newTransactionResponse(e))
		}

		writeOK(w, http.StatusOK, "", HistoryResponse{
			AccountNumber:     history.AccountNumber,
			Transactions:      transactions,
			TotalTransactions: len(transactions),
		})
	}
}

func (s *APIServer) transactionHandler() func(http.ResponseWriter, *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := strconv.ParseInt(mux.Vars(r)["transactionId"], 10, 64)
		if err != nil || id <= 0 {
			s.writeError(w, r, apperr.NotFound("Transaction not found", err))
			return
		}

		entry, err := s.transfers.Transaction(r.Context(), identityFrom(r), id)
		if err != nil {
			s.writeError(w, r, err)
			return
		}

		writeOK(w, http.StatusOK, "", newTransactionResponse(*entry))
	}
}

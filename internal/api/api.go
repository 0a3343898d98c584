package api

import (
	"context"
	"errors"
	"github.com/Gish2003/mock-bank-app/internal/config"
	"github.com/Gish2003/mock-bank-app/internal/domain/models"
	"github.com/Gish2003/mock-bank-app/internal/services/auth"
	"github.com/Gish2003/mock-bank-app/internal/services/transfer"
	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"
	"log/slog"
	"net/http"
	"strconv"
)

const version = "1.0.0"

type Auth interface {
	Register(ctx context.Context, username, email, password, fullName string) (*auth.Session, error)
	Login(ctx context.Context, username, password string) (*auth.Session, error)
	VerifyToken(token string) (models.Identity, error)
}

type Accounts interface {
	Details(ctx context.Context, identity models.Identity) (*models.AccountDetails, error)
	Balance(ctx context.Context, identity models.Identity) (*models.Account, error)
}

type Transfers interface {
	Send(ctx context.Context, identity models.Identity, toAccount string, amount *decimal.Decimal, description string) (*models.Receipt, error)
	History(ctx context.Context, identity models.Identity) (*transfer.History, error)
	Transaction(ctx context.Context, identity models.Identity, id int64) (*models.LedgerEntry, error)
}

type APIServer struct {
	config    *config.Config
	logger    *slog.Logger
	server    *http.Server
	auth      Auth
	accounts  Accounts
	transfers Transfers
}

func New(config *config.Config, logger *slog.Logger, auth Auth, accounts Accounts, transfers Transfers) *APIServer {
	s := &APIServer{
		config: config,
		logger: logger,
		server: &http.Server{
			Addr:         config.ApiHost + ":" + strconv.Itoa(config.ApiPort),
			ReadTimeout:  config.HTTPServer.ReadTimeout,
			WriteTimeout: config.HTTPServer.WriteTimeout,
			IdleTimeout:  config.HTTPServer.IdleTimeout,
		},
		auth:      auth,
		accounts:  accounts,
		transfers: transfers,
	}

	s.configureRouter()

	return s
}

func (s *APIServer) Start() error {
	s.logger.Info("Starting server", slog.String("addr", s.server.Addr))

	return s.server.ListenAndServe()
}

func (s *APIServer) MustStart() {
	err := s.Start()
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		panic("Failed to start server: " + err.Error())
	}
}

func (s *APIServer) Stop(ctx context.Context) error {
	defer s.logger.Info("Server successfully stopped")
	return s.server.Shutdown(ctx)
}

// Handler returns the fully wired HTTP handler.
func (s *APIServer) Handler() http.Handler {
	return s.server.Handler
}

func (s *APIServer) configureRouter() {
	router := mux.NewRouter()

	router.HandleFunc("/", s.indexHandler()).Methods("GET")
	router.HandleFunc("/health", s.healthHandler()).Methods("GET")

	router.HandleFunc("/api/auth/register", s.registerHandler()).Methods("POST")
	router.HandleFunc("/api/auth/login", s.loginHandler()).Methods("POST")

	router.HandleFunc("/api/account/details", s.authenticate(s.accountDetailsHandler())).Methods("GET")
	router.HandleFunc("/api/account/balance", s.authenticate(s.balanceHandler())).Methods("GET")

	router.HandleFunc("/api/transactions/send", s.authenticate(s.sendHandler())).Methods("POST")
	router.HandleFunc("/api/transactions/history", s.authenticate(s.historyHandler())).Methods("GET")
	router.HandleFunc("/api/transactions/{transactionId}", s.authenticate(s.transactionHandler())).Methods("GET")

	router.NotFoundHandler = http.HandlerFunc(s.notFoundHandler)
	router.MethodNotAllowedHandler = http.HandlerFunc(s.notFoundHandler)

	s.server.Handler = s.logRequests(s.recoverer(router))
}

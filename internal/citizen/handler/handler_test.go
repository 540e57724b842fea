package handler

import (
	"bytes"
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/suite"

	citizenmodels "civica/internal/citizen/models"
	citizenservice "civica/internal/citizen/service"
	citizenstore "civica/internal/citizen/store"
	ledgerservice "civica/internal/ledger/service"
	ledgerstore "civica/internal/ledger/store"
	"civica/pkg/platform/keylock"
	"civica/pkg/requestcontext"
	"civica/pkg/testutil"
)

type HandlerSuite struct {
	suite.Suite
	router  http.Handler
	service *citizenservice.Service
}

func TestHandlerSuite(t *testing.T) {
	suite.Run(t, new(HandlerSuite))
}

func (s *HandlerSuite) SetupTest() {
	locks := keylock.New(200 * time.Millisecond)
	ledger := ledgerservice.New(ledgerstore.NewInMemory(), locks)
	s.service = citizenservice.New(citizenstore.NewInMemory(), ledger, locks,
		citizenmodels.AgeBounds{Min: 1, Max: 120})

	logger := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
	handler := New(s.service, logger)

	r := chi.NewRouter()
	handler.Register(r)
	s.router = r
}

func (s *HandlerSuite) ctx() context.Context {
	return requestcontext.WithTime(context.Background(), time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))
}

func (s *HandlerSuite) do(method, path string, body any) *httptest.ResponseRecorder {
	req := testutil.NewJSONRequest(s.T(), method, path, body)
	req = testutil.AtTime(req, time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))
	return testutil.DoRequest(s.router, req)
}

func (s *HandlerSuite) TestRegister() {
	s.Run("returns 201 with the new citizen", func() {
		rec := s.do(http.MethodPost, "/citizens", RegisterRequest{
			ExternalAccountID: "acct-1",
			DisplayName:       "Alice",
			Age:               30,
		})
		s.Require().Equal(http.StatusCreated, rec.Code)

		resp := testutil.UnmarshalResponse[CitizenResponse](s.T(), rec)
		s.Equal("Alice", resp.DisplayName)
		s.Equal("unemployed", resp.Job)
	})

	s.Run("duplicate account returns 409", func() {
		rec := s.do(http.MethodPost, "/citizens", RegisterRequest{
			ExternalAccountID: "acct-dup", DisplayName: "Bob", Age: 40,
		})
		s.Require().Equal(http.StatusCreated, rec.Code)

		rec = s.do(http.MethodPost, "/citizens", RegisterRequest{
			ExternalAccountID: "acct-dup", DisplayName: "Impostor", Age: 25,
		})
		s.Equal(http.StatusConflict, rec.Code)
	})

	s.Run("invalid age returns 400", func() {
		rec := s.do(http.MethodPost, "/citizens", RegisterRequest{
			ExternalAccountID: "acct-age", DisplayName: "Carol", Age: 300,
		})
		s.Equal(http.StatusBadRequest, rec.Code)
	})

	s.Run("malformed body returns 400", func() {
		req := httptest.NewRequest(http.MethodPost, "/citizens",
			bytes.NewReader([]byte("not json")))
		rec := httptest.NewRecorder()
		s.router.ServeHTTP(rec, req)
		s.Equal(http.StatusBadRequest, rec.Code)
	})
}

func (s *HandlerSuite) TestGet() {
	citizen, err := s.service.Register(s.ctx(), "acct-get", "Dave", 35)
	s.Require().NoError(err)

	s.Run("returns the citizen", func() {
		rec := s.do(http.MethodGet, "/citizens/"+citizen.ID.String(), nil)
		s.Require().Equal(http.StatusOK, rec.Code)

		resp := testutil.UnmarshalResponse[CitizenResponse](s.T(), rec)
		s.Equal(citizen.ID.String(), resp.ID)
	})

	s.Run("invalid id returns 400", func() {
		rec := s.do(http.MethodGet, "/citizens/not-a-uuid", nil)
		s.Equal(http.StatusBadRequest, rec.Code)
	})

	s.Run("unknown id returns 404", func() {
		rec := s.do(http.MethodGet, "/citizens/00000000-0000-0000-0000-000000000001", nil)
		s.Equal(http.StatusNotFound, rec.Code)
	})
}

func (s *HandlerSuite) TestLookup() {
	_, err := s.service.Register(s.ctx(), "acct-lookup", "Erin", 28)
	s.Require().NoError(err)

	s.Run("finds by account", func() {
		rec := s.do(http.MethodGet, "/citizens/lookup?account=acct-lookup", nil)
		s.Equal(http.StatusOK, rec.Code)
	})

	s.Run("missing account param returns 400", func() {
		rec := s.do(http.MethodGet, "/citizens/lookup", nil)
		s.Equal(http.StatusBadRequest, rec.Code)
	})
}

func (s *HandlerSuite) TestArchiveRequiresAuthority() {
	citizen, err := s.service.Register(s.ctx(), "acct-archive", "Frank", 50)
	s.Require().NoError(err)

	// No authority in context: the service rejects with 403.
	rec := s.do(http.MethodPost, "/citizens/"+citizen.ID.String()+"/archive", nil)
	s.Equal(http.StatusForbidden, rec.Code)
}

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
	enfservice "civica/internal/enforcement/service"
	enfstore "civica/internal/enforcement/store"
	ledgerservice "civica/internal/ledger/service"
	ledgerstore "civica/internal/ledger/store"
	id "civica/pkg/domain"
	"civica/pkg/platform/keylock"
	"civica/pkg/requestcontext"
	"civica/pkg/testutil"
)

type HandlerSuite struct {
	suite.Suite
	router   http.Handler
	citizens *citizenservice.Service
	ledger   *ledgerservice.Service
}

func TestHandlerSuite(t *testing.T) {
	suite.Run(t, new(HandlerSuite))
}

func (s *HandlerSuite) SetupTest() {
	locks := keylock.New(200 * time.Millisecond)
	s.ledger = ledgerservice.New(ledgerstore.NewInMemory(), locks)
	s.citizens = citizenservice.New(citizenstore.NewInMemory(), s.ledger, locks,
		citizenmodels.AgeBounds{Min: 1, Max: 120})
	service := enfservice.New(enfstore.NewInMemory(), s.citizens, s.ledger, locks)

	logger := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
	handler := New(service, logger)

	r := chi.NewRouter()
	handler.Register(r)
	s.router = r
}

func (s *HandlerSuite) ctx() context.Context {
	return requestcontext.WithTime(context.Background(), time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))
}

func (s *HandlerSuite) register(account string, funds int64) id.CitizenID {
	citizen, err := s.citizens.Register(s.ctx(), account, "Citizen "+account, 30)
	s.Require().NoError(err)
	if funds > 0 {
		s.Require().NoError(s.ledger.Credit(s.ctx(), citizen.ID, funds))
	}
	return citizen.ID
}

// do sends a request, optionally as an authority actor. The handler relies on
// the auth middleware for actor context, so tests inject it directly.
func (s *HandlerSuite) do(method, path string, body any, authority bool) *httptest.ResponseRecorder {
	req := testutil.NewJSONRequest(s.T(), method, path, body)
	req = testutil.AtTime(req, time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))
	if authority {
		req = testutil.AsActor(req, "officer-7", true)
	}
	return testutil.DoRequest(s.router, req)
}

func (s *HandlerSuite) TestWantedEndpoints() {
	citizenID := s.register("acct-1", 0)
	path := "/citizens/" + citizenID.String() + "/wanted"

	s.Run("issue without authority returns 403", func() {
		rec := s.do(http.MethodPost, path, IssueWantedRequest{Reason: "speeding"}, false)
		s.Equal(http.StatusForbidden, rec.Code)
	})

	s.Run("issue returns 201", func() {
		rec := s.do(http.MethodPost, path, IssueWantedRequest{Reason: "speeding"}, true)
		s.Require().Equal(http.StatusCreated, rec.Code)

		resp := testutil.UnmarshalResponse[WantedResponse](s.T(), rec)
		s.Equal("officer-7", resp.IssuedBy)
	})

	s.Run("second issue returns 409", func() {
		rec := s.do(http.MethodPost, path, IssueWantedRequest{Reason: "again"}, true)
		s.Equal(http.StatusConflict, rec.Code)
	})

	s.Run("status reports wanted", func() {
		rec := s.do(http.MethodGet, path, nil, false)
		s.Require().Equal(http.StatusOK, rec.Code)

		resp := testutil.UnmarshalResponse[WantedStatusResponse](s.T(), rec)
		s.True(resp.Wanted)
	})

	s.Run("clear returns 200 then 409 when not wanted", func() {
		rec := s.do(http.MethodDelete, path, nil, true)
		s.Equal(http.StatusOK, rec.Code)

		rec = s.do(http.MethodDelete, path, nil, true)
		s.Equal(http.StatusConflict, rec.Code)
	})
}

func (s *HandlerSuite) TestFineEndpoints() {
	citizenID := s.register("acct-2", 300)
	finesPath := "/citizens/" + citizenID.String() + "/fines"

	rec := s.do(http.MethodPost, finesPath, IssueFineRequest{Amount: 200, Reason: "speeding"}, true)
	s.Require().Equal(http.StatusCreated, rec.Code)
	fine := testutil.UnmarshalResponse[FineResponse](s.T(), rec)

	s.Run("pay by someone else returns 409", func() {
		otherID := s.register("acct-3", 500)
		rec := s.do(http.MethodPost, "/fines/"+fine.ID+"/pay",
			PayFineRequest{CitizenID: otherID.String()}, false)
		s.Equal(http.StatusConflict, rec.Code)
	})

	s.Run("pay succeeds", func() {
		rec := s.do(http.MethodPost, "/fines/"+fine.ID+"/pay",
			PayFineRequest{CitizenID: citizenID.String()}, false)
		s.Require().Equal(http.StatusOK, rec.Code)

		paid := testutil.UnmarshalResponse[FineResponse](s.T(), rec)
		s.Equal("paid", paid.Status)
	})

	s.Run("double pay returns 409", func() {
		rec := s.do(http.MethodPost, "/fines/"+fine.ID+"/pay",
			PayFineRequest{CitizenID: citizenID.String()}, false)
		s.Equal(http.StatusConflict, rec.Code)
	})

	s.Run("history lists the settled fine", func() {
		rec := s.do(http.MethodGet, "/citizens/"+citizenID.String()+"/enforcement", nil, false)
		s.Require().Equal(http.StatusOK, rec.Code)

		history := testutil.UnmarshalResponse[HistoryResponse](s.T(), rec)
		s.Len(history.Fines, 1)
	})
}

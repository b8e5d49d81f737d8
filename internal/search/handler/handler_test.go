package handler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"jurisearch/internal/court"
	"jurisearch/internal/search"
	"jurisearch/internal/search/cache"
	"jurisearch/internal/search/handler/mocks"
	"jurisearch/internal/search/models"
	"jurisearch/internal/search/transport"
	dErrors "jurisearch/pkg/domain-errors"
	"jurisearch/pkg/testutil"
)

//go:generate mockgen -source=handler.go -destination=mocks/mocks.go -package=mocks Service
type HandlerSuite struct {
	suite.Suite
	service *mocks.MockService
	router  http.Handler
}

func TestHandlerSuite(t *testing.T) {
	suite.Run(t, new(HandlerSuite))
}

func (s *HandlerSuite) SetupTest() {
	ctrl := gomock.NewController(s.T())
	s.T().Cleanup(ctrl.Finish)
	s.service = mocks.NewMockService(ctrl)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	r := chi.NewRouter()
	New(s.service, logger, nil, 5*time.Second).Register(r)
	s.router = r
}

func (s *HandlerSuite) do(req *http.Request) *httptest.ResponseRecorder {
	return testutil.DoRequest(s.router, req)
}

func outcome(results []models.CourtResult, errs []string) *models.SearchOutcome {
	return &models.SearchOutcome{Results: results, Errors: errs, Summary: models.Summarize(results)}
}

func (s *HandlerSuite) TestSearch() {
	s.Run("valid CPF dispatches normalized request", func() {
		s.service.EXPECT().Search(gomock.Any(), search.SearchRequest{
			Term:   "11144477735",
			Courts: []string{"trf1", "stj"},
		}).Return(outcome([]models.CourtResult{{
			Tribunal:  "Tribunal Regional Federal da 1ª Região",
			Alias:     "trf1",
			Processos: []models.Process{{NumeroProcesso: "00008323520184013202", Tribunal: "trf1"}},
		}}, []string{}), nil)

		rr := s.do(testutil.NewJSONRequest(s.T(), http.MethodPost, "/api/v1/search", map[string]any{
			"document":  "111.444.777-35",
			"tribunais": []string{"TRF1", "stj", "trf1"},
		}))

		s.Require().Equal(http.StatusOK, rr.Code, rr.Body.String())
		resp := testutil.UnmarshalResponse[SearchResponse](s.T(), rr)
		s.Equal("111.444.777-35", resp.Document.Formatted)
		s.Equal("CPF", string(resp.Document.Type))
		s.Len(resp.Results, 1)
		s.Equal(1, resp.Summary.TotalProcessos)
		s.False(resp.NoResults)
	})

	s.Run("continuation cursor is forwarded", func() {
		s.service.EXPECT().Search(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, req search.SearchRequest) (*models.SearchOutcome, error) {
				s.Equal(models.Cursor{float64(1540771200000), 3.2, "abc"}, req.Cursor)
				s.Equal("11222333000181", req.Term)
				s.Nil(req.Courts)
				return outcome(nil, nil), nil
			})

		rr := s.do(testutil.NewRawRequest(http.MethodPost, "/api/v1/search",
			`{"document":"11.222.333/0001-81","search_after":[1540771200000,3.2,"abc"]}`))
		s.Equal(http.StatusOK, rr.Code)
	})

	s.Run("invalid document never reaches the service", func() {
		rr := s.do(testutil.NewJSONRequest(s.T(), http.MethodPost, "/api/v1/search", map[string]any{"document": "12345678900"}))
		testutil.AssertStatusAndError(s.T(), rr, http.StatusBadRequest, string(dErrors.CodeValidation))
	})

	s.Run("empty document", func() {
		rr := s.do(testutil.NewJSONRequest(s.T(), http.MethodPost, "/api/v1/search", map[string]any{"document": "  "}))
		testutil.AssertStatusAndError(s.T(), rr, http.StatusBadRequest, string(dErrors.CodeValidation))
	})

	s.Run("malformed json", func() {
		rr := s.do(testutil.NewRawRequest(http.MethodPost, "/api/v1/search", `{"document":`))
		testutil.AssertStatusAndError(s.T(), rr, http.StatusBadRequest, string(dErrors.CodeBadRequest))
	})

	s.Run("no records and no errors sets no_results", func() {
		s.service.EXPECT().Search(gomock.Any(), gomock.Any()).
			Return(outcome([]models.CourtResult{{Alias: "trf1", Processos: []models.Process{}}}, []string{}), nil)

		rr := s.do(testutil.NewJSONRequest(s.T(), http.MethodPost, "/api/v1/search", map[string]any{"document": "11144477735"}))
		resp := testutil.UnmarshalResponse[map[string]any](s.T(), rr)
		s.Equal(true, (*resp)["no_results"])
	})

	s.Run("no records with errors is not no_results", func() {
		s.service.EXPECT().Search(gomock.Any(), gomock.Any()).
			Return(outcome(nil, []string{"Superior Tribunal de Justiça: [TIMEOUT] request failed"}), nil)

		rr := s.do(testutil.NewJSONRequest(s.T(), http.MethodPost, "/api/v1/search", map[string]any{"document": "11144477735"}))
		s.Equal(http.StatusOK, rr.Code)
		resp := testutil.UnmarshalResponse[SearchResponse](s.T(), rr)
		s.False(resp.NoResults)
		s.Len(resp.Errors, 1)
	})

	s.Run("internal error hides description", func() {
		s.service.EXPECT().Search(gomock.Any(), gomock.Any()).Return(nil, errors.New("boom"))

		rr := s.do(testutil.NewJSONRequest(s.T(), http.MethodPost, "/api/v1/search", map[string]any{"document": "11144477735"}))
		testutil.AssertStatusAndError(s.T(), rr, http.StatusInternalServerError, string(dErrors.CodeInternal))
		s.NotContains(rr.Body.String(), "boom")
	})
}

func (s *HandlerSuite) TestProcessDetails() {
	s.Run("found, punctuation stripped from number", func() {
		s.service.EXPECT().ProcessDetails(gomock.Any(), "00008323520184013202", "trf1").
			Return(&models.Process{NumeroProcesso: "00008323520184013202", Tribunal: "trf1"}, nil)

		rr := s.do(testutil.NewJSONRequest(s.T(), http.MethodGet, "/api/v1/processes/trf1/0000832-35.2018.4.01.3202", nil))
		s.Require().Equal(http.StatusOK, rr.Code)
		p := testutil.UnmarshalResponse[models.Process](s.T(), rr)
		s.Equal("trf1", p.Tribunal)
	})

	s.Run("no hit is 404", func() {
		s.service.EXPECT().ProcessDetails(gomock.Any(), "1", "trf1").Return(nil, nil)
		rr := s.do(testutil.NewJSONRequest(s.T(), http.MethodGet, "/api/v1/processes/trf1/1", nil))
		testutil.AssertStatusAndError(s.T(), rr, http.StatusNotFound, string(dErrors.CodeNotFound))
	})

	s.Run("unknown court is 404", func() {
		s.service.EXPECT().ProcessDetails(gomock.Any(), "1", "tjxx").Return(nil, dErrors.New(dErrors.CodeNotFound, "court not found"))
		rr := s.do(testutil.NewJSONRequest(s.T(), http.MethodGet, "/api/v1/processes/tjxx/1", nil))
		testutil.AssertStatusAndError(s.T(), rr, http.StatusNotFound, string(dErrors.CodeNotFound))
	})

	s.Run("transport failure is 502", func() {
		cause := transport.NewError(transport.CategoryUnavailable, "api_publica_trf1", "backend returned 503", nil)
		s.service.EXPECT().ProcessDetails(gomock.Any(), "1", "trf1").Return(nil, dErrors.Wrap(cause, dErrors.CodeUnavailable, "trf1 lookup failed"))
		rr := s.do(testutil.NewJSONRequest(s.T(), http.MethodGet, "/api/v1/processes/trf1/1", nil))
		testutil.AssertStatusAndError(s.T(), rr, http.StatusBadGateway, string(dErrors.CodeUnavailable))
	})

	s.Run("timeout is 504", func() {
		s.service.EXPECT().ProcessDetails(gomock.Any(), "1", "trf1").Return(nil, dErrors.New(dErrors.CodeTimeout, "trf1 lookup failed"))
		rr := s.do(testutil.NewJSONRequest(s.T(), http.MethodGet, "/api/v1/processes/trf1/1", nil))
		testutil.AssertStatusAndError(s.T(), rr, http.StatusGatewayTimeout, string(dErrors.CodeTimeout))
	})

	s.Run("number without digits", func() {
		rr := s.do(testutil.NewJSONRequest(s.T(), http.MethodGet, "/api/v1/processes/trf1/abc", nil))
		testutil.AssertStatusAndError(s.T(), rr, http.StatusBadRequest, string(dErrors.CodeValidation))
	})
}

func (s *HandlerSuite) TestStatus() {
	s.service.EXPECT().TestConnectivity(gomock.Any()).Return(models.ConnectivityResult{Success: true, Message: "ok"})
	rr := s.do(testutil.NewJSONRequest(s.T(), http.MethodGet, "/api/v1/status", nil))
	s.Equal(http.StatusOK, rr.Code)

	s.service.EXPECT().TestConnectivity(gomock.Any()).Return(models.ConnectivityResult{Success: false, Message: "down"})
	rr = s.do(testutil.NewJSONRequest(s.T(), http.MethodGet, "/api/v1/status", nil))
	s.Equal(http.StatusBadGateway, rr.Code)
	res := testutil.UnmarshalResponse[models.ConnectivityResult](s.T(), rr)
	s.False(res.Success)
	s.Equal("down", res.Message)
}

func (s *HandlerSuite) TestCourts() {
	s.service.EXPECT().Courts().Return(court.Default().All())
	rr := s.do(testutil.NewJSONRequest(s.T(), http.MethodGet, "/api/v1/courts", nil))
	s.Require().Equal(http.StatusOK, rr.Code)
	resp := testutil.UnmarshalResponse[CourtsResponse](s.T(), rr)
	s.Len(resp.Tribunais, 10)
	s.Equal("trf1", resp.Tribunais[0].Alias)
}

func (s *HandlerSuite) TestCache() {
	s.service.EXPECT().ClearCache(gomock.Any()).Return(nil)
	rr := s.do(testutil.NewJSONRequest(s.T(), http.MethodDelete, "/api/v1/cache", nil))
	s.Equal(http.StatusNoContent, rr.Code)

	s.service.EXPECT().CacheStats(gomock.Any()).Return(cache.Stats{Size: 1, Keys: []string{"11144477735_trf1_0"}}, nil)
	rr = s.do(testutil.NewJSONRequest(s.T(), http.MethodGet, "/api/v1/cache/stats", nil))
	s.Require().Equal(http.StatusOK, rr.Code)
	stats := testutil.UnmarshalResponse[cache.Stats](s.T(), rr)
	s.Equal([]string{"11144477735_trf1_0"}, stats.Keys)
}

func (s *HandlerSuite) TestRequestIDHeader() {
	s.service.EXPECT().Courts().Return(nil)
	rr := s.do(testutil.NewJSONRequest(s.T(), http.MethodGet, "/api/v1/courts", nil))
	s.NotEmpty(rr.Header().Get("X-Request-ID"))
}

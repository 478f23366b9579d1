package router

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"

	"github.com/aanand-mishra/degree-registry/internal/http/handlers/health"
	"github.com/aanand-mishra/degree-registry/internal/metrics"
	"github.com/aanand-mishra/degree-registry/internal/minting"
	"github.com/aanand-mishra/degree-registry/internal/registry"
	"github.com/aanand-mishra/degree-registry/internal/storage/memory"
	"github.com/aanand-mishra/degree-registry/internal/types"
	"github.com/aanand-mishra/degree-registry/internal/utils/response"
	"github.com/aanand-mishra/degree-registry/internal/verification"
)

type RouterSuite struct {
	suite.Suite
	handler http.Handler
}

func TestRouterSuite(t *testing.T) {
	suite.Run(t, new(RouterSuite))
}

func (s *RouterSuite) SetupSuite() {
	slog.SetDefault(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func (s *RouterSuite) SetupTest() {
	store := memory.New()
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	s.handler = New(Deps{
		Registry: registry.New(store, store, m, log),
		Minter:   minting.New(store, m, log),
		Verifier: verification.New(store, m, log),
		Storage:  store,
		Gatherer: reg,
		QRSize:   128,
	})
}

func (s *RouterSuite) do(method, target, body string) *httptest.ResponseRecorder {
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, r)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

func (s *RouterSuite) decode(rec *httptest.ResponseRecorder, v any) {
	s.Require().NoError(json.NewDecoder(rec.Body).Decode(v), rec.Body.String())
}

func (s *RouterSuite) assertError(rec *httptest.ResponseRecorder, status int, code string) {
	s.Equal(status, rec.Code, rec.Body.String())
	var body response.Response
	s.decode(rec, &body)
	s.Equal(response.StatusError, body.Status)
	s.Equal(code, body.Code)
	s.NotEmpty(body.Error)
}

func (s *RouterSuite) registerBPUT() types.University {
	rec := s.do(http.MethodPost, "/api/universities", `{"name":"BPUT","principal_address":"ST1PRINCIPAL"}`)
	s.Require().Equal(http.StatusCreated, rec.Code, rec.Body.String())
	var u types.University
	s.decode(rec, &u)
	return u
}

func (s *RouterSuite) registerAsha() types.Student {
	rec := s.do(http.MethodPost, "/api/students",
		`{"name":"Asha","wallet_address":"ST2WALLET","national_id":"123456789012"}`)
	s.Require().Equal(http.StatusCreated, rec.Code, rec.Body.String())
	var st types.Student
	s.decode(rec, &st)
	return st
}

func (s *RouterSuite) mint(u types.University, st types.Student) types.Degree {
	body := `{"student_id":"` + st.ID + `","course":"B.Tech CS","graduation_year":2024,` +
		`"university_id":"` + u.ID + `","cgpa":8.5}`
	rec := s.do(http.MethodPost, "/api/degrees/mint", body)
	s.Require().Equal(http.StatusCreated, rec.Code, rec.Body.String())
	var d types.Degree
	s.decode(rec, &d)
	return d
}

func (s *RouterSuite) verify(target string) types.VerificationResult {
	rec := s.do(http.MethodGet, target, "")
	s.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())
	var v types.VerificationResult
	s.decode(rec, &v)
	return v
}

func (s *RouterSuite) TestHealth() {
	rec := s.do(http.MethodGet, "/api/health", "")
	s.Equal(http.StatusOK, rec.Code)

	var st health.Status
	s.decode(rec, &st)
	s.Equal("healthy", st.Status)
	s.Equal("ok", st.Storage)
}

func (s *RouterSuite) TestUniversityLifecycle() {
	rec := s.do(http.MethodGet, "/api/universities", "")
	s.Equal(http.StatusOK, rec.Code)
	s.JSONEq(`[]`, rec.Body.String())

	u := s.registerBPUT()
	s.NotEmpty(u.ID)
	s.True(u.Authorized)

	rec = s.do(http.MethodGet, "/api/universities/"+u.ID, "")
	s.Equal(http.StatusOK, rec.Code)
	var got types.University
	s.decode(rec, &got)
	s.Equal(u.ID, got.ID)

	rec = s.do(http.MethodPost, "/api/universities", `{"name":"Fake","principal_address":"ST1PRINCIPAL"}`)
	s.assertError(rec, http.StatusConflict, response.CodeDuplicatePrincipal)

	rec = s.do(http.MethodGet, "/api/universities/nope", "")
	s.assertError(rec, http.StatusNotFound, response.CodeNotFound)
}

func (s *RouterSuite) TestUniversityBadRequests() {
	rec := s.do(http.MethodPost, "/api/universities", "")
	s.assertError(rec, http.StatusBadRequest, response.CodeBadRequest)

	rec = s.do(http.MethodPost, "/api/universities", `{"name":"BPUT","principal":"x"}`)
	s.assertError(rec, http.StatusBadRequest, response.CodeBadRequest)

	rec = s.do(http.MethodPost, "/api/universities", `{"name":"BPUT"}`)
	s.assertError(rec, http.StatusBadRequest, response.CodeValidation)
}

func (s *RouterSuite) TestStudentEndpoints() {
	st := s.registerAsha()

	rec := s.do(http.MethodGet, "/api/students/"+st.ID, "")
	s.Equal(http.StatusOK, rec.Code)

	rec = s.do(http.MethodGet, "/api/students/wallet/ST2WALLET", "")
	s.Equal(http.StatusOK, rec.Code)
	var byWallet types.Student
	s.decode(rec, &byWallet)
	s.Equal(st.ID, byWallet.ID)

	rec = s.do(http.MethodPost, "/api/students",
		`{"name":"Ravi","wallet_address":"ST3","national_id":"123456789012"}`)
	s.assertError(rec, http.StatusConflict, response.CodeDuplicateIdentity)

	rec = s.do(http.MethodPost, "/api/students",
		`{"name":"Ravi","wallet_address":"ST3","national_id":"12345"}`)
	s.assertError(rec, http.StatusBadRequest, response.CodeValidation)

	rec = s.do(http.MethodGet, "/api/students", "")
	s.Equal(http.StatusOK, rec.Code)
	var all []types.Student
	s.decode(rec, &all)
	s.Len(all, 1)
}

func (s *RouterSuite) TestVerifyNationalID() {
	rec := s.do(http.MethodPost, "/api/students/verify-national-id",
		`{"name":"Asha","national_id":"123456789012"}`)
	s.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())
	var ok types.NationalIDCheck
	s.decode(rec, &ok)
	s.True(ok.Verified)
	s.Equal("Asha", ok.Name)
	s.Equal("123456789012", ok.NationalID)

	for _, bad := range []string{"12345", "12345678901a", "1234567890123"} {
		rec = s.do(http.MethodPost, "/api/students/verify-national-id",
			`{"name":"Asha","national_id":"`+bad+`"}`)
		s.Require().Equal(http.StatusOK, rec.Code, bad)
		var check types.NationalIDCheck
		s.decode(rec, &check)
		s.False(check.Verified, bad)
		s.Empty(check.NationalID, bad)
	}

	rec = s.do(http.MethodPost, "/api/students/verify-national-id", `{"national_id":"123456789012"}`)
	s.assertError(rec, http.StatusBadRequest, response.CodeValidation)

	rec = s.do(http.MethodGet, "/api/students", "")
	s.JSONEq(`[]`, rec.Body.String(), "a check never registers a student")
}

func (s *RouterSuite) TestMintAndVerify() {
	u := s.registerBPUT()
	st := s.registerAsha()
	d := s.mint(u, st)

	s.NotEmpty(d.CredentialID)
	s.NotEmpty(d.Payload)

	v := s.verify("/api/degrees/verify/" + d.CredentialID)
	s.True(v.Verified)
	s.True(v.UniversityAuthorized)
	s.Equal("B.Tech CS", v.Course)
	s.Equal(2024, v.GraduationYear)
	s.Equal("Asha", v.StudentName)
	s.Equal("BPUT", v.University)

	byPath := s.verify("/api/degrees/verify/" + url.PathEscape(d.Payload))
	s.Equal(v, byPath)

	byQuery := s.verify("/api/degrees/verify?payload=" + url.QueryEscape(d.Payload))
	s.Equal(v, byQuery)
}

func (s *RouterSuite) TestVerifyResponseCarriesBothAxes() {
	u := s.registerBPUT()
	d := s.mint(u, s.registerAsha())

	rec := s.do(http.MethodGet, "/api/degrees/verify/"+d.CredentialID, "")
	s.Require().Equal(http.StatusOK, rec.Code)

	var raw map[string]any
	s.decode(rec, &raw)
	s.Contains(raw, "verified")
	s.Contains(raw, "university_authorized")
}

func (s *RouterSuite) TestRevocationOverHTTP() {
	u := s.registerBPUT()
	d := s.mint(u, s.registerAsha())

	rec := s.do(http.MethodPut, "/api/universities/"+u.ID+"/authorization", `{"authorized":false}`)
	s.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())

	v := s.verify("/api/degrees/verify/" + d.CredentialID)
	s.True(v.Verified)
	s.False(v.UniversityAuthorized)

	rec = s.do(http.MethodPut, "/api/universities/"+u.ID+"/authorization", `{}`)
	s.assertError(rec, http.StatusBadRequest, response.CodeValidation)

	rec = s.do(http.MethodPut, "/api/universities/nope/authorization", `{"authorized":true}`)
	s.assertError(rec, http.StatusNotFound, response.CodeNotFound)
}

func (s *RouterSuite) TestMintErrors() {
	u := s.registerBPUT()
	st := s.registerAsha()

	rec := s.do(http.MethodPost, "/api/degrees/mint",
		`{"student_id":"`+st.ID+`","course":"B.Tech CS","graduation_year":1999,"university_id":"`+u.ID+`"}`)
	s.assertError(rec, http.StatusBadRequest, response.CodeValidation)

	rec = s.do(http.MethodPost, "/api/degrees/mint",
		`{"student_id":"`+st.ID+`","course":"B.Tech CS","graduation_year":2024,"university_id":"`+u.ID+`","cgpa":11}`)
	s.assertError(rec, http.StatusBadRequest, response.CodeValidation)

	rec = s.do(http.MethodPost, "/api/degrees/mint",
		`{"student_id":"`+st.ID+`","course":"B.Tech CS","graduation_year":2024,"university_id":"ghost"}`)
	s.assertError(rec, http.StatusNotFound, response.CodeUnknownUniversity)

	rec = s.do(http.MethodPost, "/api/degrees/mint", `{"graduationYear":2024}`)
	s.assertError(rec, http.StatusBadRequest, response.CodeBadRequest)

	rec = s.do(http.MethodGet, "/api/degrees", "")
	s.JSONEq(`[]`, rec.Body.String())
}

func (s *RouterSuite) TestVerifyErrors() {
	u := s.registerBPUT()
	d := s.mint(u, s.registerAsha())

	rec := s.do(http.MethodGet, "/api/degrees/verify/unknown-id", "")
	s.assertError(rec, http.StatusNotFound, response.CodeNotFound)

	bad := d.CredentialID + ".00000000"
	if bad == d.Payload {
		bad = d.CredentialID + ".11111111"
	}
	rec = s.do(http.MethodGet, "/api/degrees/verify/"+bad, "")
	s.assertError(rec, http.StatusUnprocessableEntity, response.CodeMalformed)

	rec = s.do(http.MethodGet, "/api/degrees/verify", "")
	s.assertError(rec, http.StatusBadRequest, response.CodeValidation)
}

func (s *RouterSuite) TestDegreeListings() {
	u := s.registerBPUT()
	st := s.registerAsha()
	d := s.mint(u, st)

	for _, target := range []string{
		"/api/degrees",
		"/api/degrees/student/" + st.ID,
		"/api/degrees/wallet/ST2WALLET",
	} {
		rec := s.do(http.MethodGet, target, "")
		s.Require().Equal(http.StatusOK, rec.Code, target)
		var list []types.Degree
		s.decode(rec, &list)
		s.Require().Len(list, 1, target)
		s.Equal(d.CredentialID, list[0].CredentialID)
	}

	rec := s.do(http.MethodGet, "/api/degrees/wallet/nobody", "")
	s.JSONEq(`[]`, rec.Body.String())
}

func (s *RouterSuite) TestQRCode() {
	u := s.registerBPUT()
	d := s.mint(u, s.registerAsha())

	rec := s.do(http.MethodGet, "/api/degrees/qrcode/"+d.CredentialID, "")
	s.Require().Equal(http.StatusOK, rec.Code)
	s.Equal("image/png", rec.Header().Get("Content-Type"))
	s.True(bytes.HasPrefix(rec.Body.Bytes(), []byte("\x89PNG\r\n\x1a\n")))

	rec = s.do(http.MethodGet, "/api/degrees/qrcode/unknown", "")
	s.assertError(rec, http.StatusNotFound, response.CodeNotFound)
}

func (s *RouterSuite) TestMetricsEndpoint() {
	s.registerBPUT()

	rec := s.do(http.MethodGet, "/metrics", "")
	s.Equal(http.StatusOK, rec.Code)
	s.Contains(rec.Body.String(), "degree_registry_universities_registered_total 1")
}

func (s *RouterSuite) TestMethodNotAllowed() {
	rec := s.do(http.MethodDelete, "/api/universities", "")
	s.Equal(http.StatusMethodNotAllowed, rec.Code)
}

type downPinger struct{}

func (downPinger) Ping(context.Context) error { return errors.New("connection refused") }

func TestHealth_StorageDown(t *testing.T) {
	slog.SetDefault(slog.New(slog.NewTextHandler(io.Discard, nil)))
	h := New(Deps{Storage: downPinger{}})

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/health", nil))

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.JSONEq(t, `{"status":"unhealthy","service":"degree-registry","storage":"unreachable"}`, rec.Body.String())
}

package degree

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/aanand-mishra/degree-registry/internal/minting"
	"github.com/aanand-mishra/degree-registry/internal/payload"
	"github.com/aanand-mishra/degree-registry/internal/types"
)

type stubMinter struct {
	degree types.Degree
}

func (m stubMinter) Mint(context.Context, minting.Request) (types.Degree, error) {
	return m.degree, nil
}

func (m stubMinter) GetDegree(context.Context, string) (types.Degree, error) {
	return m.degree, nil
}

func (m stubMinter) ListDegrees(context.Context) ([]types.Degree, error) {
	return []types.Degree{m.degree}, nil
}

func (m stubMinter) ListDegreesByStudent(context.Context, string) ([]types.Degree, error) {
	return []types.Degree{m.degree}, nil
}

func (m stubMinter) ListDegreesByWallet(context.Context, string) ([]types.Degree, error) {
	return []types.Degree{m.degree}, nil
}

// brokenWriter accepts headers but fails every body write, like a
// connection the client has already closed.
type brokenWriter struct {
	*httptest.ResponseRecorder
}

func (brokenWriter) Write([]byte) (int, error) {
	return 0, errors.New("broken pipe")
}

func TestQRCode_LogsWriteFailure(t *testing.T) {
	var logs bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewTextHandler(&logs, nil)))
	t.Cleanup(func() { slog.SetDefault(prev) })

	d := types.Degree{CredentialID: "cred-1", Payload: payload.Encode("cred-1")}
	req := httptest.NewRequest(http.MethodGet, "/api/degrees/qrcode/cred-1", nil)
	req.SetPathValue("id", "cred-1")

	w := brokenWriter{httptest.NewRecorder()}
	QRCode(stubMinter{degree: d}, 128)(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, logs.String(), "error writing qr code")
	assert.Contains(t, logs.String(), "broken pipe")
}

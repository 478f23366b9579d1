// Package router wires every handler onto a ServeMux.
//
// Route table:
//
//	GET  /api/health                              → liveness + storage ping
//	GET  /api/universities                        → list universities
//	POST /api/universities                        → register a university
//	GET  /api/universities/{id}                   → get one university
//	PUT  /api/universities/{id}/authorization     → revoke / restore authorization
//	GET  /api/students                            → list students
//	POST /api/students                            → register a student
//	GET  /api/students/{id}                       → get one student
//	GET  /api/students/wallet/{wallet}            → get a student by wallet
//	POST /api/students/verify-national-id         → national id format check
//	GET  /api/degrees                             → list degrees
//	POST /api/degrees/mint                        → mint a degree
//	GET  /api/degrees/verify?payload=…            → verify a scanned payload
//	GET  /api/degrees/verify/{id}                 → verify by id or payload
//	GET  /api/degrees/student/{studentId}         → degrees of a student
//	GET  /api/degrees/wallet/{wallet}             → degrees of a wallet
//	GET  /api/degrees/qrcode/{id}                 → PNG QR code of the payload
//	GET  /metrics                                 → Prometheus metrics
package router

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/aanand-mishra/degree-registry/internal/http/handlers/degree"
	"github.com/aanand-mishra/degree-registry/internal/http/handlers/health"
	"github.com/aanand-mishra/degree-registry/internal/http/handlers/student"
	"github.com/aanand-mishra/degree-registry/internal/http/handlers/university"
)

// Registry combines the university and student handler dependencies.
type Registry interface {
	university.Registry
	student.Registry
}

// Deps are the services the routes are built from.
type Deps struct {
	Registry Registry
	Minter   degree.Minter
	Verifier degree.Verifier
	Storage  health.Pinger
	Gatherer prometheus.Gatherer
	QRSize   int
}

// New returns the application's HTTP handler.
func New(d Deps) http.Handler {
	router := http.NewServeMux()

	router.HandleFunc("GET /api/health", health.Handler(d.Storage))

	router.HandleFunc("GET /api/universities", university.GetList(d.Registry))
	router.HandleFunc("POST /api/universities", university.New(d.Registry))
	router.HandleFunc("GET /api/universities/{id}", university.GetByID(d.Registry))
	router.HandleFunc("PUT /api/universities/{id}/authorization", university.SetAuthorization(d.Registry))

	router.HandleFunc("GET /api/students", student.GetList(d.Registry))
	router.HandleFunc("POST /api/students", student.New(d.Registry))
	router.HandleFunc("GET /api/students/{id}", student.GetByID(d.Registry))
	router.HandleFunc("GET /api/students/wallet/{wallet}", student.GetByWallet(d.Registry))
	router.HandleFunc("POST /api/students/verify-national-id", student.VerifyNationalID(d.Registry))

	router.HandleFunc("GET /api/degrees", degree.GetList(d.Minter))
	router.HandleFunc("POST /api/degrees/mint", degree.Mint(d.Minter))
	router.HandleFunc("GET /api/degrees/verify", degree.VerifyPayload(d.Verifier))
	router.HandleFunc("GET /api/degrees/verify/{id}", degree.Verify(d.Verifier))
	router.HandleFunc("GET /api/degrees/student/{studentId}", degree.GetByStudent(d.Minter))
	router.HandleFunc("GET /api/degrees/wallet/{wallet}", degree.GetByWallet(d.Minter))
	router.HandleFunc("GET /api/degrees/qrcode/{id}", degree.QRCode(d.Minter, d.QRSize))

	if d.Gatherer != nil {
		router.Handle("GET /metrics", promhttp.HandlerFor(d.Gatherer, promhttp.HandlerOpts{}))
	}

	return logRequests(router)
}

// statusRecorder remembers the status code written by the wrapped handler.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// logRequests writes one structured log line per request.
func logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rec, r)

		slog.Info("request served",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Int("status", rec.status),
			slog.Duration("duration", time.Since(start)))
	})
}

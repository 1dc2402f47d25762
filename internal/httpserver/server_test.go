package httpserver_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/angeloszaimis/audio-relay/internal/httpserver"
)

var _ = Describe("HTTP Server", func() {
	noop := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})

	Context("server creation", func() {
		It("creates server with valid address", func() {
			srv, err := httpserver.New("localhost:9999", noop, httpserver.Timeouts{})
			Expect(err).NotTo(HaveOccurred())
			Expect(srv).NotTo(BeNil())
		})

		It("creates server on all interfaces", func() {
			srv, err := httpserver.New("0.0.0.0:5000", noop, httpserver.Timeouts{})
			Expect(err).NotTo(HaveOccurred())
			Expect(srv).NotTo(BeNil())
		})

		It("handles port-only address", func() {
			srv, err := httpserver.New(":9999", noop, httpserver.Timeouts{Write: time.Minute})
			Expect(err).NotTo(HaveOccurred())
			Expect(srv).NotTo(BeNil())
		})

		It("rejects invalid address", func() {
			srv, err := httpserver.New("invalid:host:port", noop, httpserver.Timeouts{})
			Expect(err).To(HaveOccurred())
			Expect(srv).To(BeNil())
		})

		It("rejects a missing port", func() {
			srv, err := httpserver.New("localhost:", noop, httpserver.Timeouts{})
			Expect(err).To(HaveOccurred())
			Expect(srv).To(BeNil())
		})
	})

	Context("CORS", func() {
		It("allows any origin", func() {
			h := httpserver.CORS(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusOK)
			}))

			req := httptest.NewRequest(http.MethodGet, "/extract?id=x", nil)
			req.Header.Set("Origin", "http://app.example.com")
			w := httptest.NewRecorder()
			h.ServeHTTP(w, req)

			Expect(w.Code).To(Equal(http.StatusOK))
			Expect(w.Header().Get("Access-Control-Allow-Origin")).To(Equal("*"))
		})

		It("answers preflight requests for the token header", func() {
			h := httpserver.CORS(noop)

			req := httptest.NewRequest(http.MethodOptions, "/extract?id=x", nil)
			req.Header.Set("Origin", "http://app.example.com")
			req.Header.Set("Access-Control-Request-Method", http.MethodGet)
			req.Header.Set("Access-Control-Request-Headers", "x-po-token")
			w := httptest.NewRecorder()
			h.ServeHTTP(w, req)

			Expect(w.Code).To(Equal(http.StatusNoContent))
			Expect(w.Header().Get("Access-Control-Allow-Origin")).To(Equal("*"))
			Expect(w.Header().Get("Access-Control-Allow-Methods")).To(ContainSubstring(http.MethodGet))
		})

		It("only matches the lowercase header list browsers send", func() {
			h := httpserver.CORS(noop)

			req := httptest.NewRequest(http.MethodOptions, "/extract?id=x", nil)
			req.Header.Set("Origin", "http://app.example.com")
			req.Header.Set("Access-Control-Request-Method", http.MethodGet)
			req.Header.Set("Access-Control-Request-Headers", "X-PO-Token")
			w := httptest.NewRecorder()
			h.ServeHTTP(w, req)

			Expect(w.Header().Get("Access-Control-Allow-Origin")).To(BeEmpty())
		})
	})

	Context("server lifecycle", func() {
		var testServer *httpserver.Server
		var testPort = ":19999"

		AfterEach(func() {
			if testServer != nil {
				ctx, cancel := context.WithTimeout(context.Background(), 1*time.Second)
				defer cancel()
				_ = testServer.Shutdown(ctx)
			}
		})

		It("starts and handles requests", func() {
			handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusOK)
				w.Write([]byte("test"))
			})
			var err error
			testServer, err = httpserver.New(testPort, handler, httpserver.Timeouts{})
			Expect(err).NotTo(HaveOccurred())

			go func() {
				testServer.Start()
			}()
			time.Sleep(100 * time.Millisecond)

			resp, err := http.Get("http://localhost" + testPort)
			Expect(err).NotTo(HaveOccurred())
			defer resp.Body.Close()
			Expect(resp.StatusCode).To(Equal(http.StatusOK))
			body, _ := io.ReadAll(resp.Body)
			Expect(string(body)).To(Equal("test"))
		})

		It("shuts down gracefully", func() {
			var err error
			testServer, err = httpserver.New(":19998", noop, httpserver.Timeouts{})
			Expect(err).NotTo(HaveOccurred())

			go func() {
				testServer.Start()
			}()
			time.Sleep(100 * time.Millisecond)

			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			err = testServer.Shutdown(ctx)
			Expect(err).NotTo(HaveOccurred())
		})
	})
})

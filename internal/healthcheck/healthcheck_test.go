package healthcheck_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/angeloszaimis/audio-relay/internal/extractor"
	"github.com/angeloszaimis/audio-relay/internal/healthcheck"
	"github.com/angeloszaimis/audio-relay/internal/metrics"
	"github.com/angeloszaimis/audio-relay/pkg/logger"
)

type checkedEngine struct {
	extractor.EngineFunc
	failing atomic.Bool
	checks  atomic.Int32
}

func (c *checkedEngine) Check(context.Context) error {
	c.checks.Add(1)
	if c.failing.Load() {
		return errors.New("yt-dlp not found")
	}
	return nil
}

var _ = Describe("Monitor", func() {
	var (
		binary  *checkedEngine
		engines map[string]extractor.Engine
	)

	BeforeEach(func() {
		binary = &checkedEngine{}
		engines = map[string]extractor.Engine{
			extractor.NameNative: extractor.EngineFunc(func(context.Context, extractor.Request) (*extractor.Info, error) {
				return nil, nil
			}),
			extractor.NameYTDLP: binary,
		}
	})

	Describe("CheckNow", func() {
		It("should report engines without a checker as ready", func() {
			m := healthcheck.New(engines, time.Second, logger.Discard(), nil)

			Expect(m.Status()[extractor.NameNative].Ready).To(BeTrue())
			Expect(binary.checks.Load()).To(BeZero())
		})

		It("should count an unchecked engine as not ready", func() {
			m := healthcheck.New(engines, time.Second, logger.Discard(), nil)
			Expect(m.Healthy()).To(BeFalse())
		})

		It("should mark a passing engine ready", func() {
			m := healthcheck.New(engines, time.Second, logger.Discard(), nil)
			m.CheckNow(context.Background())

			Expect(m.Healthy()).To(BeTrue())
			Expect(m.Status()[extractor.NameYTDLP].Ready).To(BeTrue())
		})

		It("should record the failure reason", func() {
			binary.failing.Store(true)
			m := healthcheck.New(engines, time.Second, logger.Discard(), nil)
			m.CheckNow(context.Background())

			Expect(m.Healthy()).To(BeFalse())
			Expect(m.Status()[extractor.NameYTDLP].Error).To(Equal("yt-dlp not found"))
		})

		It("should emit an event only on transitions", func() {
			collector := metrics.NewCollector(10, logger.Discard())
			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()
			collector.Start(ctx)

			m := healthcheck.New(engines, time.Second, logger.Discard(), collector)
			m.CheckNow(ctx)
			m.CheckNow(ctx)

			Eventually(func() map[string]bool {
				return collector.Snapshot().Engines
			}).Should(HaveKeyWithValue(extractor.NameYTDLP, true))

			binary.failing.Store(true)
			m.CheckNow(ctx)

			Eventually(func() map[string]bool {
				return collector.Snapshot().Engines
			}).Should(HaveKeyWithValue(extractor.NameYTDLP, false))
		})
	})

	Describe("Run", func() {
		It("should check immediately and keep checking on every tick", func() {
			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()

			m := healthcheck.New(engines, 20*time.Millisecond, logger.Discard(), nil)
			go m.Run(ctx)

			Eventually(binary.checks.Load).Should(BeNumerically(">=", 3))
			Expect(m.Healthy()).To(BeTrue())
		})

		It("should notice an engine going down", func() {
			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()

			m := healthcheck.New(engines, 20*time.Millisecond, logger.Discard(), nil)
			go m.Run(ctx)
			Eventually(m.Healthy).Should(BeTrue())

			binary.failing.Store(true)
			Eventually(m.Healthy).Should(BeFalse())
		})

		It("should not panic on a non-positive interval", func() {
			for _, interval := range []time.Duration{0, -time.Second} {
				ctx, cancel := context.WithCancel(context.Background())
				done := make(chan struct{})

				m := healthcheck.New(engines, interval, logger.Discard(), nil)
				go func() {
					defer GinkgoRecover()
					defer close(done)
					m.Run(ctx)
				}()

				Eventually(m.Healthy).Should(BeTrue())
				cancel()
				Eventually(done).Should(BeClosed())
			}
		})

		It("should stop when context is cancelled", func() {
			ctx, cancel := context.WithCancel(context.Background())
			done := make(chan struct{})

			m := healthcheck.New(engines, 20*time.Millisecond, logger.Discard(), nil)
			go func() {
				m.Run(ctx)
				close(done)
			}()

			cancel()
			Eventually(done).Should(BeClosed())
		})
	})

	Describe("Handler", func() {
		It("should answer 200 when every engine is ready", func() {
			m := healthcheck.New(engines, time.Second, logger.Discard(), nil)
			m.CheckNow(context.Background())

			w := httptest.NewRecorder()
			m.Handler()(w, httptest.NewRequest(http.MethodGet, "/health", nil))

			Expect(w.Code).To(Equal(http.StatusOK))

			var body map[string]any
			Expect(json.Unmarshal(w.Body.Bytes(), &body)).To(Succeed())
			Expect(body).To(HaveKeyWithValue("status", "ok"))
			Expect(body["engines"]).To(HaveKey(extractor.NameYTDLP))
		})

		It("should answer 503 when an engine is not ready", func() {
			binary.failing.Store(true)
			m := healthcheck.New(engines, time.Second, logger.Discard(), nil)
			m.CheckNow(context.Background())

			w := httptest.NewRecorder()
			m.Handler()(w, httptest.NewRequest(http.MethodGet, "/health", nil))

			Expect(w.Code).To(Equal(http.StatusServiceUnavailable))
			Expect(w.Body.String()).To(ContainSubstring("degraded"))
		})
	})
})

package metrics

import (
	"errors"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
)

type fakeStat struct{ acquired, idle, total int32 }

func (s fakeStat) AcquiredConns() int32 { return s.acquired }
func (s fakeStat) IdleConns() int32     { return s.idle }
func (s fakeStat) TotalConns() int32    { return s.total }

func TestHandler_ExposesRecordedMetrics(t *testing.T) {
	app := fiber.New(fiber.Config{DisableStartupMessage: true})
	app.Use(Middleware())
	app.Get("/v1/analyses/:id", func(c *fiber.Ctx) error { return c.SendString("ok") })
	app.Get("/metrics", Handler())

	if _, err := app.Test(httptest.NewRequest("GET", "/v1/analyses/abc", nil), -1); err != nil {
		t.Fatal(err)
	}
	ObserveEngine("sample_best", time.Now(), errors.New("boom"))
	UpdateDBPoolMetrics(fakeStat{acquired: 2, idle: 3, total: 5})

	resp, err := app.Test(httptest.NewRequest("GET", "/metrics", nil), -1)
	if err != nil {
		t.Fatal(err)
	}
	body, _ := io.ReadAll(resp.Body)
	out := string(body)

	for _, want := range []string{
		`sitescout_http_requests_total{method="GET",path="/v1/analyses/:id",status="200"}`,
		`sitescout_engine_requests_total{operation="sample_best",outcome="error"}`,
		`sitescout_db_pool_conns_open 5`,
		`sitescout_db_pool_conns_idle 3`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("metrics output missing %s", want)
		}
	}
}

package rest_test

import (
	"errors"
	"net/http"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/frahmantamala/user-rbac/internal/transport/rest"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	goredis "github.com/redis/go-redis/v9"
)

var _ = Describe("Health", func() {
	It("should report 503 when the database ping fails", func() {
		db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
		Expect(err).NotTo(HaveOccurred())
		defer db.Close()
		mock.ExpectPing().WillReturnError(errors.New("connection refused"))

		srv := newTestServer(func(o *rest.Options) { o.DB = db })
		rec := srv.do(http.MethodGet, "/health", "", nil)

		Expect(rec.Code).To(Equal(http.StatusServiceUnavailable))
		body := decode[rest.HealthResponse](rec)
		Expect(body.Status).To(Equal(rest.HealthUnhealthy))
		Expect(body.Components["postgres"].Message).To(ContainSubstring("connection refused"))
		Expect(mock.ExpectationsWereMet()).To(Succeed())
	})

	It("should include redis when configured", func() {
		mr := miniredis.RunT(GinkgoT())
		client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
		defer client.Close()

		srv := newTestServer(func(o *rest.Options) { o.Redis = client })
		rec := srv.do(http.MethodGet, "/health", "", nil)
		Expect(rec.Code).To(Equal(http.StatusOK))
		Expect(decode[rest.HealthResponse](rec).Components).To(HaveKey("redis"))

		mr.Close()
		rec = srv.do(http.MethodGet, "/health", "", nil)
		Expect(rec.Code).To(Equal(http.StatusServiceUnavailable))
		Expect(decode[rest.HealthResponse](rec).Components["redis"].Status).To(Equal(rest.HealthUnhealthy))
	})
})

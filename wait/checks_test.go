package wait

import (
	"net"
	"net/http"
	"net/http/httptest"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Checks", func() {
	Describe("HTTP", func() {
		It("passes on a 2xx answer", func() {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusOK)
			}))
			defer srv.Close()

			Expect(HTTP(srv.URL)()).To(BeTrue())
		})

		It("fails on a 5xx answer", func() {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusServiceUnavailable)
			}))
			defer srv.Close()

			Expect(HTTP(srv.URL)()).To(BeFalse())
		})

		It("fails when nothing listens", func() {
			Expect(HTTP("http://" + closedAddr())()).To(BeFalse())
		})
	})

	Describe("TCP", func() {
		It("passes when the port accepts connections", func() {
			l, err := net.Listen("tcp", "127.0.0.1:0")
			Expect(err).ToNot(HaveOccurred())
			defer l.Close()

			Expect(TCP(l.Addr().String())()).To(BeTrue())
		})

		It("fails when nothing listens", func() {
			Expect(TCP(closedAddr())()).To(BeFalse())
		})
	})

	Describe("SQLServerDSN", func() {
		It("escapes the password and disables encryption", func() {
			dsn := SQLServerDSN("127.0.0.1", 1433, "p@ss word")

			Expect(dsn).To(HavePrefix("sqlserver://sa:"))
			Expect(dsn).To(ContainSubstring("@127.0.0.1:1433"))
			Expect(dsn).To(HaveSuffix("?database=master&encrypt=disable"))
			Expect(strings.Count(dsn, "@")).To(Equal(1))
		})
	})

	Describe("SQL", func() {
		It("fails for an unknown driver", func() {
			Expect(SQL("no-such-driver", "")()).To(BeFalse())
		})
	})
})

// closedAddr returns an address nobody listens on.
func closedAddr() string {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	Expect(err).ToNot(HaveOccurred())
	addr := l.Addr().String()
	Expect(l.Close()).To(Succeed())
	return addr
}

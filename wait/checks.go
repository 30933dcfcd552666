package wait

import (
	"context"
	"database/sql"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/flanksource/commons/logger"
	_ "github.com/microsoft/go-mssqldb"
)

// AttemptTimeout bounds a single attempt of the predicates in this file.
var AttemptTimeout = 2 * time.Second

// HTTP returns a check that passes once a GET on target answers with a status
// below 400.
func HTTP(target string) func() bool {
	client := &http.Client{Timeout: AttemptTimeout}
	return func() bool {
		resp, err := client.Get(target)
		if err != nil {
			logger.Debugf("GET %s: %v", target, err)
			return false
		}
		defer resp.Body.Close()
		return resp.StatusCode < http.StatusBadRequest
	}
}

// TCP returns a check that passes once addr accepts connections.
func TCP(addr string) func() bool {
	return func() bool {
		conn, err := net.DialTimeout("tcp", addr, AttemptTimeout)
		if err != nil {
			return false
		}
		_ = conn.Close()
		return true
	}
}

// SQL returns a check that passes once the database behind dsn answers
// "SELECT 1".
func SQL(driver, dsn string) func() bool {
	return func() bool {
		return querySQL(driver, dsn) == nil
	}
}

// SQLServer returns a SQL check against the sa account of a SQL Server
// listening on host:port.
func SQLServer(host string, port int, password string) func() bool {
	return SQL("sqlserver", SQLServerDSN(host, port, password))
}

// SQLServerDSN builds a sqlserver:// connection URL for the sa account.
func SQLServerDSN(host string, port int, password string) string {
	u := &url.URL{
		Scheme:   "sqlserver",
		User:     url.UserPassword("sa", password),
		Host:     net.JoinHostPort(host, strconv.Itoa(port)),
		RawQuery: "database=master&encrypt=disable",
	}
	return u.String()
}

func querySQL(driver, dsn string) error {
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return err
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), AttemptTimeout)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		return err
	}

	var result int
	if err := db.QueryRowContext(ctx, "SELECT 1").Scan(&result); err != nil {
		return err
	}
	if result != 1 {
		return fmt.Errorf("unexpected query result: %d", result)
	}
	return nil
}

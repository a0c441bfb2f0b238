// Package database opens the backing stores used by the repository layer:
// MySQL through database/sql and MongoDB through the official driver.
package database

import (
	"context"
	"database/sql"
	"net"
	"time"

	"github.com/go-sql-driver/mysql"
)

// MySQLConfig holds connection settings for OpenMySQL.
type MySQLConfig struct {
	User string
	Pass string
	Host string
	Port string
	Name string
}

// OpenMySQL connects to MySQL and verifies the connection.
func OpenMySQL(c MySQLConfig) (*sql.DB, error) {
	dc := mysql.NewConfig()
	dc.User = c.User
	dc.Passwd = c.Pass
	dc.Net = "tcp"
	dc.Addr = net.JoinHostPort(c.Host, c.Port)
	dc.DBName = c.Name
	// parseTime -> DATETIME scans into time.Time; UTC keeps times consistent
	dc.ParseTime = true
	dc.Loc = time.UTC
	dc.Params = map[string]string{"charset": "utf8mb4"}

	db, err := sql.Open("mysql", dc.FormatDSN())
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(30 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

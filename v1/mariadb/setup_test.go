package mariadb

import (
	"testing"

	mysqldriver "github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDSN(t *testing.T) {
	cfg := Config{Connection: Connection{
		Host:      "db",
		Port:      "3306",
		User:      "farm",
		Password:  "secret",
		DbName:    "farmstore",
		ParseTime: true,
		Timeout:   "5s",
	}}

	dsn := DSN(cfg)
	assert.Equal(t, "farm:secret@tcp(db:3306)/farmstore?charset=utf8mb4&parseTime=True&loc=Local&timeout=5s", dsn)

	parsed, err := mysqldriver.ParseDSN(dsn)
	require.NoError(t, err)
	assert.Equal(t, "db:3306", parsed.Addr)
	assert.Equal(t, "farmstore", parsed.DBName)
	assert.True(t, parsed.ParseTime)
}

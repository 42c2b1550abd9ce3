package config

import (
	"fmt"

	"github.com/nodewatch/nodewatch/internal/monitorsrv/config"
)

// Dsn builds the connection string for the monitor store from the loaded
// server configuration.
func Dsn() string {
	db := config.Config().DB
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		db.Host, db.Port, db.User, db.Password, db.DBName, db.SSLMode)
}

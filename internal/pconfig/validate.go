package pconfig

import (
	"fmt"

	krb5config "github.com/jcmturner/gokrb5/v8/config"
	"github.com/jackc/pgx/v5/pgconn"
)

// DSN builds the libpq-style connection string pgx expects.
func (a AdapterConnectionConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s",
		a.Host, a.Port, a.User, a.Password, a.Database)
}

// JDBCURL builds the JDBC connection string the Debezium JDBC sink
// connector expects for connection.url.
func (a AdapterConnectionConfig) JDBCURL() string {
	host := a.Host
	if a.Port != "" {
		host = host + ":" + a.Port
	}
	return fmt.Sprintf("jdbc:postgresql://%s/%s", host, a.Database)
}

// ValidateDSN parses a's DSN with pgx's own connection-string parser
// and returns the first error a pipeline author would hit before ever
// attempting a connection. This package never opens the connection:
// compiling a pipeline must never depend on reaching the target
// database, only on writing a config that would work if it could.
func (a AdapterConnectionConfig) ValidateDSN() error {
	if _, err := pgconn.ParseConfig(a.DSN()); err != nil {
		return fmt.Errorf("invalid connection details for adapter at %s: %w", a.Host, err)
	}
	return nil
}

// ValidateKrb5Config parses the krb5.conf file at path without
// performing any AS/TGS exchange, catching a malformed realm/KDC
// definition at compile time instead of first contact with the KDC.
func ValidateKrb5Config(path string) error {
	if _, err := krb5config.Load(path); err != nil {
		return fmt.Errorf("invalid krb5 config %q: %w", path, err)
	}
	return nil
}

package config

import "fmt"

// buildDSN assembles a MySQL DSN from discrete database fields.
func buildDSN(db *DatabaseRuntimeConfig) string {
	if db.DSN != "" {
		return db.DSN
	}

	host := db.Host
	if host == "" {
		host = defaultDBHost
	}
	port := db.Port
	if port == 0 {
		port = defaultDBPort
	}
	user := db.User
	if user == "" {
		user = defaultDBUser
	}
	pass := db.Password
	if pass == "" {
		pass = defaultDBPassword
	}
	name := db.Name
	if name == "" {
		name = defaultDBName
	}
	charset := db.Charset
	if charset == "" {
		charset = defaultDBCharset
	}
	loc := db.Loc
	if loc == "" {
		loc = defaultDBLoc
	}

	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=%s&parseTime=True&loc=%s",
		user, pass, host, port, name, charset, loc)
}

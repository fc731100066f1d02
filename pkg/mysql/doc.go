// Package mysql is the MySQL capability provider, built on database/sql and
// go-sql-driver/mysql.
//
// Tenant metadata stores MySQL endpoints as URLs:
//
//	mysql://user:pass@db:3306/acme?charset=utf8mb4
//
// ParseURL turns them into a driver config; native DSNs are accepted too.
// Inside InTx the callback receives a *sql.Tx.
package mysql

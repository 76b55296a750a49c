// Package all wires every built-in engine backend into the engine factory.
//
// This package exists purely for side effects: importing it (even as a blank
// import) runs the init functions of each concrete backend, which register
// their openers with the engine package. Importing it makes the following
// engine kinds available at runtime:
//
//   - "sqlite"   (sqlbatch/internal/engine/sqlite)
//   - "postgres" (sqlbatch/internal/engine/postgres)
//   - "mssql"    (sqlbatch/internal/engine/mssql)
//   - "mysql"    (sqlbatch/internal/engine/mysql)
//
// Binaries that only ever talk to one backend can blank-import that backend
// package directly instead of this one.
package all

import (
	_ "sqlbatch/internal/engine/mssql"
	_ "sqlbatch/internal/engine/mysql"
	_ "sqlbatch/internal/engine/postgres"
	_ "sqlbatch/internal/engine/sqlite"
)

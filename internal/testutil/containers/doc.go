// Package containers provides testcontainer management for integration
// tests, currently a MySQL 8 container used to exercise the repositories
// against a real server instead of in-memory SQLite.
//
// Containers are managed from TestMain in integration test packages:
//
//	var mysqlContainer *containers.MySQLContainer
//
//	func TestMain(m *testing.M) {
//	    var err error
//	    mysqlContainer, err = containers.NewMySQLContainer(context.Background(), nil)
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//	    code := m.Run()
//	    _ = mysqlContainer.Terminate(context.Background())
//	    os.Exit(code)
//	}
//
// Integration tests using this package build behind the "integration" tag:
//
//	go test -tags=integration ./...
package containers

/*
Package dbtest spins up database containers for tests. It provides a
higher-level interface to the testcontainers-go library that is suitable for
the common case of a test that just needs a working Neo4j server.

If the details of the database container are not important to your test, use
this package. If you need a specific customisation of the database, use the
testcontainers-go modules directly.

Developing locally with Docker, you may want to manually inspect the database
after a test failure. To do this, set the Inspect flag:

	go test -dbtest.inspect

This package is intended to be used in tests only. It is not suitable for
production use.
*/
package dbtest

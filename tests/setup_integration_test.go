package tests

import (
	"os"
	"testing"

	log "github.com/sirupsen/logrus"

	"github.com/ndavydov/applicant-sync/internal/tablestore"
)

var store *tablestore.SqliteStore

func upEnvironment() {

	var err error
	store, err = tablestore.NewSqliteStore("testdatabase.db")
	if err != nil {
		log.Fatalf("could not create sqlite store: %s", err)
	}
}

func downEnvironment() {
	_ = store.Close()
	_ = os.Remove("testdatabase.db")
}

func TestMain(m *testing.M) {

	upEnvironment()

	code := m.Run()

	downEnvironment()

	os.Exit(code)
}

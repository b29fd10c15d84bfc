package store_test

import (
	"testing"

	"github.com/Ap6pack/PDF-Search-Plus/internal/tester"
)

func TestMain(m *testing.M) {
	tester.Setup()
	m.Run()
	tester.RemoveDBFile()
}

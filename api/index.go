package handler

import (
	"net/http"

	"cottage-ledger/bootstrap"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
)

var ledger *fiber.App

func init() {
	var err error
	if ledger, err = bootstrap.New(); err != nil {
		panic("cottage ledger: " + err.Error())
	}
}

// Handler serves every /api/v1 and /health route of the ledger from one
// function; the host rewrites all paths to it, so RequestURI is rebuilt
// from the URL before fiber routes it.
func Handler(w http.ResponseWriter, r *http.Request) {
	r.RequestURI = r.URL.String()
	adaptor.FiberApp(ledger)(w, r)
}

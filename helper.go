package ledgergo

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/template"

	"github.com/bwmarrin/snowflake"
	"github.com/jackc/pgx/v5"
)

// LocalHelper prepares a local database for the seeder and the
// integration tests: schema init, customer seeding, teardown.
type LocalHelper struct {
	Conn *pgx.Conn
}

func NewLocalHelper(cfg *Config) (*LocalHelper, error) {
	conn, err := pgx.Connect(context.Background(), cfg.Database.ConnStr)
	if err != nil {
		return nil, err
	}
	return &LocalHelper{Conn: conn}, nil
}

func (lh *LocalHelper) InitDB() (func(), error) {
	initSQLpath := filepath.Join("testdata", "init_db.sql")
	bits, err := os.ReadFile(initSQLpath)
	if err != nil {
		return nil, err
	}
	if _, err = lh.Conn.Exec(context.Background(), string(bits)); err != nil {
		return nil, err
	}
	return lh.teardownDB(), err
}

// SeedCustomers inserts one customer per name and returns name -> ID so
// callers can provision accounts against them.
func (lh *LocalHelper) SeedCustomers(node *snowflake.Node, names ...string) (map[string]snowflake.ID, error) {
	funcMap := template.FuncMap{
		"ToLower": strings.ToLower,
		"add":     func(a, b int) int { return a + b },
	}
	seedPath := filepath.Join("testdata", "seed_customers.tmpl")
	bits, err := os.ReadFile(seedPath)
	if err != nil {
		return nil, err
	}
	tmpl, err := template.New("seed_customers").Funcs(funcMap).Parse(string(bits))
	if err != nil {
		return nil, err
	}

	customers := make(map[string]snowflake.ID, len(names))
	inputForTemplate := make(map[string]string, len(names))
	for _, n := range names {
		id := node.Generate()
		customers[n] = id
		inputForTemplate[n] = id.String()
	}

	buf := new(bytes.Buffer)
	if err = tmpl.Execute(buf, inputForTemplate); err != nil {
		return nil, err
	}

	if _, err = lh.Conn.Exec(context.Background(), buf.String()); err != nil {
		return nil, err
	}

	return customers, err
}

func (lh *LocalHelper) teardownDB() func() {
	return func() {
		defer lh.Conn.Close(context.Background())

		tearSQLpath := filepath.Join("testdata", "teardown_db.sql")
		bits, err := os.ReadFile(tearSQLpath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "DB cleanup read teardown sql: %s", err.Error())
			return
		}
		if _, err = lh.Conn.Exec(context.Background(), string(bits)); err != nil {
			fmt.Fprintf(os.Stderr, "DB cleanup exec teardown sql: %s", err.Error())
			return
		}
	}
}

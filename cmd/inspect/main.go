// Command inspect dumps the persisted collections as tables, for poking at
// a talkboard data directory without starting the server.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"sort"
	"strings"

	"github.com/dgraph-io/badger/v4"
	"github.com/gookit/color"
	"github.com/olekukonko/tablewriter"

	"talkboard/contract"
	"talkboard/domain"
	"talkboard/storage"
)

func main() {
	backend := flag.String("backend", "disk", "Store backend: disk or badger")
	dataDir := flag.String("data", "./data", "Path to the disk store directory")
	badgerPath := flag.String("db", "./data/badger", "Path to the badger store")
	collection := flag.String("collection", "", "Single collection to dump (default: all)")
	flag.Parse()

	store, cleanup, err := openStore(*backend, *dataDir, *badgerPath)
	if err != nil {
		log.Fatal("Error while opening store: ", err)
	}
	defer cleanup()

	collections := []string{
		domain.CollectionUsers,
		domain.CollectionPhrases,
		domain.CollectionGroups,
		domain.CollectionMessages,
		domain.CollectionDirectMessages,
		domain.CollectionAlerts,
	}
	if *collection != "" {
		collections = []string{*collection}
	}

	for _, name := range collections {
		if err := dump(store, name); err != nil {
			log.Fatal(err)
		}
	}
}

func openStore(backend, dataDir, badgerPath string) (contract.Store, func(), error) {
	if backend == "badger" {
		opts := badger.DefaultOptions(badgerPath).
			WithReadOnly(true).
			WithLogger(nil).
			WithBypassLockGuard(true)
		db, err := badger.Open(opts)
		if err != nil {
			return nil, nil, err
		}
		return storage.NewBadgerStore(db), func() { _ = db.Close() }, nil
	}
	store, err := storage.NewDiskStore(dataDir)
	if err != nil {
		return nil, nil, err
	}
	return store, func() {}, nil
}

func dump(store contract.Store, name string) error {
	data, err := store.Load(name)
	if err != nil {
		return fmt.Errorf("loading %s: %w", name, err)
	}

	var records []map[string]any
	if len(data) > 0 {
		if err := json.Unmarshal(data, &records); err != nil {
			return fmt.Errorf("decoding %s: %w", name, err)
		}
	}

	color.Bold.Printf("\n%s (%d records)\n", name, len(records))
	if len(records) == 0 {
		return nil
	}

	headers := columnsOf(records[0])
	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader(headers)
	table.SetAutoWrapText(false)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetCenterSeparator("")
	table.SetColumnSeparator("")
	table.SetRowSeparator("")
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetTablePadding("\t")

	for _, record := range records {
		row := make([]string, 0, len(headers))
		for _, h := range headers {
			row = append(row, cell(record[h]))
		}
		table.Append(row)
	}
	table.Render()
	return nil
}

// columnsOf fixes a stable column order: id first, then the remaining keys
// sorted by name.
func columnsOf(record map[string]any) []string {
	var rest []string
	for k := range record {
		if k != "id" {
			rest = append(rest, k)
		}
	}
	sort.Strings(rest)
	if _, ok := record["id"]; ok {
		return append([]string{"id"}, rest...)
	}
	return rest
}

func cell(v any) string {
	if v == nil {
		return "-"
	}
	s := fmt.Sprintf("%v", v)
	s = strings.ReplaceAll(s, "\n", " ")
	if len(s) > 40 {
		s = s[:40] + "…"
	}
	return s
}

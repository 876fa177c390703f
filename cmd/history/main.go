// Command history dumps the persisted chat log of a room as a table.
// Meant for operators poking at a data directory while the server is stopped.
package main

import (
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"

	"lobby-chat/domain/chat"
	"lobby-chat/repositories"

	"github.com/dgraph-io/badger/v4"
	"github.com/gookit/color"
	"github.com/olekukonko/tablewriter"
	"github.com/samber/lo"
)

func main() {
	dbPath := flag.String("db", "data/badger", "Path to badger DB")
	room := flag.String("room", string(chat.Lobby), "Room to dump")
	limit := flag.Int("limit", 0, "Only show the last N messages (0 = all)")
	flag.Parse()

	opts := badger.DefaultOptions(*dbPath).
		WithReadOnly(true).
		WithLoggingLevel(badger.ERROR)
	db, err := badger.Open(opts)
	if err != nil {
		log.Fatal("Error while opening Badger: ", err)
	}
	defer db.Close()

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

	var replayLimit *int
	if *limit > 0 {
		replayLimit = limit
	}
	repo := repositories.NewMessageRepository(db, logger, replayLimit)
	defer repo.Close()

	messages, err := repo.ReadAll(chat.RoomID(*room))
	if err != nil {
		log.Fatal("Error while reading history: ", err)
	}

	header := fmt.Sprintf(" Room %q (%d messages) ", *room, len(messages))
	fmt.Println(color.New(color.BgBlack, color.FgGreen).Render(header))

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Seq", "Timestamp", "Sender", "Lang", "Text"})
	table.SetAutoWrapText(false)
	table.SetAutoFormatHeaders(true)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetCenterSeparator("")
	table.SetColumnSeparator("")
	table.SetRowSeparator("")
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetTablePadding("\t")

	rows := lo.Map(messages, func(m chat.Message, _ int) []string {
		return []string{
			fmt.Sprintf("%d", m.Sequence),
			m.At.Format("2006-01-02 15:04:05"),
			m.Sender,
			m.Lang,
			m.Text,
		}
	})
	table.AppendBulk(rows)
	table.Render()
}
